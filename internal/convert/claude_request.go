package convert

import (
	"encoding/json"

	"github.com/tidwall/gjson"

	"github.com/x161880/antigravity2api/internal/signature"
)

// ClaudeToUpstream converts an Anthropic Messages request into the upstream
// envelope: tool_result -> functionResponse, tool_use -> functionCall,
// thinking blocks -> thought parts carrying their signature (spec §4.2).
func ClaudeToUpstream(rawJSON []byte, model, project, userPromptID string, tools *ToolNameRegistry, sigCache *signature.Cache) (UpstreamRequest, error) {
	root := gjson.ParseBytes(rawJSON)
	hasTools := root.Get("tools").IsArray() && len(root.Get("tools").Array()) > 0
	sig := resolveSignature(sigCache, "", model, hasTools)

	var system *Content
	if s := root.Get("system"); s.Exists() {
		if s.Type == gjson.String {
			system = &Content{Parts: []Part{{Text: s.String()}}}
		} else {
			var parts []Part
			s.ForEach(func(_, block gjson.Result) bool {
				parts = append(parts, Part{Text: block.Get("text").String()})
				return true
			})
			system = &Content{Parts: parts}
		}
	}

	// tool_result blocks name their call only by tool_use_id; map each id to
	// the tool name its tool_use block declared.
	toolUseNames := make(map[string]string)
	root.Get("messages").ForEach(func(_, msg gjson.Result) bool {
		msg.Get("content").ForEach(func(_, block gjson.Result) bool {
			if block.Get("type").String() == "tool_use" {
				toolUseNames[block.Get("id").String()] = block.Get("name").String()
			}
			return true
		})
		return true
	})

	var contents []Content
	root.Get("messages").ForEach(func(_, msg gjson.Result) bool {
		role := msg.Get("role").String()
		content := msg.Get("content")

		if content.Type == gjson.String {
			upstreamRole := "user"
			if role == "assistant" {
				upstreamRole = "model"
			}
			contents = append(contents, Content{Role: upstreamRole, Parts: []Part{{Text: content.String()}}})
			return true
		}

		if role == "assistant" {
			contents = append(contents, claudeAssistantContent(content, model, tools, sig))
			return true
		}

		// user role: text / image / tool_result blocks.
		var parts []Part
		content.ForEach(func(_, block gjson.Result) bool {
			switch block.Get("type").String() {
			case "text":
				parts = append(parts, Part{Text: block.Get("text").String()})
			case "image":
				src := block.Get("source")
				parts = append(parts, Part{InlineData: &Blob{
					MimeType: src.Get("media_type").String(),
					Data:     src.Get("data").String(),
				}})
			case "tool_result":
				name, ok := toolUseNames[block.Get("tool_use_id").String()]
				if !ok {
					name = tools.Resolve(model, block.Get("tool_use_id").String())
				}
				parts = append(parts, Part{FunctionResponse: &FunctionResponse{
					Name:     name,
					Response: claudeToolResultBody(block.Get("content")),
				}})
			}
			return true
		})
		contents = append(contents, Content{Role: "user", Parts: parts})
		return true
	})

	var upstreamTools []UpstreamTool
	if hasTools {
		var decls []FunctionDeclaration
		root.Get("tools").ForEach(func(_, tool gjson.Result) bool {
			safe := tools.Sanitize(model, tool.Get("name").String())
			decls = append(decls, FunctionDeclaration{
				Name:        safe,
				Description: tool.Get("description").String(),
				Parameters:  cleanParameters(tool.Get("input_schema")),
			})
			return true
		})
		upstreamTools = []UpstreamTool{{FunctionDeclarations: decls}}
	}

	features := ParseModelName(model)
	if features.AppendSearch {
		upstreamTools = append(upstreamTools, UpstreamTool{GoogleSearch: &struct{}{}})
	}

	genParams := GenerationParams{Thinking: features.Thinking}
	if v := root.Get("temperature"); v.Exists() {
		f := v.Float()
		genParams.Temperature = &f
	}
	if v := root.Get("top_p"); v.Exists() {
		f := v.Float()
		genParams.TopP = &f
	}
	if v := root.Get("top_k"); v.Exists() {
		f := v.Float()
		genParams.TopK = &f
	}
	if v := root.Get("max_tokens"); v.Exists() {
		n := v.Int()
		genParams.MaxOutputTokens = &n
	}
	if v := root.Get("thinking.budget_tokens"); v.Exists() {
		n := v.Int()
		genParams.ThinkingBudgetTokens = &n
	} else if root.Get("thinking.type").String() == "enabled" {
		genParams.Thinking = ThinkingMax
	}

	return UpstreamRequest{
		Model:        features.Model,
		Project:      project,
		UserPromptID: userPromptID,
		Request: UpstreamBody{
			Contents:          foldContentsSignatures(contents),
			SystemInstruction: system,
			GenerationConfig:  NormalizeGenerationConfig(genParams),
			Tools:             upstreamTools,
		},
	}, nil
}

func claudeAssistantContent(content gjson.Result, model string, tools *ToolNameRegistry, sig string) Content {
	var parts []Part
	content.ForEach(func(_, block gjson.Result) bool {
		switch block.Get("type").String() {
		case "thinking":
			p := Part{Thought: true, Text: block.Get("thinking").String(), ThoughtSignature: block.Get("signature").String()}
			if p.ThoughtSignature == "" {
				attachReasoningSignature(&p, sig)
			}
			parts = append(parts, p)
		case "text":
			parts = append(parts, Part{Text: block.Get("text").String()})
		case "tool_use":
			p := Part{FunctionCall: &FunctionCall{
				Name: tools.Sanitize(model, block.Get("name").String()),
				Args: []byte(block.Get("input").Raw),
			}}
			attachFunctionCallSignature(&p, sig)
			parts = append(parts, p)
		}
		return true
	})
	return Content{Role: "model", Parts: parts}
}

func claudeToolResultBody(content gjson.Result) json.RawMessage {
	if content.Type == gjson.String {
		wrapped, _ := json.Marshal(map[string]string{"content": content.String()})
		return wrapped
	}
	if content.IsArray() {
		var texts []string
		content.ForEach(func(_, block gjson.Result) bool {
			if block.Get("type").String() == "text" {
				texts = append(texts, block.Get("text").String())
			}
			return true
		})
		wrapped, _ := json.Marshal(map[string]any{"content": texts})
		return wrapped
	}
	if content.Raw == "" {
		return json.RawMessage("{}")
	}
	return json.RawMessage(content.Raw)
}
