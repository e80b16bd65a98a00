package convert

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/x161880/antigravity2api/internal/signature"
)

// OpenAIToUpstream converts an OpenAI Chat Completions request body into the
// upstream envelope (spec §4.2). project and userPromptID come from the
// caller (account + request id); sigCache resolves thought-signature replay.
func OpenAIToUpstream(rawJSON []byte, model, project, userPromptID string, tools *ToolNameRegistry, sigCache *signature.Cache) (UpstreamRequest, error) {
	root := gjson.ParseBytes(rawJSON)
	hasTools := root.Get("tools").IsArray() && len(root.Get("tools").Array()) > 0
	sig := resolveSignature(sigCache, "", model, hasTools)

	var system *Content
	var contents []Content

	root.Get("messages").ForEach(func(_, msg gjson.Result) bool {
		role := msg.Get("role").String()
		switch role {
		case "system", "developer":
			text := msg.Get("content").String()
			if system == nil {
				system = &Content{Parts: []Part{{Text: text}}}
			} else {
				system.Parts = append(system.Parts, Part{Text: text})
			}
			return true
		case "tool":
			contents = append(contents, Content{
				Role: "user",
				Parts: []Part{{
					FunctionResponse: &FunctionResponse{
						Name:     tools.Resolve(model, msg.Get("tool_call_id").String()),
						Response: rawResponseObject(msg.Get("content")),
					},
				}},
			})
			return true
		case "assistant":
			contents = append(contents, openAIAssistantContent(msg, model, tools, sig))
			return true
		default: // user
			contents = append(contents, Content{Role: "user", Parts: openAIUserParts(msg)})
			return true
		}
	})

	var upstreamTools []UpstreamTool
	if hasTools {
		var decls []FunctionDeclaration
		root.Get("tools").ForEach(func(_, tool gjson.Result) bool {
			fn := tool.Get("function")
			safe := tools.Sanitize(model, fn.Get("name").String())
			decls = append(decls, FunctionDeclaration{
				Name:        safe,
				Description: fn.Get("description").String(),
				Parameters:  cleanParameters(fn.Get("parameters")),
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
	if v := root.Get("max_tokens"); v.Exists() {
		n := v.Int()
		genParams.MaxOutputTokens = &n
	} else if v = root.Get("max_completion_tokens"); v.Exists() {
		n := v.Int()
		genParams.MaxOutputTokens = &n
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
			ToolConfig:        openAIToolChoice(root.Get("tool_choice")),
		},
	}, nil
}

func foldContentsSignatures(contents []Content) []Content {
	for i := range contents {
		contents[i].Parts = foldStandaloneSignatures(contents[i].Parts)
	}
	return contents
}

func openAIUserParts(msg gjson.Result) []Part {
	content := msg.Get("content")
	if content.Type == gjson.String {
		return []Part{{Text: content.String()}}
	}
	var parts []Part
	content.ForEach(func(_, block gjson.Result) bool {
		switch block.Get("type").String() {
		case "text":
			parts = append(parts, Part{Text: block.Get("text").String()})
		case "image_url":
			url := block.Get("image_url.url").String()
			parts = append(parts, Part{InlineData: inlineDataFromDataURL(url)})
		}
		return true
	})
	if len(parts) == 0 {
		parts = append(parts, Part{Text: ""})
	}
	return parts
}

func openAIAssistantContent(msg gjson.Result, model string, tools *ToolNameRegistry, sig string) Content {
	var parts []Part
	if content := msg.Get("content"); content.Exists() && content.String() != "" {
		parts = append(parts, Part{Text: content.String()})
	}
	if reasoning := msg.Get("reasoning_content"); reasoning.Exists() {
		p := Part{Thought: true, Text: reasoning.String()}
		attachReasoningSignature(&p, sig)
		parts = append(parts, p)
	}
	msg.Get("tool_calls").ForEach(func(_, tc gjson.Result) bool {
		fn := tc.Get("function")
		p := Part{FunctionCall: &FunctionCall{
			Name: tools.Sanitize(model, fn.Get("name").String()),
			Args: argsFromArguments(fn.Get("arguments").String()),
		}}
		attachFunctionCallSignature(&p, sig)
		parts = append(parts, p)
		return true
	})
	return Content{Role: "model", Parts: parts}
}

// argsFromArguments decodes an OpenAI tool call's JSON-string arguments,
// tolerating non-JSON by wrapping into {"query": raw} (spec §9).
func argsFromArguments(raw string) json.RawMessage {
	if raw == "" {
		return json.RawMessage("{}")
	}
	if json.Valid([]byte(raw)) {
		return json.RawMessage(raw)
	}
	wrapped, _ := json.Marshal(map[string]string{"query": raw})
	return wrapped
}

func rawResponseObject(content gjson.Result) json.RawMessage {
	raw := content.Raw
	if content.Type == gjson.String {
		wrapped, _ := json.Marshal(map[string]string{"content": content.String()})
		return wrapped
	}
	if raw == "" {
		return json.RawMessage("{}")
	}
	return json.RawMessage(raw)
}

func openAIToolChoice(v gjson.Result) *ToolConfig {
	if !v.Exists() {
		return nil
	}
	mode := ""
	switch v.String() {
	case "none":
		mode = "NONE"
	case "required":
		mode = "ANY"
	case "auto":
		mode = "AUTO"
	}
	if mode == "" {
		return nil
	}
	return &ToolConfig{FunctionCallingConfig: &FunctionCallingConfig{Mode: mode}}
}

func inlineDataFromDataURL(dataURL string) *Blob {
	const prefix = "data:"
	if !strings.HasPrefix(dataURL, prefix) {
		return &Blob{MimeType: "application/octet-stream", Data: dataURL}
	}
	rest := dataURL[len(prefix):]
	comma := strings.IndexByte(rest, ',')
	if comma < 0 {
		return &Blob{MimeType: "application/octet-stream", Data: rest}
	}
	meta := rest[:comma]
	mime := meta
	if semi := strings.IndexByte(meta, ';'); semi >= 0 {
		mime = meta[:semi]
	}
	return &Blob{MimeType: mime, Data: rest[comma+1:]}
}
