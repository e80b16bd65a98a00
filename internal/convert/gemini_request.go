package convert

import (
	"github.com/tidwall/gjson"

	"github.com/x161880/antigravity2api/internal/signature"
)

// GeminiToUpstream passes a native Gemini generateContent body through after
// normalization: thought/signature rebalancing, tool-name mangling, and the
// feature-flag model name (spec §4.2: "Gemini contents are passed through
// after normalization").
func GeminiToUpstream(rawJSON []byte, model, project, userPromptID string, tools *ToolNameRegistry, sigCache *signature.Cache) (UpstreamRequest, error) {
	root := gjson.ParseBytes(rawJSON)
	hasTools := root.Get("tools").IsArray() && len(root.Get("tools").Array()) > 0
	sig := resolveSignature(sigCache, "", model, hasTools)

	var contents []Content
	root.Get("contents").ForEach(func(_, c gjson.Result) bool {
		content := Content{Role: c.Get("role").String()}
		c.Get("parts").ForEach(func(_, rp gjson.Result) bool {
			p := geminiPart(rp, model, tools)
			attachReasoningSignature(&p, sig)
			attachFunctionCallSignature(&p, sig)
			content.Parts = append(content.Parts, p)
			return true
		})
		content.Parts = foldStandaloneSignatures(content.Parts)
		contents = append(contents, content)
		return true
	})

	var system *Content
	if si := root.Get("systemInstruction"); si.Exists() {
		s := Content{}
		si.Get("parts").ForEach(func(_, rp gjson.Result) bool {
			s.Parts = append(s.Parts, Part{Text: rp.Get("text").String()})
			return true
		})
		system = &s
	}

	var upstreamTools []UpstreamTool
	root.Get("tools").ForEach(func(_, tool gjson.Result) bool {
		var decls []FunctionDeclaration
		tool.Get("functionDeclarations").ForEach(func(_, fn gjson.Result) bool {
			safe := tools.Sanitize(model, fn.Get("name").String())
			params := fn.Get("parameters")
			if !params.Exists() {
				params = fn.Get("parametersJsonSchema")
			}
			decls = append(decls, FunctionDeclaration{
				Name:        safe,
				Description: fn.Get("description").String(),
				Parameters:  cleanParameters(params),
			})
			return true
		})
		if len(decls) > 0 {
			upstreamTools = append(upstreamTools, UpstreamTool{FunctionDeclarations: decls})
		}
		if tool.Get("googleSearch").Exists() {
			upstreamTools = append(upstreamTools, UpstreamTool{GoogleSearch: &struct{}{}})
		}
		return true
	})

	features := ParseModelName(model)
	if features.AppendSearch {
		upstreamTools = append(upstreamTools, UpstreamTool{GoogleSearch: &struct{}{}})
	}

	gc := root.Get("generationConfig")
	genParams := GenerationParams{Thinking: features.Thinking}
	if v := gc.Get("temperature"); v.Exists() {
		f := v.Float()
		genParams.Temperature = &f
	}
	if v := gc.Get("topP"); v.Exists() {
		f := v.Float()
		genParams.TopP = &f
	}
	if v := gc.Get("topK"); v.Exists() {
		f := v.Float()
		genParams.TopK = &f
	}
	if v := gc.Get("maxOutputTokens"); v.Exists() {
		n := v.Int()
		genParams.MaxOutputTokens = &n
	}
	if v := gc.Get("thinkingConfig.thinkingBudget"); v.Exists() {
		n := v.Int()
		genParams.ThinkingBudgetTokens = &n
	}

	var toolConfig *ToolConfig
	if mode := root.Get("toolConfig.functionCallingConfig.mode"); mode.Exists() {
		toolConfig = &ToolConfig{FunctionCallingConfig: &FunctionCallingConfig{Mode: mode.String()}}
	}

	return UpstreamRequest{
		Model:        features.Model,
		Project:      project,
		UserPromptID: userPromptID,
		Request: UpstreamBody{
			Contents:          contents,
			SystemInstruction: system,
			GenerationConfig:  NormalizeGenerationConfig(genParams),
			Tools:             upstreamTools,
			ToolConfig:        toolConfig,
		},
	}, nil
}

func geminiPart(rp gjson.Result, model string, tools *ToolNameRegistry) Part {
	p := Part{ThoughtSignature: rp.Get("thoughtSignature").String()}
	if rp.Get("thought").Bool() {
		p.Thought = true
		p.Text = rp.Get("text").String()
		return p
	}
	if text := rp.Get("text"); text.Exists() {
		p.Text = text.String()
		return p
	}
	if fc := rp.Get("functionCall"); fc.Exists() {
		p.FunctionCall = &FunctionCall{
			Name: tools.Sanitize(model, fc.Get("name").String()),
			Args: argsFromGJSON(fc.Get("args")),
		}
		return p
	}
	if fr := rp.Get("functionResponse"); fr.Exists() {
		p.FunctionResponse = &FunctionResponse{
			Name:     tools.Resolve(model, fr.Get("name").String()),
			Response: rawResponseObject(fr.Get("response")),
		}
		return p
	}
	if id := rp.Get("inlineData"); id.Exists() {
		p.InlineData = &Blob{MimeType: id.Get("mimeType").String(), Data: id.Get("data").String()}
		return p
	}
	if fd := rp.Get("fileData"); fd.Exists() {
		p.FileData = &FileData{MimeType: fd.Get("mimeType").String(), FileURI: fd.Get("fileUri").String()}
		return p
	}
	return p
}

func argsFromGJSON(v gjson.Result) []byte {
	if !v.Exists() {
		return []byte("{}")
	}
	return []byte(v.Raw)
}
