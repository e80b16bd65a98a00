package convert

import "encoding/json"

// GeminiGenerateContentResponse reassembles the native Gemini response shape
// from an ExtractedResponse, so a non-stream call through this dialect
// returns exactly what the upstream itself would have (minus mangled names).
func GeminiGenerateContentResponse(model string, ex ExtractedResponse) map[string]any {
	var parts []any
	if ex.ReasoningText != "" {
		parts = append(parts, map[string]any{"thought": true, "text": ex.ReasoningText, "thoughtSignature": ex.ReasoningSignature})
	}
	if ex.Text != "" {
		parts = append(parts, map[string]any{"text": ex.Text})
	}
	for _, c := range ex.ToolCalls {
		fc := map[string]any{"name": c.Name, "args": rawOrEmpty(c.Args)}
		part := map[string]any{"functionCall": fc}
		if c.Signature != "" {
			part["thoughtSignature"] = c.Signature
		}
		parts = append(parts, part)
	}

	candidate := map[string]any{
		"content":      map[string]any{"role": "model", "parts": parts},
		"finishReason": ex.FinishReason,
	}

	body := map[string]any{"candidates": []any{candidate}}
	if ex.Usage != nil {
		body["usageMetadata"] = map[string]any{
			"promptTokenCount":     ex.Usage.PromptTokens,
			"candidatesTokenCount": ex.Usage.CompletionTokens,
			"totalTokenCount":      ex.Usage.TotalTokens,
		}
	}
	return body
}

func rawOrEmpty(raw []byte) any {
	if len(raw) == 0 {
		return map[string]any{}
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return map[string]any{}
	}
	return v
}

// GeminiErrorEnvelope builds {error:{code,message,status}} (spec §6).
func GeminiErrorEnvelope(code int, message, status string) map[string]any {
	return map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
			"status":  status,
		},
	}
}
