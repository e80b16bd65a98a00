package convert

import (
	"encoding/json"
	"time"
)

// OpenAIChatCompletion assembles the non-stream OpenAI chat.completion body
// from an ExtractedResponse (spec §4.2, §8 property 7).
func OpenAIChatCompletion(id, model string, ex ExtractedResponse) map[string]any {
	message := map[string]any{"role": "assistant"}
	if ex.Text != "" {
		message["content"] = ex.Text
	} else {
		message["content"] = nil
	}
	if ex.ReasoningText != "" {
		message["reasoning_content"] = ex.ReasoningText
	}
	if len(ex.ToolCalls) > 0 {
		message["tool_calls"] = openAIToolCalls(ex.ToolCalls)
	}

	choice := map[string]any{
		"index":         0,
		"message":       message,
		"finish_reason": openAIFinishReason(ex.FinishReason, len(ex.ToolCalls) > 0),
	}

	body := map[string]any{
		"id":      id,
		"object":  "chat.completion",
		"created": time.Now().Unix(),
		"model":   model,
		"choices": []any{choice},
	}
	if ex.Usage != nil {
		body["usage"] = openAIUsage(ex.Usage)
	}
	return body
}

func openAIToolCalls(calls []ToolCallResult) []any {
	out := make([]any, 0, len(calls))
	for i, c := range calls {
		args := c.Args
		if len(args) == 0 {
			args = json.RawMessage("{}")
		}
		out = append(out, map[string]any{
			"index": i,
			"id":    c.ID,
			"type":  "function",
			"function": map[string]any{
				"name":      c.Name,
				"arguments": string(args),
			},
		})
	}
	return out
}

func openAIUsage(u *Usage) map[string]any {
	return map[string]any{
		"prompt_tokens":     u.PromptTokens,
		"completion_tokens": u.CompletionTokens,
		"total_tokens":      u.TotalTokens,
	}
}

// OpenAIFinishReason exposes the upstream finishReason -> OpenAI
// finish_reason mapping for the Stream Engine's writer.
func OpenAIFinishReason(upstream string, hasToolCalls bool) string {
	return openAIFinishReason(upstream, hasToolCalls)
}

func openAIFinishReason(upstream string, hasToolCalls bool) string {
	if hasToolCalls {
		return "tool_calls"
	}
	switch upstream {
	case "STOP":
		return "stop"
	case "MAX_TOKENS":
		return "length"
	case "SAFETY", "RECITATION":
		return "content_filter"
	default:
		return "stop"
	}
}

// OpenAIErrorEnvelope builds {error:{message,type,code}} (spec §6).
func OpenAIErrorEnvelope(errType, message string, code int) map[string]any {
	return map[string]any{
		"error": map[string]any{
			"message": message,
			"type":    errType,
			"code":    code,
		},
	}
}
