package convert

// ClaudeMessage assembles the non-stream Anthropic Messages body. Signature
// is attached to a thinking block only when passSignatureToClient is set
// (spec scenario S2).
func ClaudeMessage(id, model string, ex ExtractedResponse, passSignatureToClient bool) map[string]any {
	var blocks []any
	if ex.ReasoningText != "" {
		thinking := map[string]any{"type": "thinking", "thinking": ex.ReasoningText}
		if passSignatureToClient && ex.ReasoningSignature != "" {
			thinking["signature"] = ex.ReasoningSignature
		}
		blocks = append(blocks, thinking)
	}
	for _, c := range ex.ToolCalls {
		block := map[string]any{
			"type":  "tool_use",
			"id":    c.ID,
			"name":  c.Name,
			"input": rawOrEmpty(c.Args),
		}
		blocks = append(blocks, block)
	}
	if ex.Text != "" {
		blocks = append(blocks, map[string]any{"type": "text", "text": ex.Text})
	}

	body := map[string]any{
		"id":          id,
		"type":        "message",
		"role":        "assistant",
		"model":       model,
		"content":     blocks,
		"stop_reason": claudeStopReason(ex.FinishReason, len(ex.ToolCalls) > 0),
	}
	if ex.Usage != nil {
		body["usage"] = map[string]any{
			"input_tokens":  ex.Usage.PromptTokens,
			"output_tokens": ex.Usage.CompletionTokens,
		}
	}
	return body
}

func claudeStopReason(upstream string, hasToolCalls bool) string {
	if hasToolCalls {
		return "tool_use"
	}
	switch upstream {
	case "MAX_TOKENS":
		return "max_tokens"
	case "SAFETY", "RECITATION":
		return "stop_sequence"
	default:
		return "end_turn"
	}
}

// ClaudeErrorEnvelope builds {type:"error", error:{type,message}} (spec §6).
func ClaudeErrorEnvelope(errType, message string) map[string]any {
	return map[string]any{
		"type": "error",
		"error": map[string]any{
			"type":    errType,
			"message": message,
		},
	}
}
