package convert

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIChatCompletion_PlainText(t *testing.T) {
	ex := ExtractedResponse{Text: "hi there", FinishReason: "STOP", Usage: &Usage{PromptTokens: 3, CompletionTokens: 2, TotalTokens: 5}}
	body := OpenAIChatCompletion("resp-1", "gemini-2.5-pro", ex)

	assert.Equal(t, "resp-1", body["id"])
	choices := body["choices"].([]any)
	choice := choices[0].(map[string]any)
	assert.Equal(t, "stop", choice["finish_reason"])
	msg := choice["message"].(map[string]any)
	assert.Equal(t, "hi there", msg["content"])
	usage := body["usage"].(map[string]any)
	assert.Equal(t, int64(5), usage["total_tokens"])
}

func TestOpenAIChatCompletion_ToolCallsSetFinishReason(t *testing.T) {
	ex := ExtractedResponse{
		ToolCalls: []ToolCallResult{{ID: "call-1", Name: "get_weather", Args: json.RawMessage(`{"city":"nyc"}`)}},
		FinishReason: "STOP",
	}
	body := OpenAIChatCompletion("resp-1", "gemini-2.5-pro", ex)
	choice := body["choices"].([]any)[0].(map[string]any)
	assert.Equal(t, "tool_calls", choice["finish_reason"])
	msg := choice["message"].(map[string]any)
	assert.Nil(t, msg["content"])
	calls := msg["tool_calls"].([]any)
	require.Len(t, calls, 1)
	fn := calls[0].(map[string]any)["function"].(map[string]any)
	assert.Equal(t, "get_weather", fn["name"])
}

func TestGeminiGenerateContentResponse_IncludesThoughtAndToolCall(t *testing.T) {
	ex := ExtractedResponse{
		ReasoningText:      "thinking...",
		ReasoningSignature: "sig-1",
		ToolCalls:          []ToolCallResult{{ID: "call-1", Name: "get_weather", Args: json.RawMessage(`{}`), Signature: "sig-2"}},
		FinishReason:       "STOP",
	}
	body := GeminiGenerateContentResponse("gemini-2.5-pro", ex)
	candidate := body["candidates"].([]any)[0].(map[string]any)
	content := candidate["content"].(map[string]any)
	parts := content["parts"].([]any)
	require.Len(t, parts, 2)

	thought := parts[0].(map[string]any)
	assert.Equal(t, true, thought["thought"])
	assert.Equal(t, "sig-1", thought["thoughtSignature"])

	fcPart := parts[1].(map[string]any)
	assert.Equal(t, "sig-2", fcPart["thoughtSignature"])
}

func TestClaudeMessage_SignatureOnlyPassedWhenRequested(t *testing.T) {
	ex := ExtractedResponse{ReasoningText: "thinking...", ReasoningSignature: "sig-1", Text: "answer", FinishReason: "STOP"}

	withSig := ClaudeMessage("msg-1", "claude-opus", ex, true)
	blocks := withSig["content"].([]any)
	thinking := blocks[0].(map[string]any)
	assert.Equal(t, "sig-1", thinking["signature"])

	withoutSig := ClaudeMessage("msg-1", "claude-opus", ex, false)
	blocks2 := withoutSig["content"].([]any)
	thinking2 := blocks2[0].(map[string]any)
	_, has := thinking2["signature"]
	assert.False(t, has)
}

func TestClaudeMessage_ToolUseSetsStopReason(t *testing.T) {
	ex := ExtractedResponse{
		ToolCalls:    []ToolCallResult{{ID: "call-1", Name: "get_weather", Args: json.RawMessage(`{}`)}},
		FinishReason: "STOP",
	}
	body := ClaudeMessage("msg-1", "claude-opus", ex, false)
	assert.Equal(t, "tool_use", body["stop_reason"])
}

func TestErrorEnvelopes_CarryStatusAndMessage(t *testing.T) {
	openai := OpenAIErrorEnvelope("invalid_request_error", "bad input", 400)
	errBody := openai["error"].(map[string]any)
	assert.Equal(t, 400, errBody["code"])
	assert.Equal(t, "bad input", errBody["message"])

	gemini := GeminiErrorEnvelope(500, "upstream failed", "INTERNAL")
	gErr := gemini["error"].(map[string]any)
	assert.Equal(t, "INTERNAL", gErr["status"])

	claude := ClaudeErrorEnvelope("overloaded_error", "try again")
	cErr := claude["error"].(map[string]any)
	assert.Equal(t, "overloaded_error", cErr["type"])
}
