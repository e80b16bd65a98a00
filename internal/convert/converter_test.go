package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/x161880/antigravity2api/internal/config"
	"github.com/x161880/antigravity2api/internal/constant"
	"github.com/x161880/antigravity2api/internal/signature"
)

func newTestCache() *signature.Cache {
	return signature.New(config.SignatureConfig{CacheAllSignatures: true})
}

func TestToUpstream_OpenAIDialect_BuildsEnvelope(t *testing.T) {
	raw := []byte(`{
		"model": "gemini-2.5-pro",
		"messages": [
			{"role": "system", "content": "be concise"},
			{"role": "user", "content": "hello there"}
		]
	}`)

	env, err := ToUpstream(constant.DialectOpenAI, raw, "gemini-2.5-pro", "proj-1", "prompt-1", NewToolNameRegistry(), newTestCache())
	require.NoError(t, err)

	assert.Equal(t, "gemini-2.5-pro", env.Model)
	assert.Equal(t, "proj-1", env.Project)
	require.NotNil(t, env.Request.SystemInstruction)
	assert.Equal(t, "be concise", env.Request.SystemInstruction.Parts[0].Text)
	require.Len(t, env.Request.Contents, 1)
	assert.Equal(t, "user", env.Request.Contents[0].Role)
	assert.Equal(t, "hello there", env.Request.Contents[0].Parts[0].Text)
}

func TestToUpstream_OpenAIDialect_ConvertsToolCalls(t *testing.T) {
	raw := []byte(`{
		"model": "gemini-2.5-pro",
		"messages": [{"role": "user", "content": "weather?"}],
		"tools": [{
			"type": "function",
			"function": {"name": "get_weather", "description": "lookup weather", "parameters": {"type": "object", "properties": {"city": {"type": "string"}}}}
		}]
	}`)

	tools := NewToolNameRegistry()
	env, err := ToUpstream(constant.DialectOpenAI, raw, "gemini-2.5-pro", "proj-1", "prompt-1", tools, newTestCache())
	require.NoError(t, err)

	require.Len(t, env.Request.Tools, 1)
	require.Len(t, env.Request.Tools[0].FunctionDeclarations, 1)
	decl := env.Request.Tools[0].FunctionDeclarations[0]
	assert.Equal(t, "OBJECT", decl.Parameters["type"])
	props := decl.Parameters["properties"].(map[string]any)
	city := props["city"].(map[string]any)
	assert.Equal(t, "STRING", city["type"])
}

func TestToUpstream_UnknownDialectErrors(t *testing.T) {
	_, err := ToUpstream(constant.Dialect("unknown"), []byte(`{}`), "model", "proj", "prompt", NewToolNameRegistry(), newTestCache())
	assert.Error(t, err)
}

func TestFromParts_DispatchesPerDialect(t *testing.T) {
	ex := ExtractedResponse{Text: "hello back", FinishReason: "STOP"}

	openai, err := FromParts(constant.DialectOpenAI, "resp-1", "gemini-2.5-pro", ex, false)
	require.NoError(t, err)
	assert.Equal(t, "chat.completion", openai["object"])

	gemini, err := FromParts(constant.DialectGemini, "resp-1", "gemini-2.5-pro", ex, false)
	require.NoError(t, err)
	assert.Contains(t, gemini, "candidates")

	claude, err := FromParts(constant.DialectClaude, "resp-1", "gemini-2.5-pro", ex, false)
	require.NoError(t, err)
	assert.Equal(t, "message", claude["type"])
}

func TestFromParts_UnknownDialectErrors(t *testing.T) {
	_, err := FromParts(constant.Dialect("unknown"), "id", "model", ExtractedResponse{}, false)
	assert.Error(t, err)
}

func TestErrorEnvelope_DispatchesPerDialect(t *testing.T) {
	openai := ErrorEnvelope(constant.DialectOpenAI, "InvalidRequest", "bad request", 400)
	assert.Contains(t, openai, "error")

	claude := ErrorEnvelope(constant.DialectClaude, "invalid_request_error", "bad request", 400)
	assert.Equal(t, "error", claude["type"])

	gemini := ErrorEnvelope(constant.DialectGemini, "InvalidRequest", "bad request", 400)
	assert.Contains(t, gemini, "error")
}

func TestExtractResponse_WalksPartsAndResolvesToolNames(t *testing.T) {
	tools := NewToolNameRegistry()
	safe := tools.Sanitize("gemini-2.5-pro", "get_weather")

	resp := UpstreamResponse{
		Candidates: []Candidate{{
			FinishReason: "STOP",
			Content: Content{
				Role: "model",
				Parts: []Part{
					{Text: "here is the answer"},
					{FunctionCall: &FunctionCall{Name: safe, Args: []byte(`{"city":"nyc"}`)}},
				},
			},
		}},
		UsageMetadata: &UsageMetadata{PromptTokenCount: 10, CandidatesTokenCount: 5, TotalTokenCount: 15},
	}

	ex := ExtractResponse(resp, "gemini-2.5-pro", tools, func() string { return "call-1" })
	assert.Equal(t, "here is the answer", ex.Text)
	require.Len(t, ex.ToolCalls, 1)
	assert.Equal(t, "get_weather", ex.ToolCalls[0].Name)
	assert.Equal(t, "call-1", ex.ToolCalls[0].ID)
	require.NotNil(t, ex.Usage)
	assert.Equal(t, int64(15), ex.Usage.TotalTokens)
}
