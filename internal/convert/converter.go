package convert

import (
	"fmt"

	"github.com/x161880/antigravity2api/internal/constant"
	"github.com/x161880/antigravity2api/internal/signature"
)

// ToUpstream dispatches to the dialect-specific request converter (spec §9:
// "Model three writer/converter pairs as implementations of a common
// capability set"). The handler stays dialect-agnostic above this call.
func ToUpstream(dialect constant.Dialect, rawJSON []byte, model, project, userPromptID string, tools *ToolNameRegistry, sigCache *signature.Cache) (UpstreamRequest, error) {
	switch dialect {
	case constant.DialectOpenAI:
		return OpenAIToUpstream(rawJSON, model, project, userPromptID, tools, sigCache)
	case constant.DialectGemini:
		return GeminiToUpstream(rawJSON, model, project, userPromptID, tools, sigCache)
	case constant.DialectClaude:
		return ClaudeToUpstream(rawJSON, model, project, userPromptID, tools, sigCache)
	default:
		return UpstreamRequest{}, fmt.Errorf("convert: unknown dialect %q", dialect)
	}
}

// FromParts dispatches to the dialect-specific non-stream response
// assembler.
func FromParts(dialect constant.Dialect, id, model string, ex ExtractedResponse, passSignatureToClient bool) (map[string]any, error) {
	switch dialect {
	case constant.DialectOpenAI:
		return OpenAIChatCompletion(id, model, ex), nil
	case constant.DialectGemini:
		return GeminiGenerateContentResponse(model, ex), nil
	case constant.DialectClaude:
		return ClaudeMessage(id, model, ex, passSignatureToClient), nil
	default:
		return nil, fmt.Errorf("convert: unknown dialect %q", dialect)
	}
}

// ErrorEnvelope dispatches to the dialect-specific error body (spec §6, §8
// property 8).
func ErrorEnvelope(dialect constant.Dialect, errType, message string, httpStatus int) map[string]any {
	switch dialect {
	case constant.DialectOpenAI:
		return OpenAIErrorEnvelope(errType, message, httpStatus)
	case constant.DialectClaude:
		return ClaudeErrorEnvelope(errType, message)
	default: // Gemini and unrecognized dialects fall back to the Gemini shape
		return GeminiErrorEnvelope(httpStatus, message, errType)
	}
}
