package convert

import "encoding/json"

// ToolCallResult is one resolved tool call extracted from an upstream
// candidate, with the client's original (unmangled) name.
type ToolCallResult struct {
	ID        string
	Name      string
	Args      json.RawMessage
	Signature string
}

// Usage is the dialect-neutral token accounting block.
type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
}

// ExtractedResponse is what every dialect's non-stream response assembler
// builds from, produced by walking candidates[0].content.parts once (spec
// §4.2: "responses reuse a single parser").
type ExtractedResponse struct {
	Text              string
	ReasoningText     string
	ReasoningSignature string
	ToolCalls         []ToolCallResult
	FinishReason      string
	Usage             *Usage
}

// ExtractResponse walks candidates[0] and classifies every part, resolving
// mangled tool names back to the client's originals via tools.
func ExtractResponse(resp UpstreamResponse, model string, tools *ToolNameRegistry, genID func() string) ExtractedResponse {
	out := ExtractedResponse{}
	if len(resp.Candidates) == 0 {
		return out
	}
	cand := resp.Candidates[0]
	out.FinishReason = cand.FinishReason

	for _, part := range cand.Content.Parts {
		switch {
		case part.Thought:
			out.ReasoningText += part.Text
			if part.ThoughtSignature != "" {
				out.ReasoningSignature = part.ThoughtSignature
			}
		case part.FunctionCall != nil:
			out.ToolCalls = append(out.ToolCalls, ToolCallResult{
				ID:        genID(),
				Name:      tools.Resolve(model, part.FunctionCall.Name),
				Args:      part.FunctionCall.Args,
				Signature: part.ThoughtSignature,
			})
		case part.Text != "":
			out.Text += part.Text
		}
	}

	if resp.UsageMetadata != nil {
		out.Usage = &Usage{
			PromptTokens:     resp.UsageMetadata.PromptTokenCount,
			CompletionTokens: resp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      resp.UsageMetadata.TotalTokenCount,
		}
	}
	return out
}
