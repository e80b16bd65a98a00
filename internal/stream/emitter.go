package stream

import (
	"encoding/base64"
	"encoding/json"

	"github.com/x161880/antigravity2api/internal/convert"
	"github.com/x161880/antigravity2api/internal/signature"
)

// ImageStore is the sidecar an inlineData part is written to; the emitter
// only needs Put, which returns a URL to reference from a Text event (spec
// §4.4: "only used by upstream image models").
type ImageStore interface {
	Put(mimeType string, data []byte) (url string, err error)
}

// Emitter is the SSE parser + neutral event emitter state machine (C5). One
// Emitter is constructed per request.
type Emitter struct {
	model       string
	tools       *convert.ToolNameRegistry
	sigCache    *signature.Cache
	hasTools    bool
	images      ImageStore
	genToolID   func() string

	reasoningContent   string
	reasoningSignature string
	lastSignature      string
	toolCalls          []convert.ToolCallResult
	sessionID          string
}

// NewEmitter builds an Emitter for one streaming request.
func NewEmitter(model string, hasTools bool, tools *convert.ToolNameRegistry, sigCache *signature.Cache, images ImageStore, genToolID func() string) *Emitter {
	return &Emitter{
		model:     model,
		tools:     tools,
		sigCache:  sigCache,
		hasTools:  hasTools,
		images:    images,
		genToolID: genToolID,
	}
}

// FeedLine parses one line already stripped of its trailing newline by the
// LineBuffer. Non-"data: "-prefixed lines (including blank keep-alive
// lines) are ignored (spec §4.4).
func (e *Emitter) FeedLine(line string) []Event {
	const prefix = "data: "
	if len(line) < len(prefix) || line[:len(prefix)] != prefix {
		return nil
	}
	payload := line[len(prefix):]
	if payload == "[DONE]" {
		return nil
	}

	var resp convert.UpstreamResponse
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		return nil
	}
	return e.feedResponse(resp)
}

func (e *Emitter) feedResponse(resp convert.UpstreamResponse) []Event {
	if len(resp.Candidates) == 0 {
		return nil
	}
	cand := resp.Candidates[0]

	var events []Event
	for _, part := range cand.Content.Parts {
		if part.ThoughtSignature != "" {
			e.lastSignature = part.ThoughtSignature
		}
		switch {
		case part.Thought:
			e.reasoningContent += part.Text
			if part.ThoughtSignature != "" {
				e.reasoningSignature = part.ThoughtSignature
			}
			events = append(events, Event{Kind: EventReasoning, Text: part.Text, ReasoningSignature: part.ThoughtSignature})
		case part.FunctionCall != nil:
			sig := part.ThoughtSignature
			if sig == "" {
				sig = e.lastSignature
			}
			call := convert.ToolCallResult{
				ID:        e.genToolID(),
				Name:      e.tools.Resolve(e.model, part.FunctionCall.Name),
				Args:      part.FunctionCall.Args,
				Signature: sig,
			}
			e.toolCalls = append(e.toolCalls, call)
		case part.InlineData != nil && e.images != nil:
			url, err := e.images.Put(part.InlineData.MimeType, decodeBase64(part.InlineData.Data))
			if err == nil {
				events = append(events, Event{Kind: EventText, Text: url})
			}
		case part.Text != "":
			events = append(events, Event{Kind: EventText, Text: part.Text})
		}
	}

	if cand.FinishReason != "" {
		if len(e.toolCalls) > 0 {
			events = append(events, Event{Kind: EventToolCalls, ToolCalls: e.toolCalls})
		}
		if resp.UsageMetadata != nil {
			events = append(events, Event{Kind: EventUsage, Usage: &convert.Usage{
				PromptTokens:     resp.UsageMetadata.PromptTokenCount,
				CompletionTokens: resp.UsageMetadata.CandidatesTokenCount,
				TotalTokens:      resp.UsageMetadata.TotalTokenCount,
			}})
		}
		if e.model != "" && e.reasoningSignature != "" {
			bucket := signature.Gate{HasTools: e.hasTools}
			e.sigCache.SetSignature(e.sessionID, e.model, e.reasoningSignature, e.reasoningContent, bucket)
		}
		if e.model != "" && e.hasTools && len(e.toolCalls) > 0 {
			sig := e.toolCalls[len(e.toolCalls)-1].Signature
			if sig == "" {
				sig = e.lastSignature
			}
			if sig != "" {
				e.sigCache.SetSignature(e.sessionID, e.model, sig, e.reasoningContent, signature.Gate{HasTools: true})
			}
		}
		events = append(events, Event{Kind: EventDone, FinishReason: cand.FinishReason})
	}

	return events
}

func decodeBase64(s string) []byte {
	// Upstream sends standard base64; a decode failure degrades to an empty
	// payload rather than aborting the stream.
	decoded, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil
	}
	return decoded
}
