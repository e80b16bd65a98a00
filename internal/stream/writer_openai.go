package stream

import (
	"encoding/json"
	"io"
	"time"

	"github.com/x161880/antigravity2api/internal/convert"
)

// OpenAIWriter re-serializes neutral events into OpenAI chat.completion.chunk
// frames (spec §4.4).
type OpenAIWriter struct {
	ID      string
	Model   string
	Created int64

	seededRole bool
	usage      *json.RawMessage
	toolIndex  int
}

// NewOpenAIWriter builds a writer stamping every chunk with id/model/created.
func NewOpenAIWriter(id, model string) *OpenAIWriter {
	return &OpenAIWriter{ID: id, Model: model, Created: time.Now().Unix()}
}

func (w *OpenAIWriter) chunk(delta map[string]any, finishReason *string) map[string]any {
	choice := map[string]any{"index": 0, "delta": delta}
	if finishReason != nil {
		choice["finish_reason"] = *finishReason
	} else {
		choice["finish_reason"] = nil
	}
	return map[string]any{
		"id":      w.ID,
		"object":  "chat.completion.chunk",
		"created": w.Created,
		"model":   w.Model,
		"choices": []any{choice},
	}
}

// WriteEvents renders one batch of neutral events as zero or more SSE
// frames.
func (w *OpenAIWriter) WriteEvents(out io.Writer, events []Event) error {
	if !w.seededRole {
		w.seededRole = true
		if err := writeFrame(out, w.chunk(map[string]any{"role": "assistant"}, nil)); err != nil {
			return err
		}
	}

	for _, ev := range events {
		switch ev.Kind {
		case EventText:
			if err := writeFrame(out, w.chunk(map[string]any{"content": ev.Text}, nil)); err != nil {
				return err
			}
		case EventReasoning:
			if err := writeFrame(out, w.chunk(map[string]any{"reasoning_content": ev.Text}, nil)); err != nil {
				return err
			}
		case EventToolCalls:
			calls := make([]any, 0, len(ev.ToolCalls))
			for _, c := range ev.ToolCalls {
				args := c.Args
				if len(args) == 0 {
					args = []byte("{}")
				}
				calls = append(calls, map[string]any{
					"index": w.toolIndex,
					"id":    c.ID,
					"type":  "function",
					"function": map[string]any{
						"name":      c.Name,
						"arguments": string(args),
					},
				})
				w.toolIndex++
			}
			if err := writeFrame(out, w.chunk(map[string]any{"tool_calls": calls}, nil)); err != nil {
				return err
			}
		case EventUsage:
			raw, _ := json.Marshal(map[string]any{
				"prompt_tokens":     ev.Usage.PromptTokens,
				"completion_tokens": ev.Usage.CompletionTokens,
				"total_tokens":      ev.Usage.TotalTokens,
			})
			rm := json.RawMessage(raw)
			w.usage = &rm
		case EventDone:
			reason := convert.OpenAIFinishReason(ev.FinishReason, w.toolIndex > 0)
			frame := w.chunk(map[string]any{}, &reason)
			if w.usage != nil {
				frame["usage"] = w.usage
			}
			if err := writeFrame(out, frame); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close writes the OpenAI/CLI terminator frame.
func (w *OpenAIWriter) Close(out io.Writer) error {
	return writeDone(out)
}
