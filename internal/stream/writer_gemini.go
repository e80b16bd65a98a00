package stream

import (
	"encoding/json"
	"io"
)

// GeminiWriter re-serializes neutral events into native
// candidates[0].content.parts chunks (spec §4.4).
type GeminiWriter struct {
	usage map[string]any
}

// NewGeminiWriter builds a Gemini dialect writer.
func NewGeminiWriter() *GeminiWriter { return &GeminiWriter{} }

// WriteEvents renders one batch of neutral events as zero or more SSE
// frames.
func (w *GeminiWriter) WriteEvents(out io.Writer, events []Event) error {
	for _, ev := range events {
		switch ev.Kind {
		case EventText:
			if err := writeFrame(out, geminiChunk([]any{map[string]any{"text": ev.Text}}, "")); err != nil {
				return err
			}
		case EventReasoning:
			part := map[string]any{"thought": true, "text": ev.Text}
			if ev.ReasoningSignature != "" {
				part["thoughtSignature"] = ev.ReasoningSignature
			}
			if err := writeFrame(out, geminiChunk([]any{part}, "")); err != nil {
				return err
			}
		case EventToolCalls:
			var parts []any
			for _, c := range ev.ToolCalls {
				parts = append(parts, map[string]any{"functionCall": map[string]any{"name": c.Name, "args": rawOrEmptyArgs(c.Args)}})
			}
			if err := writeFrame(out, geminiChunk(parts, "")); err != nil {
				return err
			}
		case EventUsage:
			w.usage = map[string]any{
				"promptTokenCount":     ev.Usage.PromptTokens,
				"candidatesTokenCount": ev.Usage.CompletionTokens,
				"totalTokenCount":      ev.Usage.TotalTokens,
			}
		case EventDone:
			frame := geminiChunk(nil, ev.FinishReason)
			if w.usage != nil {
				frame["usageMetadata"] = w.usage
			}
			if err := writeFrame(out, frame); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close is a no-op for Gemini: the connection simply ends after the final
// typed event (spec §6).
func (w *GeminiWriter) Close(out io.Writer) error { return nil }

func geminiChunk(parts []any, finishReason string) map[string]any {
	candidate := map[string]any{"content": map[string]any{"role": "model", "parts": parts}}
	if finishReason != "" {
		candidate["finishReason"] = finishReason
	}
	return map[string]any{"candidates": []any{candidate}}
}

func rawOrEmptyArgs(raw []byte) any {
	if len(raw) == 0 {
		return map[string]any{}
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return map[string]any{}
	}
	return v
}
