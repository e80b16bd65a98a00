package stream

import "io"

type claudeBlockKind int

const (
	claudeBlockNone claudeBlockKind = iota
	claudeBlockThinking
	claudeBlockToolUse
	claudeBlockText
)

// ClaudeWriter re-serializes neutral events into Anthropic's
// message_start/content_block_*/message_delta/message_stop event sequence
// (spec §4.4). At most one of thinking/text is open at a time; opening a
// different kind closes the current block first.
type ClaudeWriter struct {
	ID    string
	Model string

	started      bool
	openBlock    claudeBlockKind
	blockIndex   int
	usage        map[string]any
	sawToolUse   bool
}

// NewClaudeWriter builds a Claude dialect writer.
func NewClaudeWriter(id, model string) *ClaudeWriter {
	return &ClaudeWriter{ID: id, Model: model}
}

func (w *ClaudeWriter) ensureStarted(out io.Writer) error {
	if w.started {
		return nil
	}
	w.started = true
	return writeFrame(out, map[string]any{
		"type": "message_start",
		"message": map[string]any{
			"id":      w.ID,
			"type":    "message",
			"role":    "assistant",
			"model":   w.Model,
			"content": []any{},
		},
	})
}

func (w *ClaudeWriter) closeBlock(out io.Writer) error {
	if w.openBlock == claudeBlockNone {
		return nil
	}
	w.openBlock = claudeBlockNone
	return writeFrame(out, map[string]any{"type": "content_block_stop", "index": w.blockIndex})
}

func (w *ClaudeWriter) openBlockAs(out io.Writer, kind claudeBlockKind, start map[string]any) error {
	if w.openBlock == kind {
		return nil
	}
	if err := w.closeBlock(out); err != nil {
		return err
	}
	w.openBlock = kind
	w.blockIndex++
	frame := map[string]any{"type": "content_block_start", "index": w.blockIndex, "content_block": start}
	return writeFrame(out, frame)
}

// WriteEvents renders one batch of neutral events as zero or more SSE
// frames.
func (w *ClaudeWriter) WriteEvents(out io.Writer, events []Event) error {
	if err := w.ensureStarted(out); err != nil {
		return err
	}

	for _, ev := range events {
		switch ev.Kind {
		case EventReasoning:
			if err := w.openBlockAs(out, claudeBlockThinking, map[string]any{"type": "thinking", "thinking": ""}); err != nil {
				return err
			}
			delta := map[string]any{"type": "thinking_delta", "thinking": ev.Text}
			if err := writeFrame(out, map[string]any{"type": "content_block_delta", "index": w.blockIndex, "delta": delta}); err != nil {
				return err
			}
		case EventText:
			if err := w.openBlockAs(out, claudeBlockText, map[string]any{"type": "text", "text": ""}); err != nil {
				return err
			}
			delta := map[string]any{"type": "text_delta", "text": ev.Text}
			if err := writeFrame(out, map[string]any{"type": "content_block_delta", "index": w.blockIndex, "delta": delta}); err != nil {
				return err
			}
		case EventToolCalls:
			w.sawToolUse = true
			for _, c := range ev.ToolCalls {
				if err := w.openBlockAs(out, claudeBlockToolUse, map[string]any{
					"type": "tool_use", "id": c.ID, "name": c.Name, "input": map[string]any{},
				}); err != nil {
					return err
				}
				args := c.Args
				if len(args) == 0 {
					args = []byte("{}")
				}
				delta := map[string]any{"type": "input_json_delta", "partial_json": string(args)}
				if err := writeFrame(out, map[string]any{"type": "content_block_delta", "index": w.blockIndex, "delta": delta}); err != nil {
					return err
				}
			}
		case EventUsage:
			w.usage = map[string]any{"input_tokens": ev.Usage.PromptTokens, "output_tokens": ev.Usage.CompletionTokens}
		case EventDone:
			if err := w.closeBlock(out); err != nil {
				return err
			}
			delta := map[string]any{"stop_reason": claudeStopReasonStream(ev.FinishReason, w.sawToolUse)}
			if w.usage != nil {
				delta["usage"] = w.usage
			}
			if err := writeFrame(out, map[string]any{"type": "message_delta", "delta": delta}); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close writes message_stop; Claude has no further terminator frame (spec
// §6).
func (w *ClaudeWriter) Close(out io.Writer) error {
	return writeFrame(out, map[string]any{"type": "message_stop"})
}

func claudeStopReasonStream(upstream string, sawToolUse bool) string {
	if sawToolUse {
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
