package stream

import (
	"io"

	"github.com/x161880/antigravity2api/internal/constant"
)

// NewWriter dispatches to the dialect-specific writer (spec §9: "the
// handler is dialect-agnostic above that interface").
func NewWriter(dialect constant.Dialect, id, model string) DialectWriter {
	switch dialect {
	case constant.DialectOpenAI:
		return NewOpenAIWriter(id, model)
	case constant.DialectClaude:
		return NewClaudeWriter(id, model)
	default:
		return NewGeminiWriter()
	}
}

// ReplayEvents drains a fully-collected event slice through a writer, for
// the fake-stream re-framing mode (spec §4.4).
func ReplayEvents(w DialectWriter, out io.Writer, events []Event) error {
	if err := w.WriteEvents(out, events); err != nil {
		return err
	}
	return w.Close(out)
}
