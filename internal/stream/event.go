package stream

import "github.com/x161880/antigravity2api/internal/convert"

// EventKind tags which variant of the neutral stream event a value carries
// (spec §3).
type EventKind int

const (
	EventText EventKind = iota
	EventReasoning
	EventToolCalls
	EventUsage
	EventDone
)

// Event is the tagged neutral stream event produced by the emitter and
// consumed by every dialect writer (spec §3).
type Event struct {
	Kind EventKind

	Text              string // EventText, EventReasoning
	ReasoningSignature string // EventReasoning

	ToolCalls []convert.ToolCallResult // EventToolCalls

	Usage *convert.Usage // EventUsage

	FinishReason string // EventDone
}
