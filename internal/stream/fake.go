package stream

import "github.com/x161880/antigravity2api/internal/convert"

// Collector accumulates a full event sequence into an ExtractedResponse-
// shaped value, used by the fake-non-stream mode (spec §4.4: "drive the
// stream path, accumulate content/reasoning/toolCalls/usage, return a
// single non-stream JSON").
type Collector struct {
	ex convert.ExtractedResponse
}

// Collect folds one batch of events into the accumulator.
func (c *Collector) Collect(events []Event) {
	for _, ev := range events {
		switch ev.Kind {
		case EventText:
			c.ex.Text += ev.Text
		case EventReasoning:
			c.ex.ReasoningText += ev.Text
			if ev.ReasoningSignature != "" {
				c.ex.ReasoningSignature = ev.ReasoningSignature
			}
		case EventToolCalls:
			c.ex.ToolCalls = append(c.ex.ToolCalls, ev.ToolCalls...)
		case EventUsage:
			c.ex.Usage = ev.Usage
		case EventDone:
			c.ex.FinishReason = ev.FinishReason
		}
	}
}

// Result returns the accumulated response. Usage may be nil if the upstream
// never emitted a final usageMetadata (spec §9 Open Question).
func (c *Collector) Result() convert.ExtractedResponse { return c.ex }

// ToEvents turns a fully-collected non-stream result into the synthetic
// event sequence the fake-stream mode replays through a dialect writer
// (spec §4.4: CLI-only, triggered by the fake-stream prefix).
func ToEvents(ex convert.ExtractedResponse) []Event {
	var events []Event
	if ex.ReasoningText != "" {
		events = append(events, Event{Kind: EventReasoning, Text: ex.ReasoningText, ReasoningSignature: ex.ReasoningSignature})
	}
	if ex.Text != "" {
		events = append(events, Event{Kind: EventText, Text: ex.Text})
	}
	if len(ex.ToolCalls) > 0 {
		events = append(events, Event{Kind: EventToolCalls, ToolCalls: ex.ToolCalls})
	}
	if ex.Usage != nil {
		events = append(events, Event{Kind: EventUsage, Usage: ex.Usage})
	}
	events = append(events, Event{Kind: EventDone, FinishReason: ex.FinishReason})
	return events
}
