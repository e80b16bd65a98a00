package stream

import (
	"encoding/json"
	"fmt"
	"io"
)

// DialectWriter turns neutral Events into a dialect's SSE frames (spec
// §4.4, §9: "the handler is dialect-agnostic above that interface").
type DialectWriter interface {
	WriteEvents(w io.Writer, events []Event) error
	Close(w io.Writer) error
}

func writeFrame(w io.Writer, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}

func writeDone(w io.Writer) error {
	_, err := io.WriteString(w, "data: [DONE]\n\n")
	return err
}
