// Package stream implements the Stream Engine (C5): a line-buffered SSE
// parser feeding a neutral event emitter, with per-dialect writers and the
// fake-stream/fake-non-stream re-framing modes.
package stream

import "bytes"

// LineBuffer accepts arbitrary byte chunks from a network read and splits
// them on '\n', carrying any unterminated tail into the next Append so a
// line split across two chunks is never truncated (spec §4.4, §8 property
// 6).
type LineBuffer struct {
	tail []byte
}

// Append returns every complete line found across chunk and any carried
// tail, in order, without the trailing '\n'. The new unterminated remainder
// (if any) is kept for the next call.
func (b *LineBuffer) Append(chunk []byte) []string {
	data := append(b.tail, chunk...)
	var lines []string

	for {
		idx := bytes.IndexByte(data, '\n')
		if idx < 0 {
			break
		}
		lines = append(lines, string(data[:idx]))
		data = data[idx+1:]
	}

	b.tail = append([]byte(nil), data...)
	return lines
}

// Flush returns any remaining unterminated tail as a final line, if
// non-empty, and clears the buffer. Call this once the underlying stream
// has closed.
func (b *LineBuffer) Flush() (string, bool) {
	if len(b.tail) == 0 {
		return "", false
	}
	line := string(b.tail)
	b.tail = nil
	return line, true
}
