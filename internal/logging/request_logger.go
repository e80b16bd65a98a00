package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RequestLogger records request/response pairs to per-request files when
// enabled. Streamed chunks are held in memory and the file is written in one
// go when the StreamWriter is closed; nothing is written to disk while the
// response is in flight.
type RequestLogger struct {
	enabled bool
	dir     string
}

// NewRequestLogger creates a logger rooted at dir; enabled gates all writes.
func NewRequestLogger(enabled bool, dir string) *RequestLogger {
	return &RequestLogger{enabled: enabled, dir: dir}
}

// IsEnabled reports whether logging is active.
func (l *RequestLogger) IsEnabled() bool {
	return l != nil && l.enabled
}

// StreamWriter accumulates chunks for one streaming request and flushes them
// to disk on Close.
type StreamWriter struct {
	mu     sync.Mutex
	path   string
	chunks [][]byte
	status int
}

// WriteStatus records the response status for the transcript; headers are
// not recorded.
func (w *StreamWriter) WriteStatus(status int, headers map[string][]string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status = status
	return nil
}

// WriteChunk appends one streamed chunk to the in-memory transcript.
func (w *StreamWriter) WriteChunk(data []byte) {
	if w == nil {
		return
	}
	w.mu.Lock()
	w.chunks = append(w.chunks, append([]byte(nil), data...))
	w.mu.Unlock()
}

// Close flushes the transcript to disk.
func (w *StreamWriter) Close() error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	f, err := os.Create(w.path)
	if err != nil {
		return err
	}
	defer f.Close()
	fmt.Fprintf(f, "status: %d\n\n", w.status)
	for _, c := range w.chunks {
		f.Write(c)
	}
	return nil
}

// LogRequest starts a new transcript file for one request/response pair and
// returns a handle used to record the streaming chunks, or nil when logging
// is disabled.
func (l *RequestLogger) LogRequest(method, url string, headers map[string][]string, body []byte) (*StreamWriter, error) {
	if !l.IsEnabled() {
		return nil, nil
	}
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return nil, err
	}
	name := fmt.Sprintf("%s-%s.log", time.Now().Format("20060102-150405"), uuid.NewString()[:8])
	w := &StreamWriter{path: filepath.Join(l.dir, name)}
	fmt.Fprintf(&logPreamble{w}, "%s %s\n", method, url)
	if len(body) > 0 {
		w.WriteChunk(body)
		w.WriteChunk([]byte("\n\n"))
	}
	return w, nil
}

// logPreamble adapts io.Writer semantics onto WriteChunk so the request line
// shares the same accumulation path as the response chunks.
type logPreamble struct{ w *StreamWriter }

func (p *logPreamble) Write(b []byte) (int, error) {
	p.w.WriteChunk(b)
	return len(b), nil
}
