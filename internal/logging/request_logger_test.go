package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestLogger_DisabledReturnsNilWriter(t *testing.T) {
	l := NewRequestLogger(false, t.TempDir())
	assert.False(t, l.IsEnabled())

	w, err := l.LogRequest("POST", "/v1/chat/completions", nil, nil)
	require.NoError(t, err)
	assert.Nil(t, w)
}

func TestRequestLogger_WritesTranscriptOnClose(t *testing.T) {
	dir := t.TempDir()
	l := NewRequestLogger(true, dir)
	assert.True(t, l.IsEnabled())

	w, err := l.LogRequest("POST", "/v1beta/models/gemini-2.5-pro:generateContent", nil, []byte(`{"model":"x"}`))
	require.NoError(t, err)
	require.NotNil(t, w)

	require.NoError(t, w.WriteStatus(200, nil))
	w.WriteChunk([]byte("data: chunk-1\n\n"))
	w.WriteChunk([]byte("data: chunk-2\n\n"))
	require.NoError(t, w.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	contents, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(contents), "status: 200")
	assert.Contains(t, string(contents), "chunk-1")
	assert.Contains(t, string(contents), "chunk-2")
	assert.Contains(t, string(contents), "POST /v1beta/models/gemini-2.5-pro:generateContent")
}

func TestStreamWriter_NilReceiverIsSafe(t *testing.T) {
	var w *StreamWriter
	w.WriteChunk([]byte("ignored"))
	assert.NoError(t, w.Close())
}
