package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/x161880/antigravity2api/internal/account"
)

func TestGenerateContent_ReturnsBodyOnSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1internal:generateContent", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response":{"candidates":[]}}`))
	}))
	defer srv.Close()

	target := ChatTarget{Host: srv.URL, UserAgent: "test-agent", Account: &account.Account{AccessToken: "test-token"}}
	body, err := GenerateContent(context.Background(), srv.Client(), target, map[string]string{"hello": "world"}, 0)
	require.NoError(t, err)
	assert.Contains(t, string(body), "candidates")
}

func TestGenerateContent_NonRetryableErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"message":"The caller does not have permission"}}`))
	}))
	defer srv.Close()

	target := ChatTarget{Host: srv.URL, UserAgent: "test-agent", Account: &account.Account{AccessToken: "test-token"}}
	_, err := GenerateContent(context.Background(), srv.Client(), target, map[string]string{}, 2)
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusForbidden))
	assert.Contains(t, ErrorMessage(err), "The caller does not have permission")
}

func TestGenerateContent_RetriesOn429(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response":{}}`))
	}))
	defer srv.Close()

	target := ChatTarget{Host: srv.URL, UserAgent: "test-agent", Account: &account.Account{AccessToken: "test-token"}}
	_, err := GenerateContent(context.Background(), srv.Client(), target, map[string]string{}, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestStreamGenerateContent_SetsSSEHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1internal:streamGenerateContent", r.URL.Path)
		assert.Equal(t, "alt=sse", r.URL.RawQuery)
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte("data: {}\n\n"))
	}))
	defer srv.Close()

	target := ChatTarget{Host: srv.URL, UserAgent: "test-agent", Account: &account.Account{AccessToken: "test-token"}}
	resp, err := StreamGenerateContent(context.Background(), srv.Client(), target, map[string]string{})
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStreamGenerateContent_ErrorStatusReturnsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded"}}`))
	}))
	defer srv.Close()

	target := ChatTarget{Host: srv.URL, UserAgent: "test-agent", Account: &account.Account{AccessToken: "test-token"}}
	_, err := StreamGenerateContent(context.Background(), srv.Client(), target, map[string]string{})
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusTooManyRequests))
}

func TestErrorMessage_FallsBackToTransportWrapping(t *testing.T) {
	msg := ErrorMessage(context.DeadlineExceeded)
	assert.Contains(t, msg, "upstream transport error")
}
