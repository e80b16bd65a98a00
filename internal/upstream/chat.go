package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/x161880/antigravity2api/internal/account"
)

// ChatTarget is the upstream wiring for one call: host, User-Agent and the
// account whose access token authorizes the request (spec §6).
type ChatTarget struct {
	Host      string
	UserAgent string
	Account   *account.Account
}

func (t ChatTarget) buildRequest(ctx context.Context, path string, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.Host+"/"+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.Account.AccessToken)
	req.Header.Set("User-Agent", t.UserAgent)
	req.Header.Set("Accept-Encoding", "gzip")
	return req, nil
}

// GenerateContent performs a one-shot (non-stream) chat call and returns the
// raw upstream response body.
func GenerateContent(ctx context.Context, client *http.Client, target ChatTarget, envelope any, retryTimes int) ([]byte, error) {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return nil, err
	}

	var body []byte
	err = WithRetry(ctx, retryTimes, func(ctx context.Context) error {
		req, err := target.buildRequest(ctx, "v1internal:generateContent", payload)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &StatusError{Status: resp.StatusCode, Body: data}
		}
		body = data
		return nil
	})
	return body, err
}

// StreamGenerateContent opens the streaming chat call and returns the raw
// response so the caller can pump its body through the Stream Engine's line
// buffer. It makes a single attempt: a non-2xx status, including 429, is
// returned as a *StatusError without going through WithRetry.
func StreamGenerateContent(ctx context.Context, client *http.Client, target ChatTarget, envelope any) (*http.Response, error) {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return nil, err
	}

	req, err := target.buildRequest(ctx, "v1internal:streamGenerateContent?alt=sse", payload)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &StatusError{Status: resp.StatusCode, Body: data}
	}
	return resp, nil
}

// ErrorMessage extracts a human-readable message from a failed upstream
// call's body, falling back to a generic one (spec §7).
func ErrorMessage(err error) string {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		var parsed struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if jsonErr := json.Unmarshal(statusErr.Body, &parsed); jsonErr == nil && parsed.Error.Message != "" {
			return parsed.Error.Message
		}
		return string(statusErr.Body)
	}
	return fmt.Sprintf("upstream transport error: %v", err)
}
