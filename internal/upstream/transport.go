// Package upstream builds the shared HTTP transport used for every outbound
// call (OAuth, Code Assist chat, Project ID bootstrap) and implements the
// 429-aware retry helper described in spec §4.4/§7.
package upstream

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/proxy"
)

// NewClient builds an *http.Client honoring an optional proxy URL
// (http, https, or socks5) and the configured request timeout. A timeout of
// zero disables the client-side deadline, matching spec §5's guidance that
// stream reads are not timed out once headers arrive — callers that stream
// should pass 0 and manage cancellation via context instead.
func NewClient(proxyURL string, timeout time.Duration) (*http.Client, error) {
	transport := &http.Transport{}

	if proxyURL != "" {
		parsed, err := url.Parse(proxyURL)
		if err != nil {
			return nil, err
		}
		switch parsed.Scheme {
		case "socks5":
			var auth *proxy.Auth
			if parsed.User != nil {
				password, _ := parsed.User.Password()
				auth = &proxy.Auth{User: parsed.User.Username(), Password: password}
			}
			dialer, errDialer := proxy.SOCKS5("tcp", parsed.Host, auth, proxy.Direct)
			if errDialer != nil {
				return nil, errDialer
			}
			transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			}
		case "http", "https":
			transport.Proxy = http.ProxyURL(parsed)
		}
	}

	return &http.Client{Transport: transport, Timeout: timeout}, nil
}

// StatusError carries an upstream HTTP status alongside the response body,
// allowing callers to branch on status without re-parsing the error text.
type StatusError struct {
	Status int
	Body   []byte
}

func (e *StatusError) Error() string {
	return "upstream status " + http.StatusText(e.Status) + ": " + string(e.Body)
}

// IsStatus reports whether err is a *StatusError with the given status.
func IsStatus(err error, status int) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status == status
	}
	return false
}

// RetryableStatus reports whether a 429-aware retry should re-attempt the
// call (spec §4.4: "Only status 429 triggers retry; other errors propagate").
func RetryableStatus(err error) bool {
	return IsStatus(err, http.StatusTooManyRequests)
}

// WithRetry invokes fn up to retryTimes+1 times total, retrying only when fn
// returns an error for which RetryableStatus is true. It does not rotate
// accounts between attempts — spec §4.4 leaves that to the caller's own
// loop.
func WithRetry(ctx context.Context, retryTimes int, fn func(ctx context.Context) error) error {
	var lastErr error
	attempts := retryTimes + 1
	for attempt := 0; attempt < attempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !RetryableStatus(lastErr) {
			return lastErr
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff(attempt)):
		}
	}
	return lastErr
}

func backoff(attempt int) time.Duration {
	d := time.Duration(attempt+1) * 500 * time.Millisecond
	if d > 5*time.Second {
		return 5 * time.Second
	}
	return d
}
