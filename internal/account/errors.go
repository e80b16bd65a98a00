package account

import "fmt"

// TokenError is raised by refreshToken on failure (spec §4.1). Status
// carries the upstream HTTP status when one is available (0 for transport
// errors that never reached the OAuth endpoint).
type TokenError struct {
	Message string
	TokenID string
	Status  int
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("token refresh failed (status %d, token %s): %s", e.Status, e.TokenID, e.Message)
}

// ShouldDisable reports whether this failure should auto-disable the
// account, per spec §3/§4.1: 400/403 on refresh disables, anything else
// leaves the account in place for the next rotation attempt.
func (e *TokenError) ShouldDisable() bool {
	return e.Status == 400 || e.Status == 403
}

// ErrNoAvailableAccount describes a pool with no account left to try.
// GetToken never returns it (it yields nil instead), and the HTTP handlers
// report that case with their own NoAvailableAccount error envelope rather
// than this type.
type ErrNoAvailableAccount struct {
	Pool string
}

func (e *ErrNoAvailableAccount) Error() string {
	return "no available account in pool " + e.Pool
}
