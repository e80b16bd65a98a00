// Package account implements the encrypted-at-rest token store (C1) and the
// two Account Manager instances (C2) that rotate, refresh and bootstrap
// upstream Google OAuth accounts for the Antigravity and Gemini CLI pools.
package account

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// refreshBuffer is subtracted from the computed expiry so a refresh is
// triggered slightly before the upstream token actually lapses (spec §3).
const refreshBuffer = 60 * time.Second

// Account is the unit the rotation pool dispenses (spec §3). Identity is
// RefreshToken; every external surface uses the derived TokenID instead so
// raw refresh tokens never leave the process. Mutation is single-writer:
// only the owning Manager ever changes a field, in place through the
// setters below. Handlers receive values from Clone and must treat them as
// read-only.
type Account struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	Timestamp    int64  `json:"timestamp"`
	Enable       bool   `json:"enable"`
	Email        string `json:"email,omitempty"`
	ProjectID    string `json:"project_id,omitempty"`
	HasQuota     bool   `json:"has_quota,omitempty"`
}

// Clone returns a value copy safe for a handler to hold without racing the
// manager's writer goroutine.
func (a *Account) Clone() *Account {
	clone := *a
	return &clone
}

// TokenID is the stable, non-reversible external identifier for an account,
// derived from its refresh token and a process-wide salt (spec §3).
func (a *Account) TokenID(salt string) string {
	sum := sha256.Sum256([]byte(a.RefreshToken + salt))
	return hex.EncodeToString(sum[:])
}

// IsExpired implements spec §3's invariant:
// isExpired ⇔ now ≥ timestamp + expires_in*1000 − refreshBuffer.
func (a *Account) IsExpired() bool {
	expiry := time.UnixMilli(a.Timestamp).Add(time.Duration(a.ExpiresIn) * time.Second).Add(-refreshBuffer)
	return !time.Now().Before(expiry)
}

// setProjectID, setEnable and setTokens mutate fields in place. Callers must
// hold the Manager's single-writer guarantee (spec §5): no per-account lock
// is needed because only the owning Manager ever calls these.
func (a *Account) setProjectID(projectID string) { a.ProjectID = projectID }

func (a *Account) setEnable(enable bool) { a.Enable = enable }

func (a *Account) setTokens(accessToken string, expiresIn int64) {
	a.AccessToken = accessToken
	a.ExpiresIn = expiresIn
	a.Timestamp = time.Now().UnixMilli()
}
