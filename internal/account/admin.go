package account

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

// AdminView is the admin-surface projection of an Account: it never carries
// RefreshToken or AccessToken (spec §4.5, §1's explicit exclusion of a full
// admin panel implementation does not exclude the data-plane operations
// behind it).
type AdminView struct {
	TokenID   string `json:"token_id"`
	Email     string `json:"email,omitempty"`
	ProjectID string `json:"project_id,omitempty"`
	Enable    bool   `json:"enable"`
	HasQuota  bool   `json:"has_quota"`
	ExpiresAt int64  `json:"expires_at"`
}

func (m *Manager) toView(a *Account) AdminView {
	return AdminView{
		TokenID:   a.TokenID(m.salt),
		Email:     a.Email,
		ProjectID: a.ProjectID,
		Enable:    a.Enable,
		HasQuota:  a.HasQuota,
		ExpiresAt: a.Timestamp + a.ExpiresIn*1000,
	}
}

// ListAccounts returns the admin-safe projection of every account this pool
// knows about, active or disabled.
func (m *Manager) ListAccounts() ([]AdminView, error) {
	accounts, err := m.store.Load()
	if err != nil {
		return nil, err
	}
	views := make([]AdminView, 0, len(accounts))
	for _, a := range accounts {
		views = append(views, m.toView(a))
	}
	return views, nil
}

// AddAccount exchanges an OAuth2 token obtained out-of-band (e.g. by the
// login flow) for a new stored account, appends it to the pool, and
// activates it immediately.
func (m *Manager) AddAccount(ctx context.Context, token *oauth2.Token, email string) (AdminView, error) {
	accounts, err := m.store.Load()
	if err != nil {
		return AdminView{}, err
	}

	now := time.Now()
	a := &Account{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresIn:    int64(token.Expiry.Sub(now).Seconds()),
		Timestamp:    now.UnixMilli(),
		Enable:       true,
		Email:        email,
	}
	accounts = append(accounts, a)
	if err = m.store.Save(accounts); err != nil {
		return AdminView{}, err
	}

	m.mu.Lock()
	m.active = append(m.active, a)
	m.mu.Unlock()

	return m.toView(a), nil
}

// findByTokenID returns the index in accounts of the account matching
// tokenID, or -1.
func (m *Manager) findByTokenID(accounts []*Account, tokenID string) int {
	for i, a := range accounts {
		if a.TokenID(m.salt) == tokenID {
			return i
		}
	}
	return -1
}

// UpdateAccountByID flips Enable or HasQuota for a single stored account and
// persists the change, rebuilding the active list to match.
func (m *Manager) UpdateAccountByID(tokenID string, enable *bool, hasQuota *bool) (AdminView, error) {
	accounts, err := m.store.Load()
	if err != nil {
		return AdminView{}, err
	}
	idx := m.findByTokenID(accounts, tokenID)
	if idx < 0 {
		return AdminView{}, fmt.Errorf("account %s not found", tokenID)
	}
	if enable != nil {
		accounts[idx].setEnable(*enable)
	}
	if hasQuota != nil {
		accounts[idx].HasQuota = *hasQuota
	}
	if err = m.store.Save(accounts); err != nil {
		return AdminView{}, err
	}
	return m.toView(accounts[idx]), m.Reload()
}

// DeleteAccountByID removes a stored account permanently.
func (m *Manager) DeleteAccountByID(tokenID string) error {
	accounts, err := m.store.Load()
	if err != nil {
		return err
	}
	idx := m.findByTokenID(accounts, tokenID)
	if idx < 0 {
		return fmt.Errorf("account %s not found", tokenID)
	}
	accounts = append(accounts[:idx], accounts[idx+1:]...)
	if err = m.store.Save(accounts); err != nil {
		return err
	}
	return m.Reload()
}

// RefreshAccountByID forces an immediate token refresh regardless of expiry.
func (m *Manager) RefreshAccountByID(ctx context.Context, tokenID string) (AdminView, error) {
	accounts, err := m.store.Load()
	if err != nil {
		return AdminView{}, err
	}
	idx := m.findByTokenID(accounts, tokenID)
	if idx < 0 {
		return AdminView{}, fmt.Errorf("account %s not found", tokenID)
	}
	a := accounts[idx]
	a.Timestamp = 0 // force IsExpired()==true regardless of stored lifetime
	if err = m.RefreshToken(ctx, a, false); err != nil {
		return AdminView{}, err
	}
	if err = m.store.Save(accounts); err != nil {
		return AdminView{}, err
	}
	return m.toView(a), nil
}

// FetchProjectIDByID forces a Project ID bootstrap for a single account,
// independent of RequireProjectID (spec §4.1: exposed for the CLI pool too,
// where bootstrap is otherwise lazy).
func (m *Manager) FetchProjectIDByID(ctx context.Context, tokenID string) (AdminView, error) {
	accounts, err := m.store.Load()
	if err != nil {
		return AdminView{}, err
	}
	idx := m.findByTokenID(accounts, tokenID)
	if idx < 0 {
		return AdminView{}, fmt.Errorf("account %s not found", tokenID)
	}
	a := accounts[idx]
	if a.IsExpired() {
		if err = m.RefreshToken(ctx, a, false); err != nil {
			return AdminView{}, err
		}
	}
	projectID, err := fetchProjectID(ctx, m.httpClient, m.cfg.CodeAssistBaseURL, a.AccessToken, m.cfg.UserAgent)
	if err != nil {
		return AdminView{}, err
	}
	a.setProjectID(projectID)
	if err = m.store.Save(accounts); err != nil {
		return AdminView{}, err
	}
	return m.toView(a), nil
}
