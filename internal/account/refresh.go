package account

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// RefreshToken exchanges the account's refresh token for a new access token.
// Concurrent refreshes of the same account (e.g. two requests racing past an
// expiry check) are serialized through a per-refresh-token mutex so only one
// OAuth call ever reaches Google for a given account (spec §9 Open
// Question). silent suppresses the info-level log line used for the
// startup refresh sweep, which would otherwise be noisy.
func (m *Manager) RefreshToken(ctx context.Context, a *Account, silent bool) error {
	lock := m.accountMutex(a.RefreshToken)
	lock.Lock()
	defer lock.Unlock()

	// Another goroutine may have refreshed this account while we waited.
	if !a.IsExpired() {
		return nil
	}

	tokenID := a.TokenID(m.salt)
	accessToken, expiresIn, err := oauthRefresh(ctx, m.httpClient, m.cfg.ClientID, m.cfg.ClientSecret, a.RefreshToken, tokenID)
	if err != nil {
		return err
	}

	a.setTokens(accessToken, expiresIn)
	if err = m.persist(); err != nil {
		log.Errorf("account manager(%s): persist after refresh failed for %s: %v", m.cfg.Pool, tokenID, err)
	}
	if !silent {
		log.Infof("account manager(%s): refreshed token %s", m.cfg.Pool, tokenID)
	}
	return nil
}
