package account

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/x161880/antigravity2api/internal/config"
	"github.com/x161880/antigravity2api/internal/constant"
	log "github.com/sirupsen/logrus"
)

// ManagerConfig is the pool-specific wiring an Account Manager needs: which
// OAuth client/secret pair to refresh with, which Code Assist base URL to
// bootstrap Project IDs against, the spoofed User-Agent, and whether every
// request (not just v1internal:* calls) requires a Project ID.
type ManagerConfig struct {
	Pool               constant.Pool
	ClientID           string
	ClientSecret       string
	CodeAssistBaseURL  string
	UserAgent          string
	RequireProjectID   bool
}

// Manager is the Account Manager (C2): it owns one pool's accounts
// exclusively, rotates them under a configurable strategy, refreshes
// expired tokens, bootstraps Project IDs, and disables accounts that fail
// with a terminal OAuth error.
type Manager struct {
	cfg        ManagerConfig
	store      *Store
	httpClient *http.Client
	salt       string

	mu            sync.Mutex
	active        []*Account
	currentIndex  int
	requestCounts map[string]int
	rotation      config.RotationConfig

	refreshMu sync.Map // refresh_token -> *sync.Mutex, single-flight per account
}

// NewManager loads accounts from store, drops disabled ones from the active
// list, and concurrently refreshes every expired account with failure
// isolation per account (spec §4.1, §5).
func NewManager(ctx context.Context, cfg ManagerConfig, store *Store, httpClient *http.Client, rotation config.RotationConfig, salt string) (*Manager, error) {
	accounts, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("account manager(%s): load store: %w", cfg.Pool, err)
	}

	m := &Manager{
		cfg:           cfg,
		store:         store,
		httpClient:    httpClient,
		salt:          salt,
		requestCounts: make(map[string]int),
		rotation:      rotation,
	}

	active := make([]*Account, 0, len(accounts))
	for _, a := range accounts {
		if a.Enable {
			active = append(active, a)
		}
	}
	m.active = active

	m.refreshExpiredConcurrently(ctx)
	return m, nil
}

// refreshExpiredConcurrently awaits all in-flight refreshes with failure
// isolation per account (spec §5: "A single parallel fan-out exists").
func (m *Manager) refreshExpiredConcurrently(ctx context.Context) {
	m.mu.Lock()
	candidates := make([]*Account, 0, len(m.active))
	for _, a := range m.active {
		if a.IsExpired() {
			candidates = append(candidates, a)
		}
	}
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, a := range candidates {
		wg.Add(1)
		go func(a *Account) {
			defer wg.Done()
			if err := m.RefreshToken(ctx, a, true); err != nil {
				log.Warnf("account manager(%s): startup refresh failed for %s: %v", m.cfg.Pool, a.TokenID(m.salt), err)
				var tokenErr *TokenError
				if asTokenError(err, &tokenErr) && tokenErr.ShouldDisable() {
					m.disable(a)
				}
			}
		}(a)
	}
	wg.Wait()
}

// GetToken scans from currentIndex for a usable account: it ensures
// expiry-refresh and (when RequireProjectID) Project ID bootstrap, disables
// an account on 400/403 during prepare and continues, skips without
// disabling on any other error, and advances currentIndex per the
// configured rotation strategy before returning. It never errors; an empty
// pool or an exhausted scan yields a nil *Account (spec §4.1).
func (m *Manager) GetToken(ctx context.Context) *Account {
	m.mu.Lock()
	n := len(m.active)
	if n == 0 {
		m.mu.Unlock()
		return nil
	}
	start := m.currentIndex % n
	m.mu.Unlock()

	for i := 0; i < n; i++ {
		m.mu.Lock()
		if len(m.active) == 0 {
			m.mu.Unlock()
			return nil
		}
		idx := (start + i) % len(m.active)
		if idx >= len(m.active) {
			m.mu.Unlock()
			continue
		}
		candidate := m.active[idx]
		m.mu.Unlock()

		if err := m.prepare(ctx, candidate); err != nil {
			var tokenErr *TokenError
			if asTokenError(err, &tokenErr) && tokenErr.ShouldDisable() {
				m.disable(candidate)
			}
			continue
		}

		m.advanceIndex(candidate, idx)
		return candidate.Clone()
	}
	return nil
}

func asTokenError(err error, out **TokenError) bool {
	te, ok := err.(*TokenError)
	if ok {
		*out = te
	}
	return ok
}

// prepare ensures an account is refreshed and (if required) has a
// bootstrapped Project ID before it can serve a request.
func (m *Manager) prepare(ctx context.Context, a *Account) error {
	if a.IsExpired() {
		if err := m.RefreshToken(ctx, a, false); err != nil {
			return err
		}
	}
	if m.cfg.RequireProjectID && a.ProjectID == "" {
		projectID, err := fetchProjectID(ctx, m.httpClient, m.cfg.CodeAssistBaseURL, a.AccessToken, m.cfg.UserAgent)
		if err != nil {
			return err
		}
		if projectID == "" {
			m.disable(a)
			return &TokenError{Message: "project id bootstrap did not complete", TokenID: a.TokenID(m.salt), Status: 0}
		}
		a.setProjectID(projectID)
		_ = m.persist()
	}
	return nil
}

// advanceIndex implements the three rotation strategies (spec §3).
func (m *Manager) advanceIndex(used *Account, usedIdx int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch constant.RotationStrategy(m.rotation.Strategy) {
	case constant.RotationRequestCount:
		key := used.RefreshToken
		m.requestCounts[key]++
		if m.requestCounts[key] >= m.rotation.RequestCount {
			m.requestCounts[key] = 0
			if len(m.active) > 0 {
				m.currentIndex = (usedIdx + 1) % len(m.active)
			}
		}
	case constant.RotationQuotaExhausted:
		// never advance on success; ReportQuotaExceeded drives rotation.
	default: // round_robin
		if len(m.active) > 0 {
			m.currentIndex = (usedIdx + 1) % len(m.active)
		}
	}
}

// RecordRequest increments the request_count strategy's counter for the
// given account after a request has fully completed. Called exactly once
// per logical request regardless of internal retries (spec §9 Open
// Question, resolved in DESIGN.md).
func (m *Manager) RecordRequest(a *Account) {
	if a == nil || constant.RotationStrategy(m.rotation.Strategy) != constant.RotationRequestCount {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCounts[a.RefreshToken]++
}

// ReportQuotaExceeded advances currentIndex past the given account under the
// quota_exhausted strategy, letting the next getToken call skip it.
func (m *Manager) ReportQuotaExceeded(a *Account) {
	if a == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, candidate := range m.active {
		if candidate.RefreshToken == a.RefreshToken {
			m.currentIndex = (i + 1) % len(m.active)
			return
		}
	}
}

// UpdateRotationConfig hot-swaps the rotation policy and clears request
// counters; no other state is touched (spec §4.1).
func (m *Manager) UpdateRotationConfig(rotation config.RotationConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rotation = rotation
	m.requestCounts = make(map[string]int)
}

// Reload rebuilds the active list from the store atomically. In-flight
// requests holding a stale *Account clone complete unaffected (spec §4.1).
func (m *Manager) Reload() error {
	accounts, err := m.store.Load()
	if err != nil {
		return err
	}
	active := make([]*Account, 0, len(accounts))
	for _, a := range accounts {
		if a.Enable {
			active = append(active, a)
		}
	}
	m.mu.Lock()
	m.active = active
	if m.currentIndex >= len(active) {
		m.currentIndex = 0
	}
	m.mu.Unlock()
	return nil
}

// DisableAccount marks an account unusable and drops it from the active
// list, for the handler layer to call on a chat-call-time 403 that is not a
// refresh failure (spec §7: UpstreamTokenInvalid "kills the current
// token").
func (m *Manager) DisableAccount(a *Account) {
	m.disable(a)
}

func (m *Manager) disable(a *Account) {
	a.setEnable(false)
	m.mu.Lock()
	for i, candidate := range m.active {
		if candidate.RefreshToken == a.RefreshToken {
			m.active = append(m.active[:i], m.active[i+1:]...)
			if m.currentIndex > i {
				m.currentIndex--
			}
			if len(m.active) > 0 {
				m.currentIndex %= len(m.active)
			} else {
				m.currentIndex = 0
			}
			break
		}
	}
	m.mu.Unlock()
	if err := m.persistMerged(a); err != nil {
		log.Errorf("account manager(%s): persist after disable failed: %v", m.cfg.Pool, err)
	}
}

// persist saves the currently active accounts plus any disabled ones the
// manager still knows about; called after in-place field mutation
// (refresh, project id bootstrap).
func (m *Manager) persist() error {
	return m.persistMerged(nil)
}

// persistMerged reconciles the on-disk account list with the manager's
// current in-memory state, the same read-all/merge/write-all pattern
// admin.go uses: every stored record is replaced by its in-memory
// counterpart when one exists (an active account, or extra when the
// account was just disabled and no longer appears in active), while
// records the manager never loaded into active (accounts already disabled
// when this process started) pass through untouched. Store.Save overwrites
// wholesale, so skipping this merge would silently drop every account the
// manager doesn't currently track in active (spec §3).
func (m *Manager) persistMerged(extra *Account) error {
	stored, err := m.store.Load()
	if err != nil {
		return err
	}

	m.mu.Lock()
	byToken := make(map[string]*Account, len(m.active)+1)
	for _, a := range m.active {
		byToken[a.RefreshToken] = a
	}
	m.mu.Unlock()
	if extra != nil {
		byToken[extra.RefreshToken] = extra
	}

	merged := make([]*Account, 0, len(stored)+len(byToken))
	seen := make(map[string]bool, len(stored))
	for _, s := range stored {
		if current, ok := byToken[s.RefreshToken]; ok {
			merged = append(merged, current)
		} else {
			merged = append(merged, s)
		}
		seen[s.RefreshToken] = true
	}
	for token, a := range byToken {
		if !seen[token] {
			merged = append(merged, a)
		}
	}
	return m.store.Save(merged)
}

func (m *Manager) accountMutex(refreshToken string) *sync.Mutex {
	actual, _ := m.refreshMu.LoadOrStore(refreshToken, &sync.Mutex{})
	return actual.(*sync.Mutex)
}
