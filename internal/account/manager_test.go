package account

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/x161880/antigravity2api/internal/config"
	"github.com/x161880/antigravity2api/internal/constant"
)

// rewriteHostTransport rewrites every outbound request to target, so tests
// can redirect a hardcoded upstream URL (e.g. oauth2.googleapis.com) at an
// httptest server without touching production code.
type rewriteHostTransport struct {
	target *url.URL
}

func (r rewriteHostTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = r.target.Scheme
	req.URL.Host = r.target.Host
	req.Host = r.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

func newAccountForTest(refreshToken string, expired bool) *Account {
	ts := time.Now().UnixMilli()
	if expired {
		ts = time.Now().Add(-2 * time.Hour).UnixMilli()
	}
	return &Account{
		AccessToken:  "initial-access-token",
		RefreshToken: refreshToken,
		ExpiresIn:    3600,
		Timestamp:    ts,
		Enable:       true,
	}
}

func newTestStore(t *testing.T, accounts []*Account) *Store {
	t.Helper()
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "accounts.json"), "test-passphrase")
	if len(accounts) > 0 {
		require.NoError(t, store.Save(accounts))
	}
	return store
}

func TestAccount_IsExpired(t *testing.T) {
	fresh := newAccountForTest("tok-1", false)
	assert.False(t, fresh.IsExpired())

	stale := newAccountForTest("tok-2", true)
	assert.True(t, stale.IsExpired())
}

func TestAccount_TokenIDStableAndSaltSensitive(t *testing.T) {
	a := newAccountForTest("same-refresh-token", false)
	id1 := a.TokenID("salt-a")
	id2 := a.TokenID("salt-a")
	id3 := a.TokenID("salt-b")
	assert.Equal(t, id1, id2)
	assert.NotEqual(t, id1, id3)
}

func TestManager_GetToken_RoundRobinAdvances(t *testing.T) {
	accounts := []*Account{newAccountForTest("tok-a", false), newAccountForTest("tok-b", false)}
	store := newTestStore(t, accounts)

	mgr, err := NewManager(context.Background(), ManagerConfig{Pool: constant.PoolCLI}, store, http.DefaultClient, config.RotationConfig{Strategy: "round_robin"}, "salt")
	require.NoError(t, err)

	first := mgr.GetToken(context.Background())
	second := mgr.GetToken(context.Background())
	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
}

func TestManager_GetToken_EmptyPoolReturnsNil(t *testing.T) {
	store := newTestStore(t, nil)
	mgr, err := NewManager(context.Background(), ManagerConfig{Pool: constant.PoolCLI}, store, http.DefaultClient, config.RotationConfig{Strategy: "round_robin"}, "salt")
	require.NoError(t, err)
	assert.Nil(t, mgr.GetToken(context.Background()))
}

func TestManager_RefreshToken_UpdatesExpiredAccount(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"refreshed-token","expires_in":3600}`))
	}))
	defer tokenSrv.Close()
	target, err := url.Parse(tokenSrv.URL)
	require.NoError(t, err)
	httpClient := &http.Client{Transport: rewriteHostTransport{target: target}}

	stale := newAccountForTest("tok-expired", true)
	store := newTestStore(t, []*Account{stale})

	mgr, err := NewManager(context.Background(), ManagerConfig{Pool: constant.PoolCLI, ClientID: "id", ClientSecret: "secret"}, store, httpClient, config.RotationConfig{Strategy: "round_robin"}, "salt")
	require.NoError(t, err)

	tok := mgr.GetToken(context.Background())
	require.NotNil(t, tok)
	assert.Equal(t, "refreshed-token", tok.AccessToken)
	assert.False(t, tok.IsExpired())
}

func TestManager_RefreshToken_DisablesOn400(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer tokenSrv.Close()
	target, err := url.Parse(tokenSrv.URL)
	require.NoError(t, err)
	httpClient := &http.Client{Transport: rewriteHostTransport{target: target}}

	stale := newAccountForTest("tok-bad", true)
	store := newTestStore(t, []*Account{stale})

	mgr, err := NewManager(context.Background(), ManagerConfig{Pool: constant.PoolCLI, ClientID: "id", ClientSecret: "secret"}, store, httpClient, config.RotationConfig{Strategy: "round_robin"}, "salt")
	require.NoError(t, err)

	assert.Nil(t, mgr.GetToken(context.Background()))
}

func TestManager_RequireProjectID_BootstrapsOnLoadCodeAssist(t *testing.T) {
	codeAssistSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/v1internal:loadCodeAssist":
			_, _ = w.Write([]byte(`{"currentTier":{},"cloudaicompanionProject":"proj-123"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer codeAssistSrv.Close()

	fresh := newAccountForTest("tok-needs-project", false)
	store := newTestStore(t, []*Account{fresh})

	mgr, err := NewManager(context.Background(), ManagerConfig{
		Pool: constant.PoolAntigravity, CodeAssistBaseURL: codeAssistSrv.URL, RequireProjectID: true,
	}, store, http.DefaultClient, config.RotationConfig{Strategy: "round_robin"}, "salt")
	require.NoError(t, err)

	tok := mgr.GetToken(context.Background())
	require.NotNil(t, tok)
	assert.Equal(t, "proj-123", tok.ProjectID)
}

func TestManager_RequestCountRotation(t *testing.T) {
	accounts := []*Account{newAccountForTest("tok-a", false), newAccountForTest("tok-b", false)}
	store := newTestStore(t, accounts)

	mgr, err := NewManager(context.Background(), ManagerConfig{Pool: constant.PoolCLI}, store, http.DefaultClient, config.RotationConfig{Strategy: "request_count", RequestCount: 2}, "salt")
	require.NoError(t, err)

	first := mgr.GetToken(context.Background())
	require.NotNil(t, first)
	mgr.RecordRequest(first)
	second := mgr.GetToken(context.Background())
	require.NotNil(t, second)
	assert.Equal(t, first.RefreshToken, second.RefreshToken, "stays on the same account until RequestCount is reached")

	mgr.RecordRequest(second)
	third := mgr.GetToken(context.Background())
	require.NotNil(t, third)
	assert.NotEqual(t, first.RefreshToken, third.RefreshToken, "advances once the counter hits RequestCount")
}

func TestManager_ReportQuotaExceeded_SkipsAccount(t *testing.T) {
	accounts := []*Account{newAccountForTest("tok-a", false), newAccountForTest("tok-b", false)}
	store := newTestStore(t, accounts)

	mgr, err := NewManager(context.Background(), ManagerConfig{Pool: constant.PoolCLI}, store, http.DefaultClient, config.RotationConfig{Strategy: "quota_exhausted"}, "salt")
	require.NoError(t, err)

	first := mgr.GetToken(context.Background())
	require.NotNil(t, first)
	mgr.ReportQuotaExceeded(first)

	second := mgr.GetToken(context.Background())
	require.NotNil(t, second)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
}

func TestManager_DisableAccount_RemovesFromActiveList(t *testing.T) {
	accounts := []*Account{newAccountForTest("tok-only", false)}
	store := newTestStore(t, accounts)

	mgr, err := NewManager(context.Background(), ManagerConfig{Pool: constant.PoolCLI}, store, http.DefaultClient, config.RotationConfig{Strategy: "round_robin"}, "salt")
	require.NoError(t, err)

	tok := mgr.GetToken(context.Background())
	require.NotNil(t, tok)
	mgr.DisableAccount(tok)

	assert.Nil(t, mgr.GetToken(context.Background()))

	persisted, err := store.Load()
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	assert.False(t, persisted[0].Enable)
}

func TestManager_DisableAccount_PreservesOtherDisabledAccountsInStore(t *testing.T) {
	alreadyDisabled := newAccountForTest("tok-already-disabled", false)
	alreadyDisabled.Enable = false
	active := newAccountForTest("tok-active", false)
	store := newTestStore(t, []*Account{alreadyDisabled, active})

	mgr, err := NewManager(context.Background(), ManagerConfig{Pool: constant.PoolCLI}, store, http.DefaultClient, config.RotationConfig{Strategy: "round_robin"}, "salt")
	require.NoError(t, err)

	tok := mgr.GetToken(context.Background())
	require.NotNil(t, tok)
	mgr.DisableAccount(tok)

	persisted, err := store.Load()
	require.NoError(t, err)
	require.Len(t, persisted, 2, "disabling one account must not drop the other from the store")
	for _, a := range persisted {
		assert.False(t, a.Enable)
	}
}

func TestManager_StartupRefreshFailure_DisablesAndDropsFromActive(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer tokenSrv.Close()
	target, err := url.Parse(tokenSrv.URL)
	require.NoError(t, err)
	httpClient := &http.Client{Transport: rewriteHostTransport{target: target}}

	stale := newAccountForTest("tok-bad", true)
	other := newAccountForTest("tok-good", false)
	store := newTestStore(t, []*Account{stale, other})

	mgr, err := NewManager(context.Background(), ManagerConfig{Pool: constant.PoolCLI, ClientID: "id", ClientSecret: "secret"}, store, httpClient, config.RotationConfig{Strategy: "round_robin"}, "salt")
	require.NoError(t, err)

	mgr.mu.Lock()
	activeTokens := make([]string, len(mgr.active))
	for i, a := range mgr.active {
		activeTokens[i] = a.RefreshToken
	}
	mgr.mu.Unlock()
	assert.Equal(t, []string{"tok-good"}, activeTokens, "startup batch must drop the disabled account from active immediately, not lazily")

	persisted, err := store.Load()
	require.NoError(t, err)
	for _, a := range persisted {
		if a.RefreshToken == "tok-bad" {
			assert.False(t, a.Enable)
		}
	}
}

func TestManager_Reload_PicksUpStoreChanges(t *testing.T) {
	store := newTestStore(t, []*Account{newAccountForTest("tok-a", false)})
	mgr, err := NewManager(context.Background(), ManagerConfig{Pool: constant.PoolCLI}, store, http.DefaultClient, config.RotationConfig{Strategy: "round_robin"}, "salt")
	require.NoError(t, err)

	require.NoError(t, store.Save([]*Account{newAccountForTest("tok-a", false), newAccountForTest("tok-b", false)}))
	require.NoError(t, mgr.Reload())

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		tok := mgr.GetToken(context.Background())
		require.NotNil(t, tok)
		seen[tok.RefreshToken] = true
	}
	assert.Len(t, seen, 2)
}

func TestManager_UpdateRotationConfig_ResetsCounters(t *testing.T) {
	accounts := []*Account{newAccountForTest("tok-a", false)}
	store := newTestStore(t, accounts)
	mgr, err := NewManager(context.Background(), ManagerConfig{Pool: constant.PoolCLI}, store, http.DefaultClient, config.RotationConfig{Strategy: "request_count", RequestCount: 5}, "salt")
	require.NoError(t, err)

	tok := mgr.GetToken(context.Background())
	require.NotNil(t, tok)
	mgr.RecordRequest(tok)

	mgr.UpdateRotationConfig(config.RotationConfig{Strategy: "round_robin"})
	assert.Equal(t, 0, mgr.requestCounts[tok.RefreshToken])
}

func TestAccount_Clone_IsIndependentCopy(t *testing.T) {
	a := newAccountForTest("tok", false)
	clone := a.Clone()
	clone.AccessToken = "mutated"
	assert.NotEqual(t, a.AccessToken, clone.AccessToken)
}

func TestExtractProjectID_AcceptsStringOrObject(t *testing.T) {
	assert.Equal(t, "abc", extractProjectID(json.RawMessage(`"abc"`)))
	assert.Equal(t, "xyz", extractProjectID(json.RawMessage(`{"id":"xyz"}`)))
	assert.Equal(t, "", extractProjectID(nil))
}
