// Package auth drives the interactive local OAuth2 web flow used by the
// "cmd login" entrypoint to add a new account to a pool's token store
// (spec's supplemented feature set; the HTTP admin panel that would
// otherwise drive this is out of scope).
package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/skratchdot/open-golang/open"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/x161880/antigravity2api/internal/config"
)

const callbackAddr = ":8085"

// userinfoURL is a var rather than an inline literal so tests can point
// fetchEmail at an httptest server instead of the real Google endpoint.
var userinfoURL = "https://www.googleapis.com/oauth2/v1/userinfo?alt=json"

var defaultScopes = []string{
	"https://www.googleapis.com/auth/cloud-platform",
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
}

// GetAuthenticatedClient runs the full browser-based OAuth2 flow for one
// pool's client/secret pair and returns the issued token plus the
// authenticated user's email.
func GetAuthenticatedClient(ctx context.Context, clientCfg config.OAuthClientConfig) (*oauth2.Token, string, error) {
	scopes := clientCfg.Scopes
	if len(scopes) == 0 {
		scopes = defaultScopes
	}
	conf := &oauth2.Config{
		ClientID:     clientCfg.ClientID,
		ClientSecret: clientCfg.ClientSecret,
		RedirectURL:  "http://localhost" + callbackAddr + "/oauth2callback",
		Scopes:       scopes,
		Endpoint:     google.Endpoint,
	}

	token, err := getTokenFromWeb(ctx, conf)
	if err != nil {
		return nil, "", fmt.Errorf("get token from web: %w", err)
	}

	email, err := fetchEmail(ctx, conf, token)
	if err != nil {
		log.Warnf("auth: failed to resolve account email: %v", err)
	}
	return token, email, nil
}

func fetchEmail(ctx context.Context, conf *oauth2.Config, token *oauth2.Token) (string, error) {
	httpClient := conf.Client(ctx, token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, userinfoURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("userinfo request failed with status %d", resp.StatusCode)
	}
	return gjson.GetBytes(body, "email").String(), nil
}

// getTokenFromWeb starts a local callback server, opens the consent page in
// the user's browser, and exchanges the returned authorization code.
func getTokenFromWeb(ctx context.Context, conf *oauth2.Config) (*oauth2.Token, error) {
	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)

	mux := http.NewServeMux()
	server := &http.Server{Addr: callbackAddr, Handler: mux}

	mux.HandleFunc("/oauth2callback", func(w http.ResponseWriter, r *http.Request) {
		if oauthErr := r.URL.Query().Get("error"); oauthErr != "" {
			_, _ = fmt.Fprintf(w, "Authentication failed: %s", oauthErr)
			errChan <- fmt.Errorf("authentication failed via callback: %s", oauthErr)
			return
		}
		code := r.URL.Query().Get("code")
		if code == "" {
			_, _ = fmt.Fprint(w, "Authentication failed: code not found.")
			errChan <- fmt.Errorf("code not found in callback")
			return
		}
		_, _ = fmt.Fprint(w, "<html><body><h1>Authentication successful!</h1><p>You can close this window.</p></body></html>")
		codeChan <- code
	})

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("auth: callback server error: %v", err)
		}
	}()

	authURL := conf.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
	log.Infof("login required, attempting to open %s", authURL)
	if err := open.Run(authURL); err != nil {
		log.Warnf("auth: failed to open browser automatically: %v; open the URL manually", err)
	}

	var authCode string
	select {
	case code := <-codeChan:
		authCode = code
	case err := <-errChan:
		_ = server.Shutdown(ctx)
		return nil, err
	case <-time.After(5 * time.Minute):
		_ = server.Shutdown(ctx)
		return nil, fmt.Errorf("oauth flow timed out")
	}

	_ = server.Shutdown(ctx)

	token, err := conf.Exchange(ctx, authCode)
	if err != nil {
		return nil, fmt.Errorf("exchange token: %w", err)
	}
	log.Info("authentication successful")
	return token, nil
}
