package account

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/x161880/antigravity2api/internal/constant"
)

// oauthRefresh POSTs grant_type=refresh_token to the OAuth token endpoint
// and returns the new access token and its lifetime, or a *TokenError
// carrying the upstream status (spec §4.1).
func oauthRefresh(ctx context.Context, httpClient *http.Client, clientID, clientSecret, refreshToken, tokenID string) (accessToken string, expiresIn int64, err error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {clientID},
		"client_secret": {clientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, constant.OAuthTokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, &TokenError{Message: err.Error(), TokenID: tokenID, Status: 0}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", 0, &TokenError{Message: err.Error(), TokenID: tokenID, Status: 0}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", 0, &TokenError{Message: string(body), TokenID: tokenID, Status: resp.StatusCode}
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err = json.Unmarshal(body, &payload); err != nil {
		return "", 0, &TokenError{Message: fmt.Sprintf("malformed refresh response: %v", err), TokenID: tokenID, Status: resp.StatusCode}
	}
	return payload.AccessToken, payload.ExpiresIn, nil
}
