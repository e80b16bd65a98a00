package account

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	onboardPollInterval = 2 * time.Second
	onboardMaxAttempts  = 5
	defaultAllowedTier  = "free-tier"
)

// fetchProjectID implements spec §4.1's fetchProjectId: call
// v1internal:loadCodeAssist; if the response carries currentTier, the
// project id is already assigned. Otherwise call v1internal:onboardUser and
// poll until done, extracting cloudaicompanionProject (string or {id}).
// Returns "" (not an error) when the project id cannot be determined after
// the max attempts — the caller disables the account in that case.
func fetchProjectID(ctx context.Context, httpClient *http.Client, baseURL, accessToken, userAgent string) (string, error) {
	loadResp, err := callCodeAssist(ctx, httpClient, baseURL+"/v1internal:loadCodeAssist", accessToken, userAgent, map[string]any{
		"metadata": map[string]any{"pluginType": "GEMINI"},
	})
	if err != nil {
		return "", err
	}

	var loaded struct {
		CurrentTier            *struct{} `json:"currentTier"`
		CloudaicompanionProject string    `json:"cloudaicompanionProject"`
	}
	if err = json.Unmarshal(loadResp, &loaded); err != nil {
		return "", fmt.Errorf("fetchProjectID: parse loadCodeAssist response: %w", err)
	}
	if loaded.CurrentTier != nil {
		return loaded.CloudaicompanionProject, nil
	}

	onboardReq := map[string]any{
		"tierId":   defaultAllowedTier,
		"metadata": map[string]any{"pluginType": "GEMINI"},
	}

	for attempt := 0; attempt < onboardMaxAttempts; attempt++ {
		onboardResp, errOnboard := callCodeAssist(ctx, httpClient, baseURL+"/v1internal:onboardUser", accessToken, userAgent, onboardReq)
		if errOnboard != nil {
			return "", errOnboard
		}

		var polled struct {
			Done     bool `json:"done"`
			Response struct {
				CloudaicompanionProject json.RawMessage `json:"cloudaicompanionProject"`
			} `json:"response"`
		}
		if err = json.Unmarshal(onboardResp, &polled); err != nil {
			return "", fmt.Errorf("fetchProjectID: parse onboardUser response: %w", err)
		}
		if polled.Done {
			return extractProjectID(polled.Response.CloudaicompanionProject), nil
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(onboardPollInterval):
		}
	}
	return "", nil
}

// extractProjectID accepts either a bare string or a {"id": "..."} object,
// per spec §4.1.
func extractProjectID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString
	}
	var asObject struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &asObject); err == nil {
		return asObject.ID
	}
	return ""
}

func callCodeAssist(ctx context.Context, httpClient *http.Client, url, accessToken, userAgent string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("code assist call %s failed with status %d: %s", url, resp.StatusCode, string(data))
	}
	return data, nil
}
