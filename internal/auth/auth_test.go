package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestFetchEmail_ParsesEmailField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-access-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"email":"someone@example.com","verified_email":true}`))
	}))
	defer srv.Close()

	orig := userinfoURL
	userinfoURL = srv.URL
	defer func() { userinfoURL = orig }()

	conf := &oauth2.Config{}
	token := &oauth2.Token{AccessToken: "test-access-token", Expiry: time.Now().Add(time.Hour)}

	email, err := fetchEmail(context.Background(), conf, token)
	require.NoError(t, err)
	assert.Equal(t, "someone@example.com", email)
}

func TestFetchEmail_NonOKStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	orig := userinfoURL
	userinfoURL = srv.URL
	defer func() { userinfoURL = orig }()

	conf := &oauth2.Config{}
	token := &oauth2.Token{AccessToken: "test-access-token", Expiry: time.Now().Add(time.Hour)}

	_, err := fetchEmail(context.Background(), conf, token)
	assert.Error(t, err)
}

func TestGetTokenFromWeb_ExchangesCodeFromCallback(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"issued-token","token_type":"Bearer","expires_in":3600}`))
	}))
	defer tokenSrv.Close()

	conf := &oauth2.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost" + callbackAddr + "/oauth2callback",
		Endpoint:     oauth2.Endpoint{TokenURL: tokenSrv.URL},
	}

	go func() {
		time.Sleep(200 * time.Millisecond)
		_, _ = http.Get("http://localhost" + callbackAddr + "/oauth2callback?code=test-auth-code&state=state-token")
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	token, err := getTokenFromWeb(ctx, conf)
	require.NoError(t, err)
	assert.Equal(t, "issued-token", token.AccessToken)
}
