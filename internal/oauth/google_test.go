package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newTestGoogle(t *testing.T, userinfo map[string]any) *Google {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-123","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(userinfo)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	g := NewGoogle("client-id", "client-secret", "http://localhost:6000/api/auth/google/callback")
	g.cfg.Endpoint = oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"}
	g.userInfoURL = srv.URL + "/userinfo"
	return g
}

func TestGoogle_AuthCodeURL(t *testing.T) {
	t.Parallel()
	g := NewGoogle("client-id", "secret", "http://localhost:6000/api/auth/google/callback")

	u, err := url.Parse(g.AuthCodeURL("state-1"))
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "accounts.google.com", u.Host)
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "state-1", q.Get("state"))
	assert.Equal(t, "openid email profile", q.Get("scope"))
}

func TestGoogle_Exchange(t *testing.T) {
	t.Parallel()
	g := newTestGoogle(t, map[string]any{
		"sub":         "10987",
		"email":       "dana@example.com",
		"given_name":  "Dana",
		"family_name": "Lee",
	})

	profile, err := g.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "10987", profile.GoogleID)
	assert.Equal(t, "dana@example.com", profile.Email)
	assert.Equal(t, "Dana", profile.FirstName)

	_, err = g.Exchange(context.Background(), "bad-code")
	assert.Error(t, err)
}

func TestGoogle_ExchangeIncompleteProfile(t *testing.T) {
	t.Parallel()
	g := newTestGoogle(t, map[string]any{"email": "dana@example.com"})

	_, err := g.Exchange(context.Background(), "good-code")
	assert.ErrorIs(t, err, ErrMissingProfile)
}

func TestNewState(t *testing.T) {
	t.Parallel()
	assert.NotEqual(t, NewState(), NewState())
}
