// Package oauth implements the Google sign-in flow.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"askaway/internal/observability"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// ErrMissingProfile is returned when Google answers without a subject or email.
var ErrMissingProfile = errors.New("oauth: google profile has no subject or email")

// Profile is the identity returned by the provider.
type Profile struct {
	GoogleID      string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	FirstName     string `json:"given_name"`
	LastName      string `json:"family_name"`
	Picture       string `json:"picture"`
}

// Provider is an OAuth2 identity provider.
type Provider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*Profile, error)
}

// Google exchanges authorization codes for Google profiles.
type Google struct {
	cfg         *oauth2.Config
	userInfoURL string
}

// NewGoogle returns a Google provider requesting the openid, email and profile scopes.
func NewGoogle(clientID, clientSecret, redirectURL string) *Google {
	return &Google{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: googleUserInfoURL,
	}
}

// NewState returns an unguessable state value.
func NewState() string {
	return uuid.NewString()
}

// AuthCodeURL is the consent screen URL for state.
func (g *Google) AuthCodeURL(state string) string {
	return g.cfg.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades code for a token and fetches the user's profile.
func (g *Google) Exchange(ctx context.Context, code string) (profile *Profile, err error) {
	ctx, span := observability.GetTraceLayer().TraceExternalCall(ctx, "google", "oauth_exchange")
	defer func() { observability.EndSpan(span, err) }()

	token, err := g.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.cfg.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch userinfo: unexpected status %d", resp.StatusCode)
	}

	profile = &Profile{}
	if err := json.NewDecoder(resp.Body).Decode(profile); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}
	if profile.GoogleID == "" || profile.Email == "" {
		return nil, ErrMissingProfile
	}
	return profile, nil
}
