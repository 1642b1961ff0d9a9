package users

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/mscwg/catalog/internal/errors"
	"golang.org/x/oauth2"
)

// Provider is one third-party sign-in option.
type Provider struct {
	Name        string
	Label       string
	Config      *oauth2.Config
	UserInfoURL string
}

// ProviderConfig is the static part of a provider, filled in from
// configuration with the deployment's client credentials.
type ProviderConfig struct {
	Name        string
	Label       string
	AuthURL     string
	TokenURL    string
	UserInfoURL string
	Scopes      []string
}

// KnownProviders lists the supported sign-in services. Deployments enable
// the ones they hold client credentials for.
var KnownProviders = []ProviderConfig{
	{
		Name:        "google",
		Label:       "Google",
		AuthURL:     "https://accounts.google.com/o/oauth2/v2/auth",
		TokenURL:    "https://oauth2.googleapis.com/token",
		UserInfoURL: "https://openidconnect.googleapis.com/v1/userinfo",
		Scopes:      []string{"openid", "profile", "email"},
	},
	{
		Name:        "github",
		Label:       "GitHub",
		AuthURL:     "https://github.com/login/oauth/authorize",
		TokenURL:    "https://github.com/login/oauth/access_token",
		UserInfoURL: "https://api.github.com/user",
		Scopes:      []string{"read:user", "user:email"},
	},
	{
		Name:        "orcid",
		Label:       "ORCID",
		AuthURL:     "https://orcid.org/oauth/authorize",
		TokenURL:    "https://orcid.org/oauth/token",
		UserInfoURL: "https://orcid.org/oauth/userinfo",
		Scopes:      []string{"openid"},
	},
}

// NewProvider binds a provider config to client credentials and the
// deployment's callback URL.
func NewProvider(pc ProviderConfig, clientID, clientSecret, redirectURL string) *Provider {
	return &Provider{
		Name:        pc.Name,
		Label:       pc.Label,
		UserInfoURL: pc.UserInfoURL,
		Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       pc.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  pc.AuthURL,
				TokenURL: pc.TokenURL,
			},
		},
	}
}

// AuthCodeURL starts the sign-in flow.
func (p *Provider) AuthCodeURL(state string) string {
	return p.Config.AuthCodeURL(state)
}

// Exchange trades an authorization code for the signed-in user's
// identity.
func (p *Provider) Exchange(ctx context.Context, code string) (User, error) {
	token, err := p.Config.Exchange(ctx, code)
	if err != nil {
		return User{}, errors.Wrap(err, errors.CodeBadCredentials,
			"exchange authorization code")
	}
	return p.fetchIdentity(ctx, token)
}

func (p *Provider) fetchIdentity(ctx context.Context, token *oauth2.Token) (User, error) {
	client := p.Config.Client(ctx, token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.UserInfoURL, nil)
	if err != nil {
		return User{}, errors.Wrap(err, errors.CodeUnknown, "build userinfo request")
	}
	resp, err := client.Do(req)
	if err != nil {
		return User{}, errors.Wrap(err, errors.CodeBadCredentials, "fetch userinfo")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return User{}, errors.New(errors.CodeBadCredentials,
			fmt.Sprintf("userinfo endpoint returned %d", resp.StatusCode))
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return User{}, errors.Wrap(err, errors.CodeUnknown, "read userinfo")
	}
	return IdentityFromClaims(p.Name, body)
}

// IdentityFromClaims maps a userinfo document onto a User. Providers
// disagree on field names, so several are tried.
func IdentityFromClaims(provider string, body []byte) (User, error) {
	var claims map[string]any
	if err := json.Unmarshal(body, &claims); err != nil {
		return User{}, errors.Wrap(err, errors.CodeUserProfileInvalid,
			"parse userinfo")
	}
	subject := firstString(claims, "sub", "id", "login")
	if subject == "" {
		return User{}, errors.New(errors.CodeUserProfileInvalid,
			"userinfo has no stable subject")
	}
	user := User{
		UserID: UserID(provider, subject),
		Name:   firstString(claims, "name", "given_name", "login"),
		Email:  firstString(claims, "email"),
	}
	if user.Name == "" {
		user.Name = subject
	}
	return user, nil
}

func firstString(claims map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := claims[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}
