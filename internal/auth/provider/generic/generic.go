package generic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/cswitzer/OverboardTodosApp/internal/auth"
	"github.com/cswitzer/OverboardTodosApp/internal/auth/provider"

	"golang.org/x/oauth2"
)

// maxUserInfoBody caps the userinfo response read. A well-behaved IdP
// sends a small JSON object.
const maxUserInfoBody = 1 << 20

// Config describes an OAuth provider by its raw endpoints, for IdPs
// configured without OIDC discovery (self-hosted realms, test rigs).
type Config struct {
	Name         string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	Scopes       []string
}

// Provider implements OAuth authentication against explicitly
// configured authorization, token, and userinfo endpoints.
type Provider struct {
	name        string
	oauthConfig *oauth2.Config
	userInfoURL string
}

// New validates the endpoint configuration and builds the provider.
func New(cfg Config) (*Provider, error) {
	if cfg.Name == "" || cfg.ClientID == "" || cfg.RedirectURL == "" {
		return nil, errors.New("oauth provider config missing required fields")
	}
	if cfg.AuthURL == "" || cfg.TokenURL == "" || cfg.UserInfoURL == "" {
		return nil, errors.New("oauth provider config missing endpoint urls")
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"openid", "email", "profile"}
	}

	return &Provider{
		name: cfg.Name,
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
			Scopes: scopes,
		},
		userInfoURL: cfg.UserInfoURL,
	}, nil
}

// Name returns the provider identifier used by the registry.
func (p *Provider) Name() string {
	return p.name
}

// AuthCodeURL builds the OAuth authorization URL with PKCE parameters.
func (p *Provider) AuthCodeURL(state string, codeChallenge string) string {
	return p.oauthConfig.AuthCodeURL(
		state,
		oauth2.AccessTypeOnline,
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
}

// ExchangeCode trades the authorization code for an access token,
// then fetches the identity claims from the userinfo endpoint.
func (p *Provider) ExchangeCode(
	ctx context.Context,
	code string,
	codeVerifier string,
) (*auth.Identity, error) {

	token, err := provider.ExchangeWithRetry(ctx, func(ctx context.Context) (*oauth2.Token, error) {
		return p.oauthConfig.Exchange(
			ctx,
			code,
			oauth2.SetAuthURLParam("code_verifier", codeVerifier),
		)
	})
	if err != nil {
		return nil, err
	}

	return p.fetchIdentity(ctx, token)
}

func (p *Provider) fetchIdentity(
	ctx context.Context,
	token *oauth2.Token,
) (*auth.Identity, error) {

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", auth.ErrMalformedIdPResponse, err)
	}

	resp, err := p.oauthConfig.Client(ctx, token).Do(req)
	if err != nil {
		return nil, provider.ClassifyExchangeError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: userinfo returned status %d",
			auth.ErrMalformedIdPResponse, resp.StatusCode)
	}

	var claims struct {
		Subject       string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
	}

	body := io.LimitReader(resp.Body, maxUserInfoBody)
	if err := json.NewDecoder(body).Decode(&claims); err != nil {
		return nil, fmt.Errorf("%w: userinfo decode failed",
			auth.ErrMalformedIdPResponse)
	}

	if claims.Subject == "" || claims.Email == "" {
		return nil, fmt.Errorf("%w: userinfo missing required claims",
			auth.ErrMalformedIdPResponse)
	}

	return &auth.Identity{
		Provider:       p.name,
		ProviderUserID: claims.Subject,
		Email:          claims.Email,
		EmailVerified:  claims.EmailVerified,
		DisplayName:    claims.Name,
	}, nil
}
