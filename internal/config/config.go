package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full runtime configuration, loaded from environment
// variables. Secrets arrive the same way; nothing is read from disk.
type Config struct {
	AppPort string `env:"APP_PORT" envDefault:"8080"`

	// Token signing.
	SecretKey   string        `env:"SECRET_KEY,notEmpty"`
	TokenIssuer string        `env:"TOKEN_ISSUER" envDefault:"overboard-auth"`
	TokenTTL    time.Duration `env:"TOKEN_TTL" envDefault:"30m"`

	// OAuth handshake.
	StateTTL        time.Duration `env:"OAUTH_STATE_TTL" envDefault:"5m"`
	ExchangeTimeout time.Duration `env:"IDP_EXCHANGE_TIMEOUT" envDefault:"10s"`

	// Frontend redirect targets.
	ClientURL string `env:"CLIENT_URL" envDefault:"http://localhost:3000"`
	LoginURL  string `env:"LOGIN_URL" envDefault:"http://localhost:3000/login"`

	// Google provider (OIDC discovery). Enabled when all three are set.
	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `env:"GOOGLE_REDIRECT_URL"`

	// Generic provider (explicit endpoints). Enabled when the name
	// and endpoint URLs are set.
	OAuthProviderName string   `env:"OAUTH_PROVIDER_NAME"`
	OAuthClientID     string   `env:"OAUTH_CLIENT_ID"`
	OAuthClientSecret string   `env:"OAUTH_CLIENT_SECRET"`
	OAuthRedirectURL  string   `env:"OAUTH_REDIRECT_URL"`
	OAuthAuthURL      string   `env:"OAUTH_AUTH_URL"`
	OAuthTokenURL     string   `env:"OAUTH_TOKEN_URL"`
	OAuthUserInfoURL  string   `env:"OAUTH_USERINFO_URL"`
	OAuthScopes       []string `env:"OAUTH_SCOPES" envSeparator:","`

	// Infra. Redis is optional: without it the state store is
	// in-process.
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	DatabaseDSN   string `env:"DATABASE_DSN,notEmpty"`
}

// GoogleEnabled reports whether the Google provider is configured.
func (c Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" &&
		c.GoogleClientSecret != "" &&
		c.GoogleRedirectURL != ""
}

// GenericEnabled reports whether the endpoint-configured provider is
// configured.
func (c Config) GenericEnabled() bool {
	return c.OAuthProviderName != "" &&
		c.OAuthClientID != "" &&
		c.OAuthAuthURL != "" &&
		c.OAuthTokenURL != "" &&
		c.OAuthUserInfoURL != ""
}

// Load parses configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
