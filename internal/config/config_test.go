package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SECRET_KEY", "test-secret")
	t.Setenv("DATABASE_DSN", "postgres://localhost/overboard?sslmode=disable")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
	assert.Equal(t, 5*time.Minute, cfg.StateTTL)
	assert.Equal(t, 10*time.Second, cfg.ExchangeTimeout)
	assert.False(t, cfg.GoogleEnabled())
	assert.False(t, cfg.GenericEnabled())
}

func TestLoad_RequiredFields(t *testing.T) {
	t.Setenv("SECRET_KEY", "")
	t.Setenv("DATABASE_DSN", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_ProviderToggles(t *testing.T) {
	t.Setenv("SECRET_KEY", "test-secret")
	t.Setenv("DATABASE_DSN", "postgres://localhost/overboard?sslmode=disable")
	t.Setenv("GOOGLE_CLIENT_ID", "id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "secret")
	t.Setenv("GOOGLE_REDIRECT_URL", "https://example.com/auth/google/callback")
	t.Setenv("OAUTH_PROVIDER_NAME", "acme")
	t.Setenv("OAUTH_CLIENT_ID", "id")
	t.Setenv("OAUTH_AUTH_URL", "https://idp.example.com/authorize")
	t.Setenv("OAUTH_TOKEN_URL", "https://idp.example.com/token")
	t.Setenv("OAUTH_USERINFO_URL", "https://idp.example.com/userinfo")
	t.Setenv("OAUTH_SCOPES", "openid,email")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.GoogleEnabled())
	assert.True(t, cfg.GenericEnabled())
	assert.Equal(t, []string{"openid", "email"}, cfg.OAuthScopes)
}
