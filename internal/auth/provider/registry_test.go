package provider

import (
	"context"
	"testing"

	"github.com/cswitzer/OverboardTodosApp/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type namedProvider string

func (n namedProvider) Name() string { return string(n) }

func (n namedProvider) AuthCodeURL(state, codeChallenge string) string {
	return "https://idp.example.com/authorize"
}

func (n namedProvider) ExchangeCode(
	ctx context.Context, code, codeVerifier string,
) (*auth.Identity, error) {
	return nil, nil
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(namedProvider("google"), namedProvider("acme"))

	p, err := r.Get("acme")
	require.NoError(t, err)
	assert.Equal(t, "acme", p.Name())

	_, err = r.Get("linkedin")
	assert.ErrorIs(t, err, auth.ErrUnknownProvider)
}
