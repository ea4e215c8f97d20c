package state

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// Grant is a pending login handshake: the anti-replay state value sent
// to the IdP plus the PKCE verifier kept server-side until the callback.
type Grant struct {
	State         string
	CodeVerifier  string
	CodeChallenge string
}

// Guard issues single-use state values for the OAuth handshake and
// enforces that each is consumed at most once within its TTL.
type Guard interface {
	// Issue generates a new state value with a fresh PKCE verifier
	// and records it for later consumption.
	Issue(ctx context.Context) (*Grant, error)

	// Consume atomically validates and removes a state value,
	// returning the PKCE verifier recorded at issue time. Unknown,
	// expired, or already-used values fail with auth.ErrInvalidState;
	// of N concurrent consumers of the same value exactly one wins.
	Consume(ctx context.Context, stateValue string) (codeVerifier string, err error)
}

// newGrant generates the random material for one handshake.
// 32 bytes = 256 bits of entropy for both state and verifier.
func newGrant() (*Grant, error) {
	stateValue, err := randomValue()
	if err != nil {
		return nil, err
	}
	verifier, err := randomValue()
	if err != nil {
		return nil, err
	}

	hash := sha256.Sum256([]byte(verifier))

	return &Grant{
		State:         stateValue,
		CodeVerifier:  verifier,
		CodeChallenge: base64.RawURLEncoding.EncodeToString(hash[:]),
	}, nil
}

func randomValue() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("state: failed to generate random value: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
