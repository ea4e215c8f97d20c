package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/cswitzer/OverboardTodosApp/internal/auth"

	"github.com/golang-jwt/jwt/v5"
)

// signingMethod is the only algorithm this codec will ever accept.
// Verification rejects any token whose header declares something else.
var signingMethod = jwt.SigningMethodHS256

// Config holds token signing configuration.
type Config struct {
	Secret string
	Issuer string
}

// Claims is the payload carried by an access token.
type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Codec signs and verifies compact access tokens. It is stateless:
// the same inputs, secret, and clock always produce the same outcome.
type Codec struct {
	cfg Config
}

// NewCodec creates a codec. The secret must be non-empty.
func NewCodec(cfg Config) (*Codec, error) {
	if cfg.Secret == "" {
		return nil, errors.New("token: signing secret is required")
	}
	return &Codec{cfg: cfg}, nil
}

// Sign issues a token for the given claims with the given lifetime.
// Issuer, issued-at, and expiry are set here; caller claims (subject,
// role, email) are carried through untouched.
func (c *Codec) Sign(claims Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.Issuer = c.cfg.Issuer
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	tok := jwt.NewWithClaims(signingMethod, claims)
	signed, err := tok.SignedString([]byte(c.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("token: signing failed: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token string, returning its claims.
// Failures are classified onto the auth sentinels: structurally broken
// tokens report auth.ErrMalformedToken, tampered or wrongly-signed
// tokens report auth.ErrInvalidSignature, and stale tokens report
// auth.ErrTokenExpired. A failed token never becomes valid on retry.
func (c *Codec) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (any, error) {
			return []byte(c.cfg.Secret), nil
		},
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, classify(err)
	}
	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return auth.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return auth.ErrInvalidSignature
	default:
		// Covers bad segment counts, broken base64, invalid JSON,
		// and missing required claims.
		return auth.ErrMalformedToken
	}
}
