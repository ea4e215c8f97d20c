package auth

import "errors"

// Failure kinds for the login flow. Handlers map these to HTTP
// responses; none of them carry token or secret material in their text.
var (
	// Token verification failures.
	ErrMalformedToken   = errors.New("token is malformed")
	ErrInvalidSignature = errors.New("token signature is invalid")
	ErrTokenExpired     = errors.New("token is expired")

	// OAuth handshake failures.
	ErrMalformedRequest     = errors.New("request is structurally invalid")
	ErrUnknownProvider      = errors.New("unknown oauth provider")
	ErrInvalidState         = errors.New("state is unknown, expired, or already used")
	ErrIdPRejectedCode      = errors.New("identity provider rejected the authorization code")
	ErrNetwork              = errors.New("identity provider unreachable")
	ErrMalformedIdPResponse = errors.New("identity provider returned a malformed response")

	// Storage failures.
	ErrStorageUnavailable = errors.New("user storage unavailable")
)
