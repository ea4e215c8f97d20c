package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/cswitzer/OverboardTodosApp/internal/auth/token"
)

// unexported, collision-proof context keys
type userIDContextKeyType struct{}
type roleContextKeyType struct{}

var (
	userIDKey = userIDContextKeyType{}
	roleKey   = roleContextKeyType{}
)

// UserIDFromContext extracts the authenticated user ID from context.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}

// RoleFromContext extracts the authenticated user's role from context.
func RoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(roleKey).(string)
	return role, ok
}

// AuthMiddleware guards routes with bearer-token verification. All
// token decisions go through the codec; the middleware adds none of
// its own.
type AuthMiddleware struct {
	Codec *token.Codec
}

func NewAuthMiddleware(codec *token.Codec) *AuthMiddleware {
	return &AuthMiddleware{Codec: codec}
}

func (a *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 1. Read bearer token
		raw := bearerToken(r)
		if raw == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		// 2. Verify signature, algorithm, and expiry
		claims, err := a.Codec.Verify(raw)
		if err != nil {
			// Expired, tampered, and malformed all read the same
			// from outside.
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		// 3. Attach subject and role to context
		ctx := context.WithValue(r.Context(), userIDKey, claims.Subject)
		ctx = context.WithValue(ctx, roleKey, claims.Role)

		// 4. Continue request
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
