package auth

import (
	"context"
	"net/http"
	"strings"

	"deskhub/internal/db"
	apperrors "deskhub/internal/errors"
)

type contextKey struct{}

// ClaimsFrom returns the claims stored by RequireUser.
func ClaimsFrom(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(contextKey{}).(*Claims)
	return c, ok
}

func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// RequireUser rejects requests without a valid bearer token.
func (m *TokenManager) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			apperrors.Write(w, apperrors.ErrUnauthorized("missing bearer token"))
			return
		}
		claims, err := m.Parse(token)
		if err != nil {
			apperrors.Write(w, apperrors.ErrUnauthorized("invalid or expired token"))
			return
		}
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// RequireAdmin must run after RequireUser.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFrom(r.Context())
		if !ok {
			apperrors.Write(w, apperrors.ErrUnauthorized("missing bearer token"))
			return
		}
		if claims.Role != db.RoleAdmin {
			apperrors.Write(w, apperrors.ErrForbidden("admin access required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
