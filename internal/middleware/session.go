package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/adsgram/backend/internal/apperr"
	"github.com/adsgram/backend/internal/models"
)

type contextKey string

const (
	ctxUserKey  contextKey = "user"
	ctxAdminKey contextKey = "admin"
)

const (
	SessionCookie = "adsgram_token"
	AdminCookie   = "adsgram_admin"
)

// Resolver maps a session credential to a user. It returns nil for any
// credential that does not resolve.
type Resolver interface {
	Resolve(ctx context.Context, credential string) *models.User
}

// Session resolves the request credential, when present, and stores the user
// in the context. It never rejects a request; see RequireUser.
func Session(resolver Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if raw := credential(r, SessionCookie); raw != "" {
				if u := resolver.Resolve(r.Context(), raw); u != nil {
					r = r.WithContext(WithUser(r.Context(), u))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireUser responds 401 unless Session attached a user.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFromCtx(r.Context()) == nil {
			apperr.WriteStatus(w, http.StatusUnauthorized, apperr.KindUnauthenticated, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// UserFromCtx returns the authenticated user or nil.
func UserFromCtx(ctx context.Context) *models.User {
	u, _ := ctx.Value(ctxUserKey).(*models.User)
	return u
}

// WithUser returns a context carrying the given user.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, ctxUserKey, u)
}

// credential prefers the named cookie and falls back to a Bearer header.
func credential(r *http.Request, cookie string) string {
	if c, err := r.Cookie(cookie); err == nil && c.Value != "" {
		return c.Value
	}
	return extractBearer(r)
}

func extractBearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
