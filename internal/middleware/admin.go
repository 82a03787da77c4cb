package middleware

import (
	"context"
	"net/http"

	"github.com/adsgram/backend/internal/apperr"
)

// AdminVerifier checks an admin credential and returns the operator name
// recorded on decisions and payouts.
type AdminVerifier interface {
	VerifyAdmin(credential string) (string, bool)
}

// RequireAdmin responds 401 unless the request carries a valid admin
// credential in the admin cookie or a Bearer header.
func RequireAdmin(v AdminVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			name, ok := v.VerifyAdmin(credential(r, AdminCookie))
			if !ok {
				apperr.WriteStatus(w, http.StatusUnauthorized, apperr.KindUnauthenticated, "admin authentication required")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithAdmin(r.Context(), name)))
		})
	}
}

// AdminFromCtx returns the admin operator name, or "" outside admin routes.
func AdminFromCtx(ctx context.Context) string {
	name, _ := ctx.Value(ctxAdminKey).(string)
	return name
}

func WithAdmin(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, ctxAdminKey, name)
}
