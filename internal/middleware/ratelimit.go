package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/adsgram/backend/internal/apperr"
	"github.com/adsgram/backend/internal/ratelimit"
)

// Limiter is the check-and-increment capability behind RateLimit.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (ratelimit.Decision, error)
}

// RateLimit allows at most limit requests per client IP per window for the
// named route group. When the limiter backend is unreachable the request is
// let through and the failure logged.
func RateLimit(l Limiter, name string, limit int64, window time.Duration, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d, err := l.Allow(r.Context(), name+":"+ClientIP(r), limit, window)
			if err != nil {
				logger.Warn("rate limiter unavailable", "route", name, "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if !d.Allowed {
				if d.RetryAfter > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(int(d.RetryAfter.Round(time.Second).Seconds())))
				}
				apperr.WriteStatus(w, http.StatusTooManyRequests, apperr.KindInvalidInput, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
