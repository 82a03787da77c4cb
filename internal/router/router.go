// Package router mounts every HTTP endpoint on one ServeMux.
package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/adsgram/backend/internal/ads"
	"github.com/adsgram/backend/internal/auth"
	"github.com/adsgram/backend/internal/dashboard"
	"github.com/adsgram/backend/internal/metrics"
	"github.com/adsgram/backend/internal/middleware"
	"github.com/adsgram/backend/internal/schema"
	"github.com/adsgram/backend/internal/tasks"
	"github.com/adsgram/backend/internal/withdrawals"
)

const (
	// verifyCodeLimit and verifyCodeWindow bound login-code guesses per IP.
	verifyCodeLimit  = 5
	verifyCodeWindow = 5 * time.Minute
)

type Deps struct {
	Auth        *auth.Handler
	Profile     *auth.ProfileHandler
	Ads         *ads.Handler
	Tasks       *tasks.Handler
	Withdrawals *withdrawals.Handler
	Dashboard   *dashboard.Handler

	Resolver middleware.Resolver
	Admin    middleware.AdminVerifier
	Limiter  middleware.Limiter
	Bodies   middleware.BodyValidator

	// TrustProxy takes the client address from X-Forwarded-For.
	TrustProxy bool

	// Health reports storage readiness for /healthz.
	Health func(*http.Request) error
	Logger *slog.Logger
}

// New returns the API handler. Session resolution runs on every request;
// user and admin routes add their own guards.
func New(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	mux := http.NewServeMux()

	user := middleware.RequireUser
	admin := middleware.RequireAdmin(d.Admin)
	verifyLimit := middleware.RateLimit(d.Limiter, "verify-code", verifyCodeLimit, verifyCodeWindow, d.Logger)
	// body checks the request against a schema once the caller is authorized.
	body := func(name string, h http.HandlerFunc) http.Handler {
		if d.Bodies == nil {
			return h
		}
		return middleware.ValidateBody(d.Bodies, name)(h)
	}

	// Public and session
	mux.Handle("POST /auth/dev-login", body(schema.DevLogin, d.Auth.DevLogin))
	mux.Handle("POST /auth/verify-code", verifyLimit(body(schema.VerifyCode, d.Auth.VerifyCode)))
	mux.HandleFunc("POST /auth/logout", d.Auth.Logout)
	mux.HandleFunc("GET /me", d.Auth.Me)
	mux.Handle("GET /me/profile", user(http.HandlerFunc(d.Profile.Get)))
	mux.Handle("POST /me/profile", user(body(schema.ProfileUpdate, d.Profile.Update)))
	mux.Handle("POST /admin/login", body(schema.AdminLogin, d.Auth.AdminLogin))

	// Ads
	mux.HandleFunc("GET /ads/eligible", d.Ads.Eligible)
	mux.Handle("POST /ads/credit", user(body(schema.AdCredit, d.Ads.Credit)))

	// Tasks
	mux.HandleFunc("GET /tasks", d.Tasks.List)
	mux.Handle("POST /tasks/submit", user(body(schema.TaskSubmit, d.Tasks.Submit)))
	mux.Handle("POST /admin/tasks/decide", admin(body(schema.TaskDecide, d.Tasks.Decide)))

	// Withdrawals
	mux.Handle("GET /withdrawals", user(http.HandlerFunc(d.Withdrawals.List)))
	mux.Handle("POST /withdrawals/request", user(body(schema.WithdrawalRequest, d.Withdrawals.Request)))
	mux.Handle("POST /admin/withdrawals/markPaid", admin(body(schema.WithdrawalAction, d.Withdrawals.MarkPaid)))
	mux.Handle("POST /admin/withdrawals/cancel", admin(body(schema.WithdrawalAction, d.Withdrawals.Cancel)))

	// Admin views
	mux.Handle("GET /admin/stats", admin(http.HandlerFunc(d.Dashboard.Stats)))
	mux.Handle("GET /admin/pending", admin(http.HandlerFunc(d.Dashboard.Pending)))
	mux.Handle("GET /admin/users", admin(http.HandlerFunc(d.Dashboard.Users)))
	mux.Handle("GET /admin/ads", admin(http.HandlerFunc(d.Dashboard.Ads)))
	mux.Handle("GET /admin/withdrawals", admin(http.HandlerFunc(d.Dashboard.Withdrawals)))
	mux.Handle("GET /admin/task-completions", admin(http.HandlerFunc(d.Dashboard.Completions)))
	mux.Handle("GET /admin/ad-views", admin(http.HandlerFunc(d.Dashboard.AdViews)))

	// Ops
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if d.Health != nil {
			if err := d.Health(r); err != nil {
				d.Logger.Warn("health check failed", "error", err)
				http.Error(w, `{"status":"unavailable"}`, http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	return metrics.InstrumentHandler(middleware.RealIP(d.TrustProxy)(middleware.Session(d.Resolver)(mux)))
}
