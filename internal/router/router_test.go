package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/adsgram/backend/internal/ads"
	"github.com/adsgram/backend/internal/auth"
	"github.com/adsgram/backend/internal/dashboard"
	"github.com/adsgram/backend/internal/models"
	"github.com/adsgram/backend/internal/ratelimit"
	"github.com/adsgram/backend/internal/schema"
	"github.com/adsgram/backend/internal/tasks"
	"github.com/adsgram/backend/internal/withdrawals"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

type stubResolver struct{ user *models.User }

func (s stubResolver) Resolve(_ context.Context, credential string) *models.User {
	if credential == "user-token" {
		return s.user
	}
	return nil
}

type stubAdmin struct{}

func (stubAdmin) VerifyAdmin(credential string) (string, bool) {
	return "admin", credential == "admin-token"
}

type openLimiter struct{}

func (openLimiter) Allow(context.Context, string, int64, time.Duration) (ratelimit.Decision, error) {
	return ratelimit.Decision{Allowed: true, Count: 1}, nil
}

type stubAds struct{}

func (stubAds) ListEligible(context.Context, uuid.UUID) ([]ads.Summary, error) {
	return []ads.Summary{{ID: uuid.New(), Title: "promo", RewardAmount: 5}}, nil
}
func (stubAds) CreditView(context.Context, uuid.UUID, uuid.UUID) error { return nil }

type stubTasks struct{}

func (stubTasks) ListActive(context.Context, uuid.UUID) ([]tasks.Listing, error) { return nil, nil }
func (stubTasks) Submit(context.Context, uuid.UUID, uuid.UUID, string) (*models.TaskCompletion, error) {
	return &models.TaskCompletion{ID: uuid.New()}, nil
}
func (stubTasks) Decide(context.Context, uuid.UUID, bool, string) error { return nil }

type stubWithdrawals struct{}

func (stubWithdrawals) Request(context.Context, uuid.UUID, any) (*models.Withdrawal, error) {
	return &models.Withdrawal{ID: uuid.New()}, nil
}
func (stubWithdrawals) MarkPaid(context.Context, uuid.UUID, string, *string) error { return nil }
func (stubWithdrawals) Cancel(context.Context, uuid.UUID, string) error            { return nil }
func (stubWithdrawals) ListMine(context.Context, uuid.UUID) ([]models.Withdrawal, error) {
	return nil, nil
}

type stubSessions struct{}

func (stubSessions) DevLogin(context.Context, string, *string) (*models.User, string, error) {
	return &models.User{ID: uuid.New()}, "t", nil
}
func (stubSessions) VerifyCode(context.Context, string) (*models.User, string, error) {
	return nil, "", auth.ErrInvalidCode
}
func (stubSessions) AdminLogin(context.Context, string, string) (string, error) { return "a", nil }
func (stubSessions) SessionTTL() time.Duration                                  { return time.Hour }
func (stubSessions) AdminTTL() time.Duration                                    { return time.Hour }

type stubDashboard struct{}

func (stubDashboard) Stats(context.Context) (*dashboard.Stats, error) { return &dashboard.Stats{}, nil }
func (stubDashboard) ListCompletions(context.Context, *models.CompletionStatus, int) ([]dashboard.CompletionRow, error) {
	return nil, nil
}
func (stubDashboard) ListWithdrawals(context.Context, *models.WithdrawalStatus, int) ([]dashboard.WithdrawalRow, error) {
	return nil, nil
}
func (stubDashboard) ListUsers(context.Context, int) ([]models.User, error) { return nil, nil }
func (stubDashboard) ListAds(context.Context, int) ([]models.Ad, error) { return nil, nil }
func (stubDashboard) ListAdViews(context.Context, *uuid.UUID, int) ([]dashboard.AdViewRow, error) {
	return nil, nil
}

type stubProfiles struct{}

func (stubProfiles) UpdateProfile(_ context.Context, id uuid.UUID, _ auth.ProfileUpdate) (*models.User, error) {
	return &models.User{ID: id}, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	bodies, err := schema.New()
	if err != nil {
		t.Fatalf("schema.New: %v", err)
	}
	return New(Deps{
		Auth:        auth.NewHandler(stubSessions{}, false, nil),
		Profile:     auth.NewProfileHandler(stubProfiles{}, nil),
		Ads:         ads.NewHandler(stubAds{}, nil),
		Tasks:       tasks.NewHandler(stubTasks{}, nil),
		Withdrawals: withdrawals.NewHandler(stubWithdrawals{}, nil),
		Dashboard:   dashboard.NewHandler(stubDashboard{}, nil),
		Resolver:    stubResolver{user: &models.User{ID: uuid.New()}},
		Admin:       stubAdmin{},
		Limiter:     openLimiter{},
		Bodies:      bodies,
	})
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestRoutes_Guards(t *testing.T) {
	h := newTestRouter(t)
	id := uuid.NewString()

	cases := []struct {
		name   string
		method string
		path   string
		body   string
		token  string
		want   int
	}{
		{"eligible anonymous", http.MethodGet, "/ads/eligible", "", "", http.StatusOK},
		{"credit anonymous", http.MethodPost, "/ads/credit", `{"adId":"` + id + `"}`, "", http.StatusUnauthorized},
		{"credit user", http.MethodPost, "/ads/credit", `{"adId":"` + id + `"}`, "user-token", http.StatusOK},
		{"submit user", http.MethodPost, "/tasks/submit", `{"taskId":"` + id + `"}`, "user-token", http.StatusOK},
		{"withdraw anonymous", http.MethodPost, "/withdrawals/request", `{"method":"PIX"}`, "", http.StatusUnauthorized},
		{"withdraw user", http.MethodPost, "/withdrawals/request", `{"method":"PIX"}`, "user-token", http.StatusOK},
		{"decide as user", http.MethodPost, "/admin/tasks/decide", `{"completionId":"` + id + `","approve":true}`, "user-token", http.StatusUnauthorized},
		{"decide as admin", http.MethodPost, "/admin/tasks/decide", `{"completionId":"` + id + `","approve":true}`, "admin-token", http.StatusOK},
		{"mark paid as admin", http.MethodPost, "/admin/withdrawals/markPaid", `{"withdrawalId":"` + id + `"}`, "admin-token", http.StatusOK},
		{"stats anonymous", http.MethodGet, "/admin/stats", "", "", http.StatusUnauthorized},
		{"stats admin", http.MethodGet, "/admin/stats", "", "admin-token", http.StatusOK},
		{"me anonymous", http.MethodGet, "/me", "", "", http.StatusUnauthorized},
		{"me user", http.MethodGet, "/me", "", "user-token", http.StatusOK},
		{"profile anonymous", http.MethodGet, "/me/profile", "", "", http.StatusUnauthorized},
		{"profile user", http.MethodGet, "/me/profile", "", "user-token", http.StatusOK},
		{"profile update", http.MethodPost, "/me/profile", `{"pixKey":"ana@pix"}`, "user-token", http.StatusOK},
		{"profile update invalid body", http.MethodPost, "/me/profile", `{"pixKey":7}`, "user-token", http.StatusBadRequest},
		{"profile update anonymous", http.MethodPost, "/me/profile", `{"pixKey":"ana@pix"}`, "", http.StatusUnauthorized},
		{"ads list anonymous", http.MethodGet, "/admin/ads", "", "", http.StatusUnauthorized},
		{"ads list admin", http.MethodGet, "/admin/ads", "", "admin-token", http.StatusOK},
		{"healthz", http.MethodGet, "/healthz", "", "", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", "", "", http.StatusOK},
		{"credit invalid body", http.MethodPost, "/ads/credit", `{"adId":42}`, "user-token", http.StatusBadRequest},
		{"credit invalid body anonymous", http.MethodPost, "/ads/credit", `{"adId":42}`, "", http.StatusUnauthorized},
		{"decide missing approve", http.MethodPost, "/admin/tasks/decide", `{"completionId":"` + id + `"}`, "admin-token", http.StatusBadRequest},
		{"wrong method", http.MethodGet, "/ads/credit", "", "user-token", http.StatusMethodNotAllowed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Errorf("%s %s: expected %d, got %d: %s", tc.method, tc.path, tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}
