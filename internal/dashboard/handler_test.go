package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/adsgram/backend/internal/models"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

type stubStore struct {
	stats            *Stats
	err              error
	completionStatus *models.CompletionStatus
	withdrawalStatus *models.WithdrawalStatus
	limit            int
	adID             *uuid.UUID
}

func (s *stubStore) Stats(context.Context) (*Stats, error) { return s.stats, s.err }

func (s *stubStore) ListCompletions(_ context.Context, status *models.CompletionStatus, limit int) ([]CompletionRow, error) {
	s.completionStatus, s.limit = status, limit
	return nil, s.err
}

func (s *stubStore) ListWithdrawals(_ context.Context, status *models.WithdrawalStatus, limit int) ([]WithdrawalRow, error) {
	s.withdrawalStatus, s.limit = status, limit
	return []WithdrawalRow{{ID: uuid.New(), AmountCents: 1000}}, s.err
}

func (s *stubStore) ListUsers(_ context.Context, limit int) ([]models.User, error) {
	s.limit = limit
	return nil, s.err
}

func (s *stubStore) ListAds(_ context.Context, limit int) ([]models.Ad, error) {
	s.limit = limit
	return []models.Ad{{ID: uuid.New(), Title: "paused promo", Status: models.AdStatusPaused}}, s.err
}

func (s *stubStore) ListAdViews(_ context.Context, adID *uuid.UUID, limit int) ([]AdViewRow, error) {
	s.adID, s.limit = adID, limit
	return nil, s.err
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestStats(t *testing.T) {
	h := NewHandler(&stubStore{stats: &Stats{Users: 3, PendingWithdrawals: 1}}, nil)
	rec := httptest.NewRecorder()
	h.Stats(rec, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]int64
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["users"] != 3 || body["pendingWithdrawals"] != 1 {
		t.Errorf("unexpected stats %v", body)
	}
}

func TestStats_InfrastructureError(t *testing.T) {
	h := NewHandler(&stubStore{err: errors.New("db down")}, nil)
	rec := httptest.NewRecorder()
	h.Stats(rec, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestPending_UsesPendingQueues(t *testing.T) {
	store := &stubStore{}
	h := NewHandler(store, nil)
	rec := httptest.NewRecorder()
	h.Pending(rec, httptest.NewRequest(http.MethodGet, "/admin/pending", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if store.completionStatus == nil || *store.completionStatus != models.CompletionPending {
		t.Error("expected pending completion filter")
	}
	if store.withdrawalStatus == nil || *store.withdrawalStatus != models.WithdrawalPending {
		t.Error("expected pending withdrawal filter")
	}
	if store.limit != pendingLimit {
		t.Errorf("limit = %d, want %d", store.limit, pendingLimit)
	}
	var body map[string][]map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["taskCompletions"] == nil || len(body["withdrawals"]) != 1 {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestQueryParams(t *testing.T) {
	store := &stubStore{}
	h := NewHandler(store, nil)

	cases := []struct {
		name    string
		handler http.HandlerFunc
		url     string
		want    int
	}{
		{"completions by status", h.Completions, "/admin/task-completions?status=approved&limit=5", http.StatusOK},
		{"bad completion status", h.Completions, "/admin/task-completions?status=maybe", http.StatusBadRequest},
		{"withdrawals paid", h.Withdrawals, "/admin/withdrawals?status=paid", http.StatusOK},
		{"bad limit", h.Users, "/admin/users?limit=-1", http.StatusBadRequest},
		{"ad views by ad", h.AdViews, "/admin/ad-views?adId=" + uuid.NewString(), http.StatusOK},
		{"ads", h.Ads, "/admin/ads?limit=10", http.StatusOK},
		{"ads bad limit", h.Ads, "/admin/ads?limit=x", http.StatusBadRequest},
		{"bad ad id", h.AdViews, "/admin/ad-views?adId=zzz", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tc.handler(rec, httptest.NewRequest(http.MethodGet, tc.url, nil))
			if rec.Code != tc.want {
				t.Errorf("expected %d, got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
		})
	}

	rec := httptest.NewRecorder()
	h.Users(rec, httptest.NewRequest(http.MethodGet, "/admin/users?limit=5000", nil))
	if store.limit != maxLimit {
		t.Errorf("limit should clamp to %d, got %d", maxLimit, store.limit)
	}
}

func TestAds_ListsEveryStatus(t *testing.T) {
	store := &stubStore{}
	h := NewHandler(store, nil)
	rec := httptest.NewRecorder()
	h.Ads(rec, httptest.NewRequest(http.MethodGet, "/admin/ads", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if store.limit != defaultLimit {
		t.Errorf("limit = %d, want %d", store.limit, defaultLimit)
	}
	var body struct {
		Ads []models.Ad `json:"ads"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Ads) != 1 || body.Ads[0].Status != models.AdStatusPaused {
		t.Errorf("unexpected ads %s", rec.Body.String())
	}
}
