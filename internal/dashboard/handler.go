// Package dashboard serves the read-only admin views: platform counters and
// the review and payout queues.
package dashboard

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/adsgram/backend/internal/apperr"
	"github.com/adsgram/backend/internal/models"
)

const (
	defaultLimit = 50
	maxLimit     = 200
	// pendingLimit caps each queue in the /admin/pending overview.
	pendingLimit = 10
)

type Stats struct {
	Users              int64 `json:"users"`
	Ads                int64 `json:"ads"`
	Tasks              int64 `json:"tasks"`
	AdViews            int64 `json:"adViews"`
	PendingCompletions int64 `json:"pendingTaskCompletions"`
	Completions        int64 `json:"taskCompletions"`
	PendingWithdrawals int64 `json:"pendingWithdrawals"`
	Withdrawals        int64 `json:"withdrawals"`
}

type CompletionRow struct {
	ID          uuid.UUID               `json:"id"`
	UserID      uuid.UUID               `json:"userId"`
	Username    *string                 `json:"username,omitempty"`
	TaskID      uuid.UUID               `json:"taskId"`
	TaskTitle   string                  `json:"taskTitle"`
	RewardCents int64                   `json:"rewardCents"`
	Status      models.CompletionStatus `json:"status"`
	Proof       *string                 `json:"proof,omitempty"`
	SubmittedAt time.Time               `json:"submittedAt"`
	DecidedAt   *time.Time              `json:"decidedAt,omitempty"`
	DecidedBy   *string                 `json:"decidedBy,omitempty"`
}

type WithdrawalRow struct {
	ID            uuid.UUID               `json:"id"`
	UserID        uuid.UUID               `json:"userId"`
	Username      *string                 `json:"username,omitempty"`
	AmountCents   int64                   `json:"amountCents"`
	Method        models.WithdrawalMethod `json:"method"`
	Status        models.WithdrawalStatus `json:"status"`
	WalletAddress *string                 `json:"walletAddress,omitempty"`
	PixKey        *string                 `json:"pixKey,omitempty"`
	RequestedAt   time.Time               `json:"requestedAt"`
	PaidAt        *time.Time              `json:"paidAt,omitempty"`
	PaidBy        *string                 `json:"paidBy,omitempty"`
	TxRef         *string                 `json:"txRef,omitempty"`
}

type AdViewRow struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"userId"`
	Username    *string   `json:"username,omitempty"`
	AdID        uuid.UUID `json:"adId"`
	AdTitle     string    `json:"adTitle"`
	RewardCents int64     `json:"rewardCents"`
	Day         int       `json:"yyyymmdd"`
	Credited    bool      `json:"credited"`
	ViewedAt    time.Time `json:"viewedAt"`
}

type Store interface {
	Stats(ctx context.Context) (*Stats, error)
	ListCompletions(ctx context.Context, status *models.CompletionStatus, limit int) ([]CompletionRow, error)
	ListWithdrawals(ctx context.Context, status *models.WithdrawalStatus, limit int) ([]WithdrawalRow, error)
	ListUsers(ctx context.Context, limit int) ([]models.User, error)
	ListAds(ctx context.Context, limit int) ([]models.Ad, error)
	ListAdViews(ctx context.Context, adID *uuid.UUID, limit int) ([]AdViewRow, error)
}

type Handler struct {
	store Store
	log   *slog.Logger
}

func NewHandler(store Store, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{store: store, log: log}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) fail(w http.ResponseWriter, what string, err error) {
	h.log.Error("admin view failed", "view", what, "error", err)
	apperr.Write(w, err)
}

func badQuery(w http.ResponseWriter, msg string) {
	apperr.WriteStatus(w, http.StatusBadRequest, apperr.KindInvalidInput, msg)
}

// limitParam reads ?limit=, clamped to maxLimit.
func limitParam(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultLimit, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, false
	}
	return min(n, maxLimit), true
}

func completionStatusParam(raw string) (*models.CompletionStatus, bool) {
	var s models.CompletionStatus
	switch raw {
	case "":
		return nil, true
	case "pending":
		s = models.CompletionPending
	case "approved":
		s = models.CompletionApproved
	case "rejected":
		s = models.CompletionRejected
	default:
		return nil, false
	}
	return &s, true
}

func withdrawalStatusParam(raw string) (*models.WithdrawalStatus, bool) {
	var s models.WithdrawalStatus
	switch raw {
	case "":
		return nil, true
	case "pending":
		s = models.WithdrawalPending
	case "paid":
		s = models.WithdrawalPaid
	case "cancelled":
		s = models.WithdrawalCancelled
	default:
		return nil, false
	}
	return &s, true
}

// GET /admin/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	s, err := h.store.Stats(r.Context())
	if err != nil {
		h.fail(w, "stats", err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// GET /admin/pending
func (h *Handler) Pending(w http.ResponseWriter, r *http.Request) {
	pc := models.CompletionPending
	completions, err := h.store.ListCompletions(r.Context(), &pc, pendingLimit)
	if err != nil {
		h.fail(w, "pending completions", err)
		return
	}
	pw := models.WithdrawalPending
	withdrawals, err := h.store.ListWithdrawals(r.Context(), &pw, pendingLimit)
	if err != nil {
		h.fail(w, "pending withdrawals", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"taskCompletions": nonNil(completions),
		"withdrawals":     nonNil(withdrawals),
	})
}

// GET /admin/task-completions?status=&limit=
func (h *Handler) Completions(w http.ResponseWriter, r *http.Request) {
	status, ok := completionStatusParam(r.URL.Query().Get("status"))
	if !ok {
		badQuery(w, "invalid status")
		return
	}
	limit, ok := limitParam(r)
	if !ok {
		badQuery(w, "invalid limit")
		return
	}
	rows, err := h.store.ListCompletions(r.Context(), status, limit)
	if err != nil {
		h.fail(w, "task completions", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"taskCompletions": nonNil(rows)})
}

// GET /admin/withdrawals?status=&limit=
func (h *Handler) Withdrawals(w http.ResponseWriter, r *http.Request) {
	status, ok := withdrawalStatusParam(r.URL.Query().Get("status"))
	if !ok {
		badQuery(w, "invalid status")
		return
	}
	limit, ok := limitParam(r)
	if !ok {
		badQuery(w, "invalid limit")
		return
	}
	rows, err := h.store.ListWithdrawals(r.Context(), status, limit)
	if err != nil {
		h.fail(w, "withdrawals", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"withdrawals": nonNil(rows)})
}

// GET /admin/users?limit=
func (h *Handler) Users(w http.ResponseWriter, r *http.Request) {
	limit, ok := limitParam(r)
	if !ok {
		badQuery(w, "invalid limit")
		return
	}
	rows, err := h.store.ListUsers(r.Context(), limit)
	if err != nil {
		h.fail(w, "users", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": nonNil(rows)})
}

// GET /admin/ads?limit=
func (h *Handler) Ads(w http.ResponseWriter, r *http.Request) {
	limit, ok := limitParam(r)
	if !ok {
		badQuery(w, "invalid limit")
		return
	}
	rows, err := h.store.ListAds(r.Context(), limit)
	if err != nil {
		h.fail(w, "ads", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ads": nonNil(rows)})
}

// GET /admin/ad-views?adId=&limit=
func (h *Handler) AdViews(w http.ResponseWriter, r *http.Request) {
	var adID *uuid.UUID
	if raw := r.URL.Query().Get("adId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			badQuery(w, "invalid adId")
			return
		}
		adID = &id
	}
	limit, ok := limitParam(r)
	if !ok {
		badQuery(w, "invalid limit")
		return
	}
	rows, err := h.store.ListAdViews(r.Context(), adID, limit)
	if err != nil {
		h.fail(w, "ad views", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"adViews": nonNil(rows)})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
