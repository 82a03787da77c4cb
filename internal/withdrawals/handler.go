package withdrawals

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/adsgram/backend/internal/apperr"
	"github.com/adsgram/backend/internal/middleware"
	"github.com/adsgram/backend/internal/models"
)

// WithdrawalService is the subset of Service the handler calls.
type WithdrawalService interface {
	Request(ctx context.Context, userID uuid.UUID, method any) (*models.Withdrawal, error)
	MarkPaid(ctx context.Context, withdrawalID uuid.UUID, paidBy string, txRef *string) error
	Cancel(ctx context.Context, withdrawalID uuid.UUID, by string) error
	ListMine(ctx context.Context, userID uuid.UUID) ([]models.Withdrawal, error)
}

// Handler serves /withdrawals and /admin/withdrawals endpoints.
type Handler struct {
	Service WithdrawalService
	Logger  *slog.Logger
}

func NewHandler(svc WithdrawalService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{Service: svc, Logger: logger}
}

// List handles GET /withdrawals.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	u := middleware.UserFromCtx(r.Context())
	if u == nil {
		apperr.WriteStatus(w, http.StatusUnauthorized, apperr.KindUnauthenticated, "unauthorized")
		return
	}
	list, err := h.Service.ListMine(r.Context(), u.ID)
	if err != nil {
		h.Logger.Error("list withdrawals", "user_id", u.ID, "error", err)
		apperr.Write(w, err)
		return
	}
	if list == nil {
		list = []models.Withdrawal{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"withdrawals": list})
}

type requestBody struct {
	Method any `json:"method"`
}

// Request handles POST /withdrawals/request.
func (h *Handler) Request(w http.ResponseWriter, r *http.Request) {
	u := middleware.UserFromCtx(r.Context())
	if u == nil {
		apperr.WriteStatus(w, http.StatusUnauthorized, apperr.KindUnauthenticated, "unauthorized")
		return
	}
	var body requestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		apperr.WriteStatus(w, http.StatusBadRequest, apperr.KindInvalidInput, "invalid JSON")
		return
	}
	wd, err := h.Service.Request(r.Context(), u.ID, body.Method)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInternal {
			h.Logger.Error("request withdrawal", "user_id", u.ID, "error", err)
		}
		apperr.Write(w, err)
		return
	}
	h.Logger.Info("withdrawal requested", "user_id", u.ID, "withdrawal_id", wd.ID, "amount_cents", wd.AmountCents, "method", wd.Method.String())
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "withdrawal": wd})
}

type adminBody struct {
	WithdrawalID string  `json:"withdrawalId"`
	TxRef        *string `json:"txRef"`
}

func decodeAdminBody(w http.ResponseWriter, r *http.Request) (uuid.UUID, *adminBody, bool) {
	var body adminBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		apperr.WriteStatus(w, http.StatusBadRequest, apperr.KindInvalidInput, "invalid JSON")
		return uuid.Nil, nil, false
	}
	id, err := uuid.Parse(body.WithdrawalID)
	if err != nil {
		apperr.WriteStatus(w, http.StatusBadRequest, apperr.KindInvalidInput, "invalid withdrawalId")
		return uuid.Nil, nil, false
	}
	if body.TxRef != nil {
		ref := strings.TrimSpace(*body.TxRef)
		body.TxRef = nil
		if ref != "" {
			body.TxRef = &ref
		}
	}
	return id, &body, true
}

// MarkPaid handles POST /admin/withdrawals/markPaid.
func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	id, body, ok := decodeAdminBody(w, r)
	if !ok {
		return
	}
	if err := h.Service.MarkPaid(r.Context(), id, middleware.AdminFromCtx(r.Context()), body.TxRef); err != nil {
		if apperr.KindOf(err) == apperr.KindInternal {
			h.Logger.Error("mark withdrawal paid", "withdrawal_id", id, "error", err)
		}
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Cancel handles POST /admin/withdrawals/cancel.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, _, ok := decodeAdminBody(w, r)
	if !ok {
		return
	}
	if err := h.Service.Cancel(r.Context(), id, middleware.AdminFromCtx(r.Context())); err != nil {
		if apperr.KindOf(err) == apperr.KindInternal {
			h.Logger.Error("cancel withdrawal", "withdrawal_id", id, "error", err)
		}
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
