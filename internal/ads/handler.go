package ads

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/adsgram/backend/internal/apperr"
	"github.com/adsgram/backend/internal/middleware"
)

// AdService is the subset of Service the handler calls.
type AdService interface {
	ListEligible(ctx context.Context, userID uuid.UUID) ([]Summary, error)
	CreditView(ctx context.Context, userID, adID uuid.UUID) error
}

// Handler serves /ads endpoints.
type Handler struct {
	Service AdService
	Logger  *slog.Logger
}

func NewHandler(svc AdService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{Service: svc, Logger: logger}
}

// Eligible handles GET /ads/eligible. Anonymous callers get an empty list.
func (h *Handler) Eligible(w http.ResponseWriter, r *http.Request) {
	u := middleware.UserFromCtx(r.Context())
	if u == nil {
		writeJSON(w, http.StatusOK, map[string]any{"ads": []Summary{}})
		return
	}
	list, err := h.Service.ListEligible(r.Context(), u.ID)
	if err != nil {
		h.Logger.Error("list eligible ads", "user_id", u.ID, "error", err)
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ads": list})
}

type creditRequest struct {
	AdID string `json:"adId"`
}

// Credit handles POST /ads/credit.
func (h *Handler) Credit(w http.ResponseWriter, r *http.Request) {
	u := middleware.UserFromCtx(r.Context())
	if u == nil {
		apperr.WriteStatus(w, http.StatusUnauthorized, apperr.KindUnauthenticated, "unauthorized")
		return
	}
	var req creditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.WriteStatus(w, http.StatusBadRequest, apperr.KindInvalidInput, "invalid JSON")
		return
	}
	adID, err := uuid.Parse(req.AdID)
	if err != nil {
		apperr.WriteStatus(w, http.StatusBadRequest, apperr.KindInvalidInput, "invalid adId")
		return
	}
	if err := h.Service.CreditView(r.Context(), u.ID, adID); err != nil {
		if apperr.KindOf(err) == apperr.KindInternal {
			h.Logger.Error("credit ad view", "user_id", u.ID, "ad_id", adID, "error", err)
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
