package tasks

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/adsgram/backend/internal/apperr"
	"github.com/adsgram/backend/internal/middleware"
	"github.com/adsgram/backend/internal/models"
)

// TaskService is the subset of Service the handler calls.
type TaskService interface {
	ListActive(ctx context.Context, userID uuid.UUID) ([]Listing, error)
	Submit(ctx context.Context, userID, taskID uuid.UUID, proof string) (*models.TaskCompletion, error)
	Decide(ctx context.Context, completionID uuid.UUID, approve bool, decidedBy string) error
}

// Handler serves /tasks and /admin/tasks endpoints.
type Handler struct {
	Service TaskService
	Logger  *slog.Logger
}

func NewHandler(svc TaskService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{Service: svc, Logger: logger}
}

// List handles GET /tasks. Anonymous callers see the list without
// per-user flags.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := uuid.Nil
	if u := middleware.UserFromCtx(r.Context()); u != nil {
		userID = u.ID
	}
	list, err := h.Service.ListActive(r.Context(), userID)
	if err != nil {
		h.Logger.Error("list tasks", "error", err)
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": list})
}

type submitRequest struct {
	TaskID string `json:"taskId"`
	Proof  string `json:"proof"`
}

// Submit handles POST /tasks/submit.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	u := middleware.UserFromCtx(r.Context())
	if u == nil {
		apperr.WriteStatus(w, http.StatusUnauthorized, apperr.KindUnauthenticated, "unauthorized")
		return
	}
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.WriteStatus(w, http.StatusBadRequest, apperr.KindInvalidInput, "invalid JSON")
		return
	}
	taskID, err := uuid.Parse(req.TaskID)
	if err != nil {
		apperr.WriteStatus(w, http.StatusBadRequest, apperr.KindInvalidInput, "invalid taskId")
		return
	}
	c, err := h.Service.Submit(r.Context(), u.ID, taskID, req.Proof)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInternal {
			h.Logger.Error("submit task", "user_id", u.ID, "task_id", taskID, "error", err)
		}
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "completionId": c.ID})
}

type decideRequest struct {
	CompletionID string `json:"completionId"`
	Approve      *bool  `json:"approve"`
}

// Decide handles POST /admin/tasks/decide.
func (h *Handler) Decide(w http.ResponseWriter, r *http.Request) {
	var req decideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.WriteStatus(w, http.StatusBadRequest, apperr.KindInvalidInput, "invalid JSON")
		return
	}
	id, err := uuid.Parse(req.CompletionID)
	if err != nil || req.Approve == nil {
		apperr.WriteStatus(w, http.StatusBadRequest, apperr.KindInvalidInput, "completionId and approve are required")
		return
	}
	if err := h.Service.Decide(r.Context(), id, *req.Approve, middleware.AdminFromCtx(r.Context())); err != nil {
		if apperr.KindOf(err) == apperr.KindInternal {
			h.Logger.Error("decide completion", "completion_id", id, "error", err)
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
