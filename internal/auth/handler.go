package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/adsgram/backend/internal/apperr"
	"github.com/adsgram/backend/internal/middleware"
	"github.com/adsgram/backend/internal/models"
)

// SessionService is the subset of Service used by the handler.
type SessionService interface {
	DevLogin(ctx context.Context, telegramID string, username *string) (*models.User, string, error)
	VerifyCode(ctx context.Context, code string) (*models.User, string, error)
	AdminLogin(ctx context.Context, clientIP, pin string) (string, error)
	SessionTTL() time.Duration
	AdminTTL() time.Duration
}

type Handler struct {
	svc           SessionService
	secureCookies bool
	log           *slog.Logger
}

func NewHandler(svc SessionService, secureCookies bool, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, secureCookies: secureCookies, log: log}
}

type MeResponse struct {
	ID             string  `json:"id"`
	TelegramID     string  `json:"telegramId"`
	Username       *string `json:"username,omitempty"`
	Name           *string `json:"name,omitempty"`
	AvailableCents int64   `json:"availableCents"`
	PendingCents   int64   `json:"pendingCents"`
	XPPoints       int     `json:"xpPoints"`
	Level          int     `json:"level"`
}

func meResponse(u *models.User) MeResponse {
	return MeResponse{
		ID:             u.ID.String(),
		TelegramID:     u.TelegramID,
		Username:       u.TelegramUsername,
		Name:           u.Name,
		AvailableCents: u.AvailableCents,
		PendingCents:   u.PendingCents,
		XPPoints:       u.XPPoints,
		Level:          u.Level,
	}
}

func (h *Handler) setCookie(w http.ResponseWriter, name, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

type devLoginRequest struct {
	TelegramID any     `json:"telegramId"`
	Username   *string `json:"username"`
}

// telegramIDString accepts the id as a JSON string or number.
func telegramIDString(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return ""
}

// DevLogin handles POST /auth/dev-login.
func (h *Handler) DevLogin(w http.ResponseWriter, r *http.Request) {
	var req devLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.WriteStatus(w, http.StatusBadRequest, apperr.KindInvalidInput, "invalid JSON")
		return
	}
	u, token, err := h.svc.DevLogin(r.Context(), telegramIDString(req.TelegramID), req.Username)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInternal {
			h.log.Error("dev login failed", "error", err)
		}
		apperr.Write(w, err)
		return
	}
	h.setCookie(w, middleware.SessionCookie, token, h.svc.SessionTTL())
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "userId": u.ID})
}

type verifyCodeRequest struct {
	Code string `json:"code"`
}

// VerifyCode handles POST /auth/verify-code.
func (h *Handler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req verifyCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.WriteStatus(w, http.StatusBadRequest, apperr.KindInvalidInput, "invalid JSON")
		return
	}
	u, token, err := h.svc.VerifyCode(r.Context(), strings.TrimSpace(req.Code))
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInternal {
			h.log.Error("verify code failed", "error", err)
		}
		apperr.Write(w, err)
		return
	}
	h.setCookie(w, middleware.SessionCookie, token, h.svc.SessionTTL())
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "user": meResponse(u)})
}

// Logout handles POST /auth/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.setCookie(w, middleware.SessionCookie, "", -time.Second)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Me handles GET /me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u := middleware.UserFromCtx(r.Context())
	if u == nil {
		apperr.WriteStatus(w, http.StatusUnauthorized, apperr.KindUnauthenticated, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, meResponse(u))
}

type adminLoginRequest struct {
	PIN string `json:"pin"`
}

// AdminLogin handles POST /admin/login.
func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.WriteStatus(w, http.StatusBadRequest, apperr.KindInvalidInput, "invalid JSON")
		return
	}
	token, err := h.svc.AdminLogin(r.Context(), middleware.ClientIP(r), req.PIN)
	if err != nil {
		switch {
		case errors.Is(err, ErrLockedOut):
			w.Header().Set("Retry-After", strconv.Itoa(int(AdminLockout.Seconds())))
			apperr.WriteStatus(w, http.StatusTooManyRequests, apperr.KindUnauthenticated, err.Error())
		case errors.Is(err, ErrInvalidPIN):
			apperr.Write(w, err)
		default:
			h.log.Error("admin login failed", "error", err)
			apperr.Write(w, err)
		}
		return
	}
	h.setCookie(w, middleware.AdminCookie, token, h.svc.AdminTTL())
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "token": token})
}

type ProfileService interface {
	UpdateProfile(ctx context.Context, userID uuid.UUID, upd ProfileUpdate) (*models.User, error)
}

// ProfileHandler serves the caller's own profile.
type ProfileHandler struct {
	svc ProfileService
	log *slog.Logger
}

func NewProfileHandler(svc ProfileService, log *slog.Logger) *ProfileHandler {
	if log == nil {
		log = slog.Default()
	}
	return &ProfileHandler{svc: svc, log: log}
}

type ProfileResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	WalletAddress string `json:"walletAddress"`
	PixKey        string `json:"pixKey"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func profileResponse(u *models.User) ProfileResponse {
	return ProfileResponse{
		ID:            u.ID.String(),
		Name:          deref(u.Name),
		WalletAddress: deref(u.WalletAddress),
		PixKey:        deref(u.PixKey),
	}
}

// Get handles GET /me/profile.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	u := middleware.UserFromCtx(r.Context())
	if u == nil {
		apperr.WriteStatus(w, http.StatusUnauthorized, apperr.KindUnauthenticated, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": profileResponse(u)})
}

// Update handles POST /me/profile.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	u := middleware.UserFromCtx(r.Context())
	if u == nil {
		apperr.WriteStatus(w, http.StatusUnauthorized, apperr.KindUnauthenticated, "unauthorized")
		return
	}
	var upd ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		apperr.WriteStatus(w, http.StatusBadRequest, apperr.KindInvalidInput, "invalid JSON")
		return
	}
	updated, err := h.svc.UpdateProfile(r.Context(), u.ID, upd)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInternal {
			h.log.Error("update profile", "user_id", u.ID, "error", err)
		}
		apperr.Write(w, err)
		return
	}
	h.log.Info("profile updated", "user_id", u.ID)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "user": profileResponse(updated)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
