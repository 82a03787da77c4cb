package models

import (
	"time"

	"github.com/google/uuid"
)

// XPPerApproval is the experience bonus granted with every approved task.
const XPPerApproval = 10

type User struct {
	ID               uuid.UUID `json:"id"`
	TelegramID       string    `json:"telegram_id"`
	TelegramUsername *string   `json:"telegram_username,omitempty"`
	Name             *string   `json:"name,omitempty"`
	WalletAddress    *string   `json:"wallet_address,omitempty"`
	PixKey           *string   `json:"pix_key,omitempty"`
	AvailableCents   int64     `json:"available_cents"`
	PendingCents     int64     `json:"pending_cents"`
	XPPoints         int       `json:"xp_points"`
	Level            int       `json:"level"`
	IsAdmin          bool      `json:"is_admin"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
