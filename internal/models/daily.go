package models

import (
	"time"

	"github.com/google/uuid"
)

// DailyActivity is the per-user per-day record gating duplicate ad credits.
type DailyActivity struct {
	ID           uuid.UUID   `json:"id"`
	UserID       uuid.UUID   `json:"user_id"`
	Day          int         `json:"yyyymmdd"`
	AdsSeenIDs   []uuid.UUID `json:"ads_seen_ids"`
	TasksDoneIDs []uuid.UUID `json:"tasks_done_ids"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// LoginCode is a one-time 6 digit code exchanged for a session.
type LoginCode struct {
	Code      string     `json:"-"`
	UserID    uuid.UUID  `json:"user_id"`
	ExpiresAt time.Time  `json:"expires_at"`
	Used      bool       `json:"used"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
}
