package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type AdStatus int16

const (
	AdStatusInactive AdStatus = 0
	AdStatusActive   AdStatus = 1
	AdStatusFinished AdStatus = 2
	AdStatusPaused   AdStatus = 3
)

func (s AdStatus) String() string {
	switch s {
	case AdStatusInactive:
		return "inactive"
	case AdStatusActive:
		return "active"
	case AdStatusFinished:
		return "finished"
	case AdStatusPaused:
		return "paused"
	default:
		return fmt.Sprintf("AdStatus(%d)", int16(s))
	}
}

func (s AdStatus) Valid() bool {
	switch s {
	case AdStatusInactive, AdStatusActive, AdStatusFinished, AdStatusPaused:
		return true
	}
	return false
}

type Ad struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	MediaURL        string    `json:"media_url"`
	TargetURL       *string   `json:"target_url,omitempty"`
	DurationSeconds int       `json:"duration_seconds"`
	RewardCents     int64     `json:"reward_cents"`
	BudgetCents     int64     `json:"budget_cents"`
	ViewsCount      int64     `json:"views_count"`
	Status          AdStatus  `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

// HasBudgetForView reports whether one more credited view stays within budget.
func (a *Ad) HasBudgetForView() bool {
	return (a.ViewsCount+1)*a.RewardCents <= a.BudgetCents
}

// AdView is the append-only audit entry written for every credited view.
type AdView struct {
	ID       uuid.UUID `json:"id"`
	UserID   uuid.UUID `json:"user_id"`
	AdID     uuid.UUID `json:"ad_id"`
	Day      int       `json:"yyyymmdd"`
	Credited bool      `json:"credited"`
	ViewedAt time.Time `json:"viewed_at"`
}
