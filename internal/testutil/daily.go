package testutil

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type dayKey struct {
	user uuid.UUID
	day  int
}

// Daily is an in-memory daily activity ledger.
type Daily struct {
	mu    sync.Mutex
	ads   map[dayKey][]uuid.UUID
	tasks map[dayKey][]uuid.UUID
}

func NewDaily() *Daily {
	return &Daily{ads: make(map[dayKey][]uuid.UUID), tasks: make(map[dayKey][]uuid.UUID)}
}

func (d *Daily) MarkAdSeen(_ context.Context, _ pgx.Tx, userID uuid.UUID, day int, adID uuid.UUID) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	k := dayKey{userID, day}
	if slices.Contains(d.ads[k], adID) {
		return false, nil
	}
	d.ads[k] = append(d.ads[k], adID)
	return true, nil
}

func (d *Daily) SeenAds(_ context.Context, userID uuid.UUID, day int) ([]uuid.UUID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.ads[dayKey{userID, day}]), nil
}

func (d *Daily) MarkTaskAttempted(_ context.Context, _ pgx.Tx, userID uuid.UUID, day int, taskID uuid.UUID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	k := dayKey{userID, day}
	if !slices.Contains(d.tasks[k], taskID) {
		d.tasks[k] = append(d.tasks[k], taskID)
	}
	return nil
}

func (d *Daily) AttemptedTasks(_ context.Context, userID uuid.UUID, day int) ([]uuid.UUID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.tasks[dayKey{userID, day}]), nil
}
