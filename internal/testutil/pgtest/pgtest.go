// Package pgtest connects repository tests to a real Postgres named by
// TEST_DATABASE_URL. Tests skip when it is unset. Rows are keyed by fresh
// UUIDs so packages can share one database without truncating it.
package pgtest

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adsgram/backend/internal/models"
	"github.com/adsgram/backend/internal/store"
)

const envURL = "TEST_DATABASE_URL"

var (
	migrateOnce sync.Once
	migrateErr  error
)

// Pool migrates the test database once per process and returns a pool that
// closes when t ends.
func Pool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv(envURL)
	if url == "" {
		t.Skip(envURL + " not set; skipping Postgres test")
	}
	migrateOnce.Do(func() { migrateErr = store.Migrate(url) })
	if migrateErr != nil {
		t.Fatalf("migrate: %v", migrateErr)
	}
	pool, err := pgxpool.New(context.Background(), url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

// InsertUser creates a user holding availableCents.
func InsertUser(t *testing.T, pool *pgxpool.Pool, availableCents int64) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := pool.Exec(context.Background(), `
		INSERT INTO users (id, telegram_id, available_cents) VALUES ($1, $2, $3)
	`, id, "tg-"+id.String(), availableCents)
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	return id
}

// InsertAd creates an active ad.
func InsertAd(t *testing.T, pool *pgxpool.Pool, rewardCents, budgetCents int64) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := pool.Exec(context.Background(), `
		INSERT INTO ads (id, title, reward_cents, budget_cents, status) VALUES ($1, $2, $3, $4, $5)
	`, id, "ad "+id.String()[:8], rewardCents, budgetCents, models.AdStatusActive)
	if err != nil {
		t.Fatalf("insert ad: %v", err)
	}
	return id
}

// Balances reads a user's buckets directly.
func Balances(t *testing.T, pool *pgxpool.Pool, userID uuid.UUID) (available, pending int64) {
	t.Helper()
	err := pool.QueryRow(context.Background(), `
		SELECT available_cents, pending_cents FROM users WHERE id = $1
	`, userID).Scan(&available, &pending)
	if err != nil {
		t.Fatalf("read balances: %v", err)
	}
	return available, pending
}

// InTx runs fn in its own transaction and commits when it returns nil.
func InTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
