package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Credit adds amountCents to the user's available balance and xp to their
// experience points, relative to the stored values. Runs inside the caller's
// transaction.
func (r *Repository) Credit(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amountCents int64, xp int) error {
	result, err := tx.Exec(ctx, `
		UPDATE users
		SET available_cents = available_cents + $1, xp_points = xp_points + $2, updated_at = now()
		WHERE id = $3
	`, amountCents, xp, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ReserveAvailable moves the whole available balance to pending in one
// statement, provided it is at least minCents. The returned reservation also
// carries the payout destinations as stored at that instant.
func (r *Repository) ReserveAvailable(ctx context.Context, tx pgx.Tx, userID uuid.UUID, minCents int64) (*Reservation, error) {
	var res Reservation
	err := tx.QueryRow(ctx, `
		WITH cur AS (
			SELECT id, available_cents, wallet_address, pix_key
			FROM users WHERE id = $1 FOR UPDATE
		)
		UPDATE users u
		SET available_cents = 0, pending_cents = u.pending_cents + cur.available_cents, updated_at = now()
		FROM cur
		WHERE u.id = cur.id AND cur.available_cents > 0 AND cur.available_cents >= $2
		RETURNING cur.available_cents, cur.wallet_address, cur.pix_key
	`, userID, minCents).Scan(&res.AmountCents, &res.WalletAddress, &res.PixKey)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInsufficientFunds
	}
	if err != nil {
		return nil, err
	}
	res.UserID = userID
	return &res, nil
}

// SettlePending removes a paid amount from the pending bucket.
func (r *Repository) SettlePending(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amountCents int64) error {
	result, err := tx.Exec(ctx, `
		UPDATE users SET pending_cents = pending_cents - $1, updated_at = now()
		WHERE id = $2 AND pending_cents >= $1
	`, amountCents, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrPendingMismatch
	}
	return nil
}

// ReleasePending returns a cancelled amount from pending to available.
func (r *Repository) ReleasePending(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amountCents int64) error {
	result, err := tx.Exec(ctx, `
		UPDATE users
		SET pending_cents = pending_cents - $1, available_cents = available_cents + $1, updated_at = now()
		WHERE id = $2 AND pending_cents >= $1
	`, amountCents, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrPendingMismatch
	}
	return nil
}

// Balances reads both buckets outside any transaction.
func (r *Repository) Balances(ctx context.Context, userID uuid.UUID) (available, pending int64, err error) {
	err = r.pool.QueryRow(ctx, `
		SELECT available_cents, pending_cents FROM users WHERE id = $1
	`, userID).Scan(&available, &pending)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, 0, ErrUserNotFound
	}
	return available, pending, err
}
