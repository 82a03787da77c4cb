package withdrawals

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adsgram/backend/internal/models"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const withdrawalColumns = `id, user_id, amount_cents, method, wallet_address_snapshot, pix_key_snapshot,
	status, requested_at, paid_at, paid_by, tx_ref, cancelled_at, cancelled_by`

func scanWithdrawal(row pgx.Row) (*models.Withdrawal, error) {
	var w models.Withdrawal
	err := row.Scan(&w.ID, &w.UserID, &w.AmountCents, &w.Method, &w.WalletAddressSnapshot, &w.PixKeySnapshot,
		&w.Status, &w.RequestedAt, &w.PaidAt, &w.PaidBy, &w.TxRef, &w.CancelledAt, &w.CancelledBy)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *Repository) Insert(ctx context.Context, tx pgx.Tx, w *models.Withdrawal) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO withdrawals (id, user_id, amount_cents, method, wallet_address_snapshot, pix_key_snapshot, status, requested_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, w.ID, w.UserID, w.AmountCents, w.Method, w.WalletAddressSnapshot, w.PixKeySnapshot, w.Status, w.RequestedAt)
	return err
}

// MarkPaid transitions a pending withdrawal to paid. ErrInvalidState when no
// pending withdrawal matched.
func (r *Repository) MarkPaid(ctx context.Context, tx pgx.Tx, id uuid.UUID, by string, txRef *string, at time.Time) (*models.Withdrawal, error) {
	w, err := scanWithdrawal(tx.QueryRow(ctx, `
		UPDATE withdrawals SET status = $2, paid_at = $3, paid_by = $4, tx_ref = $5
		WHERE id = $1 AND status = $6
		RETURNING `+withdrawalColumns,
		id, models.WithdrawalPaid, at, by, txRef, models.WithdrawalPending))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInvalidState
	}
	return w, err
}

// Cancel transitions a pending withdrawal to cancelled.
func (r *Repository) Cancel(ctx context.Context, tx pgx.Tx, id uuid.UUID, by string, at time.Time) (*models.Withdrawal, error) {
	w, err := scanWithdrawal(tx.QueryRow(ctx, `
		UPDATE withdrawals SET status = $2, cancelled_at = $3, cancelled_by = $4
		WHERE id = $1 AND status = $5
		RETURNING `+withdrawalColumns,
		id, models.WithdrawalCancelled, at, by, models.WithdrawalPending))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInvalidState
	}
	return w, err
}

// ListByUser returns the user's withdrawals newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Withdrawal, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+withdrawalColumns+` FROM withdrawals
		WHERE user_id = $1
		ORDER BY requested_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Withdrawal
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *w)
	}
	return out, rows.Err()
}
