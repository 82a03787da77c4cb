package dashboard

import (
	"context"

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

func (r *Repository) Stats(ctx context.Context) (*Stats, error) {
	var s Stats
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM users),
			(SELECT count(*) FROM ads),
			(SELECT count(*) FROM tasks),
			(SELECT count(*) FROM ad_views),
			(SELECT count(*) FROM task_completions WHERE status = $1),
			(SELECT count(*) FROM task_completions),
			(SELECT count(*) FROM withdrawals WHERE status = $2),
			(SELECT count(*) FROM withdrawals)
	`, models.CompletionPending, models.WithdrawalPending).Scan(
		&s.Users, &s.Ads, &s.Tasks, &s.AdViews,
		&s.PendingCompletions, &s.Completions, &s.PendingWithdrawals, &s.Withdrawals)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListCompletions returns completions joined with task and user details.
// A nil status lists every state newest first; pending lists oldest first
// so the review queue drains in submission order.
func (r *Repository) ListCompletions(ctx context.Context, status *models.CompletionStatus, limit int) ([]CompletionRow, error) {
	order := "DESC"
	if status != nil && *status == models.CompletionPending {
		order = "ASC"
	}
	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.user_id, u.telegram_username, c.task_id, t.title, t.reward_cents,
		       c.status, c.proof, c.submitted_at, c.decided_at, c.decided_by
		FROM task_completions c
		JOIN tasks t ON t.id = c.task_id
		JOIN users u ON u.id = c.user_id
		WHERE $1::smallint IS NULL OR c.status = $1
		ORDER BY c.submitted_at `+order+`
		LIMIT $2
	`, status, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (CompletionRow, error) {
		var c CompletionRow
		err := row.Scan(&c.ID, &c.UserID, &c.Username, &c.TaskID, &c.TaskTitle, &c.RewardCents,
			&c.Status, &c.Proof, &c.SubmittedAt, &c.DecidedAt, &c.DecidedBy)
		return c, err
	})
}

// ListWithdrawals orders like ListCompletions.
func (r *Repository) ListWithdrawals(ctx context.Context, status *models.WithdrawalStatus, limit int) ([]WithdrawalRow, error) {
	order := "DESC"
	if status != nil && *status == models.WithdrawalPending {
		order = "ASC"
	}
	rows, err := r.pool.Query(ctx, `
		SELECT w.id, w.user_id, u.telegram_username, w.amount_cents, w.method, w.status,
		       w.wallet_address_snapshot, w.pix_key_snapshot, w.requested_at, w.paid_at, w.paid_by, w.tx_ref
		FROM withdrawals w
		JOIN users u ON u.id = w.user_id
		WHERE $1::smallint IS NULL OR w.status = $1
		ORDER BY w.requested_at `+order+`
		LIMIT $2
	`, status, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (WithdrawalRow, error) {
		var w WithdrawalRow
		err := row.Scan(&w.ID, &w.UserID, &w.Username, &w.AmountCents, &w.Method, &w.Status,
			&w.WalletAddress, &w.PixKey, &w.RequestedAt, &w.PaidAt, &w.PaidBy, &w.TxRef)
		return w, err
	})
}

func (r *Repository) ListUsers(ctx context.Context, limit int) ([]models.User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, telegram_id, telegram_username, name, wallet_address, pix_key,
		       available_cents, pending_cents, xp_points, level, is_admin, created_at, updated_at
		FROM users
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.User, error) {
		var u models.User
		err := row.Scan(&u.ID, &u.TelegramID, &u.TelegramUsername, &u.Name, &u.WalletAddress, &u.PixKey,
			&u.AvailableCents, &u.PendingCents, &u.XPPoints, &u.Level, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt)
		return u, err
	})
}

// ListAdViews returns recent views, optionally for one ad.
// ListAds returns every ad regardless of status, newest first.
func (r *Repository) ListAds(ctx context.Context, limit int) ([]models.Ad, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, title, media_url, target_url, duration_seconds, reward_cents,
		       budget_cents, views_count, status, created_at
		FROM ads
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Ad, error) {
		var a models.Ad
		err := row.Scan(&a.ID, &a.Title, &a.MediaURL, &a.TargetURL, &a.DurationSeconds, &a.RewardCents,
			&a.BudgetCents, &a.ViewsCount, &a.Status, &a.CreatedAt)
		return a, err
	})
}

func (r *Repository) ListAdViews(ctx context.Context, adID *uuid.UUID, limit int) ([]AdViewRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT v.id, v.user_id, u.telegram_username, v.ad_id, a.title, a.reward_cents, v.yyyymmdd, v.credited, v.viewed_at
		FROM ad_views v
		JOIN ads a ON a.id = v.ad_id
		JOIN users u ON u.id = v.user_id
		WHERE $1::uuid IS NULL OR v.ad_id = $1
		ORDER BY v.viewed_at DESC
		LIMIT $2
	`, adID, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (AdViewRow, error) {
		var v AdViewRow
		err := row.Scan(&v.ID, &v.UserID, &v.Username, &v.AdID, &v.AdTitle, &v.RewardCents, &v.Day, &v.Credited, &v.ViewedAt)
		return v, err
	})
}
