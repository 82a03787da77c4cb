package ads

import (
	"context"
	"errors"

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

const adColumns = `id, title, media_url, target_url, duration_seconds, reward_cents, budget_cents, views_count, status, created_at`

func scanAd(row pgx.Row) (*models.Ad, error) {
	var a models.Ad
	err := row.Scan(&a.ID, &a.Title, &a.MediaURL, &a.TargetURL, &a.DurationSeconds,
		&a.RewardCents, &a.BudgetCents, &a.ViewsCount, &a.Status, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Ad, error) {
	a, err := scanAd(r.pool.QueryRow(ctx, `SELECT `+adColumns+` FROM ads WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAdNotFound
	}
	return a, err
}

// ListEligible returns active ads with budget left for one more view,
// skipping the excluded ids, newest first.
func (r *Repository) ListEligible(ctx context.Context, exclude []uuid.UUID, limit int) ([]models.Ad, error) {
	// A NULL array would make the NOT ANY predicate NULL for every row.
	if exclude == nil {
		exclude = []uuid.UUID{}
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+adColumns+`
		FROM ads
		WHERE status = $1
		  AND (views_count + 1) * reward_cents <= budget_cents
		  AND NOT (id = ANY($2::uuid[]))
		ORDER BY created_at DESC
		LIMIT $3
	`, models.AdStatusActive, exclude, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Ad
	for rows.Next() {
		a, err := scanAd(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// IncrementViews counts one view only while the ad is active and the new
// count stays within budget. Returns ErrNoBudget when the guard fails.
func (r *Repository) IncrementViews(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	result, err := tx.Exec(ctx, `
		UPDATE ads SET views_count = views_count + 1
		WHERE id = $1 AND status = $2 AND (views_count + 1) * reward_cents <= budget_cents
	`, id, models.AdStatusActive)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNoBudget
	}
	return nil
}

func (r *Repository) InsertView(ctx context.Context, tx pgx.Tx, v *models.AdView) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO ad_views (id, user_id, ad_id, yyyymmdd, credited, viewed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, v.ID, v.UserID, v.AdID, v.Day, v.Credited, v.ViewedAt)
	return err
}
