package daily

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

// MarkAdSeen adds adID to the user's ad set for day, creating the record on
// first touch. It reports false when adID was already a member. The upsert is
// one statement: concurrent callers for the same key serialize on the row and
// exactly one of them inserts.
func (r *Repository) MarkAdSeen(ctx context.Context, tx pgx.Tx, userID uuid.UUID, day int, adID uuid.UUID) (bool, error) {
	var id uuid.UUID
	err := tx.QueryRow(ctx, `
		INSERT INTO user_daily (user_id, yyyymmdd, ads_seen_ids)
		VALUES ($1, $2, ARRAY[$3::uuid])
		ON CONFLICT (user_id, yyyymmdd) DO UPDATE
		SET ads_seen_ids = array_append(user_daily.ads_seen_ids, $3::uuid), updated_at = now()
		WHERE NOT ($3::uuid = ANY(user_daily.ads_seen_ids))
		RETURNING id
	`, userID, day, adID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// MarkTaskAttempted adds taskID to the user's task set for day. Repeated
// attempts are a no-op.
func (r *Repository) MarkTaskAttempted(ctx context.Context, tx pgx.Tx, userID uuid.UUID, day int, taskID uuid.UUID) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO user_daily (user_id, yyyymmdd, tasks_done_ids)
		VALUES ($1, $2, ARRAY[$3::uuid])
		ON CONFLICT (user_id, yyyymmdd) DO UPDATE
		SET tasks_done_ids = array_append(user_daily.tasks_done_ids, $3::uuid), updated_at = now()
		WHERE NOT ($3::uuid = ANY(user_daily.tasks_done_ids))
	`, userID, day, taskID)
	return err
}

// SeenAds returns the ads already credited to the user on day.
func (r *Repository) SeenAds(ctx context.Context, userID uuid.UUID, day int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.pool.QueryRow(ctx, `
		SELECT ads_seen_ids FROM user_daily WHERE user_id = $1 AND yyyymmdd = $2
	`, userID, day).Scan(&ids)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return ids, err
}

// AttemptedTasks returns the tasks the user submitted on day.
func (r *Repository) AttemptedTasks(ctx context.Context, userID uuid.UUID, day int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.pool.QueryRow(ctx, `
		SELECT tasks_done_ids FROM user_daily WHERE user_id = $1 AND yyyymmdd = $2
	`, userID, day).Scan(&ids)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return ids, err
}

// PruneBefore deletes records for days strictly before day.
func (r *Repository) PruneBefore(ctx context.Context, day int) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM user_daily WHERE yyyymmdd < $1`, day)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
