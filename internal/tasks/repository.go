package tasks

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

const taskColumns = `id, title, description, type, link, reward_cents, max_completions, completions_count, status, created_at`

func scanTask(row pgx.Row) (*models.Task, error) {
	var t models.Task
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Type, &t.Link, &t.RewardCents,
		&t.MaxCompletions, &t.CompletionsCount, &t.Status, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	t, err := scanTask(r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTaskNotFound
	}
	return t, err
}

// ListActive returns active tasks newest first.
func (r *Repository) ListActive(ctx context.Context, limit int) ([]models.Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, models.TaskStatusActive, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (r *Repository) InsertCompletion(ctx context.Context, tx pgx.Tx, c *models.TaskCompletion) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO task_completions (id, user_id, task_id, status, proof, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, c.ID, c.UserID, c.TaskID, c.Status, c.Proof, c.SubmittedAt)
	return err
}

// Decide moves a pending completion to status and stamps the decision. It
// returns ErrInvalidState when no pending completion matched.
func (r *Repository) Decide(ctx context.Context, tx pgx.Tx, completionID uuid.UUID, status models.CompletionStatus, by string, at time.Time) (*Decision, error) {
	var d Decision
	err := tx.QueryRow(ctx, `
		UPDATE task_completions c
		SET status = $2, decided_at = $3, decided_by = $4
		FROM tasks t
		WHERE c.id = $1 AND c.status = $5 AND t.id = c.task_id
		RETURNING c.id, c.user_id, c.task_id, t.reward_cents
	`, completionID, status, at, by, models.CompletionPending).Scan(&d.CompletionID, &d.UserID, &d.TaskID, &d.RewardCents)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInvalidState
	}
	if err != nil {
		return nil, err
	}
	d.Status = status
	return &d, nil
}

func (r *Repository) IncrementCompletions(ctx context.Context, tx pgx.Tx, taskID uuid.UUID) error {
	_, err := tx.Exec(ctx, `UPDATE tasks SET completions_count = completions_count + 1 WHERE id = $1`, taskID)
	return err
}
