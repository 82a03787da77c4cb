// Package tasks runs the submission and review workflow for user tasks.
// A completion is decided exactly once; approval pays the task reward.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/adsgram/backend/internal/apperr"
	"github.com/adsgram/backend/internal/metrics"
	"github.com/adsgram/backend/internal/models"
)

var (
	ErrTaskNotFound = apperr.New(apperr.KindNotFound, "task not found")
	ErrInvalidState = apperr.NewWithStatus(apperr.KindConflict, http.StatusBadRequest, "completion not found or already decided")
)

const (
	ListLimit = 20
	// MaxProofBytes bounds the stored proof text.
	MaxProofBytes = 2000
)

// Decision is the result of a successful transition out of pending.
type Decision struct {
	CompletionID uuid.UUID
	UserID       uuid.UUID
	TaskID       uuid.UUID
	RewardCents  int64
	Status       models.CompletionStatus
}

// Listing is an active task as shown to a user.
type Listing struct {
	ID             uuid.UUID `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Type           string    `json:"type"`
	Link           *string   `json:"link,omitempty"`
	RewardAmount   int64     `json:"rewardAmount"`
	AttemptedToday bool      `json:"attemptedToday"`
}

type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	ListActive(ctx context.Context, limit int) ([]models.Task, error)
	InsertCompletion(ctx context.Context, tx pgx.Tx, c *models.TaskCompletion) error
	Decide(ctx context.Context, tx pgx.Tx, completionID uuid.UUID, status models.CompletionStatus, by string, at time.Time) (*Decision, error)
	IncrementCompletions(ctx context.Context, tx pgx.Tx, taskID uuid.UUID) error
}

type DailyLedger interface {
	MarkTaskAttempted(ctx context.Context, tx pgx.Tx, userID uuid.UUID, day int, taskID uuid.UUID) error
	AttemptedTasks(ctx context.Context, userID uuid.UUID, day int) ([]uuid.UUID, error)
}

type Crediter interface {
	Credit(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amountCents int64, xp int) error
}

// TxBeginner abstracts transaction creation so tests don't need a pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Calendar interface {
	Today() int
}

type Service struct {
	pool   TxBeginner
	tasks  Store
	daily  DailyLedger
	ledger Crediter
	cal    Calendar
	now    func() time.Time
}

func NewService(pool TxBeginner, tasks Store, daily DailyLedger, ledger Crediter, cal Calendar) *Service {
	return &Service{pool: pool, tasks: tasks, daily: daily, ledger: ledger, cal: cal, now: time.Now}
}

// ListActive returns active tasks, flagging those userID submitted today.
func (s *Service) ListActive(ctx context.Context, userID uuid.UUID) ([]Listing, error) {
	rows, err := s.tasks.ListActive(ctx, ListLimit)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	attempted := map[uuid.UUID]bool{}
	if userID != uuid.Nil {
		ids, err := s.daily.AttemptedTasks(ctx, userID, s.cal.Today())
		if err != nil {
			return nil, fmt.Errorf("load attempted tasks: %w", err)
		}
		for _, id := range ids {
			attempted[id] = true
		}
	}
	out := make([]Listing, 0, len(rows))
	for _, t := range rows {
		out = append(out, Listing{
			ID:             t.ID,
			Title:          t.Title,
			Description:    t.Description,
			Type:           t.Type.Label(),
			Link:           t.Link,
			RewardAmount:   t.RewardCents,
			AttemptedToday: attempted[t.ID],
		})
	}
	return out, nil
}

// Submit records a pending completion of an active task. Repeated
// submissions are accepted; each waits for its own review.
func (s *Service) Submit(ctx context.Context, userID, taskID uuid.UUID, proof string) (*models.TaskCompletion, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.Status != models.TaskStatusActive {
		return nil, ErrTaskNotFound
	}

	c := &models.TaskCompletion{
		ID:          uuid.New(),
		UserID:      userID,
		TaskID:      taskID,
		Status:      models.CompletionPending,
		Proof:       normalizeProof(proof),
		SubmittedAt: s.now(),
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.tasks.InsertCompletion(ctx, tx, c); err != nil {
		return nil, fmt.Errorf("insert completion: %w", err)
	}
	if err := s.daily.MarkTaskAttempted(ctx, tx, userID, s.cal.Today(), taskID); err != nil {
		return nil, fmt.Errorf("mark task attempted: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	metrics.RecordLedgerOp("task_submit", "ok")
	return c, nil
}

// Decide approves or rejects a pending completion. Approval credits the task
// reward and XPPerApproval in the same transaction as the transition.
func (s *Service) Decide(ctx context.Context, completionID uuid.UUID, approve bool, decidedBy string) error {
	err := s.decide(ctx, completionID, approve, decidedBy)
	op := "task_reject"
	if approve {
		op = "task_approve"
	}
	switch {
	case err == nil:
		metrics.RecordLedgerOp(op, "ok")
	case errors.Is(err, ErrInvalidState):
		metrics.RecordLedgerOp(op, "invalid_state")
	default:
		metrics.RecordLedgerOp(op, "error")
	}
	return err
}

func (s *Service) decide(ctx context.Context, completionID uuid.UUID, approve bool, decidedBy string) error {
	target := models.CompletionRejected
	if approve {
		target = models.CompletionApproved
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	d, err := s.tasks.Decide(ctx, tx, completionID, target, decidedBy, s.now())
	if err != nil {
		return err
	}
	switch d.Status {
	case models.CompletionApproved:
		if err := s.tasks.IncrementCompletions(ctx, tx, d.TaskID); err != nil {
			return fmt.Errorf("increment completions: %w", err)
		}
		if err := s.ledger.Credit(ctx, tx, d.UserID, d.RewardCents, models.XPPerApproval); err != nil {
			return err
		}
	case models.CompletionRejected:
	case models.CompletionPending:
		return fmt.Errorf("decide %s: store returned pending", completionID)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	if d.Status == models.CompletionApproved {
		metrics.RecordCredit("task", d.RewardCents)
	}
	return nil
}

// normalizeProof trims the proof and cuts it to MaxProofBytes without
// splitting a UTF-8 sequence. Empty proofs are stored as NULL.
func normalizeProof(proof string) *string {
	p := strings.TrimSpace(proof)
	if p == "" {
		return nil
	}
	if len(p) > MaxProofBytes {
		p = strings.ToValidUTF8(p[:MaxProofBytes], "")
	}
	return &p
}
