// Package ads decides which ads a user may watch and credits completed views
// at most once per user, ad and day.
package ads

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/adsgram/backend/internal/apperr"
	"github.com/adsgram/backend/internal/metrics"
	"github.com/adsgram/backend/internal/models"
)

var (
	ErrAdNotFound      = apperr.New(apperr.KindNotFound, "ad not found")
	ErrNoBudget        = apperr.New(apperr.KindInsufficientFunds, "ad budget exhausted")
	ErrAlreadyCredited = apperr.New(apperr.KindConflict, "ad already credited today")
)

// EligibleLimit caps the eligible list.
const EligibleLimit = 20

// Summary is the public view of an eligible ad.
type Summary struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	RewardAmount int64     `json:"rewardAmount"`
}

type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Ad, error)
	ListEligible(ctx context.Context, exclude []uuid.UUID, limit int) ([]models.Ad, error)
	IncrementViews(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
	InsertView(ctx context.Context, tx pgx.Tx, v *models.AdView) error
}

// DailyLedger is the per-day ad set of a user.
type DailyLedger interface {
	MarkAdSeen(ctx context.Context, tx pgx.Tx, userID uuid.UUID, day int, adID uuid.UUID) (bool, error)
	SeenAds(ctx context.Context, userID uuid.UUID, day int) ([]uuid.UUID, error)
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
	ads    Store
	daily  DailyLedger
	ledger Crediter
	cal    Calendar
	now    func() time.Time
}

func NewService(pool TxBeginner, ads Store, daily DailyLedger, ledger Crediter, cal Calendar) *Service {
	return &Service{pool: pool, ads: ads, daily: daily, ledger: ledger, cal: cal, now: time.Now}
}

// ListEligible returns the ads userID can still be credited for today.
func (s *Service) ListEligible(ctx context.Context, userID uuid.UUID) ([]Summary, error) {
	seen, err := s.daily.SeenAds(ctx, userID, s.cal.Today())
	if err != nil {
		return nil, fmt.Errorf("load seen ads: %w", err)
	}
	rows, err := s.ads.ListEligible(ctx, seen, EligibleLimit)
	if err != nil {
		return nil, fmt.Errorf("list eligible ads: %w", err)
	}
	out := make([]Summary, 0, len(rows))
	for _, a := range rows {
		out = append(out, Summary{ID: a.ID, Title: a.Title, RewardAmount: a.RewardCents})
	}
	return out, nil
}

// CreditView pays userID the ad reward for a completed view. The daily-set
// insert, view record, counter increment and balance credit commit together
// or not at all.
func (s *Service) CreditView(ctx context.Context, userID, adID uuid.UUID) error {
	err := s.creditView(ctx, userID, adID)
	metrics.RecordLedgerOp("ad_credit", outcome(err))
	return err
}

func (s *Service) creditView(ctx context.Context, userID, adID uuid.UUID) error {
	ad, err := s.ads.GetByID(ctx, adID)
	if err != nil {
		return err
	}
	if ad.Status != models.AdStatusActive {
		return ErrAdNotFound
	}
	if !ad.HasBudgetForView() {
		return ErrNoBudget
	}

	day := s.cal.Today()
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	inserted, err := s.daily.MarkAdSeen(ctx, tx, userID, day, adID)
	if err != nil {
		return fmt.Errorf("mark ad seen: %w", err)
	}
	if !inserted {
		return ErrAlreadyCredited
	}
	if err := s.ads.IncrementViews(ctx, tx, adID); err != nil {
		return err
	}
	view := &models.AdView{
		ID:       uuid.New(),
		UserID:   userID,
		AdID:     adID,
		Day:      day,
		Credited: true,
		ViewedAt: s.now(),
	}
	if err := s.ads.InsertView(ctx, tx, view); err != nil {
		return fmt.Errorf("insert ad view: %w", err)
	}
	if err := s.ledger.Credit(ctx, tx, userID, ad.RewardCents, 0); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	metrics.RecordCredit("ad", ad.RewardCents)
	return nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrAlreadyCredited):
		return "already_credited"
	case errors.Is(err, ErrNoBudget):
		return "no_budget"
	case errors.Is(err, ErrAdNotFound):
		return "not_found"
	default:
		return "error"
	}
}
