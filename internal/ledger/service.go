// Package ledger owns every mutation of the user balance buckets. All
// changes are relative increments applied by the database so concurrent
// requests for the same user never lose an update.
package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/adsgram/backend/internal/apperr"
)

var (
	ErrUserNotFound      = apperr.New(apperr.KindNotFound, "user not found")
	ErrInsufficientFunds = apperr.New(apperr.KindInsufficientFunds, "insufficient balance")
	// ErrPendingMismatch means a settlement would drive pending below zero.
	ErrPendingMismatch = apperr.New(apperr.KindInternal, "pending balance lower than settlement amount")
)

// Reservation is the result of moving a whole available balance to pending.
type Reservation struct {
	UserID        uuid.UUID
	AmountCents   int64
	WalletAddress *string
	PixKey        *string
}

type Service interface {
	Credit(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amountCents int64, xp int) error
	ReserveAvailable(ctx context.Context, tx pgx.Tx, userID uuid.UUID, minCents int64) (*Reservation, error)
	SettlePending(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amountCents int64) error
	ReleasePending(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amountCents int64) error
	Balances(ctx context.Context, userID uuid.UUID) (available, pending int64, err error)
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) Service {
	return &service{repo: repo}
}

var _ Service = (*service)(nil)

func (s *service) Credit(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amountCents int64, xp int) error {
	if amountCents < 0 || xp < 0 {
		return apperr.New(apperr.KindInvalidInput, "credit must not be negative")
	}
	return s.repo.Credit(ctx, tx, userID, amountCents, xp)
}

func (s *service) ReserveAvailable(ctx context.Context, tx pgx.Tx, userID uuid.UUID, minCents int64) (*Reservation, error) {
	return s.repo.ReserveAvailable(ctx, tx, userID, minCents)
}

func (s *service) SettlePending(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amountCents int64) error {
	return s.repo.SettlePending(ctx, tx, userID, amountCents)
}

func (s *service) ReleasePending(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amountCents int64) error {
	return s.repo.ReleasePending(ctx, tx, userID, amountCents)
}

func (s *service) Balances(ctx context.Context, userID uuid.UUID) (int64, int64, error) {
	return s.repo.Balances(ctx, userID)
}
