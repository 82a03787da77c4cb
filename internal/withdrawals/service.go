// Package withdrawals moves a user's whole available balance into a pending
// payout and settles or cancels it. available+pending is conserved by every
// step except settlement, which removes exactly the paid amount.
package withdrawals

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/adsgram/backend/internal/apperr"
	"github.com/adsgram/backend/internal/ledger"
	"github.com/adsgram/backend/internal/metrics"
	"github.com/adsgram/backend/internal/models"
)

var (
	ErrInsufficientBalance = apperr.New(apperr.KindInsufficientFunds, "no available balance")
	ErrBelowMinimum        = apperr.New(apperr.KindInsufficientFunds, "available balance below minimum withdrawal")
	ErrInvalidMethod       = apperr.New(apperr.KindInvalidInput, "invalid withdrawal method")
	ErrInvalidState        = apperr.NewWithStatus(apperr.KindConflict, http.StatusBadRequest, "withdrawal not found or not pending")
)

// DefaultMinimumCents applies when the service is built with a zero minimum.
const DefaultMinimumCents int64 = 300

const listLimit = 50

type Store interface {
	Insert(ctx context.Context, tx pgx.Tx, w *models.Withdrawal) error
	MarkPaid(ctx context.Context, tx pgx.Tx, id uuid.UUID, by string, txRef *string, at time.Time) (*models.Withdrawal, error)
	Cancel(ctx context.Context, tx pgx.Tx, id uuid.UUID, by string, at time.Time) (*models.Withdrawal, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Withdrawal, error)
}

// Balances is the part of ledger.Service the withdrawal flow needs.
type Balances interface {
	ReserveAvailable(ctx context.Context, tx pgx.Tx, userID uuid.UUID, minCents int64) (*ledger.Reservation, error)
	SettlePending(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amountCents int64) error
	ReleasePending(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amountCents int64) error
	Balances(ctx context.Context, userID uuid.UUID) (available, pending int64, err error)
}

// TxBeginner abstracts transaction creation so tests don't need a pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Service struct {
	pool     TxBeginner
	store    Store
	ledger   Balances
	minCents int64
	now      func() time.Time
}

func NewService(pool TxBeginner, store Store, ledger Balances, minimumCents int64) *Service {
	if minimumCents <= 0 {
		minimumCents = DefaultMinimumCents
	}
	return &Service{pool: pool, store: store, ledger: ledger, minCents: minimumCents, now: time.Now}
}

// Request moves the user's entire available balance to pending and records
// a pending withdrawal with the payout destination at that moment. method is
// "USDT", "PIX", 0 or 1.
func (s *Service) Request(ctx context.Context, userID uuid.UUID, method any) (*models.Withdrawal, error) {
	m, ok := models.ParseWithdrawalMethod(method)
	if !ok {
		return nil, ErrInvalidMethod
	}

	available, _, err := s.ledger.Balances(ctx, userID)
	if err != nil {
		return nil, err
	}
	switch {
	case available <= 0:
		return nil, s.fail("withdraw_request", ErrInsufficientBalance)
	case available < s.minCents:
		return nil, s.fail("withdraw_request", ErrBelowMinimum)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	res, err := s.ledger.ReserveAvailable(ctx, tx, userID, s.minCents)
	if errors.Is(err, ledger.ErrInsufficientFunds) {
		// The balance changed since it was read.
		return nil, s.fail("withdraw_request", ErrInsufficientBalance)
	}
	if err != nil {
		return nil, fmt.Errorf("reserve balance: %w", err)
	}

	w := &models.Withdrawal{
		ID:          uuid.New(),
		UserID:      userID,
		AmountCents: res.AmountCents,
		Method:      m,
		Status:      models.WithdrawalPending,
		RequestedAt: s.now(),
	}
	switch m {
	case models.MethodUSDT:
		w.WalletAddressSnapshot = res.WalletAddress
	case models.MethodPIX:
		w.PixKeySnapshot = res.PixKey
	}
	if err := s.store.Insert(ctx, tx, w); err != nil {
		return nil, fmt.Errorf("insert withdrawal: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	metrics.RecordLedgerOp("withdraw_request", "ok")
	return w, nil
}

// MarkPaid settles a pending withdrawal. Only pending decreases.
func (s *Service) MarkPaid(ctx context.Context, withdrawalID uuid.UUID, paidBy string, txRef *string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	w, err := s.store.MarkPaid(ctx, tx, withdrawalID, paidBy, txRef, s.now())
	if err != nil {
		return s.fail("withdraw_paid", err)
	}
	if err := s.ledger.SettlePending(ctx, tx, w.UserID, w.AmountCents); err != nil {
		return s.fail("withdraw_paid", fmt.Errorf("settle pending: %w", err))
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	metrics.RecordLedgerOp("withdraw_paid", "ok")
	return nil
}

// Cancel returns a pending withdrawal's amount to the available balance.
func (s *Service) Cancel(ctx context.Context, withdrawalID uuid.UUID, by string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	w, err := s.store.Cancel(ctx, tx, withdrawalID, by, s.now())
	if err != nil {
		return s.fail("withdraw_cancel", err)
	}
	if err := s.ledger.ReleasePending(ctx, tx, w.UserID, w.AmountCents); err != nil {
		return s.fail("withdraw_cancel", fmt.Errorf("release pending: %w", err))
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	metrics.RecordLedgerOp("withdraw_cancel", "ok")
	return nil
}

func (s *Service) ListMine(ctx context.Context, userID uuid.UUID) ([]models.Withdrawal, error) {
	return s.store.ListByUser(ctx, userID, listLimit)
}

func (s *Service) fail(op string, err error) error {
	outcome := "error"
	switch {
	case errors.Is(err, ErrInvalidState):
		outcome = "invalid_state"
	case errors.Is(err, ErrInsufficientBalance), errors.Is(err, ErrBelowMinimum):
		outcome = "rejected"
	}
	metrics.RecordLedgerOp(op, outcome)
	return err
}
