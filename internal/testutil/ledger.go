package testutil

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/adsgram/backend/internal/ledger"
)

// Account is the balance state of one user in Ledger.
type Account struct {
	Available int64
	Pending   int64
	XP        int
	Wallet    *string
	PixKey    *string
}

// Ledger is an in-memory ledger.Service.
type Ledger struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*Account
}

func NewLedger() *Ledger {
	return &Ledger{accounts: make(map[uuid.UUID]*Account)}
}

var _ ledger.Service = (*Ledger)(nil)

// AddUser registers a user with the given available balance.
func (l *Ledger) AddUser(id uuid.UUID, available int64) *Account {
	l.mu.Lock()
	defer l.mu.Unlock()
	acc := &Account{Available: available}
	l.accounts[id] = acc
	return acc
}

// Snapshot returns a copy of the user's account, or false if unknown.
func (l *Ledger) Snapshot(id uuid.UUID) (Account, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acc, ok := l.accounts[id]
	if !ok {
		return Account{}, false
	}
	return *acc, true
}

func (l *Ledger) Credit(_ context.Context, _ pgx.Tx, userID uuid.UUID, amountCents int64, xp int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	acc, ok := l.accounts[userID]
	if !ok {
		return ledger.ErrUserNotFound
	}
	acc.Available += amountCents
	acc.XP += xp
	return nil
}

func (l *Ledger) ReserveAvailable(_ context.Context, _ pgx.Tx, userID uuid.UUID, minCents int64) (*ledger.Reservation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acc, ok := l.accounts[userID]
	if !ok || acc.Available <= 0 || acc.Available < minCents {
		return nil, ledger.ErrInsufficientFunds
	}
	res := &ledger.Reservation{
		UserID:        userID,
		AmountCents:   acc.Available,
		WalletAddress: acc.Wallet,
		PixKey:        acc.PixKey,
	}
	acc.Pending += acc.Available
	acc.Available = 0
	return res, nil
}

func (l *Ledger) SettlePending(_ context.Context, _ pgx.Tx, userID uuid.UUID, amountCents int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	acc, ok := l.accounts[userID]
	if !ok || acc.Pending < amountCents {
		return ledger.ErrPendingMismatch
	}
	acc.Pending -= amountCents
	return nil
}

func (l *Ledger) ReleasePending(_ context.Context, _ pgx.Tx, userID uuid.UUID, amountCents int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	acc, ok := l.accounts[userID]
	if !ok || acc.Pending < amountCents {
		return ledger.ErrPendingMismatch
	}
	acc.Pending -= amountCents
	acc.Available += amountCents
	return nil
}

func (l *Ledger) Balances(_ context.Context, userID uuid.UUID) (int64, int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acc, ok := l.accounts[userID]
	if !ok {
		return 0, 0, ledger.ErrUserNotFound
	}
	return acc.Available, acc.Pending, nil
}
