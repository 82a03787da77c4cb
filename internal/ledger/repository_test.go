package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/adsgram/backend/internal/testutil/pgtest"
)

// A reservation racing a stream of credits never loses or duplicates a cent:
// every credit lands either in the reserved amount or in what stays
// available.
func TestReserveAvailable_RacesCredit(t *testing.T) {
	pool := pgtest.Pool(t)
	repo := NewRepository(pool)
	ctx := context.Background()
	u := pgtest.InsertUser(t, pool, 500)

	const credits, step = 20, 10
	var (
		wg       sync.WaitGroup
		reserved int64
		resErr   error
		credErrs = make([]error, credits)
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		resErr = pgtest.InTx(ctx, pool, func(tx pgx.Tx) error {
			res, err := repo.ReserveAvailable(ctx, tx, u, 1)
			if err != nil {
				return err
			}
			reserved = res.AmountCents
			return nil
		})
	}()
	for i := range credits {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			credErrs[i] = pgtest.InTx(ctx, pool, func(tx pgx.Tx) error {
				return repo.Credit(ctx, tx, u, step, 0)
			})
		}(i)
	}
	wg.Wait()

	if resErr != nil {
		t.Fatalf("ReserveAvailable: %v", resErr)
	}
	for i, err := range credErrs {
		if err != nil {
			t.Fatalf("credit %d: %v", i, err)
		}
	}
	available, pending := pgtest.Balances(t, pool, u)
	if pending != reserved {
		t.Errorf("pending = %d, reserved = %d", pending, reserved)
	}
	if available+pending != 500+credits*step {
		t.Errorf("available %d + pending %d != %d", available, pending, 500+credits*step)
	}
}

func TestReserveAvailable_BelowMinimum(t *testing.T) {
	pool := pgtest.Pool(t)
	repo := NewRepository(pool)
	ctx := context.Background()
	u := pgtest.InsertUser(t, pool, 200)

	err := pgtest.InTx(ctx, pool, func(tx pgx.Tx) error {
		_, err := repo.ReserveAvailable(ctx, tx, u, 300)
		return err
	})
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if available, pending := pgtest.Balances(t, pool, u); available != 200 || pending != 0 {
		t.Errorf("balances moved: %d/%d", available, pending)
	}
}
