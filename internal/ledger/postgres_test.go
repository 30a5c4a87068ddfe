package ledger

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/congo-pay/wallet_orders/internal/infra"
)

// Runs only when TEST_DATABASE_URL points at a disposable Postgres.
func newTestPostgresLedger(t *testing.T) *PostgresLedger {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	if err := infra.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewPostgresLedger(pool)
}

func TestPostgresLedger_ConcurrentDebitsForFullBalance(t *testing.T) {
	l := newTestPostgresLedger(t)
	ctx := context.Background()
	client := "pg-" + uuid.NewString()

	if err := SeedBalance(ctx, l, client, "100.00"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	const workers = 4
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Post(ctx, Posting{ClientID: client, Kind: KindDebit, Amount: dec("100.00")})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	wins := 0
	for err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrInsufficientFunds):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one successful debit, got %d", wins)
	}

	acct, err := l.Account(ctx, client)
	if err != nil {
		t.Fatalf("account: %v", err)
	}
	if !acct.Balance.IsZero() {
		t.Fatalf("expected zero balance, got %s", acct.Balance)
	}
	entries, err := l.Entries(ctx, client, 10)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected seed + one debit entry, got %d", len(entries))
	}
}

func TestPostgresLedger_DebitMissingAccount(t *testing.T) {
	l := newTestPostgresLedger(t)
	if _, err := l.Post(context.Background(), Posting{ClientID: "missing-" + uuid.NewString(), Kind: KindDebit, Amount: dec("1")}); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected account not found, got %v", err)
	}
}
