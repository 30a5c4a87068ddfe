package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/congo-pay/wallet_orders/internal/money"
)

// PostgresLedger keeps balances on the accounts table and appends every change
// to ledger_entries inside the same transaction.
type PostgresLedger struct {
	db *pgxpool.Pool
}

// NewPostgresLedger constructs a Postgres-backed ledger implementation.
func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db}
}

const (
	insertAccountSQL = `INSERT INTO accounts (id, client_id) VALUES ($1, $2)
        ON CONFLICT (client_id) DO NOTHING`

	selectAccountSQL = `SELECT id, client_id, balance::text, created_at, updated_at
        FROM accounts WHERE client_id = $1`

	// The guard in WHERE is the compare-and-set: the row is only touched if the
	// balance still covers the amount when the statement runs.
	debitSQL = `UPDATE accounts
        SET balance = balance - $2::numeric, updated_at = now()
        WHERE client_id = $1 AND balance >= $2::numeric
        RETURNING id, (balance + $2::numeric)::text, balance::text`

	creditSQL = `UPDATE accounts
        SET balance = balance + $2::numeric, updated_at = now()
        WHERE client_id = $1 AND balance + $2::numeric <= $3::numeric
        RETURNING id, (balance - $2::numeric)::text, balance::text`

	insertEntrySQL = `INSERT INTO ledger_entries
        (id, account_id, client_id, kind, amount, balance_before, balance_after, reference_id, description, created_at)
        VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, $7::numeric, NULLIF($8, ''), NULLIF($9, ''), clock_timestamp())
        RETURNING created_at`

	entryColumns = `id, account_id, client_id, kind, amount::text, balance_before::text, balance_after::text,
        COALESCE(reference_id, ''), COALESCE(description, ''), created_at`
)

// EnsureAccount guarantees an account exists for the client identifier.
func (l *PostgresLedger) EnsureAccount(ctx context.Context, clientID string) (Account, error) {
	if clientID == "" {
		return Account{}, ErrClientIDRequired
	}
	if _, err := l.db.Exec(ctx, insertAccountSQL, uuid.New(), clientID); err != nil {
		return Account{}, fmt.Errorf("provision account: %w", err)
	}
	return l.Account(ctx, clientID)
}

// Account loads the account for the client identifier.
func (l *PostgresLedger) Account(ctx context.Context, clientID string) (Account, error) {
	if clientID == "" {
		return Account{}, ErrClientIDRequired
	}
	var (
		a       Account
		id      uuid.UUID
		balance string
	)
	err := l.db.QueryRow(ctx, selectAccountSQL, clientID).Scan(&id, &a.ClientID, &balance, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, err
	}
	a.ID = id.String()
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	if a.Balance, err = decimal.NewFromString(balance); err != nil {
		return Account{}, fmt.Errorf("decode balance: %w", err)
	}
	return a, nil
}

// Post applies a balance change and records its entry in a single transaction.
func (l *PostgresLedger) Post(ctx context.Context, p Posting) (Entry, error) {
	if err := validatePosting(p); err != nil {
		return Entry{}, err
	}

	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Entry{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	amount := money.Format(p.Amount)

	var (
		accountID     uuid.UUID
		before, after string
	)
	if p.Kind.Increases() {
		if p.Provision {
			if _, err := tx.Exec(ctx, insertAccountSQL, uuid.New(), p.ClientID); err != nil {
				return Entry{}, fmt.Errorf("provision account: %w", err)
			}
		}
		err = tx.QueryRow(ctx, creditSQL, p.ClientID, amount, money.Format(money.Max)).Scan(&accountID, &before, &after)
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, l.explainRejected(ctx, tx, p.ClientID, ErrBalanceLimit)
		}
	} else {
		err = tx.QueryRow(ctx, debitSQL, p.ClientID, amount).Scan(&accountID, &before, &after)
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, l.explainRejected(ctx, tx, p.ClientID, ErrInsufficientFunds)
		}
	}
	if err != nil {
		return Entry{}, err
	}

	entryID := uuid.New()
	entry := Entry{
		ID:          entryID.String(),
		AccountID:   accountID.String(),
		ClientID:    p.ClientID,
		Kind:        p.Kind,
		Amount:      p.Amount,
		ReferenceID: p.ReferenceID,
		Description: p.Description,
	}
	if entry.BalanceBefore, err = decimal.NewFromString(before); err != nil {
		return Entry{}, fmt.Errorf("decode balance: %w", err)
	}
	if entry.BalanceAfter, err = decimal.NewFromString(after); err != nil {
		return Entry{}, fmt.Errorf("decode balance: %w", err)
	}

	var createdAt time.Time
	if err := tx.QueryRow(ctx, insertEntrySQL,
		entryID, accountID, p.ClientID, string(p.Kind), amount,
		before, after, p.ReferenceID, p.Description,
	).Scan(&createdAt); err != nil {
		return Entry{}, fmt.Errorf("append entry: %w", err)
	}
	entry.CreatedAt = createdAt.UTC()

	if err := tx.Commit(ctx); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// explainRejected distinguishes a missing account from a failed balance guard
// after the guarded update matched no row.
func (l *PostgresLedger) explainRejected(ctx context.Context, tx pgx.Tx, clientID string, guardErr error) error {
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE client_id = $1)`, clientID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrAccountNotFound
	}
	return guardErr
}

// Entries returns the most recent entries for the client, newest first.
func (l *PostgresLedger) Entries(ctx context.Context, clientID string, limit int) ([]Entry, error) {
	rows, err := l.db.Query(ctx, `SELECT `+entryColumns+` FROM ledger_entries
        WHERE client_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`, clientID, normalizeLimit(limit))
	if err != nil {
		return nil, err
	}
	return collectEntries(rows)
}

// EntriesByReference returns every entry carrying the reference, oldest first.
func (l *PostgresLedger) EntriesByReference(ctx context.Context, referenceID string) ([]Entry, error) {
	rows, err := l.db.Query(ctx, `SELECT `+entryColumns+` FROM ledger_entries
        WHERE reference_id = $1 ORDER BY created_at ASC`, referenceID)
	if err != nil {
		return nil, err
	}
	return collectEntries(rows)
}

func collectEntries(rows pgx.Rows) ([]Entry, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Entry, error) {
		var (
			e                     Entry
			id, accountID         uuid.UUID
			kind                  string
			amount, before, after string
		)
		if err := row.Scan(&id, &accountID, &e.ClientID, &kind, &amount, &before, &after,
			&e.ReferenceID, &e.Description, &e.CreatedAt); err != nil {
			return Entry{}, err
		}
		e.ID = id.String()
		e.AccountID = accountID.String()
		e.Kind = Kind(kind)
		e.CreatedAt = e.CreatedAt.UTC()
		var err error
		if e.Amount, err = decimal.NewFromString(amount); err != nil {
			return Entry{}, err
		}
		if e.BalanceBefore, err = decimal.NewFromString(before); err != nil {
			return Entry{}, err
		}
		if e.BalanceAfter, err = decimal.NewFromString(after); err != nil {
			return Entry{}, err
		}
		return e, nil
	})
}
