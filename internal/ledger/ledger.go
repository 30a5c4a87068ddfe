package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/congo-pay/wallet_orders/internal/money"
)

var (
	// ErrInsufficientFunds occurs when the account balance cannot cover a
	// debit-class posting. Nothing is written when it is returned.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrAccountNotFound indicates no account exists for the client identifier.
	ErrAccountNotFound = errors.New("account not found")

	// ErrBalanceLimit rejects a credit that would push the balance past
	// money.Max.
	ErrBalanceLimit = errors.New("balance limit exceeded")

	// ErrClientIDRequired rejects postings and lookups without a client identifier.
	ErrClientIDRequired = errors.New("client id is required")
)

// Kind classifies a ledger entry.
type Kind string

const (
	// KindCredit increases a balance (administrative top-up).
	KindCredit Kind = "CREDIT"
	// KindDebit decreases a balance (administrative withdrawal).
	KindDebit Kind = "DEBIT"
	// KindOrderDeduction decreases a balance to pay for an order.
	KindOrderDeduction Kind = "ORDER_DEDUCTION"
)

// Increases reports whether entries of this kind add to the balance.
func (k Kind) Increases() bool { return k == KindCredit }

func (k Kind) valid() bool {
	switch k {
	case KindCredit, KindDebit, KindOrderDeduction:
		return true
	default:
		return false
	}
}

// Account is the balance holder for a single client identifier.
type Account struct {
	ID        string
	ClientID  string
	Balance   decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Entry is an immutable record of one balance change.
type Entry struct {
	ID            string
	AccountID     string
	ClientID      string
	Kind          Kind
	Amount        decimal.Decimal
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	ReferenceID   string
	Description   string
	CreatedAt     time.Time
}

// Posting describes a balance change to apply.
type Posting struct {
	ClientID    string
	Kind        Kind
	Amount      decimal.Decimal
	ReferenceID string
	Description string
	// Provision creates the account when it does not exist yet. Only
	// honoured for balance-increasing kinds.
	Provision bool
}

// Ledger defines the contract implemented by ledger backends (e.g. Postgres).
//
// Post applies the balance change and appends its entry as one atomic unit:
// either both are visible or neither is. A debit-class posting succeeds only
// if the balance at the instant of application covers the amount, so two
// concurrent debits can never both succeed against a balance that covers one.
type Ledger interface {
	EnsureAccount(ctx context.Context, clientID string) (Account, error)
	Account(ctx context.Context, clientID string) (Account, error)
	Post(ctx context.Context, p Posting) (Entry, error)
	Entries(ctx context.Context, clientID string, limit int) ([]Entry, error)
	EntriesByReference(ctx context.Context, referenceID string) ([]Entry, error)
}

// DefaultEntriesLimit caps history reads when the caller passes no limit.
const DefaultEntriesLimit = 50

func validatePosting(p Posting) error {
	if strings.TrimSpace(p.ClientID) == "" {
		return ErrClientIDRequired
	}
	if !p.Kind.valid() {
		return fmt.Errorf("unknown entry kind %q", p.Kind)
	}
	return money.Validate(p.Amount)
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return DefaultEntriesLimit
	}
	return limit
}
