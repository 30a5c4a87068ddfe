package wallet

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/congo-pay/wallet_orders/internal/ledger"
)

// Result is the outcome of a balance-changing wallet operation.
type Result struct {
	ClientID        string
	Kind            ledger.Kind
	PreviousBalance decimal.Decimal
	NewBalance      decimal.Decimal
	Amount          decimal.Decimal
	EntryID         string
	At              time.Time
}

// Balance encapsulates available funds for a client.
type Balance struct {
	ClientID    string
	Amount      decimal.Decimal
	LastUpdated time.Time
}

func resultFrom(e ledger.Entry) Result {
	return Result{
		ClientID:        e.ClientID,
		Kind:            e.Kind,
		PreviousBalance: e.BalanceBefore,
		NewBalance:      e.BalanceAfter,
		Amount:          e.Amount,
		EntryID:         e.ID,
		At:              e.CreatedAt,
	}
}
