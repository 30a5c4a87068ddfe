package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// SeedBalance is a test helper that funds an account through a regular credit
// posting so seeded balances still reconcile with the entry log.
func SeedBalance(ctx context.Context, l Ledger, clientID, amount string) error {
	_, err := l.Post(ctx, Posting{
		ClientID:    clientID,
		Kind:        KindCredit,
		Amount:      decimal.RequireFromString(amount),
		Description: "seed",
		Provision:   true,
	})
	return err
}
