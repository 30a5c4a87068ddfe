package wallet

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/congo-pay/wallet_orders/internal/ledger"
	"github.com/congo-pay/wallet_orders/internal/money"
)

const (
	defaultCreditDescription = "Admin credit"
	defaultDebitDescription  = "Admin debit"
)

// Service exposes wallet operations backed by the ledger.
type Service struct {
	ledger ledger.Ledger
	logger *slog.Logger
}

// NewService builds a wallet service instance.
func NewService(l ledger.Ledger, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{ledger: l, logger: logger}
}

// Credit adds funds to the client's account, provisioning it on first use.
func (s *Service) Credit(ctx context.Context, clientID string, amount decimal.Decimal, description string) (Result, error) {
	if err := money.Validate(amount); err != nil {
		return Result{}, err
	}
	if strings.TrimSpace(description) == "" {
		description = defaultCreditDescription
	}
	entry, err := s.ledger.Post(ctx, ledger.Posting{
		ClientID:    clientID,
		Kind:        ledger.KindCredit,
		Amount:      amount,
		Description: description,
		Provision:   true,
	})
	if err != nil {
		return Result{}, err
	}
	s.logger.Info("wallet credited",
		slog.String("client_id", clientID),
		slog.String("amount", money.Format(amount)),
		slog.String("balance", money.Format(entry.BalanceAfter)),
	)
	return resultFrom(entry), nil
}

// Debit removes funds from an existing account. It fails with
// ledger.ErrInsufficientFunds without side effects when the balance is short.
func (s *Service) Debit(ctx context.Context, clientID string, amount decimal.Decimal, description string) (Result, error) {
	if err := money.Validate(amount); err != nil {
		return Result{}, err
	}
	if strings.TrimSpace(description) == "" {
		description = defaultDebitDescription
	}
	entry, err := s.ledger.Post(ctx, ledger.Posting{
		ClientID:    clientID,
		Kind:        ledger.KindDebit,
		Amount:      amount,
		Description: description,
	})
	if err != nil {
		return Result{}, err
	}
	s.logger.Info("wallet debited",
		slog.String("client_id", clientID),
		slog.String("amount", money.Format(amount)),
		slog.String("balance", money.Format(entry.BalanceAfter)),
	)
	return resultFrom(entry), nil
}

// DeductForOrder charges an order against the client's balance. The entry
// carries the order id as its reference.
func (s *Service) DeductForOrder(ctx context.Context, clientID string, amount decimal.Decimal, orderID string) (Result, error) {
	if err := money.Validate(amount); err != nil {
		return Result{}, err
	}
	entry, err := s.ledger.Post(ctx, ledger.Posting{
		ClientID:    clientID,
		Kind:        ledger.KindOrderDeduction,
		Amount:      amount,
		ReferenceID: orderID,
		Description: "Order deduction - " + orderID,
	})
	if err != nil {
		return Result{}, err
	}
	return resultFrom(entry), nil
}

// Balance returns the current balance. It never mutates state.
func (s *Service) Balance(ctx context.Context, clientID string) (Balance, error) {
	acct, err := s.ledger.Account(ctx, clientID)
	if err != nil {
		return Balance{}, err
	}
	return Balance{ClientID: acct.ClientID, Amount: acct.Balance, LastUpdated: acct.UpdatedAt}, nil
}

// Account resolves the ledger account for a client.
func (s *Service) Account(ctx context.Context, clientID string) (ledger.Account, error) {
	return s.ledger.Account(ctx, clientID)
}

// Open provisions an empty account for a newly created user.
func (s *Service) Open(ctx context.Context, clientID string) (ledger.Account, error) {
	return s.ledger.EnsureAccount(ctx, clientID)
}

// History lists the client's ledger entries, newest first.
func (s *Service) History(ctx context.Context, clientID string, limit int) ([]ledger.Entry, error) {
	if _, err := s.ledger.Account(ctx, clientID); err != nil {
		return nil, err
	}
	return s.ledger.Entries(ctx, clientID, limit)
}
