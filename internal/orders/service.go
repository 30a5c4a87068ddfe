package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/congo-pay/wallet_orders/internal/fulfillment"
	"github.com/congo-pay/wallet_orders/internal/ledger"
	"github.com/congo-pay/wallet_orders/internal/money"
	"github.com/congo-pay/wallet_orders/internal/notification"
	"github.com/congo-pay/wallet_orders/internal/wallet"
)

// Wallet is the subset of wallet operations an order needs.
type Wallet interface {
	Account(ctx context.Context, clientID string) (ledger.Account, error)
	DeductForOrder(ctx context.Context, clientID string, amount decimal.Decimal, orderID string) (wallet.Result, error)
}

// Fulfiller creates the downstream fulfillment for a charged order.
type Fulfiller interface {
	CreateWithRetry(ctx context.Context, clientID, orderID string, maxAttempts int) (string, error)
}

// Service runs the order saga: record, charge, fulfil, finalise.
type Service struct {
	repo        Repository
	wallets     Wallet
	fulfiller   Fulfiller
	notifier    notification.Notifier
	logger      *slog.Logger
	metrics     *Metrics
	maxAttempts int
	now         func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithMetrics records finished orders.
func WithMetrics(m *Metrics) Option { return func(s *Service) { s.metrics = m } }

// WithClock overrides the time source used for order ids and timestamps.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// NewService wires the order saga.
func NewService(repo Repository, wallets Wallet, fulfiller Fulfiller, notifier notification.Notifier, logger *slog.Logger, maxAttempts int, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	s := &Service{
		repo:        repo,
		wallets:     wallets,
		fulfiller:   fulfiller,
		notifier:    notifier,
		logger:      logger,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates the request, records a PENDING order, deducts the amount
// and requests fulfillment. On return the order is COMPLETED or FAILED.
//
// Once the order row exists the saga runs on a context detached from the
// caller's cancellation, so an abandoned request cannot strand a PENDING
// order after the balance moved.
func (s *Service) Create(ctx context.Context, clientID string, amount decimal.Decimal) (Order, error) {
	if err := money.Validate(amount); err != nil {
		return Order{}, err
	}
	if clientID == "" {
		return Order{}, ledger.ErrClientIDRequired
	}
	if _, err := s.wallets.Account(ctx, clientID); err != nil {
		return Order{}, err
	}

	now := s.now().UTC()
	order := Order{
		ID:        newOrderID(now),
		ClientID:  clientID,
		Amount:    amount,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, order); err != nil {
		return Order{}, fmt.Errorf("record order: %w", err)
	}

	sagaCtx := context.WithoutCancel(ctx)
	log := s.logger.With("order_id", order.ID, "client_id", clientID)

	if _, err := s.wallets.DeductForOrder(sagaCtx, clientID, amount, order.ID); err != nil {
		s.fail(sagaCtx, log, order.ID, reasonOf(err))
		return Order{}, err
	}

	fulfillmentID, err := s.fulfiller.CreateWithRetry(sagaCtx, clientID, order.ID, s.maxAttempts)
	if err != nil {
		log.Error("order charged but not fulfilled", "amount", money.Format(amount), "error", err)
		s.fail(sagaCtx, log, order.ID, "fulfillment_"+string(fulfillment.KindOf(err)))
		s.notify(sagaCtx, log, notification.Message{
			Kind:        notification.KindOrderUnfulfilled,
			Destination: clientID,
			Body:        fmt.Sprintf("Order %s was charged %s but fulfillment failed", order.ID, money.Format(amount)),
			Attrs:       map[string]string{"order_id": order.ID, "amount": money.Format(amount), "cause": err.Error()},
		})
		return Order{}, &FulfillmentError{OrderID: order.ID, Cause: err}
	}

	completed, err := s.repo.MarkCompleted(sagaCtx, order.ID, fulfillmentID)
	if err != nil {
		log.Error("mark order completed", "fulfillment_id", fulfillmentID, "error", err)
		s.notify(sagaCtx, log, notification.Message{
			Kind:        notification.KindOrderUnrecorded,
			Destination: clientID,
			Body:        fmt.Sprintf("Order %s was charged and fulfilled as %s but could not be marked completed", order.ID, fulfillmentID),
			Attrs: map[string]string{
				"order_id":       order.ID,
				"fulfillment_id": fulfillmentID,
				"amount":         money.Format(amount),
				"cause":          err.Error(),
			},
		})
		return Order{}, fmt.Errorf("complete order %s: %w", order.ID, err)
	}
	s.metrics.record(StatusCompleted, "")
	log.Info("order completed", "amount", money.Format(amount), "fulfillment_id", fulfillmentID)
	s.notify(sagaCtx, log, notification.Message{
		Kind:        notification.KindOrderCompleted,
		Destination: clientID,
		Body:        fmt.Sprintf("Order %s completed", order.ID),
		Attrs:       map[string]string{"order_id": order.ID, "fulfillment_id": fulfillmentID},
	})
	return completed, nil
}

// Get returns an order owned by clientID.
func (s *Service) Get(ctx context.Context, clientID, orderID string) (Order, error) {
	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if order.ClientID != clientID {
		return Order{}, ErrAccessDenied
	}
	return order, nil
}

// List returns the client's orders, newest first.
func (s *Service) List(ctx context.Context, clientID string) ([]Order, error) {
	if _, err := s.wallets.Account(ctx, clientID); err != nil {
		return nil, err
	}
	return s.repo.ListByClient(ctx, clientID)
}

func (s *Service) fail(ctx context.Context, log *slog.Logger, orderID, reason string) {
	if _, err := s.repo.MarkFailed(ctx, orderID); err != nil {
		log.Error("mark order failed", "reason", reason, "error", err)
		return
	}
	s.metrics.record(StatusFailed, reason)
	log.Warn("order failed", "reason", reason)
}

func (s *Service) notify(ctx context.Context, log *slog.Logger, msg notification.Message) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, msg); err != nil {
		log.Warn("send notification", "kind", msg.Kind, "error", err)
	}
}

func reasonOf(err error) string {
	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ledger.ErrAccountNotFound):
		return "account_not_found"
	default:
		return "deduction_error"
	}
}
