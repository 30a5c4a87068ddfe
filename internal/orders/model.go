package orders

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an order. PENDING is the only state an
// order can leave; COMPLETED and FAILED are final.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// Order is a purchase charged against a client's balance.
type Order struct {
	ID            string
	ClientID      string
	Amount        decimal.Decimal
	Status        Status
	FulfillmentID string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrAccessDenied  = errors.New("access denied: order does not belong to this client")
	// ErrNotPending is returned when a transition targets an order that
	// already reached a final state.
	ErrNotPending = errors.New("order is not pending")
	// ErrChargedNotFulfilled marks orders whose amount was deducted but whose
	// fulfillment could not be created. The deduction is not reversed.
	ErrChargedNotFulfilled = errors.New("Order created and amount deducted, but fulfillment failed. Please contact support.")
)

// FulfillmentError reports a charged-but-not-fulfilled order. It matches
// ErrChargedNotFulfilled and unwraps to the fulfillment failure.
type FulfillmentError struct {
	OrderID string
	Cause   error
}

func (e *FulfillmentError) Error() string { return ErrChargedNotFulfilled.Error() }

func (e *FulfillmentError) Unwrap() error { return e.Cause }

func (e *FulfillmentError) Is(target error) bool { return target == ErrChargedNotFulfilled }

func newOrderID(now time.Time) string {
	return fmt.Sprintf("ORD-%d-%s", now.UnixMilli(), uuid.NewString()[:8])
}
