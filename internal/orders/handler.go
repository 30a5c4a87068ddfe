package orders

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/wallet_orders/internal/fulfillment"
	"github.com/congo-pay/wallet_orders/internal/httpx"
	"github.com/congo-pay/wallet_orders/internal/ledger"
	"github.com/congo-pay/wallet_orders/internal/money"
)

// Handler exposes order HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds an order HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	Amount money.Amount `json:"amount"`
}

type orderResponse struct {
	OrderID       string     `json:"orderId"`
	Amount        any        `json:"amount"`
	Status        Status     `json:"status"`
	FulfillmentID *string    `json:"fulfillmentId"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty"`
}

// Create places an order for the caller.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := httpx.Bind(c, &req); err != nil {
		return err
	}
	amount, err := req.Amount.Decimal()
	if err != nil {
		return toHTTPError(err)
	}
	clientID, _ := c.Locals("client_id").(string)
	order, err := h.service.Create(c.UserContext(), clientID, amount)
	if err != nil {
		return toHTTPError(err)
	}
	return httpx.OK(c, http.StatusCreated, toResponse(order, false), "Order created successfully")
}

// Get returns one of the caller's orders.
func (h *Handler) Get(c *fiber.Ctx) error {
	clientID, _ := c.Locals("client_id").(string)
	order, err := h.service.Get(c.UserContext(), clientID, c.Params("orderId"))
	if err != nil {
		return toHTTPError(err)
	}
	return httpx.OK(c, http.StatusOK, toResponse(order, true), "")
}

// List returns the caller's orders, newest first.
func (h *Handler) List(c *fiber.Ctx) error {
	clientID, _ := c.Locals("client_id").(string)
	orders, err := h.service.List(c.UserContext(), clientID)
	if err != nil {
		return toHTTPError(err)
	}
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toResponse(o, true))
	}
	return httpx.List(c, out)
}

func toResponse(o Order, withUpdated bool) orderResponse {
	resp := orderResponse{
		OrderID:   o.ID,
		Amount:    money.Number(o.Amount),
		Status:    o.Status,
		CreatedAt: o.CreatedAt,
	}
	if o.FulfillmentID != "" {
		id := o.FulfillmentID
		resp.FulfillmentID = &id
	}
	if withUpdated {
		updated := o.UpdatedAt
		resp.UpdatedAt = &updated
	}
	return resp
}

func toHTTPError(err error) error {
	var fe *FulfillmentError
	switch {
	case errors.As(err, &fe):
		return httpx.NewError(fulfillmentStatus(fe.Cause), fe.Error(), fiber.Map{
			"orderId": fe.OrderID,
			"status":  StatusFailed,
		})
	case errors.Is(err, money.ErrInvalidAmount):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrClientIDRequired):
		return fiber.NewError(http.StatusBadRequest, "client-id is required")
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return fiber.NewError(http.StatusBadRequest, "Insufficient balance")
	case errors.Is(err, ledger.ErrAccountNotFound):
		return fiber.NewError(http.StatusNotFound, "User not found")
	case errors.Is(err, ErrOrderNotFound):
		return fiber.NewError(http.StatusNotFound, "Order not found")
	case errors.Is(err, ErrAccessDenied):
		return fiber.NewError(http.StatusForbidden, "Access denied: Order does not belong to this user")
	default:
		return err
	}
}

func fulfillmentStatus(cause error) int {
	switch fulfillment.KindOf(cause) {
	case fulfillment.KindTimeout:
		return http.StatusGatewayTimeout
	case fulfillment.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}
