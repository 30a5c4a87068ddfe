package wallet

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/congo-pay/wallet_orders/internal/httpx"
	"github.com/congo-pay/wallet_orders/internal/ledger"
	"github.com/congo-pay/wallet_orders/internal/money"
)

// Handler exposes wallet HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type adjustRequest struct {
	ClientID    string       `json:"client_id" validate:"required,max=255"`
	Amount      money.Amount `json:"amount"`
	Description string       `json:"description" validate:"max=500"`
}

type resultResponse struct {
	ClientID        string      `json:"clientId"`
	Type            ledger.Kind `json:"type"`
	PreviousBalance any         `json:"previousBalance"`
	NewBalance      any         `json:"newBalance"`
	Amount          any         `json:"amount"`
	EntryID         string      `json:"entryId"`
	Timestamp       time.Time   `json:"timestamp"`
}

type balanceResponse struct {
	ClientID    string    `json:"clientId"`
	Balance     any       `json:"balance"`
	LastUpdated time.Time `json:"lastUpdated"`
}

type entryResponse struct {
	ID            string      `json:"id"`
	Type          ledger.Kind `json:"type"`
	Amount        any         `json:"amount"`
	BalanceBefore any         `json:"balanceBefore"`
	BalanceAfter  any         `json:"balanceAfter"`
	ReferenceID   string      `json:"referenceId,omitempty"`
	Description   string      `json:"description,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
}

// Credit adds funds to a client's wallet (admin only).
func (h *Handler) Credit(c *fiber.Ctx) error {
	req, amount, err := bindAdjust(c)
	if err != nil {
		return err
	}
	res, err := h.service.Credit(c.UserContext(), req.ClientID, amount, req.Description)
	if err != nil {
		return toHTTPError(err)
	}
	return httpx.OK(c, http.StatusOK, toResultResponse(res), "Wallet credited successfully")
}

// Debit removes funds from a client's wallet (admin only).
func (h *Handler) Debit(c *fiber.Ctx) error {
	req, amount, err := bindAdjust(c)
	if err != nil {
		return err
	}
	res, err := h.service.Debit(c.UserContext(), req.ClientID, amount, req.Description)
	if err != nil {
		return toHTTPError(err)
	}
	return httpx.OK(c, http.StatusOK, toResultResponse(res), "Wallet debited successfully")
}

// bindAdjust decodes an admin adjustment. The client id is trimmed so it
// names the same account as the client-id header does.
func bindAdjust(c *fiber.Ctx) (adjustRequest, decimal.Decimal, error) {
	var req adjustRequest
	if err := httpx.Bind(c, &req); err != nil {
		return req, decimal.Decimal{}, err
	}
	req.ClientID = strings.TrimSpace(req.ClientID)
	amount, err := req.Amount.Decimal()
	if err != nil {
		return req, decimal.Decimal{}, toHTTPError(err)
	}
	return req, amount, nil
}

// Balance returns the caller's balance.
func (h *Handler) Balance(c *fiber.Ctx) error {
	clientID, _ := c.Locals("client_id").(string)
	bal, err := h.service.Balance(c.UserContext(), clientID)
	if err != nil {
		return toHTTPError(err)
	}
	return httpx.OK(c, http.StatusOK, balanceResponse{
		ClientID:    bal.ClientID,
		Balance:     money.Number(bal.Amount),
		LastUpdated: bal.LastUpdated,
	}, "")
}

// Transactions lists the caller's ledger entries.
func (h *Handler) Transactions(c *fiber.Ctx) error {
	clientID, _ := c.Locals("client_id").(string)
	return h.history(c, clientID)
}

// Entries lists any client's ledger entries (admin only).
func (h *Handler) Entries(c *fiber.Ctx) error {
	return h.history(c, c.Params("clientId"))
}

func (h *Handler) history(c *fiber.Ctx, clientID string) error {
	entries, err := h.service.History(c.UserContext(), clientID, c.QueryInt("limit", ledger.DefaultEntriesLimit))
	if err != nil {
		return toHTTPError(err)
	}
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryResponse{
			ID:            e.ID,
			Type:          e.Kind,
			Amount:        money.Number(e.Amount),
			BalanceBefore: money.Number(e.BalanceBefore),
			BalanceAfter:  money.Number(e.BalanceAfter),
			ReferenceID:   e.ReferenceID,
			Description:   e.Description,
			CreatedAt:     e.CreatedAt,
		})
	}
	return httpx.List(c, out)
}

func toResultResponse(r Result) resultResponse {
	return resultResponse{
		ClientID:        r.ClientID,
		Type:            r.Kind,
		PreviousBalance: money.Number(r.PreviousBalance),
		NewBalance:      money.Number(r.NewBalance),
		Amount:          money.Number(r.Amount),
		EntryID:         r.EntryID,
		Timestamp:       r.At,
	}
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, money.ErrInvalidAmount):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrClientIDRequired):
		return fiber.NewError(http.StatusBadRequest, "client_id is required")
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return fiber.NewError(http.StatusBadRequest, "Insufficient balance")
	case errors.Is(err, ledger.ErrBalanceLimit):
		return fiber.NewError(http.StatusBadRequest, "Balance limit exceeded")
	case errors.Is(err, ledger.ErrAccountNotFound):
		return fiber.NewError(http.StatusNotFound, "Wallet not found")
	default:
		return err
	}
}
