package identity

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/wallet_orders/internal/httpx"
	"github.com/congo-pay/wallet_orders/internal/money"
)

// Handler exposes user endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs an identity HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	ClientID string `json:"client_id" validate:"max=255"`
	Name     string `json:"name" validate:"max=255"`
	Email    string `json:"email" validate:"omitempty,email,max=255"`
	Password string `json:"password" validate:"omitempty,min=6,max=72"`
	IsAdmin  bool   `json:"is_admin"`
}

type updateRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=255"`
	Email *string `json:"email" validate:"omitempty,email,max=255"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID        string          `json:"id"`
	ClientID  string          `json:"clientId"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	IsAdmin   bool            `json:"isAdmin"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt *time.Time      `json:"updatedAt,omitempty"`
	Wallet    *walletResponse `json:"wallet,omitempty"`
}

type walletResponse struct {
	ID        string    `json:"id"`
	Balance   any       `json:"balance"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Create handles user creation.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := httpx.Bind(c, &req); err != nil {
		return err
	}
	user, err := h.service.Create(c.UserContext(), NewUser{
		ClientID: req.ClientID,
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		IsAdmin:  req.IsAdmin,
	})
	if err != nil {
		return ToHTTPError(err)
	}
	return httpx.OK(c, http.StatusCreated, ToResponse(user), "User created successfully")
}

// Get returns a user and its wallet.
func (h *Handler) Get(c *fiber.Ctx) error {
	user, err := h.service.Get(c.UserContext(), c.Params("clientId"))
	if err != nil {
		return ToHTTPError(err)
	}
	resp, err := h.withWallet(c, user)
	if err != nil {
		return err
	}
	return httpx.OK(c, http.StatusOK, resp, "")
}

// List returns a page of users.
func (h *Handler) List(c *fiber.Ctx) error {
	users, err := h.service.List(c.UserContext(), c.QueryInt("limit", defaultListLimit), c.QueryInt("offset", 0))
	if err != nil {
		return err
	}
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		resp, err := h.withWallet(c, u)
		if err != nil {
			return err
		}
		out = append(out, resp)
	}
	return httpx.List(c, out)
}

// Update changes a user's profile (admin only).
func (h *Handler) Update(c *fiber.Ctx) error {
	var req updateRequest
	if err := httpx.Bind(c, &req); err != nil {
		return err
	}
	user, err := h.service.Update(c.UserContext(), c.Params("clientId"), Changes{Name: req.Name, Email: req.Email})
	if err != nil {
		return ToHTTPError(err)
	}
	resp := ToResponse(user)
	updated := user.UpdatedAt
	resp.UpdatedAt = &updated
	return httpx.OK(c, http.StatusOK, resp, "User updated successfully")
}

// Delete removes a user (admin only).
func (h *Handler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("clientId")); err != nil {
		return ToHTTPError(err)
	}
	return httpx.OK(c, http.StatusOK, nil, "User deleted successfully")
}

func (h *Handler) withWallet(c *fiber.Ctx, user User) (UserResponse, error) {
	resp := ToResponse(user)
	acc, err := h.service.Wallet(c.UserContext(), user.ClientID)
	if err != nil {
		return UserResponse{}, err
	}
	if acc != nil {
		resp.Wallet = &walletResponse{ID: acc.ID, Balance: money.Number(acc.Balance), UpdatedAt: acc.UpdatedAt}
	}
	return resp, nil
}

// ToResponse renders the public fields of a user.
func ToResponse(u User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		ClientID:  u.ClientID,
		Name:      u.Name,
		Email:     u.Email,
		IsAdmin:   u.IsAdmin,
		CreatedAt: u.CreatedAt,
	}
}

// ToHTTPError maps identity errors to HTTP statuses.
func ToHTTPError(err error) error {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrClientIDTaken), errors.Is(err, ErrEmailTaken):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidCredentials):
		return fiber.NewError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrPasswordTooShort):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	default:
		return err
	}
}
