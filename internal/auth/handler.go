package auth

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/wallet_orders/internal/httpx"
	"github.com/congo-pay/wallet_orders/internal/identity"
)

// Handler exposes login, registration and profile endpoints.
type Handler struct {
	ids    *identity.Service
	tokens *Service
}

// NewHandler builds an auth HTTP handler.
func NewHandler(ids *identity.Service, tokens *Service) *Handler {
	return &Handler{ids: ids, tokens: tokens}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	ClientID string `json:"clientId" validate:"required,max=255"`
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type sessionResponse struct {
	Token     string                `json:"token"`
	ExpiresAt time.Time             `json:"expiresAt"`
	User      identity.UserResponse `json:"user"`
}

// Login exchanges an email and password for an access token.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := httpx.Bind(c, &req); err != nil {
		return err
	}
	user, err := h.ids.Authenticate(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return identity.ToHTTPError(err)
	}
	return h.session(c, http.StatusOK, user, "Login successful")
}

// Register creates a regular user and signs them in.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := httpx.Bind(c, &req); err != nil {
		return err
	}
	user, err := h.ids.Create(c.UserContext(), identity.NewUser{
		ClientID: req.ClientID,
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return identity.ToHTTPError(err)
	}
	return h.session(c, http.StatusCreated, user, "Registration successful")
}

// Profile returns the authenticated caller.
func (h *Handler) Profile(c *fiber.Ctx) error {
	clientID, _ := c.Locals("client_id").(string)
	if clientID == "" {
		return fiber.NewError(http.StatusUnauthorized, "Authentication required")
	}
	user, err := h.ids.Get(c.UserContext(), clientID)
	if err != nil {
		return identity.ToHTTPError(err)
	}
	return httpx.OK(c, http.StatusOK, fiber.Map{"user": identity.ToResponse(user)}, "")
}

func (h *Handler) session(c *fiber.Ctx, status int, user identity.User, message string) error {
	token, err := h.tokens.Issue(user)
	if err != nil {
		return err
	}
	return httpx.OK(c, status, sessionResponse{
		Token:     token.Value,
		ExpiresAt: token.ExpiresAt,
		User:      identity.ToResponse(user),
	}, message)
}
