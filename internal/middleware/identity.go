package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/wallet_orders/internal/auth"
)

const (
	clientIDHeader = "client-id"
	apiKeyHeader   = "X-API-Key"

	localClientID = "client_id"
	localUserID   = "user_id"
	localIsAdmin  = "is_admin"
)

// ClientIdentity resolves the caller. A bearer token wins; otherwise the
// client-id header is trusted when trustHeader is set. Requests without
// either pass through anonymously.
func ClientIdentity(tokens *auth.Service, trustHeader bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if authz := c.Get(fiber.HeaderAuthorization); authz != "" {
			scheme, token, ok := strings.Cut(authz, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
				return fiber.NewError(http.StatusUnauthorized, "Invalid authorization format. Use: Bearer <token>")
			}
			claims, err := tokens.Parse(strings.TrimSpace(token))
			if err != nil {
				if errors.Is(err, auth.ErrTokenExpired) {
					return fiber.NewError(http.StatusUnauthorized, auth.ErrTokenExpired.Error())
				}
				return fiber.NewError(http.StatusUnauthorized, auth.ErrInvalidToken.Error())
			}
			c.Locals(localClientID, claims.ClientID)
			c.Locals(localUserID, claims.Subject)
			c.Locals(localIsAdmin, claims.IsAdmin)
			return c.Next()
		}
		if trustHeader {
			if id := strings.TrimSpace(c.Get(clientIDHeader)); id != "" {
				c.Locals(localClientID, id)
			}
		}
		return c.Next()
	}
}

// RequireClient rejects requests ClientIdentity could not attribute.
func RequireClient(trustHeader bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ClientID(c) != "" {
			return c.Next()
		}
		if trustHeader {
			return fiber.NewError(http.StatusBadRequest, "client-id header is required")
		}
		return fiber.NewError(http.StatusUnauthorized, "Authorization header required")
	}
}

// AdminOnly admits callers presenting the admin API key or an admin token.
// An empty apiKey disables key access.
func AdminOnly(apiKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if key := c.Get(apiKeyHeader); key != "" {
			if apiKey != "" && subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) == 1 {
				return c.Next()
			}
			return fiber.NewError(http.StatusUnauthorized, "Invalid API key")
		}
		if admin, _ := c.Locals(localIsAdmin).(bool); admin {
			return c.Next()
		}
		if _, ok := c.Locals(localUserID).(string); ok {
			return fiber.NewError(http.StatusForbidden, "Admin access required")
		}
		return fiber.NewError(http.StatusUnauthorized, "Admin authentication required")
	}
}

// ClientID returns the caller resolved by ClientIdentity, or "".
func ClientID(c *fiber.Ctx) string {
	id, _ := c.Locals(localClientID).(string)
	return id
}
