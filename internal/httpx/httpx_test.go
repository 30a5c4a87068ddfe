package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/congo-pay/wallet_orders/internal/logging"
)

func newApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logging.Discard())})
	app.Post("/bind", func(c *fiber.Ctx) error {
		var req struct {
			ClientID string `json:"client_id" validate:"required"`
		}
		if err := Bind(c, &req); err != nil {
			return err
		}
		return OK(c, fiber.StatusOK, req.ClientID, "bound")
	})
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("pq: secret detail") })
	app.Get("/payload", func(c *fiber.Ctx) error {
		return NewError(fiber.StatusBadGateway, "charged", fiber.Map{"orderId": "ORD-1"})
	})
	return app
}

func decode(t *testing.T, body io.Reader) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.NewDecoder(body).Decode(&env))
	return env
}

func TestBindReportsMissingField(t *testing.T) {
	req := httptest.NewRequest(fiber.MethodPost, "/bind", strings.NewReader(`{}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := newApp().Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	env := decode(t, resp.Body)
	require.False(t, env.Success)
	require.Equal(t, "client_id is required", env.Error)
}

func TestErrorHandlerHidesUnknownErrors(t *testing.T) {
	resp, err := newApp().Test(httptest.NewRequest(fiber.MethodGet, "/boom", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	env := decode(t, resp.Body)
	require.Equal(t, "Internal server error", env.Error)
}

func TestErrorHandlerKeepsPayload(t *testing.T) {
	resp, err := newApp().Test(httptest.NewRequest(fiber.MethodGet, "/payload", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
	env := decode(t, resp.Body)
	require.Equal(t, "charged", env.Error)
	require.Equal(t, map[string]any{"orderId": "ORD-1"}, env.Data)
}
