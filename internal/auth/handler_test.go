package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/congo-pay/wallet_orders/internal/httpx"
	"github.com/congo-pay/wallet_orders/internal/identity"
	"github.com/congo-pay/wallet_orders/internal/ledger"
	"github.com/congo-pay/wallet_orders/internal/logging"
	"github.com/congo-pay/wallet_orders/internal/wallet"
)

func setupAuthApp(t *testing.T) (*fiber.App, *Service) {
	t.Helper()
	ids := identity.NewService(identity.NewMemoryRepository(), wallet.NewService(ledger.NewInMemory(), logging.Discard()), logging.Discard())
	tokens := NewService("secret", time.Hour)
	h := NewHandler(ids, tokens)
	app := fiber.New(fiber.Config{ErrorHandler: httpx.ErrorHandler(logging.Discard())})
	app.Post("/auth/login", h.Login)
	app.Post("/auth/register", h.Register)
	app.Get("/auth/profile", func(c *fiber.Ctx) error {
		token := strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		if claims, err := tokens.Parse(token); err == nil {
			c.Locals("client_id", claims.ClientID)
		}
		return c.Next()
	}, h.Profile)
	return app, tokens
}

func post(t *testing.T, app *fiber.App, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return do(t, app, req)
}

func do(t *testing.T, app *fiber.App, req *http.Request) (int, map[string]any) {
	t.Helper()
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestRegisterLoginProfile(t *testing.T) {
	app, tokens := setupAuthApp(t)

	status, body := post(t, app, "/auth/register", `{"clientId":"C1","name":"Ada","email":"ada@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusCreated, status, body)
	require.Equal(t, "Registration successful", body["message"])

	status, body = post(t, app, "/auth/register", `{"clientId":"C2","name":"Eve","email":"ada@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusConflict, status)

	status, body = post(t, app, "/auth/login", `{"email":"ada@example.com","password":"nope-nope"}`)
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "Invalid email or password", body["error"])

	status, body = post(t, app, "/auth/login", `{"email":"ada@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, status)
	token := body["data"].(map[string]any)["token"].(string)
	claims, err := tokens.Parse(token)
	require.NoError(t, err)
	require.Equal(t, "C1", claims.ClientID)
	require.False(t, claims.IsAdmin)

	req := httptest.NewRequest(http.MethodGet, "/auth/profile", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	status, body = do(t, app, req)
	require.Equal(t, http.StatusOK, status)
	user := body["data"].(map[string]any)["user"].(map[string]any)
	require.Equal(t, "ada@example.com", user["email"])

	status, _ = do(t, app, httptest.NewRequest(http.MethodGet, "/auth/profile", nil))
	require.Equal(t, http.StatusUnauthorized, status)
}

func TestRegisterRequiresAllFields(t *testing.T) {
	app, _ := setupAuthApp(t)
	status, body := post(t, app, "/auth/register", `{"clientId":"C1","email":"ada@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "name is required", body["error"])
}
