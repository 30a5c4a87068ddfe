package identity

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/wallet_orders/internal/httpx"
	"github.com/congo-pay/wallet_orders/internal/logging"
)

func setupUserApp(t *testing.T) *fiber.App {
	t.Helper()
	svc, _ := newTestService()
	h := NewHandler(svc)
	app := fiber.New(fiber.Config{ErrorHandler: httpx.ErrorHandler(logging.Discard())})
	app.Post("/users/create", h.Create)
	app.Get("/users", h.List)
	app.Get("/users/:clientId", h.Get)
	app.Patch("/users/:clientId", h.Update)
	app.Delete("/users/:clientId", h.Delete)
	return app
}

func send(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp.StatusCode, out
}

func TestUserEndpoints(t *testing.T) {
	app := setupUserApp(t)

	status, body := send(t, app, http.MethodPost, "/users/create", `{"client_id":"C1","name":"Ada","email":"ada@example.com"}`)
	if status != http.StatusCreated {
		t.Fatalf("expected 201, got %d %v", status, body)
	}

	status, body = send(t, app, http.MethodPost, "/users/create", `{"client_id":"C1"}`)
	if status != http.StatusConflict || body["error"] != ErrClientIDTaken.Error() {
		t.Fatalf("expected 409, got %d %v", status, body)
	}

	status, body = send(t, app, http.MethodPost, "/users/create", `{"email":"not-an-email"}`)
	if status != http.StatusBadRequest || body["error"] != "Invalid email address" {
		t.Fatalf("expected 400, got %d %v", status, body)
	}

	status, body = send(t, app, http.MethodGet, "/users/C1", "")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	data := body["data"].(map[string]any)
	if data["clientId"] != "C1" || data["wallet"].(map[string]any)["balance"] != float64(0) {
		t.Fatalf("unexpected user payload: %v", data)
	}

	status, _ = send(t, app, http.MethodGet, "/users/ghost", "")
	if status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}

	status, body = send(t, app, http.MethodPatch, "/users/C1", `{"name":"Grace"}`)
	if status != http.StatusOK || body["data"].(map[string]any)["name"] != "Grace" {
		t.Fatalf("update failed: %d %v", status, body)
	}

	status, body = send(t, app, http.MethodGet, "/users?limit=10", "")
	if status != http.StatusOK || body["count"] != float64(1) {
		t.Fatalf("list failed: %d %v", status, body)
	}

	status, _ = send(t, app, http.MethodDelete, "/users/C1", "")
	if status != http.StatusOK {
		t.Fatalf("delete failed: %d", status)
	}
}
