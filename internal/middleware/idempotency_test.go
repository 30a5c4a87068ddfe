package middleware

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/wallet_orders/internal/httpx"
	"github.com/congo-pay/wallet_orders/internal/logging"
)

type idempotencyFixture struct {
	app   *fiber.App
	mr    *miniredis.Miniredis
	calls atomic.Int32
}

func setupTestApp(t *testing.T) (*idempotencyFixture, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}

	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	fx := &idempotencyFixture{mr: mr}
	logger := logging.Discard()
	fx.app = fiber.New(fiber.Config{ErrorHandler: httpx.ErrorHandler(logger)})
	fx.app.Use(func(c *fiber.Ctx) error {
		c.Locals(localClientID, c.Get(clientIDHeader))
		return c.Next()
	})
	fx.app.Use(Idempotency(cache, time.Minute, logger))
	fx.app.Post("/resource", func(c *fiber.Ctx) error {
		n := fx.calls.Add(1)
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"call": n})
	})
	fx.app.Post("/charged", func(c *fiber.Ctx) error {
		n := fx.calls.Add(1)
		return httpx.NewError(fiber.StatusGatewayTimeout, "fulfillment failed", fiber.Map{"call": n})
	})
	fx.app.Post("/broken", func(c *fiber.Ctx) error {
		fx.calls.Add(1)
		return io.ErrUnexpectedEOF
	})

	cleanup := func() {
		cache.Close()
		mr.Close()
	}

	return fx, cleanup
}

func (fx *idempotencyFixture) post(t *testing.T, path, key, clientID string) (int, string, string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader("{}"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if key != "" {
		req.Header.Set(idempotencyKeyHeader, key)
	}
	req.Header.Set(clientIDHeader, clientID)
	resp, err := fx.app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(payload), resp.Header.Get(replayedHeader)
}

func TestIdempotencyPassesThroughWithoutKey(t *testing.T) {
	fx, cleanup := setupTestApp(t)
	defer cleanup()

	fx.post(t, "/resource", "", "C1")
	fx.post(t, "/resource", "", "C1")
	if got := fx.calls.Load(); got != 2 {
		t.Fatalf("expected handler to run twice, ran %d times", got)
	}
}

func TestIdempotencyReturnsCachedResponse(t *testing.T) {
	fx, cleanup := setupTestApp(t)
	defer cleanup()

	status, payload, _ := fx.post(t, "/resource", "abc123", "C1")
	if status != fiber.StatusCreated {
		t.Fatalf("expected status %d got %d", fiber.StatusCreated, status)
	}

	// Second request should return the cached response without invoking handler again.
	status2, cachedPayload, replayed := fx.post(t, "/resource", "abc123", "C1")
	if status2 != fiber.StatusCreated {
		t.Fatalf("expected cached status %d got %d", fiber.StatusCreated, status2)
	}
	if cachedPayload != payload {
		t.Fatalf("expected cached payload %s got %s", payload, cachedPayload)
	}
	if replayed != "true" {
		t.Fatalf("expected replay marker")
	}
	if got := fx.calls.Load(); got != 1 {
		t.Fatalf("handler ran %d times", got)
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(cachedPayload), &decoded); err != nil {
		t.Fatalf("cached payload invalid json: %v", err)
	}
}

func TestIdempotencyKeysAreScopedPerClient(t *testing.T) {
	fx, cleanup := setupTestApp(t)
	defer cleanup()

	fx.post(t, "/resource", "same", "C1")
	fx.post(t, "/resource", "same", "C2")
	if got := fx.calls.Load(); got != 2 {
		t.Fatalf("expected separate executions per client, got %d", got)
	}
}

func TestIdempotencyReplaysRenderedErrors(t *testing.T) {
	fx, cleanup := setupTestApp(t)
	defer cleanup()

	status, first, _ := fx.post(t, "/charged", "k1", "C1")
	if status != fiber.StatusGatewayTimeout {
		t.Fatalf("expected 504, got %d", status)
	}
	status, second, replayed := fx.post(t, "/charged", "k1", "C1")
	if status != fiber.StatusGatewayTimeout || second != first || replayed != "true" {
		t.Fatalf("expected replayed 504, got %d %s", status, second)
	}
	if got := fx.calls.Load(); got != 1 {
		t.Fatalf("charged request must not run twice, ran %d", got)
	}
}

func TestIdempotencyReleasesKeyOnInternalError(t *testing.T) {
	fx, cleanup := setupTestApp(t)
	defer cleanup()

	status, _, _ := fx.post(t, "/broken", "k2", "C1")
	if status != fiber.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", status)
	}
	fx.post(t, "/broken", "k2", "C1")
	if got := fx.calls.Load(); got != 2 {
		t.Fatalf("expected retry after 500, ran %d", got)
	}
}

func TestIdempotencyRejectsConcurrentDuplicate(t *testing.T) {
	fx, cleanup := setupTestApp(t)
	defer cleanup()

	if err := fx.mr.Set(idempotencyPrefix+"C1:POST:/resource:busy", inProgressMarker); err != nil {
		t.Fatalf("seed: %v", err)
	}
	status, _, _ := fx.post(t, "/resource", "busy", "C1")
	if status != fiber.StatusConflict {
		t.Fatalf("expected 409, got %d", status)
	}
}
