package server

import (
	"testing"
	"time"

	"github.com/congo-pay/wallet_orders/internal/config"
)

func TestWriteTimeoutCoversRetryBudget(t *testing.T) {
	cfg := config.Config{Fulfillment: config.Fulfillment{MaxAttempts: 3, Timeout: 5 * time.Second, MaxDelay: 5 * time.Second}}
	if got := writeTimeout(cfg); got != 40*time.Second {
		t.Fatalf("expected 40s, got %s", got)
	}

	cfg.Fulfillment = config.Fulfillment{MaxAttempts: 1, Timeout: time.Second}
	if got := writeTimeout(cfg); got != 30*time.Second {
		t.Fatalf("expected floor of 30s, got %s", got)
	}
}
