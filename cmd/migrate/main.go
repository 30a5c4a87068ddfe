package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/congo-pay/wallet_orders/internal/config"
	"github.com/congo-pay/wallet_orders/internal/infra"
	"github.com/congo-pay/wallet_orders/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger, syncLogs := logging.New(cfg.LogLevel)
	defer func() { _ = syncLogs() }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := infra.NewPostgresPool(ctx, cfg.DatabaseURL, cfg.Postgres)
	if err != nil {
		logger.Error("connect postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := infra.Migrate(ctx, db); err != nil {
		logger.Error("migrate schema", "error", err)
		os.Exit(1)
	}
	logger.Info("schema applied")
}
