package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/wallet_orders/internal/config"
	"github.com/congo-pay/wallet_orders/internal/httpx"
	"github.com/congo-pay/wallet_orders/internal/routes"
)

// Server wraps the Fiber application and shared dependencies.
type Server struct {
	app *fiber.App
	cfg config.Config
}

// New instantiates the HTTP server and delegates route wiring to routes.Setup.
func New(cfg config.Config, db *pgxpool.Pool, cache *redis.Client, logger *slog.Logger) (*Server, error) {
	// Order creation can span every fulfillment attempt and backoff, so the
	// write timeout follows the retry budget. Access logs come from
	// middleware.Audit.
	app := fiber.New(fiber.Config{
		AppName:               cfg.AppName,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          writeTimeout(cfg),
		ErrorHandler:          httpx.ErrorHandler(logger),
		DisableStartupMessage: !cfg.IsDevelopment(),
	})

	if err := routes.Setup(app, routes.Deps{Cfg: cfg, DB: db, Cache: cache, Logger: logger}); err != nil {
		return nil, err
	}

	return &Server{app: app, cfg: cfg}, nil
}

// Listen starts the HTTP server.
func (s *Server) Listen() error {
	return s.app.Listen(s.cfg.Address())
}

// Shutdown gracefully stops the HTTP server, letting in-flight orders finish.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func writeTimeout(cfg config.Config) time.Duration {
	f := cfg.Fulfillment
	budget := time.Duration(f.MaxAttempts)*(f.Timeout+f.MaxDelay) + 10*time.Second
	if budget < 30*time.Second {
		return 30 * time.Second
	}
	return budget
}
