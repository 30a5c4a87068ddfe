package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/wallet_orders/internal/auth"
	"github.com/congo-pay/wallet_orders/internal/config"
	"github.com/congo-pay/wallet_orders/internal/fulfillment"
	"github.com/congo-pay/wallet_orders/internal/identity"
	"github.com/congo-pay/wallet_orders/internal/ledger"
	"github.com/congo-pay/wallet_orders/internal/middleware"
	"github.com/congo-pay/wallet_orders/internal/notification"
	"github.com/congo-pay/wallet_orders/internal/orders"
	"github.com/congo-pay/wallet_orders/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
	// Registry receives application metrics. A fresh registry is created
	// when nil.
	Registry *prometheus.Registry
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though config also checks.
	if !d.Cfg.IsDevelopment() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}
	if d.Registry == nil {
		d.Registry = prometheus.NewRegistry()
		d.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))
	app.Use(middleware.RateLimit(d.Cache, d.Cfg.RateLimitPerMinute, time.Minute, d.Logger))

	RegisterHealthRoutes(app, d)

	// Storage backends fall back to memory when running without Postgres.
	var (
		ledgerBackend ledger.Ledger
		orderRepo     orders.Repository
		identityRepo  identity.Repository
	)
	if d.DB != nil {
		ledgerBackend = ledger.NewPostgresLedger(d.DB)
		orderRepo = orders.NewPostgresRepository(d.DB)
		identityRepo = identity.NewPostgresRepository(d.DB)
	} else {
		d.Logger.Warn("no database configured, using in-memory stores")
		ledgerBackend = ledger.NewInMemory()
		orderRepo = orders.NewMemoryRepository()
		identityRepo = identity.NewMemoryRepository()
	}

	walletSvc := wallet.NewService(ledgerBackend, d.Logger)
	identitySvc := identity.NewService(identityRepo, walletSvc, d.Logger)
	tokenSvc := auth.NewService(d.Cfg.JWTSecret, d.Cfg.AccessTokenTTL)
	fulfillmentClient := fulfillment.NewClient(fulfillment.Config{
		URL:     d.Cfg.Fulfillment.URL,
		Timeout: d.Cfg.Fulfillment.Timeout,
		Policy: fulfillment.Policy{
			MaxAttempts: d.Cfg.Fulfillment.MaxAttempts,
			BaseDelay:   d.Cfg.Fulfillment.BaseDelay,
			MaxDelay:    d.Cfg.Fulfillment.MaxDelay,
		},
	}, fulfillment.WithLogger(d.Logger), fulfillment.WithMetrics(fulfillment.NewMetrics(d.Registry)))
	orderSvc := orders.NewService(
		orderRepo,
		walletSvc,
		fulfillmentClient,
		notification.NewLoggerNotifier(d.Logger),
		d.Logger,
		d.Cfg.Fulfillment.MaxAttempts,
		orders.WithMetrics(orders.NewMetrics(d.Registry)),
	)

	// Identity is resolved for every API route; each group decides whether
	// it is required.
	app.Use(middleware.ClientIdentity(tokenSvc, d.Cfg.TrustClientIDHeader))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	requireClient := middleware.RequireClient(d.Cfg.TrustClientIDHeader)
	adminOnly := middleware.AdminOnly(d.Cfg.AdminAPIKey)

	RegisterAuthRoutes(app, auth.NewHandler(identitySvc, tokenSvc), requireClient)
	RegisterUserRoutes(app, identity.NewHandler(identitySvc), adminOnly)
	RegisterWalletRoutes(app, wallet.NewHandler(walletSvc), requireClient, adminOnly)
	RegisterOrderRoutes(app, orders.NewHandler(orderSvc), requireClient)

	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(http.StatusNotFound, fmt.Sprintf("Route %s %s not found", c.Method(), c.Path()))
	})
	return nil
}
