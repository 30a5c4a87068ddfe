package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterHealthRoutes adds the health and metrics endpoints.
func RegisterHealthRoutes(app *fiber.App, d Deps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		dbStatus := "ok"
		redisStatus := "ok"

		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if d.DB == nil {
			dbStatus = "in-memory"
		} else if err := d.DB.Ping(ctx); err != nil {
			dbStatus = err.Error()
		}
		if d.Cache == nil {
			redisStatus = "disabled"
		} else if err := d.Cache.Ping(ctx).Err(); err != nil {
			redisStatus = err.Error()
		}

		status := http.StatusOK
		healthy := true
		if (d.DB != nil && dbStatus != "ok") || (d.Cache != nil && redisStatus != "ok") {
			status = http.StatusServiceUnavailable
			healthy = false
		}
		return c.Status(status).JSON(fiber.Map{
			"success":     healthy,
			"status":      fiber.Map{"postgres": dbStatus, "redis": redisStatus},
			"environment": d.Cfg.AppEnv,
			"timestamp":   time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))
}
