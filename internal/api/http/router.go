package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/civic-triage/internal/api/http/handlers"
	"github.com/spec-kit/civic-triage/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Issues         *handlers.IssuesHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
	Gatherer       prometheus.Gatherer
	// ImagesPrefix and ImagesDir serve stored images when the prefix is a
	// local path. An absolute URL prefix means images are served elsewhere.
	ImagesPrefix string
	ImagesDir    string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	if cfg.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}
	if strings.HasPrefix(cfg.ImagesPrefix, "/") && cfg.ImagesDir != "" {
		app.Static(strings.TrimRight(cfg.ImagesPrefix, "/"), cfg.ImagesDir, fiber.Static{
			ByteRange: true,
			Browse:    false,
		})
	}

	api := app.Group("/api", cfg.AuthMiddleware.Handle)
	api.Post("/issues", cfg.Issues.Submit)
	api.Get("/issues", cfg.Issues.ListMine)

	admin := api.Group("/admin", auth.RequireAdmin())
	admin.Get("/issues", cfg.Admin.ListIssues)
	admin.Patch("/issues/:id/status", cfg.Admin.UpdateStatus)
	admin.Put("/issues/:id/department", cfg.Admin.AssignDepartment)
	admin.Get("/departments", cfg.Admin.ListDepartments)
}
