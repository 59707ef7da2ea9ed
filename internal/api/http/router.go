package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/peterfiasco/easylawBe-sub000/internal/api/http/handlers"
	"github.com/peterfiasco/easylawBe-sub000/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Requests       *handlers.RequestsHandler
	Admin          *handlers.AdminHandler
	Pricing        *handlers.PricingHandler
	AuthMiddleware *auth.AuthMiddleware
	// Gatherer backs /metrics when set.
	Gatherer prometheus.Gatherer
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api/v1")
	api.Get("/quote", cfg.Pricing.Quote)

	requests := api.Group("/requests", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	requests.Post("/", cfg.Requests.CreateRequest)
	requests.Get("/", cfg.Requests.ListRequests)
	requests.Get("/:reference", cfg.Requests.GetRequest)
	requests.Patch("/:reference", cfg.Requests.UpdateRequest)
	requests.Post("/:reference/cancel", cfg.Requests.CancelRequest)
	requests.Post("/:reference/notes", cfg.Requests.AddNote)
	requests.Post("/:reference/documents", cfg.Requests.AddDocument)
	requests.Get("/:reference/documents/:documentID", cfg.Requests.DownloadDocument)

	admin := api.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	admin.Get("/requests/export", cfg.Admin.ExportRequests)
	admin.Post("/requests/:reference/status", cfg.Admin.TransitionStatus)
	admin.Post("/requests/:reference/payments", cfg.Admin.RecordPayment)
	admin.Get("/pricing", cfg.Pricing.ListEntries)
	admin.Post("/pricing", cfg.Pricing.CreateEntry)
	admin.Put("/pricing", cfg.Pricing.ReplaceEntry)
	admin.Delete("/pricing/:id", cfg.Pricing.DeactivateEntry)
}
