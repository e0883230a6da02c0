package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-triage/internal/api/http/handlers"
	"github.com/spec-kit/ticket-triage/internal/auth"
)

// RouteConfig bundles dependencies for route registration. A nil
// AuthMiddleware leaves the operator routes open.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Triage         *handlers.TriageHandler
	Escalations    *handlers.EscalationsHandler
	Knowledge      *handlers.KnowledgeHandler
	Auth           *handlers.AuthHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/login", cfg.Auth.Login)

	operator := func(h fiber.Handler) []fiber.Handler {
		if cfg.AuthMiddleware == nil {
			return []fiber.Handler{h}
		}
		return []fiber.Handler{cfg.AuthMiddleware.Handle, auth.RequireOperator(), h}
	}

	app.Post("/tickets/triage", operator(cfg.Triage.Triage)...)
	app.Post("/tickets/triage/batch", operator(cfg.Triage.TriageBatch)...)
	app.Get("/escalations", operator(cfg.Escalations.List)...)
	app.Post("/knowledge/reload", operator(cfg.Knowledge.Reload)...)
	app.Get("/metrics", operator(cfg.Knowledge.Metrics)...)
}
