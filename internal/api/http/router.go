package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/callcenter-service/internal/api/http/handlers"
	"github.com/spec-kit/callcenter-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Records        *handlers.RecordsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	api := app.Group("/api")

	api.Get("/health", cfg.Health.Ready)
	api.Get("/health/live", cfg.Health.Live)

	api.Post("/auth/login", cfg.Auth.Login)

	protected := api.Group("", cfg.AuthMiddleware.Handle)

	protected.Get("/user/me", cfg.Users.Me)

	users := protected.Group("/users")
	users.Get("", auth.RequireAdmin(), cfg.Users.List)
	users.Post("", auth.RequireAdmin(), cfg.Users.Create)
	users.Put("/:id", cfg.Users.Update)
	users.Delete("/:id", auth.RequireAdmin(), cfg.Users.Delete)

	records := protected.Group("/records")
	records.Get("", cfg.Records.List)
	records.Post("", cfg.Records.Create)
	records.Get("/:id", cfg.Records.Get)
	records.Put("/:id", cfg.Records.Update)
	records.Delete("/:id", cfg.Records.Delete)
}
