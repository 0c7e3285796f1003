package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/whybepb/campus-fixit/internal/api/http/handlers"
	"github.com/whybepb/campus-fixit/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Issues         *handlers.IssuesHandler
	Users          *handlers.UsersHandler
	AuthMiddleware *auth.Middleware
	UploadDir      string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	if cfg.UploadDir != "" {
		app.Static("/uploads", cfg.UploadDir)
	}

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/signup", cfg.Auth.Signup)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/forgot-password", cfg.Auth.ForgotPassword)
	authGroup.Post("/reset-password", cfg.Auth.ResetPassword)

	authProtected := authGroup.Group("", cfg.AuthMiddleware.Handle)
	authProtected.Get("/me", cfg.Auth.Me)
	authProtected.Post("/logout", cfg.Auth.Logout)
	authProtected.Put("/change-password", cfg.Auth.ChangePassword)

	issues := api.Group("/issues", cfg.AuthMiddleware.Handle)
	// Static paths must come before the :id wildcard.
	issues.Get("/stats", auth.RequireAdmin(), cfg.Issues.Stats)
	issues.Get("/my", cfg.Issues.ListMine)
	issues.Get("/", cfg.Issues.List)
	issues.Post("/", cfg.Issues.Create)
	issues.Get("/:id", cfg.Issues.Get)
	issues.Put("/:id", cfg.Issues.Update)
	issues.Delete("/:id", cfg.Issues.Delete)

	users := api.Group("/users", cfg.AuthMiddleware.Handle)
	users.Get("/stats/overview", auth.RequireAdmin(), cfg.Users.Stats)
	users.Get("/", auth.RequireAdmin(), cfg.Users.List)
	users.Get("/:id", cfg.Users.Get)
	users.Put("/:id/role", auth.RequireAdmin(), cfg.Users.ChangeRole)
	users.Put("/:id", cfg.Users.Update)
	users.Delete("/:id", auth.RequireAdmin(), cfg.Users.Delete)
}
