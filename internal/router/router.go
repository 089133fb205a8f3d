package router

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/noah-isme/vincula-api/internal/config"
	"github.com/noah-isme/vincula-api/internal/handler"
	"github.com/noah-isme/vincula-api/internal/middleware"
	"github.com/noah-isme/vincula-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	DB                *gorm.DB
	MatchingHandler   *handler.MatchingHandler
	RequestHandler    *handler.RequestHandler
	ChatHandler       *handler.ChatHandler
	CatalogHandler    *handler.CatalogHandler
	ActivityHandler   *handler.ActivityHandler
	JWTMiddleware     fiber.Handler
	ProfileMiddleware fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.DB))
	api.Get("/metrics", observability.MetricsHandler())

	// Authenticated routes run JWT verification first, then bind the caller's profile.
	passthrough := func(c *fiber.Ctx) error { return c.Next() }
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = passthrough
	}
	profileMiddleware := deps.ProfileMiddleware
	if profileMiddleware == nil {
		profileMiddleware = passthrough
	}
	secured := func(prefix string) fiber.Router {
		return api.Group(prefix, jwtMiddleware, profileMiddleware)
	}

	if deps.MatchingHandler != nil {
		deps.MatchingHandler.Register(secured("/matching"))
	}

	if deps.RequestHandler != nil {
		deps.RequestHandler.Register(secured("/requests"))
	}

	if deps.ChatHandler != nil {
		deps.ChatHandler.Register(secured("/chats"))
	}

	if deps.CatalogHandler != nil {
		deps.CatalogHandler.RegisterCapabilities(secured("/capabilities"))
		deps.CatalogHandler.RegisterChallenges(secured("/challenges"))
		deps.CatalogHandler.RegisterKeywords(secured("/keywords"))
	}

	if deps.ActivityHandler != nil {
		admin := secured("/admin")
		admin.Use(middleware.RequireRole(middleware.AuthRoleAdmin))
		deps.ActivityHandler.Register(admin.Group("/activity"))
	}
}
