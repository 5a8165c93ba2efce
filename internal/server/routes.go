package server

import (
	"time"

	"github.com/Kyz7/rbac-console/internal/access"
	"github.com/Kyz7/rbac-console/internal/auth"
	"github.com/Kyz7/rbac-console/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func SetupRoutes(app *fiber.App, h *handler) {
	// Middleware
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, DELETE, OPTIONS",
	}))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"message": "RBAC console is running",
		})
	})

	// ==========================================
	// CONSOLE (authenticated admins)
	// ==========================================
	consoleGroup := app.Group("/console")
	consoleGroup.Use(auth.JWTProtected())

	// Sessions
	consoleGroup.Post("/sessions",
		limiter.New(limiter.Config{
			Max:        30,
			Expiration: 1 * time.Minute,
		}),
		middleware.CapabilityProtected(h.gate, access.EditUser, access.EditRole),
		h.createSession)
	consoleGroup.Post("/sessions/:id/events", h.dispatchEvent)
	consoleGroup.Post("/sessions/:id/avatar", h.uploadAvatar)
	consoleGroup.Delete("/sessions/:id", h.closeSession)

	// Pickers
	consoleGroup.Get("/permissions",
		middleware.CapabilityProtected(h.gate, access.ViewPermissions, access.EditUser, access.EditRole),
		h.listPermissions)
	consoleGroup.Get("/roles",
		middleware.CapabilityProtected(h.gate, access.ViewRoles, access.EditUser),
		h.listRoles)
}
