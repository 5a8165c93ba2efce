package middleware

import (
	"github.com/Kyz7/rbac-console/internal/access"
	"github.com/Kyz7/rbac-console/internal/auth"
	"github.com/Kyz7/rbac-console/internal/response"
	"github.com/gofiber/fiber/v2"
)

// CapabilityProtected lets the request through when the principal holds at
// least one of the capabilities.
func CapabilityProtected(gate access.Gate, capabilities ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := auth.PrincipalFrom(c)
		if p.UserID == 0 {
			return response.Unauthorized(c, "Unauthorized")
		}

		for _, capability := range capabilities {
			if gate.CanAccess(c.UserContext(), p, capability) {
				return c.Next()
			}
		}

		return response.Forbidden(c, "You don't have permission to perform this action")
	}
}
