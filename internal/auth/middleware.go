package auth

import (
	"strings"

	"github.com/Kyz7/rbac-console/internal/access"
	"github.com/Kyz7/rbac-console/internal/response"
	"github.com/Kyz7/rbac-console/internal/utils"

	"github.com/gofiber/fiber/v2"
)

const userIDKey = "user_id"

// JWTProtected identifies the acting user from a bearer token. Issuing
// tokens is left to the login service.
func JWTProtected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return response.Error(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "Missing authorization token", nil)
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			return response.Error(c, fiber.StatusUnauthorized, "INVALID_TOKEN_FORMAT", "Invalid token format", nil)
		}

		userID, err := utils.ParseJWT(tokenParts[1])
		if err != nil {
			return response.Error(c, fiber.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token", nil)
		}

		c.Locals(userIDKey, userID)
		return c.Next()
	}
}

// PrincipalFrom returns the user identified by JWTProtected, or the zero
// principal on unprotected routes.
func PrincipalFrom(c *fiber.Ctx) access.Principal {
	userID, _ := c.Locals(userIDKey).(uint)
	return access.Principal{UserID: userID}
}
