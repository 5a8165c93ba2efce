package middleware_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/Kyz7/rbac-console/internal/access"
	"github.com/Kyz7/rbac-console/internal/auth"
	"github.com/Kyz7/rbac-console/internal/middleware"
	"github.com/Kyz7/rbac-console/internal/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(gate access.Gate, capabilities ...string) *fiber.App {
	app := fiber.New()
	app.Get("/protected", auth.JWTProtected(), middleware.CapabilityProtected(gate, capabilities...), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func request(t *testing.T, app *fiber.App, token string) int {
	req := httptest.NewRequest("GET", "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestCapabilityProtected(t *testing.T) {
	granted := map[string]bool{access.ViewRoles: true}
	gate := access.GateFunc(func(_ context.Context, p access.Principal, capability string) bool {
		return p.UserID == 42 && granted[capability]
	})

	token, err := utils.GenerateJWT(42)
	require.NoError(t, err)

	t.Run("Success - Any listed capability is enough", func(t *testing.T) {
		app := newApp(gate, access.EditRole, access.ViewRoles)
		assert.Equal(t, 200, request(t, app, token))
	})

	t.Run("Error - Capability missing", func(t *testing.T) {
		app := newApp(gate, access.EditRole)
		assert.Equal(t, 403, request(t, app, token))
	})

	t.Run("Error - No token", func(t *testing.T) {
		app := newApp(gate, access.ViewRoles)
		assert.Equal(t, 401, request(t, app, ""))
	})

	t.Run("Error - Malformed token", func(t *testing.T) {
		app := newApp(gate, access.ViewRoles)
		assert.Equal(t, 401, request(t, app, "not-a-jwt"))
	})
}
