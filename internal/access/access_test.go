package access_test

import (
	"context"
	"testing"
	"time"

	"github.com/Kyz7/rbac-console/internal/access"
	"github.com/Kyz7/rbac-console/internal/association"
	"github.com/Kyz7/rbac-console/internal/models"
	"github.com/Kyz7/rbac-console/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermissionGate(t *testing.T) {
	ctx := context.Background()
	db := testutils.TestDB(t)
	perms := testutils.CreatePermissions(t, db, access.EditUser, access.EditRole, access.ViewUsers)

	editors := testutils.CreateRole(t, db, "editors", perms[1])
	u := testutils.CreateTestUser(t, db, "gate@test.com", "Secret#1", []models.Role{*editors}, perms[0])
	gate := access.NewPermissionGate(db, time.Minute, testutils.Logger())
	p := access.Principal{UserID: u.ID}

	t.Run("Success - Direct grant", func(t *testing.T) {
		assert.True(t, gate.CanAccess(ctx, p, access.EditUser))
	})

	t.Run("Success - Grant through a role", func(t *testing.T) {
		assert.True(t, gate.CanAccess(ctx, p, access.EditRole))
	})

	t.Run("Error - Not granted", func(t *testing.T) {
		assert.False(t, gate.CanAccess(ctx, p, access.ViewUsers))
	})

	t.Run("Error - Anonymous principal", func(t *testing.T) {
		assert.False(t, gate.CanAccess(ctx, access.Principal{}, access.EditUser))
	})

	t.Run("Success - Cached until invalidated", func(t *testing.T) {
		require.NoError(t, association.Replace(ctx, db, association.UserPermissions, u.ID, []uint{perms[2].ID}))
		assert.False(t, gate.CanAccess(ctx, p, access.ViewUsers))

		gate.Invalidate(u.ID)
		assert.True(t, gate.CanAccess(ctx, p, access.ViewUsers))
		assert.False(t, gate.CanAccess(ctx, p, access.EditUser))
	})

	t.Run("Success - Deleted roles grant nothing", func(t *testing.T) {
		require.NoError(t, db.Delete(editors).Error)
		gate.Flush()
		assert.False(t, gate.CanAccess(ctx, p, access.EditRole))
	})
}
