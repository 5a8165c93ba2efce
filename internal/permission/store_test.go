package permission_test

import (
	"context"
	"testing"

	"github.com/Kyz7/rbac-console/internal/editing"
	"github.com/Kyz7/rbac-console/internal/permission"
	"github.com/Kyz7/rbac-console/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	db := testutils.TestDB(t)
	store := permission.NewStore(db)
	ctx := context.Background()

	testutils.CreatePermissions(t, db, "view_users", "add_role", "edit_user")

	t.Run("Success - Sorted by name", func(t *testing.T) {
		perms, err := store.GetAll(ctx, "name")
		require.NoError(t, err)
		require.Len(t, perms, 3)
		assert.Equal(t, "add_role", perms[0].Name)
		assert.Equal(t, "view_users", perms[2].Name)
	})

	t.Run("Success - Unknown sort column falls back to id", func(t *testing.T) {
		perms, err := store.GetAll(ctx, "name; DROP TABLE permissions")
		require.NoError(t, err)
		assert.Equal(t, "view_users", perms[0].Name)
	})

	t.Run("Success - Ensure is idempotent", func(t *testing.T) {
		first, err := store.Ensure(ctx, "edit_role", "Edit roles")
		require.NoError(t, err)
		second, err := store.Ensure(ctx, "edit_role", "Edit roles")
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
	})

	t.Run("Error - Missing permission", func(t *testing.T) {
		_, err := store.GetByID(ctx, 9999)
		assert.ErrorIs(t, err, editing.ErrNotFound)
	})
}
