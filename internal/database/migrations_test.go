package database_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Kyz7/rbac-console/internal/database"
	"github.com/Kyz7/rbac-console/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMigrations(t *testing.T) {
	db := testutils.TestDB(t)
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "001_roles_name.sql"),
		[]byte("CREATE INDEX IF NOT EXISTS idx_roles_description ON roles (description);"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "002_user_roles.sql"),
		[]byte("CREATE INDEX IF NOT EXISTS idx_user_roles_role ON user_roles (role_id);"), 0644))

	t.Run("Success - Applies every file once", func(t *testing.T) {
		require.NoError(t, database.RunMigrations(db, dir, testutils.Logger()))
		require.NoError(t, database.RunMigrations(db, dir, testutils.Logger()))

		applied, err := database.GetAppliedMigrations(db)
		require.NoError(t, err)
		assert.Len(t, applied, 2)
	})

	t.Run("Error - Broken migration is not recorded", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "003_broken.sql"), []byte("CREATE NONSENSE;"), 0644))

		err := database.RunMigrations(db, dir, testutils.Logger())
		assert.Error(t, err)

		applied, err := database.GetAppliedMigrations(db)
		require.NoError(t, err)
		assert.Len(t, applied, 2)
	})
}
