package console_test

import (
	"context"
	"testing"
	"time"

	"github.com/Kyz7/rbac-console/internal/access"
	"github.com/Kyz7/rbac-console/internal/console"
	"github.com/Kyz7/rbac-console/internal/editing"
	"github.com/Kyz7/rbac-console/internal/models"
	"github.com/Kyz7/rbac-console/internal/notify"
	"github.com/Kyz7/rbac-console/internal/selection"
	"github.com/Kyz7/rbac-console/internal/storage"
	"github.com/Kyz7/rbac-console/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newRegistry(t *testing.T, db *gorm.DB, gate access.Gate, sink notify.Notifier) *console.Registry {
	files, err := storage.NewLocal(t.TempDir(), storage.Directories{storage.ProfilePicture: "profile-photos"}, testutils.Logger())
	require.NoError(t, err)

	return console.NewRegistry(console.Deps{
		DB:       db,
		Gate:     gate,
		Storage:  files,
		Notifier: sink,
		Logger:   testutils.Logger(),
	}, time.Minute)
}

func TestRegistry(t *testing.T) {
	db := testutils.TestDB(t)
	reg := newRegistry(t, db, access.NewPermissionGate(db, time.Minute, testutils.Logger()), nil)
	owner := access.Principal{UserID: 7}

	s := reg.Create(owner)
	require.NotEmpty(t, s.ID)

	t.Run("Success - Owner gets the session back", func(t *testing.T) {
		got, err := reg.Get(s.ID, owner)
		require.NoError(t, err)
		assert.Same(t, s, got)
	})

	t.Run("Error - Another user cannot use it", func(t *testing.T) {
		_, err := reg.Get(s.ID, access.Principal{UserID: 8})
		assert.ErrorIs(t, err, console.ErrSessionNotFound)
	})

	t.Run("Success - Sessions are independent", func(t *testing.T) {
		other := reg.Create(owner)
		assert.NotEqual(t, s.ID, other.ID)
		assert.NotSame(t, s.Roles(), other.Roles())
		assert.Equal(t, 2, reg.Len())
	})

	t.Run("Success - Delete closes the session", func(t *testing.T) {
		require.NoError(t, reg.Delete(s.ID, owner))
		_, err := reg.Get(s.ID, owner)
		assert.ErrorIs(t, err, console.ErrSessionNotFound)
	})
}

func TestDispatch(t *testing.T) {
	ctx := context.Background()
	db := testutils.TestDB(t)
	admin := testutils.CreateAdmin(t, db, "admin@example.com")
	perms := testutils.CreatePermissions(t, db, "export_reports")
	r := testutils.CreateRole(t, db, "analyst")

	outbox := notify.Outbox{DB: db, Logger: testutils.Logger()}
	reg := newRegistry(t, db, access.NewPermissionGate(db, time.Minute, testutils.Logger()), outbox)
	s := reg.Create(access.Principal{UserID: admin.ID})

	t.Run("Success - Open reaches only the role editor", func(t *testing.T) {
		res, err := s.Dispatch(ctx, editing.OpenEditModal{ItemID: r.ID, Entity: editing.EntityRole})
		require.NoError(t, err)
		assert.Empty(t, res.Events)
		assert.True(t, s.Roles().State().IsOpen())
		assert.False(t, s.Users().State().IsOpen())
	})

	t.Run("Success - Save returns the emitted notifications", func(t *testing.T) {
		_, err := s.Dispatch(ctx, editing.PermissionSelections{
			Entity:     editing.EntityRole,
			Selections: selection.Toggles{perms[0].ID: true},
		})
		require.NoError(t, err)

		res, err := s.Dispatch(ctx, editing.SaveRequested{Entity: editing.EntityRole})
		require.NoError(t, err)
		assert.True(t, res.Saved)
		assert.Equal(t, []notify.Event{
			notify.PermissionsCleared(editing.EntityRole),
			notify.Edited(editing.EntityRole),
			notify.Toast(notify.ToastConfirm, "Role successfully updated."),
		}, res.Events)

		var stored int64
		require.NoError(t, db.Model(&models.ConsoleEvent{}).Count(&stored).Error)
		assert.Equal(t, int64(3), stored)
	})

	t.Run("Error - Missing user surfaces as not found", func(t *testing.T) {
		_, err := s.Dispatch(ctx, editing.OpenEditModal{ItemID: 9999, Entity: editing.EntityUser})
		assert.ErrorIs(t, err, editing.ErrNotFound)
	})

	t.Run("Error - Save without capability", func(t *testing.T) {
		outsider := testutils.CreateTestUser(t, db, "outsider@example.com", "Secret#1", nil)
		other := reg.Create(access.Principal{UserID: outsider.ID})

		_, err := other.Dispatch(ctx, editing.OpenEditModal{ItemID: r.ID, Entity: editing.EntityRole})
		require.NoError(t, err)

		_, err = other.Dispatch(ctx, editing.SaveRequested{Entity: editing.EntityRole})
		var authErr *editing.AuthorizationError
		assert.ErrorAs(t, err, &authErr)
	})
}
