package notify_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Kyz7/rbac-console/internal/models"
	"github.com/Kyz7/rbac-console/internal/notify"
	"github.com/Kyz7/rbac-console/internal/testutils"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvents(t *testing.T) {
	assert.Equal(t, notify.Event{Name: "role-edited", Entity: "role"}, notify.Edited("role"))
	assert.Equal(t, notify.Event{Name: "user-permissions-cleared", Entity: "user"}, notify.PermissionsCleared("user"))
	assert.Equal(t, notify.Event{Name: "toastr", Type: "error", Message: "boom"}, notify.Toast(notify.ToastError, "boom"))
}

func TestRecorder(t *testing.T) {
	r := &notify.Recorder{}

	t.Run("Success - Drain on empty buffer", func(t *testing.T) {
		assert.Equal(t, []notify.Event{}, r.Drain())
	})

	t.Run("Success - Drain empties the buffer", func(t *testing.T) {
		notify.Fanout{r, nil}.Emit(notify.Edited("user"))
		assert.Equal(t, []notify.Event{notify.Edited("user")}, r.Drain())
		assert.Empty(t, r.Drain())
	})
}

func TestLog(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})

	notify.Log{Logger: logger}.Emit(notify.Toast(notify.ToastError, "deadlock"))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warning", entry["level"])
	assert.Equal(t, "toastr", entry["event"])
	assert.Equal(t, "deadlock", entry["msg"])
}

func TestOutbox(t *testing.T) {
	db := testutils.TestDB(t)
	outbox := notify.Outbox{DB: db, Logger: testutils.Logger()}

	outbox.Emit(notify.Edited("role"))

	var stored models.ConsoleEvent
	require.NoError(t, db.First(&stored).Error)
	assert.Equal(t, "role-edited", stored.Name)

	var payload notify.Event
	require.NoError(t, json.Unmarshal(stored.Payload, &payload))
	assert.Equal(t, notify.Edited("role"), payload)

	t.Run("Success - Prune keeps recent events", func(t *testing.T) {
		removed, err := outbox.Prune(context.Background(), time.Hour)
		require.NoError(t, err)
		assert.Zero(t, removed)
	})

	t.Run("Success - Prune removes old events", func(t *testing.T) {
		require.NoError(t, db.Model(&stored).Update("created_at", time.Now().Add(-2*time.Hour)).Error)

		removed, err := outbox.Prune(context.Background(), time.Hour)
		require.NoError(t, err)
		assert.Equal(t, int64(1), removed)
	})
}
