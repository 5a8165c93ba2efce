package metrics_test

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/Kyz7/rbac-console/internal/access"
	"github.com/Kyz7/rbac-console/internal/metrics"
	"github.com/Kyz7/rbac-console/internal/notify"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flushingGate struct {
	access.GateFunc
	flushed     int
	invalidated []uint
}

func (g *flushingGate) Invalidate(userID uint) { g.invalidated = append(g.invalidated, userID) }
func (g *flushingGate) Flush()                 { g.flushed++ }

func TestEmit(t *testing.T) {
	m := metrics.New()

	m.Emit(notify.Edited("role"))
	m.Emit(notify.Toast(notify.ToastError, "boom"))
	m.Emit(notify.Toast(notify.ToastError, "again"))

	count, err := testutil.GatherAndCount(m.Registry(), "rbac_console_events_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestGate(t *testing.T) {
	ctx := context.Background()
	inner := &flushingGate{GateFunc: func(_ context.Context, _ access.Principal, capability string) bool {
		return capability == access.EditRole
	}}

	m := metrics.New()
	gate := m.Gate(inner)

	t.Run("Success - Decisions are passed through", func(t *testing.T) {
		assert.True(t, gate.CanAccess(ctx, access.Principal{UserID: 1}, access.EditRole))
		assert.False(t, gate.CanAccess(ctx, access.Principal{UserID: 1}, access.EditUser))
	})

	t.Run("Success - Invalidation reaches the inner gate", func(t *testing.T) {
		inv, ok := gate.(access.Invalidator)
		require.True(t, ok)
		inv.Invalidate(3)
		inv.Flush()
		assert.Equal(t, []uint{3}, inner.invalidated)
		assert.Equal(t, 1, inner.flushed)
	})

	t.Run("Success - Exposed over HTTP", func(t *testing.T) {
		m.TrackSessions(func() int { return 2 })

		rec := httptest.NewRecorder()
		m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

		body, err := io.ReadAll(rec.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), `rbac_console_capability_checks_total{capability="edit_role",result="granted"} 1`)
		assert.Contains(t, string(body), "rbac_console_open_sessions 2")
	})
}
