package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pet-care-tracker/internal/ports/notify"
)

var _ notify.Notifier = (*Notifier)(nil)

func TestNotifier_ScheduleReplacesAndCancels(t *testing.T) {
	ctx := context.Background()
	n := NewNotifier()
	base := time.Date(2025, 6, 11, 8, 0, 0, 0, time.UTC)

	require.NoError(t, n.Schedule(ctx, "a", notify.Payload{Title: "first"}, base, false))
	require.NoError(t, n.Schedule(ctx, "a", notify.Payload{Title: "second"}, base.Add(time.Hour), true))
	require.NoError(t, n.Schedule(ctx, "b", notify.Payload{Title: "b"}, base.Add(-time.Hour), false))

	count, err := n.PendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	a, ok := n.Get("a")
	require.True(t, ok)
	assert.Equal(t, "second", a.Payload.Title)
	assert.True(t, a.Repeating)

	pending := n.Pending()
	assert.Equal(t, "b", pending[0].ID)

	require.NoError(t, n.Cancel(ctx, "a"))
	count, _ = n.PendingCount(ctx)
	assert.Equal(t, 1, count)

	require.NoError(t, n.CancelAll(ctx))
	count, _ = n.PendingCount(ctx)
	assert.Zero(t, count)
}
