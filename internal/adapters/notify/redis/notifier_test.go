package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pet-care-tracker/internal/ports/notify"
)

var _ notify.Notifier = (*Notifier)(nil)

func setupNotifier(t *testing.T) *Notifier {
	t.Helper()
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}

	n, err := Open(context.Background(), url, "petcare-test:"+uuid.NewString())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = n.CancelAll(context.Background())
		_ = n.Close()
	})
	return n
}

func TestNotifier_ScheduleDueCancel(t *testing.T) {
	n := setupNotifier(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	pet := "pet-1"

	require.NoError(t, n.Schedule(ctx, "past", notify.Payload{ReminderID: "past", Title: "Pills", PetID: &pet}, now.Add(-time.Minute), true))
	require.NoError(t, n.Schedule(ctx, "future", notify.Payload{ReminderID: "future", Title: "Vet"}, now.Add(time.Hour), false))

	count, err := n.PendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	due, err := n.Due(ctx, now)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "past", due[0].ID)
	assert.Equal(t, "Pills", due[0].Payload.Title)
	assert.True(t, due[0].Repeating)
	require.NotNil(t, due[0].Payload.PetID)
	assert.Equal(t, pet, *due[0].Payload.PetID)

	// reprogramar mueve el score
	require.NoError(t, n.Schedule(ctx, "past", notify.Payload{ReminderID: "past", Title: "Pills"}, now.Add(2*time.Hour), true))
	due, err = n.Due(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, due)

	require.NoError(t, n.Cancel(ctx, "future"))
	count, _ = n.PendingCount(ctx)
	assert.Equal(t, 1, count)

	require.NoError(t, n.CancelAll(ctx))
	count, _ = n.PendingCount(ctx)
	assert.Zero(t, count)
}
