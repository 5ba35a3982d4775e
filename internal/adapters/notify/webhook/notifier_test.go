package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pet-care-tracker/internal/platform/httpclient"
	"pet-care-tracker/internal/ports/notify"
)

var _ notify.Notifier = (*Notifier)(nil)

// gateway falso que guarda lo programado en memoria.
type gateway struct {
	mu      sync.Mutex
	pending map[string]scheduleRequest
	auth    []string
}

func (g *gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.auth = append(g.auth, r.Header.Get("Authorization"))

	id := strings.TrimPrefix(r.URL.Path, "/notifications/")
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/notifications/count":
		_ = json.NewEncoder(w).Encode(countResponse{Pending: len(g.pending)})
	case r.Method == http.MethodPut:
		var req scheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		g.pending[id] = req
		w.WriteHeader(http.StatusNoContent)
	case r.Method == http.MethodDelete && r.URL.Path == "/notifications":
		g.pending = map[string]scheduleRequest{}
		w.WriteHeader(http.StatusNoContent)
	case r.Method == http.MethodDelete:
		if _, ok := g.pending[id]; !ok {
			http.NotFound(w, r)
			return
		}
		delete(g.pending, id)
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "unexpected", http.StatusMethodNotAllowed)
	}
}

func TestNotifier_RoundTrip(t *testing.T) {
	gw := &gateway{pending: map[string]scheduleRequest{}}
	srv := httptest.NewServer(gw)
	defer srv.Close()

	n, err := New(srv.URL, "secret", time.Second)
	require.NoError(t, err)
	ctx := context.Background()
	trigger := time.Date(2025, 6, 11, 8, 0, 0, 0, time.UTC)

	require.NoError(t, n.Schedule(ctx, "r1", notify.Payload{ReminderID: "r1", Title: "Walk"}, trigger, true))
	require.NoError(t, n.Schedule(ctx, "r2", notify.Payload{ReminderID: "r2", Title: "Feed"}, trigger, false))

	count, err := n.PendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.True(t, gw.pending["r1"].TriggerAt.Equal(trigger))
	assert.True(t, gw.pending["r1"].Repeating)

	require.NoError(t, n.Cancel(ctx, "r1"))
	// cancelar algo inexistente no es error
	require.NoError(t, n.Cancel(ctx, "r1"))

	require.NoError(t, n.CancelAll(ctx))
	count, err = n.PendingCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	for _, a := range gw.auth {
		assert.Equal(t, "Bearer secret", a)
	}
}

func TestNotifier_GatewayErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	n, err := New(srv.URL, "", time.Second)
	require.NoError(t, err)

	err = n.Schedule(context.Background(), "r1", notify.Payload{}, time.Now(), false)
	var he *httpclient.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusServiceUnavailable, he.StatusCode)
	assert.Contains(t, he.Body, "down")
}
