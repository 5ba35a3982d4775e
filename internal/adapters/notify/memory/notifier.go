package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"pet-care-tracker/internal/ports/notify"
)

// Scheduled es una notificación pendiente tal como la registró el core.
type Scheduled struct {
	ID        string
	Payload   notify.Payload
	Trigger   time.Time
	Repeating bool
}

type Notifier struct {
	mu      sync.Mutex
	pending map[string]Scheduled
}

func NewNotifier() *Notifier {
	return &Notifier{pending: map[string]Scheduled{}}
}

func (n *Notifier) Schedule(ctx context.Context, id string, p notify.Payload, trigger time.Time, repeating bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pending[id] = Scheduled{ID: id, Payload: p, Trigger: trigger, Repeating: repeating}
	return nil
}

func (n *Notifier) Cancel(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.pending, id)
	return nil
}

func (n *Notifier) CancelAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pending = map[string]Scheduled{}
	return nil
}

func (n *Notifier) PendingCount(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.pending), nil
}

func (n *Notifier) Get(id string) (Scheduled, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	s, ok := n.pending[id]
	return s, ok
}

// Pending devuelve las notificaciones ordenadas por disparo.
func (n *Notifier) Pending() []Scheduled {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]Scheduled, 0, len(n.pending))
	for _, s := range n.pending {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Trigger.Before(out[j].Trigger) })
	return out
}
