package analytics

import (
	"context"
	"errors"
	"sync"
	"time"

	"pet-care-tracker/internal/domain/collection"
)

const DefaultDebounce = 250 * time.Millisecond

// Subscribable es cualquier colección que avisa cambios confirmados.
type Subscribable interface {
	Subscribe(fn func(collection.Change)) func()
}

// Recomputer recalcula el dashboard cuando cambian las colecciones observadas.
// Ráfagas de cambios dentro de debounce se agrupan en un solo cálculo; un cálculo
// en curso se cancela si llega uno más nuevo y su resultado se descarta.
type Recomputer struct {
	svc      *Service
	debounce time.Duration

	mu        sync.Mutex
	timer     *time.Timer
	cancel    context.CancelFunc
	gen       uint64
	latest    *Dashboard
	listeners map[int]func(Dashboard)
	nextID    int
	unsubs    []func()
	closed    bool
}

func NewRecomputer(svc *Service, debounce time.Duration) *Recomputer {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Recomputer{
		svc:       svc,
		debounce:  debounce,
		listeners: map[int]func(Dashboard){},
	}
}

// Watch se suscribe a las colecciones dadas.
func (r *Recomputer) Watch(sources ...Subscribable) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, src := range sources {
		r.unsubs = append(r.unsubs, src.Subscribe(func(collection.Change) { r.Trigger() }))
	}
}

// OnUpdate registra fn para cada dashboard publicado. Devuelve la función para desuscribir.
func (r *Recomputer) OnUpdate(fn func(Dashboard)) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	r.listeners[id] = fn
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.listeners, id)
	}
}

// Trigger programa un recálculo; llamadas dentro de la ventana reinician el timer.
func (r *Recomputer) Trigger() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.debounce, r.run)
}

// Latest devuelve el último dashboard publicado.
func (r *Recomputer) Latest() (Dashboard, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.latest == nil {
		return Dashboard{}, false
	}
	return *r.latest, true
}

// Fresh devuelve el último dashboard sólo si se generó dentro de la ventana de
// debounce. Los conteos dependen de now, así que uno más viejo hay que recalcularlo.
func (r *Recomputer) Fresh() (Dashboard, bool) {
	d, ok := r.Latest()
	if !ok || r.svc.now().Sub(d.GeneratedAt) > r.debounce {
		return Dashboard{}, false
	}
	return d, true
}

// Close corta las suscripciones y cancela cualquier cálculo pendiente.
func (r *Recomputer) Close() {
	r.mu.Lock()
	r.closed = true
	if r.timer != nil {
		r.timer.Stop()
	}
	if r.cancel != nil {
		r.cancel()
	}
	unsubs := r.unsubs
	r.unsubs = nil
	r.mu.Unlock()

	for _, u := range unsubs {
		u()
	}
}

func (r *Recomputer) run() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	if r.cancel != nil {
		r.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.gen++
	gen := r.gen
	r.mu.Unlock()

	d, err := r.svc.Dashboard(ctx)
	cancel()

	r.mu.Lock()
	if err != nil || gen != r.gen || r.closed {
		r.mu.Unlock()
		if err != nil && !errors.Is(err, context.Canceled) {
			r.svc.log.Warn("dashboard recompute failed", map[string]any{"error": err})
		}
		return
	}
	r.latest = &d
	fns := make([]func(Dashboard), 0, len(r.listeners))
	for _, fn := range r.listeners {
		fns = append(fns, fn)
	}
	r.mu.Unlock()

	for _, fn := range fns {
		fn(d)
	}
}
