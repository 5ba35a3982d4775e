// Package collection implementa la colección en memoria que respaldan los
// repositorios de dominio. Cada mutación persiste la lista completa a través del
// storage port y sólo reemplaza el estado en memoria si el guardado tuvo éxito.
package collection

import (
	"context"
	"sync"
	"time"

	"pet-care-tracker/internal/domain/errs"
	"pet-care-tracker/internal/platform/logger"
	"pet-care-tracker/internal/platform/metrics"
	"pet-care-tracker/internal/ports/storage"
)

const DefaultTimeout = 5 * time.Second

type Op string

const (
	OpLoad   Op = "load"
	OpAdd    Op = "add"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	OpUpsert Op = "upsert"
)

// Change describe una mutación confirmada. IDs vacío en OpLoad.
type Change struct {
	Kind storage.Kind
	Op   Op
	IDs  []string
}

type Options struct {
	// Timeout por llamada al storage port. <= 0 usa DefaultTimeout.
	Timeout time.Duration
	Logger  logger.Logger
	Metrics *metrics.Metrics
}

type Collection[T any] struct {
	kind    storage.Kind
	store   storage.Store
	idOf    func(T) string
	timeout time.Duration
	log     logger.Logger
	metrics *metrics.Metrics

	// una mutación en vuelo por colección
	writeMu sync.Mutex

	mu    sync.RWMutex
	items []T

	subsMu  sync.Mutex
	subs    map[int]func(Change)
	nextSub int
}

func New[T any](store storage.Store, kind storage.Kind, idOf func(T) string, opts Options) *Collection[T] {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}

	return &Collection[T]{
		kind:    kind,
		store:   store,
		idOf:    idOf,
		timeout: timeout,
		log:     log.With(map[string]any{"kind": string(kind)}),
		metrics: opts.Metrics,
		items:   []T{},
		subs:    map[int]func(Change){},
	}
}

func (c *Collection[T]) Kind() storage.Kind { return c.kind }

// Load reemplaza el contenido en memoria con lo que devuelve el storage port.
func (c *Collection[T]) Load(ctx context.Context) error {
	c.writeMu.Lock()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	items, err := storage.LoadList[T](ctx, c.store, c.kind)
	c.metrics.ObserveLoad(string(c.kind), time.Since(start))
	if err != nil {
		c.writeMu.Unlock()
		return &errs.PersistenceError{Op: string(OpLoad), Kind: string(c.kind), Err: err}
	}

	c.mu.Lock()
	c.items = items
	c.mu.Unlock()
	c.writeMu.Unlock()

	c.log.Debug("collection loaded", map[string]any{"count": len(items)})
	c.notify(Change{Kind: c.kind, Op: OpLoad})
	return nil
}

// Snapshot devuelve una copia de la lista; los llamadores pueden iterarla sin locks.
func (c *Collection[T]) Snapshot() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Collection[T]) Get(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i := c.indexOf(id)
	if i < 0 {
		var zero T
		return zero, false
	}
	return c.items[i], true
}

func (c *Collection[T]) Add(ctx context.Context, item T) error {
	id := c.idOf(item)

	c.writeMu.Lock()
	if _, exists := c.Get(id); exists {
		c.writeMu.Unlock()
		return errs.Invalid("id", "already exists")
	}

	next := append(c.Snapshot(), item)
	err := c.commit(ctx, OpAdd, next)
	c.writeMu.Unlock()
	if err != nil {
		return err
	}

	c.notify(Change{Kind: c.kind, Op: OpAdd, IDs: []string{id}})
	return nil
}

func (c *Collection[T]) Update(ctx context.Context, item T) error {
	_, err := c.Mutate(ctx, c.idOf(item), func(T) (T, error) { return item, nil })
	return err
}

// Mutate aplica fn sobre el valor actual y persiste el resultado. La lectura y la
// escritura ocurren bajo el mismo lock de escritura, así dos ediciones no se pisan.
func (c *Collection[T]) Mutate(ctx context.Context, id string, fn func(T) (T, error)) (T, error) {
	var zero T

	c.writeMu.Lock()
	next := c.Snapshot()
	i := indexIn(next, id, c.idOf)
	if i < 0 {
		c.writeMu.Unlock()
		return zero, errs.NotFound(string(c.kind), id)
	}

	updated, err := fn(next[i])
	if err != nil {
		c.writeMu.Unlock()
		return zero, err
	}
	if c.idOf(updated) != id {
		c.writeMu.Unlock()
		return zero, errs.Invalid("id", "cannot be changed")
	}
	next[i] = updated

	err = c.commit(ctx, OpUpdate, next)
	c.writeMu.Unlock()
	if err != nil {
		return zero, err
	}

	c.notify(Change{Kind: c.kind, Op: OpUpdate, IDs: []string{id}})
	return updated, nil
}

func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	c.writeMu.Lock()
	cur := c.Snapshot()
	i := indexIn(cur, id, c.idOf)
	if i < 0 {
		c.writeMu.Unlock()
		return errs.NotFound(string(c.kind), id)
	}

	next := make([]T, 0, len(cur)-1)
	next = append(next, cur[:i]...)
	next = append(next, cur[i+1:]...)

	err := c.commit(ctx, OpDelete, next)
	c.writeMu.Unlock()
	if err != nil {
		return err
	}

	c.notify(Change{Kind: c.kind, Op: OpDelete, IDs: []string{id}})
	return nil
}

// Upsert inserta o reemplaza por id en un solo guardado.
func (c *Collection[T]) Upsert(ctx context.Context, items ...T) error {
	_, err := c.UpsertIf(ctx, nil, items...)
	return err
}

// UpsertIf es Upsert, pero un item con id ya presente sólo reemplaza al actual
// si replace(actual, entrante) da true. Devuelve los ids que quedaron como estaban.
// replace nil reemplaza siempre.
func (c *Collection[T]) UpsertIf(ctx context.Context, replace func(cur, in T) bool, items ...T) (kept []string, err error) {
	if len(items) == 0 {
		return nil, nil
	}

	c.writeMu.Lock()
	next := c.Snapshot()
	ids := make([]string, 0, len(items))
	for _, it := range items {
		id := c.idOf(it)
		if i := indexIn(next, id, c.idOf); i >= 0 {
			if replace != nil && !replace(next[i], it) {
				kept = append(kept, id)
				continue
			}
			next[i] = it
			ids = append(ids, id)
			continue
		}
		next = append(next, it)
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		c.writeMu.Unlock()
		return kept, nil
	}

	err = c.commit(ctx, OpUpsert, next)
	c.writeMu.Unlock()
	if err != nil {
		return nil, err
	}

	c.notify(Change{Kind: c.kind, Op: OpUpsert, IDs: ids})
	return kept, nil
}

// Subscribe registra fn para cada cambio confirmado. Devuelve la función para desuscribir.
// fn corre en la goroutine que mutó, fuera de los locks de la colección.
func (c *Collection[T]) Subscribe(fn func(Change)) func() {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()

	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn

	return func() {
		c.subsMu.Lock()
		defer c.subsMu.Unlock()
		delete(c.subs, id)
	}
}

// commit requiere writeMu tomado.
func (c *Collection[T]) commit(ctx context.Context, op Op, next []T) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	err := storage.SaveList(ctx, c.store, c.kind, next)
	c.metrics.ObserveMutation(string(c.kind), string(op), err, time.Since(start))
	if err != nil {
		c.log.Warn("persist failed", map[string]any{"op": string(op), "error": err})
		return &errs.PersistenceError{Op: string(op), Kind: string(c.kind), Err: err}
	}

	c.mu.Lock()
	c.items = next
	c.mu.Unlock()
	return nil
}

func (c *Collection[T]) notify(ch Change) {
	c.subsMu.Lock()
	fns := make([]func(Change), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subsMu.Unlock()

	for _, fn := range fns {
		fn(ch)
	}
}

// indexOf requiere mu tomado.
func (c *Collection[T]) indexOf(id string) int {
	return indexIn(c.items, id, c.idOf)
}

func indexIn[T any](items []T, id string, idOf func(T) string) int {
	for i, it := range items {
		if idOf(it) == id {
			return i
		}
	}
	return -1
}
