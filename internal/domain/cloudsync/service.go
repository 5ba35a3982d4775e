// Package cloudsync trae y sube la foto de mascotas, tareas y recordatorios
// contra el colaborador de nube. Es best-effort: sus errores son *errs.SyncError
// y nunca tocan el estado local salvo por el merge de registros válidos.
package cloudsync

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pet-care-tracker/internal/domain/errs"
	"pet-care-tracker/internal/domain/pets"
	"pet-care-tracker/internal/domain/reminders"
	"pet-care-tracker/internal/domain/tasks"
	"pet-care-tracker/internal/platform/logger"
	"pet-care-tracker/internal/platform/metrics"
	"pet-care-tracker/internal/ports/cloudsync"
	"pet-care-tracker/internal/ports/storage"
)

type PetStore interface {
	List() []pets.Pet
	Merge(ctx context.Context, incoming []pets.Pet) (rejected, stale []string, err error)
}

type TaskStore interface {
	All() []tasks.Task
	Merge(ctx context.Context, incoming []tasks.Task) (rejected, stale []string, err error)
}

type ReminderStore interface {
	All() []reminders.Reminder
	Merge(ctx context.Context, incoming []reminders.Reminder) (rejected, stale []string, err error)
}

type Service struct {
	remote    cloudsync.Syncer
	pets      PetStore
	tasks     TaskStore
	reminders ReminderStore
	metrics   *metrics.Metrics
	log       logger.Logger
	now       func() time.Time
}

func NewService(remote cloudsync.Syncer, p PetStore, t TaskStore, r ReminderStore, m *metrics.Metrics, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		remote:    remote,
		pets:      p,
		tasks:     t,
		reminders: r,
		metrics:   m,
		log:       log.With(map[string]any{"component": "cloudsync"}),
		now:       time.Now,
	}
}

type Rejected struct {
	Kind storage.Kind `json:"kind"`
	ID   string       `json:"id"`
}

type Report struct {
	Direction string     `json:"direction"`
	At        time.Time  `json:"at"`
	Pets      int        `json:"pets"`
	Tasks     int        `json:"tasks"`
	Reminders int        `json:"reminders"`
	Rejected  []Rejected `json:"rejected,omitempty"`
	// Registros remotos más viejos que la copia local; no se aplicaron.
	Stale []Rejected `json:"stale,omitempty"`
}

// Errors devuelve un *errs.SyncError invalid_record por cada registro descartado.
func (r Report) Errors() []error {
	out := make([]error, 0, len(r.Rejected))
	for _, rj := range r.Rejected {
		out = append(out, &errs.SyncError{
			Kind: errs.SyncInvalidRecord,
			Err:  fmt.Errorf("%s %q rejected", rj.Kind, rj.ID),
		})
	}
	return out
}

// Pull trae la foto remota y hace upsert por id. Gana la última escritura según
// updated_at; en empate gana la remota.
// Primero decodifica todo; si algún documento está roto no se mergea nada.
func (s *Service) Pull(ctx context.Context) (rep Report, err error) {
	defer func() { s.metrics.ObserveSync("pull", err) }()

	rep = Report{Direction: "pull", At: s.now()}

	snap, err := s.remote.PullAll(ctx)
	if err != nil {
		return Report{}, syncError(errs.SyncUnavailable, err)
	}
	if snap.Version > cloudsync.SnapshotVersion {
		return Report{}, &errs.SyncError{Kind: errs.SyncFailed, Err: fmt.Errorf("unsupported snapshot version %d", snap.Version)}
	}
	if snap.Empty() {
		s.log.Info("remote snapshot empty", nil)
		return rep, nil
	}

	petList, err := decode[pets.Pet](snap, storage.KindPets)
	if err != nil {
		return Report{}, err
	}
	taskList, err := decode[tasks.Task](snap, storage.KindTasks)
	if err != nil {
		return Report{}, err
	}
	reminderList, err := decode[reminders.Reminder](snap, storage.KindReminders)
	if err != nil {
		return Report{}, err
	}

	rejected, stale, err := s.pets.Merge(ctx, petList)
	if err != nil {
		return Report{}, err
	}
	rep.Pets = len(petList) - len(rejected) - len(stale)
	rep.reject(storage.KindPets, rejected)
	rep.stale(storage.KindPets, stale)

	rejected, stale, err = s.tasks.Merge(ctx, taskList)
	if err != nil {
		return Report{}, err
	}
	rep.Tasks = len(taskList) - len(rejected) - len(stale)
	rep.reject(storage.KindTasks, rejected)
	rep.stale(storage.KindTasks, stale)

	rejected, stale, err = s.reminders.Merge(ctx, reminderList)
	if err != nil {
		return Report{}, err
	}
	rep.Reminders = len(reminderList) - len(rejected) - len(stale)
	rep.reject(storage.KindReminders, rejected)
	rep.stale(storage.KindReminders, stale)

	for _, e := range rep.Errors() {
		s.log.Warn("sync record skipped", map[string]any{"error": e})
	}
	s.log.Info("sync pull done", map[string]any{
		"pets": rep.Pets, "tasks": rep.Tasks, "reminders": rep.Reminders,
		"rejected": len(rep.Rejected), "stale": len(rep.Stale),
	})
	return rep, nil
}

// Push sube la foto local completa y reemplaza la remota.
func (s *Service) Push(ctx context.Context) (rep Report, err error) {
	defer func() { s.metrics.ObserveSync("push", err) }()

	now := s.now()
	petList, taskList, reminderList := s.pets.List(), s.tasks.All(), s.reminders.All()

	snap := cloudsync.Snapshot{
		Version:     cloudsync.SnapshotVersion,
		ExportedAt:  now.UTC(),
		Collections: map[storage.Kind]json.RawMessage{},
	}
	if err := encode(snap, storage.KindPets, petList); err != nil {
		return Report{}, err
	}
	if err := encode(snap, storage.KindTasks, taskList); err != nil {
		return Report{}, err
	}
	if err := encode(snap, storage.KindReminders, reminderList); err != nil {
		return Report{}, err
	}

	if err := s.remote.PushAll(ctx, snap); err != nil {
		return Report{}, syncError(errs.SyncFailed, err)
	}

	rep = Report{Direction: "push", At: now, Pets: len(petList), Tasks: len(taskList), Reminders: len(reminderList)}
	s.log.Info("sync push done", map[string]any{"pets": rep.Pets, "tasks": rep.Tasks, "reminders": rep.Reminders})
	return rep, nil
}

func (r *Report) reject(kind storage.Kind, ids []string) {
	for _, id := range ids {
		r.Rejected = append(r.Rejected, Rejected{Kind: kind, ID: id})
	}
}

func (r *Report) stale(kind storage.Kind, ids []string) {
	for _, id := range ids {
		r.Stale = append(r.Stale, Rejected{Kind: kind, ID: id})
	}
}

func decode[T any](snap cloudsync.Snapshot, kind storage.Kind) ([]T, error) {
	raw, ok := snap.Collections[kind]
	if !ok || len(raw) == 0 {
		return nil, nil
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &errs.SyncError{Kind: errs.SyncFailed, Err: fmt.Errorf("decode %s: %w", kind, err)}
	}
	return out, nil
}

func encode[T any](snap cloudsync.Snapshot, kind storage.Kind, items []T) error {
	if items == nil {
		items = []T{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return &errs.SyncError{Kind: errs.SyncFailed, Err: fmt.Errorf("encode %s: %w", kind, err)}
	}
	snap.Collections[kind] = b
	return nil
}

// syncError deja pasar los *errs.SyncError del adapter y envuelve el resto.
func syncError(kind errs.SyncErrorKind, err error) error {
	if errs.IsSync(err) {
		return err
	}
	return &errs.SyncError{Kind: kind, Err: err}
}
