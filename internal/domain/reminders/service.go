package reminders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"pet-care-tracker/internal/domain/collection"
	"pet-care-tracker/internal/domain/errs"
	"pet-care-tracker/internal/domain/optional"
	"pet-care-tracker/internal/domain/recurrence"
	"pet-care-tracker/internal/platform/logger"
	"pet-care-tracker/internal/platform/metrics"
	"pet-care-tracker/internal/ports/notify"
)

const kind = "reminder"

// Service mantiene la colección de recordatorios y la agenda del scheduler externo
// sincronizadas: cada alta, cambio o baja persistida cancela y reprograma.
// Los fallos del scheduler se registran pero no revierten la mutación.
type Service struct {
	repo     *collection.Collection[Reminder]
	notifier notify.Notifier
	metrics  *metrics.Metrics
	log      logger.Logger
	now      func() time.Time
}

func NewService(repo *collection.Collection[Reminder], notifier notify.Notifier, m *metrics.Metrics, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		repo:     repo,
		notifier: notifier,
		metrics:  m,
		log:      log.With(map[string]any{"component": "reminders"}),
		now:      time.Now,
	}
}

type CreateInput struct {
	Title          string
	Message        *string
	PetID          *string
	SourceTaskID   *string
	ScheduledDate  time.Time
	IsRepeating    bool
	RepeatInterval *int64
	RepeatType     *recurrence.RepeatType
	// nil = habilitado
	Enabled *bool
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Reminder, error) {
	now := s.now()
	id := uuid.NewString()

	enabled := true
	if in.Enabled != nil {
		enabled = *in.Enabled
	}

	r := Reminder{
		ID:             id,
		Title:          strings.TrimSpace(in.Title),
		Message:        trimmed(in.Message),
		PetID:          trimmed(in.PetID),
		SourceTaskID:   trimmed(in.SourceTaskID),
		ScheduledDate:  in.ScheduledDate,
		IsRepeating:    in.IsRepeating,
		RepeatInterval: in.RepeatInterval,
		RepeatType:     in.RepeatType,
		IsEnabled:      enabled,
		NotificationID: &id,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := validate(r); err != nil {
		return Reminder{}, err
	}

	if err := s.repo.Add(ctx, r); err != nil {
		return Reminder{}, err
	}
	s.schedule(ctx, r)
	s.log.Debug("reminder created", map[string]any{"reminder_id": r.ID, "repeating": r.IsRepeating})
	return r, nil
}

type UpdateInput struct {
	Title          *string
	Message        optional.Patch[string]
	PetID          optional.Patch[string]
	ScheduledDate  *time.Time
	IsRepeating    *bool
	RepeatInterval optional.Patch[int64]
	RepeatType     optional.Patch[recurrence.RepeatType]
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Reminder, error) {
	r, err := s.repo.Mutate(ctx, id, func(r Reminder) (Reminder, error) {
		if in.Title != nil {
			r.Title = strings.TrimSpace(*in.Title)
		}
		if in.ScheduledDate != nil {
			r.ScheduledDate = *in.ScheduledDate
		}
		if in.IsRepeating != nil {
			r.IsRepeating = *in.IsRepeating
		}
		r.Message = trimmed(in.Message.Apply(r.Message))
		r.PetID = trimmed(in.PetID.Apply(r.PetID))
		r.RepeatInterval = in.RepeatInterval.Apply(r.RepeatInterval)
		r.RepeatType = in.RepeatType.Apply(r.RepeatType)

		if err := validate(r); err != nil {
			return Reminder{}, err
		}
		r.UpdatedAt = s.now()
		return r, nil
	})
	if err != nil {
		return Reminder{}, err
	}

	s.cancel(ctx, r)
	s.schedule(ctx, r)
	return r, nil
}

// SetEnabled cambia el flag y cancela o reprograma la notificación.
func (s *Service) SetEnabled(ctx context.Context, id string, enabled bool) (Reminder, error) {
	r, err := s.repo.Mutate(ctx, id, func(r Reminder) (Reminder, error) {
		r.IsEnabled = enabled
		r.UpdatedAt = s.now()
		return r, nil
	})
	if err != nil {
		return Reminder{}, err
	}

	s.cancel(ctx, r)
	s.schedule(ctx, r)
	return r, nil
}

// Delete cancela la notificación y después borra el registro.
func (s *Service) Delete(ctx context.Context, id string) error {
	r, ok := s.repo.Get(id)
	if !ok {
		return errs.NotFound(kind, id)
	}
	s.cancel(ctx, r)
	return s.repo.Delete(ctx, id)
}

// RollForward adelanta los recordatorios repetitivos habilitados cuya fecha ya
// pasó a su próximo disparo, en una sola escritura, y los reprograma.
// Devuelve cuántos se movieron.
func (s *Service) RollForward(ctx context.Context) (int, error) {
	now := s.now()

	var moved []Reminder
	for _, r := range s.repo.Snapshot() {
		if !r.IsEnabled || !r.IsRepeating || !r.ScheduledDate.Before(now) {
			continue
		}
		next, err := r.NextTrigger(now)
		if err != nil {
			s.log.Warn("reminder skipped on roll forward", map[string]any{"reminder_id": r.ID, "error": err})
			continue
		}
		r.ScheduledDate = *next
		r.UpdatedAt = now
		moved = append(moved, r)
	}
	if len(moved) == 0 {
		return 0, nil
	}

	if err := s.repo.Upsert(ctx, moved...); err != nil {
		return 0, err
	}
	for _, r := range moved {
		s.cancel(ctx, r)
		s.schedule(ctx, r)
	}
	s.log.Info("reminders rolled forward", map[string]any{"count": len(moved)})
	return len(moved), nil
}

// RescheduleAll vacía la agenda externa y registra de nuevo cada recordatorio habilitado.
func (s *Service) RescheduleAll(ctx context.Context) (int, error) {
	err := s.notifier.CancelAll(ctx)
	s.metrics.ObserveNotification("cancel_all", err)
	if err != nil {
		return 0, fmt.Errorf("cancel all notifications: %w", err)
	}

	n := 0
	for _, r := range s.repo.Snapshot() {
		if s.schedule(ctx, r) {
			n++
		}
	}
	return n, nil
}

func (s *Service) PendingNotifications(ctx context.Context) (int, error) {
	return s.notifier.PendingCount(ctx)
}

func (s *Service) GetByID(id string) (Reminder, error) {
	r, ok := s.repo.Get(strings.TrimSpace(id))
	if !ok {
		return Reminder{}, errs.NotFound(kind, id)
	}
	return r, nil
}

func (s *Service) All() []Reminder { return s.repo.Snapshot() }

func (s *Service) Enabled() []Reminder { return Enabled(s.repo.Snapshot()) }

func (s *Service) ForPet(petID string) []Reminder { return ForPet(s.repo.Snapshot(), petID) }

func (s *Service) Today() []Reminder { return Today(s.repo.Snapshot(), s.now()) }

func (s *Service) Upcoming() []Reminder { return Upcoming(s.repo.Snapshot(), s.now()) }

// Merge hace upsert de recordatorios externos (sync) y reprograma los aceptados.
// Los que tienen updated_at anterior a la copia local vuelven en stale sin tocar la agenda.
func (s *Service) Merge(ctx context.Context, incoming []Reminder) (rejected, stale []string, err error) {
	valid := make([]Reminder, 0, len(incoming))
	for _, r := range incoming {
		if strings.TrimSpace(r.ID) == "" || validate(r) != nil {
			rejected = append(rejected, r.ID)
			continue
		}
		valid = append(valid, r)
	}
	stale, err = s.repo.UpsertIf(ctx, func(cur, in Reminder) bool {
		return !in.UpdatedAt.Before(cur.UpdatedAt)
	}, valid...)
	if err != nil {
		return rejected, nil, err
	}

	skip := make(map[string]bool, len(stale))
	for _, id := range stale {
		skip[id] = true
	}
	for _, r := range valid {
		if skip[r.ID] {
			continue
		}
		s.cancel(ctx, r)
		s.schedule(ctx, r)
	}
	return rejected, stale, nil
}

// schedule registra el próximo disparo si corresponde. Devuelve true si quedó agendado.
func (s *Service) schedule(ctx context.Context, r Reminder) bool {
	if !r.IsEnabled {
		return false
	}
	now := s.now()
	trigger, err := r.NextTrigger(now)
	if err != nil || trigger == nil {
		return false
	}
	// un aviso único ya vencido no se agenda
	if !r.IsRepeating && trigger.Before(now) {
		return false
	}

	p := notify.Payload{ReminderID: r.ID, Title: r.Title, PetID: r.PetID}
	if r.Message != nil {
		p.Body = *r.Message
	}

	err = s.notifier.Schedule(ctx, notificationID(r), p, *trigger, r.IsRepeating)
	s.metrics.ObserveNotification("schedule", err)
	if err != nil {
		s.log.Warn("notification schedule failed", map[string]any{"reminder_id": r.ID, "error": err})
		return false
	}
	return true
}

func (s *Service) cancel(ctx context.Context, r Reminder) {
	err := s.notifier.Cancel(ctx, notificationID(r))
	s.metrics.ObserveNotification("cancel", err)
	if err != nil {
		s.log.Warn("notification cancel failed", map[string]any{"reminder_id": r.ID, "error": err})
	}
}

func notificationID(r Reminder) string {
	if r.NotificationID != nil && *r.NotificationID != "" {
		return *r.NotificationID
	}
	return r.ID
}

func validate(r Reminder) error {
	if r.Title == "" {
		return errs.Invalid("title", "is required")
	}
	if r.ScheduledDate.IsZero() {
		return errs.Invalid("scheduled_date", "is required")
	}
	if r.RepeatType != nil && !r.RepeatType.Valid() {
		return errs.Invalid("repeat_type", "unknown repeat type")
	}
	if r.RepeatInterval != nil {
		if _, err := r.Interval(); err != nil {
			return err
		}
	}
	if r.IsRepeating {
		if _, err := r.Interval(); err != nil {
			return err
		}
	}
	return nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
