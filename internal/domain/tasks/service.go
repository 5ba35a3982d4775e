package tasks

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"pet-care-tracker/internal/domain/collection"
	"pet-care-tracker/internal/domain/errs"
	"pet-care-tracker/internal/domain/optional"
	"pet-care-tracker/internal/domain/recurrence"
	"pet-care-tracker/internal/platform/logger"
)

const kind = "task"

type Service struct {
	repo *collection.Collection[Task]
	log  logger.Logger
	now  func() time.Time
}

func NewService(repo *collection.Collection[Task], log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		repo: repo,
		log:  log.With(map[string]any{"component": "tasks"}),
		now:  time.Now,
	}
}

type CreateInput struct {
	Title       string
	Description *string
	Category    Category
	Priority    Priority
	PetID       *string
	DueDate     *time.Time
	Recurrence  *recurrence.Rule
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Task, error) {
	now := s.now()

	prio := in.Priority
	if prio == "" {
		prio = PriorityMedium
	}
	cat := in.Category
	if cat == "" {
		cat = CategoryOther
	}

	t := Task{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(in.Title),
		Description: trimmed(in.Description),
		Category:    cat,
		Priority:    prio,
		PetID:       trimmed(in.PetID),
		DueDate:     in.DueDate,
		Recurrence:  in.Recurrence,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := validate(t); err != nil {
		return Task{}, err
	}

	if err := s.repo.Add(ctx, t); err != nil {
		return Task{}, err
	}
	s.log.Debug("task created", map[string]any{"task_id": t.ID})
	return t, nil
}

type UpdateInput struct {
	Title       *string
	Description optional.Patch[string]
	Category    *Category
	Priority    *Priority
	PetID       optional.Patch[string]
	DueDate     optional.Patch[time.Time]
	Recurrence  optional.Patch[recurrence.Rule]
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Task, error) {
	return s.repo.Mutate(ctx, id, func(t Task) (Task, error) {
		if in.Title != nil {
			t.Title = strings.TrimSpace(*in.Title)
		}
		if in.Category != nil {
			t.Category = *in.Category
		}
		if in.Priority != nil {
			t.Priority = *in.Priority
		}
		t.Description = trimmed(in.Description.Apply(t.Description))
		t.PetID = trimmed(in.PetID.Apply(t.PetID))
		t.DueDate = in.DueDate.Apply(t.DueDate)
		t.Recurrence = in.Recurrence.Apply(t.Recurrence)
		if t.Recurrence == nil {
			t.NextDueDate = nil
		}

		if err := validate(t); err != nil {
			return Task{}, err
		}
		t.UpdatedAt = s.now()
		return t, nil
	})
}

// MarkCompleted marca la tarea, calcula NextDueDate si es recurrente y persiste
// como un update normal.
func (s *Service) MarkCompleted(ctx context.Context, id string) (Task, error) {
	t, err := s.repo.Mutate(ctx, id, func(t Task) (Task, error) {
		return t.MarkCompleted(s.now())
	})
	if err != nil {
		return Task{}, err
	}
	s.log.Debug("task completed", map[string]any{"task_id": id, "recurring": t.IsRecurring()})
	return t, nil
}

func (s *Service) Reopen(ctx context.Context, id string) (Task, error) {
	return s.repo.Mutate(ctx, id, func(t Task) (Task, error) {
		return t.Reopen(s.now()), nil
	})
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) GetByID(id string) (Task, error) {
	t, ok := s.repo.Get(strings.TrimSpace(id))
	if !ok {
		return Task{}, errs.NotFound(kind, id)
	}
	return t, nil
}

func (s *Service) All() []Task { return s.repo.Snapshot() }

func (s *Service) List(f Filter) []Task { return Apply(s.repo.Snapshot(), f) }

func (s *Service) Today() []Task { return Today(s.repo.Snapshot(), s.now()) }

func (s *Service) Overdue() []Task { return Overdue(s.repo.Snapshot(), s.now()) }

func (s *Service) Upcoming(limit int) []Task {
	return Upcoming(s.repo.Snapshot(), s.now(), limit)
}

// Merge hace upsert de tareas externas (sync), descartando las que rompen invariantes.
// Gana la última escritura: una tarea con updated_at anterior a la local vuelve en stale.
func (s *Service) Merge(ctx context.Context, incoming []Task) (rejected, stale []string, err error) {
	valid := make([]Task, 0, len(incoming))
	for _, t := range incoming {
		if strings.TrimSpace(t.ID) == "" || validate(t) != nil {
			rejected = append(rejected, t.ID)
			continue
		}
		valid = append(valid, t)
	}
	stale, err = s.repo.UpsertIf(ctx, func(cur, in Task) bool {
		return !in.UpdatedAt.Before(cur.UpdatedAt)
	}, valid...)
	return rejected, stale, err
}

func validate(t Task) error {
	if t.Title == "" {
		return errs.Invalid("title", "is required")
	}
	if !t.Category.Valid() {
		return errs.Invalid("category", "unknown category")
	}
	if !t.Priority.Valid() {
		return errs.Invalid("priority", "unknown priority")
	}
	if t.Recurrence != nil {
		if err := t.Recurrence.Validate(); err != nil {
			return err
		}
	}
	// completed_at presente sii is_completed
	if t.IsCompleted != (t.CompletedAt != nil) {
		return errs.Invalid("completed_at", "must be set exactly when the task is completed")
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
