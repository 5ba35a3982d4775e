package medications

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"pet-care-tracker/internal/domain/collection"
	"pet-care-tracker/internal/domain/errs"
	"pet-care-tracker/internal/domain/optional"
	"pet-care-tracker/internal/domain/recurrence"
	"pet-care-tracker/internal/platform/logger"
)

const kind = "medication"

type Service struct {
	repo *collection.Collection[Medication]
	log  logger.Logger
	now  func() time.Time
}

func NewService(repo *collection.Collection[Medication], log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		repo: repo,
		log:  log.With(map[string]any{"component": "medications"}),
		now:  time.Now,
	}
}

type CreateInput struct {
	PetID        string
	Name         string
	Dosage       string
	Frequency    recurrence.Frequency
	StartDate    time.Time
	EndDate      *time.Time
	Instructions *string
	PrescribedBy *string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Medication, error) {
	now := s.now()

	start := in.StartDate
	if start.IsZero() {
		start = now
	}

	m := Medication{
		ID:           uuid.NewString(),
		PetID:        strings.TrimSpace(in.PetID),
		Name:         strings.TrimSpace(in.Name),
		Dosage:       strings.TrimSpace(in.Dosage),
		Frequency:    in.Frequency,
		StartDate:    start,
		EndDate:      in.EndDate,
		Instructions: trimmed(in.Instructions),
		PrescribedBy: trimmed(in.PrescribedBy),
		IsActive:     true,
		NextDoseDate: recurrence.NextDose(start, in.Frequency),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := validate(m); err != nil {
		return Medication{}, err
	}

	if err := s.repo.Add(ctx, m); err != nil {
		return Medication{}, err
	}
	s.log.Debug("medication created", map[string]any{"medication_id": m.ID, "pet_id": m.PetID})
	return m, nil
}

type UpdateInput struct {
	Name         *string
	Dosage       *string
	Frequency    *recurrence.Frequency
	EndDate      optional.Patch[time.Time]
	Instructions optional.Patch[string]
	PrescribedBy optional.Patch[string]
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Medication, error) {
	return s.repo.Mutate(ctx, id, func(m Medication) (Medication, error) {
		if in.Name != nil {
			m.Name = strings.TrimSpace(*in.Name)
		}
		if in.Dosage != nil {
			m.Dosage = strings.TrimSpace(*in.Dosage)
		}
		if in.Frequency != nil && *in.Frequency != m.Frequency {
			m.Frequency = *in.Frequency
			// la próxima dosis se recalcula desde la última toma conocida
			anchor := m.StartDate
			if m.LastDoseDate != nil {
				anchor = *m.LastDoseDate
			}
			m.NextDoseDate = recurrence.NextDose(anchor, m.Frequency)
		}
		m.EndDate = in.EndDate.Apply(m.EndDate)
		m.Instructions = trimmed(in.Instructions.Apply(m.Instructions))
		m.PrescribedBy = trimmed(in.PrescribedBy.Apply(m.PrescribedBy))

		if err := validate(m); err != nil {
			return Medication{}, err
		}
		m.UpdatedAt = s.now()
		return m, nil
	})
}

// RecordDose registra una toma. at nil = ahora.
func (s *Service) RecordDose(ctx context.Context, id string, at *time.Time) (Medication, error) {
	return s.repo.Mutate(ctx, id, func(m Medication) (Medication, error) {
		if !m.IsActive || m.IsCompleted {
			return Medication{}, errs.Invalid("status", "medication is not active")
		}
		when := s.now()
		if at != nil {
			when = *at
		}
		m = m.RecordDose(when)
		m.UpdatedAt = s.now()
		return m, nil
	})
}

// Complete cierra el tratamiento; sigue activa para que el estado sea "completed".
func (s *Service) Complete(ctx context.Context, id string) (Medication, error) {
	return s.repo.Mutate(ctx, id, func(m Medication) (Medication, error) {
		m.IsCompleted = true
		m.NextDoseDate = nil
		m.UpdatedAt = s.now()
		return m, nil
	})
}

func (s *Service) Deactivate(ctx context.Context, id string) (Medication, error) {
	return s.repo.Mutate(ctx, id, func(m Medication) (Medication, error) {
		m.IsActive = false
		m.UpdatedAt = s.now()
		return m, nil
	})
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) GetByID(id string) (Medication, error) {
	m, ok := s.repo.Get(strings.TrimSpace(id))
	if !ok {
		return Medication{}, errs.NotFound(kind, id)
	}
	return m, nil
}

func (s *Service) List() []Medication { return s.repo.Snapshot() }

func (s *Service) ListByPet(petID string) []Medication {
	out := make([]Medication, 0)
	for _, m := range s.repo.Snapshot() {
		if m.PetID == petID {
			out = append(out, m)
		}
	}
	return out
}

// ListActive: activas y sin completar, por próxima dosis (sin próxima dosis al final).
func (s *Service) ListActive() []Medication {
	out := make([]Medication, 0)
	for _, m := range s.repo.Snapshot() {
		if m.IsActive && !m.IsCompleted {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].NextDoseDate, out[j].NextDoseDate
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})
	return out
}

func validate(m Medication) error {
	if m.PetID == "" {
		return errs.Invalid("pet_id", "is required")
	}
	if m.Name == "" {
		return errs.Invalid("name", "is required")
	}
	if m.Dosage == "" {
		return errs.Invalid("dosage", "is required")
	}
	if !m.Frequency.Valid() {
		return errs.Invalid("frequency", "unknown frequency")
	}
	if m.EndDate != nil && m.EndDate.Before(m.StartDate) {
		return errs.Invalid("end_date", "must not be before start_date")
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
