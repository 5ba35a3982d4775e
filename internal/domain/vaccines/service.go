package vaccines

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"pet-care-tracker/internal/domain/collection"
	"pet-care-tracker/internal/domain/errs"
	"pet-care-tracker/internal/domain/optional"
	"pet-care-tracker/internal/platform/logger"
)

const kind = "vaccine"

type Service struct {
	repo *collection.Collection[Vaccine]
	log  logger.Logger
	now  func() time.Time
}

func NewService(repo *collection.Collection[Vaccine], log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		repo: repo,
		log:  log.With(map[string]any{"component": "vaccines"}),
		now:  time.Now,
	}
}

type CreateInput struct {
	PetID            string
	Name             string
	Type             Type
	AdministeredDate time.Time
	NextDueDate      *time.Time
	AdministeredBy   *string
	BatchNumber      *string
	Notes            *string
	IsRequired       bool
	// nil = completada. Un registro nuevo nace completado salvo que se indique lo contrario.
	Completed *bool
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Vaccine, error) {
	now := s.now()

	completed := true
	if in.Completed != nil {
		completed = *in.Completed
	}
	typ := in.Type
	if typ == "" {
		typ = TypeOther
	}

	v := Vaccine{
		ID:               uuid.NewString(),
		PetID:            strings.TrimSpace(in.PetID),
		Name:             strings.TrimSpace(in.Name),
		Type:             typ,
		AdministeredDate: in.AdministeredDate,
		NextDueDate:      in.NextDueDate,
		AdministeredBy:   trimmed(in.AdministeredBy),
		BatchNumber:      trimmed(in.BatchNumber),
		Notes:            trimmed(in.Notes),
		IsRequired:       in.IsRequired,
		IsCompleted:      completed,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if v.AdministeredDate.IsZero() {
		v.AdministeredDate = now
	}
	if err := validate(v); err != nil {
		return Vaccine{}, err
	}

	if err := s.repo.Add(ctx, v); err != nil {
		return Vaccine{}, err
	}
	s.log.Debug("vaccine recorded", map[string]any{"vaccine_id": v.ID, "pet_id": v.PetID})
	return v, nil
}

type UpdateInput struct {
	Name             *string
	Type             *Type
	AdministeredDate *time.Time
	NextDueDate      optional.Patch[time.Time]
	AdministeredBy   optional.Patch[string]
	BatchNumber      optional.Patch[string]
	Notes            optional.Patch[string]
	IsRequired       *bool
	IsCompleted      *bool
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Vaccine, error) {
	return s.repo.Mutate(ctx, id, func(v Vaccine) (Vaccine, error) {
		if in.Name != nil {
			v.Name = strings.TrimSpace(*in.Name)
		}
		if in.Type != nil {
			v.Type = *in.Type
		}
		if in.AdministeredDate != nil {
			v.AdministeredDate = *in.AdministeredDate
		}
		v.NextDueDate = in.NextDueDate.Apply(v.NextDueDate)
		v.AdministeredBy = trimmed(in.AdministeredBy.Apply(v.AdministeredBy))
		v.BatchNumber = trimmed(in.BatchNumber.Apply(v.BatchNumber))
		v.Notes = trimmed(in.Notes.Apply(v.Notes))
		if in.IsRequired != nil {
			v.IsRequired = *in.IsRequired
		}
		if in.IsCompleted != nil {
			v.IsCompleted = *in.IsCompleted
		}

		if err := validate(v); err != nil {
			return Vaccine{}, err
		}
		v.UpdatedAt = s.now()
		return v, nil
	})
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) GetByID(id string) (Vaccine, error) {
	v, ok := s.repo.Get(strings.TrimSpace(id))
	if !ok {
		return Vaccine{}, errs.NotFound(kind, id)
	}
	return v, nil
}

func (s *Service) List() []Vaccine { return s.repo.Snapshot() }

// ListByPet ordena por fecha de aplicación, la más reciente primero.
func (s *Service) ListByPet(petID string) []Vaccine {
	out := make([]Vaccine, 0)
	for _, v := range s.repo.Snapshot() {
		if v.PetID == petID {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AdministeredDate.After(out[j].AdministeredDate)
	})
	return out
}

// Due devuelve las vacunas vencidas o próximas, ascendente por próximo refuerzo.
func (s *Service) Due() []Vaccine {
	now := s.now()
	out := make([]Vaccine, 0)
	for _, v := range s.repo.Snapshot() {
		switch v.Status(now) {
		case StatusOverdue, StatusDueSoon:
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].NextDueDate.Before(*out[j].NextDueDate)
	})
	return out
}

func validate(v Vaccine) error {
	if v.PetID == "" {
		return errs.Invalid("pet_id", "is required")
	}
	if v.Name == "" {
		return errs.Invalid("name", "is required")
	}
	if !v.Type.Valid() {
		return errs.Invalid("type", "unknown vaccine type")
	}
	if v.NextDueDate != nil && v.NextDueDate.Before(v.AdministeredDate) {
		return errs.Invalid("next_due_date", "must not be before administered_date")
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
