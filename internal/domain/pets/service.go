package pets

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"pet-care-tracker/internal/domain/collection"
	"pet-care-tracker/internal/domain/errs"
	"pet-care-tracker/internal/domain/optional"
	"pet-care-tracker/internal/platform/logger"
)

const kind = "pet"

type Service struct {
	repo *collection.Collection[Pet]
	log  logger.Logger
	now  func() time.Time
}

func NewService(repo *collection.Collection[Pet], log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		repo: repo,
		log:  log.With(map[string]any{"component": "pets"}),
		now:  time.Now,
	}
}

type CreateInput struct {
	Name      string
	Species   Species
	Breed     *string
	BirthDate *time.Time
	Weight    *float64
	Notes     *string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Pet, error) {
	now := s.now()
	p := Pet{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(in.Name),
		Species:   in.Species,
		Breed:     trimmed(in.Breed),
		BirthDate: in.BirthDate,
		Weight:    in.Weight,
		Notes:     trimmed(in.Notes),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := validate(p); err != nil {
		return Pet{}, err
	}

	if err := s.repo.Add(ctx, p); err != nil {
		return Pet{}, err
	}
	s.log.Debug("pet created", map[string]any{"pet_id": p.ID})
	return p, nil
}

// UpdateInput: nil = no tocar. Los Patch permiten limpiar opcionales.
type UpdateInput struct {
	Name      *string
	Species   *Species
	Breed     optional.Patch[string]
	BirthDate optional.Patch[time.Time]
	Weight    optional.Patch[float64]
	Notes     optional.Patch[string]
	IsActive  *bool
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Pet, error) {
	return s.repo.Mutate(ctx, id, func(p Pet) (Pet, error) {
		if in.Name != nil {
			p.Name = strings.TrimSpace(*in.Name)
		}
		if in.Species != nil {
			p.Species = *in.Species
		}
		p.Breed = trimmed(in.Breed.Apply(p.Breed))
		p.BirthDate = in.BirthDate.Apply(p.BirthDate)
		p.Weight = in.Weight.Apply(p.Weight)
		p.Notes = trimmed(in.Notes.Apply(p.Notes))
		if in.IsActive != nil {
			p.IsActive = *in.IsActive
		}

		if err := validate(p); err != nil {
			return Pet{}, err
		}
		p.UpdatedAt = s.now()
		return p, nil
	})
}

// Deactivate es el borrado lógico: la mascota y su historial siguen existiendo.
func (s *Service) Deactivate(ctx context.Context, id string) (Pet, error) {
	inactive := false
	return s.Update(ctx, id, UpdateInput{IsActive: &inactive})
}

// Delete borra la mascota. Tareas y recordatorios que la referencian quedan
// con un pet id colgado; las agregaciones lo toleran.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Debug("pet deleted", map[string]any{"pet_id": id})
	return nil
}

func (s *Service) GetByID(id string) (Pet, error) {
	p, ok := s.repo.Get(strings.TrimSpace(id))
	if !ok {
		return Pet{}, errs.NotFound(kind, id)
	}
	return p, nil
}

func (s *Service) List() []Pet {
	return s.repo.Snapshot()
}

func (s *Service) ListActive() []Pet {
	all := s.repo.Snapshot()
	out := make([]Pet, 0, len(all))
	for _, p := range all {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out
}

// Merge hace upsert de registros externos (sync). Los inválidos se devuelven en
// rejected; los que tienen updated_at anterior a la copia local no se aplican y
// vuelven en stale.
func (s *Service) Merge(ctx context.Context, incoming []Pet) (rejected, stale []string, err error) {
	valid := make([]Pet, 0, len(incoming))
	for _, p := range incoming {
		if strings.TrimSpace(p.ID) == "" || validate(p) != nil {
			rejected = append(rejected, p.ID)
			continue
		}
		valid = append(valid, p)
	}
	stale, err = s.repo.UpsertIf(ctx, func(cur, in Pet) bool {
		return !in.UpdatedAt.Before(cur.UpdatedAt)
	}, valid...)
	return rejected, stale, err
}

func validate(p Pet) error {
	if p.Name == "" {
		return errs.Invalid("name", "is required")
	}
	if !p.Species.Valid() {
		return errs.Invalid("species", "unknown species")
	}
	if p.Weight != nil && *p.Weight <= 0 {
		return errs.Invalid("weight", "must be greater than 0")
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
