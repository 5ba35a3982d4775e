package pets

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"pet-care-tracker/internal/domain/optional"
	"pet-care-tracker/internal/platform/logger"
	"pet-care-tracker/internal/platform/web"
)

func RegisterRoutes(r chi.Router, svc *Service, log logger.Logger) {
	r.Route("/pets", func(pr chi.Router) {
		pr.Post("/", createPetHandler(svc, log))
		pr.Get("/", listPetsHandler(svc))

		pr.Get("/{petID}", getPetHandler(svc, log))
		pr.Patch("/{petID}", updatePetHandler(svc, log))
		pr.Delete("/{petID}", deletePetHandler(svc, log))

		// Borrado lógico
		pr.Post("/{petID}/deactivate", deactivatePetHandler(svc, log))
	})
}

type createPetRequest struct {
	Name      string   `json:"name" validate:"required"`
	Species   Species  `json:"species" validate:"required,oneof=dog cat bird rabbit fish reptile hamster other"`
	Breed     *string  `json:"breed"`
	BirthDate string   `json:"birth_date"` // RFC3339 opcional
	Weight    *float64 `json:"weight" validate:"omitempty,gt=0"`
	Notes     *string  `json:"notes"`
}

type updatePetRequest struct {
	Name      *string                   `json:"name"`
	Species   *Species                  `json:"species" validate:"omitempty,oneof=dog cat bird rabbit fish reptile hamster other"`
	Breed     optional.Patch[string]    `json:"breed"`
	BirthDate optional.Patch[time.Time] `json:"birth_date"`
	Weight    optional.Patch[float64]   `json:"weight"`
	Notes     optional.Patch[string]    `json:"notes"`
	IsActive  *bool                     `json:"is_active"`
}

type petResponse struct {
	Pet
	Age *Age `json:"age,omitempty"`
}

// createPetHandler godoc
// @Summary Registrar mascota
// @Tags pets
// @Accept json
// @Produce json
// @Param payload body createPetRequest true "Datos de la mascota; birth_date en RFC3339"
// @Success 201 {object} petResponse
// @Failure 400 {object} object "validación"
// @Failure 503 {object} object "storage no disponible"
// @Router /pets [post]
func createPetHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createPetRequest
		if err := web.Decode(r, &req); err != nil {
			web.WriteError(w, log, err)
			return
		}

		bd, err := web.ParseTime("birth_date", req.BirthDate)
		if err != nil {
			web.WriteError(w, log, err)
			return
		}

		p, err := svc.Create(r.Context(), CreateInput{
			Name:      req.Name,
			Species:   req.Species,
			Breed:     req.Breed,
			BirthDate: bd,
			Weight:    req.Weight,
			Notes:     req.Notes,
		})
		if err != nil {
			web.WriteError(w, log, err)
			return
		}

		web.WriteJSON(w, http.StatusCreated, svc.toResponse(p))
	}
}

// listPetsHandler godoc
// @Summary Listar mascotas
// @Tags pets
// @Produce json
// @Param active query bool false "Sólo mascotas activas"
// @Success 200 {array} petResponse
// @Router /pets [get]
func listPetsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items := svc.List()
		if r.URL.Query().Get("active") == "true" {
			items = svc.ListActive()
		}

		out := make([]petResponse, 0, len(items))
		for _, p := range items {
			out = append(out, svc.toResponse(p))
		}
		web.WriteJSON(w, http.StatusOK, out)
	}
}

func getPetHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.GetByID(chi.URLParam(r, "petID"))
		if err != nil {
			web.WriteError(w, log, err)
			return
		}
		web.WriteJSON(w, http.StatusOK, svc.toResponse(p))
	}
}

func updatePetHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updatePetRequest
		if err := web.Decode(r, &req); err != nil {
			web.WriteError(w, log, err)
			return
		}

		updated, err := svc.Update(r.Context(), chi.URLParam(r, "petID"), UpdateInput{
			Name:      req.Name,
			Species:   req.Species,
			Breed:     req.Breed,
			BirthDate: req.BirthDate,
			Weight:    req.Weight,
			Notes:     req.Notes,
			IsActive:  req.IsActive,
		})
		if err != nil {
			web.WriteError(w, log, err)
			return
		}
		web.WriteJSON(w, http.StatusOK, svc.toResponse(updated))
	}
}

func deactivatePetHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.Deactivate(r.Context(), chi.URLParam(r, "petID"))
		if err != nil {
			web.WriteError(w, log, err)
			return
		}
		web.WriteJSON(w, http.StatusOK, svc.toResponse(p))
	}
}

func deletePetHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "petID")); err != nil {
			web.WriteError(w, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Service) toResponse(p Pet) petResponse {
	out := petResponse{Pet: p}
	if age, ok := p.Age(s.now()); ok {
		out.Age = &age
	}
	return out
}
