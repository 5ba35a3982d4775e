package vaccines

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"pet-care-tracker/internal/domain/optional"
	"pet-care-tracker/internal/platform/logger"
	"pet-care-tracker/internal/platform/web"
)

func RegisterRoutes(r chi.Router, svc *Service, log logger.Logger) {
	r.Route("/vaccines", func(vr chi.Router) {
		vr.Post("/", createVaccineHandler(svc, log))
		vr.Get("/", listVaccinesHandler(svc))
		vr.Get("/due", dueVaccinesHandler(svc))

		vr.Get("/{vaccineID}", getVaccineHandler(svc, log))
		vr.Patch("/{vaccineID}", updateVaccineHandler(svc, log))
		vr.Delete("/{vaccineID}", deleteVaccineHandler(svc, log))
	})
}

type createVaccineRequest struct {
	PetID            string  `json:"pet_id" validate:"required"`
	Name             string  `json:"name" validate:"required"`
	Type             Type    `json:"type" validate:"omitempty,oneof=rabies distemper parvovirus bordetella leptospirosis lyme feline_leukemia fvrcp other"`
	AdministeredDate string  `json:"administered_date"` // RFC3339; vacío = ahora
	NextDueDate      string  `json:"next_due_date"`
	AdministeredBy   *string `json:"administered_by"`
	BatchNumber      *string `json:"batch_number"`
	Notes            *string `json:"notes"`
	IsRequired       bool    `json:"is_required"`
	IsCompleted      *bool   `json:"is_completed"`
}

type updateVaccineRequest struct {
	Name             *string                   `json:"name"`
	Type             *Type                     `json:"type" validate:"omitempty,oneof=rabies distemper parvovirus bordetella leptospirosis lyme feline_leukemia fvrcp other"`
	AdministeredDate *time.Time                `json:"administered_date"`
	NextDueDate      optional.Patch[time.Time] `json:"next_due_date"`
	AdministeredBy   optional.Patch[string]    `json:"administered_by"`
	BatchNumber      optional.Patch[string]    `json:"batch_number"`
	Notes            optional.Patch[string]    `json:"notes"`
	IsRequired       *bool                     `json:"is_required"`
	IsCompleted      *bool                     `json:"is_completed"`
}

type vaccineResponse struct {
	Vaccine
	Status        Status `json:"status"`
	DaysUntilNext *int   `json:"days_until_next,omitempty"`
}

// createVaccineHandler godoc
// @Summary Registrar vacuna
// @Description is_completed es true por defecto.
// @Tags vaccines
// @Accept json
// @Produce json
// @Param payload body createVaccineRequest true "Fechas en RFC3339"
// @Success 201 {object} vaccineResponse
// @Failure 400 {object} object "validación"
// @Router /vaccines [post]
func createVaccineHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createVaccineRequest
		if err := web.Decode(r, &req); err != nil {
			web.WriteError(w, log, err)
			return
		}
		administered, err := web.ParseTime("administered_date", req.AdministeredDate)
		if err != nil {
			web.WriteError(w, log, err)
			return
		}
		next, err := web.ParseTime("next_due_date", req.NextDueDate)
		if err != nil {
			web.WriteError(w, log, err)
			return
		}

		in := CreateInput{
			PetID:          req.PetID,
			Name:           req.Name,
			Type:           req.Type,
			NextDueDate:    next,
			AdministeredBy: req.AdministeredBy,
			BatchNumber:    req.BatchNumber,
			Notes:          req.Notes,
			IsRequired:     req.IsRequired,
			Completed:      req.IsCompleted,
		}
		if administered != nil {
			in.AdministeredDate = *administered
		}

		v, err := svc.Create(r.Context(), in)
		if err != nil {
			web.WriteError(w, log, err)
			return
		}
		web.WriteJSON(w, http.StatusCreated, svc.toResponse(v))
	}
}

func listVaccinesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items := svc.List()
		if pet := strings.TrimSpace(r.URL.Query().Get("pet_id")); pet != "" {
			items = svc.ListByPet(pet)
		}
		web.WriteJSON(w, http.StatusOK, svc.toResponses(items))
	}
}

// dueVaccinesHandler godoc
// @Summary Vacunas vencidas o próximas
// @Tags vaccines
// @Produce json
// @Success 200 {array} vaccineResponse
// @Router /vaccines/due [get]
func dueVaccinesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		web.WriteJSON(w, http.StatusOK, svc.toResponses(svc.Due()))
	}
}

func getVaccineHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := svc.GetByID(chi.URLParam(r, "vaccineID"))
		if err != nil {
			web.WriteError(w, log, err)
			return
		}
		web.WriteJSON(w, http.StatusOK, svc.toResponse(v))
	}
}

func updateVaccineHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateVaccineRequest
		if err := web.Decode(r, &req); err != nil {
			web.WriteError(w, log, err)
			return
		}

		v, err := svc.Update(r.Context(), chi.URLParam(r, "vaccineID"), UpdateInput{
			Name:             req.Name,
			Type:             req.Type,
			AdministeredDate: req.AdministeredDate,
			NextDueDate:      req.NextDueDate,
			AdministeredBy:   req.AdministeredBy,
			BatchNumber:      req.BatchNumber,
			Notes:            req.Notes,
			IsRequired:       req.IsRequired,
			IsCompleted:      req.IsCompleted,
		})
		if err != nil {
			web.WriteError(w, log, err)
			return
		}
		web.WriteJSON(w, http.StatusOK, svc.toResponse(v))
	}
}

func deleteVaccineHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "vaccineID")); err != nil {
			web.WriteError(w, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Service) toResponse(v Vaccine) vaccineResponse {
	now := s.now()
	out := vaccineResponse{Vaccine: v, Status: v.Status(now)}
	if days, ok := v.DaysUntilNext(now); ok {
		out.DaysUntilNext = &days
	}
	return out
}

func (s *Service) toResponses(items []Vaccine) []vaccineResponse {
	out := make([]vaccineResponse, 0, len(items))
	for _, v := range items {
		out = append(out, s.toResponse(v))
	}
	return out
}
