package medications

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"pet-care-tracker/internal/domain/optional"
	"pet-care-tracker/internal/domain/recurrence"
	"pet-care-tracker/internal/platform/logger"
	"pet-care-tracker/internal/platform/web"
)

func RegisterRoutes(r chi.Router, svc *Service, log logger.Logger) {
	r.Route("/medications", func(mr chi.Router) {
		mr.Post("/", createMedicationHandler(svc, log))
		mr.Get("/", listMedicationsHandler(svc))

		mr.Get("/{medicationID}", getMedicationHandler(svc, log))
		mr.Patch("/{medicationID}", updateMedicationHandler(svc, log))
		mr.Delete("/{medicationID}", deleteMedicationHandler(svc, log))

		mr.Post("/{medicationID}/doses", recordDoseHandler(svc, log))
		mr.Post("/{medicationID}/complete", transitionHandler(svc.Complete, svc, log))
		mr.Post("/{medicationID}/deactivate", transitionHandler(svc.Deactivate, svc, log))
	})
}

type createMedicationRequest struct {
	PetID        string               `json:"pet_id" validate:"required"`
	Name         string               `json:"name" validate:"required"`
	Dosage       string               `json:"dosage" validate:"required"`
	Frequency    recurrence.Frequency `json:"frequency" validate:"required,oneof=once_daily twice_daily three_times_daily every_other_day weekly monthly as_needed custom"`
	StartDate    string               `json:"start_date"` // RFC3339; vacío = ahora
	EndDate      string               `json:"end_date"`
	Instructions *string              `json:"instructions"`
	PrescribedBy *string              `json:"prescribed_by"`
}

type updateMedicationRequest struct {
	Name         *string                   `json:"name"`
	Dosage       *string                   `json:"dosage"`
	Frequency    *recurrence.Frequency     `json:"frequency" validate:"omitempty,oneof=once_daily twice_daily three_times_daily every_other_day weekly monthly as_needed custom"`
	EndDate      optional.Patch[time.Time] `json:"end_date"`
	Instructions optional.Patch[string]    `json:"instructions"`
	PrescribedBy optional.Patch[string]    `json:"prescribed_by"`
}

type recordDoseRequest struct {
	At string `json:"at"` // RFC3339; vacío = ahora
}

type medicationResponse struct {
	Medication
	Status        Status `json:"status"`
	IsOverdue     bool   `json:"is_overdue"`
	DaysRemaining *int   `json:"days_remaining,omitempty"`
}

// createMedicationHandler godoc
// @Summary Iniciar medicación
// @Tags medications
// @Accept json
// @Produce json
// @Param payload body createMedicationRequest true "Fechas en RFC3339"
// @Success 201 {object} medicationResponse
// @Failure 400 {object} object "validación"
// @Router /medications [post]
func createMedicationHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createMedicationRequest
		if err := web.Decode(r, &req); err != nil {
			web.WriteError(w, log, err)
			return
		}
		start, err := web.ParseTime("start_date", req.StartDate)
		if err != nil {
			web.WriteError(w, log, err)
			return
		}
		end, err := web.ParseTime("end_date", req.EndDate)
		if err != nil {
			web.WriteError(w, log, err)
			return
		}

		in := CreateInput{
			PetID:        req.PetID,
			Name:         req.Name,
			Dosage:       req.Dosage,
			Frequency:    req.Frequency,
			EndDate:      end,
			Instructions: req.Instructions,
			PrescribedBy: req.PrescribedBy,
		}
		if start != nil {
			in.StartDate = *start
		}

		m, err := svc.Create(r.Context(), in)
		if err != nil {
			web.WriteError(w, log, err)
			return
		}
		web.WriteJSON(w, http.StatusCreated, svc.toResponse(m))
	}
}

// listMedicationsHandler godoc
// @Summary Listar medicaciones
// @Tags medications
// @Produce json
// @Param pet_id query string false "Filtrar por mascota"
// @Param active query bool false "Sólo activas sin completar"
// @Success 200 {array} medicationResponse
// @Router /medications [get]
func listMedicationsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		items := svc.List()
		if q.Get("active") == "true" {
			items = svc.ListActive()
		}
		if pet := strings.TrimSpace(q.Get("pet_id")); pet != "" {
			filtered := items[:0:0]
			for _, m := range items {
				if m.PetID == pet {
					filtered = append(filtered, m)
				}
			}
			items = filtered
		}
		web.WriteJSON(w, http.StatusOK, svc.toResponses(items))
	}
}

func getMedicationHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := svc.GetByID(chi.URLParam(r, "medicationID"))
		if err != nil {
			web.WriteError(w, log, err)
			return
		}
		web.WriteJSON(w, http.StatusOK, svc.toResponse(m))
	}
}

func updateMedicationHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateMedicationRequest
		if err := web.Decode(r, &req); err != nil {
			web.WriteError(w, log, err)
			return
		}

		m, err := svc.Update(r.Context(), chi.URLParam(r, "medicationID"), UpdateInput{
			Name:         req.Name,
			Dosage:       req.Dosage,
			Frequency:    req.Frequency,
			EndDate:      req.EndDate,
			Instructions: req.Instructions,
			PrescribedBy: req.PrescribedBy,
		})
		if err != nil {
			web.WriteError(w, log, err)
			return
		}
		web.WriteJSON(w, http.StatusOK, svc.toResponse(m))
	}
}

// recordDoseHandler godoc
// @Summary Registrar toma
// @Description Calcula next_dose_date = at + desplazamiento de la frecuencia.
// @Tags medications
// @Accept json
// @Produce json
// @Param medicationID path string true "ID de la medicación"
// @Param payload body recordDoseRequest false "at en RFC3339"
// @Success 200 {object} medicationResponse
// @Router /medications/{medicationID}/doses [post]
func recordDoseHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req recordDoseRequest
		if r.ContentLength != 0 {
			if err := web.Decode(r, &req); err != nil {
				web.WriteError(w, log, err)
				return
			}
		}
		at, err := web.ParseTime("at", req.At)
		if err != nil {
			web.WriteError(w, log, err)
			return
		}

		m, err := svc.RecordDose(r.Context(), chi.URLParam(r, "medicationID"), at)
		if err != nil {
			web.WriteError(w, log, err)
			return
		}
		web.WriteJSON(w, http.StatusOK, svc.toResponse(m))
	}
}

func transitionHandler(fn func(ctx context.Context, id string) (Medication, error), svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := fn(r.Context(), chi.URLParam(r, "medicationID"))
		if err != nil {
			web.WriteError(w, log, err)
			return
		}
		web.WriteJSON(w, http.StatusOK, svc.toResponse(m))
	}
}

func deleteMedicationHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "medicationID")); err != nil {
			web.WriteError(w, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Service) toResponse(m Medication) medicationResponse {
	now := s.now()
	out := medicationResponse{Medication: m, Status: m.Status(now), IsOverdue: m.IsOverdue(now)}
	if days, ok := m.DaysRemaining(now); ok {
		out.DaysRemaining = &days
	}
	return out
}

func (s *Service) toResponses(items []Medication) []medicationResponse {
	out := make([]medicationResponse, 0, len(items))
	for _, m := range items {
		out = append(out, s.toResponse(m))
	}
	return out
}
