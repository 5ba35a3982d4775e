package reminders

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"pet-care-tracker/internal/domain/errs"
	"pet-care-tracker/internal/domain/optional"
	"pet-care-tracker/internal/domain/recurrence"
	"pet-care-tracker/internal/platform/logger"
	"pet-care-tracker/internal/platform/web"
)

func RegisterRoutes(r chi.Router, svc *Service, log logger.Logger) {
	r.Route("/reminders", func(rr chi.Router) {
		rr.Post("/", createReminderHandler(svc, log))
		rr.Get("/", listRemindersHandler(svc))

		rr.Get("/today", listWith(svc, svc.Today))
		rr.Get("/upcoming", listWith(svc, svc.Upcoming))

		// Operaciones sobre la agenda externa
		rr.Get("/notifications/pending", pendingNotificationsHandler(svc, log))
		rr.Post("/reschedule", rescheduleHandler(svc, log))

		rr.Get("/{reminderID}", getReminderHandler(svc, log))
		rr.Patch("/{reminderID}", updateReminderHandler(svc, log))
		rr.Delete("/{reminderID}", deleteReminderHandler(svc, log))
		rr.Post("/{reminderID}/enable", setEnabledHandler(svc, log, true))
		rr.Post("/{reminderID}/disable", setEnabledHandler(svc, log, false))
	})
}

type createReminderRequest struct {
	Title          string                 `json:"title" validate:"required"`
	Message        *string                `json:"message"`
	PetID          *string                `json:"pet_id"`
	SourceTaskID   *string                `json:"source_task_id"`
	ScheduledDate  string                 `json:"scheduled_date" validate:"required"` // RFC3339
	IsRepeating    bool                   `json:"is_repeating"`
	RepeatInterval *int64                 `json:"repeat_interval" validate:"omitempty,gt=0"`
	RepeatType     *recurrence.RepeatType `json:"repeat_type" validate:"omitempty,oneof=hourly daily weekly monthly yearly"`
	IsEnabled      *bool                  `json:"is_enabled"`
}

type updateReminderRequest struct {
	Title          *string                               `json:"title"`
	Message        optional.Patch[string]                `json:"message"`
	PetID          optional.Patch[string]                `json:"pet_id"`
	ScheduledDate  *time.Time                            `json:"scheduled_date"`
	IsRepeating    *bool                                 `json:"is_repeating"`
	RepeatInterval optional.Patch[int64]                 `json:"repeat_interval"`
	RepeatType     optional.Patch[recurrence.RepeatType] `json:"repeat_type"`
}

type reminderResponse struct {
	Reminder
	IsPastDue       bool       `json:"is_past_due"`
	NextTriggerDate *time.Time `json:"next_trigger_date,omitempty"`
}

// createReminderHandler godoc
// @Summary Crear recordatorio
// @Description Persiste el recordatorio y lo agenda en el scheduler de notificaciones si está habilitado.
// @Tags reminders
// @Accept json
// @Produce json
// @Param payload body createReminderRequest true "scheduled_date en RFC3339; repeat_interval en segundos"
// @Success 201 {object} reminderResponse
// @Failure 400 {object} object "validación / intervalo inválido"
// @Router /reminders [post]
func createReminderHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createReminderRequest
		if err := web.Decode(r, &req); err != nil {
			web.WriteError(w, log, err)
			return
		}
		at, err := web.ParseTime("scheduled_date", req.ScheduledDate)
		if err == nil && at == nil {
			err = errs.Invalid("scheduled_date", "is required")
		}
		if err != nil {
			web.WriteError(w, log, err)
			return
		}

		rem, err := svc.Create(r.Context(), CreateInput{
			Title:          req.Title,
			Message:        req.Message,
			PetID:          req.PetID,
			SourceTaskID:   req.SourceTaskID,
			ScheduledDate:  *at,
			IsRepeating:    req.IsRepeating,
			RepeatInterval: req.RepeatInterval,
			RepeatType:     req.RepeatType,
			Enabled:        req.IsEnabled,
		})
		if err != nil {
			web.WriteError(w, log, err)
			return
		}
		web.WriteJSON(w, http.StatusCreated, svc.toResponse(rem))
	}
}

// listRemindersHandler godoc
// @Summary Listar recordatorios
// @Tags reminders
// @Produce json
// @Param pet_id query string false "Filtrar por mascota"
// @Param enabled query bool false "Sólo habilitados"
// @Success 200 {array} reminderResponse
// @Router /reminders [get]
func listRemindersHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items := svc.All()
		if r.URL.Query().Get("enabled") == "true" {
			items = Enabled(items)
		}
		if pet := strings.TrimSpace(r.URL.Query().Get("pet_id")); pet != "" {
			items = ForPet(items, pet)
		}
		web.WriteJSON(w, http.StatusOK, svc.toResponses(items))
	}
}

func listWith(svc *Service, fn func() []Reminder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		web.WriteJSON(w, http.StatusOK, svc.toResponses(fn()))
	}
}

func pendingNotificationsHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := svc.PendingNotifications(r.Context())
		if err != nil {
			log.Warn("pending count failed", map[string]any{"error": err})
			web.WriteJSON(w, http.StatusBadGateway, map[string]string{"error": "notification scheduler unavailable"})
			return
		}
		web.WriteJSON(w, http.StatusOK, map[string]int{"pending": n})
	}
}

func rescheduleHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		moved, err := svc.RollForward(r.Context())
		if err != nil {
			web.WriteError(w, log, err)
			return
		}
		scheduled, err := svc.RescheduleAll(r.Context())
		if err != nil {
			web.WriteError(w, log, err)
			return
		}
		web.WriteJSON(w, http.StatusOK, map[string]int{"rolled_forward": moved, "scheduled": scheduled})
	}
}

func getReminderHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rem, err := svc.GetByID(chi.URLParam(r, "reminderID"))
		if err != nil {
			web.WriteError(w, log, err)
			return
		}
		web.WriteJSON(w, http.StatusOK, svc.toResponse(rem))
	}
}

func updateReminderHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateReminderRequest
		if err := web.Decode(r, &req); err != nil {
			web.WriteError(w, log, err)
			return
		}

		rem, err := svc.Update(r.Context(), chi.URLParam(r, "reminderID"), UpdateInput{
			Title:          req.Title,
			Message:        req.Message,
			PetID:          req.PetID,
			ScheduledDate:  req.ScheduledDate,
			IsRepeating:    req.IsRepeating,
			RepeatInterval: req.RepeatInterval,
			RepeatType:     req.RepeatType,
		})
		if err != nil {
			web.WriteError(w, log, err)
			return
		}
		web.WriteJSON(w, http.StatusOK, svc.toResponse(rem))
	}
}

func setEnabledHandler(svc *Service, log logger.Logger, enabled bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rem, err := svc.SetEnabled(r.Context(), chi.URLParam(r, "reminderID"), enabled)
		if err != nil {
			web.WriteError(w, log, err)
			return
		}
		web.WriteJSON(w, http.StatusOK, svc.toResponse(rem))
	}
}

func deleteReminderHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "reminderID")); err != nil {
			web.WriteError(w, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Service) toResponse(rem Reminder) reminderResponse {
	now := s.now()
	out := reminderResponse{Reminder: rem, IsPastDue: rem.IsPastDue(now)}
	if next, err := rem.NextTrigger(now); err == nil {
		out.NextTriggerDate = next
	}
	return out
}

func (s *Service) toResponses(items []Reminder) []reminderResponse {
	out := make([]reminderResponse, 0, len(items))
	for _, rem := range items {
		out = append(out, s.toResponse(rem))
	}
	return out
}
