package tasks

import (
	"net/http"
	"strconv"
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
	r.Route("/tasks", func(tr chi.Router) {
		tr.Post("/", createTaskHandler(svc, log))
		tr.Get("/", listTasksHandler(svc, log))

		tr.Get("/today", partitionHandler(svc, svc.Today))
		tr.Get("/overdue", partitionHandler(svc, svc.Overdue))
		tr.Get("/upcoming", upcomingTasksHandler(svc))

		tr.Get("/{taskID}", getTaskHandler(svc, log))
		tr.Patch("/{taskID}", updateTaskHandler(svc, log))
		tr.Delete("/{taskID}", deleteTaskHandler(svc, log))

		tr.Post("/{taskID}/complete", completeTaskHandler(svc, log))
		tr.Post("/{taskID}/reopen", reopenTaskHandler(svc, log))
	})
}

type createTaskRequest struct {
	Title       string           `json:"title" validate:"required"`
	Description *string          `json:"description"`
	Category    Category         `json:"category" validate:"omitempty,oneof=feeding walking grooming vet medication training cleaning other"`
	Priority    Priority         `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	PetID       *string          `json:"pet_id"`
	DueDate     string           `json:"due_date"` // RFC3339
	Recurrence  *recurrence.Rule `json:"recurrence"`
}

type updateTaskRequest struct {
	Title       *string                         `json:"title"`
	Description optional.Patch[string]          `json:"description"`
	Category    *Category                       `json:"category" validate:"omitempty,oneof=feeding walking grooming vet medication training cleaning other"`
	Priority    *Priority                       `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	PetID       optional.Patch[string]          `json:"pet_id"`
	DueDate     optional.Patch[time.Time]       `json:"due_date"`
	Recurrence  optional.Patch[recurrence.Rule] `json:"recurrence"`
}

type taskResponse struct {
	Task
	IsOverdue bool `json:"is_overdue"`
}

// createTaskHandler godoc
// @Summary Crear tarea de cuidado
// @Tags tasks
// @Accept json
// @Produce json
// @Param payload body createTaskRequest true "Datos de la tarea; due_date en RFC3339; recurrence {type, interval>=1}"
// @Success 201 {object} taskResponse
// @Failure 400 {object} object "validación / regla inválida"
// @Failure 503 {object} object "storage no disponible"
// @Router /tasks [post]
func createTaskHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createTaskRequest
		if err := web.Decode(r, &req); err != nil {
			web.WriteError(w, log, err)
			return
		}

		due, err := web.ParseTime("due_date", req.DueDate)
		if err != nil {
			web.WriteError(w, log, err)
			return
		}

		t, err := svc.Create(r.Context(), CreateInput{
			Title:       req.Title,
			Description: req.Description,
			Category:    req.Category,
			Priority:    req.Priority,
			PetID:       req.PetID,
			DueDate:     due,
			Recurrence:  req.Recurrence,
		})
		if err != nil {
			web.WriteError(w, log, err)
			return
		}
		web.WriteJSON(w, http.StatusCreated, svc.toResponse(t))
	}
}

// listTasksHandler godoc
// @Summary Listar tareas
// @Description Aplica en orden: categoría, mascota, visibilidad de completadas y orden.
// @Tags tasks
// @Produce json
// @Param category query string false "Categoría"
// @Param pet_id query string false "ID de mascota"
// @Param show_completed query bool false "Incluir completadas"
// @Param sort query string false "due_date | priority | category | created_at"
// @Success 200 {array} taskResponse
// @Router /tasks [get]
func listTasksHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := parseFilter(r)
		if err != nil {
			web.WriteError(w, log, err)
			return
		}
		web.WriteJSON(w, http.StatusOK, svc.toResponses(svc.List(f)))
	}
}

func partitionHandler(svc *Service, fn func() []Task) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		web.WriteJSON(w, http.StatusOK, svc.toResponses(fn()))
	}
}

func upcomingTasksHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 5
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 && n <= 200 {
				limit = n
			}
		}
		web.WriteJSON(w, http.StatusOK, svc.toResponses(svc.Upcoming(limit)))
	}
}

func getTaskHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := svc.GetByID(chi.URLParam(r, "taskID"))
		if err != nil {
			web.WriteError(w, log, err)
			return
		}
		web.WriteJSON(w, http.StatusOK, svc.toResponse(t))
	}
}

func updateTaskHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateTaskRequest
		if err := web.Decode(r, &req); err != nil {
			web.WriteError(w, log, err)
			return
		}

		t, err := svc.Update(r.Context(), chi.URLParam(r, "taskID"), UpdateInput{
			Title:       req.Title,
			Description: req.Description,
			Category:    req.Category,
			Priority:    req.Priority,
			PetID:       req.PetID,
			DueDate:     req.DueDate,
			Recurrence:  req.Recurrence,
		})
		if err != nil {
			web.WriteError(w, log, err)
			return
		}
		web.WriteJSON(w, http.StatusOK, svc.toResponse(t))
	}
}

// completeTaskHandler godoc
// @Summary Completar tarea
// @Description Marca la tarea como completada; si es recurrente calcula next_due_date.
// @Tags tasks
// @Produce json
// @Param taskID path string true "ID de la tarea"
// @Success 200 {object} taskResponse
// @Failure 404 {object} object "task not found"
// @Router /tasks/{taskID}/complete [post]
func completeTaskHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := svc.MarkCompleted(r.Context(), chi.URLParam(r, "taskID"))
		if err != nil {
			web.WriteError(w, log, err)
			return
		}
		web.WriteJSON(w, http.StatusOK, svc.toResponse(t))
	}
}

func reopenTaskHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := svc.Reopen(r.Context(), chi.URLParam(r, "taskID"))
		if err != nil {
			web.WriteError(w, log, err)
			return
		}
		web.WriteJSON(w, http.StatusOK, svc.toResponse(t))
	}
}

func deleteTaskHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "taskID")); err != nil {
			web.WriteError(w, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func parseFilter(r *http.Request) (Filter, error) {
	q := r.URL.Query()
	f := Filter{Sort: SortByDueDate}

	if v := strings.TrimSpace(q.Get("category")); v != "" {
		c := Category(v)
		if !c.Valid() {
			return Filter{}, errs.Invalid("category", "unknown category")
		}
		f.Category = &c
	}
	if v := strings.TrimSpace(q.Get("pet_id")); v != "" {
		f.PetID = &v
	}
	if v := q.Get("show_completed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Filter{}, errs.Invalid("show_completed", "must be a boolean")
		}
		f.ShowCompleted = b
	}
	if v := strings.TrimSpace(q.Get("sort")); v != "" {
		s := SortOrder(v)
		if !s.Valid() {
			return Filter{}, errs.Invalid("sort", "must be one of due_date, priority, category, created_at")
		}
		f.Sort = s
	}
	return f, nil
}

func (s *Service) toResponse(t Task) taskResponse {
	return taskResponse{Task: t, IsOverdue: t.IsOverdue(s.now())}
}

func (s *Service) toResponses(items []Task) []taskResponse {
	out := make([]taskResponse, 0, len(items))
	for _, t := range items {
		out = append(out, s.toResponse(t))
	}
	return out
}
