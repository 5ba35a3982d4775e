package analytics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"pet-care-tracker/internal/domain/errs"
	"pet-care-tracker/internal/domain/tasks"
	"pet-care-tracker/internal/platform/logger"
	"pet-care-tracker/internal/platform/web"
)

// RegisterRoutes monta /stats. rc puede ser nil; si está, /stats/dashboard
// sirve el último resultado publicado mientras siga dentro del debounce.
func RegisterRoutes(r chi.Router, svc *Service, rc *Recomputer, log logger.Logger) {
	r.Route("/stats", func(sr chi.Router) {
		sr.Get("/dashboard", dashboardHandler(svc, rc, log))
		sr.Get("/weekly", periodHandler(svc.Weekly, log))
		sr.Get("/monthly", periodHandler(svc.Monthly, log))
		sr.Get("/pets", func(w http.ResponseWriter, r *http.Request) {
			web.WriteJSON(w, http.StatusOK, svc.PerPet())
		})
		sr.Get("/categories", categoriesHandler(svc))
		sr.Get("/completion", completionHandler(svc, log))
		sr.Get("/streak", func(w http.ResponseWriter, r *http.Request) {
			web.WriteJSON(w, http.StatusOK, map[string]int{"streak": svc.Streak()})
		})
		sr.Get("/productive-days", func(w http.ResponseWriter, r *http.Request) {
			web.WriteJSON(w, http.StatusOK, svc.ProductiveDays())
		})
		sr.Get("/average", averageHandler(svc, log))
	})
}

// dashboardHandler godoc
// @Summary Dashboard
// @Description Conteos de hoy/vencidas/próximas, estadísticas semanal y mensual, racha y resumen por mascota.
// @Tags stats
// @Produce json
// @Param fresh query bool false "Ignorar el resultado en caché"
// @Success 200 {object} Dashboard
// @Router /stats/dashboard [get]
func dashboardHandler(svc *Service, rc *Recomputer, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if rc != nil && r.URL.Query().Get("fresh") != "true" {
			if d, ok := rc.Fresh(); ok {
				web.WriteJSON(w, http.StatusOK, d)
				return
			}
		}
		d, err := svc.Dashboard(r.Context())
		if err != nil {
			// cliente desconectado: no hay a quién responder
			if r.Context().Err() != nil {
				return
			}
			web.WriteError(w, log, err)
			return
		}
		web.WriteJSON(w, http.StatusOK, d)
	}
}

// periodHandler godoc
// @Summary Estadísticas de la semana ISO o del mes que contiene date
// @Tags stats
// @Produce json
// @Param date query string false "RFC3339; vacío = ahora"
// @Success 200 {object} PeriodStats
// @Router /stats/weekly [get]
// @Router /stats/monthly [get]
func periodHandler(fn func(time.Time) PeriodStats, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref, err := web.ParseTime("date", r.URL.Query().Get("date"))
		if err != nil {
			web.WriteError(w, log, err)
			return
		}
		at := time.Now()
		if ref != nil {
			at = *ref
		}
		web.WriteJSON(w, http.StatusOK, fn(at))
	}
}

type categoryCount struct {
	Category tasks.Category `json:"category"`
	Count    int            `json:"count"`
}

func categoriesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts := svc.Categories()
		out := make([]categoryCount, 0, len(tasks.Categories))
		for _, c := range tasks.Categories {
			out = append(out, categoryCount{Category: c, Count: counts[c]})
		}
		web.WriteJSON(w, http.StatusOK, out)
	}
}

// completionHandler godoc
// @Summary Serie de tasa de completitud
// @Tags stats
// @Produce json
// @Param days query int false "Cantidad de días, hoy incluido (default 30)"
// @Success 200 {array} CompletionPoint
// @Router /stats/completion [get]
func completionHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days, err := parseDays(r)
		if err != nil {
			web.WriteError(w, log, err)
			return
		}
		series, err := svc.CompletionSeries(r.Context(), days)
		if err != nil {
			if r.Context().Err() != nil {
				return
			}
			web.WriteError(w, log, err)
			return
		}
		web.WriteJSON(w, http.StatusOK, series)
	}
}

func averageHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days, err := parseDays(r)
		if err != nil {
			web.WriteError(w, log, err)
			return
		}
		web.WriteJSON(w, http.StatusOK, map[string]float64{"average_tasks_per_day": svc.AverageTasksPerDay(days)})
	}
}

func parseDays(r *http.Request) (int, error) {
	v := r.URL.Query().Get("days")
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > 366 {
		return 0, errs.Invalid("days", "must be between 1 and 366")
	}
	return n, nil
}
