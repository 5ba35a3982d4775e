package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "pet-care-tracker/internal/docs"
	"pet-care-tracker/internal/domain/analytics"
	"pet-care-tracker/internal/domain/cloudsync"
	"pet-care-tracker/internal/domain/medications"
	"pet-care-tracker/internal/domain/pets"
	"pet-care-tracker/internal/domain/reminders"
	"pet-care-tracker/internal/domain/tasks"
	"pet-care-tracker/internal/domain/vaccines"
	"pet-care-tracker/internal/middleware"
)

func NewRouter(a *App) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recover(a.log))
	r.Use(middleware.RequestLogger(a.log))
	r.Use(middleware.Metrics(a.Metrics))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// Rutas por módulo
	pets.RegisterRoutes(r, a.Pets, a.log)
	tasks.RegisterRoutes(r, a.Tasks, a.log)
	reminders.RegisterRoutes(r, a.Reminders, a.log)
	vaccines.RegisterRoutes(r, a.Vaccines, a.log)
	medications.RegisterRoutes(r, a.Medications, a.log)
	analytics.RegisterRoutes(r, a.Analytics, a.Recomputer, a.log)

	if a.Sync != nil {
		cloudsync.RegisterRoutes(r, a.Sync, a.log)
	}

	return r
}
