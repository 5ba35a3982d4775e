package cloudsync

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"pet-care-tracker/internal/platform/logger"
	"pet-care-tracker/internal/platform/web"
)

func RegisterRoutes(r chi.Router, svc *Service, log logger.Logger) {
	r.Route("/sync", func(sr chi.Router) {
		sr.Post("/pull", pullHandler(svc, log))
		sr.Post("/push", pushHandler(svc, log))
	})
}

// pullHandler godoc
// @Summary Traer la foto remota y mergear por id
// @Tags sync
// @Produce json
// @Success 200 {object} Report
// @Failure 502 {object} object "colaborador de nube no disponible"
// @Router /sync/pull [post]
func pullHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep, err := svc.Pull(r.Context())
		if err != nil {
			web.WriteError(w, log, err)
			return
		}
		web.WriteJSON(w, http.StatusOK, rep)
	}
}

// pushHandler godoc
// @Summary Subir la foto local
// @Tags sync
// @Produce json
// @Success 200 {object} Report
// @Failure 502 {object} object "colaborador de nube no disponible"
// @Router /sync/push [post]
func pushHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep, err := svc.Push(r.Context())
		if err != nil {
			web.WriteError(w, log, err)
			return
		}
		web.WriteJSON(w, http.StatusOK, rep)
	}
}
