// internal/app/features/fuel/routes.go
package fuel

import (
	"github.com/dalemusser/fleethub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the fuel subrouter (mounted under /api/fuel).
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Post("/", h.HandleCreate)
	r.Get("/", h.HandleList)
	r.Get("/tank", h.HandleTankLevel)
	r.Get("/export", h.HandleExport)

	return r
}
