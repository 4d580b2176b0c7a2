// internal/app/features/servicerecords/routes.go
package servicerecords

import (
	"github.com/dalemusser/fleethub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the service-records subrouter (mounted under /api/service-records).
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Post("/", h.HandleCreate)
	r.Get("/", h.HandleListForMachine)
	r.Get("/export", h.HandleExport)

	return r
}
