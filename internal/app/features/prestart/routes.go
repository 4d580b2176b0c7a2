// internal/app/features/prestart/routes.go
package prestart

import (
	"github.com/dalemusser/fleethub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the pre-start subrouter (mounted under /api/prestart-checks).
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Post("/", h.HandleSubmit)
	r.Get("/", h.HandleListForMachine)
	r.Get("/{id}", h.HandleGet)

	return r
}
