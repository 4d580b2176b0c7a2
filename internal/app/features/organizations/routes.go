// internal/app/features/organizations/routes.go
package organizations

import (
	"github.com/dalemusser/fleethub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the organizations subrouter (mounted under /api/organizations).
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)
	r.Get("/{id}", h.HandleGet)
	r.Put("/{id}/suspend", h.HandleSuspend)
	r.Put("/{id}/activate", h.HandleActivate)

	return r
}
