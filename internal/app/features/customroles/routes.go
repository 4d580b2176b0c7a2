// internal/app/features/customroles/routes.go
package customroles

import (
	"github.com/dalemusser/fleethub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the custom-roles subrouter (mounted under /api/roles).
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)
	r.Get("/permissions", h.HandlePermissions)
	r.Get("/{id}", h.HandleGet)
	r.Put("/{id}", h.HandleUpdate)
	r.Delete("/{id}", h.HandleDelete)

	return r
}
