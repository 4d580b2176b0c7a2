// internal/app/features/machines/routes.go
package machines

import (
	"github.com/dalemusser/fleethub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the machines subrouter (mounted under /api/machines).
// Permission checks happen inside the handlers via the gate.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)
	r.Get("/{id}", h.HandleGet)
	r.Put("/{id}", h.HandleUpdate)
	r.Put("/{id}/hours", h.HandleSetHours)
	r.Delete("/{id}", h.HandleDelete)

	return r
}
