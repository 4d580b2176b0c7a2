// internal/app/features/alerts/routes.go
package alerts

import (
	"github.com/dalemusser/fleethub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the alerts subrouter (mounted under /api/alerts).
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Get("/", h.HandleList)
	r.Put("/{id}/read", h.HandleMarkRead)

	return r
}
