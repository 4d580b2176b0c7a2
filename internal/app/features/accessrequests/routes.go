// internal/app/features/accessrequests/routes.go
package accessrequests

import (
	"github.com/dalemusser/fleethub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the access request subrouter (mounted under
// /api/access-requests). Submission is public; review is superadmin-only and
// gated inside the handlers.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.HandleCreate)

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Get("/", h.HandleList)
		pr.Post("/{id}/approve", h.HandleApprove)
		pr.Post("/{id}/reject", h.HandleReject)
	})

	return r
}
