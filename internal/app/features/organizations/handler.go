// internal/app/features/organizations/handler.go
package organizations

import (
	"context"
	"net/http"

	"github.com/dalemusser/fleethub/internal/app/store/audit"
	organizationstore "github.com/dalemusser/fleethub/internal/app/store/organizations"
	"github.com/dalemusser/fleethub/internal/app/system/auditlog"
	"github.com/dalemusser/fleethub/internal/app/system/gates"
	"github.com/dalemusser/fleethub/internal/app/system/httpjson"
	"github.com/dalemusser/fleethub/internal/app/system/normalize"
	"github.com/dalemusser/fleethub/internal/app/system/status"
	"github.com/dalemusser/fleethub/internal/app/system/timeouts"
	"github.com/dalemusser/fleethub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the tenant directory. Every route is superadmin-only.
type Handler struct {
	Orgs     *organizationstore.Store
	Gate     *gates.Gate
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

type orgRequest struct {
	Name         string `json:"name"`
	ContactEmail string `json:"contact_email"`
}

// HandleCreate serves POST /api/organizations.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	res := h.Gate.RequireSuperAdmin(w, r)
	if !res.OK {
		return
	}

	var req orgRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "malformed request body")
		return
	}
	name := normalize.Name(req.Name)
	if name == "" {
		httpjson.FieldError(w, "name", "organization name is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	created, err := h.Orgs.Create(ctx, models.Organization{
		Name:         name,
		ContactEmail: normalize.Email(req.ContactEmail),
		Status:       status.Active,
	})
	if err == organizationstore.ErrDuplicateOrganization {
		httpjson.Error(w, http.StatusConflict, "an organization with this name already exists")
		return
	}
	if err != nil {
		h.Log.Error("organization create failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}

	h.AuditLog.AdminAction(ctx, r, audit.EventOrgCreated, res.UserID, &created.ID, map[string]string{
		"name": created.Name,
	})
	httpjson.Write(w, http.StatusCreated, created)
}

// HandleList serves GET /api/organizations.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	res := h.Gate.RequireSuperAdmin(w, r)
	if !res.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	list, err := h.Orgs.List(ctx)
	if err != nil {
		h.Log.Error("organization list failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	if list == nil {
		list = []models.Organization{}
	}
	httpjson.Write(w, http.StatusOK, list)
}

// HandleGet serves GET /api/organizations/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	res := h.Gate.RequireSuperAdmin(w, r)
	if !res.OK {
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.NotFound(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short)
	defer cancel()

	org, err := h.Orgs.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		httpjson.NotFound(w)
		return
	}
	if err != nil {
		h.Log.Error("organization load failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	httpjson.Write(w, http.StatusOK, org)
}

// HandleSuspend serves PUT /api/organizations/{id}/suspend. Suspension takes
// effect on the next gated request from any of the tenant's users.
func (h *Handler) HandleSuspend(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, status.Suspended, audit.EventOrgSuspended)
}

// HandleActivate serves PUT /api/organizations/{id}/activate.
func (h *Handler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, status.Active, audit.EventOrgActivated)
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request, st, event string) {
	res := h.Gate.RequireSuperAdmin(w, r)
	if !res.OK {
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.NotFound(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	if _, err := h.Orgs.GetByID(ctx, id); err != nil {
		if err == mongo.ErrNoDocuments {
			httpjson.NotFound(w)
			return
		}
		h.Log.Error("organization load failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	if err := h.Orgs.SetStatus(ctx, id, st); err != nil {
		h.Log.Error("organization status change failed", zap.Error(err), zap.String("status", st))
		httpjson.Internal(w)
		return
	}

	h.AuditLog.AdminAction(ctx, r, event, res.UserID, &id, nil)

	org, err := h.Orgs.GetByID(ctx, id)
	if err != nil {
		h.Log.Error("organization reload failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	httpjson.Write(w, http.StatusOK, org)
}
