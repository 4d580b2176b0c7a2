// internal/app/features/customroles/handler.go
package customroles

import (
	"context"
	"net/http"

	"github.com/dalemusser/fleethub/internal/app/store/audit"
	customrolestore "github.com/dalemusser/fleethub/internal/app/store/customroles"
	"github.com/dalemusser/fleethub/internal/app/system/auditlog"
	"github.com/dalemusser/fleethub/internal/app/system/authz"
	"github.com/dalemusser/fleethub/internal/app/system/gates"
	"github.com/dalemusser/fleethub/internal/app/system/httpjson"
	"github.com/dalemusser/fleethub/internal/app/system/normalize"
	"github.com/dalemusser/fleethub/internal/app/system/timeouts"
	"github.com/dalemusser/fleethub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Roles    *customrolestore.Store
	Gate     *gates.Gate
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

type roleRequest struct {
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

// validatePermissions checks every token against the central vocabulary and
// returns the first invalid one.
func validatePermissions(perms []string) (string, bool) {
	for _, p := range perms {
		if !authz.IsValidPermission(p) {
			return p, false
		}
	}
	return "", true
}

// HandleCreate serves POST /api/roles (roles:manage). Permission tokens
// outside the vocabulary are rejected; the store dedupes the set.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	res := h.Gate.Require(w, r, authz.PermRolesManage)
	if !res.OK {
		return
	}

	var req roleRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "malformed request body")
		return
	}
	name := normalize.Name(req.Name)
	if name == "" {
		httpjson.FieldError(w, "name", "role name is required")
		return
	}
	if bad, ok := validatePermissions(req.Permissions); !ok {
		httpjson.FieldError(w, "permissions", "unknown permission: "+bad)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	created, err := h.Roles.Create(ctx, models.CustomRole{
		OrganizationID: res.OrgID,
		Name:           name,
		Permissions:    req.Permissions,
	})
	if err == customrolestore.ErrDuplicateName {
		httpjson.Error(w, http.StatusConflict, "a role with this name already exists")
		return
	}
	if err != nil {
		h.Log.Error("role create failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}

	h.AuditLog.AdminAction(ctx, r, audit.EventRoleCreated, res.UserID, &res.OrgID, map[string]string{
		"role_id": created.ID.Hex(),
		"name":    created.Name,
	})
	httpjson.Write(w, http.StatusCreated, created)
}

// HandleList serves GET /api/roles (roles:manage).
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	res := h.Gate.Require(w, r, authz.PermRolesManage)
	if !res.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	list, err := h.Roles.ListByOrg(ctx, res.OrgID)
	if err != nil {
		h.Log.Error("role list failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	if list == nil {
		list = []models.CustomRole{}
	}
	httpjson.Write(w, http.StatusOK, list)
}

// HandleGet serves GET /api/roles/{id} (roles:manage).
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	res := h.Gate.Require(w, r, authz.PermRolesManage)
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

	role, err := h.Roles.GetForOrg(ctx, id, res.OrgID)
	if err == mongo.ErrNoDocuments {
		httpjson.NotFound(w)
		return
	}
	if err != nil {
		h.Log.Error("role load failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	httpjson.Write(w, http.StatusOK, role)
}

// HandleUpdate serves PUT /api/roles/{id} (roles:manage).
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	res := h.Gate.Require(w, r, authz.PermRolesManage)
	if !res.OK {
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.NotFound(w)
		return
	}

	var req roleRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "malformed request body")
		return
	}
	name := normalize.Name(req.Name)
	if name == "" {
		httpjson.FieldError(w, "name", "role name is required")
		return
	}
	if bad, ok := validatePermissions(req.Permissions); !ok {
		httpjson.FieldError(w, "permissions", "unknown permission: "+bad)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	if _, err := h.Roles.GetForOrg(ctx, id, res.OrgID); err != nil {
		if err == mongo.ErrNoDocuments {
			httpjson.NotFound(w)
			return
		}
		h.Log.Error("role load failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}

	if err := h.Roles.Update(ctx, id, res.OrgID, name, req.Permissions); err != nil {
		if err == customrolestore.ErrDuplicateName {
			httpjson.Error(w, http.StatusConflict, "a role with this name already exists")
			return
		}
		h.Log.Error("role update failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}

	h.AuditLog.AdminAction(ctx, r, audit.EventRoleUpdated, res.UserID, &res.OrgID, map[string]string{
		"role_id": id.Hex(),
	})

	updated, err := h.Roles.GetForOrg(ctx, id, res.OrgID)
	if err != nil {
		h.Log.Error("role reload failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	httpjson.Write(w, http.StatusOK, updated)
}

// HandleDelete serves DELETE /api/roles/{id} (roles:manage). Users referencing
// the deleted role fall back to their base system role on the next permission
// check; the dangling reference is harmless.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	res := h.Gate.Require(w, r, authz.PermRolesManage)
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

	deleted, err := h.Roles.Delete(ctx, id, res.OrgID)
	if err != nil {
		h.Log.Error("role delete failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	if deleted == 0 {
		httpjson.NotFound(w)
		return
	}

	h.AuditLog.AdminAction(ctx, r, audit.EventRoleDeleted, res.UserID, &res.OrgID, map[string]string{
		"role_id": id.Hex(),
	})
	httpjson.Write(w, http.StatusOK, map[string]bool{"ok": true})
}

// HandlePermissions serves GET /api/roles/permissions: the vocabulary custom
// roles may draw from.
func (h *Handler) HandlePermissions(w http.ResponseWriter, r *http.Request) {
	res := h.Gate.Require(w, r, authz.PermRolesManage)
	if !res.OK {
		return
	}
	httpjson.Write(w, http.StatusOK, map[string][]string{"permissions": authz.AllPermissions})
}
