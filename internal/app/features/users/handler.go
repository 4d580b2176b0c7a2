// internal/app/features/users/handler.go
package users

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/fleethub/internal/app/store/audit"
	customrolestore "github.com/dalemusser/fleethub/internal/app/store/customroles"
	userstore "github.com/dalemusser/fleethub/internal/app/store/users"
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
	"golang.org/x/crypto/bcrypt"
)

type Handler struct {
	Users    *userstore.Store
	Roles    *customrolestore.Store
	Gate     *gates.Gate
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

type createRequest struct {
	Email       string   `json:"email"`
	FullName    string   `json:"full_name"`
	Role        string   `json:"role"`
	Password    string   `json:"password"`
	AlertEmails []string `json:"alert_emails"`
}

// HandleCreate serves POST /api/users (users:manage). New users always belong
// to the caller's organization; superadmin accounts cannot be minted here.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	res := h.Gate.Require(w, r, authz.PermUsersManage)
	if !res.OK {
		return
	}

	var req createRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "malformed request body")
		return
	}
	email := normalize.Email(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		httpjson.FieldError(w, "email", "a valid email address is required")
		return
	}
	fullName := normalize.Name(req.FullName)
	if fullName == "" {
		httpjson.FieldError(w, "full_name", "full name is required")
		return
	}
	role := normalize.Role(req.Role)
	if role == models.RoleSuperAdmin || !models.IsValidRole(role) {
		httpjson.FieldError(w, "role", "invalid role")
		return
	}
	if len(req.Password) < 8 {
		httpjson.FieldError(w, "password", "password must be at least 8 characters")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.Log.Error("password hash failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	orgID := res.OrgID
	created, err := h.Users.Create(ctx, models.User{
		Email:          email,
		FullName:       fullName,
		Role:           role,
		PasswordHash:   string(hash),
		OrganizationID: &orgID,
		Active:         true,
		AlertEmails:    req.AlertEmails,
	})
	if err == userstore.ErrDuplicateEmail {
		httpjson.Error(w, http.StatusConflict, "a user with this email already exists")
		return
	}
	if err != nil {
		h.Log.Error("user create failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}

	h.AuditLog.AdminActionOnUser(ctx, r, audit.EventUserCreated, res.UserID, created.ID, &res.OrgID, map[string]string{
		"email": created.Email,
		"role":  created.Role,
	})
	httpjson.Write(w, http.StatusCreated, created)
}

// HandleList serves GET /api/users (users:view), scoped to the caller's
// organization.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	res := h.Gate.Require(w, r, authz.PermUsersView)
	if !res.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	list, err := h.Users.ListByOrg(ctx, res.OrgID)
	if err != nil {
		h.Log.Error("user list failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	if list == nil {
		list = []models.User{}
	}
	httpjson.Write(w, http.StatusOK, list)
}

// HandleGet serves GET /api/users/{id} (users:view). Users from other
// organizations read as missing.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	res := h.Gate.Require(w, r, authz.PermUsersView)
	if !res.OK {
		return
	}
	user, ok := h.loadOrgUser(w, r, res)
	if !ok {
		return
	}
	httpjson.Write(w, http.StatusOK, user)
}

type updateRequest struct {
	FullName     string   `json:"full_name"`
	Role         string   `json:"role"`
	CustomRoleID *string  `json:"custom_role_id"` // "" clears the assignment
	Active       *bool    `json:"active"`
	AlertEmails  []string `json:"alert_emails"`
}

// HandleUpdate serves PUT /api/users/{id} (users:manage). A custom-role
// assignment must reference a role in the same organization.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	res := h.Gate.Require(w, r, authz.PermUsersManage)
	if !res.OK {
		return
	}
	user, ok := h.loadOrgUser(w, r, res)
	if !ok {
		return
	}

	var req updateRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Role != "" {
		role := normalize.Role(req.Role)
		if role == models.RoleSuperAdmin || !models.IsValidRole(role) {
			httpjson.FieldError(w, "role", "invalid role")
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	upd := userstore.Update{
		FullName:    normalize.Name(req.FullName),
		Role:        req.Role,
		Active:      req.Active,
		AlertEmails: req.AlertEmails,
	}
	if req.CustomRoleID != nil {
		if *req.CustomRoleID == "" {
			zero := primitive.NilObjectID
			upd.CustomRoleID = &zero
		} else {
			roleID, err := primitive.ObjectIDFromHex(*req.CustomRoleID)
			if err != nil {
				httpjson.FieldError(w, "custom_role_id", "invalid id")
				return
			}
			// Tenant check: the role must exist in this organization.
			if _, err := h.Roles.GetForOrg(ctx, roleID, res.OrgID); err != nil {
				if err == mongo.ErrNoDocuments {
					httpjson.FieldError(w, "custom_role_id", "role not found")
					return
				}
				h.Log.Error("custom role lookup failed", zap.Error(err))
				httpjson.Internal(w)
				return
			}
			upd.CustomRoleID = &roleID
		}
	}

	if err := h.Users.Apply(ctx, user.ID, upd); err != nil {
		h.Log.Error("user update failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}

	event := audit.EventUserUpdated
	if req.Active != nil {
		if *req.Active {
			event = audit.EventUserEnabled
		} else {
			event = audit.EventUserDisabled
		}
	}
	h.AuditLog.AdminActionOnUser(ctx, r, event, res.UserID, user.ID, &res.OrgID, nil)

	updated, err := h.Users.GetByID(ctx, user.ID)
	if err != nil {
		h.Log.Error("user reload failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	httpjson.Write(w, http.StatusOK, updated)
}

// loadOrgUser resolves {id} to a user in the caller's organization, writing
// the 404 itself when the id is malformed, missing, or cross-tenant.
func (h *Handler) loadOrgUser(w http.ResponseWriter, r *http.Request, res gates.Result) (*models.User, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.NotFound(w)
		return nil, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short)
	defer cancel()

	user, err := h.Users.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		httpjson.NotFound(w)
		return nil, false
	}
	if err != nil {
		h.Log.Error("user load failed", zap.Error(err))
		httpjson.Internal(w)
		return nil, false
	}
	if user.OrganizationID == nil || *user.OrganizationID != res.OrgID {
		httpjson.NotFound(w)
		return nil, false
	}
	return user, true
}
