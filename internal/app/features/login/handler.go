// internal/app/features/login/handler.go
package login

import (
	"context"
	"net/http"

	organizationstore "github.com/dalemusser/fleethub/internal/app/store/organizations"
	userstore "github.com/dalemusser/fleethub/internal/app/store/users"
	"github.com/dalemusser/fleethub/internal/app/system/auditlog"
	"github.com/dalemusser/fleethub/internal/app/system/auth"
	"github.com/dalemusser/fleethub/internal/app/system/httpjson"
	"github.com/dalemusser/fleethub/internal/app/system/normalize"
	"github.com/dalemusser/fleethub/internal/app/system/ratelimit"
	"github.com/dalemusser/fleethub/internal/app/system/timeouts"
	"github.com/dalemusser/fleethub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type Handler struct {
	Users      *userstore.Store
	Orgs       *organizationstore.Store
	SessionMgr *auth.SessionManager
	Limiter    *ratelimit.LoginLimiter
	AuditLog   *auditlog.Logger
	Log        *zap.Logger
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	ID             string `json:"id"`
	FullName       string `json:"full_name"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	OrganizationID string `json:"organization_id,omitempty"`
}

// HandleLogin processes POST /api/login. All credential failures return the
// same 401 envelope; only organization suspension is distinguished (403), and
// the audit log records the precise reason.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "malformed request body")
		return
	}
	email := normalize.Email(req.Email)
	if email == "" || req.Password == "" {
		httpjson.FieldError(w, "email", "email and password are required")
		return
	}

	if h.Limiter != nil {
		if allowed, reason := h.Limiter.Check(r, email); !allowed {
			httpjson.Error(w, http.StatusTooManyRequests, reason)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	user, err := h.Users.GetByEmail(ctx, email)
	if err == mongo.ErrNoDocuments {
		h.AuditLog.LoginFailedUserNotFound(ctx, r, email)
		httpjson.Error(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		h.Log.Error("login: user lookup failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}

	// bcrypt compare before the active check so both paths take comparable time.
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		h.AuditLog.LoginFailedWrongPassword(ctx, r, user.ID, user.OrganizationID, email)
		httpjson.Error(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if !user.Active {
		h.AuditLog.LoginFailedUserDisabled(ctx, r, user.ID, user.OrganizationID, email)
		httpjson.Error(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if user.Role != models.RoleSuperAdmin && user.OrganizationID != nil {
		suspended, err := h.Orgs.IsSuspended(ctx, *user.OrganizationID)
		if err != nil && err != mongo.ErrNoDocuments {
			h.Log.Error("login: suspension check failed", zap.Error(err))
			httpjson.Internal(w)
			return
		}
		if suspended {
			h.AuditLog.LoginFailedOrgSuspended(ctx, r, user.ID, user.OrganizationID, email)
			httpjson.Error(w, http.StatusForbidden, "organization suspended")
			return
		}
	}

	if err := h.SessionMgr.SignIn(w, r, user.ID.Hex()); err != nil {
		h.Log.Error("login: session save failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	if h.Limiter != nil {
		h.Limiter.ResetEmail(email)
	}
	h.AuditLog.LoginSuccess(ctx, r, user.ID, user.OrganizationID, "password", email)

	resp := loginResponse{
		ID:       user.ID.Hex(),
		FullName: user.FullName,
		Email:    user.Email,
		Role:     user.Role,
	}
	if user.OrganizationID != nil {
		resp.OrganizationID = user.OrganizationID.Hex()
	}
	httpjson.Write(w, http.StatusOK, resp)
}
