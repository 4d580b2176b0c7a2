// internal/app/features/accessrequests/handler.go
package accessrequests

import (
	"context"
	"net/http"
	"strings"

	accessrequeststore "github.com/dalemusser/fleethub/internal/app/store/accessrequests"
	"github.com/dalemusser/fleethub/internal/app/store/audit"
	organizationstore "github.com/dalemusser/fleethub/internal/app/store/organizations"
	userstore "github.com/dalemusser/fleethub/internal/app/store/users"
	"github.com/dalemusser/fleethub/internal/app/system/auditlog"
	"github.com/dalemusser/fleethub/internal/app/system/gates"
	"github.com/dalemusser/fleethub/internal/app/system/httpjson"
	"github.com/dalemusser/fleethub/internal/app/system/mailer"
	"github.com/dalemusser/fleethub/internal/app/system/normalize"
	"github.com/dalemusser/fleethub/internal/app/system/notify"
	"github.com/dalemusser/fleethub/internal/app/system/status"
	"github.com/dalemusser/fleethub/internal/app/system/timeouts"
	"github.com/dalemusser/fleethub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// sanitize strips any markup from free-text fields of the public form.
var sanitize = bluemonday.StrictPolicy()

type Handler struct {
	Requests *accessrequeststore.Store
	Users    *userstore.Store
	Orgs     *organizationstore.Store
	Gate     *gates.Gate
	Emitter  *notify.Emitter
	Mailer   *mailer.Mailer
	AuditLog *auditlog.Logger
	SiteName string
	BaseURL  string
	Log      *zap.Logger
}

type createRequest struct {
	Email            string `json:"email"`
	OrganizationName string `json:"organization_name"`
	ContactName      string `json:"contact_name"`
	Phone            string `json:"phone"`
	Notes            string `json:"notes"`
}

// HandleCreate processes the public POST /api/access-requests. Input is
// sanitized before storage; a pending request for the same email is rejected.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "malformed request body")
		return
	}

	email := normalize.Email(sanitize.Sanitize(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		httpjson.FieldError(w, "email", "a valid email address is required")
		return
	}
	orgName := normalize.Name(sanitize.Sanitize(req.OrganizationName))
	if orgName == "" {
		httpjson.FieldError(w, "organization_name", "organization name is required")
		return
	}
	contactName := normalize.Name(sanitize.Sanitize(req.ContactName))
	if contactName == "" {
		httpjson.FieldError(w, "contact_name", "contact name is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	created, err := h.Requests.Create(ctx, models.AccessRequest{
		Email:            email,
		OrganizationName: orgName,
		ContactName:      contactName,
		Phone:            sanitize.Sanitize(req.Phone),
		Notes:            sanitize.Sanitize(req.Notes),
	})
	if err == accessrequeststore.ErrPendingExists {
		httpjson.Error(w, http.StatusConflict, "a pending request for this email already exists")
		return
	}
	if err != nil {
		h.Log.Error("access request create failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}

	httpjson.Write(w, http.StatusCreated, created)
}

// HandleList serves GET /api/access-requests for superadmins. An optional
// ?status= filter narrows the result.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	res := h.Gate.RequireSuperAdmin(w, r)
	if !res.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	requests, err := h.Requests.List(ctx, r.URL.Query().Get("status"))
	if err != nil {
		h.Log.Error("access request list failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	httpjson.Write(w, http.StatusOK, requests)
}

type approveResponse struct {
	Status      string `json:"status"`
	UserCreated bool   `json:"user_created"`
	UserID      string `json:"user_id,omitempty"`
}

// HandleApprove processes POST /api/access-requests/{id}/approve.
//
// The approval saga is idempotent on the user side: the user lookup by email
// runs before creation, so approving twice (or approving a request whose
// email already has an account) never creates a second user. The request's
// own pending→approved transition is single-shot in the store.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	res := h.Gate.RequireSuperAdmin(w, r)
	if !res.OK {
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.NotFound(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long)
	defer cancel()

	request, err := h.Requests.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		httpjson.NotFound(w)
		return
	}
	if err != nil {
		h.Log.Error("access request load failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}

	// Resolve or create the organization named on the request.
	org, err := h.Orgs.GetByName(ctx, request.OrganizationName)
	if err == mongo.ErrNoDocuments {
		created, cErr := h.Orgs.Create(ctx, models.Organization{Name: request.OrganizationName})
		if cErr != nil {
			h.Log.Error("organization create failed", zap.Error(cErr))
			httpjson.Internal(w)
			return
		}
		org = created
	} else if err != nil {
		h.Log.Error("organization lookup failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}

	// Existence check before creation keeps the saga idempotent.
	existing, err := h.Users.GetByEmail(ctx, request.Email)
	if err != nil && err != mongo.ErrNoDocuments {
		h.Log.Error("user lookup failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}

	userCreated := false
	tempPassword := ""
	var userID primitive.ObjectID
	if existing != nil {
		userID = existing.ID
	} else {
		tempPassword = uuid.NewString()
		hash, hErr := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
		if hErr != nil {
			h.Log.Error("temp password hash failed", zap.Error(hErr))
			httpjson.Internal(w)
			return
		}
		user, cErr := h.Users.Create(ctx, models.User{
			Email:          request.Email,
			FullName:       request.ContactName,
			Role:           models.RoleUser,
			PasswordHash:   string(hash),
			OrganizationID: &org.ID,
			Active:         true,
		})
		if cErr == userstore.ErrDuplicateEmail {
			// Lost a race with a concurrent approve; the user exists now.
			winner, gErr := h.Users.GetByEmail(ctx, request.Email)
			if gErr != nil {
				h.Log.Error("user lookup after duplicate failed", zap.Error(gErr))
				httpjson.Internal(w)
				return
			}
			userID = winner.ID
		} else if cErr != nil {
			h.Log.Error("user create failed", zap.Error(cErr))
			httpjson.Internal(w)
			return
		} else {
			userID = user.ID
			userCreated = true
		}
	}

	err = h.Requests.Decide(ctx, id, status.Approved, res.UserID, tempPassword)
	if err == accessrequeststore.ErrAlreadyDecided {
		if request.Status == status.Rejected {
			httpjson.Error(w, http.StatusConflict, "request has already been decided")
			return
		}
		// Second approve of an approved request: the user exists, nothing to redo.
		httpjson.Write(w, http.StatusOK, approveResponse{
			Status: "approved", UserCreated: false, UserID: userID.Hex(),
		})
		return
	}
	if err != nil {
		h.Log.Error("access request decide failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}

	h.AuditLog.AdminAction(ctx, r, audit.EventAccessRequestApproved, res.UserID, &org.ID, map[string]string{
		"request_id": id.Hex(),
		"email":      request.Email,
	})

	h.Emitter.SendToUsersWithRole(ctx, org.ID, models.RoleAdmin, notify.Message{
		Title: "Access request approved",
		Body:  request.ContactName + " (" + request.Email + ") has been granted access.",
		Type:  models.NotificationApproval,
	})

	if userCreated {
		h.emailCredentials(ctx, request, tempPassword)
	}

	httpjson.Write(w, http.StatusOK, approveResponse{
		Status: "approved", UserCreated: userCreated, UserID: userID.Hex(),
	})
}

// HandleReject processes POST /api/access-requests/{id}/reject.
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
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

	request, err := h.Requests.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		httpjson.NotFound(w)
		return
	}
	if err != nil {
		h.Log.Error("access request load failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}

	err = h.Requests.Decide(ctx, id, status.Rejected, res.UserID, "")
	if err == accessrequeststore.ErrAlreadyDecided {
		httpjson.Error(w, http.StatusConflict, "request has already been decided")
		return
	}
	if err != nil {
		h.Log.Error("access request decide failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}

	h.AuditLog.AdminAction(ctx, r, audit.EventAccessRequestRejected, res.UserID, nil, map[string]string{
		"request_id": id.Hex(),
		"email":      request.Email,
	})

	httpjson.Write(w, http.StatusOK, map[string]string{"status": "rejected"})
}

// emailCredentials sends the temporary password to the requester. Best effort:
// a mail failure never fails the approval.
func (h *Handler) emailCredentials(ctx context.Context, request *models.AccessRequest, tempPassword string) {
	if !h.Mailer.Enabled() {
		return
	}
	email := mailer.BuildCredentialsEmail(mailer.CredentialsEmailData{
		SiteName:     h.SiteName,
		FullName:     request.ContactName,
		Email:        request.Email,
		TempPassword: tempPassword,
		LoginURL:     h.BaseURL + "/login",
	})
	if err := h.Mailer.Send(ctx, email); err != nil {
		h.Log.Warn("credentials email failed",
			zap.String("to", request.Email), zap.Error(err))
	}
}
