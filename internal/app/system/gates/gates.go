// Package gates provides the authorization gate API handlers call before any
// business logic runs.
//
// FleetHub uses a two-tier authorization pattern:
//
//  1. Route-level middleware (auth.RequireSignedIn) for the coarse "must be
//     signed in" check, applied in routes.go files.
//  2. Handler-level gates (this package) for permission checks. A gate
//     resolves the session user, short-circuits suspended organizations, asks
//     the permission resolver, writes the JSON denial itself when the check
//     fails, and hands back the user context when it succeeds.
//
// Gates never expose resolver internals to the caller; only the allow/deny
// outcome crosses the boundary.
package gates

import (
	"context"
	"net/http"

	organizationstore "github.com/dalemusser/fleethub/internal/app/store/organizations"
	"github.com/dalemusser/fleethub/internal/app/system/authz"
	"github.com/dalemusser/fleethub/internal/app/system/httpjson"
	"github.com/dalemusser/fleethub/internal/app/system/timeouts"
	"github.com/dalemusser/fleethub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Result contains the outcome of a gate check. When OK is false the denial
// response has already been written.
type Result struct {
	Role   string
	Name   string
	UserID primitive.ObjectID
	OrgID  primitive.ObjectID
	OK     bool
}

// Gate checks permissions and organization suspension for API handlers.
type Gate struct {
	resolver *authz.Resolver
	orgs     *organizationstore.Store
	log      *zap.Logger
}

func New(resolver *authz.Resolver, orgs *organizationstore.Store, logger *zap.Logger) *Gate {
	return &Gate{resolver: resolver, orgs: orgs, log: logger}
}

// Require ensures the request carries a session whose user holds the
// permission. Denials are written as JSON:
//
//	no session                      → 401 {"error":"unauthorized"}
//	organization suspended          → 403 {"error":"organization suspended"}
//	permission denied               → 403 {"error":"forbidden"}
//
// The suspension check runs before the permission check and never applies to
// superadmins.
func (g *Gate) Require(w http.ResponseWriter, r *http.Request, permission string) Result {
	role, name, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Unauthorized(w)
		return Result{OK: false}
	}

	orgID := authz.UserOrgID(r)

	if role != models.RoleSuperAdmin && !orgID.IsZero() {
		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short)
		suspended, err := g.orgs.IsSuspended(ctx, orgID)
		cancel()
		if err != nil && err != mongo.ErrNoDocuments {
			g.log.Error("organization suspension check failed",
				zap.String("organization_id", orgID.Hex()), zap.Error(err))
			httpjson.Internal(w)
			return Result{OK: false}
		}
		if suspended {
			httpjson.Error(w, http.StatusForbidden, "organization suspended")
			return Result{OK: false}
		}
	}

	principal := models.User{ID: userID, Role: role}
	if !orgID.IsZero() {
		principal.OrganizationID = &orgID
	}
	if crID := authz.UserCustomRoleID(r); crID != nil {
		principal.CustomRoleID = crID
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short)
	allowed := g.resolver.HasPermission(ctx, &principal, permission)
	cancel()
	if !allowed {
		httpjson.Forbidden(w)
		return Result{OK: false}
	}

	return Result{Role: role, Name: name, UserID: userID, OrgID: orgID, OK: true}
}

// RequireSuperAdmin ensures the user is signed in and a superadmin. Used for
// tenant-wide operations (access requests, organization management) that no
// permission token grants.
func (g *Gate) RequireSuperAdmin(w http.ResponseWriter, r *http.Request) Result {
	role, name, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Unauthorized(w)
		return Result{OK: false}
	}
	if role != models.RoleSuperAdmin {
		httpjson.Forbidden(w)
		return Result{OK: false}
	}
	return Result{Role: role, Name: name, UserID: userID, OrgID: authz.UserOrgID(r), OK: true}
}

// RequireSignedIn ensures a session is present without any permission check,
// for endpoints whose data is already scoped to the caller (own notifications,
// own alerts). The suspension rule still applies.
func (g *Gate) RequireSignedIn(w http.ResponseWriter, r *http.Request) Result {
	role, name, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Unauthorized(w)
		return Result{OK: false}
	}
	orgID := authz.UserOrgID(r)

	if role != models.RoleSuperAdmin && !orgID.IsZero() {
		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short)
		suspended, err := g.orgs.IsSuspended(ctx, orgID)
		cancel()
		if err != nil && err != mongo.ErrNoDocuments {
			g.log.Error("organization suspension check failed",
				zap.String("organization_id", orgID.Hex()), zap.Error(err))
			httpjson.Internal(w)
			return Result{OK: false}
		}
		if suspended {
			httpjson.Error(w, http.StatusForbidden, "organization suspended")
			return Result{OK: false}
		}
	}

	return Result{Role: role, Name: name, UserID: userID, OrgID: orgID, OK: true}
}
