// internal/app/system/authz/resolver.go
package authz

import (
	"context"

	customrolestore "github.com/dalemusser/fleethub/internal/app/store/customroles"
	"github.com/dalemusser/fleethub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Resolver decides allow/deny for (user, permission) pairs. The only lookup
// it ever performs is the custom-role fetch; everything else is an in-memory
// set-membership test, so it is cheap to call many times per request.
type Resolver struct {
	roles *customrolestore.Store
	log   *zap.Logger
}

// NewResolver builds a Resolver. roles may be nil in tests that exercise only
// the static paths; a nil store behaves like "no custom role found".
func NewResolver(roles *customrolestore.Store, logger *zap.Logger) *Resolver {
	return &Resolver{roles: roles, log: logger}
}

// HasPermission reports whether the user holds the permission.
//
// Decision order:
//  1. no user / zero id → deny
//  2. superadmin → allow, no lookups
//  3. custom role set → allow iff the role (scoped to the user's
//     organization) contains the permission; a dangling or cross-tenant
//     reference falls through to the base check
//  4. static system-role mapping
//
// Lookup failures are logged and treated as "no custom role found": the
// check fails closed to the base role, never open.
func (rs *Resolver) HasPermission(ctx context.Context, user *models.User, perm string) bool {
	if user == nil || user.ID.IsZero() {
		return false
	}
	if user.Role == models.RoleSuperAdmin {
		return true
	}

	if user.CustomRoleID != nil && !user.CustomRoleID.IsZero() {
		if role, ok := rs.lookupCustomRole(ctx, user); ok {
			return role.HasPermission(perm)
		}
	}

	return RoleHasPermission(user.Role, perm)
}

func (rs *Resolver) lookupCustomRole(ctx context.Context, user *models.User) (*models.CustomRole, bool) {
	if rs.roles == nil || user.OrganizationID == nil {
		return nil, false
	}
	role, err := rs.roles.GetForOrg(ctx, *user.CustomRoleID, *user.OrganizationID)
	if err == mongo.ErrNoDocuments {
		// Dangling reference or a role from another tenant; use the base role.
		return nil, false
	}
	if err != nil {
		rs.log.Error("custom role lookup failed",
			zap.String("user_id", user.ID.Hex()),
			zap.String("custom_role_id", user.CustomRoleID.Hex()),
			zap.Error(err))
		return nil, false
	}
	return role, true
}
