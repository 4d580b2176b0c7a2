package authz_test

import (
	"context"
	"testing"

	customrolestore "github.com/dalemusser/fleethub/internal/app/store/customroles"
	"github.com/dalemusser/fleethub/internal/app/system/authz"
	"github.com/dalemusser/fleethub/internal/domain/models"
	"github.com/dalemusser/fleethub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestResolver_StaticPaths(t *testing.T) {
	rs := authz.NewResolver(nil, zap.NewNop())
	ctx := context.Background()

	orgID := primitive.NewObjectID()

	t.Run("nil user denied", func(t *testing.T) {
		assert.False(t, rs.HasPermission(ctx, nil, authz.PermMachineView))
	})

	t.Run("zero id denied", func(t *testing.T) {
		u := &models.User{Role: models.RoleAdmin}
		assert.False(t, rs.HasPermission(ctx, u, authz.PermMachineView))
	})

	t.Run("superadmin always allowed", func(t *testing.T) {
		u := &models.User{ID: primitive.NewObjectID(), Role: models.RoleSuperAdmin}
		for _, p := range authz.AllPermissions {
			assert.True(t, rs.HasPermission(ctx, u, p), "permission %q", p)
		}
		// Even tokens outside the vocabulary: superadmin never consults it.
		assert.True(t, rs.HasPermission(ctx, u, "no:such"))
	})

	t.Run("base role mapping", func(t *testing.T) {
		u := &models.User{ID: primitive.NewObjectID(), Role: models.RoleViewer, OrganizationID: &orgID}
		assert.True(t, rs.HasPermission(ctx, u, authz.PermMachineView))
		assert.False(t, rs.HasPermission(ctx, u, authz.PermMachineEdit))
	})

	t.Run("dangling custom role with nil store falls back", func(t *testing.T) {
		crID := primitive.NewObjectID()
		u := &models.User{
			ID:             primitive.NewObjectID(),
			Role:           models.RoleViewer,
			OrganizationID: &orgID,
			CustomRoleID:   &crID,
		}
		assert.True(t, rs.HasPermission(ctx, u, authz.PermMachineView))
		assert.False(t, rs.HasPermission(ctx, u, authz.PermMachineEdit))
	})
}

func TestResolver_CustomRoleOverride(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)

	rs := authz.NewResolver(customrolestore.New(db), zap.NewNop())

	org := fx.CreateOrganization(ctx, "Override Org")
	other := fx.CreateOrganization(ctx, "Other Org")

	// A role that grants machine:edit but not machine:view.
	role := fx.CreateCustomRole(ctx, org.ID, "Editor Only",
		[]string{authz.PermMachineEdit})

	user := fx.CreateUser(ctx, "Vera Viewer", "vera@test.com", models.RoleViewer, &org.ID)
	principal := &models.User{
		ID:             user.ID,
		Role:           user.Role,
		OrganizationID: &org.ID,
		CustomRoleID:   &role.ID,
	}

	// The custom role replaces the base set: it grants what viewer lacks and
	// revokes what viewer has.
	assert.True(t, rs.HasPermission(ctx, principal, authz.PermMachineEdit))
	assert.False(t, rs.HasPermission(ctx, principal, authz.PermMachineView))

	t.Run("cross-tenant role falls back to base", func(t *testing.T) {
		foreign := fx.CreateCustomRole(ctx, other.ID, "Foreign Role",
			[]string{authz.PermMachineEdit})
		p := &models.User{
			ID:             user.ID,
			Role:           user.Role,
			OrganizationID: &org.ID,
			CustomRoleID:   &foreign.ID,
		}
		assert.False(t, rs.HasPermission(ctx, p, authz.PermMachineEdit))
		assert.True(t, rs.HasPermission(ctx, p, authz.PermMachineView))
	})

	t.Run("deleted role falls back to base", func(t *testing.T) {
		gone := primitive.NewObjectID()
		p := &models.User{
			ID:             user.ID,
			Role:           user.Role,
			OrganizationID: &org.ID,
			CustomRoleID:   &gone,
		}
		assert.True(t, rs.HasPermission(ctx, p, authz.PermMachineView))
		assert.False(t, rs.HasPermission(ctx, p, authz.PermMachineEdit))
	})
}
