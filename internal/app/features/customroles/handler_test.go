package customroles_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/fleethub/internal/app/features/customroles"
	customrolestore "github.com/dalemusser/fleethub/internal/app/store/customroles"
	organizationstore "github.com/dalemusser/fleethub/internal/app/store/organizations"
	"github.com/dalemusser/fleethub/internal/app/system/authz"
	"github.com/dalemusser/fleethub/internal/app/system/gates"
	"github.com/dalemusser/fleethub/internal/domain/models"
	"github.com/dalemusser/fleethub/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T, db *mongo.Database) *customroles.Handler {
	t.Helper()
	logger := zap.NewNop()
	return &customroles.Handler{
		Roles: customrolestore.New(db),
		Gate:  gates.New(authz.NewResolver(customrolestore.New(db), logger), organizationstore.New(db), logger),
		Log:   logger,
	}
}

func TestHandleCreate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	h := newTestHandler(t, db)

	org := fx.CreateOrganization(ctx, "Role Org")
	admin := fx.CreateUser(ctx, "Alma Admin", "alma@test.com", models.RoleAdmin, &org.ID)
	operator := fx.CreateUser(ctx, "Oren Operator", "oren@test.com", models.RoleOperator, &org.ID)

	post := func(u models.User, body map[string]any) *httptest.ResponseRecorder {
		req := testutil.NewAuthenticatedRequest(t, "POST", "/api/roles", testutil.ForUser(u), body)
		rec := httptest.NewRecorder()
		h.HandleCreate(rec, req)
		return rec
	}

	t.Run("admin creates role", func(t *testing.T) {
		rec := post(admin, map[string]any{
			"name":        "Inspector",
			"permissions": []string{authz.PermMachineView, authz.PermPreStartView},
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("status: got %d, want %d (%s)", rec.Code, http.StatusCreated, rec.Body.String())
		}
		var created models.CustomRole
		testutil.DecodeJSON(t, rec, &created)
		if created.Name != "Inspector" || created.OrganizationID != org.ID {
			t.Errorf("created role: %+v", created)
		}
	})

	t.Run("unknown permission token rejected", func(t *testing.T) {
		rec := post(admin, map[string]any{
			"name":        "Bad Role",
			"permissions": []string{authz.PermMachineView, "machine:launch"},
		})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status: got %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("duplicate name conflicts", func(t *testing.T) {
		rec := post(admin, map[string]any{
			"name":        "Inspector",
			"permissions": []string{authz.PermMachineView},
		})
		if rec.Code != http.StatusConflict {
			t.Errorf("status: got %d, want %d", rec.Code, http.StatusConflict)
		}
	})

	t.Run("operator denied", func(t *testing.T) {
		rec := post(operator, map[string]any{
			"name":        "Sneaky",
			"permissions": []string{authz.PermMachineView},
		})
		if rec.Code != http.StatusForbidden {
			t.Errorf("status: got %d, want %d", rec.Code, http.StatusForbidden)
		}
	})
}

func TestHandleDelete_DanglingReferenceFallsBack(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	h := newTestHandler(t, db)

	org := fx.CreateOrganization(ctx, "Fallback Org")
	admin := fx.CreateUser(ctx, "Alma Admin", "alma@test.com", models.RoleAdmin, &org.ID)
	viewer := fx.CreateUser(ctx, "Vera Viewer", "vera@test.com", models.RoleViewer, &org.ID)

	role := fx.CreateCustomRole(ctx, org.ID, "Editor", []string{authz.PermMachineEdit})
	fx.AssignCustomRole(ctx, viewer.ID, role.ID)

	resolver := authz.NewResolver(customrolestore.New(db), zap.NewNop())
	viewer.CustomRoleID = &role.ID
	if !resolver.HasPermission(ctx, &viewer, authz.PermMachineEdit) {
		t.Fatal("custom role should grant machine:edit before deletion")
	}

	req := testutil.NewAuthenticatedRequest(t, "DELETE", "/api/roles/"+role.ID.Hex(), testutil.ForUser(admin), nil)
	req = testutil.WithChiURLParam(req, "id", role.ID.Hex())
	rec := httptest.NewRecorder()
	h.HandleDelete(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: got %d, want %d (%s)", rec.Code, http.StatusOK, rec.Body.String())
	}

	// The dangling reference falls back to the base viewer role.
	if resolver.HasPermission(ctx, &viewer, authz.PermMachineEdit) {
		t.Error("deleted custom role must not still grant machine:edit")
	}
	if !resolver.HasPermission(ctx, &viewer, authz.PermMachineView) {
		t.Error("base viewer role should still grant machine:view")
	}
}
