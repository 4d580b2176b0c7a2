package gates_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	organizationstore "github.com/dalemusser/fleethub/internal/app/store/organizations"
	"github.com/dalemusser/fleethub/internal/app/system/authz"
	"github.com/dalemusser/fleethub/internal/app/system/gates"
	"github.com/dalemusser/fleethub/internal/testutil"
	"go.uber.org/zap"
)

// newStaticGate builds a gate with nil stores. Safe as long as the test users
// carry no organization: the suspension lookup is skipped and the resolver
// only runs its static paths.
func newStaticGate() *gates.Gate {
	logger := zap.NewNop()
	return gates.New(authz.NewResolver(nil, logger), nil, logger)
}

func TestRequire_NoSession(t *testing.T) {
	g := newStaticGate()

	req := httptest.NewRequest("GET", "/api/machines", nil)
	rec := httptest.NewRecorder()

	res := g.Require(rec, req, authz.PermMachineView)

	if res.OK {
		t.Fatal("expected denial for anonymous request")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if !strings.Contains(rec.Body.String(), "unauthorized") {
		t.Errorf("body: got %q, want unauthorized envelope", rec.Body.String())
	}
}

func TestRequire_PermissionDenied(t *testing.T) {
	g := newStaticGate()

	// A viewer with no organization: static mapping denies machine:create.
	user := testutil.TestUser{
		ID:   "64a000000000000000000001",
		Name: "Vera Viewer",
		Role: "viewer",
	}
	req := testutil.WithUser(httptest.NewRequest("POST", "/api/machines", nil), user)
	rec := httptest.NewRecorder()

	res := g.Require(rec, req, authz.PermMachineCreate)

	if res.OK {
		t.Fatal("expected denial for viewer creating a machine")
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestRequire_AllowedRole(t *testing.T) {
	g := newStaticGate()

	user := testutil.TestUser{
		ID:   "64a000000000000000000002",
		Name: "Oskar Operator",
		Role: "operator",
	}
	req := testutil.WithUser(httptest.NewRequest("POST", "/api/prestart-checks", nil), user)
	rec := httptest.NewRecorder()

	res := g.Require(rec, req, authz.PermPreStartSubmit)

	if !res.OK {
		t.Fatalf("expected allow, got denial with status %d body %q", rec.Code, rec.Body.String())
	}
	if res.Role != "operator" {
		t.Errorf("role: got %q, want operator", res.Role)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("nothing should be written on allow, got %q", rec.Body.String())
	}
}

func TestRequire_SuperAdminBypassesEverything(t *testing.T) {
	g := newStaticGate()

	user := testutil.SuperAdminUser()
	for _, perm := range authz.AllPermissions {
		req := testutil.WithUser(httptest.NewRequest("GET", "/", nil), user)
		rec := httptest.NewRecorder()
		if res := g.Require(rec, req, perm); !res.OK {
			t.Errorf("superadmin denied %q", perm)
		}
	}
}

func TestRequireSuperAdmin(t *testing.T) {
	g := newStaticGate()

	t.Run("superadmin allowed", func(t *testing.T) {
		req := testutil.WithUser(httptest.NewRequest("GET", "/api/organizations", nil), testutil.SuperAdminUser())
		rec := httptest.NewRecorder()
		if res := g.RequireSuperAdmin(rec, req); !res.OK {
			t.Error("expected allow for superadmin")
		}
	})

	t.Run("admin denied", func(t *testing.T) {
		user := testutil.TestUser{ID: "64a000000000000000000003", Role: "admin"}
		req := testutil.WithUser(httptest.NewRequest("GET", "/api/organizations", nil), user)
		rec := httptest.NewRecorder()
		if res := g.RequireSuperAdmin(rec, req); res.OK {
			t.Error("expected denial for admin")
		}
		if rec.Code != http.StatusForbidden {
			t.Errorf("status: got %d, want %d", rec.Code, http.StatusForbidden)
		}
	})

	t.Run("anonymous denied", func(t *testing.T) {
		rec := httptest.NewRecorder()
		if res := g.RequireSuperAdmin(rec, httptest.NewRequest("GET", "/", nil)); res.OK {
			t.Error("expected denial for anonymous")
		}
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status: got %d, want %d", rec.Code, http.StatusUnauthorized)
		}
	})
}

func TestRequire_SuspendedOrganization(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)

	logger := zap.NewNop()
	orgs := organizationstore.New(db)
	g := gates.New(authz.NewResolver(nil, logger), orgs, logger)

	org := fx.CreateOrganization(ctx, "Suspended Org")
	if err := orgs.SetStatus(ctx, org.ID, "suspended"); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	admin := fx.CreateUser(ctx, "Alma Admin", "alma@test.com", "admin", &org.ID)

	req := testutil.WithUser(httptest.NewRequest("GET", "/api/machines", nil), testutil.ForUser(admin))
	rec := httptest.NewRecorder()

	res := g.Require(rec, req, authz.PermMachineView)
	if res.OK {
		t.Fatal("expected denial for suspended organization")
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusForbidden)
	}
	if !strings.Contains(rec.Body.String(), "organization suspended") {
		t.Errorf("body: got %q, want suspension message", rec.Body.String())
	}

	t.Run("signed-in check also suspended", func(t *testing.T) {
		req := testutil.WithUser(httptest.NewRequest("GET", "/api/notifications", nil), testutil.ForUser(admin))
		rec := httptest.NewRecorder()
		if res := g.RequireSignedIn(rec, req); res.OK {
			t.Error("expected denial for suspended organization")
		}
		if rec.Code != http.StatusForbidden {
			t.Errorf("status: got %d, want %d", rec.Code, http.StatusForbidden)
		}
	})

	t.Run("superadmin ignores suspension", func(t *testing.T) {
		su := testutil.SuperAdminUser()
		su.OrganizationID = org.ID.Hex()
		req := testutil.WithUser(httptest.NewRequest("GET", "/api/machines", nil), su)
		rec := httptest.NewRecorder()
		if res := g.Require(rec, req, authz.PermMachineView); !res.OK {
			t.Error("expected allow for superadmin in suspended organization")
		}
	})
}
