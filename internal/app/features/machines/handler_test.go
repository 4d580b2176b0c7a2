package machines_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/fleethub/internal/app/features/machines"
	alertstore "github.com/dalemusser/fleethub/internal/app/store/alerts"
	customrolestore "github.com/dalemusser/fleethub/internal/app/store/customroles"
	machinestore "github.com/dalemusser/fleethub/internal/app/store/machines"
	organizationstore "github.com/dalemusser/fleethub/internal/app/store/organizations"
	userstore "github.com/dalemusser/fleethub/internal/app/store/users"
	"github.com/dalemusser/fleethub/internal/app/system/alerting"
	"github.com/dalemusser/fleethub/internal/app/system/authz"
	"github.com/dalemusser/fleethub/internal/app/system/gates"
	"github.com/dalemusser/fleethub/internal/app/system/mailer"
	"github.com/dalemusser/fleethub/internal/domain/models"
	"github.com/dalemusser/fleethub/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T, db *mongo.Database) *machines.Handler {
	t.Helper()
	logger := zap.NewNop()
	return &machines.Handler{
		Machines: machinestore.New(db),
		Evaluator: alerting.NewEvaluator(
			alertstore.New(db), machinestore.New(db), userstore.New(db),
			mailer.New("", 0, "", "", "FleetHub <noreply@test>", logger),
			"FleetHub", logger),
		Gate: gates.New(authz.NewResolver(customrolestore.New(db), logger), organizationstore.New(db), logger),
		Log:  logger,
	}
}

func TestHandleCreate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	h := newTestHandler(t, db)

	org := fx.CreateOrganization(ctx, "Machine Org")
	admin := fx.CreateUser(ctx, "Alma Admin", "alma@test.com", models.RoleAdmin, &org.ID)
	viewer := fx.CreateUser(ctx, "Vera Viewer", "vera@test.com", models.RoleViewer, &org.ID)

	t.Run("admin creates machine", func(t *testing.T) {
		body := map[string]any{
			"name":          "Loader 1",
			"make":          "CAT",
			"model":         "906",
			"serial_number": "SN-1",
			"current_hours": 10.0,
		}
		req := testutil.NewAuthenticatedRequest(t, "POST", "/api/machines", testutil.ForUser(admin), body)
		rec := httptest.NewRecorder()
		h.HandleCreate(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status: got %d, want %d (%s)", rec.Code, http.StatusCreated, rec.Body.String())
		}
		var created models.Machine
		testutil.DecodeJSON(t, rec, &created)
		if created.Name != "Loader 1" || created.OrganizationID != org.ID {
			t.Errorf("created machine: %+v", created)
		}
	})

	t.Run("viewer denied", func(t *testing.T) {
		req := testutil.NewAuthenticatedRequest(t, "POST", "/api/machines", testutil.ForUser(viewer),
			map[string]any{"name": "Nope"})
		rec := httptest.NewRecorder()
		h.HandleCreate(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Errorf("status: got %d, want %d", rec.Code, http.StatusForbidden)
		}
	})

	t.Run("name required", func(t *testing.T) {
		req := testutil.NewAuthenticatedRequest(t, "POST", "/api/machines", testutil.ForUser(admin),
			map[string]any{"make": "CAT"})
		rec := httptest.NewRecorder()
		h.HandleCreate(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status: got %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("negative hours rejected", func(t *testing.T) {
		req := testutil.NewAuthenticatedRequest(t, "POST", "/api/machines", testutil.ForUser(admin),
			map[string]any{"name": "Bad", "current_hours": -1.0})
		rec := httptest.NewRecorder()
		h.HandleCreate(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status: got %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})
}

func TestHandleGet_TenantScoping(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	h := newTestHandler(t, db)

	org := fx.CreateOrganization(ctx, "Org A")
	other := fx.CreateOrganization(ctx, "Org B")
	admin := fx.CreateUser(ctx, "Alma Admin", "alma@test.com", models.RoleAdmin, &org.ID)
	outsider := fx.CreateUser(ctx, "Otto Outsider", "otto@test.com", models.RoleAdmin, &other.ID)

	machine := fx.CreateMachine(ctx, org.ID, "Loader 1", nil, nil)

	get := func(u models.User) *httptest.ResponseRecorder {
		req := testutil.NewAuthenticatedRequest(t, "GET", "/api/machines/"+machine.ID.Hex(), testutil.ForUser(u), nil)
		req = testutil.WithChiURLParam(req, "id", machine.ID.Hex())
		rec := httptest.NewRecorder()
		h.HandleGet(rec, req)
		return rec
	}

	if rec := get(admin); rec.Code != http.StatusOK {
		t.Errorf("same-tenant get: got %d, want %d", rec.Code, http.StatusOK)
	}
	// Cross-tenant reads as missing, never as forbidden: existence must not leak.
	if rec := get(outsider); rec.Code != http.StatusNotFound {
		t.Errorf("cross-tenant get: got %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHandleSetHours_TriggersReminder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	h := newTestHandler(t, db)

	org := fx.CreateOrganization(ctx, "Hours Org")
	admin := fx.CreateUser(ctx, "Alma Admin", "alma@test.com", models.RoleAdmin, &org.ID)
	machine := fx.CreateMachine(ctx, org.ID, "Loader 1",
		testutil.Float64(50), testutil.Float64(100))
	fx.SetMachineOwner(ctx, machine.ID, admin.ID)

	req := testutil.NewAuthenticatedRequest(t, "PUT", "/api/machines/"+machine.ID.Hex()+"/hours",
		testutil.ForUser(admin), map[string]any{"current_hours": 97.0})
	req = testutil.WithChiURLParam(req, "id", machine.ID.Hex())
	rec := httptest.NewRecorder()
	h.HandleSetHours(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d (%s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	var out struct {
		Machine models.Machine `json:"machine"`
		Alert   *models.Alert  `json:"alert"`
	}
	testutil.DecodeJSON(t, rec, &out)
	if out.Machine.CurrentHours == nil || *out.Machine.CurrentHours != 97 {
		t.Errorf("machine hours not updated: %+v", out.Machine)
	}
	if out.Alert == nil {
		t.Fatal("expected a service reminder alert at 3 remaining hours")
	}
	if out.Alert.Severity != models.SeverityHigh {
		t.Errorf("severity: got %q, want high", out.Alert.Severity)
	}
}
