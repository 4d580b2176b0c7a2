package accessrequests_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/fleethub/internal/app/features/accessrequests"
	accessrequeststore "github.com/dalemusser/fleethub/internal/app/store/accessrequests"
	customrolestore "github.com/dalemusser/fleethub/internal/app/store/customroles"
	notificationstore "github.com/dalemusser/fleethub/internal/app/store/notifications"
	organizationstore "github.com/dalemusser/fleethub/internal/app/store/organizations"
	userstore "github.com/dalemusser/fleethub/internal/app/store/users"
	"github.com/dalemusser/fleethub/internal/app/system/authz"
	"github.com/dalemusser/fleethub/internal/app/system/gates"
	"github.com/dalemusser/fleethub/internal/app/system/mailer"
	"github.com/dalemusser/fleethub/internal/app/system/notify"
	"github.com/dalemusser/fleethub/internal/domain/models"
	"github.com/dalemusser/fleethub/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T, db *mongo.Database) *accessrequests.Handler {
	t.Helper()
	logger := zap.NewNop()
	return &accessrequests.Handler{
		Requests: accessrequeststore.New(db),
		Users:    userstore.New(db),
		Orgs:     organizationstore.New(db),
		Gate:     gates.New(authz.NewResolver(customrolestore.New(db), logger), organizationstore.New(db), logger),
		Emitter:  notify.NewEmitter(notificationstore.New(db), userstore.New(db), customrolestore.New(db), logger),
		Mailer:   mailer.New("", 0, "", "", "FleetHub <noreply@test>", logger),
		SiteName: "FleetHub",
		BaseURL:  "http://localhost:3000",
		Log:      logger,
	}
}

func submitRequest(t *testing.T, h *accessrequests.Handler, email string) models.AccessRequest {
	t.Helper()
	body := map[string]any{
		"email":             email,
		"organization_name": "Acme Earthworks",
		"contact_name":      "Pat Example",
		"phone":             "555-0100",
	}
	req := testutil.NewJSONRequest(t, "POST", "/api/access-requests", body)
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create request: got %d, want %d (%s)", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var created models.AccessRequest
	testutil.DecodeJSON(t, rec, &created)
	return created
}

func TestHandleCreate_PublicValidation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newTestHandler(t, db)

	t.Run("missing email rejected", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, "POST", "/api/access-requests",
			map[string]any{"organization_name": "Acme", "contact_name": "Pat"})
		rec := httptest.NewRecorder()
		h.HandleCreate(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status: got %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("duplicate pending request conflicts", func(t *testing.T) {
		submitRequest(t, h, "dup@test.com")
		req := testutil.NewJSONRequest(t, "POST", "/api/access-requests", map[string]any{
			"email":             "dup@test.com",
			"organization_name": "Acme Earthworks",
			"contact_name":      "Pat Example",
		})
		rec := httptest.NewRecorder()
		h.HandleCreate(rec, req)
		if rec.Code != http.StatusConflict {
			t.Errorf("status: got %d, want %d", rec.Code, http.StatusConflict)
		}
	})

	t.Run("markup is stripped", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, "POST", "/api/access-requests", map[string]any{
			"email":             "markup@test.com",
			"organization_name": "<b>Acme</b> Quarry",
			"contact_name":      "Pat <script>alert(1)</script>Example",
		})
		rec := httptest.NewRecorder()
		h.HandleCreate(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("status: got %d, want %d (%s)", rec.Code, http.StatusCreated, rec.Body.String())
		}
		var created models.AccessRequest
		testutil.DecodeJSON(t, rec, &created)
		if created.OrganizationName != "Acme Quarry" {
			t.Errorf("organization_name: got %q, want markup stripped", created.OrganizationName)
		}
	})
}

func TestHandleApprove_Saga(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	h := newTestHandler(t, db)

	super := fx.CreateUser(ctx, "Super Admin", "super@test.com", models.RoleSuperAdmin, nil)
	request := submitRequest(t, h, "newuser@test.com")

	approve := func() *httptest.ResponseRecorder {
		req := testutil.NewAuthenticatedRequest(t, "POST",
			"/api/access-requests/"+request.ID.Hex()+"/approve", testutil.ForUser(super), nil)
		req = testutil.WithChiURLParam(req, "id", request.ID.Hex())
		rec := httptest.NewRecorder()
		h.HandleApprove(rec, req)
		return rec
	}

	rec := approve()
	if rec.Code != http.StatusOK {
		t.Fatalf("approve: got %d, want %d (%s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	var first struct {
		Status      string `json:"status"`
		UserCreated bool   `json:"user_created"`
		UserID      string `json:"user_id"`
	}
	testutil.DecodeJSON(t, rec, &first)
	if !first.UserCreated {
		t.Error("first approval should create the user")
	}

	// The organization was created from the request's organization name.
	org, err := organizationstore.New(db).GetByName(ctx, "Acme Earthworks")
	if err != nil {
		t.Fatalf("organization lookup: %v", err)
	}

	// The user exists, belongs to the new organization, and can be fetched by email.
	user, err := userstore.New(db).GetByEmail(ctx, "newuser@test.com")
	if err != nil {
		t.Fatalf("user lookup: %v", err)
	}
	if user.OrganizationID == nil || *user.OrganizationID != org.ID {
		t.Errorf("user organization: got %v, want %s", user.OrganizationID, org.ID.Hex())
	}
	if user.Role != models.RoleUser {
		t.Errorf("user role: got %q, want %q", user.Role, models.RoleUser)
	}

	// Approving again is idempotent: 200, no second user.
	rec = approve()
	if rec.Code != http.StatusOK {
		t.Fatalf("second approve: got %d, want %d (%s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	var second struct {
		UserCreated bool `json:"user_created"`
	}
	testutil.DecodeJSON(t, rec, &second)
	if second.UserCreated {
		t.Error("second approval must not create a user")
	}
	count, err := db.Collection("users").CountDocuments(ctx, map[string]any{"email": "newuser@test.com"})
	if err != nil {
		t.Fatalf("count users: %v", err)
	}
	if count != 1 {
		t.Errorf("user count: got %d, want 1", count)
	}

	// Rejecting an approved request conflicts.
	rejReq := testutil.NewAuthenticatedRequest(t, "POST",
		"/api/access-requests/"+request.ID.Hex()+"/reject", testutil.ForUser(super), nil)
	rejReq = testutil.WithChiURLParam(rejReq, "id", request.ID.Hex())
	rejRec := httptest.NewRecorder()
	h.HandleReject(rejRec, rejReq)
	if rejRec.Code != http.StatusConflict {
		t.Errorf("reject after approve: got %d, want %d", rejRec.Code, http.StatusConflict)
	}
}

func TestHandleApprove_RequiresSuperAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	h := newTestHandler(t, db)

	org := fx.CreateOrganization(ctx, "Some Org")
	admin := fx.CreateUser(ctx, "Alma Admin", "alma@test.com", models.RoleAdmin, &org.ID)
	request := submitRequest(t, h, "someone@test.com")

	req := testutil.NewAuthenticatedRequest(t, "POST",
		"/api/access-requests/"+request.ID.Hex()+"/approve", testutil.ForUser(admin), nil)
	req = testutil.WithChiURLParam(req, "id", request.ID.Hex())
	rec := httptest.NewRecorder()
	h.HandleApprove(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusForbidden)
	}
}
