package login_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/fleethub/internal/app/features/login"
	organizationstore "github.com/dalemusser/fleethub/internal/app/store/organizations"
	userstore "github.com/dalemusser/fleethub/internal/app/store/users"
	"github.com/dalemusser/fleethub/internal/app/system/auth"
	"github.com/dalemusser/fleethub/internal/app/system/ratelimit"
	"github.com/dalemusser/fleethub/internal/domain/models"
	"github.com/dalemusser/fleethub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newTestHandler(t *testing.T, db *mongo.Database) *login.Handler {
	t.Helper()
	logger := zap.NewNop()
	sessionMgr, err := auth.NewSessionManager("test-session-key-for-testing-only-0123", "test-session", "", false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	return &login.Handler{
		Users:      userstore.New(db),
		Orgs:       organizationstore.New(db),
		SessionMgr: sessionMgr,
		AuditLog:   nil, // nil-safe
		Log:        logger,
	}
}

func setPassword(t *testing.T, db *mongo.Database, ctx context.Context, userID primitive.ObjectID, password string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	if err := userstore.New(db).SetPasswordHash(ctx, userID, string(hash)); err != nil {
		t.Fatalf("SetPasswordHash: %v", err)
	}
}

func postLogin(t *testing.T, h *login.Handler, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	req := testutil.NewJSONRequest(t, "POST", "/api/login",
		map[string]string{"email": email, "password": password})
	rec := httptest.NewRecorder()
	h.HandleLogin(rec, req)
	return rec
}

func TestHandleLogin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	h := newTestHandler(t, db)

	org := fx.CreateOrganization(ctx, "Login Org")
	user := fx.CreateUser(ctx, "Lena Login", "lena@test.com", models.RoleManager, &org.ID)
	setPassword(t, db, ctx, user.ID, "correct-horse")

	t.Run("success sets session cookie", func(t *testing.T) {
		rec := postLogin(t, h, "Lena@Test.com", "correct-horse")
		if rec.Code != http.StatusOK {
			t.Fatalf("status: got %d, want %d (%s)", rec.Code, http.StatusOK, rec.Body.String())
		}
		var resp struct {
			ID             string `json:"id"`
			Role           string `json:"role"`
			OrganizationID string `json:"organization_id"`
		}
		testutil.DecodeJSON(t, rec, &resp)
		if resp.ID != user.ID.Hex() || resp.Role != models.RoleManager || resp.OrganizationID != org.ID.Hex() {
			t.Errorf("response: %+v", resp)
		}
		cookieSet := false
		for _, c := range rec.Result().Cookies() {
			if c.Name == "test-session" && c.Value != "" {
				cookieSet = true
			}
		}
		if !cookieSet {
			t.Error("expected session cookie on successful login")
		}
	})

	t.Run("wrong password is a generic 401", func(t *testing.T) {
		rec := postLogin(t, h, "lena@test.com", "wrong")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status: got %d, want %d", rec.Code, http.StatusUnauthorized)
		}
	})

	t.Run("unknown email is the same 401", func(t *testing.T) {
		rec := postLogin(t, h, "nobody@test.com", "whatever")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status: got %d, want %d", rec.Code, http.StatusUnauthorized)
		}
	})

	t.Run("disabled account is the same 401", func(t *testing.T) {
		disabled := fx.CreateDisabledUser(ctx, "Dov Disabled", "dov@test.com", models.RoleUser, &org.ID)
		setPassword(t, db, ctx, disabled.ID, "valid-password")
		rec := postLogin(t, h, "dov@test.com", "valid-password")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status: got %d, want %d", rec.Code, http.StatusUnauthorized)
		}
	})

	t.Run("missing fields rejected", func(t *testing.T) {
		rec := postLogin(t, h, "", "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status: got %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})
}

func TestHandleLogin_RateLimited(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	h := newTestHandler(t, db)
	h.Limiter = ratelimit.NewLoginLimiterWithConfig(100, time.Minute, 2, time.Minute)

	org := fx.CreateOrganization(ctx, "Limited Org")
	user := fx.CreateUser(ctx, "Lio Limited", "lio@test.com", models.RoleUser, &org.ID)
	setPassword(t, db, ctx, user.ID, "right-password")

	postLogin(t, h, "lio@test.com", "wrong-1")
	postLogin(t, h, "lio@test.com", "wrong-2")

	rec := postLogin(t, h, "lio@test.com", "right-password")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusTooManyRequests)
	}

	// A successful sign-in clears the per-account window: with a fresh
	// limiter, success then two failures stays 401, never 429.
	h.Limiter = ratelimit.NewLoginLimiterWithConfig(100, time.Minute, 2, time.Minute)
	rec = postLogin(t, h, "lio@test.com", "right-password")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d (%s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	for i := 0; i < 2; i++ {
		rec = postLogin(t, h, "lio@test.com", "wrong-again")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("post-reset failure %d: got %d, want %d", i+1, rec.Code, http.StatusUnauthorized)
		}
	}
}

func TestHandleLogin_SuspendedOrganization(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	h := newTestHandler(t, db)

	org := fx.CreateOrganization(ctx, "Frozen Org")
	orgs := organizationstore.New(db)
	if err := orgs.SetStatus(ctx, org.ID, "suspended"); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	user := fx.CreateUser(ctx, "Sura Suspended", "sura@test.com", models.RoleAdmin, &org.ID)
	setPassword(t, db, ctx, user.ID, "good-password")

	rec := postLogin(t, h, "sura@test.com", "good-password")
	if rec.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusForbidden)
	}

	// Superadmins sign in regardless of any organization state.
	super := fx.CreateUser(ctx, "Super Admin", "root@test.com", models.RoleSuperAdmin, nil)
	setPassword(t, db, ctx, super.ID, "root-password")
	rec = postLogin(t, h, "root@test.com", "root-password")
	if rec.Code != http.StatusOK {
		t.Errorf("superadmin login: got %d, want %d (%s)", rec.Code, http.StatusOK, rec.Body.String())
	}
}
