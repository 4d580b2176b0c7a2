package notifications_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/fleethub/internal/app/features/notifications"
	customrolestore "github.com/dalemusser/fleethub/internal/app/store/customroles"
	notificationstore "github.com/dalemusser/fleethub/internal/app/store/notifications"
	organizationstore "github.com/dalemusser/fleethub/internal/app/store/organizations"
	userstore "github.com/dalemusser/fleethub/internal/app/store/users"
	"github.com/dalemusser/fleethub/internal/app/system/authz"
	"github.com/dalemusser/fleethub/internal/app/system/gates"
	"github.com/dalemusser/fleethub/internal/app/system/notify"
	"github.com/dalemusser/fleethub/internal/domain/models"
	"github.com/dalemusser/fleethub/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T, db *mongo.Database) *notifications.Handler {
	t.Helper()
	logger := zap.NewNop()
	return &notifications.Handler{
		Notifs:  notificationstore.New(db),
		Emitter: notify.NewEmitter(notificationstore.New(db), userstore.New(db), customrolestore.New(db), logger),
		Gate:    gates.New(authz.NewResolver(customrolestore.New(db), logger), organizationstore.New(db), logger),
		Log:     logger,
	}
}

func TestHandleList_RequiresSession(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newTestHandler(t, db)

	rec := httptest.NewRecorder()
	h.HandleList(rec, httptest.NewRequest("GET", "/api/notifications", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestHandleList_EmptyInbox(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	h := newTestHandler(t, db)

	org := fx.CreateOrganization(ctx, "Inbox Org")
	user := fx.CreateUser(ctx, "Ned Empty", "ned@test.com", models.RoleUser, &org.ID)

	req := testutil.NewAuthenticatedRequest(t, "GET", "/api/notifications", testutil.ForUser(user), nil)
	rec := httptest.NewRecorder()
	h.HandleList(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}
	var list []models.Notification
	testutil.DecodeJSON(t, rec, &list)
	if len(list) != 0 {
		t.Errorf("expected empty list, got %d items", len(list))
	}
	if rec.Body.String() == "null\n" {
		t.Error("empty inbox must serialize as [], not null")
	}
}

func TestHandleMarkRead(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	h := newTestHandler(t, db)

	org := fx.CreateOrganization(ctx, "Read Org")
	user := fx.CreateUser(ctx, "Rita Reader", "rita@test.com", models.RoleUser, &org.ID)
	other := fx.CreateUser(ctx, "Olaf Other", "olaf@test.com", models.RoleUser, &org.ID)

	if !h.Emitter.SendToUser(ctx, user.ID, org.ID, notify.Message{Title: "Hi"}) {
		t.Fatal("seed notification failed")
	}
	list, err := h.Notifs.ListForUser(ctx, user.ID, org.ID, 1)
	if err != nil || len(list) != 1 {
		t.Fatalf("seed lookup: %v (%d items)", err, len(list))
	}
	notifID := list[0].ID

	markRead := func(u models.User) *httptest.ResponseRecorder {
		req := testutil.NewAuthenticatedRequest(t, "PUT", "/api/notifications/"+notifID.Hex()+"/read", testutil.ForUser(u), nil)
		req = testutil.WithChiURLParam(req, "id", notifID.Hex())
		rec := httptest.NewRecorder()
		h.HandleMarkRead(rec, req)
		return rec
	}

	if rec := markRead(user); rec.Code != http.StatusOK {
		t.Fatalf("first mark-read: got %d, want %d (%s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	// Marking again is a no-op success, not an error.
	if rec := markRead(user); rec.Code != http.StatusOK {
		t.Errorf("second mark-read: got %d, want %d", rec.Code, http.StatusOK)
	}
	// Someone else's notification reads as missing.
	if rec := markRead(other); rec.Code != http.StatusNotFound {
		t.Errorf("foreign mark-read: got %d, want %d", rec.Code, http.StatusNotFound)
	}

	req := testutil.NewAuthenticatedRequest(t, "GET", "/api/notifications/unread-count", testutil.ForUser(user), nil)
	rec := httptest.NewRecorder()
	h.HandleUnreadCount(rec, req)
	var count map[string]int64
	testutil.DecodeJSON(t, rec, &count)
	if count["count"] != 0 {
		t.Errorf("unread count after read: got %d, want 0", count["count"])
	}
}

func TestHandleMarkAllRead(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	h := newTestHandler(t, db)

	org := fx.CreateOrganization(ctx, "Bulk Org")
	user := fx.CreateUser(ctx, "Bea Bulk", "bea@test.com", models.RoleUser, &org.ID)

	for i := 0; i < 3; i++ {
		h.Emitter.SendToUser(ctx, user.ID, org.ID, notify.Message{Title: "n"})
	}

	req := testutil.NewAuthenticatedRequest(t, "PUT", "/api/notifications/read-all", testutil.ForUser(user), nil)
	rec := httptest.NewRecorder()
	h.HandleMarkAllRead(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}
	var out map[string]int64
	testutil.DecodeJSON(t, rec, &out)
	if out["updated"] != 3 {
		t.Errorf("updated: got %d, want 3", out["updated"])
	}
}
