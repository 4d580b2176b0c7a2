package notify_test

import (
	"context"
	"testing"

	customrolestore "github.com/dalemusser/fleethub/internal/app/store/customroles"
	notificationstore "github.com/dalemusser/fleethub/internal/app/store/notifications"
	userstore "github.com/dalemusser/fleethub/internal/app/store/users"
	"github.com/dalemusser/fleethub/internal/app/system/authz"
	"github.com/dalemusser/fleethub/internal/app/system/notify"
	"github.com/dalemusser/fleethub/internal/domain/models"
	"github.com/dalemusser/fleethub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func TestNormalizeUserID(t *testing.T) {
	oid := primitive.NewObjectID()

	got, ok := notify.NormalizeUserID(oid)
	assert.True(t, ok)
	assert.Equal(t, oid, got)

	got, ok = notify.NormalizeUserID(&oid)
	assert.True(t, ok)
	assert.Equal(t, oid, got)

	got, ok = notify.NormalizeUserID(oid.Hex())
	assert.True(t, ok)
	assert.Equal(t, oid, got)

	_, ok = notify.NormalizeUserID(primitive.NilObjectID)
	assert.False(t, ok, "zero ObjectID")

	var nilPtr *primitive.ObjectID
	_, ok = notify.NormalizeUserID(nilPtr)
	assert.False(t, ok, "nil pointer")

	_, ok = notify.NormalizeUserID("not-a-hex-id")
	assert.False(t, ok, "malformed hex")

	_, ok = notify.NormalizeUserID(42)
	assert.False(t, ok, "unsupported type")
}

func TestSendToMultipleUsers_EmptyRecipients(t *testing.T) {
	// No recipients never reaches the store, so nil stores are safe here.
	e := notify.NewEmitter(nil, nil, nil, zap.NewNop())
	ok := e.SendToMultipleUsers(context.Background(), nil, primitive.NewObjectID(), notify.Message{Title: "x"})
	assert.False(t, ok)
}

func newTestEmitter(db *mongo.Database) *notify.Emitter {
	return notify.NewEmitter(
		notificationstore.New(db),
		userstore.New(db),
		customrolestore.New(db),
		zap.NewNop(),
	)
}

func TestSendToUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	e := newTestEmitter(db)

	org := fx.CreateOrganization(ctx, "Emitter Org")
	user := fx.CreateUser(ctx, "Nina Notify", "nina@test.com", models.RoleUser, &org.ID)

	msg := notify.Message{Title: "Welcome", Body: "hello"}

	assert.True(t, e.SendToUser(ctx, user.ID, org.ID, msg))
	// No duplicate suppression: a second identical send means two records.
	assert.True(t, e.SendToUser(ctx, user.ID.Hex(), org.ID, msg))

	assert.EqualValues(t, 2, e.UnreadCount(ctx, user.ID, org.ID))

	list, err := notificationstore.New(db).ListForUser(ctx, user.ID, org.ID, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, models.NotificationInfo, list[0].Type, "blank type defaults to info")
}

func TestSendToUsersWithPermission(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	e := newTestEmitter(db)

	org := fx.CreateOrganization(ctx, "Fanout Org")

	// Static grant via system role.
	admin := fx.CreateUser(ctx, "Alma Admin", "alma@test.com", models.RoleAdmin, &org.ID)
	// Custom-role grant on top of a role without the permission.
	role := fx.CreateCustomRole(ctx, org.ID, "Senders", []string{authz.PermNotificationsSend})
	sender := fx.CreateUser(ctx, "Vik Viewer", "vik@test.com", models.RoleViewer, &org.ID)
	fx.AssignCustomRole(ctx, sender.ID, role.ID)
	// Neither grant: must not be notified.
	fx.CreateUser(ctx, "Odd One Out", "odd@test.com", models.RoleViewer, &org.ID)
	// Disabled users are never recipients.
	fx.CreateDisabledUser(ctx, "Dora Disabled", "dora@test.com", models.RoleAdmin, &org.ID)

	ok := e.SendToUsersWithPermission(ctx, org.ID, authz.PermNotificationsSend,
		notify.Message{Title: "Request waiting", Type: models.NotificationRequest})
	require.True(t, ok)

	count, err := db.Collection("notifications").CountDocuments(ctx, map[string]any{
		"organization_id": org.ID,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	assert.EqualValues(t, 1, e.UnreadCount(ctx, admin.ID, org.ID))
	assert.EqualValues(t, 1, e.UnreadCount(ctx, sender.ID, org.ID))
}

func TestSendToUsersWithRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	e := newTestEmitter(db)

	org := fx.CreateOrganization(ctx, "Role Org")
	fx.CreateUser(ctx, "Manny Manager", "manny@test.com", models.RoleManager, &org.ID)
	fx.CreateUser(ctx, "Vera Viewer", "vera@test.com", models.RoleViewer, &org.ID)

	assert.True(t, e.SendToUsersWithRole(ctx, org.ID, models.RoleManager, notify.Message{Title: "For managers"}))
	assert.False(t, e.SendToUsersWithRole(ctx, org.ID, models.RoleTechnician, notify.Message{Title: "Nobody"}),
		"no recipients reports false")

	count, err := db.Collection("notifications").CountDocuments(ctx, map[string]any{
		"organization_id": org.ID,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}
