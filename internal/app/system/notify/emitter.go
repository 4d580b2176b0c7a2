// Package notify is the notification emitter: it fans persisted notification
// records out to one user, a batch of users, a role, or a permission.
//
// Every entry point is fire-and-report: it returns a success flag and never
// an error, because notification delivery must not abort the business
// operation that triggered it. Failures are logged here and nowhere else.
// Email is deliberately not this package's concern; the alert evaluator talks
// to the mailer itself.
package notify

import (
	"context"

	customrolestore "github.com/dalemusser/fleethub/internal/app/store/customroles"
	notificationstore "github.com/dalemusser/fleethub/internal/app/store/notifications"
	userstore "github.com/dalemusser/fleethub/internal/app/store/users"
	"github.com/dalemusser/fleethub/internal/app/system/authz"
	"github.com/dalemusser/fleethub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Message is the notification payload shared by all entry points.
type Message struct {
	Title       string
	Body        string
	Type        string // models.Notification* constant
	ActionURL   string
	RelatedID   *primitive.ObjectID
	RelatedType string
	Extra       map[string]string
}

// Emitter creates notification records. Its only side effect is writes to the
// notifications collection.
type Emitter struct {
	notifs *notificationstore.Store
	users  *userstore.Store
	roles  *customrolestore.Store
	log    *zap.Logger
}

func NewEmitter(notifs *notificationstore.Store, users *userstore.Store, roles *customrolestore.Store, logger *zap.Logger) *Emitter {
	return &Emitter{notifs: notifs, users: users, roles: roles, log: logger}
}

// NormalizeUserID coerces the common id representations (ObjectID, pointer,
// hex string) to an ObjectID. Returns false for anything unusable.
func NormalizeUserID(id any) (primitive.ObjectID, bool) {
	switch v := id.(type) {
	case primitive.ObjectID:
		return v, !v.IsZero()
	case *primitive.ObjectID:
		if v == nil {
			return primitive.NilObjectID, false
		}
		return *v, !v.IsZero()
	case string:
		oid, err := primitive.ObjectIDFromHex(v)
		if err != nil {
			return primitive.NilObjectID, false
		}
		return oid, true
	default:
		return primitive.NilObjectID, false
	}
}

// SendToUser inserts exactly one notification. userID may be an ObjectID, a
// pointer, or a hex string.
func (e *Emitter) SendToUser(ctx context.Context, userID any, orgID primitive.ObjectID, msg Message) bool {
	oid, ok := NormalizeUserID(userID)
	if !ok {
		e.log.Warn("notification dropped: unusable user id")
		return false
	}
	_, err := e.notifs.Insert(ctx, e.build(oid, orgID, msg))
	if err != nil {
		e.log.Error("notification insert failed",
			zap.String("user_id", oid.Hex()), zap.Error(err))
		return false
	}
	return true
}

// SendToMultipleUsers inserts one notification per recipient as a single
// batch. An empty recipient list is a no-op returning false: callers treat
// "nothing to do" and "did not send" the same way.
func (e *Emitter) SendToMultipleUsers(ctx context.Context, userIDs []primitive.ObjectID, orgID primitive.ObjectID, msg Message) bool {
	if len(userIDs) == 0 {
		return false
	}
	batch := make([]models.Notification, 0, len(userIDs))
	for _, uid := range userIDs {
		batch = append(batch, e.build(uid, orgID, msg))
	}
	if err := e.notifs.InsertMany(ctx, batch); err != nil {
		e.log.Error("notification batch insert failed",
			zap.Int("count", len(batch)), zap.Error(err))
		return false
	}
	return true
}

// SendToUsersWithRole notifies every active user in the organization holding
// exactly the given system role. Zero matches → false.
func (e *Emitter) SendToUsersWithRole(ctx context.Context, orgID primitive.ObjectID, role string, msg Message) bool {
	users, err := e.users.ActiveByRole(ctx, orgID, role)
	if err != nil {
		e.log.Error("role recipient lookup failed",
			zap.String("role", role), zap.Error(err))
		return false
	}
	return e.SendToMultipleUsers(ctx, userIDs(users), orgID, msg)
}

// SendToUsersWithPermission notifies every active user in the organization
// who holds the permission: the union of users whose system role grants it
// statically and users whose organization custom role contains it,
// deduplicated by user id. Zero matches → false.
func (e *Emitter) SendToUsersWithPermission(ctx context.Context, orgID primitive.ObjectID, perm string, msg Message) bool {
	byRole, err := e.users.ActiveByRoles(ctx, orgID, authz.RolesWithPermission(perm))
	if err != nil {
		e.log.Error("permission recipient lookup failed",
			zap.String("permission", perm), zap.Error(err))
		return false
	}

	roles, err := e.roles.WithPermission(ctx, orgID, perm)
	if err != nil {
		e.log.Error("permission role lookup failed",
			zap.String("permission", perm), zap.Error(err))
		return false
	}
	roleIDs := make([]primitive.ObjectID, 0, len(roles))
	for _, role := range roles {
		roleIDs = append(roleIDs, role.ID)
	}
	byCustom, err := e.users.ActiveWithCustomRoles(ctx, orgID, roleIDs)
	if err != nil {
		e.log.Error("custom-role recipient lookup failed",
			zap.String("permission", perm), zap.Error(err))
		return false
	}

	seen := make(map[primitive.ObjectID]struct{})
	var ids []primitive.ObjectID
	for _, u := range append(byRole, byCustom...) {
		if _, dup := seen[u.ID]; dup {
			continue
		}
		seen[u.ID] = struct{}{}
		ids = append(ids, u.ID)
	}
	return e.SendToMultipleUsers(ctx, ids, orgID, msg)
}

// UnreadCount returns the user's unread notification count for the
// organization, or 0 on any lookup failure.
func (e *Emitter) UnreadCount(ctx context.Context, userID, orgID primitive.ObjectID) int64 {
	n, err := e.notifs.UnreadCount(ctx, userID, orgID)
	if err != nil {
		e.log.Error("unread count failed",
			zap.String("user_id", userID.Hex()), zap.Error(err))
		return 0
	}
	return n
}

func (e *Emitter) build(userID, orgID primitive.ObjectID, msg Message) models.Notification {
	typ := msg.Type
	if typ == "" {
		typ = models.NotificationInfo
	}
	return models.Notification{
		UserID:         userID,
		OrganizationID: orgID,
		Title:          msg.Title,
		Message:        msg.Body,
		Type:           typ,
		ActionURL:      msg.ActionURL,
		RelatedID:      msg.RelatedID,
		RelatedType:    msg.RelatedType,
		Extra:          msg.Extra,
	}
}

func userIDs(users []models.User) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}
