package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/fleethub/internal/app/system/normalize"
	"github.com/dalemusser/fleethub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	errBadRole        = errors.New("role must be one of the fixed system roles")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetActiveByCredential finds the active user holding the given organization
// credential. Machines reference the same credential, so this is the first
// hop of machine-owner resolution.
func (s *Store) GetActiveByCredential(ctx context.Context, credID primitive.ObjectID) (*models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx, bson.M{"credential_id": credID, "active": true}).Decode(&u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user after normalizing and validating fields.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.FullName = normalize.Name(u.FullName)
	u.FullNameCI = text.Fold(u.FullName)
	u.Email = normalize.Email(u.Email)
	u.Role = normalize.Role(u.Role)

	if !models.IsValidRole(u.Role) {
		return models.User{}, errBadRole
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// Update holds the admin-editable fields of a user.
type Update struct {
	FullName     string
	Role         string
	CustomRoleID *primitive.ObjectID
	Active       *bool
	AlertEmails  []string
}

// Apply updates a user's admin-editable fields. Zero-valued fields are left
// untouched; Active and CustomRoleID are pointers so they can be cleared
// explicitly.
func (s *Store) Apply(ctx context.Context, id primitive.ObjectID, upd Update) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	unset := bson.M{}

	if upd.FullName != "" {
		name := normalize.Name(upd.FullName)
		set["full_name"] = name
		set["full_name_ci"] = text.Fold(name)
	}
	if upd.Role != "" {
		role := normalize.Role(upd.Role)
		if !models.IsValidRole(role) {
			return errBadRole
		}
		set["role"] = role
	}
	if upd.CustomRoleID != nil {
		if upd.CustomRoleID.IsZero() {
			unset["custom_role_id"] = ""
		} else {
			set["custom_role_id"] = *upd.CustomRoleID
		}
	}
	if upd.Active != nil {
		set["active"] = *upd.Active
	}
	if upd.AlertEmails != nil {
		set["alert_emails"] = upd.AlertEmails
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	_, err := s.c.UpdateByID(ctx, id, update)
	return err
}

// SetPasswordHash replaces a user's password hash.
func (s *Store) SetPasswordHash(ctx context.Context, id primitive.ObjectID, hash string) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"password_hash": hash,
		"updated_at":    time.Now().UTC(),
	}})
	return err
}

// SetRole promotes or demotes a user's system role.
func (s *Store) SetRole(ctx context.Context, id primitive.ObjectID, role string) error {
	role = normalize.Role(role)
	if !models.IsValidRole(role) {
		return errBadRole
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"role":       role,
		"updated_at": time.Now().UTC(),
	}})
	return err
}

// ListByOrg returns all users of an organization sorted by folded name.
func (s *Store) ListByOrg(ctx context.Context, orgID primitive.ObjectID) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "full_name_ci", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"organization_id": orgID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ActiveByRole returns the active users of an organization with exactly the
// given system role.
func (s *Store) ActiveByRole(ctx context.Context, orgID primitive.ObjectID, role string) ([]models.User, error) {
	cur, err := s.c.Find(ctx, bson.M{
		"organization_id": orgID,
		"role":            normalize.Role(role),
		"active":          true,
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ActiveByRoles returns the active users of an organization whose system role
// is any of the given roles.
func (s *Store) ActiveByRoles(ctx context.Context, orgID primitive.ObjectID, roles []string) ([]models.User, error) {
	if len(roles) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{
		"organization_id": orgID,
		"role":            bson.M{"$in": roles},
		"active":          true,
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ActiveWithCustomRoles returns the active users of an organization whose
// custom role is any of the given role ids.
func (s *Store) ActiveWithCustomRoles(ctx context.Context, orgID primitive.ObjectID, roleIDs []primitive.ObjectID) ([]models.User, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{
		"organization_id": orgID,
		"custom_role_id":  bson.M{"$in": roleIDs},
		"active":          true,
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}
