package customrolestore

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/dalemusser/fleethub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicateName is returned when an organization already has a role with the same name.
var ErrDuplicateName = errors.New("a role with this name already exists in the organization")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("organization_roles")}
}

// dedupe applies set semantics to a permission list, preserving a stable order.
func dedupe(perms []string) []string {
	seen := make(map[string]struct{}, len(perms))
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Create inserts a new organization role.
func (s *Store) Create(ctx context.Context, role models.CustomRole) (models.CustomRole, error) {
	role.ID = primitive.NewObjectID()
	role.NameCI = text.Fold(role.Name)
	role.Permissions = dedupe(role.Permissions)
	now := time.Now().UTC()
	role.CreatedAt = now
	role.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, role); err != nil {
		if wafflemongo.IsDup(err) {
			return models.CustomRole{}, ErrDuplicateName
		}
		return models.CustomRole{}, err
	}
	return role, nil
}

// GetForOrg loads a role by id scoped to an organization. The organization
// filter is what keeps custom roles from leaking across tenants; callers must
// never look a role up by id alone.
func (s *Store) GetForOrg(ctx context.Context, id, orgID primitive.ObjectID) (*models.CustomRole, error) {
	var role models.CustomRole
	err := s.c.FindOne(ctx, bson.M{"_id": id, "organization_id": orgID}).Decode(&role)
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// ListByOrg returns an organization's roles sorted by folded name.
func (s *Store) ListByOrg(ctx context.Context, orgID primitive.ObjectID) ([]models.CustomRole, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"organization_id": orgID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var roles []models.CustomRole
	if err := cur.All(ctx, &roles); err != nil {
		return nil, err
	}
	return roles, nil
}

// WithPermission returns the organization's roles whose permission set
// contains perm.
func (s *Store) WithPermission(ctx context.Context, orgID primitive.ObjectID, perm string) ([]models.CustomRole, error) {
	cur, err := s.c.Find(ctx, bson.M{
		"organization_id": orgID,
		"permissions":     perm,
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var roles []models.CustomRole
	if err := cur.All(ctx, &roles); err != nil {
		return nil, err
	}
	return roles, nil
}

// Update replaces a role's name and permission set, scoped to the organization.
func (s *Store) Update(ctx context.Context, id, orgID primitive.ObjectID, name string, perms []string) error {
	set := bson.M{
		"permissions": dedupe(perms),
		"updated_at":  time.Now().UTC(),
	}
	if name != "" {
		set["name"] = name
		set["name_ci"] = text.Fold(name)
	}
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id, "organization_id": orgID}, bson.M{"$set": set})
	if err != nil && wafflemongo.IsDup(err) {
		return ErrDuplicateName
	}
	return err
}

// Delete removes a role, scoped to the organization. Returns the number of
// documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id, orgID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "organization_id": orgID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
