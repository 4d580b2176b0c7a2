package machinestore

import (
	"context"
	"time"

	"github.com/dalemusser/fleethub/internal/app/system/status"
	"github.com/dalemusser/fleethub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("machines")}
}

func (s *Store) Create(ctx context.Context, m models.Machine) (models.Machine, error) {
	now := time.Now().UTC()
	m.ID = primitive.NewObjectID()
	m.NameCI = text.Fold(m.Name)
	if m.Status == "" {
		m.Status = status.Active
	}
	m.CreatedAt = now
	m.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		return models.Machine{}, err
	}
	return m, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Machine, error) {
	var m models.Machine
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// GetForOrg loads a machine scoped to an organization.
func (s *Store) GetForOrg(ctx context.Context, id, orgID primitive.ObjectID) (*models.Machine, error) {
	var m models.Machine
	err := s.c.FindOne(ctx, bson.M{"_id": id, "organization_id": orgID}).Decode(&m)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListByOrg returns an organization's machines sorted by folded name.
func (s *Store) ListByOrg(ctx context.Context, orgID primitive.ObjectID) ([]models.Machine, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"organization_id": orgID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var ms []models.Machine
	if err := cur.All(ctx, &ms); err != nil {
		return nil, err
	}
	return ms, nil
}

// ListWithServiceHours returns every active machine that has both hour fields
// set. This is the sweep's working set; machines missing either field are
// ignored by design.
func (s *Store) ListWithServiceHours(ctx context.Context) ([]models.Machine, error) {
	cur, err := s.c.Find(ctx, bson.M{
		"status":             status.Active,
		"current_hours":      bson.M{"$ne": nil},
		"next_service_hours": bson.M{"$ne": nil},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var ms []models.Machine
	if err := cur.All(ctx, &ms); err != nil {
		return nil, err
	}
	return ms, nil
}

// Update modifies a machine's mutable fields and refreshes UpdatedAt.
func (s *Store) Update(ctx context.Context, id, orgID primitive.ObjectID, m models.Machine) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if m.Name != "" {
		set["name"] = m.Name
		set["name_ci"] = text.Fold(m.Name)
	}
	if m.Make != "" {
		set["make"] = m.Make
	}
	if m.Model != "" {
		set["model"] = m.Model
	}
	if m.SerialNumber != "" {
		set["serial_number"] = m.SerialNumber
	}
	if m.Status != "" {
		set["status"] = m.Status
	}
	if m.CredentialID != nil {
		set["credential_id"] = *m.CredentialID
	}
	if m.UserID != nil {
		set["user_id"] = *m.UserID
	}
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id, "organization_id": orgID}, bson.M{"$set": set})
	return err
}

// SetHours records the machine's current operating hours.
func (s *Store) SetHours(ctx context.Context, id, orgID primitive.ObjectID, hours float64) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "organization_id": orgID},
		bson.M{"$set": bson.M{"current_hours": hours, "updated_at": time.Now().UTC()}},
	)
	return err
}

// SetNextServiceHours advances the machine's next-service-due hours, typically
// after a service record is filed.
func (s *Store) SetNextServiceHours(ctx context.Context, id, orgID primitive.ObjectID, hours float64) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "organization_id": orgID},
		bson.M{"$set": bson.M{"next_service_hours": hours, "updated_at": time.Now().UTC()}},
	)
	return err
}

// Delete removes a machine, scoped to the organization.
func (s *Store) Delete(ctx context.Context, id, orgID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "organization_id": orgID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
