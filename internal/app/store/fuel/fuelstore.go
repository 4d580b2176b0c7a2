package fuelstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/fleethub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var errBadKind = errors.New(`kind must be "delivery" or "dispense"`)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("fuel_entries")}
}

// Create appends a ledger entry. Amount must already be validated positive by
// the caller; Kind is validated here.
func (s *Store) Create(ctx context.Context, e models.FuelEntry) (models.FuelEntry, error) {
	if e.Kind != models.FuelDelivery && e.Kind != models.FuelDispense {
		return models.FuelEntry{}, errBadKind
	}
	e.ID = primitive.NewObjectID()
	e.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, e); err != nil {
		return models.FuelEntry{}, err
	}
	return e, nil
}

// ListByOrg returns an organization's ledger, newest first.
func (s *Store) ListByOrg(ctx context.Context, orgID primitive.ObjectID, limit int64) ([]models.FuelEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, bson.M{"organization_id": orgID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var entries []models.FuelEntry
	if err := cur.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// TankLevel computes the organization's current diesel tank level as the sum
// of deliveries minus dispenses, in one aggregation.
func (s *Store) TankLevel(ctx context.Context, orgID primitive.ObjectID) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"organization_id": orgID}}},
		{{Key: "$group", Value: bson.M{
			"_id": nil,
			"level": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$kind", models.FuelDelivery}},
				"$amount",
				bson.M{"$multiply": bson.A{"$amount", -1}},
			}}},
		}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)
	var out []struct {
		Level float64 `bson:"level"`
	}
	if err := cur.All(ctx, &out); err != nil {
		return 0, err
	}
	if len(out) == 0 {
		return 0, nil
	}
	return out[0].Level, nil
}
