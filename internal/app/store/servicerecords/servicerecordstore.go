package servicerecordstore

import (
	"context"
	"time"

	"github.com/dalemusser/fleethub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("service_records")}
}

func (s *Store) Create(ctx context.Context, rec models.ServiceRecord) (models.ServiceRecord, error) {
	rec.ID = primitive.NewObjectID()
	rec.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, rec); err != nil {
		return models.ServiceRecord{}, err
	}
	return rec, nil
}

// ListForMachine returns a machine's service records, newest first.
func (s *Store) ListForMachine(ctx context.Context, machineID, orgID primitive.ObjectID) ([]models.ServiceRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"machine_id": machineID, "organization_id": orgID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var recs []models.ServiceRecord
	if err := cur.All(ctx, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}
