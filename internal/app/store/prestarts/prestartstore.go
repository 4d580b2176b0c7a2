package prestartstore

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
	return &Store{c: db.Collection("prestart_checks")}
}

func (s *Store) Create(ctx context.Context, rec models.PreStartCheck) (models.PreStartCheck, error) {
	rec.ID = primitive.NewObjectID()
	if rec.Status == "" {
		rec.Status = models.PreStartOK
	}
	rec.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, rec); err != nil {
		return models.PreStartCheck{}, err
	}
	return rec, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.PreStartCheck, error) {
	var rec models.PreStartCheck
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListForMachine returns a machine's pre-start checks, newest first.
func (s *Store) ListForMachine(ctx context.Context, machineID, orgID primitive.ObjectID, limit int64) ([]models.PreStartCheck, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, bson.M{"machine_id": machineID, "organization_id": orgID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var recs []models.PreStartCheck
	if err := cur.All(ctx, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}
