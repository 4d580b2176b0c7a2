package alertstore

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
	return &Store{c: db.Collection("user_alerts")}
}

// Insert persists one alert. ID, Read, and CreatedAt are assigned here.
func (s *Store) Insert(ctx context.Context, a models.Alert) (models.Alert, error) {
	a.ID = primitive.NewObjectID()
	a.Read = false
	a.ReadAt = nil
	a.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		return models.Alert{}, err
	}
	return a, nil
}

// RecentForMachine finds an alert of the given type for the machine created
// after the cutoff. Used for the de-duplication window; returns
// mongo.ErrNoDocuments when there is none.
func (s *Store) RecentForMachine(ctx context.Context, machineID primitive.ObjectID, alertType string, since time.Time) (*models.Alert, error) {
	var a models.Alert
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	err := s.c.FindOne(ctx, bson.M{
		"machine_id": machineID,
		"type":       alertType,
		"created_at": bson.M{"$gte": since},
	}, opts).Decode(&a)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListForUser returns a user's alerts in the organization, newest first.
func (s *Store) ListForUser(ctx context.Context, userID, orgID primitive.ObjectID, limit int64) ([]models.Alert, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID, "organization_id": orgID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var alerts []models.Alert
	if err := cur.All(ctx, &alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}

// MarkRead transitions an alert to read; one-way and idempotent, scoped to the
// owning user.
func (s *Store) MarkRead(ctx context.Context, id, userID primitive.ObjectID) error {
	now := time.Now().UTC()
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "user_id": userID, "read": false},
		bson.M{"$set": bson.M{"read": true, "read_at": now}},
	)
	return err
}

// Exists reports whether an alert belongs to the user.
func (s *Store) Exists(ctx context.Context, id, userID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"_id": id, "user_id": userID},
		options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
