package accessrequeststore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/fleethub/internal/app/system/normalize"
	"github.com/dalemusser/fleethub/internal/app/system/status"
	"github.com/dalemusser/fleethub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrPendingExists is returned when the email already has a pending request.
	ErrPendingExists = errors.New("a pending request for this email already exists")
	// ErrAlreadyDecided is returned when approving or rejecting a request that
	// is no longer pending.
	ErrAlreadyDecided = errors.New("request has already been decided")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("access_requests")}
}

// Create inserts a pending request. A second pending request for the same
// email is rejected; decided requests do not block re-application.
func (s *Store) Create(ctx context.Context, req models.AccessRequest) (models.AccessRequest, error) {
	req.Email = normalize.Email(req.Email)

	err := s.c.FindOne(ctx, bson.M{"email": req.Email, "status": status.Pending},
		options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err == nil {
		return models.AccessRequest{}, ErrPendingExists
	}
	if err != mongo.ErrNoDocuments {
		return models.AccessRequest{}, err
	}

	req.ID = primitive.NewObjectID()
	req.Status = status.Pending
	req.SubmittedAt = time.Now().UTC()
	req.DecidedAt = nil
	req.DecidedBy = nil
	if _, err := s.c.InsertOne(ctx, req); err != nil {
		return models.AccessRequest{}, err
	}
	return req, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.AccessRequest, error) {
	var req models.AccessRequest
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

// List returns requests, optionally filtered by status, newest first.
func (s *Store) List(ctx context.Context, st string) ([]models.AccessRequest, error) {
	filter := bson.M{}
	if st != "" {
		filter["status"] = st
	}
	opts := options.Find().SetSort(bson.D{{Key: "submitted_at", Value: -1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var reqs []models.AccessRequest
	if err := cur.All(ctx, &reqs); err != nil {
		return nil, err
	}
	return reqs, nil
}

// Decide transitions a pending request to approved or rejected, recording the
// actor and timestamp. The pending filter makes the transition single-shot:
// a request that was already decided matches nothing and ErrAlreadyDecided is
// returned.
func (s *Store) Decide(ctx context.Context, id primitive.ObjectID, decision string, actor primitive.ObjectID, tempPassword string) error {
	if !status.IsDecision(decision) {
		return errors.New("decision must be approved or rejected")
	}
	now := time.Now().UTC()
	set := bson.M{
		"status":     decision,
		"decided_at": now,
		"decided_by": actor,
	}
	if tempPassword != "" {
		set["temp_password"] = tempPassword
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": status.Pending},
		bson.M{"$set": set},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrAlreadyDecided
	}
	return nil
}
