package userstore

import (
	"context"

	"github.com/dalemusser/fleethub/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fetcher adapts the user store to auth.UserFetcher so the session middleware
// re-reads the user document on every request.
type Fetcher struct {
	users *Store
}

func NewFetcher(db *mongo.Database) *Fetcher {
	return &Fetcher{users: New(db)}
}

// FetchSessionUser loads a fresh SessionUser by hex id. A missing or disabled
// account yields (nil, nil): the session is simply treated as signed out.
func (f *Fetcher) FetchSessionUser(ctx context.Context, userID string) (*auth.SessionUser, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, nil
	}
	u, err := f.users.GetByID(ctx, oid)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !u.Active {
		return nil, nil
	}

	su := &auth.SessionUser{
		ID:    u.ID.Hex(),
		Name:  u.FullName,
		Email: u.Email,
		Role:  u.Role,
	}
	if u.OrganizationID != nil {
		su.OrganizationID = u.OrganizationID.Hex()
	}
	if u.CredentialID != nil {
		su.CredentialID = u.CredentialID.Hex()
	}
	if u.CustomRoleID != nil {
		su.CustomRoleID = u.CustomRoleID.Hex()
	}
	return su, nil
}
