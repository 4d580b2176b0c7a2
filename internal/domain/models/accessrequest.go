// internal/domain/models/accessrequest.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AccessRequest is a pending public registration. It is mutated exactly once:
// a superadmin either approves or rejects it. Approval creates a user for the
// request's email unless one already exists.
type AccessRequest struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email            string             `bson:"email" json:"email"`
	OrganizationName string             `bson:"organization_name" json:"organization_name"`
	ContactName      string             `bson:"contact_name" json:"contact_name"`
	Phone            string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Notes            string             `bson:"notes,omitempty" json:"notes,omitempty"`

	Status      string              `bson:"status" json:"status"` // pending | approved | rejected
	SubmittedAt time.Time           `bson:"submitted_at" json:"submitted_at"`
	DecidedAt   *time.Time          `bson:"decided_at,omitempty" json:"decided_at,omitempty"`
	DecidedBy   *primitive.ObjectID `bson:"decided_by,omitempty" json:"decided_by,omitempty"`

	// TempPassword is the generated credential recorded on approval. It is
	// emailed to the requester and never serialized to API responses.
	TempPassword string `bson:"temp_password,omitempty" json:"-"`
}
