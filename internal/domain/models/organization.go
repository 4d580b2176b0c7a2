// internal/domain/models/organization.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Organization is a tenant. Suspending an organization short-circuits every
// gated operation for its non-superadmin users.
type Organization struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	NameCI       string             `bson:"name_ci" json:"-"` // lowercase, diacritics-stripped
	ContactEmail string             `bson:"contact_email,omitempty" json:"contact_email,omitempty"`
	Status       string             `bson:"status" json:"status"` // active | suspended
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}
