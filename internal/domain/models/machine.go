// internal/domain/models/machine.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Machine is a piece of fleet equipment. Hour fields are pointers because
// legacy records may carry neither; the service-reminder sweep only considers
// machines with both present.
type Machine struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrganizationID primitive.ObjectID `bson:"organization_id" json:"organization_id"`

	Name         string `bson:"name" json:"name"`
	NameCI       string `bson:"name_ci" json:"-"`
	Make         string `bson:"make,omitempty" json:"make,omitempty"`
	Model        string `bson:"model,omitempty" json:"model,omitempty"`
	SerialNumber string `bson:"serial_number,omitempty" json:"serial_number,omitempty"`
	Status       string `bson:"status" json:"status"` // active | disabled

	CurrentHours     *float64 `bson:"current_hours,omitempty" json:"current_hours,omitempty"`
	NextServiceHours *float64 `bson:"next_service_hours,omitempty" json:"next_service_hours,omitempty"`

	// Owner references, tried in order: the organization credential shared
	// with the owning user, then a direct user id.
	CredentialID *primitive.ObjectID `bson:"credential_id,omitempty" json:"credential_id,omitempty"`
	UserID       *primitive.ObjectID `bson:"user_id,omitempty" json:"user_id,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
