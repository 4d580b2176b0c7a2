// internal/domain/models/servicerecord.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServiceRecord documents maintenance performed on a machine. Creating one
// advances the machine's next-service-due hours.
type ServiceRecord struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	MachineID      primitive.ObjectID  `bson:"machine_id" json:"machine_id"`
	OrganizationID primitive.ObjectID  `bson:"organization_id" json:"organization_id"`
	UserID         *primitive.ObjectID `bson:"user_id,omitempty" json:"user_id,omitempty"`

	PerformedBy      string   `bson:"performed_by" json:"performed_by"`
	Description      string   `bson:"description" json:"description"`
	HoursAtService   float64  `bson:"hours_at_service" json:"hours_at_service"`
	NextServiceHours float64  `bson:"next_service_hours" json:"next_service_hours"`
	Parts            []string `bson:"parts,omitempty" json:"parts,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
