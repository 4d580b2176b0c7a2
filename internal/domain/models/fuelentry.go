// internal/domain/models/fuelentry.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Fuel entry kinds. Deliveries raise the tank level, dispenses lower it.
const (
	FuelDelivery = "delivery"
	FuelDispense = "dispense"
)

// FuelEntry is one line of an organization's diesel tank ledger. Amount is
// always positive; Kind determines the sign applied to the tank level.
type FuelEntry struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	OrganizationID primitive.ObjectID  `bson:"organization_id" json:"organization_id"`
	MachineID      *primitive.ObjectID `bson:"machine_id,omitempty" json:"machine_id,omitempty"`
	UserID         *primitive.ObjectID `bson:"user_id,omitempty" json:"user_id,omitempty"`

	Kind         string  `bson:"kind" json:"kind"` // delivery | dispense
	Amount       float64 `bson:"amount" json:"amount"`
	OperatorName string  `bson:"operator_name" json:"operator_name"`
	Note         string  `bson:"note,omitempty" json:"note,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
