// internal/domain/models/prestartcheck.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Pre-start check statuses.
const (
	PreStartOK          = "ok"
	PreStartNeedsReview = "needs_review"
)

// ChecklistItem is one line of a pre-start check.
type ChecklistItem struct {
	Key    string `bson:"key" json:"key"`
	Passed bool   `bson:"passed" json:"passed"`
	Note   string `bson:"note,omitempty" json:"note,omitempty"`
}

// PreStartCheck is a submitted pre-start inspection for a machine. A record
// needs review when its status explicitly requests attention or any checklist
// item failed.
type PreStartCheck struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	MachineID      primitive.ObjectID  `bson:"machine_id" json:"machine_id"`
	OrganizationID primitive.ObjectID  `bson:"organization_id" json:"organization_id"`
	UserID         *primitive.ObjectID `bson:"user_id,omitempty" json:"user_id,omitempty"`

	OperatorName string          `bson:"operator_name" json:"operator_name"`
	Status       string          `bson:"status" json:"status"` // ok | needs_review
	Items        []ChecklistItem `bson:"items" json:"items"`

	// Operating hours observed at submission time, when the operator recorded
	// them. Both present lets the service-reminder trigger run opportunistically.
	CurrentHours     *float64 `bson:"current_hours,omitempty" json:"current_hours,omitempty"`
	NextServiceHours *float64 `bson:"next_service_hours,omitempty" json:"next_service_hours,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// FailedItems returns the keys of checklist items that failed.
func (p *PreStartCheck) FailedItems() []string {
	var keys []string
	for _, it := range p.Items {
		if !it.Passed {
			keys = append(keys, it.Key)
		}
	}
	return keys
}
