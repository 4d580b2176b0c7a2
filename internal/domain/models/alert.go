// internal/domain/models/alert.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Alert types.
const (
	AlertPreStartReview  = "prestart_review"
	AlertServiceReminder = "service_reminder"
)

// Alert severities.
const (
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// Alert is an operational warning tied to a machine (pre-start review needed,
// service hours approaching). It shares the notification read/unread state
// machine: created(unread) → read, one-way.
type Alert struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID         primitive.ObjectID `bson:"user_id" json:"user_id"`
	OrganizationID primitive.ObjectID `bson:"organization_id" json:"organization_id"`
	MachineID      primitive.ObjectID `bson:"machine_id" json:"machine_id"`

	Type     string `bson:"type" json:"type"`
	Severity string `bson:"severity" json:"severity"` // medium | high
	Title    string `bson:"title" json:"title"`
	Message  string `bson:"message" json:"message"`

	// FailedItems lists the checklist keys that failed a pre-start check.
	FailedItems []string `bson:"failed_items,omitempty" json:"failed_items,omitempty"`
	// RemainingHours is recorded for service reminders.
	RemainingHours *float64 `bson:"remaining_hours,omitempty" json:"remaining_hours,omitempty"`

	Read   bool       `bson:"read" json:"read"`
	ReadAt *time.Time `bson:"read_at,omitempty" json:"read_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
