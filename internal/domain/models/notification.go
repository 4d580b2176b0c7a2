// internal/domain/models/notification.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification types.
const (
	NotificationRequest   = "request"
	NotificationApproval  = "approval"
	NotificationRejection = "rejection"
	NotificationWarning   = "warning"
	NotificationInfo      = "info"
	NotificationCustom    = "custom"
)

// Notification is a per-user message. Once created it is mutated only by the
// unread→read transition; there is no un-read and no expiry.
type Notification struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID         primitive.ObjectID `bson:"user_id" json:"user_id"`
	OrganizationID primitive.ObjectID `bson:"organization_id" json:"organization_id"`

	Title   string `bson:"title" json:"title"`
	Message string `bson:"message" json:"message"`
	Type    string `bson:"type" json:"type"`

	Read   bool       `bson:"read" json:"read"`
	ReadAt *time.Time `bson:"read_at,omitempty" json:"read_at,omitempty"`

	ActionURL   string              `bson:"action_url,omitempty" json:"action_url,omitempty"`
	RelatedID   *primitive.ObjectID `bson:"related_id,omitempty" json:"related_id,omitempty"`
	RelatedType string              `bson:"related_type,omitempty" json:"related_type,omitempty"`
	Extra       map[string]string   `bson:"extra,omitempty" json:"extra,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
