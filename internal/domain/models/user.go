// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// System roles. Stored lowercase; superadmin bypasses all permission checks.
const (
	RoleSuperAdmin = "superadmin"
	RoleAdmin      = "admin"
	RoleManager    = "manager"
	RoleUser       = "user"
	RoleTechnician = "technician"
	RoleOperator   = "operator"
	RoleViewer     = "viewer"
)

// SystemRoles lists every valid system role.
var SystemRoles = []string{
	RoleSuperAdmin, RoleAdmin, RoleManager, RoleUser,
	RoleTechnician, RoleOperator, RoleViewer,
}

// IsValidRole reports whether role is one of the fixed system roles.
func IsValidRole(role string) bool {
	for _, r := range SystemRoles {
		if r == role {
			return true
		}
	}
	return false
}

// User represents any account in the system: superadmins, org admins,
// managers, technicians, operators, and viewers.
//
// A user has exactly one of {system role, custom role} in effect at a time:
// when CustomRoleID is set, the referenced organization role's permission set
// replaces the system role's static set. Superadmins bypass both.
type User struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	FullName     string              `bson:"full_name" json:"full_name"`
	FullNameCI   string              `bson:"full_name_ci" json:"-"` // lowercase, diacritics-stripped
	Email        string              `bson:"email" json:"email"`
	PasswordHash string              `bson:"password_hash,omitempty" json:"-"`
	Role         string              `bson:"role" json:"role"`
	CustomRoleID *primitive.ObjectID `bson:"custom_role_id,omitempty" json:"custom_role_id,omitempty"`

	OrganizationID *primitive.ObjectID `bson:"organization_id,omitempty" json:"organization_id,omitempty"`
	// CredentialID links the user to an organization credential; machines
	// reference the same credential for owner resolution.
	CredentialID *primitive.ObjectID `bson:"credential_id,omitempty" json:"credential_id,omitempty"`

	// Active is a soft-disable flag. Users are never hard-deleted while
	// referenced; disabled users cannot sign in and receive no notifications.
	Active bool `bson:"active" json:"active"`

	// AlertEmails are the recipient addresses for alert emails. When empty,
	// the user's login email is used.
	AlertEmails []string `bson:"alert_emails,omitempty" json:"alert_emails,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// AlertRecipients returns the addresses alert emails should go to.
func (u *User) AlertRecipients() []string {
	if len(u.AlertEmails) > 0 {
		return u.AlertEmails
	}
	if u.Email != "" {
		return []string{u.Email}
	}
	return nil
}
