// internal/domain/models/customrole.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CustomRole is an organization-scoped named permission set. Lookups must
// always filter by both role ID and organization ID so a role can never leak
// across tenants.
type CustomRole struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrganizationID primitive.ObjectID `bson:"organization_id" json:"organization_id"`
	Name           string             `bson:"name" json:"name"`
	NameCI         string             `bson:"name_ci" json:"-"`
	// Permissions has set semantics: duplicates are meaningless and order is
	// irrelevant. The store dedupes on write.
	Permissions []string  `bson:"permissions" json:"permissions"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}

// HasPermission reports whether the role's permission set contains perm.
func (r *CustomRole) HasPermission(perm string) bool {
	for _, p := range r.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}
