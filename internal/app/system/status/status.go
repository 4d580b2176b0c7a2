// Package status defines shared lifecycle status strings used across
// collections, so handlers and stores compare against one vocabulary.
package status

// User and machine statuses.
const (
	Active   = "active"
	Disabled = "disabled"
)

// Organization statuses.
const (
	Suspended = "suspended"
)

// Access request statuses.
const (
	Pending  = "pending"
	Approved = "approved"
	Rejected = "rejected"
)

// IsValid reports whether s is a valid active/disabled status.
func IsValid(s string) bool {
	return s == Active || s == Disabled
}

// IsDecision reports whether s is a terminal access-request status.
func IsDecision(s string) bool {
	return s == Approved || s == Rejected
}
