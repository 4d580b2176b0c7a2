// Package normalize canonicalizes user-entered identity fields before they
// are stored or compared. Emails are matched case-insensitively everywhere,
// so they are stored lowercased.
package normalize

import "strings"

// Email lowercases and trims an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name collapses interior runs of whitespace and trims the ends.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Role lowercases and trims a role string for comparison.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
