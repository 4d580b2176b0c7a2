// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (HTTP/HTTPS ports,
// TLS, logging level, request limits). AppConfig is everything specific to
// FleetHub: database connection strings, SMTP, OAuth credentials, and the
// knobs for the alerting subsystem.
//
// The struct is passed to most lifecycle hooks, so any configuration needed
// during startup, request handling, or shutdown should live here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions (default: fleethub-session)
	SessionDomain string // Cookie domain (blank means current host)

	// Email/SMTP configuration. A blank host disables outbound mail; alert
	// and credential emails are then logged and dropped.
	MailSMTPHost string // SMTP server host (e.g., localhost for Mailpit)
	MailSMTPPort int    // SMTP server port (e.g., 1025 for Mailpit, 587 for SES)
	MailSMTPUser string // SMTP username (empty for Mailpit)
	MailSMTPPass string // SMTP password
	MailFrom     string // From email address (e.g., noreply@fleethub.example.com)
	MailFromName string // From display name (e.g., FleetHub)

	// Base URL for links in emails (login page for credential emails).
	BaseURL string // e.g., "https://fleethub.example.com" or "http://localhost:3000"

	// Site name used in notification and email copy.
	SiteName string

	// Audit logging destinations: "all" (db+log), "db", "log", or "off".
	AuditLogAuth  string
	AuditLogAdmin string

	// Google OAuth configuration. Blank client ID disables the /auth/google
	// routes.
	GoogleClientID     string
	GoogleClientSecret string

	// Service-reminder sweep interval.
	ReminderSweepInterval time.Duration

	// SuperAdmin bootstrap: promotes (or creates, when a password is also
	// configured) this account on startup.
	SuperAdminEmail    string
	SuperAdminPassword string
}
