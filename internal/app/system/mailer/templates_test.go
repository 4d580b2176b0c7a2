package mailer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestBuildAlertEmail(t *testing.T) {
	email := BuildAlertEmail(AlertEmailData{
		SiteName:    "FleetHub",
		MachineName: "Loader 1",
		Title:       "Pre-start check needs review",
		Message:     "2 items failed",
		Severity:    "high",
		FailedItems: []string{"brakes", "hydraulics"},
	})

	assert.Equal(t, "[FleetHub] Loader 1: Pre-start check needs review", email.Subject)
	for _, body := range []string{email.TextBody, email.HTMLBody} {
		assert.Contains(t, body, "Loader 1")
		assert.Contains(t, body, "brakes")
		assert.Contains(t, body, "hydraulics")
	}
	assert.True(t, strings.Contains(email.HTMLBody, "<!DOCTYPE html>"))
}

func TestBuildCredentialsEmail(t *testing.T) {
	email := BuildCredentialsEmail(CredentialsEmailData{
		SiteName:     "FleetHub",
		FullName:     "Pat Example",
		Email:        "pat@example.com",
		TempPassword: "s3cret-temp",
		LoginURL:     "https://fleethub.example.com/login",
	})

	assert.Contains(t, email.Subject, "FleetHub")
	for _, body := range []string{email.TextBody, email.HTMLBody} {
		assert.Contains(t, body, "pat@example.com")
		assert.Contains(t, body, "s3cret-temp")
		assert.Contains(t, body, "https://fleethub.example.com/login")
	}
}

func TestMailerDisabled(t *testing.T) {
	var nilMailer *Mailer
	assert.False(t, nilMailer.Enabled())

	m := New("", 0, "", "", "FleetHub <noreply@test>", zap.NewNop())
	assert.False(t, m.Enabled())

	// A disabled mailer drops mail without error.
	assert.NoError(t, m.Send(context.Background(), Email{To: "x@test.com", Subject: "s", TextBody: "b"}))
}
