// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

// AlertEmailData holds data for machine alert email templates.
type AlertEmailData struct {
	SiteName    string
	MachineName string
	Title       string
	Message     string
	Severity    string // medium | high
	FailedItems []string
}

// BuildAlertEmail creates an alert email with both HTML and text bodies.
func BuildAlertEmail(data AlertEmailData) Email {
	return Email{
		To:       "", // Set by caller
		Subject:  fmt.Sprintf("[%s] %s: %s", data.SiteName, data.MachineName, data.Title),
		TextBody: buildAlertText(data),
		HTMLBody: buildAlertHTML(data),
	}
}

func buildAlertText(data AlertEmailData) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("Machine: %s\n", data.MachineName))
	buf.WriteString(fmt.Sprintf("Severity: %s\n\n", data.Severity))
	buf.WriteString(data.Message + "\n")
	if len(data.FailedItems) > 0 {
		buf.WriteString("\nFailed checklist items:\n")
		for _, item := range data.FailedItems {
			buf.WriteString("  - " + item + "\n")
		}
	}
	buf.WriteString(fmt.Sprintf("\nSign in to %s to review this alert.\n", data.SiteName))
	return buf.String()
}

func buildAlertHTML(data AlertEmailData) string {
	tmpl := template.Must(template.New("alert").Parse(alertHTMLTemplate))
	var buf bytes.Buffer
	_ = tmpl.Execute(&buf, data)
	return buf.String()
}

// CredentialsEmailData holds data for the access-approval credentials email.
type CredentialsEmailData struct {
	SiteName     string
	FullName     string
	Email        string
	TempPassword string
	LoginURL     string
}

// BuildCredentialsEmail creates the email sent when an access request is
// approved, carrying the temporary password.
func BuildCredentialsEmail(data CredentialsEmailData) Email {
	return Email{
		To:       data.Email,
		Subject:  fmt.Sprintf("Your %s account is ready", data.SiteName),
		TextBody: buildCredentialsText(data),
		HTMLBody: buildCredentialsHTML(data),
	}
}

func buildCredentialsText(data CredentialsEmailData) string {
	var buf bytes.Buffer
	name := strings.TrimSpace(data.FullName)
	if name == "" {
		name = "there"
	}
	buf.WriteString(fmt.Sprintf("Hi %s,\n\n", name))
	buf.WriteString(fmt.Sprintf("Your access request to %s has been approved.\n\n", data.SiteName))
	buf.WriteString(fmt.Sprintf("Email: %s\n", data.Email))
	buf.WriteString(fmt.Sprintf("Temporary password: %s\n\n", data.TempPassword))
	if data.LoginURL != "" {
		buf.WriteString("Sign in here: " + data.LoginURL + "\n\n")
	}
	buf.WriteString("Please change your password after your first sign-in.\n")
	return buf.String()
}

func buildCredentialsHTML(data CredentialsEmailData) string {
	tmpl := template.Must(template.New("credentials").Parse(credentialsHTMLTemplate))
	var buf bytes.Buffer
	_ = tmpl.Execute(&buf, data)
	return buf.String()
}

const alertHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Title}}</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px; box-shadow: 0 2px 4px rgba(0, 0, 0, 0.1);">
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #4f46e5;">{{.SiteName}}</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 32px;">
              <p style="margin: 0 0 8px; font-size: 14px; color: #6b7280;">
                {{.MachineName}} &middot; severity {{.Severity}}
              </p>
              <h2 style="margin: 0 0 16px; font-size: 18px; color: #1f2937;">{{.Title}}</h2>
              <p style="margin: 0 0 24px; font-size: 16px; color: #374151; line-height: 1.5;">
                {{.Message}}
              </p>
              {{if .FailedItems}}
              <p style="margin: 0 0 8px; font-size: 14px; color: #6b7280;">Failed checklist items:</p>
              <ul style="margin: 0 0 24px; padding-left: 20px; font-size: 14px; color: #374151;">
                {{range .FailedItems}}<li>{{.}}</li>{{end}}
              </ul>
              {{end}}
              <p style="margin: 0; font-size: 14px; color: #6b7280;">
                Sign in to {{.SiteName}} to review this alert.
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`

const credentialsHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Account Ready</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px; box-shadow: 0 2px 4px rgba(0, 0, 0, 0.1);">
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #4f46e5;">{{.SiteName}}</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 32px;">
              <p style="margin: 0 0 24px; font-size: 16px; color: #374151; line-height: 1.5;">
                Your access request has been approved. Use these credentials to sign in:
              </p>
              <div style="background-color: #f3f4f6; border-radius: 8px; padding: 24px; margin-bottom: 24px;">
                <p style="margin: 0 0 8px; font-size: 14px; color: #374151;">Email: <strong>{{.Email}}</strong></p>
                <p style="margin: 0; font-size: 14px; color: #374151;">Temporary password: <strong style="font-family: 'Courier New', monospace;">{{.TempPassword}}</strong></p>
              </div>
              {{if .LoginURL}}
              <p style="margin: 0 0 24px; text-align: center;">
                <a href="{{.LoginURL}}" style="display: inline-block; background-color: #4f46e5; color: #ffffff; text-decoration: none; padding: 12px 32px; border-radius: 6px; font-size: 16px; font-weight: 600;">Sign In</a>
              </p>
              {{end}}
              <p style="margin: 0; font-size: 14px; color: #6b7280;">
                Please change your password after your first sign-in.
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
