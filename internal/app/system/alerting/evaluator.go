// Package alerting evaluates alert rules against machine activity and
// persists the resulting alerts.
//
// Two rules exist: a pre-start check that needs review raises a high-severity
// prestart_review alert for the machine's owner, and a machine whose
// operating hours approach its next service raises a service_reminder alert.
// Rule evaluation mirrors the notify package's posture: failures are logged
// and swallowed, never propagated to the operation that triggered them.
package alerting

import (
	"context"
	"fmt"
	"time"

	alertstore "github.com/dalemusser/fleethub/internal/app/store/alerts"
	machinestore "github.com/dalemusser/fleethub/internal/app/store/machines"
	userstore "github.com/dalemusser/fleethub/internal/app/store/users"
	"github.com/dalemusser/fleethub/internal/app/system/mailer"
	"github.com/dalemusser/fleethub/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Service reminder thresholds, in machine operating hours.
const (
	reminderWindowHours = 10.0
	reminderUrgentHours = 5.0
)

// DedupWindow is how long a (machine, alert type) pair stays suppressed after
// an alert fires.
const DedupWindow = 24 * time.Hour

// NeedsReview reports whether a pre-start check requires attention: either
// the submitted status says so or at least one checklist item failed.
func NeedsReview(check *models.PreStartCheck) bool {
	if check == nil {
		return false
	}
	if check.Status == models.PreStartNeedsReview {
		return true
	}
	return len(check.FailedItems()) > 0
}

// ReminderSeverity maps remaining hours to a reminder severity. fire is false
// outside the [0, 10] window; inside it, severity is high at 5 hours or less,
// medium otherwise. Overdue machines (negative remaining) do not fire: the
// reminder's job is warning before the deadline, not nagging after it.
func ReminderSeverity(remaining float64) (severity string, fire bool) {
	if remaining < 0 || remaining > reminderWindowHours {
		return "", false
	}
	if remaining <= reminderUrgentHours {
		return models.SeverityHigh, true
	}
	return models.SeverityMedium, true
}

// Evaluator runs alert rules. All entry points return the created (or, for a
// de-duplicated reminder, the existing) alert, or nil when no alert applies
// or a dependency could not be resolved.
type Evaluator struct {
	alerts   *alertstore.Store
	machines *machinestore.Store
	users    *userstore.Store
	mail     *mailer.Mailer
	siteName string
	log      *zap.Logger
}

func NewEvaluator(alerts *alertstore.Store, machines *machinestore.Store, users *userstore.Store, mail *mailer.Mailer, siteName string, logger *zap.Logger) *Evaluator {
	return &Evaluator{alerts: alerts, machines: machines, users: users, mail: mail, siteName: siteName, log: logger}
}

// EvaluatePreStart inspects a submitted pre-start check and raises one
// prestart_review alert for the machine's owner when the check needs review.
// Unresolvable machine or owner is logged and yields nil, not an error: a
// missing owner must not fail the submission that triggered the evaluation.
func (ev *Evaluator) EvaluatePreStart(ctx context.Context, check *models.PreStartCheck) *models.Alert {
	if !NeedsReview(check) {
		return nil
	}

	machine, err := ev.machines.GetForOrg(ctx, check.MachineID, check.OrganizationID)
	if err != nil {
		ev.log.Warn("prestart alert skipped: machine unresolvable",
			zap.String("machine_id", check.MachineID.Hex()), zap.Error(err))
		return nil
	}
	owner, ok := ev.resolveOwner(ctx, machine)
	if !ok {
		ev.log.Warn("prestart alert skipped: owner unresolvable",
			zap.String("machine_id", machine.ID.Hex()))
		return nil
	}

	failed := check.FailedItems()
	alert := models.Alert{
		UserID:         owner.ID,
		OrganizationID: machine.OrganizationID,
		MachineID:      machine.ID,
		Type:           models.AlertPreStartReview,
		Severity:       models.SeverityHigh,
		Title:          "Pre-start check needs review",
		Message:        preStartMessage(machine.Name, check.OperatorName, failed),
		FailedItems:    failed,
	}
	created, err := ev.alerts.Insert(ctx, alert)
	if err != nil {
		ev.log.Error("prestart alert insert failed",
			zap.String("machine_id", machine.ID.Hex()), zap.Error(err))
		return nil
	}

	ev.emailAlert(ctx, owner, machine, &created)
	return &created
}

// EvaluateServiceReminder checks one machine's remaining service hours and
// raises a service_reminder alert when they fall inside the warning window.
// A reminder for the same machine within DedupWindow suppresses the new one
// and the existing alert is returned instead.
func (ev *Evaluator) EvaluateServiceReminder(ctx context.Context, machine *models.Machine) *models.Alert {
	alert, _ := ev.evaluateReminder(ctx, machine)
	return alert
}

// evaluateReminder returns the applicable alert and whether it was created by
// this call (false on a dedup hit).
func (ev *Evaluator) evaluateReminder(ctx context.Context, machine *models.Machine) (*models.Alert, bool) {
	if machine == nil || machine.CurrentHours == nil || machine.NextServiceHours == nil {
		return nil, false
	}
	remaining := *machine.NextServiceHours - *machine.CurrentHours
	severity, fire := ReminderSeverity(remaining)
	if !fire {
		return nil, false
	}

	existing, err := ev.alerts.RecentForMachine(ctx, machine.ID, models.AlertServiceReminder, time.Now().UTC().Add(-DedupWindow))
	if err == nil {
		return existing, false
	}
	if err != mongo.ErrNoDocuments {
		ev.log.Error("reminder dedup lookup failed",
			zap.String("machine_id", machine.ID.Hex()), zap.Error(err))
		return nil, false
	}

	owner, ok := ev.resolveOwner(ctx, machine)
	if !ok {
		ev.log.Warn("service reminder skipped: owner unresolvable",
			zap.String("machine_id", machine.ID.Hex()))
		return nil, false
	}

	alert := models.Alert{
		UserID:         owner.ID,
		OrganizationID: machine.OrganizationID,
		MachineID:      machine.ID,
		Type:           models.AlertServiceReminder,
		Severity:       severity,
		Title:          "Service due soon",
		Message:        reminderMessage(machine.Name, remaining),
		RemainingHours: &remaining,
	}
	created, err := ev.alerts.Insert(ctx, alert)
	if err != nil {
		ev.log.Error("service reminder insert failed",
			zap.String("machine_id", machine.ID.Hex()), zap.Error(err))
		return nil, false
	}

	ev.emailAlert(ctx, owner, machine, &created)
	return &created, true
}

// Sweep evaluates the service reminder for every active machine carrying both
// hour fields and returns how many alerts it created. Machines that cannot be
// evaluated are skipped; the sweep never aborts partway.
func (ev *Evaluator) Sweep(ctx context.Context) int {
	runID := uuid.NewString()
	machines, err := ev.machines.ListWithServiceHours(ctx)
	if err != nil {
		ev.log.Error("reminder sweep: machine listing failed",
			zap.String("run_id", runID), zap.Error(err))
		return 0
	}

	created := 0
	for i := range machines {
		if _, fresh := ev.evaluateReminder(ctx, &machines[i]); fresh {
			created++
		}
	}
	ev.log.Info("reminder sweep complete",
		zap.String("run_id", runID),
		zap.Int("machines", len(machines)),
		zap.Int("alerts_created", created))
	return created
}

// resolveOwner finds the user responsible for a machine: first whoever holds
// the machine's organization credential, then the direct user reference.
func (ev *Evaluator) resolveOwner(ctx context.Context, m *models.Machine) (*models.User, bool) {
	if m.CredentialID != nil && !m.CredentialID.IsZero() {
		owner, err := ev.users.GetActiveByCredential(ctx, *m.CredentialID)
		if err == nil {
			return owner, true
		}
		if err != mongo.ErrNoDocuments {
			ev.log.Error("owner credential lookup failed",
				zap.String("machine_id", m.ID.Hex()), zap.Error(err))
			return nil, false
		}
	}
	if m.UserID != nil && !m.UserID.IsZero() {
		owner, err := ev.users.GetByID(ctx, *m.UserID)
		if err == nil && owner.Active {
			return owner, true
		}
		if err != nil && err != mongo.ErrNoDocuments {
			ev.log.Error("owner user lookup failed",
				zap.String("machine_id", m.ID.Hex()), zap.Error(err))
		}
	}
	return nil, false
}

// emailAlert sends the alert email to the owner's recipients. Best effort:
// failures are logged and never surfaced.
func (ev *Evaluator) emailAlert(ctx context.Context, owner *models.User, machine *models.Machine, alert *models.Alert) {
	if !ev.mail.Enabled() {
		return
	}
	email := mailer.BuildAlertEmail(mailer.AlertEmailData{
		SiteName:    ev.siteName,
		MachineName: machine.Name,
		Title:       alert.Title,
		Message:     alert.Message,
		Severity:    alert.Severity,
		FailedItems: alert.FailedItems,
	})
	for _, addr := range owner.AlertRecipients() {
		email.To = addr
		if err := ev.mail.Send(ctx, email); err != nil {
			ev.log.Warn("alert email failed",
				zap.String("to", addr),
				zap.String("alert_id", alert.ID.Hex()),
				zap.Error(err))
		}
	}
}

func preStartMessage(machineName, operator string, failed []string) string {
	if operator == "" {
		operator = "an operator"
	}
	if len(failed) == 0 {
		return fmt.Sprintf("A pre-start check on %s submitted by %s was flagged for review.", machineName, operator)
	}
	return fmt.Sprintf("A pre-start check on %s submitted by %s failed %d checklist item(s).", machineName, operator, len(failed))
}

func reminderMessage(machineName string, remaining float64) string {
	if remaining <= 0 {
		return fmt.Sprintf("%s has reached its service interval.", machineName)
	}
	return fmt.Sprintf("%s is due for service in %.0f operating hours.", machineName, remaining)
}
