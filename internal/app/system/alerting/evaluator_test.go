package alerting_test

import (
	"testing"
	"time"

	alertstore "github.com/dalemusser/fleethub/internal/app/store/alerts"
	machinestore "github.com/dalemusser/fleethub/internal/app/store/machines"
	userstore "github.com/dalemusser/fleethub/internal/app/store/users"
	"github.com/dalemusser/fleethub/internal/app/system/alerting"
	"github.com/dalemusser/fleethub/internal/app/system/mailer"
	"github.com/dalemusser/fleethub/internal/domain/models"
	"github.com/dalemusser/fleethub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func TestNeedsReview(t *testing.T) {
	assert.False(t, alerting.NeedsReview(nil))

	assert.True(t, alerting.NeedsReview(&models.PreStartCheck{
		Status: models.PreStartNeedsReview,
	}), "explicit needs_review status")

	assert.False(t, alerting.NeedsReview(&models.PreStartCheck{
		Status: models.PreStartOK,
		Items: []models.ChecklistItem{
			{Key: "brakes", Passed: true},
			{Key: "lights", Passed: true},
		},
	}), "all items passed")

	assert.True(t, alerting.NeedsReview(&models.PreStartCheck{
		Status: models.PreStartOK,
		Items: []models.ChecklistItem{
			{Key: "brakes", Passed: true},
			{Key: "hydraulics", Passed: false},
		},
	}), "failed item overrides ok status")
}

func TestReminderSeverity(t *testing.T) {
	tests := []struct {
		remaining float64
		severity  string
		fire      bool
	}{
		{-1, "", false}, // overdue does not fire
		{-0.1, "", false},
		{0, models.SeverityHigh, true},
		{3, models.SeverityHigh, true},
		{5, models.SeverityHigh, true},
		{5.1, models.SeverityMedium, true},
		{6, models.SeverityMedium, true},
		{10, models.SeverityMedium, true},
		{10.1, "", false},
		{11, "", false},
		{500, "", false},
	}
	for _, tt := range tests {
		severity, fire := alerting.ReminderSeverity(tt.remaining)
		assert.Equal(t, tt.fire, fire, "remaining=%v fire", tt.remaining)
		assert.Equal(t, tt.severity, severity, "remaining=%v severity", tt.remaining)
	}
}

func newTestEvaluator(t *testing.T, db *mongo.Database) *alerting.Evaluator {
	t.Helper()
	log := zap.NewNop()
	// Blank host keeps the mailer disabled so tests never touch SMTP.
	return alerting.NewEvaluator(
		alertstore.New(db),
		machinestore.New(db),
		userstore.New(db),
		mailer.New("", 0, "", "", "FleetHub <noreply@test>", log),
		"FleetHub",
		log,
	)
}

func TestEvaluateServiceReminder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	ev := newTestEvaluator(t, db)

	org := fx.CreateOrganization(ctx, "Reminder Org")
	owner := fx.CreateUser(ctx, "Owen Owner", "owner@test.com", models.RoleManager, &org.ID)

	t.Run("fires inside window and dedups repeats", func(t *testing.T) {
		machine := fx.CreateMachine(ctx, org.ID, "Loader 1",
			testutil.Float64(96), testutil.Float64(100))
		fx.SetMachineOwner(ctx, machine.ID, owner.ID)
		machine.UserID = &owner.ID

		alert := ev.EvaluateServiceReminder(ctx, &machine)
		require.NotNil(t, alert)
		assert.Equal(t, models.AlertServiceReminder, alert.Type)
		assert.Equal(t, models.SeverityHigh, alert.Severity)
		assert.Equal(t, owner.ID, alert.UserID)
		require.NotNil(t, alert.RemainingHours)
		assert.InDelta(t, 4.0, *alert.RemainingHours, 0.001)

		// A second evaluation inside the window returns the existing alert.
		again := ev.EvaluateServiceReminder(ctx, &machine)
		require.NotNil(t, again)
		assert.Equal(t, alert.ID, again.ID)

		count, err := db.Collection("user_alerts").CountDocuments(ctx, map[string]any{
			"machine_id": machine.ID,
		})
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})

	t.Run("stale alert outside window does not suppress", func(t *testing.T) {
		machine := fx.CreateMachine(ctx, org.ID, "Loader 2",
			testutil.Float64(92), testutil.Float64(100))
		fx.SetMachineOwner(ctx, machine.ID, owner.ID)
		machine.UserID = &owner.ID

		first := ev.EvaluateServiceReminder(ctx, &machine)
		require.NotNil(t, first)

		// Age the alert past the dedup window.
		stale := time.Now().UTC().Add(-25 * time.Hour)
		_, err := db.Collection("user_alerts").UpdateByID(ctx, first.ID,
			map[string]any{"$set": map[string]any{"created_at": stale}})
		require.NoError(t, err)

		second := ev.EvaluateServiceReminder(ctx, &machine)
		require.NotNil(t, second)
		assert.NotEqual(t, first.ID, second.ID, "a new alert fires after the window lapses")
	})

	t.Run("no hours means no alert", func(t *testing.T) {
		machine := fx.CreateMachine(ctx, org.ID, "Loader 3", nil, nil)
		assert.Nil(t, ev.EvaluateServiceReminder(ctx, &machine))
	})

	t.Run("overdue machine does not fire", func(t *testing.T) {
		machine := fx.CreateMachine(ctx, org.ID, "Loader 4",
			testutil.Float64(110), testutil.Float64(100))
		fx.SetMachineOwner(ctx, machine.ID, owner.ID)
		machine.UserID = &owner.ID
		assert.Nil(t, ev.EvaluateServiceReminder(ctx, &machine))
	})

	t.Run("unresolvable owner skips the alert", func(t *testing.T) {
		machine := fx.CreateMachine(ctx, org.ID, "Loader 5",
			testutil.Float64(97), testutil.Float64(100))
		assert.Nil(t, ev.EvaluateServiceReminder(ctx, &machine))
	})
}

func TestEvaluatePreStart(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	ev := newTestEvaluator(t, db)

	org := fx.CreateOrganization(ctx, "PreStart Org")
	owner := fx.CreateUser(ctx, "Paula Owner", "paula@test.com", models.RoleManager, &org.ID)
	machine := fx.CreateMachine(ctx, org.ID, "Excavator 1", nil, nil)
	fx.SetMachineOwner(ctx, machine.ID, owner.ID)

	t.Run("failed items raise a high review alert", func(t *testing.T) {
		check := &models.PreStartCheck{
			MachineID:      machine.ID,
			OrganizationID: org.ID,
			OperatorName:   "Sam",
			Status:         models.PreStartOK,
			Items: []models.ChecklistItem{
				{Key: "brakes", Passed: false},
				{Key: "lights", Passed: true},
			},
		}
		alert := ev.EvaluatePreStart(ctx, check)
		require.NotNil(t, alert)
		assert.Equal(t, models.AlertPreStartReview, alert.Type)
		assert.Equal(t, models.SeverityHigh, alert.Severity)
		assert.Equal(t, []string{"brakes"}, alert.FailedItems)
		assert.Equal(t, owner.ID, alert.UserID)
	})

	t.Run("clean check raises nothing", func(t *testing.T) {
		check := &models.PreStartCheck{
			MachineID:      machine.ID,
			OrganizationID: org.ID,
			OperatorName:   "Sam",
			Status:         models.PreStartOK,
			Items:          []models.ChecklistItem{{Key: "brakes", Passed: true}},
		}
		assert.Nil(t, ev.EvaluatePreStart(ctx, check))
	})
}

func TestSweep(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	ev := newTestEvaluator(t, db)

	org := fx.CreateOrganization(ctx, "Sweep Org")
	owner := fx.CreateUser(ctx, "Swee Per", "sweep@test.com", models.RoleManager, &org.ID)

	due := fx.CreateMachine(ctx, org.ID, "Due Machine",
		testutil.Float64(95), testutil.Float64(100))
	fx.SetMachineOwner(ctx, due.ID, owner.ID)

	fine := fx.CreateMachine(ctx, org.ID, "Fine Machine",
		testutil.Float64(10), testutil.Float64(100))
	fx.SetMachineOwner(ctx, fine.ID, owner.ID)

	assert.Equal(t, 1, ev.Sweep(ctx), "only the due machine fires")
	assert.Equal(t, 0, ev.Sweep(ctx), "second sweep is suppressed by dedup")
}
