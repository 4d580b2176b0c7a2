// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	alertstore "github.com/dalemusser/fleethub/internal/app/store/alerts"
	machinestore "github.com/dalemusser/fleethub/internal/app/store/machines"
	"github.com/dalemusser/fleethub/internal/app/store/oauthstate"
	userstore "github.com/dalemusser/fleethub/internal/app/store/users"
	"github.com/dalemusser/fleethub/internal/app/system/alerting"
	"github.com/dalemusser/fleethub/internal/app/system/mailer"
	"github.com/dalemusser/fleethub/internal/app/system/normalize"
	"github.com/dalemusser/fleethub/internal/app/system/workers"
	"github.com/dalemusser/fleethub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Background workers are started here and stopped in Shutdown.
var (
	reminderSweep *workers.ReminderSweep
	stateCleanup  *workers.StateCleanup
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. FleetHub
// uses it to bootstrap the superadmin account and start the background
// workers.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	users := userstore.New(deps.FleetHubMongoDatabase)

	if err := ensureSuperAdmin(ctx, users, appCfg, logger); err != nil {
		return err
	}

	mail := mailer.New(appCfg.MailSMTPHost, appCfg.MailSMTPPort,
		appCfg.MailSMTPUser, appCfg.MailSMTPPass,
		fmt.Sprintf("%s <%s>", appCfg.MailFromName, appCfg.MailFrom), logger)

	evaluator := alerting.NewEvaluator(
		alertstore.New(deps.FleetHubMongoDatabase),
		machinestore.New(deps.FleetHubMongoDatabase),
		users,
		mail,
		appCfg.SiteName,
		logger,
	)

	reminderSweep = workers.NewReminderSweep(evaluator, logger, appCfg.ReminderSweepInterval)
	reminderSweep.Start()

	if appCfg.GoogleClientID != "" {
		stateCleanup = workers.NewStateCleanup(
			oauthstate.New(deps.FleetHubMongoDatabase), logger, time.Hour)
		stateCleanup.Start()
	}

	return nil
}

// ensureSuperAdmin promotes the configured account to superadmin, creating it
// when absent and a bootstrap password is configured. No configured email
// means no bootstrap.
func ensureSuperAdmin(ctx context.Context, users *userstore.Store, appCfg AppConfig, logger *zap.Logger) error {
	email := normalize.Email(appCfg.SuperAdminEmail)
	if email == "" {
		return nil
	}

	existing, err := users.GetByEmail(ctx, email)
	if err == mongo.ErrNoDocuments {
		if appCfg.SuperAdminPassword == "" {
			logger.Warn("superadmin account missing and no bootstrap password configured",
				zap.String("email", email))
			return nil
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(appCfg.SuperAdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("superadmin password hash: %w", err)
		}
		created, err := users.Create(ctx, models.User{
			Email:        email,
			FullName:     "Super Admin",
			Role:         models.RoleSuperAdmin,
			PasswordHash: string(hash),
			Active:       true,
		})
		if err != nil {
			return fmt.Errorf("superadmin create: %w", err)
		}
		logger.Info("created superadmin account",
			zap.String("email", email),
			zap.String("user_id", created.ID.Hex()))
		return nil
	}
	if err != nil {
		return fmt.Errorf("superadmin lookup: %w", err)
	}

	if existing.Role != models.RoleSuperAdmin {
		if err := users.SetRole(ctx, existing.ID, models.RoleSuperAdmin); err != nil {
			return fmt.Errorf("superadmin promote: %w", err)
		}
		logger.Info("promoted account to superadmin", zap.String("email", email))
	}
	return nil
}
