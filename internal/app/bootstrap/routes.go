// internal/app/bootstrap/routes.go
package bootstrap

import (
	"fmt"
	"net/http"

	accessrequestsfeature "github.com/dalemusser/fleethub/internal/app/features/accessrequests"
	alertsfeature "github.com/dalemusser/fleethub/internal/app/features/alerts"
	authgooglefeature "github.com/dalemusser/fleethub/internal/app/features/authgoogle"
	customrolesfeature "github.com/dalemusser/fleethub/internal/app/features/customroles"
	fuelfeature "github.com/dalemusser/fleethub/internal/app/features/fuel"
	healthfeature "github.com/dalemusser/fleethub/internal/app/features/health"
	loginfeature "github.com/dalemusser/fleethub/internal/app/features/login"
	logoutfeature "github.com/dalemusser/fleethub/internal/app/features/logout"
	machinesfeature "github.com/dalemusser/fleethub/internal/app/features/machines"
	notificationsfeature "github.com/dalemusser/fleethub/internal/app/features/notifications"
	organizationsfeature "github.com/dalemusser/fleethub/internal/app/features/organizations"
	prestartfeature "github.com/dalemusser/fleethub/internal/app/features/prestart"
	servicerecordsfeature "github.com/dalemusser/fleethub/internal/app/features/servicerecords"
	usersfeature "github.com/dalemusser/fleethub/internal/app/features/users"
	accessrequeststore "github.com/dalemusser/fleethub/internal/app/store/accessrequests"
	alertstore "github.com/dalemusser/fleethub/internal/app/store/alerts"
	"github.com/dalemusser/fleethub/internal/app/store/audit"
	customrolestore "github.com/dalemusser/fleethub/internal/app/store/customroles"
	fuelstore "github.com/dalemusser/fleethub/internal/app/store/fuel"
	machinestore "github.com/dalemusser/fleethub/internal/app/store/machines"
	notificationstore "github.com/dalemusser/fleethub/internal/app/store/notifications"
	"github.com/dalemusser/fleethub/internal/app/store/oauthstate"
	organizationstore "github.com/dalemusser/fleethub/internal/app/store/organizations"
	prestartstore "github.com/dalemusser/fleethub/internal/app/store/prestarts"
	servicerecordstore "github.com/dalemusser/fleethub/internal/app/store/servicerecords"
	userstore "github.com/dalemusser/fleethub/internal/app/store/users"
	"github.com/dalemusser/fleethub/internal/app/system/alerting"
	"github.com/dalemusser/fleethub/internal/app/system/auditlog"
	"github.com/dalemusser/fleethub/internal/app/system/auth"
	"github.com/dalemusser/fleethub/internal/app/system/authz"
	"github.com/dalemusser/fleethub/internal/app/system/gates"
	"github.com/dalemusser/fleethub/internal/app/system/mailer"
	"github.com/dalemusser/fleethub/internal/app/system/notify"
	"github.com/dalemusser/fleethub/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed. FleetHub mounts a JSON API: session
// middleware loads the current user into the request context, and each
// feature router performs its own permission checks through the gate.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.FleetHubMongoDatabase

	// Session manager with secure cookies in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Fetch fresh user data on each request so role changes, disabled
	// accounts, and custom-role edits take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(db))

	// Stores.
	users := userstore.New(db)
	orgs := organizationstore.New(db)
	roles := customrolestore.New(db)
	notifs := notificationstore.New(db)
	alerts := alertstore.New(db)
	requests := accessrequeststore.New(db)
	machines := machinestore.New(db)
	prestarts := prestartstore.New(db)
	records := servicerecordstore.New(db)
	fuel := fuelstore.New(db)
	states := oauthstate.New(db)

	// Shared services.
	gate := gates.New(authz.NewResolver(roles, logger), orgs, logger)
	emitter := notify.NewEmitter(notifs, users, roles, logger)
	auditLog := auditlog.New(audit.New(db), logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})
	mail := mailer.New(appCfg.MailSMTPHost, appCfg.MailSMTPPort,
		appCfg.MailSMTPUser, appCfg.MailSMTPPass,
		fmt.Sprintf("%s <%s>", appCfg.MailFromName, appCfg.MailFrom), logger)
	evaluator := alerting.NewEvaluator(alerts, machines, users, mail, appCfg.SiteName, logger)

	r := chi.NewRouter()

	// Global auth middleware: loads the session user into context when a
	// valid cookie is present. Handlers decide what that user may do.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators.
	r.Mount("/healthz", healthfeature.Routes(healthfeature.NewHandler(deps.FleetHubMongoClient, logger)))

	// Authentication.
	r.Mount("/api/login", loginfeature.Routes(&loginfeature.Handler{
		Users:      users,
		Orgs:       orgs,
		SessionMgr: sessionMgr,
		Limiter:    ratelimit.NewLoginLimiter(),
		AuditLog:   auditLog,
		Log:        logger,
	}))
	r.Mount("/api/logout", logoutfeature.Routes(&logoutfeature.Handler{
		SessionMgr: sessionMgr,
		AuditLog:   auditLog,
		Log:        logger,
	}))
	if appCfg.GoogleClientID != "" {
		r.Mount("/auth/google", authgooglefeature.Routes(authgooglefeature.NewHandler(
			users, orgs, sessionMgr, auditLog, states,
			appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL,
			logger,
		)))
	}

	// Onboarding.
	r.Mount("/api/access-requests", accessrequestsfeature.Routes(&accessrequestsfeature.Handler{
		Requests: requests,
		Users:    users,
		Orgs:     orgs,
		Gate:     gate,
		Emitter:  emitter,
		Mailer:   mail,
		AuditLog: auditLog,
		SiteName: appCfg.SiteName,
		BaseURL:  appCfg.BaseURL,
		Log:      logger,
	}))

	// Messaging.
	r.Mount("/api/notifications", notificationsfeature.Routes(&notificationsfeature.Handler{
		Notifs:  notifs,
		Emitter: emitter,
		Gate:    gate,
		Log:     logger,
	}))
	r.Mount("/api/alerts", alertsfeature.Routes(&alertsfeature.Handler{
		Alerts: alerts,
		Gate:   gate,
		Log:    logger,
	}))

	// Fleet operations.
	r.Mount("/api/machines", machinesfeature.Routes(&machinesfeature.Handler{
		Machines:  machines,
		Evaluator: evaluator,
		Gate:      gate,
		AuditLog:  auditLog,
		Log:       logger,
	}))
	r.Mount("/api/prestart-checks", prestartfeature.Routes(&prestartfeature.Handler{
		PreStarts: prestarts,
		Machines:  machines,
		Evaluator: evaluator,
		Gate:      gate,
		Log:       logger,
	}))
	r.Mount("/api/service-records", servicerecordsfeature.Routes(&servicerecordsfeature.Handler{
		Records:  records,
		Machines: machines,
		Gate:     gate,
		Log:      logger,
	}))
	r.Mount("/api/fuel", fuelfeature.Routes(&fuelfeature.Handler{
		Fuel:     fuel,
		Machines: machines,
		Gate:     gate,
		Log:      logger,
	}))

	// Administration.
	r.Mount("/api/roles", customrolesfeature.Routes(&customrolesfeature.Handler{
		Roles:    roles,
		Gate:     gate,
		AuditLog: auditLog,
		Log:      logger,
	}))
	r.Mount("/api/users", usersfeature.Routes(&usersfeature.Handler{
		Users:    users,
		Roles:    roles,
		Gate:     gate,
		AuditLog: auditLog,
		Log:      logger,
	}))
	r.Mount("/api/organizations", organizationsfeature.Routes(&organizationsfeature.Handler{
		Orgs:     orgs,
		Gate:     gate,
		AuditLog: auditLog,
		Log:      logger,
	}))

	return r, nil
}
