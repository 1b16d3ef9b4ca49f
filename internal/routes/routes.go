package routes

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/simlar/simlar-server-sub000/internal/alerts"
	"github.com/simlar/simlar-server-sub000/internal/config"
	"github.com/simlar/simlar-server-sub000/internal/contactsync"
	"github.com/simlar/simlar-server-sub000/internal/identity"
	"github.com/simlar/simlar-server-sub000/internal/ledger"
	"github.com/simlar/simlar-server-sub000/internal/middleware"
	"github.com/simlar/simlar-server-sub000/internal/provisioning"
	"github.com/simlar/simlar-server-sub000/internal/sms"
	"github.com/simlar/simlar-server-sub000/internal/subscriber"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if !isDev(d.Cfg.AppEnv) {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	var accounts ledger.AccountRepository
	var contacts ledger.ContactRepository
	var subscribers subscriber.Store
	if d.DB != nil {
		accounts = ledger.NewPostgresAccountRepository(d.DB)
		contacts = ledger.NewPostgresContactRepository(d.DB)
		subscribers = subscriber.NewPostgresStore(d.DB)
	} else {
		accounts = ledger.NewMemoryAccountRepository()
		contacts = ledger.NewMemoryContactRepository()
		subscribers = subscriber.NewMemoryStore()
	}

	gateway := sms.NewThrottled(sms.NewLoggerGateway(d.Logger), d.Cfg.SMSThrottlePerSecond, d.Cfg.SMSThrottleBurst)
	alerter := alerts.NewLoggerNotifier(d.Logger, d.Cfg.AlertRecipients)

	provisioningSvc := provisioning.NewService(accounts, subscribers, gateway, alerter, provisioningSettings(d.Cfg), d.Logger)
	calculator := contactsync.NewCalculator(contacts, d.Logger)
	gate := contactsync.NewGate(d.Logger)

	api := app.Group("/api/v1")

	burstLimiter := middleware.BurstLimit(d.Cache, d.Cfg.BurstLimitPerMinute)
	RegisterProvisioningRoutes(api, provisioningSvc, burstLimiter)
	RegisterContactRoutes(api, calculator, gate, subscribers)

	return nil
}

func provisioningSettings(cfg config.Config) provisioning.Settings {
	settings := provisioning.Settings{
		MaxRequestsPerIPPerHour:      cfg.MaxRequestsPerIPPerHour,
		MaxRequestsTotalPerHour:      cfg.MaxRequestsTotalPerHour,
		MaxRequestsTotalPerDay:       cfg.MaxRequestsTotalPerDay,
		MaxRequestsPerSimlarIDPerDay: cfg.MaxRequestsPerSimlarIDPerDay,
		MaxConfirmTries:              cfg.MaxConfirmTries,
		MaxCallsPerDay:               cfg.MaxCallsPerDay,
		CallDelayMin:                 cfg.CallDelayMin,
		CallDelayMax:                 cfg.CallDelayMax,
		RegistrationCodeExpiry:       cfg.RegistrationCodeExpiry,
		ConfirmTimeout:               cfg.ConfirmTimeout,
	}
	for _, regional := range cfg.RegionalLimits {
		settings.RegionalLimits = append(settings.RegionalLimits, provisioning.RegionalLimit{
			Prefix:             regional.Prefix,
			MaxRequestsPerHour: regional.MaxRequestsPerHour,
		})
	}
	if len(cfg.TestAccounts) > 0 {
		settings.TestAccounts = make(map[identity.SimlarID]string, len(cfg.TestAccounts))
		for id, code := range cfg.TestAccounts {
			settings.TestAccounts[identity.SimlarID(id)] = code
		}
	}
	return settings
}

func isDev(env string) bool {
	switch strings.ToLower(env) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}
