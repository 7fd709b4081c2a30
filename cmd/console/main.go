package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/AnthonyGillesRudolfo/Order-Fulfillment-Console/internal/action"
	"github.com/AnthonyGillesRudolfo/Order-Fulfillment-Console/internal/audit"
	"github.com/AnthonyGillesRudolfo/Order-Fulfillment-Console/internal/backend"
	"github.com/AnthonyGillesRudolfo/Order-Fulfillment-Console/internal/cardsecret"
	appconfig "github.com/AnthonyGillesRudolfo/Order-Fulfillment-Console/internal/config"
	"github.com/AnthonyGillesRudolfo/Order-Fulfillment-Console/internal/console"
	"github.com/AnthonyGillesRudolfo/Order-Fulfillment-Console/internal/events"
	"github.com/AnthonyGillesRudolfo/Order-Fulfillment-Console/internal/notification"
	"github.com/AnthonyGillesRudolfo/Order-Fulfillment-Console/internal/orderdetail"
	"github.com/AnthonyGillesRudolfo/Order-Fulfillment-Console/internal/secrets"
	"github.com/AnthonyGillesRudolfo/Order-Fulfillment-Console/internal/storage/postgres"
	"github.com/AnthonyGillesRudolfo/Order-Fulfillment-Console/internal/telemetry"
	"github.com/AnthonyGillesRudolfo/Order-Fulfillment-Console/internal/ui"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// loadConfig pulls console secrets from OpenBao into the environment before
// reading it. The .env file is loaded first so it can carry OPENBAO_* too.
func loadConfig() (appconfig.Config, error) {
	_ = godotenv.Load()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	keys, err := secrets.Bootstrap(ctx)
	if err != nil {
		return appconfig.Config{}, fmt.Errorf("load secrets from openbao: %w", err)
	}
	if len(keys) > 0 {
		log.Printf("Loaded %v from OpenBao", keys)
	}
	return appconfig.Load()
}

// Logs go to stderr so they do not interleave with the operator's terminal.
func newLogger(cfg appconfig.Config) *log.Logger {
	prefix := ""
	if cfg.ServiceName != "" {
		prefix = fmt.Sprintf("[%s] ", cfg.ServiceName)
	}
	logger := log.New(os.Stderr, prefix, log.LstdFlags|log.Lmicroseconds)
	log.SetOutput(os.Stderr)
	log.SetFlags(logger.Flags())
	log.SetPrefix(prefix)
	return logger
}

func setupTelemetry(lc fx.Lifecycle, cfg appconfig.Config, logger *log.Logger) {
	if !cfg.Telemetry.Enabled {
		return
	}
	var shutdown func(context.Context) error
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			fn, err := telemetry.InitTracer(ctx, cfg.ServiceName, version)
			if err != nil {
				// tracing is optional; keep the console usable
				logger.Printf("WARNING: tracing disabled: %v", err)
				return nil
			}
			shutdown = fn
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if shutdown != nil {
				return shutdown(ctx)
			}
			return nil
		},
	})
}

func newTerminal() *console.Terminal {
	return console.NewTerminal(os.Stdin, os.Stdout)
}

func newStore() *ui.Store {
	return ui.NewStore(ui.OrderModalID, ui.OrderDetailContentID, ui.CardModalID)
}

func newBackendClient(cfg appconfig.Config) *backend.Client {
	var opts []backend.Option
	if cfg.Backend.Cookie != "" {
		opts = append(opts, backend.WithCookie(cfg.Backend.Cookie))
	}
	return backend.New(cfg.Backend.BaseURL, cfg.Backend.Timeout, opts...)
}

// newKafkaProducer returns nil when no brokers are configured.
func newKafkaProducer(cfg appconfig.Config, lc fx.Lifecycle, logger *log.Logger) *events.Producer {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil
	}
	prod := events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
	logger.Printf("Publishing audit records to %s on %v", cfg.Kafka.AuditTopic, cfg.Kafka.Brokers)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return prod.Close()
		},
	})
	return prod
}

// newSQLDB returns nil when the audit database is disabled or unreachable.
func newSQLDB(lc fx.Lifecycle, cfg appconfig.Config, logger *log.Logger) *sql.DB {
	if !cfg.Audit.DBEnabled {
		return nil
	}
	logger.Printf("Connecting to PostgreSQL database %s@%s:%d", cfg.Database.Database, cfg.Database.Host, cfg.Database.Port)
	db, err := postgres.OpenDatabase(cfg.Database)
	if err != nil {
		logger.Printf("WARNING: failed to connect to database: %v", err)
		return nil
	}
	logger.Printf("Database connection established successfully")
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return db.Close()
		},
	})
	return db
}

func newRepository(db *sql.DB, logger *log.Logger) *postgres.Repository {
	if db == nil {
		return nil
	}
	return postgres.NewRepository(db, logger)
}

func newAuditTrail(prod *events.Producer, repo *postgres.Repository, logger *log.Logger) *audit.Trail {
	var sinks audit.Multi
	if prod != nil {
		sinks = append(sinks, audit.NewKafkaSink(prod))
	}
	if repo != nil {
		sinks = append(sinks, audit.NewPostgresSink(repo))
	}
	if len(sinks) == 0 {
		return audit.NewTrail(audit.Nop{}, logger)
	}
	return audit.NewTrail(sinks, logger)
}

func newLoader(store *ui.Store, client *backend.Client, term *console.Terminal, logger *log.Logger) *orderdetail.Loader {
	return orderdetail.NewLoader(store, client, term, logger)
}

func newDispatcher(client *backend.Client, term *console.Terminal, page *console.Page, trail *audit.Trail, logger *log.Logger) *action.Dispatcher {
	return action.NewDispatcher(client, term, page, trail, logger)
}

func newBuilder(client *backend.Client, term *console.Terminal, page *console.Page, store *ui.Store, loader *orderdetail.Loader, trail *audit.Trail, logger *log.Logger) *cardsecret.Builder {
	return cardsecret.NewBuilder(client, term, page, store, loader, trail, logger)
}

func newNotifier(client *backend.Client, term *console.Terminal, page *console.Page, trail *audit.Trail, logger *log.Logger) *notification.Client {
	return notification.NewClient(client, term, page, trail, logger)
}

func newConsole(term *console.Terminal, page *console.Page, store *ui.Store, loader *orderdetail.Loader, dispatcher *action.Dispatcher, builder *cardsecret.Builder, notifier *notification.Client, repo *postgres.Repository, logger *log.Logger) *console.Console {
	var opts []console.Option
	if repo != nil {
		opts = append(opts, console.WithHistory(repo))
	}
	return console.New(term, page, store, loader, dispatcher, builder, notifier, logger, opts...)
}

// registerConsoleLoop runs the read-eval loop and stops the app when the
// operator quits or input ends.
func registerConsoleLoop(lc fx.Lifecycle, c *console.Console, logger *log.Logger, shutdowner fx.Shutdowner) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := c.Run(ctx); err != nil {
					logger.Printf("console stopped with error: %v", err)
				}
				_ = shutdowner.Shutdown()
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}

func appOptions() fx.Option {
	return fx.Options(
		fx.WithLogger(func() fxevent.Logger { return fxevent.NopLogger }),
		fx.Provide(
			loadConfig,
			newLogger,
			newTerminal,
			newStore,
			console.NewPage,
			newBackendClient,
			newKafkaProducer,
			newSQLDB,
			newRepository,
			newAuditTrail,
			newLoader,
			newDispatcher,
			newBuilder,
			newNotifier,
			newConsole,
		),
		fx.Invoke(
			func(logger *log.Logger, cfg appconfig.Config) {
				logger.Printf("Starting %s %s against %s", cfg.ServiceName, version, cfg.Backend.BaseURL)
			},
			setupTelemetry,
			registerConsoleLoop,
		),
	)
}

func main() {
	fx.New(appOptions()).Run()
}
