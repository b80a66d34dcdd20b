package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"aigate/adapters/postgres"
	"aigate/app"
	"aigate/internal"
	"aigate/internal/cache"
	"aigate/internal/config"
	"aigate/internal/errors"
	"aigate/internal/migration"
	"aigate/internal/monitor"
	"aigate/internal/trend"
	"aigate/internal/validation"
	"aigate/ports"
	"aigate/ui"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// initDatabase connects to the decision log database and applies the schema
func initDatabase(ctx context.Context, appConfig *config.Config) (*sqlx.DB, error) {
	if appConfig.Database.URL == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required when MONITOR_PERSIST is set")
	}

	db, err := sqlx.Connect(appConfig.Database.Driver, appConfig.Database.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	migrator := migration.NewRunner()
	if err := migrator.Run(ctx, db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "database migration failed")
	}

	return db, nil
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	internal.DefaultLogger = internal.NewLogger(internal.ParseLogLevel(appConfig.LogLevel))
	logger := internal.DefaultLogger.With("Main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	monitorOpts := []monitor.Option{
		monitor.WithCapacity(appConfig.Monitor.Capacity),
		monitor.WithUserInputMax(appConfig.Monitor.UserInputMax),
		monitor.WithRegistry(registry),
	}

	var repo ports.DecisionLogRepository
	if appConfig.Monitor.PersistToDB {
		db, err := initDatabase(ctx, appConfig)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer db.Close()

		repo = postgres.NewDecisionLogRepository(db)
		monitorOpts = append(monitorOpts, monitor.WithRepository(repo))
		logger.Info("decisions persisted to %s", appConfig.Database.Driver)
	} else {
		logger.Info("decision persistence disabled, keeping the last %d decisions in memory", appConfig.Monitor.Capacity)
	}

	engine := trend.NewEngine()
	mon := monitor.New(monitorOpts...)
	defer mon.Flush()

	gatekeeper := app.NewGatekeeperService(engine, validation.NewGate(engine), mon, cache.New[string](), repo, app.ServiceConfig{
		TTLFresh:         appConfig.Cache.TTLFresh,
		TTLStale:         appConfig.Cache.TTLStale,
		RateLimitGrace:   appConfig.Cache.RateLimitGrace,
		BatchConcurrency: appConfig.Gate.BatchConcurrency,
	})

	server := ui.NewApp(ui.Config{
		Port:           appConfig.Server.Port,
		RequestTimeout: appConfig.Server.RequestTimeout,
	}, gatekeeper, registry)

	if err := server.Start(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("Server failed: %v", err)
	}
	logger.Info("stopped")
}
