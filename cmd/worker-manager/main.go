// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"counsel-workers/internal/catalog"
	"counsel-workers/internal/common/camunda"
	"counsel-workers/internal/common/config"
	"counsel-workers/internal/common/database"
	"counsel-workers/internal/common/logger"
	"counsel-workers/internal/common/observability"
	"counsel-workers/internal/scheduler"
	"counsel-workers/internal/store"
	"counsel-workers/pkg/registry"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("starting worker manager",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Warn("otel metrics disabled", zap.Error(err))
	}
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Zeebe ---
	zeebe, err := camunda.Connect(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: true,
		ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
	}, log)
	if err != nil {
		zapLog.Fatal("zeebe connection failed", zap.Error(err))
	}
	defer zeebe.Close()

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()

	if err := store.Migrate(ctx, pg.DB); err != nil {
		zapLog.Fatal("schema migration failed", zap.Error(err))
	}

	// --- Elasticsearch ---
	// The catalog falls back to Postgres, so a missing search cluster only
	// degrades ranking latency.
	var esClient *database.ElasticsearchClient
	if cfg.Database.Elasticsearch.URL != "" {
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping()
		}, 5, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Warn("elasticsearch unavailable, catalog served from postgres", zap.Error(err))
			esClient = nil
		}
	}

	// --- Redis ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()

	zapLog.Info("data stores connected")

	deps, err := buildDependencies(ctx, cfg, pg, esClient, redis, log)
	if err != nil {
		zapLog.Fatal("dependency setup failed", zap.Error(err))
	}

	if created, err := deps.users.EnsureBootstrapAdmin(ctx, cfg.Staff.BootstrapAdminEmail, cfg.Staff.BootstrapAdminPassword); err != nil {
		zapLog.Warn("bootstrap admin not created", zap.Error(err))
	} else if created {
		zapLog.Info("bootstrap admin created", zap.String("email", cfg.Staff.BootstrapAdminEmail))
	}

	seedCatalog(ctx, cfg, deps, log)

	registryPath := os.Getenv("ACTIVITY_REGISTRY_PATH")
	if registryPath == "" {
		registryPath = registry.DefaultPath
	}
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		zapLog.Warn("activity registry not loaded, using handler timeouts", zap.String("path", registryPath), zap.Error(err))
	} else if missing := reg.Missing(taskTypes()); len(missing) > 0 {
		zapLog.Warn("task types missing from activity registry", zap.Strings("taskTypes", missing))
	}

	workers := registerWorkers(zeebe, cfg, reg, deps, obs, log)
	zapLog.Info("workers registered", zap.Int("count", len(workers)))

	sweeper := scheduler.New(scheduler.NewSweeper(deps.cases, redis, cfg.Pipeline.SLAHours, log), log)
	if err := sweeper.Start(cfg.Pipeline.SweepSchedule); err != nil {
		zapLog.Fatal("sla sweeper failed to start", zap.Error(err))
	}

	srv := newHealthServer(cfg.App.HTTPAddr, &readiness{
		zeebe: zeebe,
		pg:    pg,
		redis: redis,
	}, log)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("health server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLog.Info("shutdown signal received, stopping workers")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Close()
	}
	sweeper.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("health server shutdown failed", zap.Error(err))
	}

	zapLog.Info("worker manager stopped")
}

// seedCatalog imports the bundled CSV so a fresh deployment can rank
// programs before anyone runs counselctl.
func seedCatalog(ctx context.Context, cfg *config.Config, deps *dependencies, log logger.Logger) {
	if cfg.Catalog.CSVPath == "" {
		return
	}
	if _, err := os.Stat(cfg.Catalog.CSVPath); err != nil {
		log.Info("catalog csv not found, skipping seed", map[string]interface{}{"path": cfg.Catalog.CSVPath})
		return
	}
	res, err := catalog.LoadCSVFile(cfg.Catalog.CSVPath)
	if err != nil {
		log.Warn("catalog csv unreadable", map[string]interface{}{"error": err, "path": cfg.Catalog.CSVPath})
		return
	}
	if _, err := deps.importer.Import(ctx, res); err != nil {
		log.Warn("catalog seed failed", map[string]interface{}{"error": err})
	}
}
