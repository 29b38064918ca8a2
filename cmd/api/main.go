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

	"estate_crm_backend/internal/adapters/storage"
	"estate_crm_backend/internal/filestore"
	apphttp "estate_crm_backend/internal/http"
	"estate_crm_backend/internal/http/router"
	"estate_crm_backend/internal/leads"
	leadrepo "estate_crm_backend/internal/leads/repository"
	"estate_crm_backend/internal/properties"
	propertyrepo "estate_crm_backend/internal/properties/repository"
	"estate_crm_backend/internal/scheduler"
	"estate_crm_backend/platform/config"
	"estate_crm_backend/platform/db"
	"estate_crm_backend/platform/idempotency"
	"estate_crm_backend/platform/logger"
	"estate_crm_backend/platform/retry"
	"estate_crm_backend/platform/metrics"
	"estate_crm_backend/platform/mongodb"
	"estate_crm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// recordStores holds the repositories for the configured database driver.
type recordStores struct {
	leads      leadrepo.LeadsRepository
	properties propertyrepo.PropertiesRepository
	// prepare runs driver-specific setup such as index creation.
	prepare []func(ctx context.Context) error
	close   func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr, "database", cfg.DatabaseDriver, "storage", cfg.StorageDriver)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	stores, err := openRecordStores(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open record store", "error", err)
		panic("failed to open record store: " + err.Error())
	}
	defer stores.close()

	storageSvc, closeStorage, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}
	defer func() { _ = closeStorage() }()

	startup, startupCtx := errgroup.WithContext(ctx)
	startup.Go(func() error {
		return retry.Do(startupCtx, log, "ensure documents bucket", 5, 2*time.Second, func() error {
			return storageSvc.EnsureBucketExists(startupCtx, cfg.GetStorageBucket())
		})
	})
	for _, prepare := range stores.prepare {
		startup.Go(func() error { return prepare(startupCtx) })
	}
	if err := startup.Wait(); err != nil {
		log.Error("startup checks failed", "error", err)
		panic("startup checks failed: " + err.Error())
	}
	log.Info("storage service initialized", "bucket", cfg.GetStorageBucket(), "folder", cfg.GetDocumentsFolder())

	m := metrics.New(cfg.GetMetricsPrefix())
	val := validator.New()

	tokens, closeTokens := initIdempotencyStore(cfg, log)
	defer closeTokens()

	cleanup, closeCleanup := initCleanupScheduler(cfg, log)
	if closeCleanup != nil {
		defer closeCleanup()
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	files := filestore.New(storageSvc, cfg.GetStorageBucket(), cfg.GetDocumentsFolder(), m, log)
	policy := storage.UploadPolicy{
		MaxFileSize:         cfg.GetUploadMaxFileSize(),
		EnforceContentTypes: cfg.GetUploadEnforceContentTypes(),
	}

	leadsModule := leads.NewModule(stores.leads, files, val, policy, log)
	leadsModule.Service().SetIdempotencyStore(tokens)
	leadsModule.Service().SetPhoneRegion(cfg.GetPhoneDefaultRegion())
	leadsModule.Service().SetMetrics(m)
	if cleanup != nil {
		leadsModule.Service().SetCleanupScheduler(cleanup)
	}

	propertiesModule := properties.NewModule(stores.properties, val, log)
	propertiesModule.Service().SetMetrics(m)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:  cfg,
		Logger:  log,
		Health:  leadsModule.Repository(),
		Metrics: m,
		Modules: []apphttp.Module{
			leadsModule,
			propertiesModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func openRecordStores(ctx context.Context, cfg *config.Config, log *logger.Logger) (*recordStores, error) {
	switch cfg.GetDatabaseDriver() {
	case config.DriverPostgres:
		pool, err := connectPostgres(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return &recordStores{
			leads:      leadrepo.New(pool),
			properties: propertyrepo.New(pool),
			close:      pool.Close,
		}, nil

	case config.DriverMongo:
		var (
			leadsRepo      *leadrepo.MongoRepository
			propertiesRepo *propertyrepo.MongoRepository
			disconnect     func()
		)
		err := retry.Do(ctx, log, "mongodb connection", 5, 2*time.Second, func() error {
			client, database, err := mongodb.Connect(ctx, cfg)
			if err != nil {
				return err
			}
			leadsRepo = leadrepo.NewMongo(database)
			propertiesRepo = propertyrepo.NewMongo(database)
			disconnect = func() { _ = client.Disconnect(context.Background()) }
			return nil
		})
		if err != nil {
			return nil, err
		}
		log.Info("mongodb connection established", "database", cfg.GetMongoDatabase())
		return &recordStores{
			leads:      leadsRepo,
			properties: propertiesRepo,
			prepare:    []func(context.Context) error{leadsRepo.EnsureIndexes, propertiesRepo.EnsureIndexes},
			close:      disconnect,
		}, nil

	case config.DriverMemory:
		log.Warn("using in-memory record store; data is lost on restart")
		return &recordStores{
			leads:      leadrepo.NewMemory(),
			properties: propertyrepo.NewMemory(),
			close:      func() {},
		}, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.GetDatabaseDriver())
	}
}

func initIdempotencyStore(cfg config.IdempotencyConfig, log *logger.Logger) (idempotency.Store, func()) {
	if cfg.GetRedisURL() == "" {
		log.Info("REDIS_URL not configured; upload idempotency keys kept in memory")
		return idempotency.NewMemoryStore(cfg.GetIdempotencyTTL()), func() {}
	}

	client, err := idempotency.NewRedisClient(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		log.Error("failed to initialize redis idempotency store; falling back to memory", "error", err)
		return idempotency.NewMemoryStore(cfg.GetIdempotencyTTL()), func() {}
	}

	return idempotency.NewRedisStore(client, cfg.GetIdempotencyTTL()), func() {
		_ = client.Close()
	}
}

func initCleanupScheduler(cfg config.SchedulerConfig, log *logger.Logger) (scheduler.CleanupScheduler, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; orphaned document cleanup disabled")
		return nil, nil
	}

	cleanupClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize cleanup scheduler client", "error", err)
		return nil, nil
	}

	return cleanupClient, func() {
		_ = cleanupClient.Close()
	}
}

func connectPostgres(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	if err := retry.Do(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		return nil, err
	}
	log.Info("database connection established")

	if err := retry.Do(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, pool)
	}); err != nil {
		pool.Close()
		return nil, err
	}
	log.Info("database migrations complete")

	return pool, nil
}
