// Package main is the startask entry point: it loads configuration, runs
// database migrations, wires the processing pipeline, and serves the
// operator API while the scheduler loop runs in the background.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	_ "github.com/jackc/pgx/v5/stdlib"

	"startask/internal/api"
	"startask/internal/api/middleware"
	"startask/internal/config"
	"startask/internal/extraction"
	"startask/internal/pipeline"
	"startask/internal/platform/gemini"
	"startask/internal/platform/gmail"
	"startask/internal/platform/logger"
	"startask/internal/platform/openai"
	"startask/internal/platform/postgres"
	"startask/internal/platform/todoist"
	"startask/internal/scheduler"
	"startask/internal/service/auth"
	"startask/internal/store"
	"startask/internal/taxonomy"
)

const (
	defaultLockFile = "/tmp/startask.lock"

	dbPingTimeout   = 10 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	migrateCmd := flag.String("migrate", "", "run a migration command (up, down, status) and exit")
	lockFile := flag.String("lock-file", defaultLockFile, "path of the single-instance lock file")
	flag.Parse()

	if err := run(*migrateCmd, *lockFile); err != nil {
		slog.Error("startask failed", "error", err)
		os.Exit(1)
	}
}

func run(migrateCmd, lockFile string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.Setup(cfg.Server.LogLevel)
	slog.SetDefault(log)

	db, err := openDatabase(cfg.Database.URL)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	// A bare migration command runs outside the instance lock so an operator
	// can inspect status while the server holds it.
	if migrateCmd != "" {
		return postgres.Migrate(db, migrateCmd)
	}

	// One scheduler per store: the cycle's sequential-processing contract
	// assumes a single logical worker.
	lock := flock.New(lockFile)
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire instance lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another startask instance holds %s", lockFile)
	}
	defer func() { _ = lock.Unlock() }()

	if err := postgres.Migrate(db, "up"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched, router, err := buildApplication(ctx, cfg, db, log)
	if err != nil {
		return err
	}

	return serve(ctx, cfg, log, sched, router)
}

// openDatabase opens and pings the connection pool.
func openDatabase(url string) (*sql.DB, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbPingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// buildApplication wires stores, pipeline, scheduler, and router.
func buildApplication(
	ctx context.Context,
	cfg *config.Config,
	db *sql.DB,
	log *slog.Logger,
) (*scheduler.Scheduler, http.Handler, error) {
	registry := taxonomy.NewDefaultRegistry()
	normalizer, err := taxonomy.NewNormalizer(registry, taxonomy.DefaultDurationID, taxonomy.DefaultContextID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create normalizer: %w", err)
	}

	processedStore := postgres.NewProcessedStore(db, log)
	reviewStore := postgres.NewReviewStore(db, log)
	errorStore := postgres.NewErrorStore(db, log)
	stateStore := postgres.NewStateStore(db, log)

	source, err := gmail.NewSource(stateStore, cfg.Mail.ReauthURL, cfg.Mail.ProcessedLabelID, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create mail source: %w", err)
	}

	extractor, err := buildExtractor(ctx, cfg.Extraction, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create extractor: %w", err)
	}

	gateway, err := extraction.NewGateway(extractor, normalizer, extraction.GatewayConfig{
		Timeout:          time.Duration(cfg.Extraction.TimeoutSeconds) * time.Second,
		MaxBodyRunes:     cfg.Extraction.MaxBodyRunes,
		ForbiddenEnvVars: cfg.Extraction.ForbiddenList(),
	}, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create extraction gateway: %w", err)
	}

	trackerClient, err := todoist.NewClient(cfg.Tracker.APIToken, log,
		todoist.WithBaseURL(cfg.Tracker.BaseURL))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create tracker client: %w", err)
	}

	committer, err := pipeline.NewCommitter(trackerClient, source, processedStore, registry, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create committer: %w", err)
	}

	cycle, err := pipeline.NewCycle(
		source, gateway, normalizer, committer,
		processedStore, reviewStore, errorStore, stateStore,
		pipeline.CycleConfig{MaxResults: cfg.Scheduler.MaxResults}, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create cycle: %w", err)
	}

	sched, err := scheduler.New(cycle, stateStore, scheduler.Config{
		Interval:     time.Duration(cfg.Scheduler.IntervalSeconds) * time.Second,
		PollInterval: time.Duration(cfg.Scheduler.PollIntervalSeconds) * time.Second,
		WarmupDelay:  time.Duration(cfg.Scheduler.WarmupDelaySeconds) * time.Second,
	}, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	reviewService, err := pipeline.NewReviewService(
		db, reviewStore,
		func(dbtx store.DBTX) store.ProcessedStore { return postgres.NewProcessedStore(dbtx, log) },
		func(dbtx store.DBTX) store.ReviewStore { return postgres.NewReviewStore(dbtx, log) },
		trackerClient, registry, normalizer, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create review service: %w", err)
	}

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create jwt service: %w", err)
	}

	router := api.NewRouter(api.RouterDeps{
		Status:    api.NewStatusHandler(stateStore, reviewStore, processedStore, errorStore, log),
		Reviews:   api.NewReviewHandler(reviewStore, reviewService, log),
		Scheduler: api.NewSchedulerHandler(sched, log),
		Auth:      middleware.NewAuthMiddleware(jwtService),
		Logger:    log,
	})

	return sched, router, nil
}

// buildExtractor selects the configured LLM provider.
func buildExtractor(ctx context.Context, cfg config.ExtractionConfig, log *slog.Logger) (extraction.Extractor, error) {
	switch cfg.Provider {
	case "gemini":
		return gemini.NewExtractor(ctx, cfg, log)
	case "openai":
		return openai.NewExtractor(cfg, log)
	default:
		return nil, fmt.Errorf("unknown extraction provider %q", cfg.Provider)
	}
}

// serve runs the scheduler loop and the HTTP server until a shutdown signal
// arrives, then drains both.
func serve(
	ctx context.Context,
	cfg *config.Config,
	log *slog.Logger,
	sched *scheduler.Scheduler,
	router http.Handler,
) error {
	schedulerDone := make(chan error, 1)
	go func() {
		schedulerDone <- sched.Run(ctx)
	}()

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("starting server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", "error", err)
	}

	// The scheduler loop exits once ctx is canceled; an in-flight cycle
	// finishes with whatever its own context allows.
	if err := <-schedulerDone; err != nil && !errors.Is(err, context.Canceled) {
		log.Error("scheduler stopped with error", "error", err)
	}

	log.Info("shutdown complete")
	return nil
}
