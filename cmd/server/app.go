package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/opsgrove/helpdesk-api/internal/config"
	"github.com/opsgrove/helpdesk-api/internal/platform/logger"
	"github.com/opsgrove/helpdesk-api/internal/platform/notify"
	"github.com/opsgrove/helpdesk-api/internal/platform/postgres"
	"github.com/opsgrove/helpdesk-api/internal/schedule"
	"github.com/opsgrove/helpdesk-api/internal/store"
)

// shutdownTimeout bounds how long in-flight HTTP requests may run after a
// termination signal.
const shutdownTimeout = 10 * time.Second

// application holds the wired dependencies of a running server process.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	ticketStore   store.TicketStore
	templateStore store.TemplateStore
	generationLog store.GenerationLogStore

	evaluator    *schedule.Evaluator
	materializer *schedule.Materializer
	scheduler    *schedule.Scheduler
}

// newApplication loads configuration and wires every component: logging,
// database (with migrations applied), stores, and the recurring task engine.
func newApplication() (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	log.Info("configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"scheduler_enabled", cfg.Scheduler.Enabled,
		"scheduler_timezone", cfg.Scheduler.Timezone)

	db, err := openDatabase(cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	if err := runMigrations(db, log); err != nil {
		closeQuietly(db, log)
		return nil, err
	}

	loc, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		closeQuietly(db, log)
		return nil, fmt.Errorf("failed to load scheduler timezone %q: %w", cfg.Scheduler.Timezone, err)
	}

	ticketStore := postgres.NewTicketStore(db)
	templateStore := postgres.NewTemplateStore(db)
	generationLog := postgres.NewGenerationLogStore(db)

	notifier, err := notify.NewLogNotifier(log)
	if err != nil {
		closeQuietly(db, log)
		return nil, fmt.Errorf("failed to create notifier: %w", err)
	}

	evaluator := schedule.NewEvaluator(loc)

	materializer, err := schedule.NewMaterializer(
		ticketStore,
		templateStore,
		generationLog,
		evaluator,
		notifier,
		log,
	)
	if err != nil {
		closeQuietly(db, log)
		return nil, fmt.Errorf("failed to create materializer: %w", err)
	}

	scheduler, err := schedule.NewScheduler(templateStore, materializer, schedule.Config{
		Enabled:      cfg.Scheduler.Enabled,
		TickInterval: cfg.Scheduler.TickInterval,
	}, log)
	if err != nil {
		closeQuietly(db, log)
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &application{
		config:        cfg,
		logger:        log,
		db:            db,
		ticketStore:   ticketStore,
		templateStore: templateStore,
		generationLog: generationLog,
		evaluator:     evaluator,
		materializer:  materializer,
		scheduler:     scheduler,
	}, nil
}

// Run starts the scheduler and the HTTP server, then blocks until ctx is
// cancelled (typically by SIGINT/SIGTERM) or the server fails. Shutdown
// order matters: stop accepting requests first, then stop the scheduler so
// an in-flight tick finishes before the database closes.
func (app *application) Run(ctx context.Context) error {
	app.scheduler.Start()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           app.setupRouter(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		app.scheduler.Stop()
		return err
	case <-ctx.Done():
		app.logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("HTTP server shutdown failed", "error", err)
	}

	app.scheduler.Stop()
	return nil
}

// Close releases the application's resources. Safe to call after a failed
// or completed Run.
func (app *application) Close() {
	if app.db != nil {
		closeQuietly(app.db, app.logger)
	}
}

func closeQuietly(db *sql.DB, log *slog.Logger) {
	if err := db.Close(); err != nil {
		log.Error("failed to close database", "error", err)
	}
}
