package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lead_engine_backend/internal/changes"
	"lead_engine_backend/internal/chat"
	"lead_engine_backend/internal/events"
	apphttp "lead_engine_backend/internal/http"
	"lead_engine_backend/internal/http/router"
	"lead_engine_backend/internal/leads"
	leadsvc "lead_engine_backend/internal/leads/service"
	"lead_engine_backend/internal/meetings"
	"lead_engine_backend/internal/notification"
	"lead_engine_backend/internal/queue"
	"lead_engine_backend/internal/whatsapp"
	"lead_engine_backend/platform/config"
	"lead_engine_backend/platform/db"
	"lead_engine_backend/platform/logger"
	"lead_engine_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules
	// ========================================================================

	changesModule := changes.NewModule(pool, log)

	leadsModule := leads.NewModule(pool, changesModule.Tracker(), eventBus, val, log, leadsvc.Config{
		PhoneCountryCode: cfg.PhoneCountryCode,
		PersistRetries:   cfg.PersistRetryBudget,
		PersistDelay:     cfg.PersistRetryDelay,
	})

	var replySender chat.ReplySender
	if waClient := whatsapp.NewClient(cfg, cfg, log); waClient != nil {
		replySender = waClient
	} else {
		log.Warn("WHATSAPP_URL not configured; keyword auto-replies disabled")
	}

	chatModule := chat.NewModule(pool, leadsModule.Service(), changesModule.Tracker(), replySender, eventBus, cfg, log, cfg.PersistRetryBudget, cfg.PersistRetryDelay)
	meetingsModule := meetings.NewModule(leadsModule.Service(), cfg, val, log)
	queueModule := queue.NewModule(pool, log)

	// Notification module subscribes to events published by the leads and
	// chat services; it must be constructed before traffic arrives.
	notificationModule := notification.NewModule(pool, eventBus, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			leadsModule,
			chatModule,
			meetingsModule,
			queueModule,
			changesModule,
			notificationModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
