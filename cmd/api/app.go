package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-sla/internal/auth"
	"github.com/spec-kit/helpdesk-sla/internal/config"
	"github.com/spec-kit/helpdesk-sla/internal/events"
	"github.com/spec-kit/helpdesk-sla/internal/lifecycle"
	"github.com/spec-kit/helpdesk-sla/internal/observability"
	"github.com/spec-kit/helpdesk-sla/internal/persistence"
	"github.com/spec-kit/helpdesk-sla/internal/repository"
	"github.com/spec-kit/helpdesk-sla/internal/repository/memory"
	"github.com/spec-kit/helpdesk-sla/internal/service"
	"github.com/spec-kit/helpdesk-sla/internal/worker"
)

// application holds the wired components shared by the subcommands.
type application struct {
	cfg        *config.Config
	logger     *zap.Logger
	pg         *persistence.Postgres
	redis      *persistence.Redis
	store      repository.Store
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	tokens     *auth.TokenManager
	tickets    *service.TicketService
	sla        *service.SLAService
	categories *service.CategoryService
}

func newApplication(ctx context.Context) (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.Pool, cfg.Postgres.MigrationsDir, logger); err != nil {
			pg.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	var store repository.Store
	if pg.Enabled() {
		store = repository.NewPostgresStore(pg.Pool)
	} else {
		store = memory.NewStore()
	}

	policy, err := lifecycle.PolicyByName(cfg.SLA.TransitionPolicy)
	if err != nil {
		pg.Close()
		return nil, err
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	dispatcher := events.NewInMemoryDispatcher()
	var publisher service.EventPublisher
	if redis.Enabled() {
		publisher = redis
	}
	worker.StartNotificationWorker(dispatcher, publisher, logger, cfg.Notification)

	return &application{
		cfg:        cfg,
		logger:     logger,
		pg:         pg,
		redis:      redis,
		store:      store,
		dispatcher: dispatcher,
		metrics:    observability.NewMetrics(),
		tokens:     auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		tickets: service.NewTicketService(service.TicketDependencies{
			Store:      store,
			Policy:     policy,
			Dispatcher: dispatcher,
			Logger:     logger,
		}),
		sla: service.NewSLAService(service.SLADependencies{
			Store:       store,
			Dispatcher:  dispatcher,
			Logger:      logger,
			ReportLimit: cfg.SLA.ReportLimit,
		}),
		categories: service.NewCategoryService(store, logger, nil),
	}, nil
}

func (a *application) Close() {
	a.redis.Close()
	a.pg.Close()
	_ = a.logger.Sync()
}
