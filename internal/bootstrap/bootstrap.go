// Package bootstrap assembles repositories and services from configuration.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/peterfiasco/easylawBe-sub000/internal/auth"
	"github.com/peterfiasco/easylawBe-sub000/internal/config"
	"github.com/peterfiasco/easylawBe-sub000/internal/events"
	"github.com/peterfiasco/easylawBe-sub000/internal/notify"
	"github.com/peterfiasco/easylawBe-sub000/internal/observability"
	"github.com/peterfiasco/easylawBe-sub000/internal/persistence"
	"github.com/peterfiasco/easylawBe-sub000/internal/pricing"
	"github.com/peterfiasco/easylawBe-sub000/internal/refno"
	"github.com/peterfiasco/easylawBe-sub000/internal/repository"
	"github.com/peterfiasco/easylawBe-sub000/internal/repository/memory"
	"github.com/peterfiasco/easylawBe-sub000/internal/service"
	"github.com/peterfiasco/easylawBe-sub000/internal/storage"
	"github.com/peterfiasco/easylawBe-sub000/internal/worker"
)

// Container holds the wired application graph.
type Container struct {
	Config   *config.Config
	Logger   *zap.Logger
	Registry *prometheus.Registry
	Metrics  *observability.Metrics

	Postgres *persistence.Postgres
	Redis    *persistence.Redis

	Requests      *service.RequestService
	Documents     *service.DocumentService
	Pricing       *service.PricingService
	Notifications *service.NotificationService
	Tokens        *auth.TokenManager

	// Worker is nil when notifications are delivered synchronously.
	Worker *worker.NotificationWorker
}

// Build connects backing stores and wires services. Postgres falls back to the
// in-memory store when no DSN is configured.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(registry)

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.Pool, logger); err != nil {
			pg.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	rdb := persistence.NewRedis(ctx, cfg.Redis, logger)

	var (
		requestRepo  repository.ServiceRequestRepository
		noteRepo     repository.NoteRepository
		documentRepo repository.DocumentRepository
		pricingRepo  repository.PricingRepository
	)
	if pg.Enabled() {
		requestRepo = repository.NewServiceRequestRepository(pg.Pool)
		noteRepo = repository.NewNoteRepository(pg.Pool)
		documentRepo = repository.NewDocumentRepository(pg.Pool)
		pricingRepo = repository.NewPricingRepository(pg.Pool)
	} else {
		store := memory.NewStore()
		requestRepo = store.Requests()
		noteRepo = store.Notes()
		documentRepo = store.Documents()
		pricingRepo = store.Pricing()
	}

	cache := pricing.NewCachedLookup(pricingRepo, rdb.Client, cfg.Pricing.CacheTTL, logger)
	resolver := pricing.NewResolver(cache, metrics)

	docDeps := service.DocumentDependencies{
		DocumentRepo: documentRepo,
		MaxBytes:     cfg.Documents.MaxBytes,
		Logger:       logger,
		Metrics:      metrics,
	}
	if cfg.Storage.Enabled() {
		store, err := storage.NewMinIOStore(ctx, cfg.Storage, logger)
		if err != nil {
			rdb.Close()
			pg.Close()
			return nil, fmt.Errorf("connect object storage: %w", err)
		}
		docDeps.Store = store
	}
	documents := service.NewDocumentService(docDeps)

	var notifier notify.Notifier = notify.NewLogNotifier(logger)
	if cfg.Notification.WebhookURL != "" {
		notifier = notify.NewWebhookNotifier(notify.WebhookOptions{
			URL:        cfg.Notification.WebhookURL,
			Secret:     cfg.Notification.WebhookSecret,
			EmailFrom:  cfg.Notification.EmailFrom,
			Timeout:    cfg.Notification.Timeout,
			RetryCount: 2,
		}, logger)
	}
	notifications := service.NewNotificationService(notifier, logger, metrics, cfg.Notification)

	dispatcher := events.NewInMemoryDispatcher()
	var pool *worker.NotificationWorker
	if cfg.Notification.Workers > 0 {
		pool = worker.NewNotificationWorker(notifications.Handle, cfg.Notification.Workers, cfg.Notification.QueueSize, logger)
		pool.Subscribe(dispatcher, events.AllEventTypes()...)
	} else {
		notifications.RegisterHandlers(dispatcher)
	}

	requests := service.NewRequestService(service.RequestDependencies{
		RequestRepo:          requestRepo,
		NoteRepo:             noteRepo,
		Documents:            documents,
		Pricing:              resolver,
		References:           refno.New(),
		Dispatcher:           dispatcher,
		Logger:               logger,
		Metrics:              metrics,
		MaxReferenceAttempts: cfg.Requests.ReferenceMaxAttempts,
	})
	pricingService := service.NewPricingService(service.PricingDependencies{
		PricingRepo: pricingRepo,
		Resolver:    resolver,
		Cache:       cache,
		Logger:      logger,
	})

	return &Container{
		Config:        cfg,
		Logger:        logger,
		Registry:      registry,
		Metrics:       metrics,
		Postgres:      pg,
		Redis:         rdb,
		Requests:      requests,
		Documents:     documents,
		Pricing:       pricingService,
		Notifications: notifications,
		Tokens:        auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		Worker:        pool,
	}, nil
}

// Close releases connections. The worker, if any, is drained first.
func (c *Container) Close() {
	if c.Worker != nil {
		c.Worker.Stop()
	}
	c.Redis.Close()
	c.Postgres.Close()
}
