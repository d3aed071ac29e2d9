// Package app wires configuration, storage, notification channels and
// services into one engine shared by the binaries.
package app

import (
	"context"
	"fmt"
	"time"

	"rental-contracts-backend/internal/config"
	"rental-contracts-backend/internal/logger"
	"rental-contracts-backend/internal/notify"
	"rental-contracts-backend/internal/repository"
	"rental-contracts-backend/internal/repository/boltstore"
	"rental-contracts-backend/internal/repository/postgres"
	"rental-contracts-backend/internal/service"
)

// App holds every engine service over a single store.
type App struct {
	Config     *config.Config
	Repos      *repository.Repositories
	Sequences  service.SequenceService
	Templates  service.TemplateService
	Signatures service.SignatureService
	Invoices   service.InvoiceService
	Outbox     service.OutboxService
	Fees       service.FeeConfigService

	closers []func() error
}

// New opens the configured store and builds the services on top of it.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	repos, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}

	dispatcher, err := newDispatcher(ctx, cfg.Notify)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.build(repos, dispatcher, newRenderer(cfg.Renderer))

	if _, err := a.Fees.Refresh(ctx); err != nil {
		logger.Warn("Using configured service fee", "error", err, "percent", cfg.Fees.DefaultServicePercent)
	}
	return a, nil
}

// NewWithRepositories builds the services over an already open store.
func NewWithRepositories(cfg *config.Config, repos *repository.Repositories, dispatcher service.NotificationDispatcher, renderer service.DocumentRenderer) *App {
	a := &App{Config: cfg}
	a.build(repos, dispatcher, renderer)
	return a
}

func (a *App) build(repos *repository.Repositories, dispatcher service.NotificationDispatcher, renderer service.DocumentRenderer) {
	cfg := a.Config
	a.Repos = repos
	a.Sequences = service.NewSequenceService(repos.Sequences, cfg.Sequences)
	a.Templates = service.NewTemplateService(repos.Templates, repos.Properties, cfg.Templates.DefaultTemplateID)
	a.Fees = service.NewFeeConfigService(repos.FeeSettings, cfg.DefaultServicePercent())
	a.Signatures = service.NewSignatureService(repos, a.Sequences, a.Templates, service.NewPropertyStatusSync(repos.Properties), dispatcher, cfg)
	a.Invoices = service.NewInvoiceService(repos, a.Sequences, a.Fees, dispatcher, cfg)
	a.Outbox = service.NewOutboxService(repos, a.Invoices, dispatcher, renderer, cfg.Outbox)
}

func (a *App) openStore(ctx context.Context) (*repository.Repositories, error) {
	switch a.Config.Storage.Driver {
	case "postgres":
		logger.Info("Connecting to database...", "host", a.Config.Database.Host, "port", a.Config.Database.Port, "database", a.Config.Database.Database)
		db, err := postgres.Open(ctx, a.Config.GetDatabaseConnectionString())
		if err != nil {
			logger.Error("Failed to connect to database", "error", err)
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		logger.Info("Database connection established")
		return postgres.NewStore(db).Repositories(), nil

	case "bolt":
		logger.Info("Opening bolt store", "path", a.Config.Storage.BoltPath)
		store, err := boltstore.Open(a.Config.Storage.BoltPath)
		if err != nil {
			logger.Error("Failed to open bolt store", "error", err, "path", a.Config.Storage.BoltPath)
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		return store.Repositories(), nil
	}
	return nil, fmt.Errorf("unsupported storage driver %q", a.Config.Storage.Driver)
}

// Close releases the store.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}

func newDispatcher(ctx context.Context, cfg config.NotifyConfig) (*notify.Dispatcher, error) {
	var channels []notify.Channel
	if cfg.SendGridAPIKey != "" {
		logger.Info("Email notifications enabled", "from", cfg.FromEmail)
		channels = append(channels, notify.NewEmailChannel(cfg.SendGridAPIKey, cfg.FromEmail, cfg.FromName))
	}
	if cfg.FirebaseCredentialsFile != "" {
		push, err := notify.NewPushChannel(ctx, cfg.FirebaseCredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize push notifications: %w", err)
		}
		logger.Info("Push notifications enabled")
		channels = append(channels, push)
	}
	if len(channels) == 0 {
		logger.Info("No notification channels configured, events are only logged")
		channels = append(channels, notify.LogChannel{})
	}
	return notify.NewDispatcher(channels...), nil
}

func newRenderer(cfg config.RendererConfig) service.DocumentRenderer {
	if cfg.URL == "" {
		return notify.NoopRenderer{}
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return notify.NewHTTPRenderer(cfg.URL, timeout)
}
