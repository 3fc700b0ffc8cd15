// Package app wires the ledger together. An App is built once per process
// and handed to whatever drives it; nothing in the ledger looks up shared
// state on its own.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"ledger/internal/amqp"
	"ledger/internal/cache"
	"ledger/internal/config"
	"ledger/internal/log"
	"ledger/internal/services"
	"ledger/internal/store"
	"ledger/internal/transfer"
)

// App owns the stores and the facades built on top of them.
type App struct {
	Accounts   *services.AccountService
	Categories *services.CategoryService
	Operations *services.OperationService
	Analytics  *services.AnalyticsService

	accounts   *cache.AccountProxy
	categories *store.CategoryStore
	operations *store.OperationStore
	applier    *transfer.Applier
	events     *amqp.Client

	cfg     *config.Config
	logger  *slog.Logger
	now     func() time.Time
	cleanup []func() error
}

// Option adjusts how New builds the App.
type Option func(*buildOptions)

type buildOptions struct {
	publisher services.EventPublisher
	now       func() time.Time
}

// WithPublisher replaces the AMQP publisher derived from the config.
func WithPublisher(p services.EventPublisher) Option {
	return func(o *buildOptions) { o.publisher = p }
}

// WithClock fixes the date used for opening-balance operations.
func WithClock(now func() time.Time) Option {
	return func(o *buildOptions) { o.now = now }
}

// New builds stores, the account cache and the facades, in that order, and
// seeds demo data when the config asks for it.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app config is nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	var bo buildOptions
	for _, opt := range opts {
		opt(&bo)
	}

	a := &App{
		categories: store.NewCategoryStore(),
		operations: store.NewOperationStore(),
		cfg:        cfg,
		logger:     logger.With(log.FieldComponent, log.ComponentApp),
		now:        time.Now,
	}
	a.accounts = cache.NewAccountProxy(store.NewAccountStore(), logger)

	publisher := bo.publisher
	if publisher == nil && cfg.EventsEnabled() {
		client, err := amqp.NewClient(amqp.Config{
			URL:        cfg.AMQPURL,
			Exchange:   cfg.AMQPExchange,
			RoutingKey: cfg.AMQPRoutingKey,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("create event publisher: %w", err)
		}
		a.events = client
		a.cleanup = append(a.cleanup, client.Close)
		publisher = client
		a.logger.Info("Ledger events enabled",
			"exchange", cfg.AMQPExchange,
			"routing_key", cfg.AMQPRoutingKey)
	}

	svcOpts := []services.Option{services.WithLogger(logger)}
	if publisher != nil {
		svcOpts = append(svcOpts, services.WithEvents(publisher))
	}
	if bo.now != nil {
		a.now = bo.now
		svcOpts = append(svcOpts, services.WithClock(bo.now))
	}

	a.Accounts = services.NewAccountService(a.accounts, a.operations, svcOpts...)
	a.Categories = services.NewCategoryService(a.categories, a.operations, svcOpts...)
	a.Operations = services.NewOperationService(a.accounts, a.categories, a.operations, svcOpts...)
	a.Analytics = services.NewAnalyticsService(a.categories, a.operations, svcOpts...)

	var importEvents transfer.EventPublisher
	if publisher != nil {
		importEvents = publisher
	}
	a.applier = transfer.NewApplier(a.accounts, a.categories, a.operations, importEvents, logger)

	if cfg.SeedDemo {
		if err := a.SeedDemo(ctx); err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("seed demo data: %w", err)
		}
	}
	return a, nil
}

// Close releases external resources. It is safe to call more than once.
func (a *App) Close() error {
	var errs []error
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		if err := a.cleanup[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.cleanup = nil
	return errors.Join(errs...)
}

// Snapshot copies the current contents of every store.
func (a *App) Snapshot() transfer.Snapshot {
	return transfer.Snapshot{
		Accounts:   a.accounts.All(),
		Categories: a.categories.All(),
		Operations: a.operations.All(),
	}
}

// Import reads path and merges it into the stores.
func (a *App) Import(ctx context.Context, path string, f transfer.Format) (transfer.Report, error) {
	start := time.Now()
	res, err := transfer.Import(path, f)
	if err != nil {
		return transfer.Report{}, err
	}
	rep, err := a.applier.Apply(ctx, res)
	fields := log.NewFields().
		WithOperation(log.OpImport).
		WithTransfer(f.String(), path).
		WithError(err)
	fields[log.FieldRunID] = rep.RunID
	fields[log.FieldDuration] = time.Since(start).Milliseconds()
	a.logger.InfoContext(ctx, "Import finished", fields.ToSlice()...)
	return rep, err
}

// Export writes the current snapshot to path.
func (a *App) Export(ctx context.Context, path string, f transfer.Format) error {
	if err := transfer.ExportFile(path, f, a.Snapshot()); err != nil {
		return err
	}
	a.logger.InfoContext(ctx, "Export written",
		log.NewFields().WithOperation(log.OpExport).WithTransfer(f.String(), path).ToSlice()...)
	return nil
}

// ExportAll writes the snapshot in every format into the configured export directory.
func (a *App) ExportAll(ctx context.Context, stem string) ([]string, error) {
	paths, err := transfer.ExportAll(ctx, a.cfg.ExportDir, stem, a.Snapshot())
	if err != nil {
		return nil, err
	}
	a.logger.InfoContext(ctx, "Export written", log.FieldPath, filepath.Join(a.cfg.ExportDir, stem+".*"), "files", len(paths))
	return paths, nil
}

// DefaultFormat is the configured format for commands that take none.
func (a *App) DefaultFormat() transfer.Format {
	f, err := transfer.ParseFormat(a.cfg.DefaultFormat)
	if err != nil {
		return transfer.JSON
	}
	return f
}

// ExportPath places name inside the configured export directory unless it
// is already absolute.
func (a *App) ExportPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(a.cfg.ExportDir, name)
}

// CacheStats exposes the account cache counters.
func (a *App) CacheStats() cache.Stats {
	return a.accounts.Stats()
}

// Events returns the AMQP client, or nil when events are disabled.
func (a *App) Events() *amqp.Client {
	return a.events
}
