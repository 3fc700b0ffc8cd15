// Package services provides the ledger facades.
//
// The facades enforce the rules that span entity kinds (referential
// integrity, balance derivation, operation/category type matching) on top of
// the stores. They hold no state of their own beyond the store references.
package services

import (
	"context"
	"log/slog"
	"time"

	"ledger/internal/core"
	"ledger/internal/log"
)

// EventPublisher receives a LedgerEvent after each successful mutation.
type EventPublisher interface {
	Publish(ctx context.Context, e core.LedgerEvent) error
}

// Option configures a service.
type Option func(*options)

type options struct {
	logger *slog.Logger
	events EventPublisher
	now    func() time.Time
}

// WithLogger sets the logger; slog.Default() is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithEvents enables event publishing.
func WithEvents(p EventPublisher) Option {
	return func(o *options) { o.events = p }
}

// WithClock overrides time.Now, used to date opening-balance operations.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(component string, opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	o.logger = o.logger.With(log.FieldComponent, component)
	return o
}

// publish never fails the caller: the mutation is already applied.
func (o options) publish(ctx context.Context, e core.LedgerEvent) {
	if o.events == nil {
		return
	}
	if err := o.events.Publish(ctx, e); err != nil {
		o.logger.ErrorContext(ctx, "Failed to publish ledger event",
			log.FieldEntityKind, e.Kind, log.FieldEntityID, e.EntityID, log.FieldError, err)
	}
}
