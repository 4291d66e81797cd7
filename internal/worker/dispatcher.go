package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DueDispatcher delivers reminders that have come due.
type DueDispatcher interface {
	DispatchDue(ctx context.Context, now time.Time) (int, error)
}

// Dispatcher polls for due reminders on a fixed interval. An interval of zero
// disables polling entirely, leaving schedule advancement purely client-driven.
type Dispatcher struct {
	service  DueDispatcher
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(service DueDispatcher, interval time.Duration, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		service:  service,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock overrides the internal clock, used in tests.
func (d *Dispatcher) WithClock(clock func() time.Time) {
	if clock != nil {
		d.now = clock
	}
}

// Run polls until the context is cancelled. It blocks; run it in a goroutine.
func (d *Dispatcher) Run(ctx context.Context) {
	if d.interval <= 0 {
		d.logger.Info("reminder dispatcher disabled")
		return
	}

	d.logger.Info("reminder dispatcher started", zap.Duration("interval", d.interval))

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("reminder dispatcher stopped")
			return
		case <-ticker.C:
			d.tick(ctx)
		}
	}
}

func (d *Dispatcher) tick(ctx context.Context) {
	now := d.now().UTC()

	dispatched, err := d.service.DispatchDue(ctx, now)
	if err != nil {
		d.logger.Error("dispatch pass failed", zap.Error(err))
		return
	}

	if dispatched > 0 {
		d.logger.Info("reminders dispatched", zap.Int("count", dispatched))
	}
}
