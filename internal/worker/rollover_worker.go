// Package worker runs the background side of pay period rollovers: a
// periodic sweep over every profile and, when a broker is configured, a
// consumer for rollover-due messages published by the read path.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"paycycle/internal/amqp"
)

// Processor applies due rollovers.
type Processor interface {
	ProcessDue(ctx context.Context, now time.Time) (int, error)
	HandleRolloverDue(ctx context.Context, msg *amqp.RolloverDueMessage) error
}

// Consumer delivers rollover-due messages until ctx is cancelled.
type Consumer interface {
	ConsumeRolloverDue(ctx context.Context, handler func(context.Context, *amqp.RolloverDueMessage) error) error
}

// RolloverWorker drives a Processor from a ticker and an optional Consumer.
type RolloverWorker struct {
	processor Processor
	consumer  Consumer
	interval  time.Duration
	now       func() time.Time
}

// NewRolloverWorker creates a worker. consumer may be nil, in which case
// only the periodic sweep runs.
func NewRolloverWorker(processor Processor, consumer Consumer, interval time.Duration) *RolloverWorker {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &RolloverWorker{
		processor: processor,
		consumer:  consumer,
		interval:  interval,
		now:       time.Now,
	}
}

// Run sweeps once at startup, then on every tick, and consumes messages
// in parallel. It returns when ctx is cancelled or the consumer fails.
func (w *RolloverWorker) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.InfoContext(gctx, "Running initial rollover sweep...")
		w.Sweep(gctx)

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				w.Sweep(gctx)
			}
		}
	})

	if w.consumer != nil {
		g.Go(func() error {
			err := w.consumer.ConsumeRolloverDue(gctx, w.processor.HandleRolloverDue)
			if err != nil && !errors.Is(err, context.Canceled) {
				slog.ErrorContext(gctx, "Rollover message consumption failed", "error", err)
				return err
			}
			return nil
		})
	} else {
		slog.InfoContext(ctx, "Skipping AMQP message consumption - no broker configured")
	}

	return g.Wait()
}

// Sweep applies every due rollover once. Errors are logged so the next
// tick retries.
func (w *RolloverWorker) Sweep(ctx context.Context) int {
	now := w.now()
	count, err := w.processor.ProcessDue(ctx, now)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			slog.ErrorContext(ctx, "Rollover sweep failed", "error", err)
		}
		return count
	}
	slog.InfoContext(ctx, "Rollover sweep complete",
		"rollovers_applied", count,
		"next_check", now.Add(w.interval).Format("15:04:05"))
	return count
}
