package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"paycycle/internal/amqp"
	"paycycle/internal/calendar"
	"paycycle/internal/core"
	"paycycle/internal/payperiod"
	"paycycle/internal/storage"
	"paycycle/internal/summary"
)

// RolloverProcessor advances stale pay anchors and carries the unspent
// balance of the period that ended into the next one. It is the only
// component that mutates the anchor.
type RolloverProcessor struct {
	store storage.Store
	now   func() time.Time
}

func NewRolloverProcessor(store storage.Store) *RolloverProcessor {
	return &RolloverProcessor{store: store, now: time.Now}
}

// Apply advances the user's anchor when it is still observed and stale.
// observed may be zero to skip the staleness check against a message.
// Returns whether an advance was stored. Replays are no-ops.
func (p *RolloverProcessor) Apply(ctx context.Context, userID string, observed core.Date, now time.Time) (bool, error) {
	profile, err := p.store.GetProfile(ctx, userID)
	if errors.Is(err, core.ErrNotFound) {
		slog.WarnContext(ctx, "Rollover for unknown user skipped", "user_id", userID)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get profile: %w", err)
	}
	if !profile.HasPayCycle() {
		return false, nil
	}

	anchor := *profile.NextPayDate
	if !observed.IsZero() && !observed.Equal(anchor) {
		slog.InfoContext(ctx, "Rollover already applied",
			"user_id", userID,
			"observed", observed.String(),
			"anchor", anchor.String())
		return false, nil
	}
	if !payperiod.ShouldTransition(anchor, profile.Timezone, now) {
		return false, nil
	}

	next, steps, err := payperiod.AdvanceAnchor(anchor, profile.IncomeFrequency, profile.Timezone, now)
	if err != nil {
		return false, err
	}
	last, _, err := payperiod.LastPassedAnchor(anchor, profile.IncomeFrequency, profile.Timezone, now)
	if err != nil {
		return false, err
	}

	// only the most recently completed period is carried
	carried, err := p.carriedBalance(ctx, profile, last)
	if err != nil {
		return false, err
	}

	err = p.store.AdvancePayPeriod(ctx, userID, anchor, next, carried)
	if errors.Is(err, core.ErrAnchorMoved) {
		slog.InfoContext(ctx, "Rollover raced with another worker", "user_id", userID, "anchor", anchor.String())
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("advance pay period: %w", err)
	}

	slog.InfoContext(ctx, "Rollover applied",
		"user_id", userID,
		"from", anchor.String(),
		"to", next.String(),
		"periods", steps,
		"carried", carried.StringFixed(2))
	return true, nil
}

// carriedBalance is the non-negative safe-to-spend left in the period that
// ended at anchor.
func (p *RolloverProcessor) carriedBalance(ctx context.Context, profile core.UserFinancialProfile, anchor core.Date) (decimal.Decimal, error) {
	justBefore := calendar.StartOfDay(anchor, profile.Timezone).Add(-time.Nanosecond)
	b, err := payperiod.CurrentPeriod(anchor, profile.IncomeFrequency, profile.Timezone, justBefore)
	if err != nil {
		return decimal.Zero, err
	}

	var (
		txs   []core.TransactionRecord
		goals []core.Goal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, err = p.store.ListTransactions(gctx, profile.UserID, b.Start, b.End)
		if err != nil {
			return fmt.Errorf("list transactions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		goals, err = p.store.ListGoals(gctx, profile.UserID)
		if err != nil {
			return fmt.Errorf("list goals: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return decimal.Zero, err
	}

	left := summary.Compute(profile, b, txs, goals).LeftToSpendSafe
	return decimal.Max(left, decimal.Zero), nil
}

// HandleRolloverDue is the AMQP consumer callback.
func (p *RolloverProcessor) HandleRolloverDue(ctx context.Context, msg *amqp.RolloverDueMessage) error {
	anchor, err := msg.AnchorDate()
	if err != nil {
		return fmt.Errorf("rollover message %s: %w", msg.MessageID, err)
	}
	_, err = p.Apply(ctx, msg.UserID, anchor, p.now())
	return err
}

// ProcessDue sweeps every profile and applies due rollovers. It backs up
// the message path when the broker is unavailable.
func (p *RolloverProcessor) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	profiles, err := p.store.ListProfiles(ctx)
	if err != nil {
		return 0, fmt.Errorf("list profiles: %w", err)
	}

	slog.InfoContext(ctx, "Processing due rollovers",
		"profiles", len(profiles),
		"processing_time", now.UTC().Format(time.RFC3339))

	applied := 0
	for _, profile := range profiles {
		if ctx.Err() != nil {
			return applied, ctx.Err()
		}
		if !profile.HasPayCycle() || !payperiod.ShouldTransition(*profile.NextPayDate, profile.Timezone, now) {
			continue
		}
		ok, err := p.Apply(ctx, profile.UserID, *profile.NextPayDate, now)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to apply rollover",
				"user_id", profile.UserID,
				"error", err)
			continue
		}
		if ok {
			applied++
		}
	}
	return applied, nil
}
