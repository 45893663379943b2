package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"paycycle/internal/analytics"
	"paycycle/internal/calendar"
	"paycycle/internal/core"
	"paycycle/internal/payperiod"
	"paycycle/internal/sheets"
	"paycycle/internal/storage"
	"paycycle/internal/summary"
)

var ErrExportDisabled = errors.New("report export is not configured")

// RolloverPublisher announces that a user's pay anchor is stale.
type RolloverPublisher interface {
	PublishRolloverDue(ctx context.Context, userID string, anchor core.Date) error
}

// Snapshot is the immutable input of one engine run.
type Snapshot struct {
	Profile      core.UserFinancialProfile
	Transactions []core.TransactionRecord
	Goals        []core.Goal
}

// AnalyticsService fetches a snapshot from storage and runs the engine
// over it. Read paths never mutate state; a stale anchor is only announced
// through the publisher.
type AnalyticsService struct {
	store     storage.Store
	publisher RolloverPublisher
	reports   sheets.ReportWriter
	analyzer  *analytics.Analyzer
	now       func() time.Time
}

// NewAnalyticsService wires the service. publisher and reports are optional.
func NewAnalyticsService(store storage.Store, publisher RolloverPublisher, reports sheets.ReportWriter, analyzer *analytics.Analyzer) *AnalyticsService {
	if analyzer == nil {
		analyzer = analytics.New(nil)
	}
	return &AnalyticsService{
		store:     store,
		publisher: publisher,
		reports:   reports,
		analyzer:  analyzer,
		now:       time.Now,
	}
}

// Summary computes the balance summary of the current pay period.
func (s *AnalyticsService) Summary(ctx context.Context, userID string) (summary.BalanceSummary, error) {
	now := s.now()

	var (
		profile core.UserFinancialProfile
		goals   []core.Goal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.store.GetProfile(gctx, userID)
		if err != nil {
			return fmt.Errorf("get profile: %w", err)
		}
		profile = p
		return nil
	})
	g.Go(func() error {
		gs, err := s.store.ListGoals(gctx, userID)
		if err != nil {
			return fmt.Errorf("list goals: %w", err)
		}
		goals = gs
		return nil
	})
	if err := g.Wait(); err != nil {
		return summary.BalanceSummary{}, err
	}

	if !profile.HasPayCycle() {
		return summary.Zero(profile), nil
	}
	b, err := payperiod.CurrentPeriod(*profile.NextPayDate, profile.IncomeFrequency, profile.Timezone, now)
	if err != nil {
		slog.WarnContext(ctx, "Pay period unavailable, returning zero summary", "user_id", userID, "error", err)
		return summary.Zero(profile), nil
	}

	txs, err := s.store.ListTransactions(ctx, userID, b.Start, b.End)
	if err != nil {
		return summary.BalanceSummary{}, fmt.Errorf("list transactions: %w", err)
	}

	s.announceRollover(ctx, profile, now)
	return summary.Summarize(profile, b, txs, goals), nil
}

// TransactionAnalytics builds the composite analytics report. A nil budget
// falls back to the profile's monthly budget.
func (s *AnalyticsService) TransactionAnalytics(ctx context.Context, userID string, rng analytics.DateRange, budget *decimal.Decimal) (analytics.TransactionAnalytics, error) {
	now := s.now()
	rng, err := s.resolveRange(ctx, userID, rng, now)
	if err != nil {
		return analytics.TransactionAnalytics{}, err
	}

	// velocity reads the previous calendar month, burn rate the last week
	today := calendar.Today("UTC", now)
	first := calendar.AddMonthsClipped(core.NewDate(today.Year(), today.Month(), 1), -1)
	snap, err := s.load(ctx, userID, earliest(rng.Start, first), latest(rng.End, today))
	if err != nil {
		return analytics.TransactionAnalytics{}, err
	}

	s.announceRollover(ctx, snap.Profile, now)
	return s.analyzer.Transactions(snap.Transactions, snap.Profile, rng, now, budget), nil
}

// Discretionary breaks down discretionary spend in rng against the
// preceding range of equal length.
func (s *AnalyticsService) Discretionary(ctx context.Context, userID string, rng analytics.DateRange) (analytics.DiscretionaryBreakdown, error) {
	rng, err := s.resolveRange(ctx, userID, rng, s.now())
	if err != nil {
		return analytics.DiscretionaryBreakdown{}, err
	}
	first := rng.Start
	if prev := rng.Previous(); prev.Valid() {
		first = prev.Start
	}
	snap, err := s.load(ctx, userID, first, rng.End)
	if err != nil {
		return analytics.DiscretionaryBreakdown{}, err
	}
	return s.analyzer.Discretionary(snap.Transactions, rng, snap.Profile.Timezone), nil
}

func (s *AnalyticsService) Patterns(ctx context.Context, userID string, rng analytics.DateRange) (analytics.PatternReport, error) {
	rng, err := s.resolveRange(ctx, userID, rng, s.now())
	if err != nil {
		return analytics.PatternReport{}, err
	}
	snap, err := s.load(ctx, userID, rng.Start, rng.End)
	if err != nil {
		return analytics.PatternReport{}, err
	}
	return s.analyzer.Patterns(snap.Transactions, rng, snap.Profile.Timezone), nil
}

func (s *AnalyticsService) Trends(ctx context.Context, userID string, rng analytics.DateRange) (analytics.TrendSeries, error) {
	rng, err := s.resolveRange(ctx, userID, rng, s.now())
	if err != nil {
		return analytics.TrendSeries{}, err
	}
	snap, err := s.load(ctx, userID, rng.Start, rng.End)
	if err != nil {
		return analytics.TrendSeries{}, err
	}
	return s.analyzer.Trends(snap.Transactions, rng, snap.Profile.Timezone), nil
}

// ExportTrends computes the trend series for rng and appends it to the
// configured report sheet.
func (s *AnalyticsService) ExportTrends(ctx context.Context, userID string, rng analytics.DateRange) (string, analytics.TrendSeries, error) {
	if s.reports == nil {
		return "", analytics.TrendSeries{}, ErrExportDisabled
	}
	series, err := s.Trends(ctx, userID, rng)
	if err != nil {
		return "", analytics.TrendSeries{}, err
	}
	ref, err := s.reports.AppendTrendReport(ctx, userID, series)
	if err != nil {
		return "", series, fmt.Errorf("export trends: %w", err)
	}
	return ref, series, nil
}

// RecordTransaction validates and stores a transaction. The date must fall
// within the accepted window of the user's local calendar.
func (s *AnalyticsService) RecordTransaction(ctx context.Context, tx core.TransactionRecord) (string, error) {
	if tx.UserID == "" {
		return "", core.ErrMissingUserID
	}
	if err := tx.Validate(); err != nil {
		return "", err
	}
	profile, err := s.store.GetProfile(ctx, tx.UserID)
	if err != nil {
		return "", fmt.Errorf("get profile: %w", err)
	}
	if err := calendar.ValidateTransactionTime(tx.Date, profile.Timezone, s.now()); err != nil {
		return "", err
	}

	id, err := s.store.SaveTransaction(ctx, tx)
	if err != nil {
		return "", fmt.Errorf("save transaction: %w", err)
	}
	return id, nil
}

// SaveProfile validates and stores a profile. The frequency is normalised;
// an unknown timezone is kept and resolved to UTC on read.
func (s *AnalyticsService) SaveProfile(ctx context.Context, p core.UserFinancialProfile) error {
	if p.UserID == "" {
		return core.ErrMissingUserID
	}
	if p.IncomeFrequency != "" {
		f, err := core.ParseFrequency(string(p.IncomeFrequency))
		if err != nil {
			return err
		}
		p.IncomeFrequency = f
	}
	for _, d := range []decimal.Decimal{p.BaseIncome, p.FixedExpenses} {
		if d.IsNegative() {
			return fmt.Errorf("negative profile amount %s: %w", d, core.ErrInvalidAmount)
		}
	}
	if p.MonthlyBudget != nil && p.MonthlyBudget.IsNegative() {
		return fmt.Errorf("negative monthly budget: %w", core.ErrInvalidAmount)
	}
	if p.NextPayDate != nil {
		if err := p.NextPayDate.Validate(); err != nil {
			return err
		}
	}
	if !calendar.IsValidTimezone(p.Timezone) {
		slog.WarnContext(ctx, "Unknown timezone stored, UTC will be used", "user_id", p.UserID, "timezone", p.Timezone)
	}
	return s.store.SaveProfile(ctx, p)
}

func (s *AnalyticsService) SaveGoal(ctx context.Context, g core.Goal) (string, error) {
	switch g.Type {
	case core.GoalSavings, core.GoalInvestment, core.GoalDebtPayoff:
	default:
		return "", fmt.Errorf("goal type %q: %w", g.Type, core.ErrInvalidType)
	}
	if g.MonthlyTarget.IsNegative() || g.MinimumPayment.IsNegative() {
		return "", fmt.Errorf("negative goal amount: %w", core.ErrInvalidAmount)
	}
	return s.store.SaveGoal(ctx, g)
}

func (s *AnalyticsService) AddContribution(ctx context.Context, userID string, c core.GoalContribution) (string, error) {
	if userID == "" {
		return "", core.ErrMissingUserID
	}
	if !c.Amount.IsPositive() || !core.IsWholeCents(c.Amount) {
		return "", fmt.Errorf("contribution amount %s: %w", c.Amount, core.ErrInvalidAmount)
	}
	goals, err := s.store.ListGoals(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("list goals: %w", err)
	}
	if !slices.ContainsFunc(goals, func(g core.Goal) bool { return g.ID == c.GoalID }) {
		return "", fmt.Errorf("goal %s of user %s: %w", c.GoalID, userID, core.ErrNotFound)
	}
	if c.Type == "" {
		c.Type = core.ContributionManual
	}
	if c.Date.IsZero() {
		c.Date = s.now()
	}
	return s.store.AddContribution(ctx, c)
}

// resolveRange defaults an unset range to the local month to date.
func (s *AnalyticsService) resolveRange(ctx context.Context, userID string, rng analytics.DateRange, now time.Time) (analytics.DateRange, error) {
	if !rng.Start.IsZero() || !rng.End.IsZero() {
		return rng, nil
	}
	p, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return rng, fmt.Errorf("get profile: %w", err)
	}
	today := calendar.Today(p.Timezone, now)
	return analytics.DateRange{Start: core.NewDate(today.Year(), today.Month(), 1), End: today}, nil
}

// load fetches the profile and the transactions of the local days
// [first, last] concurrently. The instant window is widened by a day on
// each side so it covers those days in every zone; the engine filters by
// local day.
func (s *AnalyticsService) load(ctx context.Context, userID string, first, last core.Date) (Snapshot, error) {
	var snap Snapshot
	from, to := first.AddDays(-1).Time, last.AddDays(2).Time

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.store.GetProfile(gctx, userID)
		if err != nil {
			return fmt.Errorf("get profile: %w", err)
		}
		snap.Profile = p
		return nil
	})
	g.Go(func() error {
		txs, err := s.store.ListTransactions(gctx, userID, from, to)
		if err != nil {
			return fmt.Errorf("list transactions: %w", err)
		}
		snap.Transactions = txs
		return nil
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// announceRollover publishes a rollover request when the anchor is stale.
// Failures are logged; the read still succeeds.
func (s *AnalyticsService) announceRollover(ctx context.Context, p core.UserFinancialProfile, now time.Time) {
	if s.publisher == nil || !p.HasPayCycle() {
		return
	}
	if !payperiod.ShouldTransition(*p.NextPayDate, p.Timezone, now) {
		return
	}
	if err := s.publisher.PublishRolloverDue(ctx, p.UserID, *p.NextPayDate); err != nil {
		slog.ErrorContext(ctx, "Failed to publish rollover message",
			"user_id", p.UserID,
			"anchor", p.NextPayDate.String(),
			"error", err)
	}
}

func earliest(a, b core.Date) core.Date {
	if b.Before(a) {
		return b
	}
	return a
}

func latest(a, b core.Date) core.Date {
	if b.After(a) {
		return b
	}
	return a
}
