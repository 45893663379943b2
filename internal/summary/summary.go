// Package summary aggregates a pay period's income and outflows into the
// balance shown for "today". Everything here is pure over an already
// fetched snapshot.
package summary

import (
	"time"

	"github.com/shopspring/decimal"

	"paycycle/internal/calendar"
	"paycycle/internal/classify"
	"paycycle/internal/core"
	"paycycle/internal/payperiod"
)

// Aggregate holds the full-precision figures of a balance summary.
type Aggregate struct {
	Configured bool
	Period     payperiod.Boundaries

	BaseIncome       decimal.Decimal
	AdditionalIncome decimal.Decimal
	Rollover         decimal.Decimal
	TotalInflow      decimal.Decimal

	CommittedPlanned decimal.Decimal
	CommittedPaid    decimal.Decimal
	CommittedCount   int

	DiscretionarySpent decimal.Decimal
	DiscretionaryCount int

	Goals []GoalLine

	TotalAllocated  decimal.Decimal
	LeftToSpendSafe decimal.Decimal
}

// GoalLine is one active goal's plan and progress for the period.
type GoalLine struct {
	ID      string
	Name    string
	Type    core.GoalType
	Planned decimal.Decimal
	Paid    decimal.Decimal
}

// CommittedRemaining is planned minus paid committed spend.
func (a Aggregate) CommittedRemaining() decimal.Decimal {
	return a.CommittedPlanned.Sub(a.CommittedPaid)
}

// GoalTotals sums planned and paid across all goal lines.
func (a Aggregate) GoalTotals() (planned, paid decimal.Decimal) {
	planned, paid = decimal.Zero, decimal.Zero
	for _, g := range a.Goals {
		planned = planned.Add(g.Planned)
		paid = paid.Add(g.Paid)
	}
	return planned, paid
}

// Compute aggregates txs and goals over the period b.
//
// totalAllocated mixes planned committed spend with actual discretionary and
// goal spend: bills are reserved in full even when unpaid, other outflows
// count only once money has moved.
func Compute(profile core.UserFinancialProfile, b payperiod.Boundaries, txs []core.TransactionRecord, goals []core.Goal) Aggregate {
	a := Aggregate{
		Configured:         true,
		Period:             b,
		BaseIncome:         profile.BaseIncome,
		AdditionalIncome:   decimal.Zero,
		Rollover:           profile.RolloverAmount,
		CommittedPlanned:   decimal.Zero,
		CommittedPaid:      decimal.Zero,
		DiscretionarySpent: decimal.Zero,
	}

	w := classify.Window{Start: b.Start, End: b.End}
	p := classify.Partition(txs, w)

	for _, tx := range p.Income {
		a.AdditionalIncome = a.AdditionalIncome.Add(tx.Amount)
	}
	for _, tx := range p.Committed {
		a.CommittedPlanned = a.CommittedPlanned.Add(tx.Amount)
		if tx.Status != nil && *tx.Status == core.Paid {
			a.CommittedPaid = a.CommittedPaid.Add(tx.Amount)
		}
	}
	a.CommittedCount = len(p.Committed)
	for _, tx := range p.Discretionary {
		a.DiscretionarySpent = a.DiscretionarySpent.Add(tx.Amount)
	}
	a.DiscretionaryCount = len(p.Discretionary)

	a.Goals = goalLines(goals, b)
	_, goalsPaid := a.GoalTotals()

	a.TotalInflow = core.Sum(a.BaseIncome, a.AdditionalIncome, a.Rollover)
	a.TotalAllocated = core.Sum(a.CommittedPlanned, a.DiscretionarySpent, goalsPaid)
	a.LeftToSpendSafe = a.TotalInflow.Sub(a.TotalAllocated)
	return a
}

func goalLines(goals []core.Goal, b payperiod.Boundaries) []GoalLine {
	r := b.Range()
	lines := make([]GoalLine, 0, len(goals))
	for _, g := range goals {
		if !g.IsOpen() {
			continue
		}
		monthly := g.MonthlyTarget
		if g.IsDebt() {
			monthly = g.MinimumPayment
		}
		planned, err := payperiod.ProrateMonthlyAmount(monthly, b.Frequency)
		if err != nil {
			planned = monthly
		}
		paid := decimal.Zero
		for _, c := range g.Contributions {
			if c.Counts() && r.Contains(c.Date) {
				paid = paid.Add(c.Amount)
			}
		}
		lines = append(lines, GoalLine{ID: g.ID, Name: g.Name, Type: g.Type, Planned: planned, Paid: paid})
	}
	return lines
}

// Summarize is Compute rendered for output.
func Summarize(profile core.UserFinancialProfile, b payperiod.Boundaries, txs []core.TransactionRecord, goals []core.Goal) BalanceSummary {
	return Compute(profile, b, txs, goals).Report()
}

// ComputeForNow derives the current pay period from the profile and
// aggregates over it. A profile without anchor or frequency yields the zero
// aggregate.
func ComputeForNow(profile core.UserFinancialProfile, txs []core.TransactionRecord, goals []core.Goal, now time.Time) Aggregate {
	if !profile.HasPayCycle() {
		return zeroAggregate(profile)
	}
	b, err := payperiod.CurrentPeriod(*profile.NextPayDate, profile.IncomeFrequency, profile.Timezone, now)
	if err != nil {
		return zeroAggregate(profile)
	}
	return Compute(profile, b, txs, goals)
}

// BuildForNow is ComputeForNow rendered for output.
func BuildForNow(profile core.UserFinancialProfile, txs []core.TransactionRecord, goals []core.Goal, now time.Time) BalanceSummary {
	return ComputeForNow(profile, txs, goals, now).Report()
}

// Zero is the canonical summary of a profile whose pay cycle is not set up.
func Zero(profile core.UserFinancialProfile) BalanceSummary {
	return zeroAggregate(profile).Report()
}

func zeroAggregate(profile core.UserFinancialProfile) Aggregate {
	return Aggregate{
		Period: payperiod.Boundaries{
			Frequency: profile.IncomeFrequency,
			Timezone:  calendar.ResolveTimezone(profile.Timezone),
		},
		BaseIncome:         decimal.Zero,
		AdditionalIncome:   decimal.Zero,
		Rollover:           decimal.Zero,
		TotalInflow:        decimal.Zero,
		CommittedPlanned:   decimal.Zero,
		CommittedPaid:      decimal.Zero,
		DiscretionarySpent: decimal.Zero,
		Goals:              []GoalLine{},
		TotalAllocated:     decimal.Zero,
		LeftToSpendSafe:    decimal.Zero,
	}
}
