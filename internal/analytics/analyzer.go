package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"paycycle/internal/calendar"
	"paycycle/internal/classify"
	"paycycle/internal/core"
)

// Analyzer builds the composite analytics reports. It holds no state
// between calls besides its subcategory policy.
type Analyzer struct {
	matcher SubcategoryMatcher
}

// New creates an analyzer. A nil matcher selects DefaultMatcher.
func New(matcher SubcategoryMatcher) *Analyzer {
	if matcher == nil {
		matcher = DefaultMatcher()
	}
	return &Analyzer{matcher: matcher}
}

type (
	AnalyticsTotals struct {
		Income        float64 `json:"income"`
		Expenses      float64 `json:"expenses"`
		Committed     float64 `json:"committed"`
		Discretionary float64 `json:"discretionary"`
		Net           float64 `json:"net"`
		Count         int     `json:"count"`
	}

	TransactionAnalytics struct {
		Range      RangeReport         `json:"range"`
		Totals     AnalyticsTotals     `json:"totals"`
		Categories []CategoryBreakdown `json:"categoryBreakdown"`
		Trends     TrendSeries         `json:"trends"`
		Velocity   VelocityReport      `json:"spendingVelocity"`
		BurnRate   BurnRateReport      `json:"burnRate"`
	}

	PeriodComparison struct {
		Range         RangeReport `json:"range"`
		Total         float64     `json:"total"`
		ChangeAmount  float64     `json:"changeAmount"`
		ChangePercent float64     `json:"changePercent"`
	}

	DiscretionaryBreakdown struct {
		Range                 RangeReport         `json:"range"`
		Total                 float64             `json:"total"`
		Count                 int                 `json:"count"`
		AveragePerTransaction float64             `json:"averagePerTransaction"`
		AveragePerDay         float64             `json:"averagePerDay"`
		Categories            []CategoryBreakdown `json:"categories"`
		Previous              PeriodComparison    `json:"previousPeriod"`
		Insights              []Insight           `json:"insights"`
	}
)

// inRange keeps the records whose local day falls in rng.
func inRange(txs []core.TransactionRecord, rng DateRange, tz string) []core.TransactionRecord {
	out := make([]core.TransactionRecord, 0, len(txs))
	for _, tx := range localize(txs, tz) {
		if rng.Contains(tx.Day) {
			out = append(out, tx.TransactionRecord)
		}
	}
	return out
}

// Transactions builds the transaction analytics report for rng. Velocity
// and burn rate are anchored at now and read whatever history txs carries.
func (a *Analyzer) Transactions(txs []core.TransactionRecord, profile core.UserFinancialProfile, rng DateRange, now time.Time, budget *decimal.Decimal) TransactionAnalytics {
	tz := calendar.ResolveTimezone(profile.Timezone)
	if budget == nil {
		budget = profile.MonthlyBudget
	}
	scoped := inRange(txs, rng, tz)

	income, committed, discretionary := decimal.Zero, decimal.Zero, decimal.Zero
	for _, tx := range scoped {
		switch classify.Classify(tx) {
		case classify.Income:
			income = income.Add(tx.Amount)
		case classify.Committed:
			committed = committed.Add(tx.Amount)
		default:
			discretionary = discretionary.Add(tx.Amount)
		}
	}
	expenses := committed.Add(discretionary)

	return TransactionAnalytics{
		Range: rng.Report(),
		Totals: AnalyticsTotals{
			Income:        core.Report(income),
			Expenses:      core.Report(expenses),
			Committed:     core.Report(committed),
			Discretionary: core.Report(discretionary),
			Net:           core.Report(income.Sub(expenses)),
			Count:         len(scoped),
		},
		Categories: Categories(scoped, a.matcher),
		Trends:     Trends(txs, rng, tz),
		Velocity:   Velocity(txs, tz, now, budget),
		BurnRate:   BurnRate(txs, profile, now),
	}
}

// Discretionary breaks down discretionary spending in rng and compares it
// with the preceding range of equal length.
func (a *Analyzer) Discretionary(txs []core.TransactionRecord, rng DateRange, tz string) DiscretionaryBreakdown {
	tz = calendar.ResolveTimezone(tz)
	current := classify.DiscretionaryOnly(inRange(txs, rng, tz))
	prevRange := rng.Previous()
	previous := classify.DiscretionaryOnly(inRange(txs, prevRange, tz))

	total := sumAmounts(current)
	prevTotal := sumAmounts(previous)
	cats := collectCategories(current, a.matcher)

	insights := categoryInsights(cats)
	if in := periodChangeInsight(total, prevTotal); in != nil {
		insights = append(insights, *in)
	}
	insights = append(insights, patternInsights(collectPatterns(current, rng, tz))...)

	return DiscretionaryBreakdown{
		Range:                 rng.Report(),
		Total:                 core.Report(total),
		Count:                 len(current),
		AveragePerTransaction: core.Report(average(total, len(current))),
		AveragePerDay:         core.Report(average(total, rng.Days())),
		Categories:            cats.report(),
		Previous: PeriodComparison{
			Range:         prevRange.Report(),
			Total:         core.Report(prevTotal),
			ChangeAmount:  core.Report(total.Sub(prevTotal)),
			ChangePercent: core.Report(core.Percent(total.Sub(prevTotal), prevTotal)),
		},
		Insights: insights,
	}
}

// Patterns is the package level Patterns bound to the analyzer.
func (a *Analyzer) Patterns(txs []core.TransactionRecord, rng DateRange, tz string) PatternReport {
	return Patterns(txs, rng, calendar.ResolveTimezone(tz))
}

// Trends is the package level Trends bound to the analyzer.
func (a *Analyzer) Trends(txs []core.TransactionRecord, rng DateRange, tz string) TrendSeries {
	return Trends(txs, rng, calendar.ResolveTimezone(tz))
}

func sumAmounts(txs []core.TransactionRecord) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		total = total.Add(tx.Amount)
	}
	return total
}
