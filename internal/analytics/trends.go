package analytics

import (
	"fmt"

	"github.com/shopspring/decimal"

	"paycycle/internal/calendar"
	"paycycle/internal/classify"
	"paycycle/internal/core"
)

type Granularity string

const (
	Daily   Granularity = "daily"
	Weekly  Granularity = "weekly"
	Monthly Granularity = "monthly"
)

const (
	maxDailySpan  = 14
	maxWeeklySpan = 84
)

// GranularityFor picks the bucket size for a span of days.
func GranularityFor(days int) Granularity {
	switch {
	case days <= maxDailySpan:
		return Daily
	case days <= maxWeeklySpan:
		return Weekly
	default:
		return Monthly
	}
}

type (
	TrendBucket struct {
		Label         string  `json:"label"`
		Start         string  `json:"start"`
		End           string  `json:"end"`
		Income        float64 `json:"income"`
		Expenses      float64 `json:"expenses"`
		Discretionary float64 `json:"discretionary"`
		Net           float64 `json:"net"`
		Count         int     `json:"count"`
	}

	TrendTotals struct {
		Income        float64 `json:"income"`
		Expenses      float64 `json:"expenses"`
		Discretionary float64 `json:"discretionary"`
		Net           float64 `json:"net"`
		Count         int     `json:"count"`
	}

	TrendSeries struct {
		Granularity Granularity   `json:"granularity"`
		Range       RangeReport   `json:"range"`
		Buckets     []TrendBucket `json:"buckets"`
		Totals      TrendTotals   `json:"totals"`
	}
)

type trendAcc struct {
	start, end    core.Date
	income        decimal.Decimal
	expenses      decimal.Decimal
	discretionary decimal.Decimal
	count         int
}

// Trends buckets txs over rng. Daily buckets up to 14 days, weekly buckets
// anchored at rng.Start up to 84 days, calendar months clipped to rng
// beyond. Buckets are contiguous and include empty ones.
func Trends(txs []core.TransactionRecord, rng DateRange, tz string) TrendSeries {
	series := TrendSeries{Range: rng.Report(), Buckets: []TrendBucket{}}
	if !rng.Valid() {
		series.Granularity = Daily
		return series
	}
	g := GranularityFor(rng.Days())
	series.Granularity = g

	accs := bucketize(rng, g)
	for _, tx := range localize(txs, tz) {
		if !rng.Contains(tx.Day) {
			continue
		}
		a := accs[bucketIndex(rng.Start, tx.Day, g)]
		a.count++
		switch classify.Classify(tx.TransactionRecord) {
		case classify.Income:
			a.income = a.income.Add(tx.Amount)
		case classify.Discretionary:
			a.discretionary = a.discretionary.Add(tx.Amount)
			a.expenses = a.expenses.Add(tx.Amount)
		default:
			a.expenses = a.expenses.Add(tx.Amount)
		}
	}

	income, expenses, discretionary := decimal.Zero, decimal.Zero, decimal.Zero
	count := 0
	for _, a := range accs {
		series.Buckets = append(series.Buckets, TrendBucket{
			Label:         bucketLabel(a.start, a.end, g),
			Start:         a.start.String(),
			End:           a.end.String(),
			Income:        core.Report(a.income),
			Expenses:      core.Report(a.expenses),
			Discretionary: core.Report(a.discretionary),
			Net:           core.Report(a.income.Sub(a.expenses)),
			Count:         a.count,
		})
		income = income.Add(a.income)
		expenses = expenses.Add(a.expenses)
		discretionary = discretionary.Add(a.discretionary)
		count += a.count
	}
	series.Totals = TrendTotals{
		Income:        core.Report(income),
		Expenses:      core.Report(expenses),
		Discretionary: core.Report(discretionary),
		Net:           core.Report(income.Sub(expenses)),
		Count:         count,
	}
	return series
}

func bucketize(rng DateRange, g Granularity) []*trendAcc {
	var accs []*trendAcc
	for start := rng.Start; !start.After(rng.End); {
		var next core.Date
		switch g {
		case Daily:
			next = start.AddDays(1)
		case Weekly:
			next = start.AddDays(7)
		default:
			next = calendar.AddMonthsClipped(core.NewDate(start.Year(), start.Month(), 1), 1)
		}
		end := next.AddDays(-1)
		if end.After(rng.End) {
			end = rng.End
		}
		accs = append(accs, &trendAcc{
			start:         start,
			end:           end,
			income:        decimal.Zero,
			expenses:      decimal.Zero,
			discretionary: decimal.Zero,
		})
		start = next
	}
	return accs
}

func bucketIndex(start, d core.Date, g Granularity) int {
	switch g {
	case Daily:
		return calendar.DaysBetween(start, d)
	case Weekly:
		return calendar.DaysBetween(start, d) / 7
	default:
		return (d.Year()-start.Year())*12 + int(d.Month()) - int(start.Month())
	}
}

func bucketLabel(start, end core.Date, g Granularity) string {
	switch g {
	case Daily:
		return start.Format("Mon 02 Jan")
	case Weekly:
		return fmt.Sprintf("%s - %s", start.Format("02 Jan"), end.Format("02 Jan"))
	default:
		return start.Format("Jan 2006")
	}
}
