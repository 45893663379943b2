package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"paycycle/internal/calendar"
	"paycycle/internal/core"
)

type VelocityStatus string

const (
	OnTrack      VelocityStatus = "ON_TRACK"
	SlightlyHigh VelocityStatus = "SLIGHTLY_HIGH"
	High         VelocityStatus = "HIGH"
	VeryHigh     VelocityStatus = "VERY_HIGH"
)

// Velocity bases.
const (
	BasisBudget        = "budget"
	BasisPreviousMonth = "previous_month"
	BasisNone          = "none"
)

type velocityThresholds struct {
	onTrack, slightlyHigh, high decimal.Decimal
}

var (
	budgetThresholds = velocityThresholds{
		onTrack:      decimal.NewFromInt(1),
		slightlyHigh: decimal.RequireFromString("1.2"),
		high:         decimal.RequireFromString("1.5"),
	}
	previousMonthThresholds = velocityThresholds{
		onTrack:      decimal.RequireFromString("1.1"),
		slightlyHigh: decimal.RequireFromString("1.3"),
		high:         decimal.RequireFromString("1.6"),
	}
	noBudgetTargetShare = decimal.RequireFromString("0.9")
)

func (t velocityThresholds) status(ratio decimal.Decimal) VelocityStatus {
	switch {
	case ratio.LessThanOrEqual(t.onTrack):
		return OnTrack
	case ratio.LessThanOrEqual(t.slightlyHigh):
		return SlightlyHigh
	case ratio.LessThanOrEqual(t.high):
		return High
	default:
		return VeryHigh
	}
}

type VelocityReport struct {
	MonthToDate              float64        `json:"monthToDate"`
	DailyAverage             float64        `json:"dailyAverage"`
	ProjectedMonthTotal      float64        `json:"projectedMonthTotal"`
	Budget                   *float64       `json:"budget"`
	PreviousMonthTotal       float64        `json:"previousMonthTotal"`
	Basis                    string         `json:"basis"`
	Ratio                    float64        `json:"ratio"`
	Status                   VelocityStatus `json:"status"`
	RecommendedDailySpending float64        `json:"recommendedDailySpending"`
	DaysElapsed              int            `json:"daysElapsed"`
	DaysInMonth              int            `json:"daysInMonth"`
	DaysRemaining            int            `json:"daysRemaining"`
}

// Velocity projects month-to-date expenses to a full month. With a budget
// the projection is compared to it; otherwise to last month's actual spend
// using looser thresholds.
func Velocity(txs []core.TransactionRecord, tz string, now time.Time, budget *decimal.Decimal) VelocityReport {
	today := calendar.Today(tz, now)
	dim := calendar.DaysInMonth(today.Year(), today.Month())
	elapsed := today.Day()
	remaining := dim - elapsed + 1

	month := DateRange{Start: core.NewDate(today.Year(), today.Month(), 1), End: today}
	prevStart := calendar.AddMonthsClipped(month.Start, -1)
	prev := DateRange{Start: prevStart, End: month.Start.AddDays(-1)}

	mtd, prevTotal := decimal.Zero, decimal.Zero
	for _, tx := range localize(txs, tz) {
		if tx.Type != core.Expense {
			continue
		}
		switch {
		case month.Contains(tx.Day):
			mtd = mtd.Add(tx.Amount)
		case prev.Contains(tx.Day):
			prevTotal = prevTotal.Add(tx.Amount)
		}
	}

	daily := average(mtd, elapsed)
	projected := daily.Mul(decimal.NewFromInt(int64(dim)))

	r := VelocityReport{
		MonthToDate:         core.Report(mtd),
		DailyAverage:        core.Report(daily),
		ProjectedMonthTotal: core.Report(projected),
		PreviousMonthTotal:  core.Report(prevTotal),
		DaysElapsed:         elapsed,
		DaysInMonth:         dim,
		DaysRemaining:       remaining,
		Status:              OnTrack,
		Basis:               BasisNone,
	}

	var target decimal.Decimal
	switch {
	case budget != nil && budget.IsPositive():
		ratio := projected.Div(*budget)
		r.Budget = core.ReportPtr(budget)
		r.Basis = BasisBudget
		r.Ratio = core.Report(ratio)
		r.Status = budgetThresholds.status(ratio)
		target = *budget
	case prevTotal.IsPositive():
		ratio := projected.Div(prevTotal)
		r.Basis = BasisPreviousMonth
		r.Ratio = core.Report(ratio)
		r.Status = previousMonthThresholds.status(ratio)
		target = projected.Mul(noBudgetTargetShare)
	default:
		target = projected.Mul(noBudgetTargetShare)
	}

	rec := average(target.Sub(mtd), remaining)
	if rec.IsNegative() {
		rec = decimal.Zero
	}
	r.RecommendedDailySpending = core.Report(rec)
	return r
}
