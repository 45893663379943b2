package summary

import (
	"github.com/shopspring/decimal"

	"paycycle/internal/core"
)

type (
	BalanceSummary struct {
		Configured    bool                `json:"configured"`
		Period        PeriodReport        `json:"period"`
		Income        IncomeReport        `json:"income"`
		Committed     CommittedReport     `json:"committed"`
		Discretionary DiscretionaryReport `json:"discretionary"`
		Goals         GoalsReport         `json:"goals"`
		Totals        TotalsReport        `json:"totals"`
	}

	PeriodReport struct {
		Start         string `json:"start"`
		End           string `json:"end"`
		Frequency     string `json:"frequency"`
		Timezone      string `json:"timezone"`
		DaysTotal     int    `json:"daysTotal"`
		DaysElapsed   int    `json:"daysElapsed"`
		DaysRemaining int    `json:"daysRemaining"`
	}

	IncomeReport struct {
		BaseIncome       float64 `json:"baseIncome"`
		AdditionalIncome float64 `json:"additionalIncome"`
		Rollover         float64 `json:"rollover"`
		TotalInflow      float64 `json:"totalInflow"`
	}

	CommittedReport struct {
		PlannedTotal float64 `json:"plannedTotal"`
		PaidSoFar    float64 `json:"paidSoFar"`
		Remaining    float64 `json:"remaining"`
		Count        int     `json:"count"`
	}

	DiscretionaryReport struct {
		SpentSoFar float64 `json:"spentSoFar"`
		Count      int     `json:"count"`
	}

	GoalsReport struct {
		PlannedTotal float64       `json:"plannedTotal"`
		PaidSoFar    float64       `json:"paidSoFar"`
		Remaining    float64       `json:"remaining"`
		Breakdown    GoalBreakdown `json:"breakdown"`
		Items        []GoalReport  `json:"items"`
	}

	GoalBreakdown struct {
		Debt    GoalBucket `json:"debt"`
		Savings GoalBucket `json:"savings"`
	}

	GoalBucket struct {
		Planned float64 `json:"planned"`
		Paid    float64 `json:"paid"`
		Count   int     `json:"count"`
	}

	GoalReport struct {
		ID        string  `json:"id"`
		Name      string  `json:"name"`
		Type      string  `json:"type"`
		Planned   float64 `json:"planned"`
		Paid      float64 `json:"paid"`
		Remaining float64 `json:"remaining"`
	}

	TotalsReport struct {
		TotalAllocated  float64 `json:"totalAllocated"`
		LeftToSpendSafe float64 `json:"leftToSpendSafe"`
	}
)

// Report rounds every field exactly once.
func (a Aggregate) Report() BalanceSummary {
	planned, paid := a.GoalTotals()

	debtPlanned, debtPaid := decimal.Zero, decimal.Zero
	savPlanned, savPaid := decimal.Zero, decimal.Zero
	var debtCount, savCount int
	items := make([]GoalReport, 0, len(a.Goals))
	for _, g := range a.Goals {
		if g.Type == core.GoalDebtPayoff {
			debtPlanned, debtPaid = debtPlanned.Add(g.Planned), debtPaid.Add(g.Paid)
			debtCount++
		} else {
			savPlanned, savPaid = savPlanned.Add(g.Planned), savPaid.Add(g.Paid)
			savCount++
		}
		items = append(items, GoalReport{
			ID:        g.ID,
			Name:      g.Name,
			Type:      string(g.Type),
			Planned:   core.Report(g.Planned),
			Paid:      core.Report(g.Paid),
			Remaining: core.Report(g.Planned.Sub(g.Paid)),
		})
	}

	return BalanceSummary{
		Configured: a.Configured,
		Period: PeriodReport{
			Start:         a.Period.StartDate.String(),
			End:           a.Period.EndDate.String(),
			Frequency:     string(a.Period.Frequency),
			Timezone:      a.Period.Timezone,
			DaysTotal:     a.Period.DaysTotal,
			DaysElapsed:   a.Period.DaysElapsed,
			DaysRemaining: a.Period.DaysRemaining,
		},
		Income: IncomeReport{
			BaseIncome:       core.Report(a.BaseIncome),
			AdditionalIncome: core.Report(a.AdditionalIncome),
			Rollover:         core.Report(a.Rollover),
			TotalInflow:      core.Report(a.TotalInflow),
		},
		Committed: CommittedReport{
			PlannedTotal: core.Report(a.CommittedPlanned),
			PaidSoFar:    core.Report(a.CommittedPaid),
			Remaining:    core.Report(a.CommittedRemaining()),
			Count:        a.CommittedCount,
		},
		Discretionary: DiscretionaryReport{
			SpentSoFar: core.Report(a.DiscretionarySpent),
			Count:      a.DiscretionaryCount,
		},
		Goals: GoalsReport{
			PlannedTotal: core.Report(planned),
			PaidSoFar:    core.Report(paid),
			Remaining:    core.Report(planned.Sub(paid)),
			Breakdown: GoalBreakdown{
				Debt:    GoalBucket{Planned: core.Report(debtPlanned), Paid: core.Report(debtPaid), Count: debtCount},
				Savings: GoalBucket{Planned: core.Report(savPlanned), Paid: core.Report(savPaid), Count: savCount},
			},
			Items: items,
		},
		Totals: TotalsReport{
			TotalAllocated:  core.Report(a.TotalAllocated),
			LeftToSpendSafe: core.Report(a.LeftToSpendSafe),
		},
	}
}
