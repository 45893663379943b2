package analytics

import (
	"fmt"

	"github.com/shopspring/decimal"

	"paycycle/internal/core"
)

type InsightType string

const (
	InsightInfo    InsightType = "info"
	InsightWarning InsightType = "warning"
	InsightTip     InsightType = "tip"
	InsightSuccess InsightType = "success"
)

type Insight struct {
	Type    InsightType `json:"type"`
	Title   string      `json:"title"`
	Message string      `json:"message"`
	Value   float64     `json:"value"`
}

// Rule thresholds, in percent unless noted.
var (
	weekendShareLimit  = decimal.NewFromInt(40)
	categoryShareLimit = decimal.NewFromInt(40)
	periodChangeLimit  = decimal.NewFromInt(20)
	dominantBandLimit  = decimal.NewFromInt(50)
	nightShareLimit    = decimal.NewFromInt(15)
)

// sameDayCountLimit is a transaction count, not a percentage.
const sameDayCountLimit = 5

const nightBand = 3

func patternInsights(s *patternStats) []Insight {
	insights := []Insight{}
	if s.count == 0 {
		return insights
	}

	if share := s.weekendShare(); share.GreaterThan(weekendShareLimit) {
		insights = append(insights, Insight{
			Type:    InsightWarning,
			Title:   "High Weekend Spending",
			Message: fmt.Sprintf("%s%% of your discretionary spending happens on weekends.", share.Round(0)),
			Value:   core.Report(share),
		})
	}

	if best, share := s.peakBand(); share.GreaterThan(dominantBandLimit) {
		insights = append(insights, Insight{
			Type:    InsightInfo,
			Title:   TimeBands[best].Name + " Spender",
			Message: fmt.Sprintf("%s%% of your spending happens in the %s.", share.Round(0), lowerFirst(TimeBands[best].Name)),
			Value:   core.Report(share),
		})
	}

	if share := core.Percent(s.bands[nightBand].amount, s.total); share.GreaterThan(nightShareLimit) {
		insights = append(insights, Insight{
			Type:    InsightTip,
			Title:   "Late Night Purchases",
			Message: fmt.Sprintf("%s%% of your spending happens late at night. Consider a rule to sleep on purchases made after 10pm.", share.Round(0)),
			Value:   core.Report(share),
		})
	}

	if day, n := s.busiestDay(); n >= sameDayCountLimit {
		insights = append(insights, Insight{
			Type:    InsightTip,
			Title:   "Many Purchases In One Day",
			Message: fmt.Sprintf("You made %d discretionary purchases on %s. Grouping errands can reduce impulse buys.", n, day),
			Value:   float64(n),
		})
	}
	return insights
}

func categoryInsights(s *categoryStats) []Insight {
	insights := []Insight{}
	for _, g := range sortGroups(s.groups) {
		share := s.share(g)
		if share.GreaterThan(categoryShareLimit) {
			insights = append(insights, Insight{
				Type:    InsightWarning,
				Title:   "Concentrated Spending",
				Message: fmt.Sprintf("%s accounts for %s%% of your discretionary spending.", g.name, share.Round(0)),
				Value:   core.Report(share),
			})
		}
	}
	return insights
}

// periodChangeInsight compares two totals; it returns nil when the change
// is within the limit or there is nothing to compare against.
func periodChangeInsight(current, previous decimal.Decimal) *Insight {
	if !previous.IsPositive() {
		return nil
	}
	change := core.Percent(current.Sub(previous), previous)
	switch {
	case change.GreaterThan(periodChangeLimit):
		return &Insight{
			Type:    InsightWarning,
			Title:   "Spending Increased",
			Message: fmt.Sprintf("Discretionary spending is up %s%% on the previous period.", change.Round(0)),
			Value:   core.Report(change),
		}
	case change.LessThan(periodChangeLimit.Neg()):
		return &Insight{
			Type:    InsightSuccess,
			Title:   "Spending Decreased",
			Message: fmt.Sprintf("Discretionary spending is down %s%% on the previous period.", change.Neg().Round(0)),
			Value:   core.Report(change),
		}
	default:
		return nil
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'A' && b[0] <= 'Z' {
		b[0] += 'a' - 'A'
	}
	return string(b)
}
