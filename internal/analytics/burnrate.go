package analytics

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"paycycle/internal/calendar"
	"paycycle/internal/classify"
	"paycycle/internal/core"
	"paycycle/internal/payperiod"
)

type BurnStatus string

const (
	BurnLow      BurnStatus = "LOW"
	BurnNormal   BurnStatus = "NORMAL"
	BurnHigh     BurnStatus = "HIGH"
	BurnCritical BurnStatus = "CRITICAL"
)

const burnWindowDays = 7

var (
	sustainableShare   = decimal.RequireFromString("0.8")
	daysPerMonth       = decimal.NewFromInt(30)
	absoluteHighBurn   = decimal.NewFromInt(50)
	burnLowRatio       = decimal.RequireFromString("0.7")
	burnNormalRatio    = decimal.NewFromInt(1)
	burnHighRatio      = decimal.RequireFromString("1.5")
	burnWindowDivisor  = decimal.NewFromInt(burnWindowDays)
	recurrencePerMonth = map[string]decimal.Decimal{
		"daily":       decimal.NewFromInt(365).Div(decimal.NewFromInt(12)),
		"weekly":      decimal.NewFromInt(52).Div(decimal.NewFromInt(12)),
		"fortnightly": decimal.NewFromInt(26).Div(decimal.NewFromInt(12)),
		"biweekly":    decimal.NewFromInt(26).Div(decimal.NewFromInt(12)),
		"monthly":     decimal.NewFromInt(1),
		"quarterly":   decimal.NewFromInt(1).Div(decimal.NewFromInt(3)),
		"yearly":      decimal.NewFromInt(1).Div(decimal.NewFromInt(12)),
		"annually":    decimal.NewFromInt(1).Div(decimal.NewFromInt(12)),
	}
)

type (
	DailySpend struct {
		Date    string  `json:"date"`
		Weekday string  `json:"weekday"`
		Amount  float64 `json:"amount"`
		IsToday bool    `json:"isToday"`
	}

	BurnRateReport struct {
		CurrentDailyBurnRate    float64      `json:"currentDailyBurnRate"`
		SustainableDailyRate    float64      `json:"sustainableDailyRate"`
		Ratio                   float64      `json:"ratio"`
		Status                  BurnStatus   `json:"burnRateStatus"`
		DaysUntilBudgetExceeded *int         `json:"daysUntilBudgetExceeded"`
		MonthlyIncomeCapacity   float64      `json:"monthlyIncomeCapacity"`
		FixedExpenses           float64      `json:"fixedExpenses"`
		CommittedMonthly        float64      `json:"committedMonthly"`
		Last7Days               []DailySpend `json:"last7Days"`
	}
)

// BurnRate compares the trailing seven day discretionary spend against the
// rate the profile's income can sustain.
func BurnRate(txs []core.TransactionRecord, profile core.UserFinancialProfile, now time.Time) BurnRateReport {
	tz := calendar.ResolveTimezone(profile.Timezone)
	today := calendar.Today(tz, now)
	window := DateRange{Start: today.AddDays(-(burnWindowDays - 1)), End: today}
	local := localize(txs, tz)

	perDay := make([]decimal.Decimal, burnWindowDays)
	for i := range perDay {
		perDay[i] = decimal.Zero
	}
	for _, tx := range local {
		if !window.Contains(tx.Day) || classify.Classify(tx.TransactionRecord) != classify.Discretionary {
			continue
		}
		i := calendar.DaysBetween(window.Start, tx.Day)
		perDay[i] = perDay[i].Add(tx.Amount)
	}

	series := make([]DailySpend, 0, burnWindowDays)
	spent := decimal.Zero
	for i, amt := range perDay {
		d := window.Start.AddDays(i)
		spent = spent.Add(amt)
		series = append(series, DailySpend{
			Date:    d.String(),
			Weekday: d.Weekday().String()[:3],
			Amount:  core.Report(amt),
			IsToday: d.Equal(today),
		})
	}
	current := spent.Div(burnWindowDivisor)

	capacity := monthlyIncomeCapacity(profile)
	committed := committedMonthlyEquivalent(local, today)

	r := BurnRateReport{
		CurrentDailyBurnRate:  core.Report(current),
		MonthlyIncomeCapacity: core.Report(capacity),
		FixedExpenses:         core.Report(profile.FixedExpenses),
		CommittedMonthly:      core.Report(committed),
		Last7Days:             series,
	}

	if !capacity.IsPositive() {
		r.Status = BurnNormal
		if current.GreaterThan(absoluteHighBurn) {
			r.Status = BurnHigh
		}
		return r
	}

	sustainable := capacity.Sub(profile.FixedExpenses).Sub(committed).Mul(sustainableShare).Div(daysPerMonth)
	r.SustainableDailyRate = core.Report(sustainable)

	switch {
	case !sustainable.IsPositive():
		r.Status = BurnNormal
		if current.IsPositive() {
			r.Status = BurnCritical
		}
	default:
		ratio := current.Div(sustainable)
		r.Ratio = core.Report(ratio)
		r.Status = burnStatus(ratio)
	}

	if current.GreaterThan(sustainable) {
		days := int(capacity.Div(current.Sub(sustainable)).Floor().IntPart())
		r.DaysUntilBudgetExceeded = &days
	}
	return r
}

func burnStatus(ratio decimal.Decimal) BurnStatus {
	switch {
	case ratio.LessThanOrEqual(burnLowRatio):
		return BurnLow
	case ratio.LessThanOrEqual(burnNormalRatio):
		return BurnNormal
	case ratio.LessThanOrEqual(burnHighRatio):
		return BurnHigh
	default:
		return BurnCritical
	}
}

// monthlyIncomeCapacity normalises base income to a monthly figure. An
// unknown frequency counts as no income data.
func monthlyIncomeCapacity(profile core.UserFinancialProfile) decimal.Decimal {
	if !profile.BaseIncome.IsPositive() {
		return decimal.Zero
	}
	m, err := payperiod.MonthlyEquivalent(profile.BaseIncome, profile.IncomeFrequency)
	if err != nil {
		return decimal.Zero
	}
	return m
}

// committedMonthlyEquivalent estimates recurring commitments per month.
// Recurring series are deduplicated by label and cadence, keeping the most
// recent amount; one-off committed expenses count at face value when they
// fall in today's month.
func committedMonthlyEquivalent(txs []localTx, today core.Date) decimal.Decimal {
	type series struct {
		amount decimal.Decimal
		date   time.Time
		factor decimal.Decimal
	}
	recurring := map[string]series{}
	oneOff := decimal.Zero

	for _, tx := range txs {
		if tx.Type != core.Expense || classify.Classify(tx.TransactionRecord) != classify.Committed {
			continue
		}
		tag := strings.ToLower(strings.TrimSpace(tx.Recurrence))
		if core.IsRecurring(tag) {
			factor, ok := recurrencePerMonth[tag]
			if !ok {
				factor = decimal.NewFromInt(1)
			}
			key := strings.ToLower(tx.Label()) + "|" + tag
			if cur, seen := recurring[key]; !seen || tx.Date.After(cur.date) {
				recurring[key] = series{amount: tx.Amount, date: tx.Date, factor: factor}
			}
			continue
		}
		day := tx.Day
		if tx.DueDate != nil {
			day = core.DateOf(tx.DueDate.In(tx.Local.Location()))
		}
		if day.Year() == today.Year() && day.Month() == today.Month() {
			oneOff = oneOff.Add(tx.Amount)
		}
	}

	keys := make([]string, 0, len(recurring))
	for k := range recurring {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	total := oneOff
	for _, k := range keys {
		s := recurring[k]
		total = total.Add(s.amount.Mul(s.factor))
	}
	return total
}
