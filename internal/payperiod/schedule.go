// Package payperiod derives pay periods from an anchor pay date and an
// income frequency.
//
// Each frequency has its own Schedule that encapsulates how an anchor moves
// one period forward or backward. Schedules are looked up in a registry so
// new cadences can be added without touching the period math.
package payperiod

import (
	"fmt"

	"github.com/shopspring/decimal"

	"paycycle/internal/calendar"
	"paycycle/internal/core"
)

// Schedule is the strategy interface for stepping an anchor by one period.
type Schedule interface {
	// Next returns the anchor one period after d.
	Next(d core.Date) core.Date
	// Previous returns the anchor one period before d.
	Previous(d core.Date) core.Date
	// PeriodsPerYear is used to normalise amounts between monthly and
	// per-period figures.
	PeriodsPerYear() int64
}

// WeeklySchedule steps by 7 days.
type WeeklySchedule struct{}

func (WeeklySchedule) Next(d core.Date) core.Date     { return d.AddDays(7) }
func (WeeklySchedule) Previous(d core.Date) core.Date { return d.AddDays(-7) }
func (WeeklySchedule) PeriodsPerYear() int64          { return 52 }

// FortnightlySchedule steps by 14 days.
type FortnightlySchedule struct{}

func (FortnightlySchedule) Next(d core.Date) core.Date     { return d.AddDays(14) }
func (FortnightlySchedule) Previous(d core.Date) core.Date { return d.AddDays(-14) }
func (FortnightlySchedule) PeriodsPerYear() int64          { return 26 }

// MonthlySchedule steps by one calendar month. An anchor on a day the
// target month lacks is clipped to that month's last day, so stepping is
// not always reversible (Jan 31 -> Feb 28 -> Jan 28).
type MonthlySchedule struct{}

func (MonthlySchedule) Next(d core.Date) core.Date     { return calendar.AddMonthsClipped(d, 1) }
func (MonthlySchedule) Previous(d core.Date) core.Date { return calendar.AddMonthsClipped(d, -1) }
func (MonthlySchedule) PeriodsPerYear() int64          { return 12 }

// schedules maps frequencies to their stepping strategy.
var schedules = map[core.Frequency]Schedule{
	core.Weekly:      WeeklySchedule{},
	core.Fortnightly: FortnightlySchedule{},
	core.Monthly:     MonthlySchedule{},
}

// GetSchedule returns the schedule for a frequency. Aliases such as
// BIWEEKLY are normalised first.
func GetSchedule(f core.Frequency) (Schedule, error) {
	norm, err := core.ParseFrequency(string(f))
	if err != nil {
		if s, ok := schedules[f]; ok {
			return s, nil
		}
		return nil, err
	}
	s, ok := schedules[norm]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrInvalidFrequency, f)
	}
	return s, nil
}

// RegisterSchedule adds or replaces the schedule for a frequency.
func RegisterSchedule(f core.Frequency, s Schedule) {
	schedules[f] = s
}

// NextAnchor steps the anchor forward by one period.
func NextAnchor(anchor core.Date, f core.Frequency) (core.Date, error) {
	s, err := GetSchedule(f)
	if err != nil {
		return core.Date{}, err
	}
	return s.Next(anchor), nil
}

// PreviousAnchor steps the anchor backward by one period.
func PreviousAnchor(anchor core.Date, f core.Frequency) (core.Date, error) {
	s, err := GetSchedule(f)
	if err != nil {
		return core.Date{}, err
	}
	return s.Previous(anchor), nil
}

var twelve = decimal.NewFromInt(12)

// ProrateMonthlyAmount converts a monthly amount into the amount due for a
// single period of frequency f: WEEKLY x12/52, FORTNIGHTLY x12/26,
// MONTHLY unchanged.
//
// The factor is applied as a single multiplication so the result is linear
// in amount.
func ProrateMonthlyAmount(amount decimal.Decimal, f core.Frequency) (decimal.Decimal, error) {
	s, err := GetSchedule(f)
	if err != nil {
		return decimal.Zero, err
	}
	if s.PeriodsPerYear() == 12 {
		return amount, nil
	}
	factor := twelve.DivRound(decimal.NewFromInt(s.PeriodsPerYear()), 16)
	return amount.Mul(factor), nil
}

// MonthlyEquivalent converts a per-period amount of frequency f into a
// monthly figure: WEEKLY x52/12, FORTNIGHTLY x26/12, MONTHLY unchanged.
func MonthlyEquivalent(amount decimal.Decimal, f core.Frequency) (decimal.Decimal, error) {
	s, err := GetSchedule(f)
	if err != nil {
		return decimal.Zero, err
	}
	if s.PeriodsPerYear() == 12 {
		return amount, nil
	}
	return amount.Mul(decimal.NewFromInt(s.PeriodsPerYear())).Div(twelve), nil
}
