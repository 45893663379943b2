package payperiod

import (
	"time"

	"paycycle/internal/calendar"
	"paycycle/internal/core"
)

// Boundaries describes the pay period containing "now". It is derived on
// every call and never cached.
type Boundaries struct {
	Start         time.Time
	End           time.Time
	StartDate     core.Date
	EndDate       core.Date // exclusive; equals the next anchor
	Frequency     core.Frequency
	Timezone      string
	DaysTotal     int
	DaysElapsed   int
	DaysRemaining int
}

// Range returns the period as a half-open instant range.
func (b Boundaries) Range() calendar.Range {
	return calendar.Range{Start: b.Start, End: b.End}
}

// CurrentPeriod returns the pay period containing now. Before the anchor
// the period is [previous(anchor), anchor); from the anchor on it is
// [anchor, next(anchor)).
func CurrentPeriod(anchor core.Date, f core.Frequency, tz string, now time.Time) (Boundaries, error) {
	s, err := GetSchedule(f)
	if err != nil {
		return Boundaries{}, err
	}
	tz = calendar.ResolveTimezone(tz)
	loc := calendar.Location(tz)

	start, end := anchor, s.Next(anchor)
	if now.Before(anchor.In(loc)) {
		start, end = s.Previous(anchor), anchor
	}

	total := calendar.DaysBetween(start, end)
	elapsed := calendar.DaysBetween(start, calendar.Today(tz, now))
	elapsed = max(0, min(elapsed, total))

	return Boundaries{
		Start:         start.In(loc),
		End:           end.In(loc),
		StartDate:     start,
		EndDate:       end,
		Frequency:     f,
		Timezone:      tz,
		DaysTotal:     total,
		DaysElapsed:   elapsed,
		DaysRemaining: total - elapsed,
	}, nil
}

// ShouldTransition reports whether local today is past the anchor's day,
// meaning the stored anchor must be advanced. It never mutates anything.
func ShouldTransition(anchor core.Date, tz string, now time.Time) bool {
	return calendar.Today(tz, now).After(anchor)
}

// AdvanceAnchor steps anchor forward until it is no longer in the past.
// Returns the new anchor and the number of periods skipped.
func AdvanceAnchor(anchor core.Date, f core.Frequency, tz string, now time.Time) (core.Date, int, error) {
	s, err := GetSchedule(f)
	if err != nil {
		return core.Date{}, 0, err
	}
	today := calendar.Today(tz, now)
	steps := 0
	for today.After(anchor) {
		anchor = s.Next(anchor)
		steps++
	}
	return anchor, steps, nil
}

// LastPassedAnchor returns the final anchor AdvanceAnchor steps over: the
// end of the most recently completed period. ok is false when anchor is
// not in the past.
func LastPassedAnchor(anchor core.Date, f core.Frequency, tz string, now time.Time) (core.Date, bool, error) {
	s, err := GetSchedule(f)
	if err != nil {
		return core.Date{}, false, err
	}
	today := calendar.Today(tz, now)
	if !today.After(anchor) {
		return core.Date{}, false, nil
	}
	for today.After(s.Next(anchor)) {
		anchor = s.Next(anchor)
	}
	return anchor, true, nil
}
