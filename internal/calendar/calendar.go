// Package calendar converts between stored instants and a user's local
// calendar. Every function is pure given its inputs; the current instant is
// always passed in by the caller.
//
// Ranges are half-open [Start, End). Weeks start on Sunday.
package calendar

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"paycycle/internal/cache"
	"paycycle/internal/core"
)

const (
	DefaultTimezone = "UTC"

	// StaleAfterYears bounds how far back a transaction date may be.
	StaleAfterYears = 5
)

// DefaultCacheSize is the number of loaded locations kept in memory.
const DefaultCacheSize = 64

var locations = cache.NewLRUCache[*time.Location](DefaultCacheSize, 0)

// localLayouts are interpreted as wall clock time in the user's timezone.
var localLayouts = []string{
	core.DateLayout,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// Range is a half-open interval of instants.
type Range struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside [Start, End).
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// Empty reports whether the range covers no instant.
func (r Range) Empty() bool {
	return !r.End.After(r.Start)
}

// SetCacheSize changes how many locations are kept loaded.
func SetCacheSize(n int) {
	locations.Resize(n)
}

// IsValidTimezone reports whether tz names a loadable IANA zone.
func IsValidTimezone(tz string) bool {
	tz = strings.TrimSpace(tz)
	if tz == "" || tz == "Local" {
		return false
	}
	_, err := cache.GetOrLoad[*time.Location](locations, tz, time.LoadLocation)
	return err == nil
}

// ResolveTimezone returns tz when it is valid and UTC otherwise.
func ResolveTimezone(tz string) string {
	tz = strings.TrimSpace(tz)
	if IsValidTimezone(tz) {
		return tz
	}
	if tz != "" {
		slog.Debug("Unknown timezone, falling back to UTC", "timezone", tz)
	}
	return DefaultTimezone
}

// Location returns the *time.Location for tz, UTC when tz cannot be resolved.
func Location(tz string) *time.Location {
	tz = ResolveTimezone(tz)
	if tz == DefaultTimezone {
		return time.UTC
	}
	loc, err := cache.GetOrLoad[*time.Location](locations, tz, time.LoadLocation)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ToUTC interprets local as wall clock time in tz and returns the absolute
// instant in UTC. Strings carrying an explicit offset are taken as absolute.
func ToUTC(local, tz string) (time.Time, error) {
	t, err := parse(local, Location(tz))
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// ToLocal returns the calendar day t falls on in tz.
func ToLocal(t time.Time, tz string) core.Date {
	return core.DateOf(t.In(Location(tz)))
}

// ParseLocalDate returns the local calendar day named by local.
func ParseLocalDate(local, tz string) (core.Date, error) {
	loc := Location(tz)
	t, err := parse(local, loc)
	if err != nil {
		return core.Date{}, err
	}
	return core.DateOf(t.In(loc)), nil
}

// Today returns the local calendar day of now in tz.
func Today(tz string, now time.Time) core.Date {
	return ToLocal(now, tz)
}

// StartOfDay returns local midnight of d in tz.
func StartOfDay(d core.Date, tz string) time.Time {
	return d.In(Location(tz))
}

// DayBounds spans the full local day named by local.
func DayBounds(local, tz string) (Range, error) {
	d, err := ParseLocalDate(local, tz)
	if err != nil {
		return Range{}, err
	}
	return DayRange(d, tz), nil
}

// WeekBounds spans the Sunday-based local week containing local.
func WeekBounds(local, tz string) (Range, error) {
	d, err := ParseLocalDate(local, tz)
	if err != nil {
		return Range{}, err
	}
	return WeekRange(d, tz), nil
}

// MonthBounds spans the local calendar month containing local.
func MonthBounds(local, tz string) (Range, error) {
	d, err := ParseLocalDate(local, tz)
	if err != nil {
		return Range{}, err
	}
	return MonthRange(d, tz), nil
}

func DayRange(d core.Date, tz string) Range {
	return RangeForDates(d, d, tz)
}

func WeekRange(d core.Date, tz string) Range {
	start := d.AddDays(-int(d.Weekday()))
	return RangeForDates(start, start.AddDays(6), tz)
}

func MonthRange(d core.Date, tz string) Range {
	first := core.NewDate(d.Year(), d.Month(), 1)
	last := core.NewDate(d.Year(), d.Month(), DaysInMonth(d.Year(), d.Month()))
	return RangeForDates(first, last, tz)
}

// RangeForDates covers the inclusive local date range [start, end].
func RangeForDates(start, end core.Date, tz string) Range {
	loc := Location(tz)
	return Range{Start: start.In(loc), End: end.AddDays(1).In(loc)}
}

// ValidateTransactionDate rejects dates after local today or more than
// five years before it.
func ValidateTransactionDate(date, tz string, now time.Time) error {
	d, err := ParseLocalDate(date, tz)
	if err != nil {
		return err
	}
	return validateDay(d, Today(tz, now))
}

// ValidateTransactionTime is ValidateTransactionDate for a stored instant.
func ValidateTransactionTime(t time.Time, tz string, now time.Time) error {
	if t.IsZero() {
		return fmt.Errorf("%w: transaction date is required", core.ErrInvalidDate)
	}
	return validateDay(ToLocal(t, tz), Today(tz, now))
}

func validateDay(d, today core.Date) error {
	if d.After(today) {
		return fmt.Errorf("%w: %s is after %s", core.ErrFutureDate, d, today)
	}
	limit := AddYearsClipped(today, -StaleAfterYears)
	if d.Before(limit) {
		return fmt.Errorf("%w: %s is before %s", core.ErrStaleDate, d, limit)
	}
	return nil
}

// DaysBetween returns the number of calendar days from a to b.
func DaysBetween(a, b core.Date) int {
	return int(b.Time.Sub(a.Time) / (24 * time.Hour))
}

func AddDays(d core.Date, n int) core.Date {
	return d.AddDays(n)
}

// AddMonthsClipped moves d by n calendar months, clipping the day to the
// last day of the target month (Jan 31 + 1 month = Feb 28/29).
func AddMonthsClipped(d core.Date, n int) core.Date {
	first := time.Date(d.Year(), d.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	day := min(d.Day(), DaysInMonth(first.Year(), first.Month()))
	return core.NewDate(first.Year(), first.Month(), day)
}

// AddYearsClipped moves d by n years; Feb 29 clips to Feb 28.
func AddYearsClipped(d core.Date, n int) core.Date {
	return AddMonthsClipped(d, 12*n)
}

func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func parse(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty date", core.ErrInvalidDate)
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", core.ErrInvalidDate, s)
}
