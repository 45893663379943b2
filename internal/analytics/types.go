// Package analytics derives trend, burn-rate, velocity, pattern and
// category aggregates from an already fetched transaction snapshot.
//
// All functions are pure. Amounts accumulate as decimals and are rounded
// once when written into a report. Empty input, an inverted range or a zero
// divisor yield zero values, never errors.
package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"paycycle/internal/calendar"
	"paycycle/internal/core"
)

// DateRange is an inclusive range of local calendar days.
type DateRange struct {
	Start core.Date
	End   core.Date
}

// NewDateRange parses two YYYY-MM-DD strings.
func NewDateRange(start, end string) (DateRange, error) {
	s, err := core.ParseDate(start)
	if err != nil {
		return DateRange{}, err
	}
	e, err := core.ParseDate(end)
	if err != nil {
		return DateRange{}, err
	}
	return DateRange{Start: s, End: e}, nil
}

// Valid reports whether start is not after end.
func (r DateRange) Valid() bool {
	return !r.Start.IsZero() && !r.End.IsZero() && !r.Start.After(r.End)
}

// Days is the number of calendar days covered, zero for invalid ranges.
func (r DateRange) Days() int {
	if !r.Valid() {
		return 0
	}
	return calendar.DaysBetween(r.Start, r.End) + 1
}

func (r DateRange) Contains(d core.Date) bool {
	return r.Valid() && !d.Before(r.Start) && !d.After(r.End)
}

// Previous is the range of equal length that ends the day before r starts.
func (r DateRange) Previous() DateRange {
	n := r.Days()
	if n == 0 {
		return DateRange{}
	}
	return DateRange{Start: r.Start.AddDays(-n), End: r.Start.AddDays(-1)}
}

// Instants converts r into a half-open instant range in tz.
func (r DateRange) Instants(tz string) calendar.Range {
	if !r.Valid() {
		return calendar.Range{}
	}
	return calendar.RangeForDates(r.Start, r.End, tz)
}

// RangeReport is the output form of a DateRange.
type RangeReport struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Days  int    `json:"days"`
}

func (r DateRange) Report() RangeReport {
	return RangeReport{Start: r.Start.String(), End: r.End.String(), Days: r.Days()}
}

// localTx is a transaction with its local wall clock time resolved.
type localTx struct {
	core.TransactionRecord
	Local time.Time
	Day   core.Date
}

func localize(txs []core.TransactionRecord, tz string) []localTx {
	loc := calendar.Location(tz)
	out := make([]localTx, 0, len(txs))
	for _, tx := range txs {
		lt := tx.Date.In(loc)
		out = append(out, localTx{TransactionRecord: tx, Local: lt, Day: core.DateOf(lt)})
	}
	return out
}

func average(total decimal.Decimal, n int) decimal.Decimal {
	return core.SafeDiv(total, decimal.NewFromInt(int64(n)))
}
