package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"paycycle/internal/classify"
	"paycycle/internal/core"
)

// TimeBand is a fixed range of local hours. Night wraps midnight.
type TimeBand struct {
	Name      string
	StartHour int
	EndHour   int
}

var TimeBands = []TimeBand{
	{Name: "Morning", StartHour: 6, EndHour: 12},
	{Name: "Afternoon", StartHour: 12, EndHour: 18},
	{Name: "Evening", StartHour: 18, EndHour: 22},
	{Name: "Night", StartHour: 22, EndHour: 6},
}

func (b TimeBand) contains(hour int) bool {
	if b.StartHour < b.EndHour {
		return hour >= b.StartHour && hour < b.EndHour
	}
	return hour >= b.StartHour || hour < b.EndHour
}

func bandIndex(hour int) int {
	for i, b := range TimeBands {
		if b.contains(hour) {
			return i
		}
	}
	return len(TimeBands) - 1
}

type (
	PatternBucket struct {
		Amount     float64 `json:"amount"`
		Count      int     `json:"count"`
		Average    float64 `json:"average"`
		Percentage float64 `json:"percentage"`
	}

	WeekdayPattern struct {
		Day  int    `json:"day"`
		Name string `json:"name"`
		PatternBucket
	}

	TimeBandPattern struct {
		Name      string `json:"name"`
		StartHour int    `json:"startHour"`
		EndHour   int    `json:"endHour"`
		PatternBucket
	}

	HourPattern struct {
		Hour int `json:"hour"`
		PatternBucket
	}

	DayClassPattern struct {
		PatternBucket
		DistinctDays  int     `json:"distinctDays"`
		AveragePerDay float64 `json:"averagePerDay"`
	}

	WeekSplit struct {
		Weekday DayClassPattern `json:"weekday"`
		Weekend DayClassPattern `json:"weekend"`
	}

	PatternReport struct {
		Range     RangeReport       `json:"range"`
		Total     float64           `json:"total"`
		Count     int               `json:"count"`
		Weekdays  []WeekdayPattern  `json:"weekdays"`
		TimeBands []TimeBandPattern `json:"timeOfDay"`
		Hours     []HourPattern     `json:"hours"`
		Split     WeekSplit         `json:"weekdayVsWeekend"`
		PeakDay   string            `json:"peakDay"`
		PeakBand  string            `json:"peakTimeOfDay"`
		PeakHour  int               `json:"peakHour"`
		Insights  []Insight         `json:"insights"`
	}
)

type patternAcc struct {
	amount decimal.Decimal
	count  int
}

func (a *patternAcc) add(d decimal.Decimal) {
	a.amount = a.amount.Add(d)
	a.count++
}

func (a patternAcc) report(total decimal.Decimal) PatternBucket {
	return PatternBucket{
		Amount:     core.Report(a.amount),
		Count:      a.count,
		Average:    core.Report(average(a.amount, a.count)),
		Percentage: core.Report(core.Percent(a.amount, total)),
	}
}

// patternStats holds the full-precision aggregates insights are derived from.
type patternStats struct {
	total        decimal.Decimal
	count        int
	weekdays     [7]patternAcc
	bands        [4]patternAcc
	hours        [24]patternAcc
	weekday      patternAcc
	weekend      patternAcc
	weekdayDays  map[core.Date]struct{}
	weekendDays  map[core.Date]struct{}
	perDayCounts map[core.Date]int
}

func newPatternStats() *patternStats {
	s := &patternStats{
		total:        decimal.Zero,
		weekdayDays:  map[core.Date]struct{}{},
		weekendDays:  map[core.Date]struct{}{},
		perDayCounts: map[core.Date]int{},
	}
	for i := range s.weekdays {
		s.weekdays[i].amount = decimal.Zero
	}
	for i := range s.bands {
		s.bands[i].amount = decimal.Zero
	}
	for i := range s.hours {
		s.hours[i].amount = decimal.Zero
	}
	s.weekday.amount, s.weekend.amount = decimal.Zero, decimal.Zero
	return s
}

func collectPatterns(txs []core.TransactionRecord, rng DateRange, tz string) *patternStats {
	s := newPatternStats()
	for _, tx := range localize(txs, tz) {
		if !rng.Contains(tx.Day) || classify.Classify(tx.TransactionRecord) != classify.Discretionary {
			continue
		}
		wd := tx.Local.Weekday()
		s.total = s.total.Add(tx.Amount)
		s.count++
		s.weekdays[wd].add(tx.Amount)
		s.bands[bandIndex(tx.Local.Hour())].add(tx.Amount)
		s.hours[tx.Local.Hour()].add(tx.Amount)
		s.perDayCounts[tx.Day]++
		if wd == time.Saturday || wd == time.Sunday {
			s.weekend.add(tx.Amount)
			s.weekendDays[tx.Day] = struct{}{}
		} else {
			s.weekday.add(tx.Amount)
			s.weekdayDays[tx.Day] = struct{}{}
		}
	}
	return s
}

func (s *patternStats) weekendShare() decimal.Decimal {
	return core.Percent(s.weekend.amount, s.total)
}

func (s *patternStats) peakBand() (int, decimal.Decimal) {
	best := 0
	for i := range s.bands {
		if s.bands[i].amount.GreaterThan(s.bands[best].amount) {
			best = i
		}
	}
	return best, core.Percent(s.bands[best].amount, s.total)
}

func (s *patternStats) busiestDay() (core.Date, int) {
	var day core.Date
	most := 0
	for d, n := range s.perDayCounts {
		if n > most || (n == most && d.Before(day)) {
			day, most = d, n
		}
	}
	return day, most
}

// Patterns breaks discretionary spending in rng down by weekday, time of
// day and hour, and splits weekdays from weekends.
func Patterns(txs []core.TransactionRecord, rng DateRange, tz string) PatternReport {
	s := collectPatterns(txs, rng, tz)

	r := PatternReport{
		Range:     rng.Report(),
		Total:     core.Report(s.total),
		Count:     s.count,
		Weekdays:  make([]WeekdayPattern, 0, 7),
		TimeBands: make([]TimeBandPattern, 0, len(TimeBands)),
		Hours:     make([]HourPattern, 0, 24),
		PeakHour:  -1,
	}

	peakDay := -1
	for i, a := range s.weekdays {
		r.Weekdays = append(r.Weekdays, WeekdayPattern{Day: i, Name: time.Weekday(i).String(), PatternBucket: a.report(s.total)})
		if a.count > 0 && (peakDay < 0 || a.amount.GreaterThan(s.weekdays[peakDay].amount)) {
			peakDay = i
		}
	}
	if peakDay >= 0 {
		r.PeakDay = time.Weekday(peakDay).String()
	}

	for i, b := range TimeBands {
		r.TimeBands = append(r.TimeBands, TimeBandPattern{
			Name:          b.Name,
			StartHour:     b.StartHour,
			EndHour:       b.EndHour,
			PatternBucket: s.bands[i].report(s.total),
		})
	}
	if s.count > 0 {
		best, _ := s.peakBand()
		r.PeakBand = TimeBands[best].Name
	}

	for h, a := range s.hours {
		r.Hours = append(r.Hours, HourPattern{Hour: h, PatternBucket: a.report(s.total)})
		if a.count > 0 && (r.PeakHour < 0 || a.amount.GreaterThan(s.hours[r.PeakHour].amount)) {
			r.PeakHour = h
		}
	}

	r.Split = WeekSplit{
		Weekday: dayClass(s.weekday, len(s.weekdayDays), s.total),
		Weekend: dayClass(s.weekend, len(s.weekendDays), s.total),
	}
	r.Insights = patternInsights(s)
	return r
}

func dayClass(a patternAcc, days int, total decimal.Decimal) DayClassPattern {
	return DayClassPattern{
		PatternBucket: a.report(total),
		DistinctDays:  days,
		AveragePerDay: core.Report(average(a.amount, days)),
	}
}
