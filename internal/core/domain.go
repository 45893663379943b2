package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const DateLayout = "2006-01-02"

const (
	Weekly      Frequency = "WEEKLY"
	Fortnightly Frequency = "FORTNIGHTLY"
	Monthly     Frequency = "MONTHLY"
)

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"
)

const (
	Paid     PaymentStatus = "PAID"
	Upcoming PaymentStatus = "UPCOMING"
	Overdue  PaymentStatus = "OVERDUE"
)

const (
	GoalSavings    GoalType = "SAVINGS"
	GoalInvestment GoalType = "INVESTMENT"
	GoalDebtPayoff GoalType = "DEBT_PAYOFF"
)

const (
	GoalActive    GoalStatus = "ACTIVE"
	GoalPaused    GoalStatus = "PAUSED"
	GoalCompleted GoalStatus = "COMPLETED"
)

const (
	ContributionManual      ContributionType = "MANUAL"
	ContributionAutomatic   ContributionType = "AUTOMATIC"
	ContributionTransaction ContributionType = "TRANSACTION"
	ContributionAdjustment  ContributionType = "ADJUSTMENT"
)

type (
	Frequency        string
	TransactionType  string
	PaymentStatus    string
	GoalType         string
	GoalStatus       string
	ContributionType string

	// Date is a calendar day without a time zone. The embedded time is
	// always midnight UTC so two Dates compare by calendar position only.
	Date struct {
		time.Time
	}

	// UserFinancialProfile is the read-only view of a user's income
	// configuration used by the analytics engine.
	UserFinancialProfile struct {
		UserID          string
		Timezone        string
		BaseIncome      decimal.Decimal
		IncomeFrequency Frequency
		NextPayDate     *Date
		FixedExpenses   decimal.Decimal
		RolloverAmount  decimal.Decimal
		MonthlyBudget   *decimal.Decimal
	}

	TransactionRecord struct {
		ID          string
		UserID      string
		Amount      decimal.Decimal // magnitude, always positive
		Type        TransactionType
		Date        time.Time
		DueDate     *time.Time
		Status      *PaymentStatus
		Recurrence  string
		Category    string
		Subcategory string
		Merchant    string
		Description string
	}

	Goal struct {
		ID             string
		UserID         string
		Name           string
		Type           GoalType
		Status         GoalStatus
		MonthlyTarget  decimal.Decimal
		MinimumPayment decimal.Decimal
		Contributions  []GoalContribution
	}

	GoalContribution struct {
		ID     string
		GoalID string
		Amount decimal.Decimal
		Date   time.Time
		Type   ContributionType
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrFutureDate       = errors.New("date is in the future")
	ErrStaleDate        = errors.New("date is more than 5 years in the past")
	ErrInvalidFrequency = errors.New("invalid income frequency")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrInvalidStatus    = errors.New("invalid payment status")
	ErrNotFound         = errors.New("not found")
	ErrMissingUserID    = errors.New("missing user id")
	ErrAnchorMoved      = errors.New("pay anchor already advanced")
)

// NewDate creates a new Date from year, month, day
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// DateOf returns the calendar day of t as seen in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() time.Month {
	return d.Time.Month()
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// AddDays moves the date by n calendar days.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }
func (d Date) After(o Date) bool  { return d.Time.After(o.Time) }
func (d Date) Equal(o Date) bool  { return d.Time.Equal(o.Time) }

// In returns local midnight of the day in loc.
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date cannot be zero", ErrInvalidDate)
	}
	return nil
}

// ParseFrequency normalises a stored frequency value.
func ParseFrequency(s string) (Frequency, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "WEEKLY":
		return Weekly, nil
	case "FORTNIGHTLY", "BIWEEKLY":
		return Fortnightly, nil
	case "MONTHLY":
		return Monthly, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidFrequency, s)
	}
}

func (f Frequency) String() string { return string(f) }

func (t TransactionType) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidType, string(t))
	}
}

func (s PaymentStatus) Validate() error {
	switch s {
	case Paid, Upcoming, Overdue:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStatus, string(s))
	}
}

// StatusPtr is a convenience for optional status fields.
func StatusPtr(s PaymentStatus) *PaymentStatus { return &s }

// IsRecurring reports whether the recurrence tag names an actual cadence.
func IsRecurring(tag string) bool {
	t := strings.ToLower(strings.TrimSpace(tag))
	return t != "" && t != "none"
}

// Validate checks the invariants that do not depend on the user's calendar.
// The accepted date window is enforced by calendar.ValidateTransactionDate.
func (t TransactionRecord) Validate() error {
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !IsWholeCents(t.Amount) {
		return fmt.Errorf("%w: %s has fractions of a cent", ErrInvalidAmount, t.Amount)
	}
	if err := t.Type.Validate(); err != nil {
		return err
	}
	if t.Date.IsZero() {
		return fmt.Errorf("%w: transaction date is required", ErrInvalidDate)
	}
	if t.Status != nil {
		if err := t.Status.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Label returns the best human description of the transaction.
func (t TransactionRecord) Label() string {
	if s := strings.TrimSpace(t.Merchant); s != "" {
		return s
	}
	return strings.TrimSpace(t.Description)
}

// IsOpen reports whether the goal still expects contributions.
func (g Goal) IsOpen() bool {
	return g.Status != GoalCompleted && g.Status != GoalPaused
}

// IsDebt reports whether the goal pays a debt down rather than saving.
func (g Goal) IsDebt() bool {
	return g.Type == GoalDebtPayoff
}

// Counts reports whether the contribution represents money actually moved.
func (c GoalContribution) Counts() bool {
	switch c.Type {
	case ContributionManual, ContributionAutomatic, ContributionTransaction:
		return true
	default:
		return false
	}
}

// HasPayCycle reports whether the profile carries enough data to derive a
// pay period.
func (p UserFinancialProfile) HasPayCycle() bool {
	if p.NextPayDate == nil || p.NextPayDate.IsZero() {
		return false
	}
	_, err := ParseFrequency(string(p.IncomeFrequency))
	return err == nil
}
