package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"paycycle/internal/analytics"
	"paycycle/internal/core"
)

const maxBodyBytes = 1 << 20

var errBadRequest = errors.New("bad request")

// parseRange reads start and end as YYYY-MM-DD. Both or neither must be
// given; neither selects the service default.
func parseRange(r *http.Request) (analytics.DateRange, error) {
	start := strings.TrimSpace(r.URL.Query().Get("start"))
	end := strings.TrimSpace(r.URL.Query().Get("end"))
	if start == "" && end == "" {
		return analytics.DateRange{}, nil
	}
	if start == "" || end == "" {
		return analytics.DateRange{}, fmt.Errorf("%w: start and end must be given together", errBadRequest)
	}
	return analytics.NewDateRange(start, end)
}

// parseBudget reads the optional budget override.
func parseBudget(r *http.Request) (*decimal.Decimal, error) {
	v := strings.TrimSpace(r.URL.Query().Get("budget"))
	if v == "" {
		return nil, nil
	}
	d, err := core.ParseAmount(v)
	if err != nil {
		return nil, fmt.Errorf("%w: budget %q", err, v)
	}
	return &d, nil
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// parseInstant accepts RFC 3339 timestamps.
func parseInstant(field, s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s %q", core.ErrInvalidDate, field, s)
	}
	return t, nil
}

type transactionRequest struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Date        string          `json:"date"`
	DueDate     string          `json:"dueDate"`
	Status      string          `json:"status"`
	Recurrence  string          `json:"recurrence"`
	Category    string          `json:"category"`
	Subcategory string          `json:"subcategory"`
	Merchant    string          `json:"merchant"`
	Description string          `json:"description"`
}

func (req transactionRequest) toRecord(userID string) (core.TransactionRecord, error) {
	date, err := parseInstant("date", req.Date)
	if err != nil {
		return core.TransactionRecord{}, err
	}
	tx := core.TransactionRecord{
		ID:          req.ID,
		UserID:      userID,
		Amount:      req.Amount,
		Type:        core.TransactionType(strings.ToUpper(strings.TrimSpace(req.Type))),
		Date:        date,
		Recurrence:  sanitizeInput(req.Recurrence),
		Category:    sanitizeInput(req.Category),
		Subcategory: sanitizeInput(req.Subcategory),
		Merchant:    sanitizeInput(req.Merchant),
		Description: sanitizeInput(req.Description),
	}
	if req.DueDate != "" {
		due, err := parseInstant("dueDate", req.DueDate)
		if err != nil {
			return core.TransactionRecord{}, err
		}
		tx.DueDate = &due
	}
	if req.Status != "" {
		tx.Status = core.StatusPtr(core.PaymentStatus(strings.ToUpper(strings.TrimSpace(req.Status))))
	}
	return tx, nil
}

type profileRequest struct {
	Timezone        string           `json:"timezone"`
	BaseIncome      decimal.Decimal  `json:"baseIncome"`
	IncomeFrequency string           `json:"incomeFrequency"`
	NextPayDate     string           `json:"nextPayDate"`
	FixedExpenses   decimal.Decimal  `json:"fixedExpenses"`
	RolloverAmount  decimal.Decimal  `json:"rolloverAmount"`
	MonthlyBudget   *decimal.Decimal `json:"monthlyBudget"`
}

func (req profileRequest) toProfile(userID string) (core.UserFinancialProfile, error) {
	p := core.UserFinancialProfile{
		UserID:          userID,
		Timezone:        strings.TrimSpace(req.Timezone),
		BaseIncome:      req.BaseIncome,
		IncomeFrequency: core.Frequency(req.IncomeFrequency),
		FixedExpenses:   req.FixedExpenses,
		RolloverAmount:  req.RolloverAmount,
		MonthlyBudget:   req.MonthlyBudget,
	}
	if req.NextPayDate != "" {
		d, err := core.ParseDate(req.NextPayDate)
		if err != nil {
			return core.UserFinancialProfile{}, err
		}
		p.NextPayDate = &d
	}
	return p, nil
}

type goalRequest struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Type           string          `json:"type"`
	Status         string          `json:"status"`
	MonthlyTarget  decimal.Decimal `json:"monthlyTarget"`
	MinimumPayment decimal.Decimal `json:"minimumPayment"`
}

func (req goalRequest) toGoal(userID string) core.Goal {
	return core.Goal{
		ID:             req.ID,
		UserID:         userID,
		Name:           sanitizeInput(req.Name),
		Type:           core.GoalType(strings.ToUpper(strings.TrimSpace(req.Type))),
		Status:         core.GoalStatus(strings.ToUpper(strings.TrimSpace(req.Status))),
		MonthlyTarget:  req.MonthlyTarget,
		MinimumPayment: req.MinimumPayment,
	}
}

type contributionRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Date   string          `json:"date"`
	Type   string          `json:"type"`
}

func (req contributionRequest) toContribution(goalID string) (core.GoalContribution, error) {
	c := core.GoalContribution{
		GoalID: goalID,
		Amount: req.Amount,
		Type:   core.ContributionType(strings.ToUpper(strings.TrimSpace(req.Type))),
	}
	if req.Date != "" {
		t, err := parseInstant("date", req.Date)
		if err != nil {
			return core.GoalContribution{}, err
		}
		c.Date = t
	}
	return c, nil
}

// sanitizeInput removes control characters except tab, newline and
// carriage return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
