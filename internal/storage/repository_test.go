package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"paycycle/internal/core"
)

func newTestRepository(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "paycycle.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestSQLiteRepository_Profile(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	if _, err := repo.GetProfile(ctx, "nobody"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("GetProfile(missing) error = %v, want ErrNotFound", err)
	}

	anchor := core.NewDate(2025, time.January, 15)
	budget := dec("2000")
	want := core.UserFinancialProfile{
		UserID:          "u1",
		Timezone:        "Australia/Sydney",
		BaseIncome:      dec("3000.50"),
		IncomeFrequency: core.Monthly,
		NextPayDate:     &anchor,
		FixedExpenses:   dec("1200"),
		RolloverAmount:  dec("0"),
		MonthlyBudget:   &budget,
	}
	if err := repo.SaveProfile(ctx, want); err != nil {
		t.Fatalf("SaveProfile() error = %v", err)
	}

	got, err := repo.GetProfile(ctx, "u1")
	if err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}
	if got.Timezone != want.Timezone || got.IncomeFrequency != want.IncomeFrequency {
		t.Errorf("GetProfile() = %+v, want %+v", got, want)
	}
	if !got.BaseIncome.Equal(want.BaseIncome) {
		t.Errorf("BaseIncome = %s, want %s", got.BaseIncome, want.BaseIncome)
	}
	if got.NextPayDate == nil || !got.NextPayDate.Equal(anchor) {
		t.Errorf("NextPayDate = %v, want %v", got.NextPayDate, anchor)
	}
	if got.MonthlyBudget == nil || !got.MonthlyBudget.Equal(budget) {
		t.Errorf("MonthlyBudget = %v, want %v", got.MonthlyBudget, budget)
	}

	// upsert clears the optional fields
	want.NextPayDate, want.MonthlyBudget = nil, nil
	if err := repo.SaveProfile(ctx, want); err != nil {
		t.Fatalf("SaveProfile() error = %v", err)
	}
	got, _ = repo.GetProfile(ctx, "u1")
	if got.NextPayDate != nil || got.MonthlyBudget != nil {
		t.Errorf("GetProfile() after upsert = %+v, want nil optionals", got)
	}

	profiles, err := repo.ListProfiles(ctx)
	if err != nil {
		t.Fatalf("ListProfiles() error = %v", err)
	}
	if len(profiles) != 1 {
		t.Errorf("ListProfiles() len = %d, want 1", len(profiles))
	}
}

func TestSQLiteRepository_Transactions(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	day := func(d int) time.Time { return time.Date(2025, time.March, d, 10, 0, 0, 0, time.UTC) }
	due := day(20)

	records := []core.TransactionRecord{
		{UserID: "u1", Amount: dec("12.50"), Type: core.Expense, Date: day(5), Category: "Food", Merchant: "Cafe"},
		{UserID: "u1", Amount: dec("900"), Type: core.Expense, Date: day(1).AddDate(0, -1, 0), DueDate: &due,
			Status: core.StatusPtr(core.Upcoming), Recurrence: "monthly", Category: "Rent"},
		{UserID: "u1", Amount: dec("40"), Type: core.Expense, Date: day(1).AddDate(0, 1, 0)},
		{UserID: "u2", Amount: dec("7"), Type: core.Expense, Date: day(5)},
	}
	for _, r := range records {
		id, err := repo.SaveTransaction(ctx, r)
		if err != nil {
			t.Fatalf("SaveTransaction() error = %v", err)
		}
		if id == "" {
			t.Fatalf("SaveTransaction() id is empty")
		}
	}

	from := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)
	got, err := repo.ListTransactions(ctx, "u1", from, to)
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListTransactions() len = %d, want 2 (dated and due in range)", len(got))
	}

	// ordered by occurred_at: the rent record was dated in February
	rent := got[0]
	if rent.Category != "Rent" || rent.DueDate == nil || !rent.DueDate.Equal(due) {
		t.Errorf("rent record = %+v", rent)
	}
	if rent.Status == nil || *rent.Status != core.Upcoming {
		t.Errorf("rent status = %v, want UPCOMING", rent.Status)
	}
	if !got[1].Amount.Equal(dec("12.50")) || got[1].Merchant != "Cafe" {
		t.Errorf("cafe record = %+v", got[1])
	}
	if !got[1].Date.Equal(day(5)) {
		t.Errorf("Date = %v, want %v", got[1].Date, day(5))
	}
}

func TestSQLiteRepository_Goals(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	id, err := repo.SaveGoal(ctx, core.Goal{UserID: "u1", Name: "Car loan", Type: core.GoalDebtPayoff,
		MonthlyTarget: dec("300"), MinimumPayment: dec("150")})
	if err != nil {
		t.Fatalf("SaveGoal() error = %v", err)
	}
	at := time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)
	if _, err := repo.AddContribution(ctx, core.GoalContribution{GoalID: id, Amount: dec("150"), Date: at, Type: core.ContributionManual}); err != nil {
		t.Fatalf("AddContribution() error = %v", err)
	}
	if _, err := repo.SaveGoal(ctx, core.Goal{UserID: "u2", Name: "Other", Type: core.GoalSavings}); err != nil {
		t.Fatalf("SaveGoal() error = %v", err)
	}

	goals, err := repo.ListGoals(ctx, "u1")
	if err != nil {
		t.Fatalf("ListGoals() error = %v", err)
	}
	if len(goals) != 1 {
		t.Fatalf("ListGoals() len = %d, want 1", len(goals))
	}
	g := goals[0]
	if g.Status != core.GoalActive {
		t.Errorf("Status = %s, want ACTIVE default", g.Status)
	}
	if !g.MinimumPayment.Equal(dec("150")) {
		t.Errorf("MinimumPayment = %s, want 150", g.MinimumPayment)
	}
	if len(g.Contributions) != 1 || !g.Contributions[0].Date.Equal(at) {
		t.Errorf("Contributions = %+v", g.Contributions)
	}
}

func TestSQLiteRepository_AdvancePayPeriod(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	from := core.NewDate(2025, time.March, 1)
	to := core.NewDate(2025, time.April, 1)
	if err := repo.SaveProfile(ctx, core.UserFinancialProfile{
		UserID: "u1", Timezone: "UTC", BaseIncome: dec("3000"), IncomeFrequency: core.Monthly, NextPayDate: &from,
	}); err != nil {
		t.Fatalf("SaveProfile() error = %v", err)
	}

	if err := repo.AdvancePayPeriod(ctx, "u1", from, to, dec("125.40")); err != nil {
		t.Fatalf("AdvancePayPeriod() error = %v", err)
	}
	got, _ := repo.GetProfile(ctx, "u1")
	if !got.NextPayDate.Equal(to) {
		t.Errorf("NextPayDate = %s, want %s", got.NextPayDate, to)
	}
	if !got.RolloverAmount.Equal(dec("125.40")) {
		t.Errorf("RolloverAmount = %s, want 125.40", got.RolloverAmount)
	}

	err := repo.AdvancePayPeriod(ctx, "u1", from, to, dec("1"))
	if !errors.Is(err, core.ErrAnchorMoved) {
		t.Errorf("AdvancePayPeriod() replay error = %v, want ErrAnchorMoved", err)
	}
}
