package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"paycycle/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

var _ Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping implements a readiness probe.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const profileColumns = `user_id, timezone, base_income, income_frequency, next_pay_date,
	fixed_expenses, rollover_amount, monthly_budget`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(s rowScanner) (core.UserFinancialProfile, error) {
	var (
		p                           core.UserFinancialProfile
		base, fixed, rollover, freq string
		nextPay, budget             sql.NullString
	)
	if err := s.Scan(&p.UserID, &p.Timezone, &base, &freq, &nextPay, &fixed, &rollover, &budget); err != nil {
		return p, err
	}
	p.IncomeFrequency = core.Frequency(freq)

	var err error
	if p.BaseIncome, err = decimal.NewFromString(base); err != nil {
		return p, fmt.Errorf("parse base income: %w", err)
	}
	if p.FixedExpenses, err = decimal.NewFromString(fixed); err != nil {
		return p, fmt.Errorf("parse fixed expenses: %w", err)
	}
	if p.RolloverAmount, err = decimal.NewFromString(rollover); err != nil {
		return p, fmt.Errorf("parse rollover amount: %w", err)
	}
	if nextPay.Valid && nextPay.String != "" {
		d, err := core.ParseDate(nextPay.String)
		if err != nil {
			return p, fmt.Errorf("parse next pay date: %w", err)
		}
		p.NextPayDate = &d
	}
	if budget.Valid && budget.String != "" {
		b, err := decimal.NewFromString(budget.String)
		if err != nil {
			return p, fmt.Errorf("parse monthly budget: %w", err)
		}
		p.MonthlyBudget = &b
	}
	return p, nil
}

// GetProfile implements ProfileStore
func (r *SQLiteRepository) GetProfile(ctx context.Context, userID string) (core.UserFinancialProfile, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE user_id = ?`, userID)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.UserFinancialProfile{}, fmt.Errorf("profile %s: %w", userID, core.ErrNotFound)
	}
	if err != nil {
		return core.UserFinancialProfile{}, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// ListProfiles implements ProfileStore
func (r *SQLiteRepository) ListProfiles(ctx context.Context) ([]core.UserFinancialProfile, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+profileColumns+` FROM profiles ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var out []core.UserFinancialProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SaveProfile implements ProfileStore
func (r *SQLiteRepository) SaveProfile(ctx context.Context, p core.UserFinancialProfile) error {
	var nextPay, budget any
	if p.NextPayDate != nil {
		nextPay = p.NextPayDate.String()
	}
	if p.MonthlyBudget != nil {
		budget = p.MonthlyBudget.String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (`+profileColumns+`, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			timezone = excluded.timezone,
			base_income = excluded.base_income,
			income_frequency = excluded.income_frequency,
			next_pay_date = excluded.next_pay_date,
			fixed_expenses = excluded.fixed_expenses,
			rollover_amount = excluded.rollover_amount,
			monthly_budget = excluded.monthly_budget,
			updated_at = excluded.updated_at`,
		p.UserID, p.Timezone, p.BaseIncome.String(), string(p.IncomeFrequency), nextPay,
		p.FixedExpenses.String(), p.RolloverAmount.String(), budget, FormatTime(r.now()))
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	slog.InfoContext(ctx, "Profile saved to SQLite", "user_id", p.UserID)
	return nil
}

// AdvancePayPeriod implements ProfileStore
func (r *SQLiteRepository) AdvancePayPeriod(ctx context.Context, userID string, from, to core.Date, rollover decimal.Decimal) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin advance pay period: %w", err)
	}
	defer tx.Rollback()

	now := FormatTime(r.now())
	res, err := tx.ExecContext(ctx, `
		UPDATE profiles SET next_pay_date = ?, rollover_amount = ?, updated_at = ?
		WHERE user_id = ? AND next_pay_date = ?`,
		to.String(), rollover.String(), now, userID, from.String())
	if err != nil {
		return fmt.Errorf("update pay anchor: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update pay anchor: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("advance %s from %s: %w", userID, from, core.ErrAnchorMoved)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO period_rollovers (user_id, from_anchor, to_anchor, amount, applied_at)
		VALUES (?, ?, ?, ?, ?)`,
		userID, from.String(), to.String(), rollover.String(), now); err != nil {
		return fmt.Errorf("record rollover: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit advance pay period: %w", err)
	}

	slog.InfoContext(ctx, "Pay period advanced",
		"user_id", userID,
		"from", from.String(),
		"to", to.String(),
		"rollover", rollover.StringFixed(2))
	return nil
}

const transactionColumns = `id, user_id, amount, type, occurred_at, due_at, status,
	recurrence, category, subcategory, merchant, description`

// ListTransactions implements TransactionStore
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID string, from, to time.Time) ([]core.TransactionRecord, error) {
	f, t := FormatTime(from), FormatTime(to)
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE user_id = ?
		  AND ((occurred_at >= ? AND occurred_at < ?) OR (due_at >= ? AND due_at < ?))
		ORDER BY occurred_at, id`,
		userID, f, t, f, t)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.TransactionRecord
	for rows.Next() {
		var (
			tx                core.TransactionRecord
			amount, ty, occur string
			due, status       sql.NullString
		)
		if err := rows.Scan(&tx.ID, &tx.UserID, &amount, &ty, &occur, &due, &status,
			&tx.Recurrence, &tx.Category, &tx.Subcategory, &tx.Merchant, &tx.Description); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Type = core.TransactionType(ty)
		if tx.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse amount of %s: %w", tx.ID, err)
		}
		if tx.Date, err = ParseTime(occur); err != nil {
			return nil, fmt.Errorf("parse date of %s: %w", tx.ID, err)
		}
		if due.Valid {
			d, err := ParseTime(due.String)
			if err != nil {
				return nil, fmt.Errorf("parse due date of %s: %w", tx.ID, err)
			}
			tx.DueDate = &d
		}
		if status.Valid {
			tx.Status = core.StatusPtr(core.PaymentStatus(status.String))
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// SaveTransaction implements TransactionStore
func (r *SQLiteRepository) SaveTransaction(ctx context.Context, t core.TransactionRecord) (string, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	var due, status any
	if t.DueDate != nil {
		due = FormatTime(*t.DueDate)
	}
	if t.Status != nil {
		status = string(*t.Status)
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (`+transactionColumns+`, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			amount = excluded.amount,
			type = excluded.type,
			occurred_at = excluded.occurred_at,
			due_at = excluded.due_at,
			status = excluded.status,
			recurrence = excluded.recurrence,
			category = excluded.category,
			subcategory = excluded.subcategory,
			merchant = excluded.merchant,
			description = excluded.description`,
		t.ID, t.UserID, t.Amount.String(), string(t.Type), FormatTime(t.Date), due, status,
		t.Recurrence, t.Category, t.Subcategory, t.Merchant, t.Description, FormatTime(r.now()))
	if err != nil {
		return "", fmt.Errorf("save transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"user_id", t.UserID,
		"type", t.Type,
		"amount", t.Amount.StringFixed(2))
	return t.ID, nil
}

// ListGoals implements GoalStore
func (r *SQLiteRepository) ListGoals(ctx context.Context, userID string) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, type, status, monthly_target, minimum_payment
		FROM goals WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}

	var goals []core.Goal
	index := map[string]int{}
	for rows.Next() {
		var (
			g                           core.Goal
			ty, status, target, minimum string
		)
		if err := rows.Scan(&g.ID, &g.UserID, &g.Name, &ty, &status, &target, &minimum); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		g.Type, g.Status = core.GoalType(ty), core.GoalStatus(status)
		if g.MonthlyTarget, err = decimal.NewFromString(target); err != nil {
			rows.Close()
			return nil, fmt.Errorf("parse monthly target of %s: %w", g.ID, err)
		}
		if g.MinimumPayment, err = decimal.NewFromString(minimum); err != nil {
			rows.Close()
			return nil, fmt.Errorf("parse minimum payment of %s: %w", g.ID, err)
		}
		index[g.ID] = len(goals)
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("list goals: %w", err)
	}
	rows.Close()

	if len(goals) == 0 {
		return goals, nil
	}

	crows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.goal_id, c.amount, c.contributed_at, c.type
		FROM goal_contributions c JOIN goals g ON g.id = c.goal_id
		WHERE g.user_id = ? ORDER BY c.contributed_at, c.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list goal contributions: %w", err)
	}
	defer crows.Close()

	for crows.Next() {
		var (
			c              core.GoalContribution
			amount, at, ty string
		)
		if err := crows.Scan(&c.ID, &c.GoalID, &amount, &at, &ty); err != nil {
			return nil, fmt.Errorf("scan goal contribution: %w", err)
		}
		c.Type = core.ContributionType(ty)
		if c.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse contribution amount of %s: %w", c.ID, err)
		}
		if c.Date, err = ParseTime(at); err != nil {
			return nil, fmt.Errorf("parse contribution date of %s: %w", c.ID, err)
		}
		if i, ok := index[c.GoalID]; ok {
			goals[i].Contributions = append(goals[i].Contributions, c)
		}
	}
	return goals, crows.Err()
}

// SaveGoal implements GoalStore
func (r *SQLiteRepository) SaveGoal(ctx context.Context, g core.Goal) (string, error) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.Status == "" {
		g.Status = core.GoalActive
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO goals (id, user_id, name, type, status, monthly_target, minimum_payment)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			status = excluded.status,
			monthly_target = excluded.monthly_target,
			minimum_payment = excluded.minimum_payment`,
		g.ID, g.UserID, g.Name, string(g.Type), string(g.Status), g.MonthlyTarget.String(), g.MinimumPayment.String())
	if err != nil {
		return "", fmt.Errorf("save goal: %w", err)
	}
	return g.ID, nil
}

// AddContribution implements GoalStore
func (r *SQLiteRepository) AddContribution(ctx context.Context, c core.GoalContribution) (string, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO goal_contributions (id, goal_id, amount, contributed_at, type)
		VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.GoalID, c.Amount.String(), FormatTime(c.Date), string(c.Type))
	if err != nil {
		return "", fmt.Errorf("add goal contribution: %w", err)
	}
	return c.ID, nil
}
