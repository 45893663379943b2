// Package storage persists profiles, transactions and goals for the
// analytics service. The engine never reads storage directly: the service
// fetches a snapshot through these ports and hands it to the engine.
package storage

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"paycycle/internal/core"
)

// Ports implemented by the SQLite repository and the in-memory store.
type (
	ProfileStore interface {
		GetProfile(ctx context.Context, userID string) (core.UserFinancialProfile, error)
		ListProfiles(ctx context.Context) ([]core.UserFinancialProfile, error)
		SaveProfile(ctx context.Context, p core.UserFinancialProfile) error
		// AdvancePayPeriod moves the anchor from -> to and stores the
		// carried amount. It fails with core.ErrAnchorMoved when the stored
		// anchor is no longer from.
		AdvancePayPeriod(ctx context.Context, userID string, from, to core.Date, rollover decimal.Decimal) error
	}

	TransactionStore interface {
		// ListTransactions returns records dated, or due, in [from, to).
		ListTransactions(ctx context.Context, userID string, from, to time.Time) ([]core.TransactionRecord, error)
		SaveTransaction(ctx context.Context, tx core.TransactionRecord) (id string, err error)
	}

	GoalStore interface {
		// ListGoals returns the user's goals with their contributions.
		ListGoals(ctx context.Context, userID string) ([]core.Goal, error)
		SaveGoal(ctx context.Context, g core.Goal) (id string, err error)
		AddContribution(ctx context.Context, c core.GoalContribution) (id string, err error)
	}

	Store interface {
		ProfileStore
		TransactionStore
		GoalStore
	}
)

// TimeLayout is a fixed width UTC layout so stored instants sort
// lexicographically.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

func ParseTime(s string) (time.Time, error) {
	return time.Parse(TimeLayout, s)
}
