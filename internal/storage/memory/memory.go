// Package memory is a thread-safe in-process Store used by the memory
// backend and by service tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"paycycle/internal/core"
	"paycycle/internal/storage"
)

// Rollover records one applied pay period advance.
type Rollover struct {
	UserID string
	From   core.Date
	To     core.Date
	Amount decimal.Decimal
}

type Store struct {
	mu        sync.RWMutex
	profiles  map[string]core.UserFinancialProfile
	txs       []core.TransactionRecord
	goals     []core.Goal
	rollovers []Rollover
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{profiles: map[string]core.UserFinancialProfile{}}
}

func (s *Store) GetProfile(_ context.Context, userID string) (core.UserFinancialProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return core.UserFinancialProfile{}, fmt.Errorf("profile %s: %w", userID, core.ErrNotFound)
	}
	return copyProfile(p), nil
}

func (s *Store) ListProfiles(_ context.Context) ([]core.UserFinancialProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.UserFinancialProfile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, copyProfile(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (s *Store) SaveProfile(_ context.Context, p core.UserFinancialProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.UserID] = copyProfile(p)
	return nil
}

func (s *Store) AdvancePayPeriod(_ context.Context, userID string, from, to core.Date, rollover decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return fmt.Errorf("profile %s: %w", userID, core.ErrNotFound)
	}
	if p.NextPayDate == nil || !p.NextPayDate.Equal(from) {
		return fmt.Errorf("advance %s from %s: %w", userID, from, core.ErrAnchorMoved)
	}
	p.NextPayDate = &to
	p.RolloverAmount = rollover
	s.profiles[userID] = p
	s.rollovers = append(s.rollovers, Rollover{UserID: userID, From: from, To: to, Amount: rollover})
	return nil
}

// Rollovers returns the applied advances in order.
func (s *Store) Rollovers() []Rollover {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Rollover(nil), s.rollovers...)
}

func (s *Store) ListTransactions(_ context.Context, userID string, from, to time.Time) ([]core.TransactionRecord, error) {
	in := func(t time.Time) bool { return !t.Before(from) && t.Before(to) }

	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.TransactionRecord
	for _, tx := range s.txs {
		if tx.UserID != userID {
			continue
		}
		if in(tx.Date) || (tx.DueDate != nil && in(*tx.DueDate)) {
			out = append(out, tx)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *Store) SaveTransaction(_ context.Context, tx core.TransactionRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	for i := range s.txs {
		if s.txs[i].ID == tx.ID {
			s.txs[i] = tx
			return tx.ID, nil
		}
	}
	s.txs = append(s.txs, tx)
	return tx.ID, nil
}

func (s *Store) ListGoals(_ context.Context, userID string) ([]core.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Goal
	for _, g := range s.goals {
		if g.UserID == userID {
			g.Contributions = append([]core.GoalContribution(nil), g.Contributions...)
			out = append(out, g)
		}
	}
	return out, nil
}

func (s *Store) SaveGoal(_ context.Context, g core.Goal) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.Status == "" {
		g.Status = core.GoalActive
	}
	for i := range s.goals {
		if s.goals[i].ID == g.ID {
			g.Contributions = s.goals[i].Contributions
			s.goals[i] = g
			return g.ID, nil
		}
	}
	g.Contributions = nil
	s.goals = append(s.goals, g)
	return g.ID, nil
}

func (s *Store) AddContribution(_ context.Context, c core.GoalContribution) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	for i := range s.goals {
		if s.goals[i].ID == c.GoalID {
			s.goals[i].Contributions = append(s.goals[i].Contributions, c)
			return c.ID, nil
		}
	}
	return "", fmt.Errorf("goal %s: %w", c.GoalID, core.ErrNotFound)
}

func copyProfile(p core.UserFinancialProfile) core.UserFinancialProfile {
	if p.NextPayDate != nil {
		d := *p.NextPayDate
		p.NextPayDate = &d
	}
	if p.MonthlyBudget != nil {
		b := *p.MonthlyBudget
		p.MonthlyBudget = &b
	}
	return p
}
