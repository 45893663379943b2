package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"paycycle/internal/analytics"
	ports "paycycle/internal/sheets"
)

// Export is one recorded trend report.
type Export struct {
	UserID string
	Report analytics.TrendSeries
}

// Store records exported reports in memory.
type Store struct {
	mu      sync.Mutex
	exports []Export
}

var _ ports.ReportWriter = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// AppendTrendReport stores the report and returns a synthetic reference.
func (s *Store) AppendTrendReport(_ context.Context, userID string, report analytics.TrendSeries) (string, error) {
	if userID == "" {
		return "", errors.New("missing user id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exports = append(s.exports, Export{UserID: userID, Report: report})
	return fmt.Sprintf("mem:%d", len(s.exports)), nil
}

// Exports returns the recorded reports in order.
func (s *Store) Exports() []Export {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Export(nil), s.exports...)
}
