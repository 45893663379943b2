// Package http exposes the analytics service as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"

	"paycycle/internal/analytics"
	"paycycle/internal/core"
	"paycycle/internal/log"
	"paycycle/internal/summary"
)

// AnalyticsAPI is the service surface the handlers call.
type AnalyticsAPI interface {
	Summary(ctx context.Context, userID string) (summary.BalanceSummary, error)
	TransactionAnalytics(ctx context.Context, userID string, rng analytics.DateRange, budget *decimal.Decimal) (analytics.TransactionAnalytics, error)
	Discretionary(ctx context.Context, userID string, rng analytics.DateRange) (analytics.DiscretionaryBreakdown, error)
	Patterns(ctx context.Context, userID string, rng analytics.DateRange) (analytics.PatternReport, error)
	Trends(ctx context.Context, userID string, rng analytics.DateRange) (analytics.TrendSeries, error)
	ExportTrends(ctx context.Context, userID string, rng analytics.DateRange) (string, analytics.TrendSeries, error)
	RecordTransaction(ctx context.Context, tx core.TransactionRecord) (string, error)
	SaveProfile(ctx context.Context, p core.UserFinancialProfile) error
	SaveGoal(ctx context.Context, g core.Goal) (string, error)
	AddContribution(ctx context.Context, userID string, c core.GoalContribution) (string, error)
}

// Options tune the server. Zero values select the defaults.
type Options struct {
	RequestTimeout    time.Duration
	RequestsPerMinute int
	Logger            *log.Logger
}

type Server struct {
	http.Server
	api          AnalyticsAPI
	limiter      *rateLimiter
	shutdownOnce sync.Once
}

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(addr string, api AnalyticsAPI, opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}

	s := &Server{
		api:     api,
		limiter: newRateLimiter(opts.RequestsPerMinute),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(log.Middleware(opts.Logger))
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)

	r.Get("/healthz", handleHealth)

	r.Route("/api/users/{userID}", func(r chi.Router) {
		r.Use(middleware.Timeout(opts.RequestTimeout))

		r.Get("/summary", s.handleSummary)
		r.Get("/analytics", s.handleAnalytics)
		r.Get("/discretionary", s.handleDiscretionary)
		r.Get("/patterns", s.handlePatterns)
		r.Get("/trends", s.handleTrends)

		r.Group(func(r chi.Router) {
			r.Use(s.limiter.middleware)
			r.Put("/profile", s.handleSaveProfile)
			r.Post("/transactions", s.handleRecordTransaction)
			r.Post("/goals", s.handleSaveGoal)
			r.Post("/goals/{goalID}/contributions", s.handleAddContribution)
			r.Post("/reports/trends", s.handleExportTrends)
		})
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Shutdown stops the rate limiter cleanup and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
