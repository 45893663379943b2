package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"paycycle/internal/analytics"
	"paycycle/internal/log"
)

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	res, err := s.api.Summary(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	budget, err := parseBudget(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.api.TransactionAnalytics(r.Context(), chi.URLParam(r, "userID"), rng, budget)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleDiscretionary(w http.ResponseWriter, r *http.Request) {
	rangeHandler(w, r, s.api.Discretionary)
}

func (s *Server) handlePatterns(w http.ResponseWriter, r *http.Request) {
	rangeHandler(w, r, s.api.Patterns)
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	rangeHandler(w, r, s.api.Trends)
}

func (s *Server) handleExportTrends(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	userID := chi.URLParam(r, "userID")
	ref, series, err := s.api.ExportTrends(r.Context(), userID, rng)
	if err != nil {
		writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Trend report exported",
		log.NewFields().
			WithUser(userID).
			WithOperation(log.OpExport).
			WithRange(series.Range.Start, series.Range.End).
			ToSlice()...)
	writeJSON(w, http.StatusCreated, exportResponse{Ref: ref, Report: series})
}

func (s *Server) handleRecordTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	tx, err := req.toRecord(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := s.api.RecordTransaction(r.Context(), tx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, idResponse{ID: id})
}

func (s *Server) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	userID := chi.URLParam(r, "userID")
	p, err := req.toProfile(userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.api.SaveProfile(r.Context(), p); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, idResponse{ID: userID})
}

func (s *Server) handleSaveGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := s.api.SaveGoal(r.Context(), req.toGoal(chi.URLParam(r, "userID")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, idResponse{ID: id})
}

func (s *Server) handleAddContribution(w http.ResponseWriter, r *http.Request) {
	var req contributionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := req.toContribution(chi.URLParam(r, "goalID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := s.api.AddContribution(r.Context(), chi.URLParam(r, "userID"), c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, idResponse{ID: id})
}

// rangeHandler serves the reports that only take a user and a date range.
func rangeHandler[T any](w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, userID string, rng analytics.DateRange) (T, error)) {
	rng, err := parseRange(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := fn(r.Context(), chi.URLParam(r, "userID"), rng)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
