package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"expensetracker/internal/aggregate"
	"expensetracker/internal/charts"
	"expensetracker/internal/core"
	"expensetracker/internal/export"
	applog "expensetracker/internal/log"
	"expensetracker/internal/metrics"
)

type shareResponse struct {
	Name    string     `json:"name"`
	Amount  core.Money `json:"amount"`
	Percent int        `json:"percent"`
}

type summaryResponse struct {
	core.Summary
	Formatted string          `json:"formatted_total"`
	Shares    []shareResponse `json:"shares"`
}

// handleSummary returns the total, the count and the category breakdown.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	items := s.store.List(r.Context())
	summary := aggregate.Summarize(items)
	if summary.ByCategory == nil {
		summary.ByCategory = []core.CategoryAmount{}
	}

	shares := aggregate.Breakdown(summary.ByCategory).Percentages()
	out := summaryResponse{
		Summary:   summary,
		Formatted: summary.Total.Dollars(),
		Shares:    make([]shareResponse, 0, len(shares)),
	}
	for _, sh := range shares {
		out.Shares = append(out.Shares, shareResponse{Name: sh.Name, Amount: sh.Amount, Percent: sh.Percent})
	}
	NewResponse().JSON(out).Write(w)
}

// handleChart serves the category pie chart, rendered once per store revision.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	items, revision := s.store.Snapshot(ctx)
	png, err := s.chartCache.Fetch(revision, func() ([]byte, error) {
		return s.charts.CategoryPNG(items)
	})
	if errors.Is(err, charts.ErrNoData) {
		NotFoundError("No expenses to chart yet").Write(w)
		return
	}
	if err != nil {
		applog.FromContext(ctx).ErrorContext(ctx, "Chart render failed",
			applog.FieldOperation, applog.OpRender,
			applog.FieldRevision, revision,
			applog.FieldError, err)
		InternalServerError("Could not render the chart").Write(w)
		return
	}

	NewResponse().
		Header("Cache-Control", "no-cache").
		Header("ETag", fmt.Sprintf(`"rev-%d"`, revision)).
		Body(charts.ContentType, png).
		Write(w)
}

// handleExport downloads every expense as CSV in stored order. An empty
// collection is refused rather than exported as a header-only file.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	items := s.store.List(ctx)

	data, err := export.ToCSV(items)
	if errors.Is(err, export.ErrEmptyInput) {
		metrics.Exports.WithLabelValues("empty").Inc()
		ConflictError("No expenses to export yet").Write(w)
		return
	}
	if err != nil {
		metrics.Exports.WithLabelValues("error").Inc()
		InternalServerError("Could not export expenses").Write(w)
		return
	}

	metrics.Exports.WithLabelValues("ok").Inc()
	applog.FromContext(ctx).InfoContext(ctx, "Expenses exported",
		applog.FieldOperation, applog.OpExport,
		applog.FieldCount, len(items))

	NewResponse().
		Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.Filename(time.Now()))).
		Body(export.ContentType+"; charset=utf-8", []byte(data)).
		Write(w)
}

type welcomeResponse struct {
	ShowWelcome bool `json:"show_welcome"`
}

func (s *Server) handleGetWelcome(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(welcomeResponse{ShowWelcome: s.prefs.ShowWelcome(r.Context())}).Write(w)
}

// handleDismissWelcome hides the welcome screen for good.
func (s *Server) handleDismissWelcome(w http.ResponseWriter, r *http.Request) {
	s.prefs.DismissWelcome(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// handleResetWelcome shows the welcome screen again.
func (s *Server) handleResetWelcome(w http.ResponseWriter, r *http.Request) {
	s.prefs.SetShowWelcome(r.Context(), true)
	NewResponse().JSON(welcomeResponse{ShowWelcome: true}).Write(w)
}
