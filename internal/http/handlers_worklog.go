package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"worklog/internal/core"
	applog "worklog/internal/log"
)

// handleWorkLog renders the filtered, sorted entries table partial.
// Filter conditions arrive as query parameters (year, month, from, to)
// and are ANDed; sort flips the date order.
func (s *Server) handleWorkLog(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	direction := ParseSortParam(r.URL.Query())
	filter := ParseFilterParams(r.URL.Query())

	view, err := s.getWorkLog(r.Context(), direction, filter)
	if err != nil {
		s.structured.LogError(r.Context(), "Work log view error", err, applog.ComponentHTTP, applog.OpRender,
			applog.LogFields{"sort": string(direction), "year": filter.Year, "month": filter.Month})
		_, _ = w.Write([]byte(`<section id="worklog" class="worklog"><div class="placeholder">Error loading work log</div></section>`))
		return
	}

	if s.templates == nil {
		_, _ = w.Write([]byte(`<section id="worklog" class="worklog"><div class="placeholder">` +
			fmt.Sprintf("%d entries", len(view.Visible)) + `</div></section>`))
		return
	}

	type row struct {
		ID      string
		Date    string
		TimeIn  string
		TimeOut string
		Break   int
		Hours   string
	}

	data := struct {
		Rows      []row
		Years     []string
		Months    []string
		Sort      string
		Year      string
		Month     string
		StartDate string
		EndDate   string
	}{
		Years:     view.Years,
		Months:    view.Months,
		Sort:      string(direction),
		Year:      filter.Year,
		Month:     filter.Month,
		StartDate: filter.StartDate,
		EndDate:   filter.EndDate,
	}
	for _, e := range view.Visible {
		data.Rows = append(data.Rows, row{
			ID:      e.ID,
			Date:    e.Date,
			TimeIn:  e.TimeIn,
			TimeOut: e.TimeOut,
			Break:   e.BreakMinutes,
			Hours:   formatHours(e.Hours()),
		})
	}

	if err := s.templates.ExecuteTemplate(w, "worklog.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "worklog.html")
		_, _ = w.Write([]byte(`<section id="worklog" class="worklog"><div class="placeholder">Error rendering work log</div></section>`))
	}
}

func (s *Server) getWorkLog(ctx context.Context, direction core.Sort, f core.Filter) (core.ViewResult, error) {
	key := worklogCacheKey(direction, f)

	if view, found := s.worklogCache.Get(key); found {
		applog.FromContext(ctx).DebugContext(ctx, "Work log cache hit", "key", key, "count", len(view.Visible))
		return view, nil
	}

	cctx, cancel := context.WithTimeout(ctx, 7*time.Second)
	defer cancel()

	view, err := s.service.WorkLog(cctx, direction, f)
	if err != nil {
		return core.ViewResult{}, fmt.Errorf("work log view (sort=%s): %w", direction, err)
	}

	s.worklogCache.Set(key, view)
	slog.DebugContext(ctx, "Work log cached", "key", key, "count", len(view.Visible))
	return view, nil
}

func worklogCacheKey(direction core.Sort, f core.Filter) string {
	return strings.Join([]string{string(direction), f.Year, f.Month, f.StartDate, f.EndDate}, "|")
}
