package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"worklog/internal/core"
	applog "worklog/internal/log"
)

// handleSummary renders the daily/weekly totals partial. The reference
// day defaults to today and can be pinned with ?date=yyyy-MM-dd.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	today := parseTodayParam(r)
	summary, err := s.getSummary(r.Context(), today)
	if err != nil {
		s.structured.LogError(r.Context(), "Summary error", err, applog.ComponentHTTP, applog.OpRender,
			applog.LogFields{"date": today.Format(core.DateLayout)})
		_, _ = w.Write([]byte(`<section id="summary" class="summary"><div class="placeholder">Error loading summary</div></section>`))
		return
	}

	override := s.service.WeeklyOverride()

	if s.templates == nil {
		_, _ = w.Write([]byte(`<section id="summary" class="summary"><div class="placeholder">Today: ` +
			formatHours(summary.Daily) + ` — Week: ` + formatHours(summary.Weekly) + `</div></section>`))
		return
	}

	data := struct {
		Date        string
		Daily       string
		Weekly      string
		OverrideSet bool
	}{
		Date:        today.Format(core.DateLayout),
		Daily:       formatHours(summary.Daily),
		Weekly:      formatHours(summary.Weekly),
		OverrideSet: override != nil,
	}

	if err := s.templates.ExecuteTemplate(w, "summary.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "summary.html")
		_, _ = w.Write([]byte(`<section id="summary" class="summary"><div class="placeholder">Error rendering summary</div></section>`))
	}
}

func (s *Server) getSummary(ctx context.Context, today time.Time) (core.Summary, error) {
	key := today.Format(core.DateLayout)

	if data, found := s.summaryCache.Get(key); found {
		applog.FromContext(ctx).DebugContext(ctx, "Summary cache hit", "date", key)
		return data, nil
	}

	cctx, cancel := context.WithTimeout(ctx, 7*time.Second)
	defer cancel()

	data, err := s.service.Summary(cctx, today)
	if err != nil {
		return core.Summary{}, fmt.Errorf("compute summary (date=%s): %w", key, err)
	}

	s.summaryCache.Set(key, data)
	slog.DebugContext(ctx, "Summary cached", "date", key, "daily", data.Daily, "weekly", data.Weekly)
	return data, nil
}
