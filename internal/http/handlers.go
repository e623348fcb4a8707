package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"worklog/internal/core"
	applog "worklog/internal/log"
	"worklog/internal/timesheet"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	data := struct {
		Today       string
		OverrideSet bool
		OverrideHrs string
	}{
		Today: time.Now().Format(core.DateLayout),
	}
	if ov := s.service.WeeklyOverride(); ov != nil {
		data.OverrideSet = true
		data.OverrideHrs = formatHours(*ov)
	}

	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Index template execution failed", "error", err, "template", "index.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).String(),
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(health)
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	// A cheap store round-trip proves the backend is reachable.
	if _, err := s.service.WorkLog(ctx, core.SortDesc, core.Filter{}); err != nil {
		checks["store"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}

	checks["cache"] = map[string]interface{}{
		"summary_entries": s.summaryCache.Size(),
		"worklog_entries": s.worklogCache.Size(),
		"status":          "ok",
	}
	checks["rate_limiter"] = map[string]interface{}{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	response := map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}

	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(response)
}

// handleMetrics exposes request, cache, and rate limiter counters in
// plain text.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	traceMetrics := s.traceMW.GetMetrics()
	summaryCacheSize := s.summaryCache.Size()
	worklogCacheSize := s.worklogCache.Size()
	activeClients := s.rateLimiter.ActiveClients()
	uptime := time.Since(s.started)

	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", traceMetrics.TotalRequests)

	fmt.Fprintf(w, "# HELP http_response_time_microseconds Last observed response time\n")
	fmt.Fprintf(w, "# TYPE http_response_time_microseconds gauge\n")
	fmt.Fprintf(w, "http_response_time_microseconds %d\n\n", traceMetrics.AverageResponseTime)

	fmt.Fprintf(w, "# HELP cache_entries Current cache entries\n")
	fmt.Fprintf(w, "# TYPE cache_entries gauge\n")
	fmt.Fprintf(w, "cache_entries{type=\"summary\"} %d\n", summaryCacheSize)
	fmt.Fprintf(w, "cache_entries{type=\"worklog\"} %d\n\n", worklogCacheSize)

	fmt.Fprintf(w, "# HELP active_rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "active_rate_limit_clients %d\n\n", activeClients)

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n", uptime.Seconds())
}

// handleSaveEntry creates a work log entry, or updates one when the
// form carries an id. Either way the weekly override is dropped and all
// cached fragments are purged.
func (s *Server) handleSaveEntry(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "method", r.Method, "url", r.URL.Path)
		resp.Write(w)
		return
	}

	id := strings.TrimSpace(r.Form.Get("id"))
	date := sanitizeInput(r.Form.Get("date"))
	timeIn := sanitizeInput(r.Form.Get("time_in"))
	timeOut := sanitizeInput(r.Form.Get("time_out"))

	if date == "" {
		date = time.Now().Format(core.DateLayout)
	}

	breakMinutes, err := parseBreakMinutes(r.Form.Get("break_minutes"))
	if err != nil {
		UnprocessableEntityError("Invalid break minutes").Write(w)
		return
	}

	entry := core.LogEntry{
		ID:           id,
		Date:         date,
		TimeIn:       timeIn,
		TimeOut:      timeOut,
		BreakMinutes: breakMinutes,
	}

	if id != "" {
		s.updateEntry(w, r, entry)
		return
	}

	newID, err := s.service.CreateEntry(r.Context(), entry)
	if err != nil {
		if isValidationError(err) {
			UnprocessableEntityError("Invalid data: " + err.Error()).Write(w)
			return
		}
		slog.ErrorContext(r.Context(), "Failed to save entry",
			"error", err,
			applog.FieldEntryDate, entry.Date,
			applog.FieldTimeIn, entry.TimeIn,
			applog.FieldTimeOut, entry.TimeOut,
			applog.FieldComponent, applog.ComponentHTTP,
			applog.FieldOperation, applog.OpCreate)
		InternalServerError("Error saving entry").Write(w)
		return
	}

	slog.InfoContext(r.Context(), "Entry created successfully",
		applog.FieldEntryID, newID,
		applog.FieldEntryDate, entry.Date,
		applog.FieldTimeIn, entry.TimeIn,
		applog.FieldTimeOut, entry.TimeOut,
		applog.FieldBreakMinutes, entry.BreakMinutes,
		applog.FieldHours, entry.Hours(),
		applog.FieldComponent, applog.ComponentHTTP,
		applog.FieldOperation, applog.OpCreate)

	s.purgeCaches()

	resp := NewHTMXResponse().
		TriggerEntryCreated(entry.Date).
		TriggerFormReset().
		TriggerSummaryRefresh().
		TriggerWorkLogRefresh().
		TriggerSuccessNotification(fmt.Sprintf("Logged %s: %s hours",
			entry.Date, formatHours(entry.Hours())))

	// Out-of-order times are stored as entered; the user only gets a heads-up.
	if entry.Hours() < 0 {
		resp.TriggerWarningNotification("Computed hours are negative, check time in and time out")
	}

	resp.BodyString("").Write(w)
}

func (s *Server) updateEntry(w http.ResponseWriter, r *http.Request, entry core.LogEntry) {
	patch := core.EntryPatch{
		Date:         &entry.Date,
		TimeIn:       &entry.TimeIn,
		TimeOut:      &entry.TimeOut,
		BreakMinutes: &entry.BreakMinutes,
	}

	if err := s.service.UpdateEntry(r.Context(), entry.ID, patch); err != nil {
		switch {
		case isValidationError(err):
			UnprocessableEntityError("Invalid data: " + err.Error()).Write(w)
		case errors.Is(err, timesheet.ErrNotFound):
			NotFoundError("Entry not found").Write(w)
		default:
			slog.ErrorContext(r.Context(), "Failed to update entry",
				"error", err,
				applog.FieldEntryID, entry.ID,
				applog.FieldComponent, applog.ComponentHTTP,
				applog.FieldOperation, applog.OpUpdate)
			InternalServerError("Error updating entry").Write(w)
		}
		return
	}

	slog.InfoContext(r.Context(), "Entry updated successfully",
		applog.FieldEntryID, entry.ID,
		applog.FieldEntryDate, entry.Date,
		applog.FieldComponent, applog.ComponentHTTP,
		applog.FieldOperation, applog.OpUpdate)

	s.purgeCaches()

	resp := NewHTMXResponse().
		TriggerEntryUpdated(entry.ID).
		TriggerSummaryRefresh().
		TriggerWorkLogRefresh().
		TriggerSuccessNotification("Entry updated")

	if entry.Hours() < 0 {
		resp.TriggerWarningNotification("Computed hours are negative, check time in and time out")
	}

	resp.BodyString("").Write(w)
}

// handleDeleteEntry removes an entry by id. Deleting the last entry
// also resets the persisted holiday carry (handled in the service).
func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	if resp := RequireDeleteOrPOST(r); resp != nil {
		resp.Write(w)
		return
	}

	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		slog.ErrorContext(r.Context(), "Parse delete request error", "error", err, "method", r.Method)
		BadRequestError("Invalid request format").Write(w)
		return
	}

	id := parser.Get("id")
	if id == "" {
		UnprocessableEntityError("Missing entry id").Write(w)
		return
	}

	if err := s.service.DeleteEntry(r.Context(), id); err != nil {
		if errors.Is(err, timesheet.ErrNotFound) {
			NotFoundError("Entry not found").Write(w)
			return
		}
		slog.ErrorContext(r.Context(), "Failed to delete entry",
			"error", err,
			applog.FieldEntryID, id,
			applog.FieldComponent, applog.ComponentHTTP,
			applog.FieldOperation, applog.OpDelete)
		InternalServerError("Error deleting entry").Write(w)
		return
	}

	slog.InfoContext(r.Context(), "Entry deleted successfully",
		applog.FieldEntryID, id,
		applog.FieldComponent, applog.ComponentHTTP,
		applog.FieldOperation, applog.OpDelete)

	s.purgeCaches()

	NewHTMXResponse().
		TriggerEntryDeleted(id).
		TriggerSummaryRefresh().
		TriggerWorkLogRefresh().
		TriggerSuccessNotification("Entry deleted").
		BodyString("").
		Write(w)
}

// handleHolidayHours adds hours to the persisted holiday carry.
func (s *Server) handleHolidayHours(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	hours, err := parseHoursValue(r.Form.Get("hours"))
	if err != nil {
		UnprocessableEntityError("Invalid hours value").Write(w)
		return
	}

	carry, err := s.service.AddHolidayHours(r.Context(), hours)
	if err != nil {
		if errors.Is(err, core.ErrNegativeHours) {
			UnprocessableEntityError("Holiday hours cannot be negative").Write(w)
			return
		}
		slog.ErrorContext(r.Context(), "Failed to save holiday hours",
			"error", err,
			applog.FieldHours, hours,
			applog.FieldComponent, applog.ComponentHTTP,
			applog.FieldOperation, "holiday_carry")
		InternalServerError("Error saving holiday hours").Write(w)
		return
	}

	slog.InfoContext(r.Context(), "Holiday hours added",
		applog.FieldHours, hours,
		applog.FieldHolidayCarry, carry,
		applog.FieldComponent, applog.ComponentHTTP,
		applog.FieldOperation, "holiday_carry")

	s.purgeCaches()

	NewHTMXResponse().
		TriggerFormReset().
		TriggerSummaryRefresh().
		TriggerSuccessNotification(fmt.Sprintf("Holiday carry is now %s hours", formatHours(carry))).
		BodyString("").
		Write(w)
}

// handleWeekOverride sets or clears the session-scoped weekly total
// override. The override survives until the next mutation.
func (s *Server) handleWeekOverride(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	// An empty hours value clears, same as the explicit clear button.
	rawHours := strings.TrimSpace(r.Form.Get("hours"))
	if strings.TrimSpace(r.Form.Get("action")) == "clear" || rawHours == "" {
		s.service.ClearWeeklyOverride()
		s.purgeCaches()
		NewHTMXResponse().
			TriggerSummaryRefresh().
			TriggerSuccessNotification("Weekly override cleared").
			BodyString("").
			Write(w)
		return
	}

	hours, err := parseHoursValue(rawHours)
	if err != nil {
		UnprocessableEntityError("Invalid hours value").Write(w)
		return
	}

	s.service.SetWeeklyOverride(hours)

	slog.InfoContext(r.Context(), "Weekly override set",
		applog.FieldWeekOverride, hours,
		applog.FieldComponent, applog.ComponentHTTP,
		applog.FieldOperation, "week_override")

	s.purgeCaches()

	NewHTMXResponse().
		TriggerFormReset().
		TriggerSummaryRefresh().
		TriggerSuccessNotification(fmt.Sprintf("Weekly total overridden to %s hours", formatHours(hours))).
		BodyString("").
		Write(w)
}

// isValidationError reports whether the error comes from entry format
// validation rather than from the backend.
func isValidationError(err error) bool {
	return errors.Is(err, core.ErrInvalidDate) ||
		errors.Is(err, core.ErrInvalidClock) ||
		errors.Is(err, core.ErrNegativeBreak)
}
