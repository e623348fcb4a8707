package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"worklog/internal/core"
	"worklog/internal/services"
	"worklog/internal/timesheet/memory"
)

func newTestServer(t *testing.T, entries ...core.LogEntry) (*Server, *services.WorkLogService) {
	t.Helper()
	store := memory.NewWithEntries(entries)
	svc := services.NewWorkLogService(store, nil)
	srv := NewServer(":0", svc)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, svc
}

func postForm(srv *Server, path string, form url.Values) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func get(srv *Server, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func TestIndexAndHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := get(srv, "/")
	if rr.Code != http.StatusOK {
		t.Fatalf("index status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Worklog") {
		t.Fatalf("index body missing heading")
	}

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := get(srv, path)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}

	rr = get(srv, "/no-such-page")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown path, got %d", rr.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	// A couple of requests so the counter has something to show.
	get(srv, "/healthz")
	get(srv, "/healthz")

	rr := get(srv, "/metrics")
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status=%d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.Contains(ct, "text/plain") {
		t.Fatalf("Content-Type=%q", ct)
	}

	body := rr.Body.String()
	for _, metric := range []string{
		"http_requests_total",
		`cache_entries{type="summary"}`,
		`cache_entries{type="worklog"}`,
		"active_rate_limit_clients",
		"uptime_seconds",
	} {
		if !strings.Contains(body, metric) {
			t.Errorf("missing metric %q in body: %s", metric, body)
		}
	}

	// The two health probes plus this request went through the counter.
	if !strings.Contains(body, "http_requests_total 3") {
		t.Errorf("expected request count 3: %s", body)
	}
}

func TestCreateEntryValidationAndSuccess(t *testing.T) {
	srv, _ := newTestServer(t)

	// Wrong method
	rr := get(srv, "/entries")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}

	// Invalid date
	rr = postForm(srv, "/entries", url.Values{
		"date": {"not-a-date"}, "time_in": {"09:00"}, "time_out": {"17:00"},
	})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for bad date, got %d", rr.Code)
	}

	// Invalid clock
	rr = postForm(srv, "/entries", url.Values{
		"date": {"2024-03-11"}, "time_in": {"9am"}, "time_out": {"17:00"},
	})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for bad clock, got %d", rr.Code)
	}

	// Negative break
	rr = postForm(srv, "/entries", url.Values{
		"date": {"2024-03-11"}, "time_in": {"09:00"}, "time_out": {"17:00"}, "break_minutes": {"-5"},
	})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for negative break, got %d", rr.Code)
	}

	// Success
	rr = postForm(srv, "/entries", url.Values{
		"date": {"2024-03-11"}, "time_in": {"09:00"}, "time_out": {"17:30"}, "break_minutes": {"60"},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	trigger := rr.Header().Get("HX-Trigger")
	if !strings.Contains(trigger, "entry:created") {
		t.Fatalf("missing entry:created trigger: %s", trigger)
	}
	if !strings.Contains(trigger, "7.50") {
		t.Fatalf("expected computed hours in notification: %s", trigger)
	}
}

func TestCreateEntryNegativeHoursWarns(t *testing.T) {
	srv, _ := newTestServer(t)

	// Out-of-order times are accepted but flagged.
	rr := postForm(srv, "/entries", url.Values{
		"date": {"2024-03-11"}, "time_in": {"17:00"}, "time_out": {"09:00"},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	trigger := rr.Header().Get("HX-Trigger")
	if !strings.Contains(trigger, "negative") {
		t.Fatalf("expected negative-hours warning in trigger: %s", trigger)
	}
}

func TestUpdateEntry(t *testing.T) {
	srv, _ := newTestServer(t, core.LogEntry{
		Date: "2024-03-11", TimeIn: "09:00", TimeOut: "17:00", BreakMinutes: 30,
	})

	rr := postForm(srv, "/entries", url.Values{
		"id": {"1"}, "date": {"2024-03-11"}, "time_in": {"08:00"}, "time_out": {"16:00"}, "break_minutes": {"30"},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Header().Get("HX-Trigger"), "entry:updated") {
		t.Fatalf("missing entry:updated trigger")
	}

	// Unknown id
	rr = postForm(srv, "/entries", url.Values{
		"id": {"99"}, "date": {"2024-03-11"}, "time_in": {"08:00"}, "time_out": {"16:00"},
	})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown id, got %d", rr.Code)
	}
}

func TestDeleteEntry(t *testing.T) {
	srv, _ := newTestServer(t,
		core.LogEntry{Date: "2024-03-11", TimeIn: "09:00", TimeOut: "17:00"},
		core.LogEntry{Date: "2024-03-12", TimeIn: "09:00", TimeOut: "17:00"},
	)

	rr := postForm(srv, "/entries/delete", url.Values{"id": {"1"}})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Header().Get("HX-Trigger"), "entry:deleted") {
		t.Fatalf("missing entry:deleted trigger")
	}

	// Already deleted
	rr = postForm(srv, "/entries/delete", url.Values{"id": {"1"}})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for deleted id, got %d", rr.Code)
	}

	// Missing id
	rr = postForm(srv, "/entries/delete", url.Values{})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for missing id, got %d", rr.Code)
	}
}

func TestSummaryPartial(t *testing.T) {
	srv, _ := newTestServer(t,
		// Monday and Tuesday of the same ISO week.
		core.LogEntry{Date: "2024-03-11", TimeIn: "09:00", TimeOut: "17:00"},
		core.LogEntry{Date: "2024-03-12", TimeIn: "09:00", TimeOut: "13:30"},
	)

	rr := get(srv, "/ui/summary?date=2024-03-11")
	if rr.Code != http.StatusOK {
		t.Fatalf("summary status=%d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "8.00") {
		t.Fatalf("expected daily total 8.00 in body: %s", body)
	}
	if !strings.Contains(body, "12.50") {
		t.Fatalf("expected weekly total 12.50 in body: %s", body)
	}
}

func TestSummaryOverrideLifecycle(t *testing.T) {
	srv, svc := newTestServer(t, core.LogEntry{
		Date: "2024-03-11", TimeIn: "09:00", TimeOut: "17:00",
	})

	rr := postForm(srv, "/week-override", url.Values{"hours": {"38"}})
	if rr.Code != http.StatusOK {
		t.Fatalf("override status=%d", rr.Code)
	}

	rr = get(srv, "/ui/summary?date=2024-03-11")
	if !strings.Contains(rr.Body.String(), "38.00") {
		t.Fatalf("expected overridden weekly total in body: %s", rr.Body.String())
	}

	// Any mutation reverts the override.
	rr = postForm(srv, "/entries", url.Values{
		"date": {"2024-03-12"}, "time_in": {"09:00"}, "time_out": {"12:00"},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("create status=%d", rr.Code)
	}
	if svc.WeeklyOverride() != nil {
		t.Fatal("override should be cleared by mutation")
	}

	rr = get(srv, "/ui/summary?date=2024-03-11")
	if strings.Contains(rr.Body.String(), "38.00") {
		t.Fatalf("override still visible after mutation: %s", rr.Body.String())
	}

	// Clearing explicitly also works.
	postForm(srv, "/week-override", url.Values{"hours": {"40"}})
	rr = postForm(srv, "/week-override", url.Values{"action": {"clear"}})
	if rr.Code != http.StatusOK {
		t.Fatalf("clear status=%d", rr.Code)
	}
	if svc.WeeklyOverride() != nil {
		t.Fatal("override should be cleared")
	}

	// Submitting an empty hours value clears as well.
	postForm(srv, "/week-override", url.Values{"hours": {"40"}})
	rr = postForm(srv, "/week-override", url.Values{"hours": {""}})
	if rr.Code != http.StatusOK {
		t.Fatalf("empty-hours clear status=%d", rr.Code)
	}
	if !strings.Contains(rr.Header().Get("HX-Trigger"), "cleared") {
		t.Fatalf("expected clear notification: %s", rr.Header().Get("HX-Trigger"))
	}
	if svc.WeeklyOverride() != nil {
		t.Fatal("override should be cleared by empty hours value")
	}
}

func TestHolidayHours(t *testing.T) {
	srv, _ := newTestServer(t, core.LogEntry{
		Date: "2024-03-11", TimeIn: "09:00", TimeOut: "17:00",
	})

	rr := postForm(srv, "/holiday-hours", url.Values{"hours": {"8"}})
	if rr.Code != http.StatusOK {
		t.Fatalf("holiday status=%d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Header().Get("HX-Trigger"), "8.00") {
		t.Fatalf("expected new carry in notification: %s", rr.Header().Get("HX-Trigger"))
	}

	// Carry shows up in the weekly total.
	rr = get(srv, "/ui/summary?date=2024-03-11")
	if !strings.Contains(rr.Body.String(), "16.00") {
		t.Fatalf("expected weekly total 16.00 with carry: %s", rr.Body.String())
	}

	rr = postForm(srv, "/holiday-hours", url.Values{"hours": {"-4"}})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for negative hours, got %d", rr.Code)
	}

	rr = postForm(srv, "/holiday-hours", url.Values{"hours": {"abc"}})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for non-numeric hours, got %d", rr.Code)
	}
}

func TestWorkLogPartial(t *testing.T) {
	srv, _ := newTestServer(t,
		core.LogEntry{Date: "2024-03-11", TimeIn: "09:00", TimeOut: "17:00"},
		core.LogEntry{Date: "2024-04-02", TimeIn: "09:00", TimeOut: "17:00"},
		core.LogEntry{Date: "2023-12-29", TimeIn: "09:00", TimeOut: "17:00"},
	)

	rr := get(srv, "/ui/worklog")
	if rr.Code != http.StatusOK {
		t.Fatalf("worklog status=%d", rr.Code)
	}
	body := rr.Body.String()
	for _, date := range []string{"2024-03-11", "2024-04-02", "2023-12-29"} {
		if !strings.Contains(body, date) {
			t.Fatalf("missing entry %s in body", date)
		}
	}
	// Default sort is newest first.
	if strings.Index(body, "2024-04-02") > strings.Index(body, "2023-12-29") {
		t.Fatalf("expected descending date order: %s", body)
	}

	// Year filter hides other years but keeps all dropdown options.
	rr = get(srv, "/ui/worklog?year=2023")
	body = rr.Body.String()
	if !strings.Contains(body, "2023-12-29") {
		t.Fatalf("filtered entry missing: %s", body)
	}
	if strings.Contains(body, "<td>2024-03-11</td>") {
		t.Fatalf("2024 row should be filtered out: %s", body)
	}
	if !strings.Contains(body, `<option value="2024"`) {
		t.Fatalf("year options should span the whole collection: %s", body)
	}

	// Ascending sort flips the order.
	rr = get(srv, "/ui/worklog?sort=asc")
	body = rr.Body.String()
	if strings.Index(body, "2023-12-29") > strings.Index(body, "2024-04-02") {
		t.Fatalf("expected ascending date order: %s", body)
	}

	// Every row carries an edit button loading it into the entry form.
	if !strings.Contains(body, `class="edit"`) {
		t.Fatalf("missing edit buttons: %s", body)
	}
	if !strings.Contains(body, `data-id="1"`) || !strings.Contains(body, `data-date="2024-03-11"`) {
		t.Fatalf("edit button missing row data: %s", body)
	}
}
