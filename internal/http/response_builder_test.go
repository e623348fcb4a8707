package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTMXResponseBuilder_Triggers(t *testing.T) {
	rr := httptest.NewRecorder()

	NewHTMXResponse().
		TriggerEntryCreated("2024-03-11").
		TriggerFormReset().
		TriggerSummaryRefresh().
		TriggerWorkLogRefresh().
		TriggerSuccessNotification("Saved").
		BodyString("ok").
		Write(rr)

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if rr.Body.String() != "ok" {
		t.Fatalf("body=%q", rr.Body.String())
	}

	raw := rr.Header().Get("HX-Trigger")
	var triggers map[string]any
	if err := json.Unmarshal([]byte(raw), &triggers); err != nil {
		t.Fatalf("HX-Trigger not valid JSON: %v (%s)", err, raw)
	}
	for _, name := range []string{"entry:created", "form:reset", "summary:refresh", "worklog:refresh", "show-notification"} {
		if _, ok := triggers[name]; !ok {
			t.Errorf("missing trigger %q in %s", name, raw)
		}
	}

	created, ok := triggers["entry:created"].(map[string]any)
	if !ok || created["date"] != "2024-03-11" {
		t.Errorf("entry:created payload = %v", triggers["entry:created"])
	}

	notif, ok := triggers["show-notification"].(map[string]any)
	if !ok {
		t.Fatalf("show-notification payload = %v", triggers["show-notification"])
	}
	if notif["message"] != "Saved" || notif["type"] != "success" {
		t.Errorf("notification payload = %v", notif)
	}
}

func TestHTMXResponseBuilder_StatusAndHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	NewHTMXResponse().
		Status(http.StatusCreated).
		Header("X-Extra", "1").
		Write(rr)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status=%d", rr.Code)
	}
	if rr.Header().Get("X-Extra") != "1" {
		t.Fatalf("custom header lost")
	}
	if rr.Header().Get("HX-Trigger") != "" {
		t.Fatalf("unexpected HX-Trigger: %s", rr.Header().Get("HX-Trigger"))
	}
}

func TestErrorResponses(t *testing.T) {
	rr := httptest.NewRecorder()
	BadRequestError(`bad <input>`).Write(rr)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rr.Code)
	}
	body := rr.Body.String()
	if strings.Contains(body, "<input>") {
		t.Fatalf("error message not escaped: %s", body)
	}
	if !strings.Contains(body, "&lt;input&gt;") {
		t.Fatalf("expected escaped message: %s", body)
	}

	rr = httptest.NewRecorder()
	NotFoundError("no such entry").Write(rr)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status=%d", rr.Code)
	}

	rr = httptest.NewRecorder()
	UnprocessableEntityError("invalid input").Write(rr)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d", rr.Code)
	}

	rr = httptest.NewRecorder()
	MethodNotAllowedError("POST").Write(rr)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status=%d", rr.Code)
	}
	if rr.Header().Get("Allow") != "POST" {
		t.Fatalf("Allow=%q", rr.Header().Get("Allow"))
	}
}
