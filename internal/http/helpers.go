package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"worklog/internal/core"
)

// extractClientIP extracts the client IP, considering proxies.
func extractClientIP(r *http.Request) string {
	clientIP := r.Header.Get("X-Forwarded-For")
	if clientIP == "" {
		clientIP = r.Header.Get("X-Real-IP")
	}
	if clientIP == "" {
		clientIP = r.RemoteAddr
	}
	// X-Forwarded-For may carry a chain; the first hop is the client.
	if idx := strings.IndexByte(clientIP, ','); idx >= 0 {
		clientIP = strings.TrimSpace(clientIP[:idx])
	}
	return clientIP
}

// parseTodayParam reads an optional "date" query parameter used as the
// reference day for daily/weekly totals. Defaults to the current day.
func parseTodayParam(r *http.Request) time.Time {
	if v := strings.TrimSpace(r.URL.Query().Get("date")); v != "" {
		if t, err := time.Parse(core.DateLayout, v); err == nil {
			return t
		}
	}
	return time.Now()
}

// parseHoursValue parses a decimal hours form value. A comma decimal
// separator is accepted alongside the dot.
func parseHoursValue(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	return strconv.ParseFloat(s, 64)
}

// parseBreakMinutes parses the break form value, defaulting to zero.
func parseBreakMinutes(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

// formatHours renders an hour total the way the summary shows it,
// always with two decimals.
func formatHours(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}
