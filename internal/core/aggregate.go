package core

import (
	"math"
	"time"
)

// Summary holds the computed totals shown on the dashboard.
type Summary struct {
	Daily  float64
	Weekly float64
}

// WeekStart returns the Monday of the ISO week containing t, at
// midnight in t's location.
func WeekStart(t time.Time) time.Time {
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7 // ISO: Sunday is day 7
	}
	monday := t.AddDate(0, 0, -(wd - 1))
	return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, t.Location())
}

// Weekdays returns the Monday through Friday dates of the ISO week
// containing t, formatted as yyyy-MM-dd.
func Weekdays(t time.Time) []string {
	monday := WeekStart(t)
	days := make([]string, 5)
	for i := range days {
		days[i] = monday.AddDate(0, 0, i).Format(DateLayout)
	}
	return days
}

// Aggregate computes today's hours and the current week's total.
//
// Daily is the Hours() of the entry whose date equals today; 0 if no
// entry exists for today. Weekly is the sum of Hours() over the
// Monday–Friday entries of today's ISO week plus carry, rounded to two
// decimals. A non-nil override replaces the weekly computation
// verbatim. An empty log collection forces Weekly to 0 regardless of
// carry; resetting the persisted carry in that case is the caller's
// responsibility (see services.WorkLogService).
func Aggregate(logs []LogEntry, today time.Time, override *float64, carry float64) Summary {
	byDate := make(map[string]LogEntry, len(logs))
	for _, e := range logs {
		byDate[e.Date] = e
	}

	var s Summary
	if e, ok := byDate[today.Format(DateLayout)]; ok {
		s.Daily = e.Hours()
	}

	if override != nil {
		s.Weekly = *override
		return s
	}
	if len(logs) == 0 {
		return s
	}

	var total float64
	for _, day := range Weekdays(today) {
		if e, ok := byDate[day]; ok {
			total += e.Hours()
		}
	}
	s.Weekly = round2(total + carry)
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
