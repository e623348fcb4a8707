package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// DateLayout is the canonical storage format for entry dates.
	// Lexicographic order on this form equals chronological order.
	DateLayout = "2006-01-02"

	// ClockLayout is the wall-clock format for time-in/time-out.
	ClockLayout = "15:04"
)

type (
	// LogEntry is one calendar day's work record. Date is kept as a
	// yyyy-MM-dd string and TimeIn/TimeOut as HH:mm strings so that
	// filtering and sorting can compare the stored form directly.
	LogEntry struct {
		ID           string
		Date         string
		TimeIn       string
		TimeOut      string
		BreakMinutes int
		CreatedAt    time.Time
		UpdatedAt    time.Time
	}

	// EntryPatch carries a partial update; nil fields are left
	// untouched by the storage layer (merge write semantics).
	EntryPatch struct {
		Date         *string
		TimeIn       *string
		TimeOut      *string
		BreakMinutes *int
	}
)

var (
	ErrInvalidDate   = errors.New("invalid date, expected yyyy-MM-dd")
	ErrInvalidClock  = errors.New("invalid time, expected HH:mm")
	ErrNegativeBreak = errors.New("break minutes cannot be negative")
	ErrNegativeHours = errors.New("hours cannot be negative")
)

// Validate checks the stored string forms. TimeIn and TimeOut may be
// empty (the entry then contributes zero hours); when present they must
// parse as HH:mm. Out-of-order in/out times are deliberately accepted.
func (e LogEntry) Validate() error {
	if _, err := time.Parse(DateLayout, e.Date); err != nil {
		return ErrInvalidDate
	}
	if e.TimeIn != "" {
		if _, err := ParseClock(e.TimeIn); err != nil {
			return fmt.Errorf("time in: %w", err)
		}
	}
	if e.TimeOut != "" {
		if _, err := ParseClock(e.TimeOut); err != nil {
			return fmt.Errorf("time out: %w", err)
		}
	}
	if e.BreakMinutes < 0 {
		return ErrNegativeBreak
	}
	return nil
}

// Validate checks only the fields the patch sets.
func (p EntryPatch) Validate() error {
	if p.Date != nil {
		if _, err := time.Parse(DateLayout, *p.Date); err != nil {
			return ErrInvalidDate
		}
	}
	if p.TimeIn != nil && *p.TimeIn != "" {
		if _, err := ParseClock(*p.TimeIn); err != nil {
			return fmt.Errorf("time in: %w", err)
		}
	}
	if p.TimeOut != nil && *p.TimeOut != "" {
		if _, err := ParseClock(*p.TimeOut); err != nil {
			return fmt.Errorf("time out: %w", err)
		}
	}
	if p.BreakMinutes != nil && *p.BreakMinutes < 0 {
		return ErrNegativeBreak
	}
	return nil
}

// IsEmpty reports whether the patch would change nothing.
func (p EntryPatch) IsEmpty() bool {
	return p.Date == nil && p.TimeIn == nil && p.TimeOut == nil && p.BreakMinutes == nil
}

// ParseClock converts an HH:mm string to minutes since midnight.
func ParseClock(s string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, ErrInvalidClock
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, ErrInvalidClock
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, ErrInvalidClock
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, ErrInvalidClock
	}
	return h*60 + m, nil
}

// Hours returns the worked hours for the entry. A missing or malformed
// time-in or time-out degrades to 0 rather than signaling failure.
// Time-out preceding time-in, or a break exceeding the span, produces a
// negative value; callers decide whether to surface that.
func (e LogEntry) Hours() float64 {
	if e.TimeIn == "" || e.TimeOut == "" {
		return 0
	}
	in, err := ParseClock(e.TimeIn)
	if err != nil {
		return 0
	}
	out, err := ParseClock(e.TimeOut)
	if err != nil {
		return 0
	}
	return float64(out-in-e.BreakMinutes) / 60
}
