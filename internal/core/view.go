package core

import (
	"sort"
	"strings"
)

// Sort direction for the worklog table.
type Sort string

const (
	SortAsc  Sort = "asc"
	SortDesc Sort = "desc"
)

// Filter restricts the visible entries. Empty fields are skipped; set
// fields are ANDed. StartDate/EndDate are inclusive yyyy-MM-dd bounds.
type Filter struct {
	Year      string
	Month     string
	StartDate string
	EndDate   string
}

// IsZero reports whether no condition is set.
func (f Filter) IsZero() bool {
	return f.Year == "" && f.Month == "" && f.StartDate == "" && f.EndDate == ""
}

func (f Filter) matches(e LogEntry) bool {
	if f.Year != "" && entryYear(e) != f.Year {
		return false
	}
	if f.Month != "" && entryMonth(e) != f.Month {
		return false
	}
	if f.StartDate != "" && e.Date < f.StartDate {
		return false
	}
	if f.EndDate != "" && e.Date > f.EndDate {
		return false
	}
	return true
}

// ViewResult is the filtered, ordered slice plus the distinct years and
// months present across the whole collection (not just the visible part).
type ViewResult struct {
	Visible []LogEntry
	Years   []string // descending
	Months  []string // ascending
}

// View applies the filter and sort to logs. Years and Months are always
// derived from the full collection so the filter dropdowns stay stable
// while a filter is active. Sorting compares the date string form in
// both directions (equivalent to chronological order for yyyy-MM-dd)
// and is stable.
func View(logs []LogEntry, direction Sort, f Filter) ViewResult {
	res := ViewResult{
		Years:  distinctSorted(logs, entryYear, true),
		Months: distinctSorted(logs, entryMonth, false),
	}

	for _, e := range logs {
		if f.matches(e) {
			res.Visible = append(res.Visible, e)
		}
	}

	sort.SliceStable(res.Visible, func(i, j int) bool {
		c := strings.Compare(res.Visible[i].Date, res.Visible[j].Date)
		if direction == SortDesc {
			return c > 0
		}
		return c < 0
	})
	return res
}

func entryYear(e LogEntry) string {
	if len(e.Date) < 4 {
		return ""
	}
	return e.Date[:4]
}

func entryMonth(e LogEntry) string {
	if len(e.Date) < 7 {
		return ""
	}
	return e.Date[5:7]
}

func distinctSorted(logs []LogEntry, key func(LogEntry) string, desc bool) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, e := range logs {
		k := key(e)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if desc {
			return out[i] > out[j]
		}
		return out[i] < out[j]
	})
	return out
}
