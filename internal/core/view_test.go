package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func viewLogs() []LogEntry {
	return []LogEntry{
		{ID: "1", Date: "2024-03-05"},
		{ID: "2", Date: "2023-12-29"},
		{ID: "3", Date: "2024-03-18"},
		{ID: "4", Date: "2024-01-02"},
		{ID: "5", Date: "2023-03-07"},
	}
}

func dates(entries []LogEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Date
	}
	return out
}

func TestViewYearsAndMonths(t *testing.T) {
	res := View(viewLogs(), SortAsc, Filter{})
	assert.Equal(t, []string{"2024", "2023"}, res.Years)
	assert.Equal(t, []string{"01", "03", "12"}, res.Months)
}

func TestViewYearsMonthsIgnoreFilter(t *testing.T) {
	// The dropdown sets come from the full collection, not the
	// filtered subset.
	res := View(viewLogs(), SortAsc, Filter{Year: "2023"})
	assert.Equal(t, []string{"2024", "2023"}, res.Years)
	assert.Equal(t, []string{"01", "03", "12"}, res.Months)
}

func TestViewSortDirections(t *testing.T) {
	asc := View(viewLogs(), SortAsc, Filter{})
	desc := View(viewLogs(), SortDesc, Filter{})

	require.Equal(t, []string{
		"2023-03-07", "2023-12-29", "2024-01-02", "2024-03-05", "2024-03-18",
	}, dates(asc.Visible))

	// desc is the exact reverse of asc for distinct dates.
	rev := make([]string, 0, len(asc.Visible))
	for i := len(asc.Visible) - 1; i >= 0; i-- {
		rev = append(rev, asc.Visible[i].Date)
	}
	assert.Equal(t, rev, dates(desc.Visible))
}

func TestViewFilterYearMonth(t *testing.T) {
	res := View(viewLogs(), SortAsc, Filter{Year: "2024", Month: "03"})
	require.Len(t, res.Visible, 2)
	for _, e := range res.Visible {
		assert.Equal(t, "2024-03", e.Date[:7])
	}
}

func TestViewFilterDateRange(t *testing.T) {
	res := View(viewLogs(), SortAsc, Filter{StartDate: "2023-12-29", EndDate: "2024-03-05"})
	assert.Equal(t, []string{"2023-12-29", "2024-01-02", "2024-03-05"}, dates(res.Visible))

	// Bounds are inclusive on both ends.
	one := View(viewLogs(), SortAsc, Filter{StartDate: "2024-03-18", EndDate: "2024-03-18"})
	assert.Equal(t, []string{"2024-03-18"}, dates(one.Visible))
}

func TestViewFilterAllConditionsAnded(t *testing.T) {
	res := View(viewLogs(), SortAsc, Filter{Year: "2024", Month: "03", StartDate: "2024-03-10"})
	assert.Equal(t, []string{"2024-03-18"}, dates(res.Visible))
}

func TestViewEmptyLogs(t *testing.T) {
	res := View(nil, SortDesc, Filter{})
	assert.Empty(t, res.Visible)
	assert.Empty(t, res.Years)
	assert.Empty(t, res.Months)
}

func TestFilterIsZero(t *testing.T) {
	assert.True(t, Filter{}.IsZero())
	assert.False(t, Filter{Month: "03"}.IsZero())
}
