package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worklog/internal/core"
	"worklog/internal/timesheet/memory"
)

type fakePublisher struct {
	syncs   []int64
	deletes []int64
}

func (f *fakePublisher) PublishEntrySync(_ context.Context, id, _ int64) error {
	f.syncs = append(f.syncs, id)
	return nil
}

func (f *fakePublisher) PublishEntryDelete(_ context.Context, id int64, _ string) error {
	f.deletes = append(f.deletes, id)
	return nil
}

// 2024-03-13 is a Wednesday.
var today = time.Date(2024, 3, 13, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T) (*WorkLogService, *fakePublisher) {
	t.Helper()
	pub := &fakePublisher{}
	return NewWorkLogService(memory.New(), pub), pub
}

func TestCreateEntryPublishesAndClearsOverride(t *testing.T) {
	svc, pub := newService(t)
	ctx := context.Background()

	svc.SetWeeklyOverride(40)
	id, err := svc.CreateEntry(ctx, core.LogEntry{Date: "2024-03-13", TimeIn: "09:00", TimeOut: "17:00", BreakMinutes: 30})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Len(t, pub.syncs, 1)
	assert.Nil(t, svc.WeeklyOverride())
}

func TestCreateEntryRejectsInvalid(t *testing.T) {
	svc, pub := newService(t)
	_, err := svc.CreateEntry(context.Background(), core.LogEntry{Date: "13/03/2024"})
	assert.ErrorIs(t, err, core.ErrInvalidDate)
	assert.Empty(t, pub.syncs)
}

func TestSummaryComputedAndOverridden(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CreateEntry(ctx, core.LogEntry{Date: "2024-03-13", TimeIn: "09:00", TimeOut: "17:00", BreakMinutes: 30})
	require.NoError(t, err)
	_, err = svc.CreateEntry(ctx, core.LogEntry{Date: "2024-03-11", TimeIn: "09:00", TimeOut: "13:00"})
	require.NoError(t, err)

	s, err := svc.Summary(ctx, today)
	require.NoError(t, err)
	assert.InDelta(t, 7.5, s.Daily, 1e-9)
	assert.InDelta(t, 11.5, s.Weekly, 1e-9)

	// A manual override replaces the weekly total verbatim.
	svc.SetWeeklyOverride(38)
	s, err = svc.Summary(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, 38.0, s.Weekly)

	// Any further mutation drops back to the computed value.
	_, err = svc.CreateEntry(ctx, core.LogEntry{Date: "2024-03-12", TimeIn: "10:00", TimeOut: "12:00"})
	require.NoError(t, err)
	s, err = svc.Summary(ctx, today)
	require.NoError(t, err)
	assert.InDelta(t, 13.5, s.Weekly, 1e-9)
}

func TestHolidayCarryFlowsIntoWeekly(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CreateEntry(ctx, core.LogEntry{Date: "2024-03-13", TimeIn: "09:00", TimeOut: "17:00"})
	require.NoError(t, err)

	svc.SetWeeklyOverride(99)
	carry, err := svc.AddHolidayHours(ctx, 8)
	require.NoError(t, err)
	assert.Equal(t, 8.0, carry)
	// Saving holiday hours clears the override too.
	assert.Nil(t, svc.WeeklyOverride())

	s, err := svc.Summary(ctx, today)
	require.NoError(t, err)
	assert.InDelta(t, 16.0, s.Weekly, 1e-9)

	// Carry accumulates across saves.
	carry, err = svc.AddHolidayHours(ctx, 1.5)
	require.NoError(t, err)
	assert.Equal(t, 9.5, carry)

	_, err = svc.AddHolidayHours(ctx, -2)
	assert.ErrorIs(t, err, core.ErrNegativeHours)
}

func TestDeleteLastEntryResetsCarry(t *testing.T) {
	svc, pub := newService(t)
	ctx := context.Background()

	id, err := svc.CreateEntry(ctx, core.LogEntry{Date: "2024-03-13", TimeIn: "09:00", TimeOut: "17:00"})
	require.NoError(t, err)
	_, err = svc.AddHolidayHours(ctx, 12)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteEntry(ctx, id))
	assert.Len(t, pub.deletes, 1)

	s, err := svc.Summary(ctx, today)
	require.NoError(t, err)
	assert.Zero(t, s.Weekly)

	// The reset is persisted, not just masked by the empty-collection
	// rule: a new entry must not resurrect the old carry.
	_, err = svc.CreateEntry(ctx, core.LogEntry{Date: "2024-03-13", TimeIn: "09:00", TimeOut: "10:00"})
	require.NoError(t, err)
	s, err = svc.Summary(ctx, today)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, s.Weekly, 1e-9)
}

func TestDeleteKeepsCarryWhileEntriesRemain(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	id1, err := svc.CreateEntry(ctx, core.LogEntry{Date: "2024-03-11", TimeIn: "09:00", TimeOut: "17:00"})
	require.NoError(t, err)
	_, err = svc.CreateEntry(ctx, core.LogEntry{Date: "2024-03-12", TimeIn: "09:00", TimeOut: "17:00"})
	require.NoError(t, err)
	_, err = svc.AddHolidayHours(ctx, 4)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteEntry(ctx, id1))

	s, err := svc.Summary(ctx, today)
	require.NoError(t, err)
	assert.InDelta(t, 12.0, s.Weekly, 1e-9) // 8h remaining + 4h carry
}

func TestUpdateEntryMergesAndClearsOverride(t *testing.T) {
	svc, pub := newService(t)
	ctx := context.Background()

	id, err := svc.CreateEntry(ctx, core.LogEntry{Date: "2024-03-13", TimeIn: "09:00", TimeOut: "17:00", BreakMinutes: 30})
	require.NoError(t, err)
	pub.syncs = nil

	svc.SetWeeklyOverride(40)
	out := "18:00"
	require.NoError(t, svc.UpdateEntry(ctx, id, core.EntryPatch{TimeOut: &out}))
	assert.Len(t, pub.syncs, 1)
	assert.Nil(t, svc.WeeklyOverride())

	s, err := svc.Summary(ctx, today)
	require.NoError(t, err)
	assert.InDelta(t, 8.5, s.Daily, 1e-9)

	// An empty patch is a no-op and publishes nothing.
	pub.syncs = nil
	require.NoError(t, svc.UpdateEntry(ctx, id, core.EntryPatch{}))
	assert.Empty(t, pub.syncs)
}

func TestWorkLogDelegatesToView(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	for _, d := range []string{"2024-03-11", "2023-07-01", "2024-01-05"} {
		_, err := svc.CreateEntry(ctx, core.LogEntry{Date: d})
		require.NoError(t, err)
	}

	res, err := svc.WorkLog(ctx, core.SortDesc, core.Filter{Year: "2024"})
	require.NoError(t, err)
	require.Len(t, res.Visible, 2)
	assert.Equal(t, "2024-03-11", res.Visible[0].Date)
	assert.Equal(t, []string{"2024", "2023"}, res.Years)
}
