package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worklog/internal/core"
)

func TestAppendAssignsIDs(t *testing.T) {
	s := New()
	ctx := context.Background()

	id1, err := s.Append(ctx, core.LogEntry{Date: "2024-03-11", TimeIn: "09:00", TimeOut: "17:00"})
	require.NoError(t, err)
	id2, err := s.Append(ctx, core.LogEntry{Date: "2024-03-12"})
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	entries, err := s.ListEntries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.False(t, entries[0].CreatedAt.IsZero())
}

func TestAppendRejectsInvalid(t *testing.T) {
	s := New()
	_, err := s.Append(context.Background(), core.LogEntry{Date: "not-a-date"})
	assert.ErrorIs(t, err, core.ErrInvalidDate)
}

func TestUpdateMergesPatch(t *testing.T) {
	s := New()
	ctx := context.Background()
	id, err := s.Append(ctx, core.LogEntry{Date: "2024-03-11", TimeIn: "09:00", TimeOut: "17:00", BreakMinutes: 30})
	require.NoError(t, err)

	out := "18:00"
	require.NoError(t, s.Update(ctx, id, core.EntryPatch{TimeOut: &out}))

	entries, err := s.ListEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	// Untouched fields survive the merge.
	assert.Equal(t, "09:00", entries[0].TimeIn)
	assert.Equal(t, "18:00", entries[0].TimeOut)
	assert.Equal(t, 30, entries[0].BreakMinutes)

	assert.ErrorIs(t, s.Update(ctx, "999", core.EntryPatch{TimeOut: &out}), ErrNotFound)
}

func TestDelete(t *testing.T) {
	s := New()
	ctx := context.Background()
	id, err := s.Append(ctx, core.LogEntry{Date: "2024-03-11"})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, id))
	entries, err := s.ListEntries(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	assert.ErrorIs(t, s.Delete(ctx, id), ErrNotFound)
}

func TestHolidayCarry(t *testing.T) {
	s := New()
	ctx := context.Background()

	carry, err := s.HolidayCarry(ctx)
	require.NoError(t, err)
	assert.Zero(t, carry)

	require.NoError(t, s.SetHolidayCarry(ctx, 7.5))
	carry, err = s.HolidayCarry(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7.5, carry)

	assert.ErrorIs(t, s.SetHolidayCarry(ctx, -1), core.ErrNegativeHours)
}
