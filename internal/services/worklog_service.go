package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"worklog/internal/core"
	"worklog/internal/timesheet"
)

// SyncPublisher publishes fire-and-forget mirror messages. Failures are
// logged, never surfaced to the user request.
type SyncPublisher interface {
	PublishEntrySync(ctx context.Context, id, version int64) error
	PublishEntryDelete(ctx context.Context, id int64, date string) error
}

// WorkLogService orchestrates entry writes, the session-local weekly
// override, and the persisted holiday carry. The override lives here
// because it is session state, not a domain record: any mutation of the
// log collection (and saving holiday hours) clears it.
type WorkLogService struct {
	store     timesheet.Store
	publisher SyncPublisher

	mu       sync.Mutex
	override *float64
}

func NewWorkLogService(store timesheet.Store, publisher SyncPublisher) *WorkLogService {
	return &WorkLogService{
		store:     store,
		publisher: publisher,
	}
}

// CreateEntry validates and saves a new log entry, publishes a sync
// message, and clears the weekly override.
func (s *WorkLogService) CreateEntry(ctx context.Context, e core.LogEntry) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}

	id, err := s.store.Append(ctx, e)
	if err != nil {
		return "", fmt.Errorf("save log entry: %w", err)
	}

	s.publishSync(ctx, id)
	s.ClearWeeklyOverride()
	return id, nil
}

// UpdateEntry merges the patch into an existing entry, publishes a sync
// message, and clears the weekly override.
func (s *WorkLogService) UpdateEntry(ctx context.Context, id string, p core.EntryPatch) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.IsEmpty() {
		return nil
	}

	if err := s.store.Update(ctx, id, p); err != nil {
		return fmt.Errorf("update log entry: %w", err)
	}

	s.publishSync(ctx, id)
	s.ClearWeeklyOverride()
	return nil
}

// DeleteEntry removes an entry, publishes a delete message, and clears
// the weekly override. Deleting the last remaining entry additionally
// resets the holiday carry to zero; that reset is the explicit
// collection-emptied transition the aggregator itself stays pure of.
func (s *WorkLogService) DeleteEntry(ctx context.Context, id string) error {
	var date string
	if entries, err := s.store.ListEntries(ctx); err == nil {
		for _, e := range entries {
			if e.ID == id {
				date = e.Date
				break
			}
		}
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete log entry: %w", err)
	}

	s.publishDelete(ctx, id, date)
	s.ClearWeeklyOverride()

	empty, err := s.collectionEmpty(ctx)
	if err != nil {
		return fmt.Errorf("check remaining entries: %w", err)
	}
	if empty {
		if err := s.store.SetHolidayCarry(ctx, 0); err != nil {
			return fmt.Errorf("reset holiday carry: %w", err)
		}
		slog.InfoContext(ctx, "Log collection emptied, holiday carry reset")
	}

	return nil
}

// collectionEmpty prefers the store's counter when it has one (the
// SQLite repository) over listing every entry.
func (s *WorkLogService) collectionEmpty(ctx context.Context) (bool, error) {
	if counter, ok := s.store.(interface {
		CountEntries(ctx context.Context) (int64, error)
	}); ok {
		n, err := counter.CountEntries(ctx)
		return n == 0, err
	}

	remaining, err := s.store.ListEntries(ctx)
	return len(remaining) == 0, err
}

// AddHolidayHours adds a non-negative number of hours to the persisted
// carry and clears the weekly override.
func (s *WorkLogService) AddHolidayHours(ctx context.Context, hours float64) (float64, error) {
	if hours < 0 {
		return 0, core.ErrNegativeHours
	}

	carry, err := s.store.HolidayCarry(ctx)
	if err != nil {
		return 0, fmt.Errorf("read holiday carry: %w", err)
	}
	carry += hours
	if err := s.store.SetHolidayCarry(ctx, carry); err != nil {
		return 0, fmt.Errorf("save holiday carry: %w", err)
	}

	s.ClearWeeklyOverride()
	slog.InfoContext(ctx, "Holiday hours added", "added", hours, "carry", carry)
	return carry, nil
}

// SetWeeklyOverride replaces the computed weekly total with a manual
// value until the next log mutation clears it.
func (s *WorkLogService) SetWeeklyOverride(hours float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := hours
	s.override = &v
	slog.Info("Weekly hours manually set", "hours", hours)
}

func (s *WorkLogService) ClearWeeklyOverride() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.override = nil
}

// WeeklyOverride returns the current override, or nil when unset.
func (s *WorkLogService) WeeklyOverride() *float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.override == nil {
		return nil
	}
	v := *s.override
	return &v
}

// Summary computes today's and this week's totals from the live
// collection, carry, and override.
func (s *WorkLogService) Summary(ctx context.Context, today time.Time) (core.Summary, error) {
	entries, err := s.store.ListEntries(ctx)
	if err != nil {
		return core.Summary{}, fmt.Errorf("list log entries: %w", err)
	}
	carry, err := s.store.HolidayCarry(ctx)
	if err != nil {
		return core.Summary{}, fmt.Errorf("read holiday carry: %w", err)
	}
	return core.Aggregate(entries, today, s.WeeklyOverride(), carry), nil
}

// WorkLog returns the filtered, sorted entries plus the distinct
// year/month sets for the filter dropdowns.
func (s *WorkLogService) WorkLog(ctx context.Context, direction core.Sort, f core.Filter) (core.ViewResult, error) {
	entries, err := s.store.ListEntries(ctx)
	if err != nil {
		return core.ViewResult{}, fmt.Errorf("list log entries: %w", err)
	}
	return core.View(entries, direction, f), nil
}

func (s *WorkLogService) publishSync(ctx context.Context, id string) {
	if s.publisher == nil {
		return
	}
	entryID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to parse entry ID for sync", "id", id, "error", err)
		return
	}
	if err := s.publisher.PublishEntrySync(ctx, entryID, 1); err != nil {
		// The entry is saved locally; the worker's catch-up pass will
		// pick it up later.
		slog.ErrorContext(ctx, "Failed to publish sync message", "id", entryID, "error", err)
	}
}

func (s *WorkLogService) publishDelete(ctx context.Context, id, date string) {
	if s.publisher == nil {
		return
	}
	entryID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to parse entry ID for delete", "id", id, "error", err)
		return
	}
	if err := s.publisher.PublishEntryDelete(ctx, entryID, date); err != nil {
		slog.ErrorContext(ctx, "Failed to publish delete message", "id", entryID, "error", err)
	}
}
