package memory

import (
	"context"
	"strconv"
	"sync"
	"time"

	"worklog/internal/core"
	"worklog/internal/timesheet"
)

// ErrNotFound is returned for operations on unknown entry IDs.
var ErrNotFound = timesheet.ErrNotFound

// Store is an in-memory backend used for development and tests. It
// mirrors the SQLite repository's behavior including merge updates.
type Store struct {
	mu     sync.Mutex
	nextID int
	items  []core.LogEntry
	carry  float64
}

func New() *Store {
	return &Store{nextID: 1}
}

// NewWithEntries seeds the store, assigning IDs in order.
func NewWithEntries(entries []core.LogEntry) *Store {
	s := New()
	for _, e := range entries {
		_, _ = s.Append(context.Background(), e)
	}
	return s
}

// Append stores the entry and returns its assigned ID.
func (s *Store) Append(_ context.Context, e core.LogEntry) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = strconv.Itoa(s.nextID)
	s.nextID++
	now := time.Now()
	e.CreatedAt = now
	e.UpdatedAt = now
	s.items = append(s.items, e)
	return e.ID, nil
}

// Update merges the patch into the stored entry.
func (s *Store) Update(_ context.Context, id string, p core.EntryPatch) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID != id {
			continue
		}
		if p.Date != nil {
			s.items[i].Date = *p.Date
		}
		if p.TimeIn != nil {
			s.items[i].TimeIn = *p.TimeIn
		}
		if p.TimeOut != nil {
			s.items[i].TimeOut = *p.TimeOut
		}
		if p.BreakMinutes != nil {
			s.items[i].BreakMinutes = *p.BreakMinutes
		}
		s.items[i].UpdatedAt = time.Now()
		return nil
	}
	return ErrNotFound
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (s *Store) ListEntries(_ context.Context) ([]core.LogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.LogEntry, len(s.items))
	copy(out, s.items)
	return out, nil
}

func (s *Store) HolidayCarry(_ context.Context) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.carry, nil
}

func (s *Store) SetHolidayCarry(_ context.Context, hours float64) error {
	if hours < 0 {
		return core.ErrNegativeHours
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carry = hours
	return nil
}
