package timesheet

import (
	"context"
	"errors"

	"worklog/internal/core"
)

// ErrNotFound is returned by stores for operations on unknown entry IDs.
var ErrNotFound = errors.New("log entry not found")

// Ports for outbound adapters.
type (
	EntryWriter interface {
		Append(ctx context.Context, e core.LogEntry) (id string, err error)
	}

	// EntryUpdater merges a partial patch into an existing entry;
	// nil patch fields are left untouched.
	EntryUpdater interface {
		Update(ctx context.Context, id string, p core.EntryPatch) error
	}

	EntryDeleter interface {
		Delete(ctx context.Context, id string) error
	}

	// EntryLister returns every entry for the single tracked user.
	// Order is unspecified; callers sort via core.View.
	EntryLister interface {
		ListEntries(ctx context.Context) ([]core.LogEntry, error)
	}

	// CarryStore persists the accumulated holiday-pay hours outside
	// the log collection.
	CarryStore interface {
		HolidayCarry(ctx context.Context) (float64, error)
		SetHolidayCarry(ctx context.Context, hours float64) error
	}

	// Store is the full surface a worklog backend provides.
	Store interface {
		EntryWriter
		EntryUpdater
		EntryDeleter
		EntryLister
		CarryStore
	}
)
