package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"worklog/internal/core"
	"worklog/internal/timesheet"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when an entry ID does not exist or has been
// soft-deleted.
var ErrNotFound = timesheet.ErrNotFound

const carryKey = "holiday_carry"

// PendingEntry is the minimal data the sync worker needs to enqueue a
// catch-up sync for an entry that never reached the timesheet mirror.
type PendingEntry struct {
	ID        int64
	Version   int64
	CreatedAt time.Time
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Append implements timesheet.EntryWriter.
func (r *SQLiteRepository) Append(ctx context.Context, e core.LogEntry) (string, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO log_entries (date, time_in, time_out, break_minutes)
		VALUES (?, ?, ?, ?)`,
		e.Date, e.TimeIn, e.TimeOut, e.BreakMinutes)
	if err != nil {
		return "", fmt.Errorf("insert log entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("last insert id: %w", err)
	}

	slog.InfoContext(ctx, "Log entry saved",
		"id", id,
		"date", e.Date,
		"time_in", e.TimeIn,
		"time_out", e.TimeOut,
		"break_minutes", e.BreakMinutes)

	return strconv.FormatInt(id, 10), nil
}

// Update implements timesheet.EntryUpdater with merge semantics: nil
// patch fields keep the stored value (COALESCE).
func (r *SQLiteRepository) Update(ctx context.Context, id string, p core.EntryPatch) error {
	entryID, err := parseID(id)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE log_entries SET
			date = COALESCE(?, date),
			time_in = COALESCE(?, time_in),
			time_out = COALESCE(?, time_out),
			break_minutes = COALESCE(?, break_minutes),
			version = version + 1,
			synced = 0,
			sync_error = 0,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND deleted_at IS NULL`,
		p.Date, p.TimeIn, p.TimeOut, p.BreakMinutes, entryID)
	if err != nil {
		return fmt.Errorf("update log entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	slog.InfoContext(ctx, "Log entry updated", "id", entryID)
	return nil
}

// Delete implements timesheet.EntryDeleter via soft delete, keeping the
// row around for the mirror's delete message.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	entryID, err := parseID(id)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE log_entries SET deleted_at = CURRENT_TIMESTAMP
		WHERE id = ? AND deleted_at IS NULL`, entryID)
	if err != nil {
		return fmt.Errorf("delete log entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	slog.InfoContext(ctx, "Log entry deleted", "id", entryID)
	return nil
}

// ListEntries implements timesheet.EntryLister.
func (r *SQLiteRepository) ListEntries(ctx context.Context) ([]core.LogEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, date, time_in, time_out, break_minutes, created_at, updated_at
		FROM log_entries WHERE deleted_at IS NULL`)
	if err != nil {
		return nil, fmt.Errorf("list log entries: %w", err)
	}
	defer rows.Close()

	var entries []core.LogEntry
	for rows.Next() {
		var (
			e  core.LogEntry
			id int64
		)
		if err := rows.Scan(&id, &e.Date, &e.TimeIn, &e.TimeOut, &e.BreakMinutes, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan log entry: %w", err)
		}
		e.ID = strconv.FormatInt(id, 10)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate log entries: %w", err)
	}
	return entries, nil
}

// GetEntry returns a single live entry by numeric ID.
func (r *SQLiteRepository) GetEntry(ctx context.Context, id int64) (core.LogEntry, error) {
	var e core.LogEntry
	err := r.db.QueryRowContext(ctx, `
		SELECT date, time_in, time_out, break_minutes, created_at, updated_at
		FROM log_entries WHERE id = ? AND deleted_at IS NULL`, id).
		Scan(&e.Date, &e.TimeIn, &e.TimeOut, &e.BreakMinutes, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.LogEntry{}, ErrNotFound
	}
	if err != nil {
		return core.LogEntry{}, fmt.Errorf("get log entry: %w", err)
	}
	e.ID = strconv.FormatInt(id, 10)
	return e, nil
}

// CountEntries counts live entries; the service uses it to detect the
// collection-emptied transition.
func (r *SQLiteRepository) CountEntries(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM log_entries WHERE deleted_at IS NULL`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count log entries: %w", err)
	}
	return n, nil
}

// HolidayCarry implements timesheet.CarryStore.
func (r *SQLiteRepository) HolidayCarry(ctx context.Context) (float64, error) {
	var raw string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, carryKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read holiday carry: %w", err)
	}
	carry, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parse holiday carry %q: %w", raw, err)
	}
	return carry, nil
}

// SetHolidayCarry implements timesheet.CarryStore.
func (r *SQLiteRepository) SetHolidayCarry(ctx context.Context, hours float64) error {
	if hours < 0 {
		return core.ErrNegativeHours
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		carryKey, strconv.FormatFloat(hours, 'f', -1, 64))
	if err != nil {
		return fmt.Errorf("set holiday carry: %w", err)
	}

	slog.InfoContext(ctx, "Holiday carry saved", "hours", hours)
	return nil
}

// GetPendingSync returns entries that never reached the timesheet
// mirror, for the worker's catch-up pass.
func (r *SQLiteRepository) GetPendingSync(ctx context.Context, limit int) ([]PendingEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, version, created_at FROM log_entries
		WHERE synced = 0 AND sync_error = 0 AND deleted_at IS NULL
		ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync entries: %w", err)
	}
	defer rows.Close()

	var pending []PendingEntry
	for rows.Next() {
		var p PendingEntry
		if err := rows.Scan(&p.ID, &p.Version, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending entry: %w", err)
		}
		pending = append(pending, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending entries: %w", err)
	}
	return pending, nil
}

// MarkSynced marks an entry as successfully mirrored.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE log_entries SET synced = 1, sync_error = 0 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark entry synced: %w", err)
	}
	slog.InfoContext(ctx, "Log entry marked as synced", "id", id)
	return nil
}

// MarkSyncError marks an entry as having failed to mirror so the
// catch-up pass stops retrying it.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE log_entries SET sync_error = 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark entry sync error: %w", err)
	}
	slog.WarnContext(ctx, "Log entry marked with sync error", "id", id)
	return nil
}

func parseID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad id %q", ErrNotFound, id)
	}
	return n, nil
}
