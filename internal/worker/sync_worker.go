package worker

import (
	"context"
	"fmt"
	"log/slog"

	"worklog/internal/amqp"
	"worklog/internal/core"
	"worklog/internal/storage"
)

// Mirror abstracts the remote entry copy (Google Sheets in production).
type Mirror interface {
	UpsertEntry(ctx context.Context, e core.LogEntry) (string, error)
	DeleteEntry(ctx context.Context, id string) error
}

// SyncWorker pushes work log entries from SQLite into the Google Sheets
// mirror. SQLite stays authoritative; a failed push only flips the row's
// sync flags so a later pass retries it.
type SyncWorker struct {
	storage   *storage.SQLiteRepository
	mirror    Mirror
	batchSize int
}

func NewSyncWorker(storage *storage.SQLiteRepository, mirror Mirror, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   storage,
		mirror:    mirror,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single entry sync message from AMQP
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.EntrySyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"id", msg.ID,
		"version", msg.Version)

	if w.mirror == nil {
		slog.WarnContext(ctx, "No mirror configured, skipping sync",
			"id", msg.ID)
		return nil
	}

	entry, err := w.storage.GetEntry(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("get entry from storage: %w", err)
	}

	if err := w.pushEntryToMirror(ctx, msg.ID, entry); err != nil {
		return fmt.Errorf("sync entry to mirror: %w", err)
	}

	return nil
}

// HandleDeleteMessage processes a single entry delete message from AMQP
func (w *SyncWorker) HandleDeleteMessage(ctx context.Context, msg *amqp.EntryDeleteMessage) error {
	slog.InfoContext(ctx, "Processing delete message",
		"id", msg.ID,
		"date", msg.Date)

	if w.mirror == nil {
		slog.WarnContext(ctx, "No mirror configured, skipping remote deletion",
			"id", msg.ID)
		return nil
	}

	entryID := fmt.Sprintf("%d", msg.ID)

	if err := w.mirror.DeleteEntry(ctx, entryID); err != nil {
		slog.ErrorContext(ctx, "Failed to delete entry from mirror",
			"id", msg.ID,
			"error", err,
			"timestamp", msg.Timestamp)
		return fmt.Errorf("delete entry from mirror: %w", err)
	}

	slog.InfoContext(ctx, "Successfully deleted entry from mirror",
		"id", msg.ID,
		"timestamp", msg.Timestamp)

	return nil
}

// ProcessPendingEntries pushes any entries that haven't been synced yet.
// This is a backup mechanism in case AMQP messages are lost.
func (w *SyncWorker) ProcessPendingEntries(ctx context.Context) error {
	if w.mirror == nil {
		return nil
	}

	pending, err := w.storage.GetPendingSync(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending entries: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending entries", "count", len(pending))

	for _, p := range pending {
		entry, err := w.storage.GetEntry(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get entry", "id", p.ID, "error", err)
			if err := w.storage.MarkSyncError(ctx, p.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "id", p.ID, "error", err)
			}
			continue
		}

		if err := w.pushEntryToMirror(ctx, p.ID, entry); err != nil {
			slog.ErrorContext(ctx, "Failed to sync entry", "id", p.ID, "error", err)
			continue
		}
	}

	return nil
}

// StartupSyncCheck verifies and syncs any pending entries at worker startup.
// This is useful to recover from missed AMQP messages or worker downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	// Larger batch on startup: the backlog may span the whole downtime.
	pending, err := w.storage.GetPendingSync(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending entries for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending entries found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending entries on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0

	for _, p := range pending {
		entry, err := w.storage.GetEntry(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get entry for startup sync",
				"id", p.ID, "error", err)
			if err := w.storage.MarkSyncError(ctx, p.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "id", p.ID, "error", err)
			}
			errorCount++
			continue
		}

		if err := w.pushEntryToMirror(ctx, p.ID, entry); err != nil {
			slog.ErrorContext(ctx, "Failed to sync entry during startup",
				"id", p.ID, "error", err)
			errorCount++
			continue
		}

		successCount++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", successCount,
		"errors", errorCount)

	return nil
}

func (w *SyncWorker) pushEntryToMirror(ctx context.Context, id int64, entry core.LogEntry) error {
	ref, err := w.mirror.UpsertEntry(ctx, entry)
	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", markErr)
		}
		return fmt.Errorf("upsert to mirror: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, id); err != nil {
		// The push itself worked; only the bookkeeping failed.
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", id, "error", err)
	}

	slog.InfoContext(ctx, "Successfully synced entry",
		"id", id,
		"sheets_ref", ref,
		"date", entry.Date,
		"hours", entry.Hours())

	return nil
}
