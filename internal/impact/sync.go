package impact

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Veraticus/sortwise/internal/background"
	"github.com/Veraticus/sortwise/internal/common"
	"github.com/Veraticus/sortwise/internal/history"
	"github.com/Veraticus/sortwise/internal/model"
	"github.com/Veraticus/sortwise/internal/remote"
	"github.com/Veraticus/sortwise/internal/session"
)

// Writer upserts impact rows.
type Writer interface {
	UpsertImpactEntry(ctx context.Context, token string, entry remote.ImpactEntry) error
}

// Submitter schedules background work.
type Submitter interface {
	Submit(name string, task background.Task) bool
}

// Syncer mirrors history entries to the backend without blocking the caller.
// Failures are logged by the queue and never reach the user.
type Syncer struct {
	writer Writer
	queue  Submitter
	logger *slog.Logger
	now    func() time.Time
}

// NewSyncer creates a Syncer.
func NewSyncer(writer Writer, queue Submitter, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{writer: writer, queue: queue, logger: logger, now: time.Now}
}

// Submit schedules an upsert of entry for sess. It reports whether anything
// was scheduled; guests and missing backends are skipped.
func (s *Syncer) Submit(sess session.Session, entry model.HistoryEntry) bool {
	if s == nil || s.writer == nil || s.queue == nil || !sess.Authenticated() {
		return false
	}

	rows := EntryRows(sess.UserID, entry, s.now())
	token := sess.BearerToken()
	return s.queue.Submit("impact sync", func(ctx context.Context) error {
		for _, row := range rows {
			if err := s.writer.UpsertImpactEntry(ctx, token, row); err != nil {
				if !errors.Is(err, common.ErrSyncFailed) {
					err = errors.Join(common.ErrSyncFailed, err)
				}
				return err
			}
			s.logger.Debug("impact synced", "item_key", row.ItemKey, "day_key", row.DayKey, "scans", row.Scans)
		}
		return nil
	})
}

// EntryRows builds the backend rows for entry. Rows are keyed by the item key
// fixed at first scan and carry absolute per-day scan counts, so upserting
// them again never double counts. Points live only on the first day's row;
// that row is resent whenever a later day is written so its points track the
// entry's current evidence.
func EntryRows(userID string, entry model.HistoryEntry, now time.Time) []remote.ImpactEntry {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry = history.WithSyncKeys(entry)

	day := history.DayKey(entry.CreatedAt)
	rows := []remote.ImpactEntry{dayRow(userID, entry, day, now)}
	if day != entry.FirstDay {
		rows = append(rows, dayRow(userID, entry, entry.FirstDay, now))
	}
	return rows
}

func dayRow(userID string, entry model.HistoryEntry, day string, now time.Time) remote.ImpactEntry {
	points := 0
	if day == entry.FirstDay {
		points = history.Points(entry)
	}

	return remote.ImpactEntry{
		UserID:     userID,
		ItemKey:    entry.ItemKey,
		DayKey:     day,
		Item:       entry.Item,
		Material:   entry.Material,
		Bin:        string(entry.Bin),
		Source:     string(entry.Source),
		Points:     points,
		Scans:      max(1, entry.DayScans[day]),
		Recyclable: entry.Recyclable,
		UpdatedAt:  now.UTC(),
	}
}
