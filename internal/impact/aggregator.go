package impact

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Veraticus/sortwise/internal/model"
	"github.com/Veraticus/sortwise/internal/remote"
	"github.com/Veraticus/sortwise/internal/session"
)

// ErrNoBackend is returned by remote-only operations when no backend is configured.
var ErrNoBackend = errors.New("no backend configured")

// Reader fetches aggregate rows from the backend.
type Reader interface {
	FetchUserAggregate(ctx context.Context, token, userID string) (remote.Row, bool, error)
	FetchLeaderboard(ctx context.Context, token string, limit int) ([]remote.Row, error)
}

// Origin says where displayed totals came from.
type Origin string

// Origins.
const (
	OriginLocal  Origin = "local"
	OriginRemote Origin = "remote"
)

// Display is what the impact view shows. Local holds the on-device fold and
// is never altered by remote data.
type Display struct {
	Shown  model.ImpactTotals
	Local  model.ImpactTotals
	Origin Origin
}

// Aggregator combines the local fold with the backend's aggregate.
type Aggregator struct {
	reader Reader
	logger *slog.Logger
	now    func() time.Time
}

// NewAggregator creates an Aggregator. reader may be nil when no backend is
// configured.
func NewAggregator(reader Reader, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{reader: reader, logger: logger, now: time.Now}
}

// Display computes totals for entries. Authenticated sessions see the
// backend's figures when available; any remote failure falls back to the
// local fold without an error.
func (a *Aggregator) Display(ctx context.Context, sess session.Session, entries []model.HistoryEntry) Display {
	local := Totals(entries, a.now())
	out := Display{Shown: local, Local: local, Origin: OriginLocal}

	if a.reader == nil || !sess.Authenticated() {
		return out
	}

	row, found, err := a.reader.FetchUserAggregate(ctx, sess.BearerToken(), sess.UserID)
	if err != nil {
		a.logger.Warn("remote impact unavailable, showing device totals", "user_id", sess.UserID, "error", err)
		return out
	}
	if !found {
		return out
	}

	remoteRow := NormalizeLeaderboardRow(row)
	shown := local
	shown.Points = remoteRow.TotalPoints
	shown.TotalScans = remoteRow.TotalScans
	shown.RecyclableCount = remoteRow.RecyclableCount

	out.Shown = shown
	out.Origin = OriginRemote
	return out
}

// Leaderboard returns the top rows of the backend leaderboard.
func (a *Aggregator) Leaderboard(ctx context.Context, sess session.Session, limit int) ([]model.LeaderboardRow, error) {
	if a.reader == nil {
		return nil, ErrNoBackend
	}

	rows, err := a.reader.FetchLeaderboard(ctx, sess.BearerToken(), limit)
	if err != nil {
		return nil, err
	}

	out := make([]model.LeaderboardRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, NormalizeLeaderboardRow(row))
	}
	return out, nil
}
