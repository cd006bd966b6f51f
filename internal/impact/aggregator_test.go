package impact

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/sortwise/internal/common"
	"github.com/Veraticus/sortwise/internal/model"
	"github.com/Veraticus/sortwise/internal/remote"
	"github.com/Veraticus/sortwise/internal/session"
)

type fakeReader struct {
	err         error
	aggregate   remote.Row
	leaderboard []remote.Row
	calls       int
	found       bool
}

func (f *fakeReader) FetchUserAggregate(_ context.Context, _, _ string) (remote.Row, bool, error) {
	f.calls++
	return f.aggregate, f.found, f.err
}

func (f *fakeReader) FetchLeaderboard(_ context.Context, _ string, limit int) ([]remote.Row, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.leaderboard) {
		return f.leaderboard[:limit], nil
	}
	return f.leaderboard, nil
}

func testAggregator(reader Reader) *Aggregator {
	a := NewAggregator(reader, common.DiscardLogger())
	a.now = func() time.Time { return now }
	return a
}

func sampleEntries() []model.HistoryEntry {
	return []model.HistoryEntry{
		{Item: "can", Material: "aluminum", Source: model.SourcePhoto, Recyclable: true, ScanCount: 2, CreatedAt: now},
		{Item: "cup", Material: "paper", Source: model.SourceText, Recyclable: false, ScanCount: 1, CreatedAt: now},
	}
}

func TestAggregatorDisplay(t *testing.T) {
	ctx := context.Background()
	user := session.New("user-1", "Robin", "token")
	local := Totals(sampleEntries(), now)

	t.Run("guest sees local totals without a remote call", func(t *testing.T) {
		reader := &fakeReader{found: true, aggregate: remote.Row{"total_points": 99.0}}
		got := testAggregator(reader).Display(ctx, session.Guest(), sampleEntries())

		assert.Equal(t, OriginLocal, got.Origin)
		assert.Equal(t, local, got.Shown)
		assert.Equal(t, 0, reader.calls)
	})

	t.Run("no backend", func(t *testing.T) {
		got := testAggregator(nil).Display(ctx, user, sampleEntries())
		assert.Equal(t, OriginLocal, got.Origin)
		assert.Equal(t, 1, got.Shown.Points)
	})

	t.Run("remote overlay", func(t *testing.T) {
		reader := &fakeReader{found: true, aggregate: remote.Row{
			"total_points": 40.0, "total_scans": 55.0, "recyclable_count": "31",
		}}
		got := testAggregator(reader).Display(ctx, user, sampleEntries())

		assert.Equal(t, OriginRemote, got.Origin)
		assert.Equal(t, 40, got.Shown.Points)
		assert.Equal(t, 55, got.Shown.TotalScans)
		assert.Equal(t, 31, got.Shown.RecyclableCount)
		assert.Equal(t, local.StreakDays, got.Shown.StreakDays)
		assert.Equal(t, local.Materials, got.Shown.Materials)
		assert.Equal(t, local, got.Local, "local totals are never rewritten")
	})

	t.Run("remote failure falls back silently", func(t *testing.T) {
		reader := &fakeReader{err: errors.New("connection refused")}
		got := testAggregator(reader).Display(ctx, user, sampleEntries())

		assert.Equal(t, OriginLocal, got.Origin)
		assert.Equal(t, local, got.Shown)
		assert.Equal(t, 1, reader.calls)
	})

	t.Run("no remote row yet", func(t *testing.T) {
		reader := &fakeReader{found: false}
		got := testAggregator(reader).Display(ctx, user, sampleEntries())
		assert.Equal(t, OriginLocal, got.Origin)
	})
}

func TestAggregatorLeaderboard(t *testing.T) {
	ctx := context.Background()
	reader := &fakeReader{leaderboard: []remote.Row{
		{"display_name": "Robin", "total_points": 12.0, "total_scans": 20.0, "recyclable_count": 15.0},
		{"username": "kai", "points": "7", "scans": 9.0},
		{"total_points": 3.0},
	}}

	rows, err := testAggregator(reader).Leaderboard(ctx, session.Guest(), 10)
	require.NoError(t, err)
	assert.Equal(t, []model.LeaderboardRow{
		{DisplayName: "Robin", TotalPoints: 12, TotalScans: 20, RecyclableCount: 15},
		{DisplayName: "kai", TotalPoints: 7, TotalScans: 9},
		{DisplayName: AnonymousName, TotalPoints: 3},
	}, rows)

	_, err = testAggregator(nil).Leaderboard(ctx, session.Guest(), 10)
	assert.ErrorIs(t, err, ErrNoBackend)

	_, err = testAggregator(&fakeReader{err: errors.New("down")}).Leaderboard(ctx, session.Guest(), 10)
	assert.Error(t, err)
}

func TestNormalizeLeaderboardRow(t *testing.T) {
	tests := []struct {
		name string
		row  map[string]any
		want model.LeaderboardRow
	}{
		{"empty", map[string]any{}, model.LeaderboardRow{DisplayName: AnonymousName}},
		{"blank name", map[string]any{"display_name": "  ", "name": "Sam"}, model.LeaderboardRow{DisplayName: "Sam"}},
		{"camel case", map[string]any{"displayName": "Ana", "totalPoints": 5.0}, model.LeaderboardRow{DisplayName: "Ana", TotalPoints: 5}},
		{"non numeric", map[string]any{"total_points": "lots", "points": 2.0}, model.LeaderboardRow{DisplayName: AnonymousName, TotalPoints: 2}},
		{"fractional rounds", map[string]any{"total_scans": 2.6}, model.LeaderboardRow{DisplayName: AnonymousName, TotalScans: 3}},
		{"wrong types", map[string]any{"display_name": 42, "recyclable": true}, model.LeaderboardRow{DisplayName: AnonymousName}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeLeaderboardRow(tt.row))
		})
	}
}
