package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/sortwise/internal/common"
	"github.com/Veraticus/sortwise/internal/model"
)

func TestSettingsRoundTrip(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	settings, err := store.LoadSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), settings)

	want := Settings{Zip: "94102", LocationAware: false, AutoSave: true, AutoSync: false}
	require.NoError(t, store.SaveSettings(ctx, want))

	got, err := store.LoadSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	raw, err := store.Get(ctx, KeyLocationAware)
	require.NoError(t, err)
	assert.Equal(t, "false", raw)
}

func TestSettingsCorruptionFallsBackToDefaults(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, KeyZip, `{"not":"a zip"}`))
	require.NoError(t, store.Set(ctx, KeyLocationAware, `maybe`))
	require.NoError(t, store.Set(ctx, KeyAutoSave, `false`))
	require.NoError(t, store.Set(ctx, KeyAutoSync, `"yes"`))

	got, err := store.LoadSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, Settings{Zip: "", LocationAware: true, AutoSave: false, AutoSync: true}, got)

	require.NoError(t, store.Set(ctx, KeyZip, `"9410"`))
	got, err = store.LoadSettings(ctx)
	require.NoError(t, err)
	assert.Empty(t, got.Zip)
}

func TestHistoryRoundTrip(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	empty, err := store.LoadHistory(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	entries := []model.HistoryEntry{
		{
			ID: "b", CreatedAt: time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC), Item: "Glass jar", Material: "glass",
			Recyclable: true, Bin: model.BinRecycling, Source: model.SourcePhoto, Zip: "94102", ScanCount: 3,
			RawText: `{"item":"Glass jar"}`, ImagePreview: "data:image/jpeg;base64,AAA",
			ItemKey: "glass-jar:recycling", FirstDay: "2026-05-01", DayScans: map[string]int{"2026-05-01": 2, "2026-05-02": 1},
		},
		{
			ID: "a", CreatedAt: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC), Item: "Pizza box", Material: "cardboard",
			Bin: model.BinCompost, Notes: "Compost greasy boxes.", Source: model.SourceText, ScanCount: 1,
		},
	}
	require.NoError(t, store.SaveHistory(ctx, entries))

	got, err := store.LoadHistory(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(entries, got); diff != "" {
		t.Errorf("LoadHistory() mismatch (-want +got):\n%s", diff)
	}

	raw, err := store.Get(ctx, KeyHistory)
	require.NoError(t, err)
	assert.Contains(t, raw, `"scanCount":3`)
	assert.Contains(t, raw, `"createdAt":"2026-05-02T10:00:00Z"`)

	require.NoError(t, store.SaveHistory(ctx, nil))
	got, err = store.LoadHistory(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestHistoryCorruptionIsEmpty(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	for _, raw := range []string{`not json`, `{"id":"x"}`, `[{"id":"a","scanCount":"many"}]`, `[`} {
		require.NoError(t, store.Set(ctx, KeyHistory, raw))
		got, err := store.LoadHistory(ctx)
		require.NoError(t, err, raw)
		assert.Empty(t, got, raw)
	}
}

func TestSettingsApply(t *testing.T) {
	s := DefaultSettings()

	require.NoError(t, s.Apply("zip", " 94102 "))
	assert.Equal(t, "94102", s.Zip)
	assert.Equal(t, "94102", s.EffectiveZip())

	require.NoError(t, s.Apply("location_aware", "false"))
	assert.False(t, s.LocationAware)
	assert.Empty(t, s.EffectiveZip())

	require.NoError(t, s.Apply("auto_save", "0"))
	require.NoError(t, s.Apply("auto_sync", "f"))
	assert.False(t, s.AutoSave)
	assert.False(t, s.AutoSync)

	require.NoError(t, s.Apply("zip", ""))
	assert.Empty(t, s.Zip)

	var validationErr *common.ValidationError
	err := s.Apply("zip", "941")
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "zip", validationErr.Field)

	err = s.Apply("auto_sync", "sometimes")
	require.True(t, errors.As(err, &validationErr))

	err = s.Apply("theme", "dark")
	require.True(t, errors.As(err, &validationErr))
	assert.Contains(t, err.Error(), "location_aware")
}
