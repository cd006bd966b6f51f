// Package testutil provides shared fixtures for tests: a migrated in-memory
// database and a fluent builder for history entries.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/sortwise/internal/common"
	"github.com/Veraticus/sortwise/internal/history"
	"github.com/Veraticus/sortwise/internal/model"
	"github.com/Veraticus/sortwise/internal/storage"
)

// TestDB is a migrated in-memory database with a history engine on top.
type TestDB struct {
	Storage *storage.SQLiteStorage
	History *history.Engine
	t       *testing.T
}

// SetupTestDB creates a new in-memory database seeded with entries.
// Cleanup is registered on t.
//
// Example:
//
//	db := testutil.SetupTestDB(t,
//		testutil.NewEntry("Aluminum can").Photo().Build(),
//	)
func SetupTestDB(t *testing.T, entries ...model.HistoryEntry) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(storage.MemoryPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	if len(entries) > 0 {
		if err := store.SaveHistory(ctx, entries); err != nil {
			t.Fatalf("failed to seed history: %v", err)
		}
	}

	return &TestDB{
		Storage: store,
		History: history.NewEngine(store, common.DiscardLogger()),
		t:       t,
	}
}

// MustList returns the stored history or fails the test.
func (db *TestDB) MustList() []model.HistoryEntry {
	db.t.Helper()
	entries, err := db.History.List(context.Background())
	if err != nil {
		db.t.Fatalf("failed to list history: %v", err)
	}
	return entries
}

// MustSaveSettings stores settings or fails the test.
func (db *TestDB) MustSaveSettings(settings storage.Settings) {
	db.t.Helper()
	if err := db.Storage.SaveSettings(context.Background(), settings); err != nil {
		db.t.Fatalf("failed to save settings: %v", err)
	}
}
