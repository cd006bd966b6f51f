package history

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Veraticus/sortwise/internal/common"
	"github.com/Veraticus/sortwise/internal/model"
)

// Store persists the history collection as a whole.
type Store interface {
	LoadHistory(ctx context.Context) ([]model.HistoryEntry, error)
	SaveHistory(ctx context.Context, entries []model.HistoryEntry) error
}

// RecordResult describes what Record did with an incoming entry.
type RecordResult struct {
	Entry  model.HistoryEntry
	Merged bool
}

// Engine is the only writer of the history collection. Every
// read-modify-write cycle holds its mutex.
type Engine struct {
	store  Store
	logger *slog.Logger
	mu     sync.Mutex
}

// NewEngine creates an Engine over store.
func NewEngine(store Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, logger: logger}
}

// List returns the collection, most recent first.
func (e *Engine) List(ctx context.Context) ([]model.HistoryEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	entries, err := e.store.LoadHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return entries, nil
}

// Record merges incoming into the first similar entry, or inserts it at the
// head of the collection when nothing matches.
func (e *Engine) Record(ctx context.Context, incoming model.HistoryEntry) (RecordResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	entries, err := e.store.LoadHistory(ctx)
	if err != nil {
		return RecordResult{}, fmt.Errorf("failed to load history: %w", err)
	}

	var result RecordResult
	if idx := FindMatch(entries, incoming); idx != noMatch {
		merged := Merge(entries[idx], incoming)
		entries[idx] = merged
		result = RecordResult{Entry: merged, Merged: true}
		e.logger.Debug("merged scan into history entry",
			"id", merged.ID,
			"item", merged.Item,
			"scan_count", merged.ScanCount,
			"source", merged.Source)
	} else {
		entries = append([]model.HistoryEntry{incoming}, entries...)
		result = RecordResult{Entry: incoming}
		e.logger.Debug("added history entry", "id", incoming.ID, "item", incoming.Item)
	}

	if err := e.store.SaveHistory(ctx, entries); err != nil {
		return RecordResult{}, fmt.Errorf("failed to save history: %w", err)
	}
	return result, nil
}

// Delete removes the entry with id.
func (e *Engine) Delete(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	entries, err := e.store.LoadHistory(ctx)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	for i, entry := range entries {
		if entry.ID != id {
			continue
		}
		entries = append(entries[:i], entries[i+1:]...)
		if err := e.store.SaveHistory(ctx, entries); err != nil {
			return fmt.Errorf("failed to save history: %w", err)
		}
		return nil
	}
	return fmt.Errorf("history entry %s: %w", id, common.ErrNotFound)
}

// Clear removes every entry.
func (e *Engine) Clear(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.store.SaveHistory(ctx, []model.HistoryEntry{}); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}
