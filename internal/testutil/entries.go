package testutil

import (
	"strings"
	"time"

	"github.com/Veraticus/sortwise/internal/model"
)

// EntryBuilder builds history entries for tests. The zero configuration is a
// recyclable text scan seen once.
type EntryBuilder struct {
	entry model.HistoryEntry
}

// NewEntry starts an entry for item. The id is derived from the item name so
// tests can refer to it.
func NewEntry(item string) *EntryBuilder {
	return &EntryBuilder{entry: model.HistoryEntry{
		ID:         strings.ReplaceAll(strings.ToLower(item), " ", "-"),
		Item:       item,
		Material:   model.UnknownMaterial,
		Bin:        model.BinRecycling,
		Recyclable: true,
		Source:     model.SourceText,
		ScanCount:  1,
		CreatedAt:  time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
	}}
}

// WithID overrides the id.
func (b *EntryBuilder) WithID(id string) *EntryBuilder {
	b.entry.ID = id
	return b
}

// Material sets the material.
func (b *EntryBuilder) Material(material string) *EntryBuilder {
	b.entry.Material = material
	return b
}

// Bin sets the bin and derives recyclability from it.
func (b *EntryBuilder) Bin(bin model.Bin) *EntryBuilder {
	b.entry.Bin = bin
	b.entry.Recyclable = bin == model.BinRecycling
	return b
}

// Photo marks the entry as photo evidence.
func (b *EntryBuilder) Photo() *EntryBuilder {
	b.entry.Source = model.SourcePhoto
	return b
}

// At sets the creation time.
func (b *EntryBuilder) At(t time.Time) *EntryBuilder {
	b.entry.CreatedAt = t
	return b
}

// Scans sets the scan count.
func (b *EntryBuilder) Scans(n int) *EntryBuilder {
	b.entry.ScanCount = n
	return b
}

// Build returns the entry.
func (b *EntryBuilder) Build() model.HistoryEntry {
	return b.entry
}
