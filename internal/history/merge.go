package history

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/sortwise/internal/model"
)

// Scan describes where a classification came from.
type Scan struct {
	Source            model.Source
	Zip               string
	RawText           string
	ImagePreview      string
	SelectedCandidate string
}

// FromClassification builds a fresh history entry for result.
func FromClassification(result model.ClassificationResult, scan Scan, now time.Time) model.HistoryEntry {
	source := scan.Source
	if source != model.SourcePhoto {
		source = model.SourceText
	}

	entry := model.HistoryEntry{
		ID:                uuid.NewString(),
		CreatedAt:         now.UTC(),
		Item:              result.Item,
		Material:          result.Material,
		Recyclable:        result.Recyclable,
		Bin:               result.Bin,
		Notes:             notes(result),
		Source:            source,
		Zip:               scan.Zip,
		RawText:           scan.RawText,
		ImagePreview:      scan.ImagePreview,
		SelectedCandidate: scan.SelectedCandidate,
		ScanCount:         1,
	}
	day := DayKey(now)
	entry.ItemKey = ItemKey(entry)
	entry.FirstDay = day
	entry.DayScans = map[string]int{day: 1}
	return entry
}

func notes(result model.ClassificationResult) string {
	var parts []string
	if s := strings.TrimSpace(result.Instructions); s != "" {
		parts = append(parts, s)
	}
	if s := strings.TrimSpace(result.Reason); s != "" {
		parts = append(parts, s)
	}
	if s := strings.TrimSpace(result.LocalProgram); s != "" {
		parts = append(parts, "Program: "+s)
	}
	return strings.Join(parts, " ")
}

// Merge folds incoming into existing and returns the updated entry.
//
// Photo evidence always replaces details. A text scan replaces the details of
// a text entry but never those of a photo entry. The timestamp always moves
// forward, the source is sticky on photo and the scan count grows by one.
// The item key and first day stay as first recorded; the scan lands on the
// incoming day.
func Merge(existing, incoming model.HistoryEntry) model.HistoryEntry {
	merged := WithSyncKeys(existing)

	if incoming.IsPhoto() || existing.Source != model.SourcePhoto {
		merged.Item = incoming.Item
		merged.Material = incoming.Material
		merged.Recyclable = incoming.Recyclable
		merged.Bin = incoming.Bin
		merged.Notes = incoming.Notes
		merged.RawText = incoming.RawText
		merged.Zip = incoming.Zip
		if incoming.ImagePreview != "" {
			merged.ImagePreview = incoming.ImagePreview
		}
		if incoming.SelectedCandidate != "" {
			merged.SelectedCandidate = incoming.SelectedCandidate
		}
	}

	merged.CreatedAt = incoming.CreatedAt
	if existing.IsPhoto() || incoming.IsPhoto() {
		merged.Source = model.SourcePhoto
	} else {
		merged.Source = model.SourceText
	}
	merged.ScanCount = max(1, existing.ScanCount) + 1
	merged.DayScans[DayKey(incoming.CreatedAt)]++

	return merged
}

// Points is 1 for a recyclable item backed by a photo and 0 otherwise. Text
// claims cannot be verified so they never score.
func Points(entry model.HistoryEntry) int {
	if entry.IsPhoto() && entry.Recyclable {
		return 1
	}
	return 0
}
