package model

import "time"

// Source records which modality produced (or last updated) a history entry.
type Source string

// Sources.
const (
	SourcePhoto Source = "photo"
	SourceText  Source = "text"
)

// HistoryEntry is a locally persisted, deduplicated scan record.
type HistoryEntry struct {
	CreatedAt time.Time `json:"createdAt"`
	// DayScans counts scans per UTC day, keyed like FirstDay.
	DayScans          map[string]int `json:"dayScans,omitempty"`
	ID                string         `json:"id"`
	Item              string         `json:"item"`
	Material          string         `json:"material"`
	Bin               Bin            `json:"bin"`
	Notes             string         `json:"notes,omitempty"`
	Source            Source         `json:"source"`
	Zip               string         `json:"zip,omitempty"`
	RawText           string         `json:"rawText,omitempty"`
	ImagePreview      string         `json:"imagePreview,omitempty"`
	SelectedCandidate string         `json:"selectedCandidate,omitempty"`
	// ItemKey and FirstDay are fixed when the entry is first recorded so
	// later merges keep updating the same backend rows.
	ItemKey    string `json:"itemKey,omitempty"`
	FirstDay   string `json:"firstDay,omitempty"`
	ScanCount  int    `json:"scanCount"`
	Recyclable bool   `json:"recyclable"`
}

// IsPhoto reports whether photo evidence backs this entry.
func (e HistoryEntry) IsPhoto() bool {
	return e.Source == SourcePhoto
}
