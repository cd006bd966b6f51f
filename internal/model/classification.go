// Package model defines the core domain models used throughout the application.
package model

import "strings"

// Bin is the disposal stream an item belongs in.
type Bin string

// Bin constants.
const (
	BinRecycling      Bin = "recycling"
	BinTrash          Bin = "trash"
	BinCompost        Bin = "compost"
	BinSpecialDropoff Bin = "special_dropoff"
)

// Defaults applied when a reply does not carry a usable value.
const (
	UnknownItem     = "unknown"
	UnknownMaterial = "unknown"
)

// Bins lists every valid bin in the order they are presented to the model.
var Bins = []Bin{BinRecycling, BinTrash, BinCompost, BinSpecialDropoff}

// NormalizeBin maps a free-form bin string onto one of the four bins.
// Matching is by substring in priority order: compost, special/drop, recycl.
// Anything else is trash.
func NormalizeBin(raw string) Bin {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.Contains(s, "compost"):
		return BinCompost
	case strings.Contains(s, "special"), strings.Contains(s, "drop"):
		return BinSpecialDropoff
	case strings.Contains(s, "recycl"):
		return BinRecycling
	default:
		return BinTrash
	}
}

// Valid reports whether b is one of the four known bins.
func (b Bin) Valid() bool {
	for _, known := range Bins {
		if b == known {
			return true
		}
	}
	return false
}

// ClassificationResult is the decoded recycling decision for one item.
type ClassificationResult struct {
	Item         string  `json:"item"`
	Material     string  `json:"material"`
	Bin          Bin     `json:"bin"`
	Instructions string  `json:"instructions,omitempty"`
	Reason       string  `json:"reason,omitempty"`
	LocalProgram string  `json:"local_program,omitempty"`
	Confidence   float64 `json:"confidence"`
	Recyclable   bool    `json:"recyclable"`
}

// DefaultClassification returns the record used when nothing could be extracted.
func DefaultClassification() ClassificationResult {
	return ClassificationResult{
		Item:     UnknownItem,
		Material: UnknownMaterial,
		Bin:      BinTrash,
	}
}

// IsUnknown reports whether the model could not identify the item.
func (r ClassificationResult) IsUnknown() bool {
	return r.Item == "" || strings.EqualFold(r.Item, UnknownItem)
}
