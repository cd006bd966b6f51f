package model

import "strings"

// ScanMode identifies the modality of a scan.
type ScanMode string

// Scan modes.
const (
	ScanModePhoto ScanMode = "photo"
	ScanModeText  ScanMode = "text"
)

// ClassificationRequest is one "analyze" attempt. It is consumed by a single
// round trip to the inference relay and then discarded.
type ClassificationRequest struct {
	Mode       ScanMode `validate:"required|in:photo,text" message:"mode must be photo or text"`
	FreeText   string
	ImageMIME  string
	PostalCode string `validate:"regex:^[0-9]{5}$" message:"ZIP code must be exactly 5 digits"`
	ImageData  []byte
}

// TrimmedText returns the free text with surrounding whitespace removed.
func (r ClassificationRequest) TrimmedText() string {
	return strings.TrimSpace(r.FreeText)
}

// Source converts the scan mode into the history source it produces.
func (r ClassificationRequest) Source() Source {
	if r.Mode == ScanModePhoto {
		return SourcePhoto
	}
	return SourceText
}
