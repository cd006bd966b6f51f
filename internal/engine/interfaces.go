package engine

import (
	"context"

	"github.com/Veraticus/sortwise/internal/history"
	"github.com/Veraticus/sortwise/internal/llm"
	"github.com/Veraticus/sortwise/internal/model"
	"github.com/Veraticus/sortwise/internal/session"
	"github.com/Veraticus/sortwise/internal/storage"
)

// Classifier turns a request into a decoded classification.
type Classifier interface {
	Classify(ctx context.Context, req model.ClassificationRequest, bearerToken string) (llm.Outcome, error)
	GuestQuota(ctx context.Context) (llm.Quota, error)
}

// History records classifications in the deduplicated history.
type History interface {
	Record(ctx context.Context, entry model.HistoryEntry) (history.RecordResult, error)
}

// SettingsStore provides the user's preferences.
type SettingsStore interface {
	LoadSettings(ctx context.Context) (storage.Settings, error)
}

// Syncer mirrors saved entries to the backend in the background.
type Syncer interface {
	Submit(sess session.Session, entry model.HistoryEntry) bool
}
