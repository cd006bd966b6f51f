package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/Veraticus/sortwise/internal/common"
	"github.com/Veraticus/sortwise/internal/model"
)

// Storage keys.
const (
	KeyZip           = "settings.zip"
	KeyLocationAware = "settings.location_aware"
	KeyAutoSave      = "settings.auto_save"
	KeyAutoSync      = "settings.auto_sync"
	KeyHistory       = "history.entries"
)

var zipRe = regexp.MustCompile(`^[0-9]{5}$`)

// Settings are the user preferences persisted on this device.
type Settings struct {
	Zip           string `json:"zip"`
	LocationAware bool   `json:"locationAware"`
	AutoSave      bool   `json:"autoSave"`
	AutoSync      bool   `json:"autoSync"`
}

// DefaultSettings returns the settings used for absent or corrupted values.
func DefaultSettings() Settings {
	return Settings{
		LocationAware: true,
		AutoSave:      true,
		AutoSync:      true,
	}
}

// EffectiveZip is the ZIP to send with a scan: the stored one when location
// awareness is on, otherwise none.
func (s Settings) EffectiveZip() string {
	if !s.LocationAware {
		return ""
	}
	return s.Zip
}

// SettingNames lists the names accepted by Settings.Apply.
var SettingNames = []string{"zip", "location_aware", "auto_save", "auto_sync"}

// Apply sets the setting called name from its textual value.
func (s *Settings) Apply(name, value string) error {
	value = strings.TrimSpace(value)
	switch name {
	case "zip":
		if value != "" && !zipRe.MatchString(value) {
			return common.NewValidationError("zip", "must be empty or exactly 5 digits")
		}
		s.Zip = value
		return nil
	case "location_aware", "auto_save", "auto_sync":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return common.NewValidationError(name, fmt.Sprintf("%q is not a boolean", value))
		}
		switch name {
		case "location_aware":
			s.LocationAware = b
		case "auto_save":
			s.AutoSave = b
		default:
			s.AutoSync = b
		}
		return nil
	default:
		return common.NewValidationError("setting", fmt.Sprintf("unknown setting %q (known: %s)", name, strings.Join(SettingNames, ", ")))
	}
}

// LoadSettings reads every setting. Absent or corrupted values fall back to
// their defaults; only database failures are returned.
func (s *SQLiteStorage) LoadSettings(ctx context.Context) (Settings, error) {
	settings := DefaultSettings()

	if err := s.loadJSON(ctx, KeyZip, &settings.Zip); err != nil {
		return Settings{}, err
	}
	if settings.Zip != "" && !zipRe.MatchString(settings.Zip) {
		slog.Warn("Ignoring corrupted stored value", "key", KeyZip, "error", common.ErrStorageCorrupted)
		settings.Zip = ""
	}
	if err := s.loadJSON(ctx, KeyLocationAware, &settings.LocationAware); err != nil {
		return Settings{}, err
	}
	if err := s.loadJSON(ctx, KeyAutoSave, &settings.AutoSave); err != nil {
		return Settings{}, err
	}
	if err := s.loadJSON(ctx, KeyAutoSync, &settings.AutoSync); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

// SaveSettings writes every setting.
func (s *SQLiteStorage) SaveSettings(ctx context.Context, settings Settings) error {
	values := []struct {
		value any
		key   string
	}{
		{key: KeyZip, value: settings.Zip},
		{key: KeyLocationAware, value: settings.LocationAware},
		{key: KeyAutoSave, value: settings.AutoSave},
		{key: KeyAutoSync, value: settings.AutoSync},
	}
	for _, v := range values {
		if err := s.saveJSON(ctx, v.key, v.value); err != nil {
			return err
		}
	}
	return nil
}

// LoadHistory reads the history collection. A corrupted collection is
// treated as empty.
func (s *SQLiteStorage) LoadHistory(ctx context.Context) ([]model.HistoryEntry, error) {
	var entries []model.HistoryEntry
	if err := s.loadJSON(ctx, KeyHistory, &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []model.HistoryEntry{}
	}
	return entries, nil
}

// SaveHistory replaces the history collection.
func (s *SQLiteStorage) SaveHistory(ctx context.Context, entries []model.HistoryEntry) error {
	if entries == nil {
		entries = []model.HistoryEntry{}
	}
	return s.saveJSON(ctx, KeyHistory, entries)
}

// loadJSON decodes the value under key into dst. A missing key leaves dst
// untouched. An undecodable value is logged and also leaves dst untouched.
func (s *SQLiteStorage) loadJSON(ctx context.Context, key string, dst any) error {
	raw, err := s.Get(ctx, key)
	if errors.Is(err, common.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	// Decode into a scratch value so a partial decode cannot leak into dst.
	scratch, err := json.Marshal(dst)
	if err != nil {
		return fmt.Errorf("failed to snapshot %q: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		slog.Warn("Ignoring corrupted stored value",
			"key", key,
			"error", fmt.Errorf("%w: %w", common.ErrStorageCorrupted, err))
		if restoreErr := json.Unmarshal(scratch, dst); restoreErr != nil {
			return fmt.Errorf("failed to restore %q: %w", key, restoreErr)
		}
	}
	return nil
}

func (s *SQLiteStorage) saveJSON(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %q: %w", key, err)
	}
	return s.Set(ctx, key, string(data))
}
