// Package engine runs the scan pipeline: validate the request, classify it,
// fold it into history and schedule the impact sync.
package engine

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/gookit/validate"

	"github.com/Veraticus/sortwise/internal/common"
	"github.com/Veraticus/sortwise/internal/history"
	"github.com/Veraticus/sortwise/internal/llm"
	"github.com/Veraticus/sortwise/internal/model"
	"github.com/Veraticus/sortwise/internal/session"
	"github.com/Veraticus/sortwise/internal/storage"
)

// Deps are the collaborators of a Scanner. Syncer may be nil.
type Deps struct {
	Classifier Classifier
	History    History
	Settings   SettingsStore
	Syncer     Syncer
	Logger     *slog.Logger
}

// Scanner runs one scan at a time per call; separate calls are independent.
type Scanner struct {
	classifier Classifier
	history    History
	settings   SettingsStore
	syncer     Syncer
	logger     *slog.Logger
	now        func() time.Time
}

// ScanResult is everything the caller needs to present a scan.
type ScanResult struct {
	Quota         *llm.Quota
	Entry         *model.HistoryEntry
	Zip           string
	RawText       string
	Strategy      llm.Strategy
	Result        model.ClassificationResult
	Cached        bool
	Merged        bool
	SyncScheduled bool
}

// Degraded reports whether only the heuristic parser could read the reply.
// The raw reply should be shown next to the result.
func (r ScanResult) Degraded() bool {
	return r.Strategy == llm.StrategyHeuristic
}

// NewScanner creates a Scanner.
func NewScanner(deps Deps) *Scanner {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{
		classifier: deps.Classifier,
		history:    deps.History,
		settings:   deps.Settings,
		syncer:     deps.Syncer,
		logger:     logger,
		now:        time.Now,
	}
}

// Scan classifies req for sess. Validation and inference errors are
// returned; history and sync problems are logged and reflected in the
// result instead.
func (s *Scanner) Scan(ctx context.Context, sess session.Session, req model.ClassificationRequest) (ScanResult, error) {
	settings := s.loadSettings(ctx)

	req.PostalCode = strings.TrimSpace(req.PostalCode)
	if req.PostalCode == "" {
		req.PostalCode = settings.EffectiveZip()
	}
	if err := ValidateRequest(req); err != nil {
		return ScanResult{}, err
	}

	outcome, err := s.classifier.Classify(ctx, req, sess.BearerToken())
	if err != nil {
		return ScanResult{}, err
	}

	result := ScanResult{
		Result:   outcome.Result,
		RawText:  outcome.RawText,
		Strategy: outcome.Strategy,
		Quota:    outcome.Quota,
		Cached:   outcome.Cached,
		Zip:      req.PostalCode,
	}

	if !settings.AutoSave || outcome.Result.IsUnknown() {
		return result, nil
	}

	entry := history.FromClassification(outcome.Result, history.Scan{
		Source:  req.Source(),
		Zip:     req.PostalCode,
		RawText: outcome.RawText,
	}, s.now())

	recorded, err := s.history.Record(ctx, entry)
	if err != nil {
		common.LogError(s.logger, err, "failed to save scan to history", common.Fields{"item": entry.Item})
		return result, nil
	}
	result.Entry = &recorded.Entry
	result.Merged = recorded.Merged

	if settings.AutoSync && s.syncer != nil {
		result.SyncScheduled = s.syncer.Submit(sess, recorded.Entry)
	}

	return result, nil
}

// GuestQuota reports the remaining guest allowance.
func (s *Scanner) GuestQuota(ctx context.Context) (llm.Quota, error) {
	return s.classifier.GuestQuota(ctx)
}

func (s *Scanner) loadSettings(ctx context.Context) storage.Settings {
	if s.settings == nil {
		return storage.DefaultSettings()
	}
	settings, err := s.settings.LoadSettings(ctx)
	if err != nil {
		common.LogError(s.logger, err, "failed to load settings, using defaults", nil)
		return storage.DefaultSettings()
	}
	return settings
}

var fieldNames = map[string]string{
	"PostalCode": "zip",
	"Mode":       "mode",
}

func fieldName(field string) string {
	if name, ok := fieldNames[field]; ok {
		return name
	}
	return strings.ToLower(field)
}

// ValidateRequest checks req before anything is sent: the struct rules, a
// photo for photo scans and some text for text scans.
func ValidateRequest(req model.ClassificationRequest) error {
	v := validate.Struct(req)
	if !v.Validate() {
		fields := make([]string, 0, len(v.Errors))
		for field := range v.Errors {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		field := fields[0]
		return common.NewValidationError(fieldName(field), v.Errors.FieldOne(field))
	}

	switch req.Mode {
	case model.ScanModePhoto:
		if len(req.ImageData) == 0 {
			return common.NewValidationError("image", "a photo is required for a photo scan")
		}
	case model.ScanModeText:
		if req.TrimmedText() == "" {
			return common.NewValidationError("text", "describe the item to classify")
		}
	}
	return nil
}
