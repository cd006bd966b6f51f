package llm

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/Veraticus/sortwise/internal/model"
)

// Strategy names the decoding approach that produced a result.
type Strategy string

// Parse strategies, tried in this order.
const (
	StrategyStrict    Strategy = "strict"
	StrategyEmbedded  Strategy = "embedded"
	StrategyHeuristic Strategy = "heuristic"
)

// Parsed is a decoded reply and the strategy that decoded it.
type Parsed struct {
	Strategy Strategy
	Result   model.ClassificationResult
}

// Degraded reports whether structured extraction failed and the result came
// from the line-oriented fallback. Callers should show the raw reply too.
func (p Parsed) Degraded() bool {
	return p.Strategy == StrategyHeuristic
}

var (
	codeFenceRe     = regexp.MustCompile("```[A-Za-z0-9_-]*")
	citationRe      = regexp.MustCompile(`\[\d+\]`)
	urlRe           = regexp.MustCompile(`https?://[^\s)\]"']+`)
	sourcesLineRe   = regexp.MustCompile(`(?i)^\s*(sources|references)\s*:`)
	embeddedBlockRe = regexp.MustCompile(`(?s)\{.*\}`)
)

type parseStrategy struct {
	decode          func(string) (fields, bool)
	name            Strategy
	defaultMaterial string
}

// strategies is the ordered fallback chain; the first that decodes wins.
var strategies = []parseStrategy{
	{name: StrategyStrict, decode: decodeStrictJSON, defaultMaterial: model.UnknownMaterial},
	{name: StrategyEmbedded, decode: decodeEmbeddedJSON, defaultMaterial: model.UnknownMaterial},
	{name: StrategyHeuristic, decode: decodeKeyValues, defaultMaterial: ""},
}

// ParseRecyclingResponse decodes a raw relay reply. It never fails; an
// unreadable reply yields the default classification.
func ParseRecyclingResponse(raw string) model.ClassificationResult {
	return ParseResponse(raw).Result
}

// ParseResponse decodes a raw relay reply and reports which strategy won.
func ParseResponse(raw string) (parsed Parsed) {
	defer func() {
		if r := recover(); r != nil {
			parsed = Parsed{Strategy: StrategyHeuristic, Result: model.DefaultClassification()}
		}
	}()

	cleaned := Sanitize(raw)
	for _, s := range strategies {
		if f, ok := s.decode(cleaned); ok {
			return Parsed{Strategy: s.name, Result: f.resolve(s.defaultMaterial)}
		}
	}

	// decodeKeyValues always succeeds, so this is unreachable in practice.
	return Parsed{Strategy: StrategyHeuristic, Result: model.DefaultClassification()}
}

// Sanitize strips markdown fences, citation markers, URLs and trailing
// source lists from a reply, drops blank lines and trims the result.
func Sanitize(raw string) string {
	text := codeFenceRe.ReplaceAllString(raw, "")
	text = citationRe.ReplaceAllString(text, "")
	text = urlRe.ReplaceAllString(text, "")

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.TrimSpace(line) == "" || sourcesLineRe.MatchString(line) {
			continue
		}
		kept = append(kept, strings.TrimRight(line, " \t\r"))
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// fields is a flat, lowercase-keyed view of a reply.
type fields map[string]string

func decodeStrictJSON(text string) (fields, bool) {
	return decodeJSONObject(text)
}

func decodeEmbeddedJSON(text string) (fields, bool) {
	block := embeddedBlockRe.FindString(text)
	if block == "" {
		return nil, false
	}
	return decodeJSONObject(block)
}

func decodeJSONObject(text string) (fields, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "{") {
		return nil, false
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err != nil || obj == nil {
		return nil, false
	}

	f := make(fields, len(obj))
	for k, v := range obj {
		f[strings.ToLower(strings.TrimSpace(k))] = stringify(v)
	}
	return f, true
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}

// decodeKeyValues reads "key: value" lines. It always succeeds.
func decodeKeyValues(text string) (fields, bool) {
	f := fields{}
	for _, line := range strings.Split(text, "\n") {
		idx := strings.Index(line, ":")
		if idx < 0 {
			continue
		}
		key := strings.ToLower(strings.Trim(line[:idx], " \t*-•\"'`"))
		value := strings.Trim(strings.TrimSpace(line[idx+1:]), ",\"'`*")
		if key == "" {
			continue
		}
		f[key] = strings.TrimSpace(value)
	}
	return f, true
}

func (f fields) first(keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := f[k]; ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}

func (f fields) resolve(defaultMaterial string) model.ClassificationResult {
	result := model.ClassificationResult{
		Item:     model.UnknownItem,
		Material: defaultMaterial,
		Bin:      model.BinTrash,
	}

	if v, ok := f.first("item", "product"); ok {
		result.Item = v
	}
	if v, ok := f.first("material"); ok {
		result.Material = v
	}
	if v, ok := f.first("recyclable", "is recyclable"); ok {
		result.Recyclable, _ = ParseBool(v)
	}
	if v, ok := f.first("bin"); ok {
		result.Bin = model.NormalizeBin(v)
	}
	result.Instructions, _ = f.first("instructions")
	result.Reason, _ = f.first("reason", "why")
	result.LocalProgram, _ = f.first("local_program", "program")
	if v, ok := f.first("confidence"); ok {
		result.Confidence = ParseConfidence(v)
	}

	return result
}

// ParseBool is a permissive boolean parser. The second return value is false
// when the input is not recognized, in which case the result is false.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "1":
		return true, true
	case "false", "no", "n", "0":
		return false, true
	default:
		return false, false
	}
}

// ParseConfidence parses s as a float clamped to [0,1]. Anything that is not
// a finite number yields 0.
func ParseConfidence(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return ClampConfidence(v)
}

// ClampConfidence clamps v to [0,1].
func ClampConfidence(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
