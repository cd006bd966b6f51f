package history

import (
	"maps"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/Veraticus/sortwise/internal/model"
)

// MaxItemKeyLength caps ItemKey, in runes.
const MaxItemKeyLength = 96

const dayLayout = "2006-01-02"

// ItemKey is the backend bucket for an entry: its signature tokens and bin,
// folded to plain lowercase letters and capped in length. The key is fixed
// when the entry is first recorded; see WithSyncKeys.
func ItemKey(entry model.HistoryEntry) string {
	tokens := Signature(fold(entry.Item), fold(entry.Material))
	for i, token := range tokens {
		tokens[i] = strings.ReplaceAll(token, " ", "-")
	}

	name := strings.Join(tokens, "-")
	if name == "" {
		name = model.UnknownItem
	}

	bin := entry.Bin
	if !bin.Valid() {
		bin = model.NormalizeBin(string(bin))
	}

	key := []rune(name + ":" + string(bin))
	if len(key) > MaxItemKeyLength {
		key = key[:MaxItemKeyLength]
	}
	return string(key)
}

// DayKey is the UTC calendar day of t.
func DayKey(t time.Time) string {
	return t.UTC().Format(dayLayout)
}

// WithSyncKeys returns entry with its backend bookkeeping filled in. Entries
// recorded before the fields existed get a key derived from their current
// details and all of their scans on the day they were last seen.
func WithSyncKeys(entry model.HistoryEntry) model.HistoryEntry {
	if entry.ItemKey == "" {
		entry.ItemKey = ItemKey(entry)
	}
	if entry.FirstDay == "" {
		entry.FirstDay = DayKey(entry.CreatedAt)
	}
	if len(entry.DayScans) == 0 {
		entry.DayScans = map[string]int{DayKey(entry.CreatedAt): max(1, entry.ScanCount)}
	} else {
		entry.DayScans = maps.Clone(entry.DayScans)
	}
	return entry
}

// fold strips diacritics and applies compatibility normalization so
// "Crème" and "Creme" produce the same key.
func fold(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}
