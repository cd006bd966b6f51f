package impact

import (
	"math"
	"strconv"
	"strings"

	"github.com/Veraticus/sortwise/internal/model"
)

// AnonymousName is shown for rows without any display name.
const AnonymousName = "Anonymous"

// NormalizeLeaderboardRow maps a backend row onto LeaderboardRow. Column
// names vary between backend versions, so several aliases are accepted and
// numbers may arrive as strings.
func NormalizeLeaderboardRow(row map[string]any) model.LeaderboardRow {
	name := firstString(row, "display_name", "displayName", "username", "name")
	if name == "" {
		name = AnonymousName
	}

	return model.LeaderboardRow{
		DisplayName:     name,
		TotalPoints:     firstInt(row, "total_points", "totalPoints", "points"),
		TotalScans:      firstInt(row, "total_scans", "totalScans", "scans"),
		RecyclableCount: firstInt(row, "recyclable_count", "recyclableCount", "recyclable"),
	}
}

func firstString(row map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := row[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func firstInt(row map[string]any, keys ...string) int {
	for _, k := range keys {
		if n, ok := toInt(row[k]); ok {
			return n
		}
	}
	return 0
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(math.Round(n)), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return int(math.Round(f)), true
	default:
		return 0, false
	}
}
