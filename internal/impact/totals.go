// Package impact derives point totals and statistics from the scan history
// and mirrors them to the backend on a best-effort basis.
package impact

import (
	"time"

	"github.com/Veraticus/sortwise/internal/history"
	"github.com/Veraticus/sortwise/internal/model"
)

const dayLayout = "2006-01-02"

// Totals folds entries into impact figures. now anchors the streak, which
// counts consecutive scan days ending today or yesterday in now's time zone.
func Totals(entries []model.HistoryEntry, now time.Time) model.ImpactTotals {
	totals := model.ImpactTotals{Materials: map[string]int{}}
	days := make(map[string]struct{}, len(entries))

	for _, entry := range entries {
		if entry.IsPhoto() {
			totals.TotalScans += entry.ScanCount
		}
		if entry.Recyclable {
			totals.RecyclableCount++
		}
		totals.Points += history.Points(entry)

		if material := history.NormalizeMaterial(entry.Material); material != model.UnknownMaterial {
			totals.Materials[material]++
		}
		if !entry.CreatedAt.IsZero() {
			days[entry.CreatedAt.In(now.Location()).Format(dayLayout)] = struct{}{}
		}
	}

	totals.StreakDays = streak(days, now)
	return totals
}

func streak(days map[string]struct{}, now time.Time) int {
	day := now
	if _, ok := days[day.Format(dayLayout)]; !ok {
		day = day.AddDate(0, 0, -1)
	}

	count := 0
	for {
		if _, ok := days[day.Format(dayLayout)]; !ok {
			return count
		}
		count++
		day = day.AddDate(0, 0, -1)
	}
}
