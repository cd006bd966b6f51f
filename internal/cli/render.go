package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/sortwise/internal/engine"
	"github.com/Veraticus/sortwise/internal/impact"
	"github.com/Veraticus/sortwise/internal/llm"
	"github.com/Veraticus/sortwise/internal/model"
	"github.com/Veraticus/sortwise/internal/storage"
)

const timeLayout = "2006-01-02 15:04"

// RenderScan renders the outcome of one scan.
func RenderScan(res engine.ScanResult) string {
	r := res.Result
	recyclable := "no"
	if r.Recyclable {
		recyclable = "yes"
	}

	lines := []string{
		FormatBin(r.Bin),
		"",
		label("Material") + r.Material,
		label("Recyclable") + recyclable,
		label("Confidence") + fmt.Sprintf("%.0f%%", r.Confidence*100),
	}
	if res.Zip != "" {
		lines = append(lines, label("ZIP")+res.Zip)
	}
	if r.LocalProgram != "" {
		lines = append(lines, label("Program")+r.LocalProgram)
	}
	if r.Instructions != "" {
		lines = append(lines, "", r.Instructions)
	}
	if r.Reason != "" {
		lines = append(lines, SubtleStyle.Render(r.Reason))
	}

	var b strings.Builder
	b.WriteString(RenderBox(r.Item, strings.Join(lines, "\n")))
	b.WriteString("\n")

	if res.Degraded() {
		b.WriteString(FormatWarning("The reply was not valid JSON; this is a best guess. Raw reply:") + "\n")
		b.WriteString(SubtleStyle.Render(res.RawText) + "\n")
	}

	switch {
	case res.Entry != nil && res.Merged:
		b.WriteString(FormatSuccess(fmt.Sprintf("Updated history entry (scanned %d times)", res.Entry.ScanCount)) + "\n")
	case res.Entry != nil:
		b.WriteString(FormatSuccess("Saved to history") + "\n")
	case r.IsUnknown():
		b.WriteString(FormatInfo("Not saved: the item could not be identified") + "\n")
	}
	if res.SyncScheduled {
		b.WriteString(SubtleStyle.Render("Syncing impact in the background") + "\n")
	}
	if res.Cached {
		b.WriteString(SubtleStyle.Render("(cached reply)") + "\n")
	}
	if res.Quota != nil && res.Quota.Reported {
		b.WriteString(RenderQuota(*res.Quota) + "\n")
	}

	return b.String()
}

// RenderHistory renders history entries newest first.
func RenderHistory(entries []model.HistoryEntry) string {
	if len(entries) == 0 {
		return FormatInfo("No scans yet") + "\n"
	}

	headers := []string{"ID", "ITEM", "BIN", "MATERIAL", "SOURCE", "SCANS", "LAST SCANNED"}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			shortID(e.ID),
			e.Item,
			FormatBin(e.Bin),
			e.Material,
			string(e.Source),
			fmt.Sprintf("%d", e.ScanCount),
			e.CreatedAt.Local().Format(timeLayout),
		})
	}

	return FormatTitle(fmt.Sprintf("History (%d)", len(entries))) + "\n" + renderTable(headers, rows) + "\n"
}

// RenderImpact renders impact totals and where they came from.
func RenderImpact(d impact.Display) string {
	t := d.Shown
	lines := []string{
		label("Points") + fmt.Sprintf("%d", t.Points),
		label("Photo scans") + fmt.Sprintf("%d", t.TotalScans),
		label("Recyclable") + fmt.Sprintf("%d", t.RecyclableCount),
		label("Streak") + pluralize(t.StreakDays, "day"),
	}

	if len(t.Materials) > 0 {
		materials := make([]string, 0, len(t.Materials))
		for m := range t.Materials {
			materials = append(materials, m)
		}
		sort.Slice(materials, func(i, j int) bool {
			if t.Materials[materials[i]] != t.Materials[materials[j]] {
				return t.Materials[materials[i]] > t.Materials[materials[j]]
			}
			return materials[i] < materials[j]
		})
		lines = append(lines, "", BoldStyle.Render("Materials"))
		for _, m := range materials {
			lines = append(lines, fmt.Sprintf("  %s %d", label(m), t.Materials[m]))
		}
	}

	origin := "from this device"
	if d.Origin == impact.OriginRemote {
		origin = "from your account"
	}
	lines = append(lines, "", SubtleStyle.Render(origin))

	return RenderBox(ChartIcon+" Impact", strings.Join(lines, "\n")) + "\n"
}

// RenderLeaderboard renders leaderboard rows in rank order.
func RenderLeaderboard(rows []model.LeaderboardRow) string {
	if len(rows) == 0 {
		return FormatInfo("The leaderboard is empty") + "\n"
	}

	headers := []string{"#", "NAME", "POINTS", "SCANS", "RECYCLABLE"}
	cells := make([][]string, 0, len(rows))
	for i, row := range rows {
		cells = append(cells, []string{
			fmt.Sprintf("%d", i+1),
			row.DisplayName,
			fmt.Sprintf("%d", row.TotalPoints),
			fmt.Sprintf("%d", row.TotalScans),
			fmt.Sprintf("%d", row.RecyclableCount),
		})
	}

	return TitleStyle.Render(TrophyIcon+" Leaderboard") + "\n" + renderTable(headers, cells) + "\n"
}

// RenderQuota renders the guest allowance.
func RenderQuota(q llm.Quota) string {
	msg := fmt.Sprintf("Guest scans: %d of %d remaining", q.Remaining, q.Limit)
	if q.Exhausted() {
		return FormatWarning(msg + ". Sign in to keep scanning.")
	}
	return FormatInfo(msg)
}

// RenderSettings renders the stored preferences.
func RenderSettings(s storage.Settings) string {
	zip := s.Zip
	if zip == "" {
		zip = SubtleStyle.Render("(not set)")
	}
	lines := []string{
		label("zip") + zip,
		label("location_aware") + fmt.Sprintf("%t", s.LocationAware),
		label("auto_save") + fmt.Sprintf("%t", s.AutoSave),
		label("auto_sync") + fmt.Sprintf("%t", s.AutoSync),
	}
	return RenderBox("Settings", strings.Join(lines, "\n")) + "\n"
}

func label(name string) string {
	return BoldStyle.Render(name+":") + " "
}

func pluralize(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// renderTable lays rows out in columns; every row has len(headers) cells.
func renderTable(headers []string, rows [][]string) string {
	columns := make([]string, len(headers))
	for col, header := range headers {
		cells := make([]string, 0, len(rows)+1)
		cells = append(cells, TableHeaderStyle.Render(header))
		for _, row := range rows {
			cells = append(cells, row[col])
		}
		columns[col] = TableCellStyle.Render(lipgloss.JoinVertical(lipgloss.Left, cells...))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, columns...)
}
