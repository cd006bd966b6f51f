package model

// ImpactTotals is derived from the history collection and never stored.
type ImpactTotals struct {
	Materials       map[string]int `json:"materials,omitempty"`
	TotalScans      int            `json:"totalScans"`
	RecyclableCount int            `json:"recyclableCount"`
	Points          int            `json:"points"`
	StreakDays      int            `json:"streakDays"`
}

// LeaderboardRow is one normalized row of the remote leaderboard.
type LeaderboardRow struct {
	DisplayName     string `json:"displayName"`
	TotalPoints     int    `json:"totalPoints"`
	TotalScans      int    `json:"totalScans"`
	RecyclableCount int    `json:"recyclableCount"`
}
