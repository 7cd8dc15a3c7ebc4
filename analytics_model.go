package focusmomo

import "time"

const (
	// LedgerCapacity is the number of most recent analytics sessions kept after pruning.
	LedgerCapacity = 1000
	// DayBucketRetention is how long per-day aggregates are kept.
	DayBucketRetention = 180 * 24 * time.Hour

	DayLayout = "2006-01-02"
)

type AnalyticsSession struct {
	ID         string      `json:"id"`
	Start      time.Time   `json:"start"`
	End        *time.Time  `json:"end"`
	Type       SessionKind `json:"type"`
	PlannedSec int         `json:"plannedSec"`
	ActualSec  int         `json:"actualSec"`
	Completed  bool        `json:"completed"`
}

type DayBucket struct {
	Day               string `json:"day"`
	FocusSeconds      int    `json:"focusSeconds"`
	SessionsStarted   int    `json:"sessionsStarted"`
	SessionsCompleted int    `json:"sessionsCompleted"`
	SitesBlocked      int    `json:"sitesBlocked"`
}

// DayKey returns the calendar day of t in t's location.
func DayKey(t time.Time) string {
	return t.Format(DayLayout)
}

type Metrics struct {
	TodayFocusSeconds  int `json:"todayFocusSeconds"`
	WeeklyFocusSeconds int `json:"weeklyFocusSeconds"`
	SitesBlockedToday  int `json:"sitesBlockedToday"`
	CompletionRate     int `json:"completionRate"`
}

type WeeklySeries struct {
	Labels []string `json:"labels"`
	Data   []int    `json:"data"`
}
