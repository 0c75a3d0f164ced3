package domain

import (
	"regexp"
	"time"

	"github.com/google/uuid"
)

// DaySpan returns the UTC calendar days overlapping the half-open range
// [from, to) as the midnights [first, end).
func DaySpan(from, to time.Time) (first, end time.Time) {
	first = utcMidnight(from)
	end = utcMidnight(to)
	if end.Before(to) {
		end = end.AddDate(0, 0, 1)
	}
	return first, end
}

func utcMidnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// UsageEvent records a single widget interaction in the dashboard.
type UsageEvent struct {
	ID        uuid.UUID      `json:"id"`
	Username  string         `json:"username"`
	Widget    string         `json:"widget"`
	Action    string         `json:"action"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	ClientIP  string         `json:"client_ip,omitempty"`
	UserAgent string         `json:"user_agent,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// DailyUsage is one row of the per-day rollup.
type DailyUsage struct {
	Day    time.Time `json:"day"`
	Widget string    `json:"widget"`
	Action string    `json:"action"`
	Events int64     `json:"events"`
	Users  int64     `json:"users"`
}

// UsageFilter selects raw usage events. From is inclusive, To exclusive.
type UsageFilter struct {
	From   time.Time
	To     time.Time
	Widget string
	Offset int
	Limit  int
}

const maxUsageField = 64

var widgetName = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidWidget reports whether name is acceptable as a widget identifier.
func ValidWidget(name string) bool {
	return widgetName.MatchString(name)
}

// ValidAction reports whether action is a non-empty label of bounded length.
func ValidAction(action string) bool {
	return action != "" && len(action) <= maxUsageField
}
