package domain

import "time"

// Usage windows reported by the agent's account.
const (
	WindowFiveHour = "five_hour"
	WindowSevenDay = "seven_day"
)

// RateLimitState is the singleton record gating autonomous feeding.
// Fields are ordered to minimize memory padding.
type RateLimitState struct {
	Updated     time.Time
	ResetsAt    *time.Time // When feeding may resume
	Window      string     // Limiting window while paused
	FiveHourPct float64
	SevenDayPct float64
	Paused      bool
}

// Limited reports whether autonomous feeding is blocked at now.
// A pause whose reset time has elapsed no longer blocks.
func (r *RateLimitState) Limited(now time.Time) bool {
	if r == nil || !r.Paused {
		return false
	}
	if r.ResetsAt == nil {
		return true
	}
	return now.Before(*r.ResetsAt)
}

// Expired reports whether a pause is recorded but its reset time has passed.
func (r *RateLimitState) Expired(now time.Time) bool {
	return r != nil && r.Paused && r.ResetsAt != nil && !now.Before(*r.ResetsAt)
}

// UsageWindow is one usage-window measurement.
type UsageWindow struct {
	ResetsAt *time.Time
	Percent  float64
}

// UsageSnapshot holds usage percentages per window, from the agent or a poll.
type UsageSnapshot struct {
	FiveHour UsageWindow
	SevenDay UsageWindow
}

// Exhausted returns the first window at or above 100% and its reset time.
// The seven-day window wins because it resets later.
func (u UsageSnapshot) Exhausted() (window string, resetsAt *time.Time, ok bool) {
	if u.SevenDay.Percent >= 100 {
		return WindowSevenDay, u.SevenDay.ResetsAt, true
	}
	if u.FiveHour.Percent >= 100 {
		return WindowFiveHour, u.FiveHour.ResetsAt, true
	}
	return "", nil, false
}
