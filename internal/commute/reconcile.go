package commute

import (
	"math"
	"strconv"
	"strings"
)

type Source string

const (
	SourceManual Source = "manual"
	SourceLive   Source = "live"
	SourceRouted Source = "routed"
)

// Result is the reconciled duration of one trip. EstimatedMinutes always
// carries the routed estimate so history can compare actual and expected.
type Result struct {
	DurationMinutes  int    `json:"duration_minutes"`
	EstimatedMinutes int    `json:"estimated_duration_minutes"`
	Source           Source `json:"source"`
}

// Reconcile picks one trip duration. A manual window wins when both clock
// times parse and the end is after the start. Otherwise live elapsed time is
// used when present, and the routed estimate last.
func Reconcile(manualStart, manualEnd string, liveElapsedSeconds *float64, routedSeconds float64) Result {
	res := Result{EstimatedMinutes: floorMinutes(routedSeconds)}

	if minutes, ok := manualMinutes(manualStart, manualEnd); ok {
		res.DurationMinutes = minutes
		res.Source = SourceManual
		return res
	}
	if liveElapsedSeconds != nil {
		res.DurationMinutes = floorMinutes(*liveElapsedSeconds)
		res.Source = SourceLive
		return res
	}
	res.DurationMinutes = res.EstimatedMinutes
	res.Source = SourceRouted
	return res
}

func manualMinutes(start, end string) (int, bool) {
	if start == "" || end == "" {
		return 0, false
	}
	s, ok := ParseClock(start)
	if !ok {
		return 0, false
	}
	e, ok := ParseClock(end)
	if !ok || e <= s {
		return 0, false
	}
	minutes := floorMinutes(float64(e - s))
	if minutes <= 0 {
		return 0, false
	}
	return minutes, true
}

// ParseClock reads HH:MM or HH:MM:SS into seconds since midnight.
func ParseClock(v string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(v), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, false
	}
	limits := []int{23, 59, 59}
	total := 0
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > limits[i] {
			return 0, false
		}
		total = total*60 + n
	}
	if len(parts) == 2 {
		total *= 60
	}
	return total, true
}

func floorMinutes(seconds float64) int {
	if seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0
	}
	return int(math.Floor(seconds / 60))
}
