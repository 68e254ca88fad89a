package stats

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"backend-commutepro/internal/commute"
)

// trip is a record with every optional field resolved.
type trip struct {
	weekday     time.Weekday
	hasWeekday  bool
	startMinute int
	hasStart    bool
	duration    int
	estimate    int
	distanceKm  float64
}

func normalize(records []commute.TripRecord) []trip {
	out := make([]trip, 0, len(records))
	for _, r := range records {
		t := trip{
			duration:   max(r.DurationMinutes, 0),
			distanceKm: r.DistanceKm,
		}
		if r.EstimatedDurationMinutes != nil && *r.EstimatedDurationMinutes > 0 {
			t.estimate = *r.EstimatedDurationMinutes
		}
		if d, err := time.Parse(time.DateOnly, strings.TrimSpace(r.DateCommuted)); err == nil {
			t.weekday, t.hasWeekday = d.Weekday(), true
		}
		if m, ok := startMinute(r.StartTime); ok {
			t.startMinute, t.hasStart = m, true
		}
		out = append(out, t)
	}
	return out
}

// startMinute reads the HH:MM prefix of a start time into minutes past
// midnight. Seconds are ignored.
func startMinute(v string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(v), ":")
	if len(parts) < 2 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// Summarize derives the dashboard statistics from a user's trips. The same
// input in the same order always gives the same output.
func Summarize(records []commute.TripRecord, opts Options) Snapshot {
	return summarize(normalize(records), opts)
}

func summarize(trips []trip, opts Options) Snapshot {
	return Snapshot{
		AvgDurationMinutes: avgDuration(trips),
		BusiestWeekday:     busiestWeekday(trips),
		PeakWindow:         peakWindow(trips),
		AvgDelayMinutes:    avgDelay(trips, opts),
	}
}

func avgDuration(trips []trip) int {
	if len(trips) == 0 {
		return 0
	}
	total := 0
	for _, t := range trips {
		total += t.duration
	}
	return roundDiv(float64(total), len(trips))
}

// busiestWeekday picks the most frequent weekday. Ties go to the weekday
// seen first.
func busiestWeekday(trips []trip) string {
	counts := map[time.Weekday]int{}
	var order []time.Weekday
	for _, t := range trips {
		if !t.hasWeekday {
			continue
		}
		if _, seen := counts[t.weekday]; !seen {
			order = append(order, t.weekday)
		}
		counts[t.weekday]++
	}
	if len(order) == 0 {
		return noWeekday
	}
	best := order[0]
	for _, d := range order[1:] {
		if counts[d] > counts[best] {
			best = d
		}
	}
	return best.String()
}

// peakMinute is the most common start minute, first seen on ties. With no
// start times it is midnight.
func peakMinute(trips []trip) int {
	counts := map[int]int{}
	var order []int
	for _, t := range trips {
		if !t.hasStart {
			continue
		}
		if _, seen := counts[t.startMinute]; !seen {
			order = append(order, t.startMinute)
		}
		counts[t.startMinute]++
	}
	if len(order) == 0 {
		return 0
	}
	best := order[0]
	for _, m := range order[1:] {
		if counts[m] > counts[best] {
			best = m
		}
	}
	return best
}

func peakWindow(trips []trip) PeakWindow {
	m := peakMinute(trips)
	return PeakWindow{
		StartLabel: clockLabel(m - peakLeadMinutes),
		EndLabel:   clockLabel(m + peakTrailMinutes),
	}
}

// avgDelay averages max(0, actual - ideal) over trips with a positive
// duration. The ideal is the recorded estimate, or distance at the assumed
// speed when none was recorded.
func avgDelay(trips []trip, opts Options) int {
	speed := opts.AssumedSpeedKmh
	if speed <= 0 {
		speed = DefaultSpeedKmh
	}
	total, counted := 0, 0
	for _, t := range trips {
		if t.duration <= 0 {
			continue
		}
		ideal := t.estimate
		if ideal == 0 {
			ideal = int(math.Round(t.distanceKm / speed * 60))
		}
		total += max(0, t.duration-ideal)
		counted++
	}
	if counted == 0 {
		return 0
	}
	return roundDiv(float64(total), counted)
}

func clockLabel(minutes int) string {
	minutes = ((minutes % 1440) + 1440) % 1440
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func roundDiv(total float64, n int) int {
	return int(math.Round(total / float64(n)))
}

// weekly averages duration per weekday, Sunday first.
func weekly(trips []trip) []DayAverage {
	var sums, counts [7]int
	for _, t := range trips {
		if !t.hasWeekday {
			continue
		}
		sums[t.weekday] += t.duration
		counts[t.weekday]++
	}
	out := make([]DayAverage, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		out[d] = DayAverage{Day: d.String()[:3]}
		if counts[d] > 0 {
			out[d].AvgDurationMinutes = roundDiv(float64(sums[d]), counts[d])
		}
	}
	return out
}

// hourly counts trips by start hour. Hours with trips are always listed,
// and 07:00 through 21:00 are listed even when empty.
func hourly(trips []trip) []HourCount {
	var counts [24]int
	for _, t := range trips {
		if t.hasStart {
			counts[t.startMinute/60]++
		}
	}
	out := []HourCount{}
	for h, n := range counts {
		if n > 0 || (h >= 7 && h <= 21) {
			out = append(out, HourCount{Hour: fmt.Sprintf("%02d:00", h), Count: n})
		}
	}
	return out
}

func tips(s Snapshot) []string {
	out := make([]string, 0, 2)
	if s.AvgDelayMinutes > highDelayMinutes {
		out = append(out, fmt.Sprintf("AI Alert: High delays (%dm). Consider leaving before %s.", s.AvgDelayMinutes, s.PeakWindow.StartLabel))
	} else {
		out = append(out, fmt.Sprintf("Your routes are currently efficient with only %dm of delay.", s.AvgDelayMinutes))
	}
	out = append(out, fmt.Sprintf("%s is your most frequent commute day.", s.BusiestWeekday))
	return out
}

// Compute builds the full insights view. An empty history yields zero
// figures and no tips.
func Compute(records []commute.TripRecord, opts Options) Insights {
	trips := normalize(records)
	snap := summarize(trips, opts)
	in := Insights{
		Snapshot:  snap,
		TripCount: len(trips),
		Weekly:    weekly(trips),
		Hourly:    hourly(trips),
		Tips:      []string{},
	}
	if len(trips) > 0 {
		in.Tips = tips(snap)
	}
	return in
}

const noDataInsight = "No data yet. Log a few commutes!"

// WorstCommute describes the longest trip, first found on ties.
func WorstCommute(records []commute.TripRecord) string {
	if len(records) == 0 {
		return noDataInsight
	}
	worst := records[0]
	for _, r := range records[1:] {
		if r.DurationMinutes > worst.DurationMinutes {
			worst = r
		}
	}
	day := "recorded"
	if d, err := time.Parse(time.DateOnly, strings.TrimSpace(worst.DateCommuted)); err == nil {
		day = d.Weekday().String()
	}
	start := worst.StartTime
	if start == "" {
		start = "usual"
	}
	return fmt.Sprintf("Data Update: Your %s commutes are the longest (%d mins). Try leaving 15-20 mins earlier than %s to beat the peak!",
		day, worst.DurationMinutes, start)
}

