package stats

// PeakWindow is the padded range around the most common start minute.
type PeakWindow struct {
	StartLabel string `json:"start_label"`
	EndLabel   string `json:"end_label"`
}

func (w PeakWindow) String() string {
	return w.StartLabel + " - " + w.EndLabel
}

type Snapshot struct {
	AvgDurationMinutes int        `json:"avg_duration_minutes"`
	BusiestWeekday     string     `json:"busiest_weekday"`
	PeakWindow         PeakWindow `json:"peak_window"`
	AvgDelayMinutes    int        `json:"avg_delay_minutes"`
}

type DayAverage struct {
	Day                string `json:"day"`
	AvgDurationMinutes int    `json:"avg_duration_minutes"`
}

type HourCount struct {
	Hour  string `json:"hour"`
	Count int    `json:"count"`
}

// Insights is the dashboard view over a user's history.
type Insights struct {
	Snapshot
	TripCount int          `json:"trip_count"`
	Weekly    []DayAverage `json:"weekly"`
	Hourly    []HourCount  `json:"hourly"`
	Tips      []string     `json:"tips"`
}

type Options struct {
	AssumedSpeedKmh float64
}

const (
	DefaultSpeedKmh = 35

	peakLeadMinutes  = 15
	peakTrailMinutes = 30
	highDelayMinutes = 10
	noWeekday        = "--"
)
