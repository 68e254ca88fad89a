package tracking

import (
	"time"

	"github.com/twpayne/go-geom/encoding/geojson"
)

type Session struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	StartedAt      time.Time  `json:"started_at"`
	EndedAt        *time.Time `json:"ended_at,omitempty"`
	TotalDistanceM float64    `json:"total_distance_m"`
	Status         string     `json:"status"`
}

type TrackPoint struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"session_id"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	RecordedAt time.Time `json:"recorded_at"`
	SpeedMps   float64   `json:"speed_mps"`
	CreatedAt  time.Time `json:"created_at"`
}

// PointResult tells the client whether a posted sample joined the path.
type PointResult struct {
	Accepted bool        `json:"accepted"`
	Point    *TrackPoint `json:"point,omitempty"`
}

type Summary struct {
	SessionID     string            `json:"session_id"`
	Status        string            `json:"status"`
	PointCount    int               `json:"point_count"`
	DistanceM     float64           `json:"distance_m"`
	DurationSec   int64             `json:"duration_sec"`
	AverageSpeedM float64           `json:"average_speed_mps"`
	Path          *geojson.Geometry `json:"path,omitempty"`
}

const (
	statusActive  = "active"
	statusStopped = "stopped"
)
