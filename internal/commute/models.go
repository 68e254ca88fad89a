package commute

import "time"

// TripRecord is one saved commute. Records are never updated in place.
type TripRecord struct {
	ID                       string    `json:"id"`
	UserID                   string    `json:"user_id"`
	DateCommuted             string    `json:"date_commuted"`
	StartTime                string    `json:"start_time"`
	EndTime                  string    `json:"end_time"`
	DurationMinutes          int       `json:"duration_minutes"`
	EstimatedDurationMinutes *int      `json:"estimated_duration_minutes"`
	DistanceKm               float64   `json:"distance_km"`
	StartLocation            string    `json:"start_location"`
	EndLocation              string    `json:"end_location"`
	StartLat                 float64   `json:"start_lat"`
	StartLng                 float64   `json:"start_lng"`
	EndLat                   float64   `json:"end_lat"`
	EndLng                   float64   `json:"end_lng"`
	TrafficLevel             string    `json:"traffic_level"`
	Notes                    string    `json:"notes"`
	CreatedAt                time.Time `json:"created_at"`
}

// SaveRequest is what a client submits to log the current route as a trip.
type SaveRequest struct {
	DateCommuted      string `json:"date_commuted"`
	StartTime         string `json:"start_time"`
	EndTime           string `json:"end_time"`
	TrafficLevel      string `json:"traffic_level"`
	Notes             string `json:"notes"`
	TrackingSessionID string `json:"tracking_session_id"`
}

// SaveResult pairs the stored record with how its duration was chosen.
type SaveResult struct {
	Record TripRecord `json:"record"`
	Source Source     `json:"duration_source"`
}

var trafficLevels = map[string]bool{"": true, "Low": true, "Medium": true, "High": true}
