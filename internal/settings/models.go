package settings

import "time"

type Settings struct {
	UserID           string    `json:"user_id"`
	LocationAccess   bool      `json:"location_access"`
	CommuteReminders bool      `json:"commute_reminders"`
	AISuggestions    bool      `json:"ai_suggestions"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Patch carries the fields a client wants to change. Nil fields keep their
// stored value.
type Patch struct {
	LocationAccess   *bool `json:"location_access"`
	CommuteReminders *bool `json:"commute_reminders"`
	AISuggestions    *bool `json:"ai_suggestions"`
}
