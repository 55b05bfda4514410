package ingest

import "time"

// Event types emitted by wearable sync agents and the device UI agent.
const (
	EventStepsRecorded     = "health.steps.recorded"
	EventHeartRateRecorded = "health.heart_rate.recorded"
	EventSleepRecorded     = "health.sleep.recorded"
	EventPermissionChanged = "health.permission.changed"
)

// StepsRecorded is one synced step-count interval.
type StepsRecorded struct {
	Count     int64     `json:"count"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// SamplePayload is one heart-rate reading inside a synced series.
type SamplePayload struct {
	Time           time.Time `json:"time"`
	BeatsPerMinute float64   `json:"beats_per_minute"`
}

// HeartRateRecorded is one synced session-level heart-rate series.
type HeartRateRecorded struct {
	StartTime time.Time       `json:"start_time"`
	EndTime   time.Time       `json:"end_time"`
	Samples   []SamplePayload `json:"samples"`
}

// SleepRecorded is one synced sleep session.
type SleepRecorded struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Title     string    `json:"title"`
	Notes     string    `json:"notes"`
}

// PermissionChanged carries the user's decision after a permission prompt.
type PermissionChanged struct {
	Scope   string `json:"scope"`
	Granted bool   `json:"granted"`
}
