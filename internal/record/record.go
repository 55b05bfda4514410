// Package record defines the plain, serializable health record shapes
// exchanged across the bridge boundary. Field names on the wire are part of
// the contract with the application layer and must not change.
package record

import "time"

// DefaultSleepTitle is used when the device store reports a session without one.
const DefaultSleepTitle = "Sleep session"

// StepRecord is one reported step-count interval.
type StepRecord struct {
	Count     int64 `json:"count"`
	StartTime int64 `json:"startTime"`
	EndTime   int64 `json:"endTime"`
}

// HeartRateSample is a single reading flattened out of a session-level record.
type HeartRateSample struct {
	BeatsPerMinute float64 `json:"beatsPerMinute"`
	Time           int64   `json:"time"`
}

// SleepSession is one sleep interval with a derived whole-hour duration.
type SleepSession struct {
	StartTime     int64  `json:"startTime"`
	EndTime       int64  `json:"endTime"`
	Title         string `json:"title"`
	Notes         string `json:"notes"`
	DurationHours int64  `json:"durationHours"`
}

// PermissionStatus reports the granted state of each required read scope.
type PermissionStatus struct {
	Steps     bool `json:"steps"`
	HeartRate bool `json:"heartRate"`
	Sleep     bool `json:"sleep"`
}

// AllGranted reports whether every required scope is granted.
func (s PermissionStatus) AllGranted() bool {
	return s.Steps && s.HeartRate && s.Sleep
}

// PermissionResult is the outcome of a permission request. Granted is true
// only when every scope was already granted before the request; otherwise the
// prompt has been started and callers must poll the permission status.
type PermissionResult struct {
	Granted bool   `json:"granted"`
	Message string `json:"message"`
}

// ToMillis converts a time to the epoch-milliseconds representation used on
// the wire.
func ToMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// FromMillis converts an epoch-milliseconds wire value back to a time.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// WholeHours returns the number of complete hours between two epoch-millis
// instants, truncating any partial hour.
func WholeHours(startMillis, endMillis int64) int64 {
	if endMillis <= startMillis {
		return 0
	}
	return (endMillis - startMillis) / time.Hour.Milliseconds()
}
