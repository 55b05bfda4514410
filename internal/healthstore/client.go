// Package healthstore defines the boundary to the device health-data store:
// the access point for aggregated step, heart-rate, and sleep records and for
// the per-scope grant set controlling who may read them.
package healthstore

import (
	"context"
	"time"
)

// Scope is a named read permission covering one record type.
type Scope string

const (
	ScopeReadSteps     Scope = "read:steps"
	ScopeReadHeartRate Scope = "read:heart_rate"
	ScopeReadSleep     Scope = "read:sleep"
)

// RequiredScopes lists every read grant the bridge needs.
func RequiredScopes() []Scope {
	return []Scope{ScopeReadSteps, ScopeReadHeartRate, ScopeReadSleep}
}

// StepInterval is a raw store-side step-count interval.
type StepInterval struct {
	Count     int64
	StartTime time.Time
	EndTime   time.Time
}

// SamplePoint is one heart-rate reading inside a series.
type SamplePoint struct {
	Time           time.Time
	BeatsPerMinute float64
}

// HeartRateSeries is a session-level record holding nested per-sample
// readings. The bridge flattens these before crossing the boundary.
type HeartRateSeries struct {
	StartTime time.Time
	EndTime   time.Time
	Samples   []SamplePoint
}

// SleepRecord is a raw store-side sleep interval. Title and Notes may be
// empty; the bridge applies defaults when mapping to the wire shape.
type SleepRecord struct {
	StartTime time.Time
	EndTime   time.Time
	Title     string
	Notes     string
}

// Client is the read surface of the device health store. All reads are
// bounded time-range queries returning only records fully contained in
// [start, end]. Implementations must be safe for concurrent use.
type Client interface {
	ReadStepIntervals(ctx context.Context, start, end time.Time) ([]StepInterval, error)
	ReadHeartRateSeries(ctx context.Context, start, end time.Time) ([]HeartRateSeries, error)
	ReadSleepRecords(ctx context.Context, start, end time.Time) ([]SleepRecord, error)
	GrantedScopes(ctx context.Context) (map[Scope]struct{}, error)
}

// Recorder ingests records into the device store.
type Recorder interface {
	RecordSteps(ctx context.Context, interval StepInterval) error
	RecordHeartRate(ctx context.Context, series HeartRateSeries) error
	RecordSleep(ctx context.Context, rec SleepRecord) error
}

// GrantStore mutates the device grant set. Grant decisions arrive from the
// device UI agent after the user answers a permission prompt.
type GrantStore interface {
	SetGrant(ctx context.Context, scope Scope, granted bool) error
}
