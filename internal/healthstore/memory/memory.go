// Package memory provides an in-memory health store for local development
// and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"example.com/healthbridge/internal/healthstore"
)

// Store keeps records and grants in memory behind a single lock.
type Store struct {
	mu        sync.RWMutex
	steps     []healthstore.StepInterval
	heartRate []healthstore.HeartRateSeries
	sleep     []healthstore.SleepRecord
	grants    map[healthstore.Scope]bool
}

// NewStore constructs an empty Store with no scopes granted.
func NewStore() *Store {
	return &Store{grants: make(map[healthstore.Scope]bool)}
}

// ReadStepIntervals returns intervals fully contained in [start, end],
// ordered by start time.
func (s *Store) ReadStepIntervals(ctx context.Context, start, end time.Time) ([]healthstore.StepInterval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]healthstore.StepInterval, 0)
	for _, interval := range s.steps {
		if contained(interval.StartTime, interval.EndTime, start, end) {
			out = append(out, interval)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

// ReadHeartRateSeries returns series fully contained in [start, end].
func (s *Store) ReadHeartRateSeries(ctx context.Context, start, end time.Time) ([]healthstore.HeartRateSeries, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]healthstore.HeartRateSeries, 0)
	for _, series := range s.heartRate {
		if contained(series.StartTime, series.EndTime, start, end) {
			out = append(out, series)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

// ReadSleepRecords returns sleep intervals fully contained in [start, end].
func (s *Store) ReadSleepRecords(ctx context.Context, start, end time.Time) ([]healthstore.SleepRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]healthstore.SleepRecord, 0)
	for _, rec := range s.sleep {
		if contained(rec.StartTime, rec.EndTime, start, end) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

// GrantedScopes returns the currently granted scope set.
func (s *Store) GrantedScopes(ctx context.Context) (map[healthstore.Scope]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[healthstore.Scope]struct{}, len(s.grants))
	for scope, granted := range s.grants {
		if granted {
			out[scope] = struct{}{}
		}
	}
	return out, nil
}

// RecordSteps implements healthstore.Recorder.
func (s *Store) RecordSteps(ctx context.Context, interval healthstore.StepInterval) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps = append(s.steps, interval)
	return nil
}

// RecordHeartRate implements healthstore.Recorder.
func (s *Store) RecordHeartRate(ctx context.Context, series healthstore.HeartRateSeries) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.heartRate = append(s.heartRate, series)
	return nil
}

// RecordSleep implements healthstore.Recorder.
func (s *Store) RecordSleep(ctx context.Context, rec healthstore.SleepRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sleep = append(s.sleep, rec)
	return nil
}

// SetGrant implements healthstore.GrantStore.
func (s *Store) SetGrant(ctx context.Context, scope healthstore.Scope, granted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grants[scope] = granted
	return nil
}

// GrantAll marks every required scope granted. Test and demo convenience.
func (s *Store) GrantAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, scope := range healthstore.RequiredScopes() {
		s.grants[scope] = true
	}
}

func contained(recStart, recEnd, start, end time.Time) bool {
	return !recStart.Before(start) && !recEnd.After(end)
}
