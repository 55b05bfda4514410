package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	"example.com/healthbridge/internal/healthstore"
)

// StoreHandler applies decoded sync events to the device health store.
type StoreHandler struct {
	recorder healthstore.Recorder
	grants   healthstore.GrantStore
}

// NewStoreHandler constructs a handler over the given store interfaces.
func NewStoreHandler(recorder healthstore.Recorder, grants healthstore.GrantStore) *StoreHandler {
	return &StoreHandler{recorder: recorder, grants: grants}
}

// Handle dispatches one event by type. Unknown event types are rejected so
// the processor leaves them uncommitted for inspection.
func (h *StoreHandler) Handle(ctx context.Context, msg Message) error {
	switch msg.EventType {
	case EventStepsRecorded:
		return h.handleSteps(ctx, msg)
	case EventHeartRateRecorded:
		return h.handleHeartRate(ctx, msg)
	case EventSleepRecorded:
		return h.handleSleep(ctx, msg)
	case EventPermissionChanged:
		return h.handlePermission(ctx, msg)
	default:
		return fmt.Errorf("unknown event type: %s", msg.EventType)
	}
}

func (h *StoreHandler) handleSteps(ctx context.Context, msg Message) error {
	var payload StepsRecorded
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return err
	}
	if payload.Count < 0 {
		return fmt.Errorf("negative step count: %d", payload.Count)
	}
	if payload.EndTime.Before(payload.StartTime) {
		return fmt.Errorf("step interval ends before it starts")
	}
	return h.recorder.RecordSteps(ctx, healthstore.StepInterval{
		Count:     payload.Count,
		StartTime: payload.StartTime,
		EndTime:   payload.EndTime,
	})
}

func (h *StoreHandler) handleHeartRate(ctx context.Context, msg Message) error {
	var payload HeartRateRecorded
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return err
	}
	if len(payload.Samples) == 0 {
		return fmt.Errorf("heart-rate series has no samples")
	}
	series := healthstore.HeartRateSeries{
		StartTime: payload.StartTime,
		EndTime:   payload.EndTime,
		Samples:   make([]healthstore.SamplePoint, 0, len(payload.Samples)),
	}
	for _, sample := range payload.Samples {
		if sample.BeatsPerMinute <= 0 {
			return fmt.Errorf("non-positive heart rate: %f", sample.BeatsPerMinute)
		}
		series.Samples = append(series.Samples, healthstore.SamplePoint{
			Time:           sample.Time,
			BeatsPerMinute: sample.BeatsPerMinute,
		})
	}
	return h.recorder.RecordHeartRate(ctx, series)
}

func (h *StoreHandler) handleSleep(ctx context.Context, msg Message) error {
	var payload SleepRecorded
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return err
	}
	if payload.EndTime.Before(payload.StartTime) {
		return fmt.Errorf("sleep session ends before it starts")
	}
	return h.recorder.RecordSleep(ctx, healthstore.SleepRecord{
		StartTime: payload.StartTime,
		EndTime:   payload.EndTime,
		Title:     payload.Title,
		Notes:     payload.Notes,
	})
}

func (h *StoreHandler) handlePermission(ctx context.Context, msg Message) error {
	var payload PermissionChanged
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return err
	}
	if payload.Scope == "" {
		return fmt.Errorf("permission change without scope")
	}
	return h.grants.SetGrant(ctx, healthstore.Scope(payload.Scope), payload.Granted)
}
