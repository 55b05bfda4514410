// Package bridge implements the native adapter between the device health
// store and the application layer. Every operation is one stateless round
// trip; the adapter holds no mutable state and is safe for concurrent calls.
package bridge

import (
	"context"
	"log"

	"example.com/healthbridge/internal/healthstore"
	"example.com/healthbridge/internal/observability"
	"example.com/healthbridge/internal/record"
)

// PromptLauncher starts platform UI flows on behalf of the adapter.
type PromptLauncher interface {
	LaunchPermissionPrompt(ctx context.Context, scopes []healthstore.Scope) error
	OpenHealthSettings(ctx context.Context) error
	OpenAppSettings(ctx context.Context) error
}

// Adapter exposes the bridge operations over an optional store handle. The
// handle is checked once at construction and never re-probed; a nil client
// models a device without the health-data feature, a nil launcher models the
// absence of a foreground UI context.
type Adapter struct {
	client   healthstore.Client
	launcher PromptLauncher
	logger   *log.Logger
}

// Option configures optional adapter behaviour.
type Option func(*Adapter)

// WithLogger overrides the adapter's logger.
func WithLogger(logger *log.Logger) Option {
	return func(a *Adapter) { a.logger = logger }
}

// NewAdapter constructs an Adapter. Both client and launcher may be nil.
func NewAdapter(client healthstore.Client, launcher PromptLauncher, opts ...Option) *Adapter {
	a := &Adapter{
		client:   client,
		launcher: launcher,
		logger:   log.New(log.Writer(), "[bridge] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// IsAvailable reports whether the device health store handle exists.
func (a *Adapter) IsAvailable() bool {
	available := a.client != nil
	observability.RecordBridgeCall("isAvailable", nil)
	return available
}

// RequestPermissions reads the granted scope set and, when incomplete,
// starts the platform permission prompt. The prompt outcome is never
// awaited: the result resolves before the user responds and callers must
// poll CheckPermissionStatus to learn the decision.
func (a *Adapter) RequestPermissions(ctx context.Context) (result record.PermissionResult, err error) {
	defer func() { observability.RecordBridgeCall("requestPermissions", err) }()

	if a.client == nil {
		return record.PermissionResult{}, errUnavailable()
	}

	granted, readErr := a.client.GrantedScopes(ctx)
	if readErr != nil {
		return record.PermissionResult{}, &Error{Code: CodePermission, Message: "failed to read granted scopes", Err: readErr}
	}

	missing := missingScopes(granted)
	if len(missing) == 0 {
		return record.PermissionResult{Granted: true, Message: "permissions already granted"}, nil
	}

	if a.launcher == nil {
		return record.PermissionResult{}, errNoActivity()
	}
	if launchErr := a.launcher.LaunchPermissionPrompt(ctx, missing); launchErr != nil {
		return record.PermissionResult{}, &Error{Code: CodePermission, Message: "failed to start permission prompt", Err: launchErr}
	}

	return record.PermissionResult{Granted: false, Message: "request started"}, nil
}

// CheckPermissionStatus reports the granted state of each required scope.
func (a *Adapter) CheckPermissionStatus(ctx context.Context) (status record.PermissionStatus, err error) {
	defer func() { observability.RecordBridgeCall("checkPermissionStatus", err) }()

	if a.client == nil {
		return record.PermissionStatus{}, errUnavailable()
	}
	granted, readErr := a.client.GrantedScopes(ctx)
	if readErr != nil {
		return record.PermissionStatus{}, &Error{Code: CodePermission, Message: "failed to read granted scopes", Err: readErr}
	}

	_, steps := granted[healthstore.ScopeReadSteps]
	_, heartRate := granted[healthstore.ScopeReadHeartRate]
	_, sleep := granted[healthstore.ScopeReadSleep]
	return record.PermissionStatus{Steps: steps, HeartRate: heartRate, Sleep: sleep}, nil
}

// ReadSteps queries step intervals in [startMillis, endMillis] and maps them
// to the wire shape.
func (a *Adapter) ReadSteps(ctx context.Context, startMillis, endMillis int64) (out []record.StepRecord, err error) {
	defer func() { observability.RecordBridgeCall("readSteps", err) }()

	if a.client == nil {
		return nil, errReadUnavailable(CodeStepsRead)
	}
	intervals, readErr := a.client.ReadStepIntervals(ctx, record.FromMillis(startMillis), record.FromMillis(endMillis))
	if readErr != nil {
		return nil, errRead(CodeStepsRead, readErr)
	}

	out = make([]record.StepRecord, 0, len(intervals))
	for _, interval := range intervals {
		out = append(out, record.StepRecord{
			Count:     interval.Count,
			StartTime: record.ToMillis(interval.StartTime),
			EndTime:   record.ToMillis(interval.EndTime),
		})
	}
	observability.RecordReadWatermark("steps", record.FromMillis(endMillis))
	return out, nil
}

// ReadHeartRate queries session-level heart-rate records in the range and
// flattens their nested samples into individual readings.
func (a *Adapter) ReadHeartRate(ctx context.Context, startMillis, endMillis int64) (out []record.HeartRateSample, err error) {
	defer func() { observability.RecordBridgeCall("readHeartRate", err) }()

	if a.client == nil {
		return nil, errReadUnavailable(CodeHeartRateRead)
	}
	series, readErr := a.client.ReadHeartRateSeries(ctx, record.FromMillis(startMillis), record.FromMillis(endMillis))
	if readErr != nil {
		return nil, errRead(CodeHeartRateRead, readErr)
	}

	out = make([]record.HeartRateSample, 0)
	for _, s := range series {
		for _, point := range s.Samples {
			out = append(out, record.HeartRateSample{
				BeatsPerMinute: point.BeatsPerMinute,
				Time:           record.ToMillis(point.Time),
			})
		}
	}
	observability.RecordReadWatermark("heart_rate", record.FromMillis(endMillis))
	return out, nil
}

// ReadSleep queries sleep records in the range, deriving the whole-hour
// duration and defaulting empty titles.
func (a *Adapter) ReadSleep(ctx context.Context, startMillis, endMillis int64) (out []record.SleepSession, err error) {
	defer func() { observability.RecordBridgeCall("readSleep", err) }()

	if a.client == nil {
		return nil, errReadUnavailable(CodeSleepRead)
	}
	records, readErr := a.client.ReadSleepRecords(ctx, record.FromMillis(startMillis), record.FromMillis(endMillis))
	if readErr != nil {
		return nil, errRead(CodeSleepRead, readErr)
	}

	out = make([]record.SleepSession, 0, len(records))
	for _, rec := range records {
		title := rec.Title
		if title == "" {
			title = record.DefaultSleepTitle
		}
		startMs := record.ToMillis(rec.StartTime)
		endMs := record.ToMillis(rec.EndTime)
		out = append(out, record.SleepSession{
			StartTime:     startMs,
			EndTime:       endMs,
			Title:         title,
			Notes:         rec.Notes,
			DurationHours: record.WholeHours(startMs, endMs),
		})
	}
	observability.RecordReadWatermark("sleep", record.FromMillis(endMillis))
	return out, nil
}

// OpenSettings makes a best-effort attempt to open the health-data settings
// screen, falling back to the app's own settings page. Failures are logged
// and swallowed; there is no signal back to the caller.
func (a *Adapter) OpenSettings(ctx context.Context) {
	observability.RecordBridgeCall("openSettings", nil)

	if a.launcher == nil {
		a.logger.Printf("openSettings skipped: no UI agent attached")
		return
	}
	err := a.launcher.OpenHealthSettings(ctx)
	if err == nil {
		return
	}
	a.logger.Printf("health settings screen unavailable, falling back to app settings: %v", err)
	if err := a.launcher.OpenAppSettings(ctx); err != nil {
		a.logger.Printf("app settings screen failed: %v", err)
	}
}

func missingScopes(granted map[healthstore.Scope]struct{}) []healthstore.Scope {
	missing := make([]healthstore.Scope, 0)
	for _, scope := range healthstore.RequiredScopes() {
		if _, ok := granted[scope]; !ok {
			missing = append(missing, scope)
		}
	}
	return missing
}
