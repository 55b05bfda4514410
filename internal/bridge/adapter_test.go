package bridge

import (
	"context"
	"errors"
	"testing"
	"time"

	"example.com/healthbridge/internal/healthstore"
	"example.com/healthbridge/internal/record"
)

type stubClient struct {
	steps     []healthstore.StepInterval
	heartRate []healthstore.HeartRateSeries
	sleep     []healthstore.SleepRecord
	granted   map[healthstore.Scope]struct{}
	readErr   error
	grantErr  error
}

func (c *stubClient) ReadStepIntervals(context.Context, time.Time, time.Time) ([]healthstore.StepInterval, error) {
	return c.steps, c.readErr
}

func (c *stubClient) ReadHeartRateSeries(context.Context, time.Time, time.Time) ([]healthstore.HeartRateSeries, error) {
	return c.heartRate, c.readErr
}

func (c *stubClient) ReadSleepRecords(context.Context, time.Time, time.Time) ([]healthstore.SleepRecord, error) {
	return c.sleep, c.readErr
}

func (c *stubClient) GrantedScopes(context.Context) (map[healthstore.Scope]struct{}, error) {
	if c.grantErr != nil {
		return nil, c.grantErr
	}
	return c.granted, nil
}

type stubLauncher struct {
	promptCalls  int
	promptScopes []healthstore.Scope
	promptErr    error
	healthCalls  int
	healthErr    error
	appCalls     int
	appErr       error
}

func (l *stubLauncher) LaunchPermissionPrompt(_ context.Context, scopes []healthstore.Scope) error {
	l.promptCalls++
	l.promptScopes = scopes
	return l.promptErr
}

func (l *stubLauncher) OpenHealthSettings(context.Context) error {
	l.healthCalls++
	return l.healthErr
}

func (l *stubLauncher) OpenAppSettings(context.Context) error {
	l.appCalls++
	return l.appErr
}

func allGranted() map[healthstore.Scope]struct{} {
	out := make(map[healthstore.Scope]struct{})
	for _, scope := range healthstore.RequiredScopes() {
		out[scope] = struct{}{}
	}
	return out
}

func TestIsAvailable(t *testing.T) {
	if NewAdapter(nil, nil).IsAvailable() {
		t.Fatal("nil client must report unavailable")
	}
	if !NewAdapter(&stubClient{}, nil).IsAvailable() {
		t.Fatal("constructed client must report available")
	}
}

func TestRequestPermissionsAlreadyGranted(t *testing.T) {
	launcher := &stubLauncher{}
	adapter := NewAdapter(&stubClient{granted: allGranted()}, launcher)

	result, err := adapter.RequestPermissions(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Granted {
		t.Fatal("expected granted result")
	}
	if launcher.promptCalls != 0 {
		t.Fatal("prompt must not be shown when every scope is already granted")
	}
}

func TestRequestPermissionsStartsPrompt(t *testing.T) {
	launcher := &stubLauncher{}
	granted := map[healthstore.Scope]struct{}{healthstore.ScopeReadSteps: {}}
	adapter := NewAdapter(&stubClient{granted: granted}, launcher)

	result, err := adapter.RequestPermissions(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Granted {
		t.Fatal("result must not be granted before the user responds")
	}
	if result.Message != "request started" {
		t.Fatalf("unexpected message %q", result.Message)
	}
	if launcher.promptCalls != 1 {
		t.Fatalf("expected one prompt launch got %d", launcher.promptCalls)
	}
	if len(launcher.promptScopes) != 2 {
		t.Fatalf("expected the two missing scopes, got %v", launcher.promptScopes)
	}
}

func TestRequestPermissionsNoActivity(t *testing.T) {
	adapter := NewAdapter(&stubClient{}, nil)

	_, err := adapter.RequestPermissions(context.Background())
	assertBridgeCode(t, err, CodeNoActivity)
}

func TestRequestPermissionsUnavailable(t *testing.T) {
	adapter := NewAdapter(nil, &stubLauncher{})

	_, err := adapter.RequestPermissions(context.Background())
	assertBridgeCode(t, err, CodeUnavailable)
}

func TestRequestPermissionsLaunchFailure(t *testing.T) {
	launcher := &stubLauncher{promptErr: errors.New("agent offline")}
	adapter := NewAdapter(&stubClient{}, launcher)

	_, err := adapter.RequestPermissions(context.Background())
	assertBridgeCode(t, err, CodePermission)
}

func TestCheckPermissionStatus(t *testing.T) {
	granted := map[healthstore.Scope]struct{}{
		healthstore.ScopeReadSteps: {},
		healthstore.ScopeReadSleep: {},
	}
	adapter := NewAdapter(&stubClient{granted: granted}, nil)

	status, err := adapter.CheckPermissionStatus(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !status.Steps || status.HeartRate || !status.Sleep {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestReadStepsMapsIntervals(t *testing.T) {
	start := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
	client := &stubClient{steps: []healthstore.StepInterval{
		{Count: 250, StartTime: start, EndTime: start.Add(15 * time.Minute)},
	}}
	adapter := NewAdapter(client, nil)

	records, err := adapter.ReadSteps(context.Background(), record.ToMillis(start), record.ToMillis(start.Add(time.Hour)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record got %d", len(records))
	}
	if records[0].Count != 250 {
		t.Fatalf("unexpected count %d", records[0].Count)
	}
	if records[0].StartTime != record.ToMillis(start) {
		t.Fatalf("unexpected startTime %d", records[0].StartTime)
	}
}

func TestReadStepsErrorCodes(t *testing.T) {
	_, err := NewAdapter(nil, nil).ReadSteps(context.Background(), 0, 1)
	assertBridgeCode(t, err, CodeStepsRead)

	failing := &stubClient{readErr: errors.New("store offline")}
	_, err = NewAdapter(failing, nil).ReadSteps(context.Background(), 0, 1)
	assertBridgeCode(t, err, CodeStepsRead)
}

func TestReadHeartRateFlattensSeries(t *testing.T) {
	start := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
	client := &stubClient{heartRate: []healthstore.HeartRateSeries{
		{
			StartTime: start,
			EndTime:   start.Add(2 * time.Minute),
			Samples: []healthstore.SamplePoint{
				{Time: start, BeatsPerMinute: 62},
				{Time: start.Add(time.Minute), BeatsPerMinute: 64},
			},
		},
		{
			StartTime: start.Add(5 * time.Minute),
			EndTime:   start.Add(6 * time.Minute),
			Samples: []healthstore.SamplePoint{
				{Time: start.Add(5 * time.Minute), BeatsPerMinute: 70},
			},
		},
	}}
	adapter := NewAdapter(client, nil)

	samples, err := adapter.ReadHeartRate(context.Background(), record.ToMillis(start), record.ToMillis(start.Add(time.Hour)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(samples) != 3 {
		t.Fatalf("expected 3 flattened samples got %d", len(samples))
	}
	if samples[2].BeatsPerMinute != 70 {
		t.Fatalf("unexpected sample order: %+v", samples)
	}
}

func TestReadHeartRateErrorCode(t *testing.T) {
	_, err := NewAdapter(nil, nil).ReadHeartRate(context.Background(), 0, 1)
	assertBridgeCode(t, err, CodeHeartRateRead)
}

func TestReadSleepDerivesDuration(t *testing.T) {
	bedtime := time.Date(2026, time.March, 1, 23, 0, 0, 0, time.UTC)
	client := &stubClient{sleep: []healthstore.SleepRecord{
		{StartTime: bedtime, EndTime: bedtime.Add(8 * time.Hour), Notes: "restless"},
	}}
	adapter := NewAdapter(client, nil)

	sessions, err := adapter.ReadSleep(context.Background(), record.ToMillis(bedtime.Add(-time.Hour)), record.ToMillis(bedtime.Add(10*time.Hour)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session got %d", len(sessions))
	}
	if sessions[0].DurationHours != 8 {
		t.Fatalf("expected 8 whole hours got %d", sessions[0].DurationHours)
	}
	if sessions[0].Title != record.DefaultSleepTitle {
		t.Fatalf("expected defaulted title got %q", sessions[0].Title)
	}
	if sessions[0].Notes != "restless" {
		t.Fatalf("unexpected notes %q", sessions[0].Notes)
	}
}

func TestReadSleepErrorCode(t *testing.T) {
	_, err := NewAdapter(nil, nil).ReadSleep(context.Background(), 0, 1)
	assertBridgeCode(t, err, CodeSleepRead)
}

func TestOpenSettingsFallsBack(t *testing.T) {
	launcher := &stubLauncher{healthErr: errors.New("screen not resolved")}
	adapter := NewAdapter(&stubClient{}, launcher)

	adapter.OpenSettings(context.Background())

	if launcher.healthCalls != 1 {
		t.Fatalf("expected one health settings attempt got %d", launcher.healthCalls)
	}
	if launcher.appCalls != 1 {
		t.Fatalf("expected app settings fallback got %d", launcher.appCalls)
	}
}

func TestOpenSettingsSwallowsAllFailures(t *testing.T) {
	launcher := &stubLauncher{
		healthErr: errors.New("screen not resolved"),
		appErr:    errors.New("agent offline"),
	}
	adapter := NewAdapter(&stubClient{}, launcher)

	// Must not panic or signal anything back.
	adapter.OpenSettings(context.Background())
	adapter.OpenSettings(context.Background())

	if launcher.appCalls != 2 {
		t.Fatalf("expected fallback on every call got %d", launcher.appCalls)
	}
}

func TestOpenSettingsWithoutLauncher(t *testing.T) {
	NewAdapter(&stubClient{}, nil).OpenSettings(context.Background())
}

func assertBridgeCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error")
	}
	var bridgeErr *Error
	if !errors.As(err, &bridgeErr) {
		t.Fatalf("expected bridge error got %T: %v", err, err)
	}
	if bridgeErr.Code != code {
		t.Fatalf("expected code %s got %s (%v)", code, bridgeErr.Code, err)
	}
}
