// Package facade is the application-side typed wrapper over the bridge API.
// Every helper is idempotent and never raises outward: failures are logged
// and mapped to a safe default so callers need no error handling of their
// own.
package facade

import (
	"context"
	"fmt"
	"log"
	"math"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"example.com/healthbridge/internal/record"
)

const defaultTimeout = 10 * time.Second

// Client calls the bridge daemon across the runtime boundary. One HTTP round
// trip per operation, no persistent connection.
type Client struct {
	http   *resty.Client
	logger *log.Logger
	now    func() time.Time
}

// Option configures optional client behaviour.
type Option func(*Client)

// WithLogger overrides the client's logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithClock overrides the time source used for interval computation.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithTimeout overrides the per-call HTTP timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.http.SetTimeout(timeout) }
}

// New constructs a Client for the given bridge base URL.
func New(baseURL, token string, opts ...Option) *Client {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(defaultTimeout).
		SetHeader("Accept", "application/json")
	if token != "" {
		rc.SetAuthToken(token)
	}

	c := &Client{
		http:   rc,
		logger: log.New(log.Writer(), "[healthkit] ", log.LstdFlags),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type availableResponse struct {
	Available bool `json:"available"`
}

// Initialize reports whether the device health store is available. Returns
// false on any failure.
func (c *Client) Initialize(ctx context.Context) bool {
	var out availableResponse
	resp, err := c.http.R().SetContext(ctx).SetResult(&out).Get("/v1/bridge/available")
	if err != nil {
		c.logger.Printf("initialize failed: %v", err)
		return false
	}
	if resp.IsError() {
		c.logger.Printf("initialize failed: bridge returned %s", resp.Status())
		return false
	}
	return out.Available
}

// RequestAllPermissions asks for the three read scopes. True only when every
// scope was already granted; otherwise the prompt has been started and the
// decision must be learned by calling HasAllPermissions later.
func (c *Client) RequestAllPermissions(ctx context.Context) bool {
	var result record.PermissionResult
	resp, err := c.http.R().SetContext(ctx).SetResult(&result).Post("/v1/bridge/permissions/request")
	if err != nil {
		c.logger.Printf("permission request failed: %v", err)
		return false
	}
	if resp.IsError() {
		c.logger.Printf("permission request failed: bridge returned %s", resp.Status())
		return false
	}
	return result.Granted
}

// HasAllPermissions reports whether every read scope is granted.
func (c *Client) HasAllPermissions(ctx context.Context) bool {
	var status record.PermissionStatus
	resp, err := c.http.R().SetContext(ctx).SetResult(&status).Get("/v1/bridge/permissions")
	if err != nil {
		c.logger.Printf("permission check failed: %v", err)
		return false
	}
	if resp.IsError() {
		c.logger.Printf("permission check failed: bridge returned %s", resp.Status())
		return false
	}
	return status.AllGranted()
}

// GetTodaySteps sums step counts over the local calendar day
// [midnight today, midnight tomorrow).
func (c *Client) GetTodaySteps(ctx context.Context) int64 {
	midnight := c.localMidnight()
	records, err := c.readSteps(ctx, record.ToMillis(midnight), record.ToMillis(midnight.AddDate(0, 0, 1)))
	if err != nil {
		c.logger.Printf("today steps unavailable: %v", err)
		return 0
	}

	var total int64
	for _, rec := range records {
		total += rec.Count
	}
	return total
}

// GetLastNightSleep sums whole sleep hours over the window
// [midnight yesterday, noon today) in local time.
func (c *Client) GetLastNightSleep(ctx context.Context) int64 {
	midnight := c.localMidnight()
	sessions, err := c.readSleep(ctx, record.ToMillis(midnight.AddDate(0, 0, -1)), record.ToMillis(midnight.Add(12*time.Hour)))
	if err != nil {
		c.logger.Printf("last night sleep unavailable: %v", err)
		return 0
	}

	var hours int64
	for _, session := range sessions {
		hours += session.DurationHours
	}
	return hours
}

// GetLatestHeartRate returns the rounded mean of the samples recorded in the
// last two hours, or 0 when there are none.
func (c *Client) GetLatestHeartRate(ctx context.Context) int64 {
	now := c.now()
	samples, err := c.readHeartRate(ctx, record.ToMillis(now.Add(-2*time.Hour)), record.ToMillis(now))
	if err != nil {
		c.logger.Printf("latest heart rate unavailable: %v", err)
		return 0
	}
	if len(samples) == 0 {
		return 0
	}

	var sum float64
	for _, sample := range samples {
		sum += sample.BeatsPerMinute
	}
	return int64(math.Round(sum / float64(len(samples))))
}

// OpenSettings asks the bridge to open the health-data settings screen.
// There is no success signal; failures are logged and absorbed.
func (c *Client) OpenSettings(ctx context.Context) {
	resp, err := c.http.R().SetContext(ctx).Post("/v1/bridge/settings/open")
	if err != nil {
		c.logger.Printf("open settings failed: %v", err)
		return
	}
	if resp.IsError() {
		c.logger.Printf("open settings failed: bridge returned %s", resp.Status())
	}
}

func (c *Client) readSteps(ctx context.Context, start, end int64) ([]record.StepRecord, error) {
	var out []record.StepRecord
	if err := c.readRange(ctx, "/v1/bridge/records/steps", start, end, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) readHeartRate(ctx context.Context, start, end int64) ([]record.HeartRateSample, error) {
	var out []record.HeartRateSample
	if err := c.readRange(ctx, "/v1/bridge/records/heart-rate", start, end, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) readSleep(ctx context.Context, start, end int64) ([]record.SleepSession, error) {
	var out []record.SleepSession
	if err := c.readRange(ctx, "/v1/bridge/records/sleep", start, end, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) readRange(ctx context.Context, path string, start, end int64, result interface{}) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("start", strconv.FormatInt(start, 10)).
		SetQueryParam("end", strconv.FormatInt(end, 10)).
		SetResult(result).
		Get(path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("bridge returned %s: %s", resp.Status(), resp.String())
	}
	return nil
}

// localMidnight returns midnight today in the clock's local zone.
func (c *Client) localMidnight() time.Time {
	now := c.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
