// Package intent launches device UI screens through the local intent agent.
package intent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"example.com/healthbridge/internal/healthstore"
)

// Launcher posts intents to the device UI agent. Launch calls return once
// the agent has accepted the intent; they never wait for the user.
type Launcher struct {
	client *http.Client
	url    string
	token  string
}

// NewLauncher constructs a Launcher for the given agent endpoint.
func NewLauncher(endpoint, token string, timeout time.Duration) *Launcher {
	return &Launcher{
		client: &http.Client{Timeout: timeout},
		url:    strings.TrimRight(endpoint, "/"),
		token:  token,
	}
}

type promptRequest struct {
	Scopes []string `json:"scopes"`
}

// LaunchPermissionPrompt asks the agent to display the permission prompt for
// the given scopes.
func (l *Launcher) LaunchPermissionPrompt(ctx context.Context, scopes []healthstore.Scope) error {
	payload := promptRequest{Scopes: make([]string, 0, len(scopes))}
	for _, scope := range scopes {
		payload.Scopes = append(payload.Scopes, string(scope))
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return l.post(ctx, "/v1/prompts/permissions", "application/json", bytes.NewReader(body))
}

// OpenHealthSettings asks the agent to open the dedicated health-data
// settings screen.
func (l *Launcher) OpenHealthSettings(ctx context.Context) error {
	return l.post(ctx, "/v1/screens/health-settings", "", nil)
}

// OpenAppSettings asks the agent to open the app's own settings page.
func (l *Launcher) OpenAppSettings(ctx context.Context) error {
	return l.post(ctx, "/v1/screens/app-settings", "", nil)
}

func (l *Launcher) post(ctx context.Context, path, contentType string, body *bytes.Reader) error {
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, l.url+path, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, l.url+path, nil)
	}
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if l.token != "" {
		req.Header.Set("Authorization", "Bearer "+l.token)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("intent agent returned status %d for %s", resp.StatusCode, path)
	}
	return nil
}
