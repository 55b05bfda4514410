package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"example.com/healthbridge/internal/auth"
	"example.com/healthbridge/internal/bridge"
	"example.com/healthbridge/internal/healthstore"
	"example.com/healthbridge/internal/healthstore/memory"
	"example.com/healthbridge/internal/record"
)

func readerClaims() *auth.Claims {
	return &auth.Claims{
		Subject: "app",
		Scopes: map[string]struct{}{
			auth.ScopeHealthRead: {},
		},
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func managerClaims() *auth.Claims {
	claims := readerClaims()
	claims.Scopes[auth.ScopeHealthManage] = struct{}{}
	return claims
}

func authed(req *http.Request, claims *auth.Claims) *http.Request {
	return req.WithContext(auth.WithClaims(req.Context(), claims))
}

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	store.GrantAll()

	base := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
	if err := store.RecordSteps(context.Background(), healthstore.StepInterval{
		Count:     300,
		StartTime: base,
		EndTime:   base.Add(30 * time.Minute),
	}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	return store
}

func TestReadStepsSuccess(t *testing.T) {
	store := seededStore(t)
	handler := NewHandler(bridge.NewAdapter(store, nil))

	base := time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)
	req := httptest.NewRequest(http.MethodGet, "/v1/bridge/records/steps", nil)
	q := req.URL.Query()
	q.Set("start", millis(base))
	q.Set("end", millis(base.Add(4*time.Hour)))
	req.URL.RawQuery = q.Encode()
	req = authed(req, readerClaims())

	rr := httptest.NewRecorder()
	handler.readSteps(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}

	var records []record.StepRecord
	if err := json.Unmarshal(rr.Body.Bytes(), &records); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record got %d", len(records))
	}
	if records[0].Count != 300 {
		t.Fatalf("unexpected count %d", records[0].Count)
	}
}

func TestReadStepsFieldNames(t *testing.T) {
	store := seededStore(t)
	handler := NewHandler(bridge.NewAdapter(store, nil))

	base := time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)
	req := httptest.NewRequest(http.MethodGet, "/v1/bridge/records/steps", nil)
	q := req.URL.Query()
	q.Set("start", millis(base))
	q.Set("end", millis(base.Add(4*time.Hour)))
	req.URL.RawQuery = q.Encode()
	req = authed(req, readerClaims())

	rr := httptest.NewRecorder()
	handler.readSteps(rr, req)

	var raw []map[string]json.Number
	decoder := json.NewDecoder(rr.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&raw); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	for _, key := range []string{"count", "startTime", "endTime"} {
		if _, ok := raw[0][key]; !ok {
			t.Fatalf("missing wire field %q in %v", key, raw[0])
		}
	}
}

func TestReadStepsValidatesRange(t *testing.T) {
	handler := NewHandler(bridge.NewAdapter(memory.NewStore(), nil))

	cases := []struct {
		name  string
		query string
	}{
		{"missing start", "end=1000"},
		{"missing end", "start=1000"},
		{"non numeric", "start=abc&end=1000"},
		{"inverted", "start=2000&end=1000"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/bridge/records/steps?"+tc.query, nil)
			req = authed(req, readerClaims())

			rr := httptest.NewRecorder()
			handler.readSteps(rr, req)

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400 got %d", rr.Code)
			}
		})
	}
}

func TestReadStepsRequiresScope(t *testing.T) {
	handler := NewHandler(bridge.NewAdapter(memory.NewStore(), nil))

	req := httptest.NewRequest(http.MethodGet, "/v1/bridge/records/steps?start=0&end=1000", nil)
	req = authed(req, &auth.Claims{Subject: "app", Scopes: map[string]struct{}{}, ExpiresAt: time.Now().Add(time.Hour)})

	rr := httptest.NewRecorder()
	handler.readSteps(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rr.Code)
	}
}

func TestReadStepsUnauthenticated(t *testing.T) {
	handler := NewHandler(bridge.NewAdapter(memory.NewStore(), nil))

	req := httptest.NewRequest(http.MethodGet, "/v1/bridge/records/steps?start=0&end=1000", nil)
	rr := httptest.NewRecorder()
	handler.readSteps(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rr.Code)
	}
}

func TestAvailableReflectsNilClient(t *testing.T) {
	handler := NewHandler(bridge.NewAdapter(nil, nil))

	req := authed(httptest.NewRequest(http.MethodGet, "/v1/bridge/available", nil), readerClaims())
	rr := httptest.NewRecorder()
	handler.available(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}
	var resp AvailableResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Available {
		t.Fatal("nil client must report available=false")
	}
}

func TestReadStepsUnavailableClient(t *testing.T) {
	handler := NewHandler(bridge.NewAdapter(nil, nil))

	req := authed(httptest.NewRequest(http.MethodGet, "/v1/bridge/records/steps?start=0&end=1000", nil), readerClaims())
	rr := httptest.NewRecorder()
	handler.readSteps(rr, req)

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 got %d", rr.Code)
	}

	var payload map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload["type"] != bridge.CodeStepsRead {
		t.Fatalf("expected %s got %s", bridge.CodeStepsRead, payload["type"])
	}
}

func TestRequestPermissionsUnavailableMapsTo503(t *testing.T) {
	handler := NewHandler(bridge.NewAdapter(nil, nil))

	req := authed(httptest.NewRequest(http.MethodPost, "/v1/bridge/permissions/request", nil), managerClaims())
	rr := httptest.NewRecorder()
	handler.requestPermissions(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", rr.Code)
	}
}

func TestRequestPermissionsNoLauncherMapsTo409(t *testing.T) {
	handler := NewHandler(bridge.NewAdapter(memory.NewStore(), nil))

	req := authed(httptest.NewRequest(http.MethodPost, "/v1/bridge/permissions/request", nil), managerClaims())
	rr := httptest.NewRecorder()
	handler.requestPermissions(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", rr.Code)
	}
}

func TestRequestPermissionsAlreadyGranted(t *testing.T) {
	store := memory.NewStore()
	store.GrantAll()
	handler := NewHandler(bridge.NewAdapter(store, nil))

	req := authed(httptest.NewRequest(http.MethodPost, "/v1/bridge/permissions/request", nil), managerClaims())
	rr := httptest.NewRecorder()
	handler.requestPermissions(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}
	var result record.PermissionResult
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !result.Granted {
		t.Fatal("expected granted=true")
	}
}

func TestPermissionStatusFieldNames(t *testing.T) {
	store := memory.NewStore()
	store.GrantAll()
	handler := NewHandler(bridge.NewAdapter(store, nil))

	req := authed(httptest.NewRequest(http.MethodGet, "/v1/bridge/permissions", nil), readerClaims())
	rr := httptest.NewRecorder()
	handler.permissionStatus(rr, req)

	var raw map[string]bool
	if err := json.Unmarshal(rr.Body.Bytes(), &raw); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	for _, key := range []string{"steps", "heartRate", "sleep"} {
		value, ok := raw[key]
		if !ok {
			t.Fatalf("missing wire field %q in %v", key, raw)
		}
		if !value {
			t.Fatalf("expected %q granted", key)
		}
	}
}

func TestOpenSettingsAlwaysNoContent(t *testing.T) {
	// No launcher attached: the failure is swallowed and the caller still
	// gets a success status.
	handler := NewHandler(bridge.NewAdapter(memory.NewStore(), nil))

	req := authed(httptest.NewRequest(http.MethodPost, "/v1/bridge/settings/open", nil), managerClaims())
	rr := httptest.NewRecorder()
	handler.openSettings(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", rr.Code)
	}
}

func TestReadStepsRejectsPost(t *testing.T) {
	handler := NewHandler(bridge.NewAdapter(memory.NewStore(), nil))

	req := authed(httptest.NewRequest(http.MethodPost, "/v1/bridge/records/steps?start=0&end=1", nil), readerClaims())
	rr := httptest.NewRecorder()
	handler.readSteps(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 got %d", rr.Code)
	}
}

func millis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}
