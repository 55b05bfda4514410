// Package api exposes the bridge operations over HTTP to the application
// layer.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"example.com/healthbridge/internal/auth"
	"example.com/healthbridge/internal/bridge"
)

// Handler coordinates HTTP requests with the native adapter.
type Handler struct {
	adapter *bridge.Adapter
}

// NewHandler builds a Handler.
func NewHandler(adapter *bridge.Adapter) *Handler {
	return &Handler{adapter: adapter}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/bridge/available", h.available)
	mux.HandleFunc("/v1/bridge/permissions", h.permissionStatus)
	mux.HandleFunc("/v1/bridge/permissions/request", h.requestPermissions)
	mux.HandleFunc("/v1/bridge/records/steps", h.readSteps)
	mux.HandleFunc("/v1/bridge/records/heart-rate", h.readHeartRate)
	mux.HandleFunc("/v1/bridge/records/sleep", h.readSleep)
	mux.HandleFunc("/v1/bridge/settings/open", h.openSettings)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// AvailableResponse reports whether the device health store handle exists.
type AvailableResponse struct {
	Available bool `json:"available"`
}

func (h *Handler) available(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	if !requireScope(w, r, auth.ScopeHealthRead) {
		return
	}
	writeJSON(w, http.StatusOK, AvailableResponse{Available: h.adapter.IsAvailable()})
}

func (h *Handler) permissionStatus(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	if !requireScope(w, r, auth.ScopeHealthRead) {
		return
	}

	status, err := h.adapter.CheckPermissionStatus(r.Context())
	if err != nil {
		writeBridgeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *Handler) requestPermissions(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	if !requireScope(w, r, auth.ScopeHealthManage) {
		return
	}

	result, err := h.adapter.RequestPermissions(r.Context())
	if err != nil {
		writeBridgeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) readSteps(w http.ResponseWriter, r *http.Request) {
	start, end, ok := rangeParams(w, r)
	if !ok {
		return
	}

	records, err := h.adapter.ReadSteps(r.Context(), start, end)
	if err != nil {
		writeBridgeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) readHeartRate(w http.ResponseWriter, r *http.Request) {
	start, end, ok := rangeParams(w, r)
	if !ok {
		return
	}

	samples, err := h.adapter.ReadHeartRate(r.Context(), start, end)
	if err != nil {
		writeBridgeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, samples)
}

func (h *Handler) readSleep(w http.ResponseWriter, r *http.Request) {
	start, end, ok := rangeParams(w, r)
	if !ok {
		return
	}

	sessions, err := h.adapter.ReadSleep(r.Context(), start, end)
	if err != nil {
		writeBridgeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (h *Handler) openSettings(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	if !requireScope(w, r, auth.ScopeHealthManage) {
		return
	}

	// Best effort with no error channel back to the caller.
	h.adapter.OpenSettings(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// rangeParams validates method, scope, and the start/end epoch-millis query
// parameters shared by the three read endpoints.
func rangeParams(w http.ResponseWriter, r *http.Request) (start, end int64, ok bool) {
	if !requireMethod(w, r, http.MethodGet) {
		return 0, 0, false
	}
	if !requireScope(w, r, auth.ScopeHealthRead) {
		return 0, 0, false
	}

	start, err := strconv.ParseInt(r.URL.Query().Get("start"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "start must be epoch milliseconds")
		return 0, 0, false
	}
	end, err = strconv.ParseInt(r.URL.Query().Get("end"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "end must be epoch milliseconds")
		return 0, 0, false
	}
	if end < start {
		writeError(w, http.StatusBadRequest, "validation_failed", "end must not precede start")
		return 0, 0, false
	}
	return start, end, true
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return false
	}
	return true
}

func requireScope(w http.ResponseWriter, r *http.Request, scope string) bool {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return false
	}
	if !claims.HasScope(scope) {
		writeError(w, http.StatusForbidden, "forbidden", "scope "+scope+" required")
		return false
	}
	return true
}

func writeBridgeError(w http.ResponseWriter, err error) {
	var bridgeErr *bridge.Error
	if !errors.As(err, &bridgeErr) {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeError(w, bridgeStatus(bridgeErr.Code), bridgeErr.Code, bridgeErr.Message)
}

func bridgeStatus(code string) int {
	switch code {
	case bridge.CodeUnavailable:
		return http.StatusServiceUnavailable
	case bridge.CodeNoActivity:
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
