package server

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

const (
	healthStatusOK           = "ok"
	healthStatusNotReady     = "not ready"
	healthStatusShuttingDown = "shutting down"
	healthStatusNotFound     = "not found"
	healthStatusDegraded     = "degraded"
)

// HealthChecker serves the liveness, readiness and detailed health endpoints
// of the HTTP transport.
type HealthChecker struct {
	ready         atomic.Bool
	serverContext *ServerContext
	startTime     time.Time
}

// NewHealthChecker returns a checker that starts out ready. sc may be nil.
func NewHealthChecker(sc *ServerContext) *HealthChecker {
	h := &HealthChecker{
		serverContext: sc,
		startTime:     time.Now(),
	}
	h.ready.Store(true)
	return h
}

// SetReady sets the readiness state of the server.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady returns whether the server is ready to receive traffic.
func (h *HealthChecker) IsReady() bool {
	return h.ready.Load()
}

// HealthResponse is the body of /healthz and /readyz.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// DetailedHealthResponse is the body of /healthz/detailed.
type DetailedHealthResponse struct {
	Status     string            `json:"status"`
	Uptime     string            `json:"uptime"`
	Executable string            `json:"executable,omitempty"`
	Checks     map[string]string `json:"checks,omitempty"`
}

// serving reports whether traffic should be routed here, with the
// per-condition results used by /readyz.
func (h *HealthChecker) serving() (bool, map[string]string) {
	checks := map[string]string{
		"ready":    healthStatusOK,
		"shutdown": healthStatusOK,
	}
	ok := true
	if !h.ready.Load() {
		checks["ready"] = healthStatusNotReady
		ok = false
	}
	if h.serverContext != nil && h.serverContext.IsShutdown() {
		checks["shutdown"] = healthStatusShuttingDown
		ok = false
	}
	return ok, checks
}

// noxCheck resolves the configured executable. It returns empty strings
// when there is no client to check.
func (h *HealthChecker) noxCheck() (executable, status string) {
	if h.serverContext == nil || h.serverContext.NoxClient() == nil {
		return "", ""
	}
	client := h.serverContext.NoxClient()
	if _, err := client.Resolve(); err != nil {
		return client.Executable(), healthStatusNotFound
	}
	return client.Executable(), healthStatusOK
}

// LivenessHandler answers /healthz. It only reports that the process is up.
func (h *HealthChecker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeHealth(w, http.StatusOK, HealthResponse{Status: healthStatusOK})
	})
}

// ReadinessHandler answers /readyz with 503 once the server is marked
// unready or its context is shut down.
func (h *HealthChecker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		ok, checks := h.serving()
		if !ok {
			writeHealth(w, http.StatusServiceUnavailable, HealthResponse{Status: healthStatusNotReady, Checks: checks})
			return
		}
		writeHealth(w, http.StatusOK, HealthResponse{Status: healthStatusOK, Checks: checks})
	})
}

// DetailedHealthHandler answers /healthz/detailed. A nox executable that
// cannot be resolved makes the status degraded but keeps the 200.
func (h *HealthChecker) DetailedHealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := DetailedHealthResponse{
			Status: healthStatusOK,
			Uptime: time.Since(h.startTime).Truncate(time.Second).String(),
		}
		exe, noxStatus := h.noxCheck()
		if noxStatus != "" {
			resp.Executable = exe
			resp.Checks = map[string]string{"nox": noxStatus}
		}

		code := http.StatusOK
		switch {
		case !h.ready.Load():
			resp.Status = healthStatusNotReady
			code = http.StatusServiceUnavailable
		case h.serverContext != nil && h.serverContext.IsShutdown():
			resp.Status = healthStatusShuttingDown
			code = http.StatusServiceUnavailable
		case noxStatus == healthStatusNotFound:
			resp.Status = healthStatusDegraded
		}
		writeHealth(w, code, resp)
	})
}

// RegisterHealthEndpoints mounts the three health endpoints on mux.
func (h *HealthChecker) RegisterHealthEndpoints(mux *http.ServeMux) {
	mux.Handle("/healthz", h.LivenessHandler())
	mux.Handle("/readyz", h.ReadinessHandler())
	mux.Handle("/healthz/detailed", h.DetailedHealthHandler())
}

func writeHealth(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
