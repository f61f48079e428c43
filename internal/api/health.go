package api

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/MJE43/jhandi-burja-go/internal/jhandi"
	"github.com/MJE43/jhandi-burja-go/internal/session"
)

type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// worse ranks statuses so a report takes its weakest probe.
func (h HealthStatus) worse(o HealthStatus) HealthStatus {
	rank := map[HealthStatus]int{HealthStatusHealthy: 0, HealthStatusDegraded: 1, HealthStatusUnhealthy: 2}
	if rank[o] > rank[h] {
		return o
	}
	return h
}

// ProbeResult is the outcome of one named check.
type ProbeResult struct {
	Status HealthStatus `json:"status"`
	Detail string       `json:"detail,omitempty"`
	Took   string       `json:"took"`
}

type HealthReport struct {
	Status        HealthStatus           `json:"status"`
	EngineVersion string                 `json:"engine_version"`
	GitCommit     string                 `json:"git_commit,omitempty"`
	BuildTime     string                 `json:"build_time,omitempty"`
	Uptime        string                 `json:"uptime"`
	CheckedAt     string                 `json:"checked_at"`
	Probes        map[string]ProbeResult `json:"probes"`
	Game          *session.Stats         `json:"game,omitempty"`
	Runtime       RuntimeInfo            `json:"runtime"`
	RequestID     string                 `json:"request_id,omitempty"`
}

type RuntimeInfo struct {
	Go         string `json:"go"`
	Goroutines int    `json:"goroutines"`
	CPUs       int    `json:"cpus"`
	HeapBytes  uint64 `json:"heap_bytes"`
	GCRuns     uint32 `json:"gc_runs"`
}

type probe func(s *Server) (HealthStatus, string)

var probes = map[string]probe{
	"catalog":  probeCatalog,
	"sessions": probeSessions,
}

func probeCatalog(_ *Server) (HealthStatus, string) {
	n := len(jhandi.Catalog())
	if n != jhandi.DiceCount {
		return HealthStatusUnhealthy, fmt.Sprintf("catalog has %d symbols, want %d", n, jhandi.DiceCount)
	}
	return HealthStatusHealthy, fmt.Sprintf("%d symbols", n)
}

func probeSessions(s *Server) (HealthStatus, string) {
	if s.manager == nil {
		return HealthStatusUnhealthy, "no session manager"
	}
	st := s.manager.Stats()
	return HealthStatusHealthy, fmt.Sprintf("%d live, %d rolling", st.Sessions, st.Rolling)
}

func (s *Server) runProbes() (HealthStatus, map[string]ProbeResult) {
	overall := HealthStatusHealthy
	out := make(map[string]ProbeResult, len(probes))
	for name, p := range probes {
		start := time.Now()
		status, detail := p(s)
		out[name] = ProbeResult{Status: status, Detail: detail, Took: time.Since(start).String()}
		overall = overall.worse(status)
	}
	return overall, out
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	overall, results := s.runProbes()

	report := HealthReport{
		Status:        overall,
		EngineVersion: EngineVersion,
		GitCommit:     GitCommit,
		BuildTime:     BuildTime,
		Uptime:        time.Since(s.startTime).Round(time.Second).String(),
		CheckedAt:     time.Now().UTC().Format(time.RFC3339),
		Probes:        results,
		Runtime:       readRuntime(),
		RequestID:     reqID,
	}
	if s.manager != nil {
		st := s.manager.Stats()
		report.Game = &st
	}

	code := http.StatusOK
	if overall == HealthStatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	s.securityLogger.LogAuditEvent(reqID, "health_check", "system", string(overall),
		map[string]interface{}{"probes": len(results), "status_code": code})
	s.writeJSON(w, code, report)
}

// handleReadiness reports whether new sessions can be served.
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	overall, results := s.runProbes()
	code := http.StatusOK
	if overall == HealthStatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	s.writeJSON(w, code, map[string]interface{}{
		"ready":      overall != HealthStatusUnhealthy,
		"probes":     results,
		"request_id": middleware.GetReqID(r.Context()),
	})
}

func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"alive":      true,
		"uptime":     time.Since(s.startTime).Round(time.Second).String(),
		"request_id": middleware.GetReqID(r.Context()),
	})
}

func readRuntime() RuntimeInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return RuntimeInfo{
		Go:         runtime.Version(),
		Goroutines: runtime.NumGoroutine(),
		CPUs:       runtime.NumCPU(),
		HeapBytes:  m.HeapAlloc,
		GCRuns:     m.NumGC,
	}
}
