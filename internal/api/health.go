package api

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/gorilla/mux"

	"wordarena/internal/stats"
)

// HealthHandler serves liveness/readiness information for the process.
type HealthHandler struct {
	statsRepo stats.Repository
	startTime time.Time
}

// NewHealthHandler returns a HealthHandler checking statsRepo as its one
// external dependency.
func NewHealthHandler(statsRepo stats.Repository) *HealthHandler {
	return &HealthHandler{statsRepo: statsRepo, startTime: time.Now()}
}

// HealthStatus is the overall health verdict.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

type HealthResponse struct {
	Status     HealthStatus     `json:"status"`
	Timestamp  time.Time        `json:"timestamp"`
	Uptime     string           `json:"uptime"`
	Goroutines int              `json:"goroutines"`
	Stats      DependencyHealth `json:"stats_repository"`
}

type DependencyHealth struct {
	Status       HealthStatus `json:"status"`
	Message      string       `json:"message,omitempty"`
	ResponseTime string       `json:"response_time,omitempty"`
}

// HealthCheck handles GET /health.
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	statsHealth := h.checkStatsRepo(r.Context())
	status := HealthStatusHealthy
	statusCode := http.StatusOK
	if statsHealth.Status == HealthStatusUnhealthy {
		status = HealthStatusUnhealthy
		statusCode = http.StatusServiceUnavailable
	}

	resp := HealthResponse{
		Status:     status,
		Timestamp:  time.Now(),
		Uptime:     time.Since(h.startTime).String(),
		Goroutines: runtime.NumGoroutine(),
		Stats:      statsHealth,
	}

	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)
}

func (h *HealthHandler) checkStatsRepo(ctx context.Context) DependencyHealth {
	start := time.Now()
	// GetLeaderboard with a limit of 1 is a cheap way to exercise the
	// underlying store without mutating anything.
	_, err := h.statsRepo.GetLeaderboard(ctx, 1)
	elapsed := time.Since(start)
	if err != nil {
		return DependencyHealth{Status: HealthStatusUnhealthy, Message: err.Error(), ResponseTime: elapsed.String()}
	}
	return DependencyHealth{Status: HealthStatusHealthy, ResponseTime: elapsed.String()}
}

// RegisterRoutes binds health endpoints to router.
func (h *HealthHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
}
