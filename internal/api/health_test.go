package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wordarena/internal/stats"
)

func TestHealthCheck_HealthyWithWorkingStatsRepo(t *testing.T) {
	repo := stats.NewInMemory()
	h := NewHealthHandler(repo)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.HealthCheck(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, HealthStatusHealthy, resp.Status)
	assert.Equal(t, HealthStatusHealthy, resp.Stats.Status)
}

// failingStatsRepo embeds stats.Repository and overrides only
// GetLeaderboard, the one call HealthCheck exercises.
type failingStatsRepo struct {
	stats.Repository
}

func (failingStatsRepo) GetLeaderboard(_ context.Context, _ int) ([]stats.LeaderboardEntry, error) {
	return nil, errors.New("connection refused")
}

func TestHealthCheck_UnhealthyWhenStatsRepoFails(t *testing.T) {
	h := NewHealthHandler(failingStatsRepo{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.HealthCheck(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, HealthStatusUnhealthy, resp.Status)
}
