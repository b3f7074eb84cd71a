//go:build integration_test || all_tests

package integration_testing

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/2beens/healthdash/internal/syncer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) doRequest(ctx context.Context, method, path string, body io.Reader) *http.Response {
	req, err := http.NewRequestWithContext(ctx, method, serverEndpoint+path, body)
	require.NoError(s.T(), err)
	req.Header.Set("Authorization", "Bearer "+testAPISecret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(s.T(), err)
	return resp
}

func (s *IntegrationTestSuite) decode(resp *http.Response, target any) {
	defer func() {
		_ = resp.Body.Close()
	}()
	require.NoError(s.T(), json.NewDecoder(resp.Body).Decode(target))
}

func (s *IntegrationTestSuite) TestSync_MergesPlanIntoActivity() {
	t := s.T()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp := s.doRequest(ctx, http.MethodPost, "/sync", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var syncResp syncer.SyncResponse
	s.decode(resp, &syncResp)
	assert.True(t, syncResp.Success)
	// activity + merged plan + next week's plan
	assert.Equal(t, 3, syncResp.Synced.Workouts)
	assert.Equal(t, 1, syncResp.Synced.FitnessMetrics)
	assert.Equal(t, 6, syncResp.Synced.PowerPBs)

	resp = s.doRequest(ctx, http.MethodGet, "/sync", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var dashboard syncer.Dashboard
	s.decode(resp, &dashboard)

	require.Len(t, dashboard.Workouts, 1)
	merged := dashboard.Workouts[0]
	assert.Equal(t, "i9001", merged.ExternalID)
	assert.True(t, merged.IsCompleted)
	assert.Equal(t, "Zwift - Watopia", merged.Title)
	require.NotNil(t, merged.PlannedTitle)
	assert.Equal(t, "Sweet Spot 3x12", *merged.PlannedTitle)
	require.NotNil(t, merged.PlannedDuration)
	assert.Equal(t, 60, *merged.PlannedDuration)
	require.NotNil(t, merged.CoachNotes)
	assert.Equal(t, "stay seated", *merged.CoachNotes)
	require.NotNil(t, merged.Distance)
	assert.Equal(t, 35.25, *merged.Distance)
	require.NotNil(t, merged.AverageHR)
	assert.Equal(t, 142, *merged.AverageHR)

	require.Len(t, dashboard.NextWeekWorkouts, 1)
	assert.Equal(t, "event-502", dashboard.NextWeekWorkouts[0].ExternalID)
	assert.False(t, dashboard.NextWeekWorkouts[0].IsCompleted)

	require.Len(t, dashboard.FitnessMetrics, 1)
	assert.Equal(t, 61.4, dashboard.FitnessMetrics[0].CTL)
	assert.Equal(t, -8.8, dashboard.FitnessMetrics[0].TSB)

	require.Len(t, dashboard.PowerPBs, 6)
	assert.Equal(t, 5, dashboard.PowerPBs[0].Duration)
	assert.Equal(t, 902.0, dashboard.PowerPBs[0].Power)
	assert.Nil(t, dashboard.PowerPBs[0].PreviousPower)

	var plannedRows int
	require.NoError(t, s.DB.QueryRowContext(ctx,
		`SELECT count(*) FROM workout WHERE external_id = 'event-501'`,
	).Scan(&plannedRows))
	assert.Zero(t, plannedRows)

	// a second pass writes the same rows again
	resp = s.doRequest(ctx, http.MethodPost, "/sync", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	var workoutRows int
	require.NoError(t, s.DB.QueryRowContext(ctx, `SELECT count(*) FROM workout`).Scan(&workoutRows))
	assert.Equal(t, 2, workoutRows)

	var previousPower *float64
	require.NoError(t, s.DB.QueryRowContext(ctx,
		`SELECT previous_power FROM power_pb WHERE duration = 5`,
	).Scan(&previousPower))
	assert.Nil(t, previousPower)
}

func (s *IntegrationTestSuite) TestSync_FailedFeedDoesNotFailPass() {
	t := s.T()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.upstream.setFailingFeed("power-curves")
	defer s.upstream.setFailingFeed("")

	resp := s.doRequest(ctx, http.MethodPost, "/sync", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var syncResp syncer.SyncResponse
	s.decode(resp, &syncResp)
	assert.True(t, syncResp.Success)
	assert.Zero(t, syncResp.Synced.PowerPBs)
	assert.Equal(t, 1, syncResp.Synced.FitnessMetrics)
}

func (s *IntegrationTestSuite) TestFitnessTrend() {
	t := s.T()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp := s.doRequest(ctx, http.MethodPost, "/sync", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = s.doRequest(ctx, http.MethodGet, "/fitness-trend?days=7", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var trend syncer.FitnessTrendResponse
	s.decode(resp, &trend)
	require.NotEmpty(t, trend.Metrics)
	assert.Equal(t, 70.2, trend.Metrics[len(trend.Metrics)-1].ATL)

	resp = s.doRequest(ctx, http.MethodGet, "/fitness-trend?days=8", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}

func (s *IntegrationTestSuite) TestUnauthorized() {
	t := s.T()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, serverEndpoint+"/sync", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer wrong")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
