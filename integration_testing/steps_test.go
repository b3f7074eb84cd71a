//go:build integration_test || all_tests

package integration_testing

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/2beens/healthdash/internal/steps"
	"github.com/2beens/healthdash/internal/training"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) TestSteps_UpsertAndList() {
	t := s.T()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	today := training.Today(time.Now(), time.UTC)
	yesterday := today.AddDate(0, 0, -1).Format(training.DateLayout)
	old := today.AddDate(0, 0, -45).Format(training.DateLayout)

	body := `[{"date":"` + yesterday + `","steps":9120},{"date":"` + old + `","steps":4000,"source":"manual"}]`
	resp := s.doRequest(ctx, http.MethodPost, "/steps", strings.NewReader(body))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var upsertResp steps.UpsertResponse
	s.decode(resp, &upsertResp)
	assert.True(t, upsertResp.Success)
	assert.Equal(t, 2, upsertResp.Upserted)

	// same day again overwrites
	resp = s.doRequest(ctx, http.MethodPost, "/steps", strings.NewReader(`{"date":"`+yesterday+`","steps":10001}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = s.doRequest(ctx, http.MethodGet, "/steps", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var listResp steps.ListResponse
	s.decode(resp, &listResp)
	require.Len(t, listResp.Steps, 1)
	assert.Equal(t, 10001, listResp.Steps[0].Steps)
	assert.Equal(t, steps.DefaultSource, listResp.Steps[0].Source)

	resp = s.doRequest(ctx, http.MethodPost, "/steps", strings.NewReader(`{"steps":12}`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}

func (s *IntegrationTestSuite) TestSteps_Preflight() {
	t := s.T()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodOptions, serverEndpoint+"/steps", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
