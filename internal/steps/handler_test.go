package steps_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/2beens/healthdash/internal/steps"
	"github.com/2beens/healthdash/internal/telemetry/metrics"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type fakeEntry struct {
	Date  string `json:"date"`
	Steps int    `json:"steps"`
}

func fakeBatch(t *testing.T, n int) []fakeEntry {
	t.Helper()
	faker := gofakeit.New(42)
	first := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	entries := make([]fakeEntry, n)
	for i := range entries {
		entries[i] = fakeEntry{
			Date:  first.AddDate(0, 0, i).Format(time.DateOnly),
			Steps: faker.Number(0, 30000),
		}
	}
	return entries
}

func assertCORS(t *testing.T, rr *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, OPTIONS", rr.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type, Authorization", rr.Header().Get("Access-Control-Allow-Headers"))
}

func TestHandler_HandleUpsert_Batch(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := NewMockstepsRepo(ctrl)
	metricsManager := metrics.NewTestManager()
	handler := steps.NewHandler(repo, metricsManager, false)

	batch := fakeBatch(t, 14)
	body, err := json.Marshal(batch)
	require.NoError(t, err)

	stored := map[string]steps.StepCount{}
	repo.EXPECT().
		Upsert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, count steps.StepCount) error {
			stored[count.Date.Format(time.DateOnly)] = count
			return nil
		}).
		Times(2 * len(batch))

	// re-submitting the same batch leaves the same state behind
	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		handler.HandleUpsert(rr, httptest.NewRequest(http.MethodPost, "/steps", bytes.NewReader(body)))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"success":true,"upserted":14}`, rr.Body.String())
		assertCORS(t, rr)
	}

	require.Len(t, stored, len(batch))
	for _, entry := range batch {
		assert.Equal(t, entry.Steps, stored[entry.Date].Steps)
		assert.Equal(t, steps.DefaultSource, stored[entry.Date].Source)
	}
	assert.Equal(t, 28.0, testutil.ToFloat64(metricsManager.CounterStepsUpserted))
}

func TestHandler_HandleUpsert_SingleObject(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := NewMockstepsRepo(ctrl)
	handler := steps.NewHandler(repo, metrics.NewTestManager(), false)

	repo.EXPECT().Upsert(gomock.Any(), steps.StepCount{
		Date:   time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC),
		Steps:  8123,
		Source: "watch",
	}).Return(nil)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/steps", bytes.NewBufferString(`{"date":"2025-03-12","steps":8123,"source":"watch"}`))
	handler.HandleUpsert(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true,"upserted":1}`, rr.Body.String())
}

func TestHandler_HandleUpsert_InvalidWritesNothing(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := NewMockstepsRepo(ctrl)
	handler := steps.NewHandler(repo, metrics.NewTestManager(), false)

	// no Upsert expectation: any call fails the test
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/steps", bytes.NewBufferString(`[{"date":"2025-03-12","steps":100},{"date":"2025-03-13"}]`))
	handler.HandleUpsert(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"success":false,"error":"Each entry requires 'date' and 'steps'"}`, rr.Body.String())
	assertCORS(t, rr)
}

func TestHandler_HandleUpsert_RepoError(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := NewMockstepsRepo(ctrl)
	handler := steps.NewHandler(repo, metrics.NewTestManager(), false)

	repo.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(errors.New("db down"))

	rr := httptest.NewRecorder()
	handler.HandleUpsert(rr, httptest.NewRequest(http.MethodPost, "/steps", bytes.NewBufferString(`{"date":"2025-03-12","steps":1}`)))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"success":false,"error":"Failed to save steps"}`, rr.Body.String())
}

func TestHandler_HandleList(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := NewMockstepsRepo(ctrl)
	handler := steps.NewHandler(repo, metrics.NewTestManager(), false)

	since := time.Now().UTC().AddDate(0, 0, -30)
	repo.EXPECT().
		ListSince(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, from time.Time) ([]steps.StepCount, error) {
			assert.Equal(t, since.Format(time.DateOnly), from.Format(time.DateOnly))
			return []steps.StepCount{
				{Date: time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC), Steps: 9000, Source: "healthkit"},
				{Date: time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), Steps: 7000, Source: "healthkit"},
			}, nil
		})

	rr := httptest.NewRecorder()
	handler.HandleList(rr, httptest.NewRequest(http.MethodGet, "/steps", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assertCORS(t, rr)

	var resp steps.ListResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Steps, 2)
	assert.Equal(t, 9000, resp.Steps[0].Steps)
}

func TestHandler_HandleList_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := NewMockstepsRepo(ctrl)
	handler := steps.NewHandler(repo, metrics.NewTestManager(), false)

	repo.EXPECT().ListSince(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))

	rr := httptest.NewRecorder()
	handler.HandleList(rr, httptest.NewRequest(http.MethodGet, "/steps", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"success":false,"error":"Failed to load step data"}`, rr.Body.String())
}

func TestHandler_HandleOptions(t *testing.T) {
	handler := steps.NewHandler(nil, metrics.NewTestManager(), false)

	rr := httptest.NewRecorder()
	handler.HandleOptions(rr, httptest.NewRequest(http.MethodOptions, "/steps", nil))

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())
	assertCORS(t, rr)
}
