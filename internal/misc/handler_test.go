package misc

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func setupRouter(handler *Handler) *mux.Router {
	r := mux.NewRouter()
	handler.SetupRoutes(r)
	return r
}

func TestHandler_HandleHealth(t *testing.T) {
	handler := NewHandler("v1.2.3")
	handler.now = func() time.Time {
		return time.Date(2025, 3, 12, 11, 30, 0, 0, time.FixedZone("CET", 3600))
	}
	r := setupRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "2025-03-12T10:30:00Z", resp.Timestamp)
}

func TestHandler_HandleVersion(t *testing.T) {
	r := setupRouter(NewHandler("v1.2.3 (abc123)"))

	req := httptest.NewRequest(http.MethodGet, "/version", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "v1.2.3 (abc123)", rr.Body.String())
}

func TestHandler_HealthWrongMethod(t *testing.T) {
	r := setupRouter(NewHandler(""))

	req := httptest.NewRequest(http.MethodPost, "/health", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
