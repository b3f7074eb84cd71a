package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/2beens/healthdash/internal/telemetry/tracing"
	"github.com/2beens/healthdash/internal/training"
	"github.com/2beens/healthdash/pkg"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

const (
	defaultTrendDays     = 90
	trendCacheExpireSecs = 5 * 60
	trendCacheSize       = 4 * 1024 * 1024
)

// AllowedTrendDays are the only ranges the trend chart may ask for.
var AllowedTrendDays = []int{7, 30, 42, 90, 180, 365}

var invalidDaysMessage = fmt.Sprintf("Invalid days parameter. Allowed values: %s", joinInts(AllowedTrendDays, ", "))

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=syncer_test
type syncService interface {
	Sync(ctx context.Context) (Summary, error)
	Dashboard(ctx context.Context) (*Dashboard, error)
	FitnessTrend(ctx context.Context, days int) ([]training.FitnessMetric, error)
}

type SyncResponse struct {
	Success bool    `json:"success"`
	Synced  Summary `json:"synced"`
}

type FitnessTrendResponse struct {
	Metrics []training.FitnessMetric `json:"metrics"`
}

type Handler struct {
	service     syncService
	trendCache  *freecache.Cache
	development bool
}

func NewHandler(service syncService, development bool) *Handler {
	return &Handler{
		service:     service,
		trendCache:  freecache.NewCache(trendCacheSize),
		development: development,
	}
}

func (handler *Handler) HandleSync(w http.ResponseWriter, r *http.Request) {
	summary, err := handler.service.Sync(r.Context())
	if errors.Is(err, ErrSyncInProgress) {
		log.Debugf("sync requested while another one is running")
		pkg.SendApiError(w, http.StatusConflict, err, "Sync already in progress", handler.development)
		return
	}
	if err != nil {
		log.Errorf("sync failed: %s", err)
		pkg.SendApiError(w, http.StatusInternalServerError, err, "Sync failed", handler.development)
		return
	}

	// stored metrics changed, cached trends are stale
	handler.trendCache.Clear()

	pkg.SendJsonResponse(w, http.StatusOK, SyncResponse{
		Success: true,
		Synced:  summary,
	})
}

func (handler *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := handler.service.Dashboard(r.Context())
	if err != nil {
		log.Errorf("load dashboard: %s", err)
		pkg.SendApiError(w, http.StatusInternalServerError, err, "Failed to load dashboard data", handler.development)
		return
	}
	pkg.SendJsonResponse(w, http.StatusOK, dashboard)
}

func (handler *Handler) HandleFitnessTrend(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.syncer.fitnessTrend")
	defer span.End()

	days, ok := parseTrendDays(r.URL.Query().Get("days"))
	if !ok {
		pkg.SendApiError(w, http.StatusBadRequest, nil, invalidDaysMessage, handler.development)
		return
	}

	cacheKey := []byte(fmt.Sprintf("trend::%d", days))
	if cached, err := handler.trendCache.Get(cacheKey); err == nil {
		log.Tracef("fitness trend for %d days served from cache", days)
		pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, cached)
		return
	}

	metrics, err := handler.service.FitnessTrend(ctx, days)
	if err != nil {
		log.Errorf("load fitness trend for %d days: %s", days, err)
		pkg.SendApiError(w, http.StatusInternalServerError, err, "Failed to load fitness trend data", handler.development)
		return
	}

	respBytes, err := json.Marshal(FitnessTrendResponse{Metrics: metrics})
	if err != nil {
		log.Errorf("marshal fitness trend: %s", err)
		pkg.SendApiError(w, http.StatusInternalServerError, err, "Failed to load fitness trend data", handler.development)
		return
	}

	if err := handler.trendCache.Set(cacheKey, respBytes, trendCacheExpireSecs); err != nil {
		log.Errorf("cache fitness trend for %d days: %s", days, err)
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respBytes)
}

// parseTrendDays accepts an empty value (the default) or one of AllowedTrendDays.
func parseTrendDays(raw string) (int, bool) {
	if raw == "" {
		return defaultTrendDays, true
	}
	days, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	for _, allowed := range AllowedTrendDays {
		if days == allowed {
			return days, true
		}
	}
	return 0, false
}

func joinInts(values []int, sep string) string {
	var s string
	for i, v := range values {
		if i > 0 {
			s += sep
		}
		s += strconv.Itoa(v)
	}
	return s
}
