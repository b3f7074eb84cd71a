package steps

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/2beens/healthdash/internal/telemetry/metrics"
	"github.com/2beens/healthdash/internal/telemetry/tracing"
	"github.com/2beens/healthdash/internal/training"
	"github.com/2beens/healthdash/pkg"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const (
	listDays            = 30
	maxBodyBytes        = 1 << 20
	invalidEntryMessage = "Each entry requires 'date' and 'steps'"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=steps_test
type stepsRepo interface {
	Upsert(ctx context.Context, count StepCount) error
	ListSince(ctx context.Context, since time.Time) ([]StepCount, error)
}

type UpsertResponse struct {
	Success  bool `json:"success"`
	Upserted int  `json:"upserted"`
}

type ListResponse struct {
	Steps []StepCount `json:"steps"`
}

type Handler struct {
	repo           stepsRepo
	metricsManager *metrics.Manager
	development    bool
	now            func() time.Time
}

func NewHandler(repo stepsRepo, metricsManager *metrics.Manager, development bool) *Handler {
	return &Handler{
		repo:           repo,
		metricsManager: metricsManager,
		development:    development,
		now:            time.Now,
	}
}

// the mobile client posts from outside any browser origin
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
}

func (handler *Handler) HandleOptions(w http.ResponseWriter, _ *http.Request) {
	setCORSHeaders(w)
	w.WriteHeader(http.StatusNoContent)
}

func (handler *Handler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.steps.upsert")
	defer span.End()

	setCORSHeaders(w)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		log.Errorf("read steps body: %s", err)
		pkg.SendApiError(w, http.StatusBadRequest, err, invalidEntryMessage, handler.development)
		return
	}

	counts, err := ParseEntries(body)
	if err != nil {
		log.Debugf("invalid steps payload: %s", err)
		pkg.SendApiError(w, http.StatusBadRequest, nil, invalidEntryMessage, handler.development)
		return
	}
	span.SetAttributes(attribute.Int("entries", len(counts)))

	upserted := 0
	for _, count := range counts {
		if err := handler.repo.Upsert(ctx, count); err != nil {
			log.Errorf("save steps for %s: %s", count.Date.Format(training.DateLayout), err)
			pkg.SendApiError(w, http.StatusInternalServerError, err, "Failed to save steps", handler.development)
			return
		}
		upserted++
		handler.metricsManager.CounterStepsUpserted.Inc()
	}

	log.Debugf("upserted %d step counts", upserted)
	pkg.SendJsonResponse(w, http.StatusOK, UpsertResponse{
		Success:  true,
		Upserted: upserted,
	})
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.steps.list")
	defer span.End()

	setCORSHeaders(w)

	since := training.Today(handler.now(), time.UTC).AddDate(0, 0, -listDays)
	counts, err := handler.repo.ListSince(ctx, since)
	if err != nil {
		log.Errorf("list steps since %s: %s", since.Format(training.DateLayout), err)
		pkg.SendApiError(w, http.StatusInternalServerError, err, "Failed to load step data", handler.development)
		return
	}

	pkg.SendJsonResponse(w, http.StatusOK, ListResponse{Steps: counts})
}
