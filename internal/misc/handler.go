package misc

import (
	"net/http"
	"time"

	"github.com/2beens/healthdash/internal/telemetry/tracing"
	"github.com/2beens/healthdash/pkg"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/attribute"
)

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

type Handler struct {
	versionInfo string
	now         func() time.Time
}

func NewHandler(versionInfo string) *Handler {
	return &Handler{
		versionInfo: versionInfo,
		now:         time.Now,
	}
}

func (handler *Handler) SetupRoutes(mainRouter *mux.Router) {
	mainRouter.HandleFunc("/health", handler.HandleHealth).Methods("GET").Name("health")
	mainRouter.HandleFunc("/version", handler.HandleVersion).Methods("GET").Name("version")
}

func (handler *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "miscHandler.health")
	defer span.End()

	ts := handler.now().UTC().Format(time.RFC3339)
	span.SetAttributes(attribute.String("health.timestamp", ts))

	pkg.SendJsonResponse(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: ts,
	})
}

func (handler *Handler) HandleVersion(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, handler.versionInfo)
}
