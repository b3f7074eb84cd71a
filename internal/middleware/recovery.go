package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/2beens/healthdash/internal/telemetry/metrics"
	"github.com/2beens/healthdash/pkg"

	"github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
)

// PanicRecovery turns a handler panic into a 500 JSON error, reports it to
// sentry (when configured) and counts it.
func PanicRecovery(metricsManager *metrics.Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				recovered := recover()
				if recovered == nil {
					return
				}

				log.WithFields(log.Fields{
					"method": r.Method,
					"path":   r.URL.Path,
				}).Errorf("http: panic serving request: %v\n%s", recovered, debug.Stack())
				sentry.CurrentHub().RecoverWithContext(r.Context(), recovered)

				if metricsManager != nil {
					metricsManager.CounterHandleRequestPanic.Inc()
				}
				pkg.SendApiError(w, http.StatusInternalServerError, nil, "Internal server error", false)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
