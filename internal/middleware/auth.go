package middleware

import (
	"crypto/subtle"
	"net/http"
	"net/url"
	"strings"

	"github.com/2beens/healthdash/internal/telemetry/tracing"
	"github.com/2beens/healthdash/pkg"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

const bearerPrefix = "Bearer "

type AuthMiddlewareHandler struct {
	apiSecretKey string
}

func NewAuthMiddlewareHandler(apiSecretKey string) *AuthMiddlewareHandler {
	if apiSecretKey == "" {
		log.Error("API_SECRET_KEY not set, only same-origin requests will pass auth")
	}
	return &AuthMiddlewareHandler{
		apiSecretKey: apiSecretKey,
	}
}

// AuthCheck lets through requests carrying the API key as a bearer token and
// browser requests coming from the dashboard served on the same host.
func (h *AuthMiddlewareHandler) AuthCheck() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, span := tracing.GlobalTracer.Start(r.Context(), "middleware.auth")

			if isExempt(r) {
				span.SetStatus(codes.Ok, "exempt")
				span.End()
				next.ServeHTTP(w, r)
				return
			}

			if !IsSameOrigin(r) && !h.validAPIKey(r) {
				log.Tracef("[auth middleware] unauthorized => %s %s", r.Method, r.URL.Path)
				span.SetStatus(codes.Error, "unauthorized")
				span.End()
				pkg.SendJsonResponse(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
				return
			}

			span.SetStatus(codes.Ok, "ok")
			span.End()
			next.ServeHTTP(w, r)
		})
	}
}

func (h *AuthMiddlewareHandler) validAPIKey(r *http.Request) bool {
	if h.apiSecretKey == "" {
		return false
	}
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return false
	}
	token := strings.TrimPrefix(authHeader, bearerPrefix)
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.apiSecretKey)) == 1
}

// IsSameOrigin reports whether the Origin header, or else the Referer's origin,
// points at the host the request was sent to. Requests with neither are not
// same-origin.
func IsSameOrigin(r *http.Request) bool {
	host := r.Host
	if host == "" {
		return false
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		origin = r.Header.Get("Referer")
	}
	if origin == "" {
		return false
	}

	originURL, err := url.Parse(origin)
	if err != nil || originURL.Host == "" {
		return false
	}
	return originURL.Host == host
}
