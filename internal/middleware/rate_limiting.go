package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"

	"github.com/2beens/healthdash/internal/telemetry/metrics"
	"github.com/2beens/healthdash/pkg"

	"github.com/go-redis/redis_rate/v9"
	log "github.com/sirupsen/logrus"
)

const rateLimitKeyPrefix = "healthdash::rate::"

//go:generate mockgen -source=$GOFILE -destination=rate_limiting_mocks_test.go -package=middleware_test
type RequestRateLimiter interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error)
}

// RateLimits are the per-minute allowances per client and method.
// Methods other than POST share the GET allowance.
type RateLimits struct {
	GetPerMin  int
	PostPerMin int
}

func (l RateLimits) forMethod(method string) redis_rate.Limit {
	if method == http.MethodPost {
		return redis_rate.PerMinute(l.PostPerMin)
	}
	return redis_rate.PerMinute(l.GetPerMin)
}

// RateLimit counts requests per client ip and method in the limiter store.
func RateLimit(rateLimiter RequestRateLimiter, limits RateLimits, metricsManager *metrics.Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isExempt(r) {
				next.ServeHTTP(w, r)
				return
			}

			ip, err := pkg.ReadUserIP(r)
			if err != nil || ip == "" {
				ip = "unknown"
			}
			key := rateLimitKeyPrefix + ip + ":" + r.Method

			res, err := rateLimiter.Allow(r.Context(), key, limits.forMethod(r.Method))
			if err != nil {
				log.Errorf("rate limit check for %s: %s", key, err)
				pkg.SendJsonResponse(w, http.StatusInternalServerError, map[string]string{"error": "rate limit internal error"})
				return
			}

			if res.Allowed > 0 {
				w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
				next.ServeHTTP(w, r)
				return
			}

			if metricsManager != nil {
				metricsManager.CounterRateLimitedRequests.Inc()
			}
			retryAfter := int(math.Ceil(res.RetryAfter.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("X-RateLimit-Remaining", "0")
			log.Debugf("rate limited %s, retry after %ds", key, retryAfter)
			pkg.SendJsonResponse(w, http.StatusTooManyRequests, map[string]string{"error": "Too many requests"})
		})
	}
}
