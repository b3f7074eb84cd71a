package middleware

import (
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
)

// paths any origin may call; their handlers answer with a wildcard origin
var openCorsPrefixes = []string{
	"/steps",
	"/health",
}

// Cors lets through requests without an Origin (mobile app, curl), same-origin
// requests and the configured dashboard origins. Any other cross-origin call is
// refused unless it targets an open path.
func Cors(allowedOrigins []string) func(next http.Handler) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[strings.TrimSuffix(o, "/")] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			switch {
			case origin == "", IsSameOrigin(r):
				next.ServeHTTP(w, r)
			case allowed[origin]:
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Authorization")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Add("Vary", "Origin")
				next.ServeHTTP(w, r)
			case hasOpenCorsPrefix(r.URL.Path):
				next.ServeHTTP(w, r)
			default:
				log.Warnf("CORS: origin not allowed for path [%s] and origin [%s]", r.URL.Path, origin)
				w.WriteHeader(http.StatusForbidden)
			}
		})
	}
}

func hasOpenCorsPrefix(path string) bool {
	for _, prefix := range openCorsPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
