package middleware

import (
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// bodies larger than this are closed without reading the rest
const maxDrainBytes = 256 << 10

// DrainAndCloseRequest reads what the handler left of the request body, so the
// connection can be reused, and closes it.
func DrainAndCloseRequest() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			if r.Body == nil {
				return
			}
			if _, err := io.Copy(io.Discard, io.LimitReader(r.Body, maxDrainBytes)); err != nil {
				log.Tracef("drain request body %s %s: %s", r.Method, r.URL.Path, err)
			}
			_ = r.Body.Close()
		})
	}
}
