package middleware

import "net/http"

// paths served without auth and rate limiting
var openPaths = map[string]bool{
	"/health":  true,
	"/version": true,
}

func isExempt(r *http.Request) bool {
	return r.Method == http.MethodOptions || openPaths[r.URL.Path]
}
