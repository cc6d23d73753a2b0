package server

import (
	"net/http"

	"github.com/charmbracelet/log"
)

// RequestLogger logs each request the loopback server receives. Query
// parameters are deliberately omitted: the authorization code and state must
// not land in logs.
func RequestLogger(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Debug("callback server request", "method", r.Method, "path", r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}
}
