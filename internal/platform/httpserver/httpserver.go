package httpserver

import (
	"net/http"
	"time"
)

// New builds the HTTP server. WriteTimeout stays unset because the event
// stream endpoint holds its response open; per-request deadlines are
// applied by router middleware instead.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
