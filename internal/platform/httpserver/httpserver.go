package httpserver

import (
	"net/http"
	"time"

	"tallysync/internal/platform/config"
)

// New builds the API server. The write deadline leaves room for the request
// timeout middleware to answer 503 before the connection is cut.
func New(cfg config.Server, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 15*time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
