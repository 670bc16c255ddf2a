package httpserver

import (
	"net/http"
	"time"
)

const (
	defaultRequestTimeout = 30 * time.Second
	writeSlack            = 15 * time.Second
)

// New builds an HTTP server for the operator API. The write timeout stays
// above requestTimeout so a request that finishes inside its budget can
// still send its response.
func New(addr string, handler http.Handler, requestTimeout time.Duration) *http.Server {
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      requestTimeout + writeSlack,
		IdleTimeout:       90 * time.Second,
	}
}
