package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server with sane defaults for this project. Write
// timeout leaves room for one registry call at its own timeout.
func New(addr string, handler http.Handler, registryTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      registryTimeout + 15*time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
