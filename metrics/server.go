package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const readHeaderTimeout = 5 * time.Second

// Server exposes /metrics over HTTP for the duration of a migration
// run. Long-lived applications embedding the orchestrator should skip
// this and mount promhttp.Handler on their existing server instead;
// this exists for the CLI, whose process has no other HTTP surface.
type Server struct {
	server  *http.Server
	errChan chan error
}

// NewServer creates a metrics server listening on addr, for example
// ":9090". The server is not started until Start is called.
func NewServer(addr string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: readHeaderTimeout,
		},
		errChan: make(chan error, 1),
	}
}

// Start begins serving in a goroutine and returns immediately.
// A failed bind surfaces through Err, not Start; migration runs must
// not be blocked on metrics availability.
func (s *Server) Start() {
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.errChan <- err
		}
	}()
}

// Err reports any serve error so far without blocking. Nil means the
// server is either still running or was shut down cleanly.
func (s *Server) Err() error {
	select {
	case err := <-s.errChan:
		return err
	default:
		return nil
	}
}

// Shutdown gracefully stops the server, letting an in-flight scrape
// finish within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
