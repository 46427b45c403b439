package metrics

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPServer exposes a Prometheus registry over a "/metrics"-style HTTP
// endpoint. It implements the Server interface.
type HTTPServer struct {
	addr   string
	path   string
	srv    *http.Server
	gather prometheus.Gatherer
}

// NewPrometheusServer builds an HTTPServer serving the default
// Prometheus registry at addr/path.
func NewPrometheusServer(addr, path string) *HTTPServer {
	return &HTTPServer{addr: addr, path: path, gather: prometheus.DefaultGatherer}
}

// Start begins serving metrics and blocks until ctx is cancelled or
// the listener fails.
func (s *HTTPServer) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle(s.path, promhttp.HandlerFor(s.gather, promhttp.HandlerOpts{}))

	s.srv = &http.Server{Addr: s.addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Shutdown gracefully stops the metrics server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
