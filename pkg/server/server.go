// Package server exposes the arrange and render pipeline over HTTP.
//
// # Endpoints
//
//	POST /v1/arrange   graph document in, arranged graph document out
//	POST /v1/render    graph document in, rendered artifact out
//	GET  /healthz      liveness check
//	GET  /metrics      Prometheus metrics, when a metrics handler is set
//
// Both POST endpoints take the graph document of package [io] as the
// request body. Options are query parameters:
//
//	roots=a,b          override the document's roots
//	maintain_mean=1    keep the centroid of all coordinates
//	batch_weights=1    use batched crossing-reduction weights
//	refresh=1          ignore cached layouts
//	format=svg         render only: dot, svg, pdf or png (default svg)
//	labels=1           render only: draw vertex labels
//	scale=4            render only: points per engine unit
//
// /v1/render arranges the graph first unless arrange=0 is given, in which
// case the coordinates in the request are rendered as they are.
//
// Every response carries an X-Request-ID header. Errors are JSON bodies of
// the form {"error": "...", "code": "INVALID_GRAPH", "request_id": "..."}
// with the status from [errors.HTTPStatus].
//
// [io]: github.com/matzehuels/strata/pkg/io
// [errors.HTTPStatus]: github.com/matzehuels/strata/pkg/errors
package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/strata/pkg/pipeline"
)

// Defaults for zero Options fields.
const (
	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxBodyBytes   = 16 << 20
	shutdownTimeout       = 10 * time.Second
)

// Options configures a Server.
type Options struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string
	// RequestTimeout bounds each request, arrangement included.
	RequestTimeout time.Duration
	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64
	// Metrics serves GET /metrics when set.
	Metrics http.Handler
	// Arrange holds defaults merged into every request's options.
	Arrange pipeline.Options
	// Logger receives request logs. Defaults to a discarding logger.
	Logger *log.Logger
}

// Server serves the HTTP API.
type Server struct {
	runner *pipeline.Runner
	opts   Options
	logger *log.Logger
	router chi.Router
}

// New builds a server around runner.
func New(runner *pipeline.Runner, opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	s := &Server{runner: runner, opts: opts, logger: opts.Logger}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.opts.Metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.limits)
		r.Post("/arrange", s.handleArrange)
		r.Post("/render", s.handleRender)
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.opts.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
