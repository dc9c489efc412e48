package cli

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/matzehuels/strata/pkg/observability"
	"github.com/matzehuels/strata/pkg/observability/prom"
	"github.com/matzehuels/strata/pkg/pipeline"
	"github.com/matzehuels/strata/pkg/server"
)

// serveCommand runs the HTTP API until the command context is cancelled.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		metrics bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the arrange and render API over HTTP",
		Long: `Serve the arrange and render API over HTTP.

Endpoints:
  POST /v1/arrange   arrange a graph document, respond with JSON
  POST /v1/render    arrange and render a graph document
  GET  /healthz      liveness check
  GET  /metrics      Prometheus metrics (with --metrics)

Layouts are cached in redis when cache.redis_addr is configured, otherwise in
the cache directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			cfg := c.Config

			if !cmd.Flags().Changed("addr") {
				addr = cfg.Server.Addr
			}

			var metricsHandler http.Handler
			if metrics {
				m := prom.New(prometheus.DefaultRegisterer)
				observability.SetPipelineHooks(m)
				observability.SetCacheHooks(m)
				observability.SetHTTPHooks(m)
				metricsHandler = prom.Handler(prometheus.DefaultGatherer)
			}

			runner, err := c.newServerRunner(ctx)
			if err != nil {
				return err
			}
			defer runner.Close()

			srv := server.New(runner, server.Options{
				Addr:           addr,
				RequestTimeout: cfg.Server.RequestTimeout,
				MaxBodyBytes:   cfg.Server.MaxBodyBytes,
				Metrics:        metricsHandler,
				Arrange: pipeline.Options{
					MaintainMean: cfg.Arrange.MaintainMean,
					BatchWeights: cfg.Arrange.BatchWeights,
					MaxDuration:  cfg.Arrange.MaxDuration,
					PhaseBudget:  cfg.Arrange.PhaseBudget,
				},
				Logger: logger,
			})

			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "expose Prometheus metrics at /metrics")

	return cmd
}
