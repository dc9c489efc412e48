// Package cli implements the strata command-line interface.
//
// The CLI loads graph documents, arranges them with the hierarchy engine,
// renders them through Graphviz and serves the same pipeline over HTTP.
// It is built with cobra and logs through charmbracelet/log.
//
// # Commands
//
//   - arrange: compute hierarchical coordinates and write the arranged graph
//   - render: arrange (optionally) and render to DOT, SVG, PDF or PNG
//   - serve: run the HTTP API
//   - cache: inspect and clear the layout cache
//   - config: print the effective configuration
//
// # Configuration
//
// Settings come from a TOML file (--config, or $STRATA_CONFIG) over the
// built-in defaults. Flags given on the command line override both.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context.
package cli

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/strata/pkg/cache"
	"github.com/matzehuels/strata/pkg/config"
	"github.com/matzehuels/strata/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "strata"

	// configEnv names the environment variable holding a config file path.
	configEnv = "STRATA_CONFIG"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config config.Config

	configPath string
	verbose    bool
}

// New creates a new CLI instance with a default logger and configuration.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner backed by the file cache, or no cache
// when noCache is set or caching is disabled in the config.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	ch, err := c.newFileCache(noCache)
	if err != nil {
		return nil, err
	}
	return c.runnerFor(ch), nil
}

// newServerRunner prefers Redis when configured and falls back to the file
// cache if Redis cannot be reached.
func (c *CLI) newServerRunner(ctx context.Context) (*pipeline.Runner, error) {
	cfg := c.Config.Cache
	if cfg.Disabled || cfg.RedisAddr == "" {
		return c.newRunner(false)
	}
	rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	if err != nil {
		c.Logger.Warn("redis unavailable, using file cache", "addr", cfg.RedisAddr, "err", err)
		return c.newRunner(false)
	}
	c.Logger.Info("using redis cache", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
	return c.runnerFor(rc), nil
}

func (c *CLI) newFileCache(noCache bool) (cache.Cache, error) {
	if noCache || c.Config.Cache.Disabled {
		return cache.NewNullCache(), nil
	}
	fc, err := cache.NewFileCache(c.Config.Cache.Dir)
	if err != nil {
		c.Logger.Warn("cache directory unusable, caching disabled", "dir", c.Config.Cache.Dir, "err", err)
		return cache.NewNullCache(), nil
	}
	return fc, nil
}

func (c *CLI) runnerFor(ch cache.Cache) *pipeline.Runner {
	var keyer cache.Keyer
	if p := c.Config.Cache.Prefix; p != "" {
		keyer = cache.NewScopedKeyer(nil, p)
	}
	r := pipeline.NewRunner(ch, keyer, c.Logger)
	r.LayoutTTL = c.Config.Cache.TTL
	r.ArtifactTTL = c.Config.Cache.TTL
	return r
}

// =============================================================================
// Options Helpers
// =============================================================================

// arrangeFlags are the engine flags shared by arrange and render.
type arrangeFlags struct {
	roots        []string
	maintainMean bool
	batchWeights bool
	refresh      bool
	noCache      bool
}

func (f *arrangeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.roots, "root", "r", nil, "root vertex label (repeatable; default: roots in the document)")
	cmd.Flags().BoolVar(&f.maintainMean, "maintain-mean", false, "keep the centroid of all coordinates in place")
	cmd.Flags().BoolVar(&f.batchWeights, "batch-weights", false, "reshape each level once per crossing-reduction sweep (faster, different layouts)")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "ignore cached layouts")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
}

// options merges the config with the flags the user actually set.
func (f *arrangeFlags) options(cmd *cobra.Command, cfg config.Config) pipeline.Options {
	opts := pipeline.Options{
		Roots:        f.roots,
		MaintainMean: cfg.Arrange.MaintainMean,
		BatchWeights: cfg.Arrange.BatchWeights,
		MaxDuration:  cfg.Arrange.MaxDuration,
		PhaseBudget:  cfg.Arrange.PhaseBudget,
		Refresh:      f.refresh,
	}
	if cmd.Flags().Changed("maintain-mean") {
		opts.MaintainMean = f.maintainMean
	}
	if cmd.Flags().Changed("batch-weights") {
		opts.BatchWeights = f.batchWeights
	}
	return opts
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(strings.ToLower(f)); f != "" {
			out = append(out, f)
		}
	}
	return out
}
