package hierarchy

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/strata/pkg/graph"
)

// minVertices is the smallest graph the engine will touch.
const minVertices = 3

// Options configures an Arranger. The zero value is valid.
type Options struct {
	// MaintainMean translates the final layout so the centroid of all vertex
	// coordinates matches the centroid before the call.
	MaintainMean bool

	// BatchWeights recomputes all weights of a level before reshaping it
	// once, instead of reshaping after every single weight update. Layouts
	// differ from the default path; use it only where speed matters more
	// than matching earlier output.
	BatchWeights bool

	// Clock drives the refinement budget. Defaults to SystemClock.
	Clock Clock

	// Logger receives per-phase debug output. Defaults to a discarding logger.
	Logger *log.Logger

	// MaxDuration is the global refinement deadline. Defaults to 15s.
	MaxDuration time.Duration

	// PhaseBudget is the time budget of one refinement iteration. Defaults to 3s.
	PhaseBudget time.Duration
}

// Stats summarises one Arrange call.
type Stats struct {
	MaxLevel          int
	Reached           int
	SyntheticRoot     bool
	ReducerIterations int
	CrossingsBefore   int
	CrossingsAfter    int
	Rows              int
	PassesBudgeted    int
	Passes            int
	AlignSwaps        int
	MinimiseSwaps     int
	DeadlineExceeded  bool
	Duration          time.Duration
}

// Arranger computes hierarchical layouts. An Arranger holds no per-call
// state and may be reused, but a single graph must not be arranged
// concurrently.
type Arranger struct {
	opts Options
}

// New returns an Arranger with defaults filled in.
func New(opts Options) *Arranger {
	if opts.Clock == nil {
		opts.Clock = SystemClock()
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if opts.MaxDuration <= 0 {
		opts.MaxDuration = DefaultMaxDuration
	}
	if opts.PhaseBudget <= 0 {
		opts.PhaseBudget = DefaultPhaseBudget
	}
	return &Arranger{opts: opts}
}

// Options returns the effective options, defaults included.
func (a *Arranger) Options() Options { return a.opts }

// Arrange writes hierarchical coordinates into g for every vertex reachable
// from roots.
//
// Graphs with fewer than three vertices and calls with no roots are left
// untouched. Roots missing from g are ignored; if none exist the first
// vertex of g stands in. Vertices no root reaches keep their coordinates
// unless MaintainMean translates the whole graph.
//
// On cancellation Arrange returns ctx.Err() together with the stats gathered
// so far. Coordinates already written stay in place and mean preservation is
// not applied.
func (a *Arranger) Arrange(ctx context.Context, g graph.View, roots []graph.VertexID) (Stats, error) {
	var stats Stats
	if g.VertexCount() < minVertices || len(roots) == 0 {
		return stats, nil
	}
	if err := ctx.Err(); err != nil {
		return stats, err
	}

	logger := a.opts.Logger
	start := a.opts.Clock.Now()

	var mean Mean
	if a.opts.MaintainMean {
		mean = CaptureMean(g)
	}

	levels := AssignLevels(g, roots)
	stats.MaxLevel = levels.Max()
	stats.Reached = levels.Reached()
	stats.SyntheticRoot = levels.Synthetic
	logger.Debug("assigned levels",
		"reached", stats.Reached,
		"vertices", g.VertexCount(),
		"max_level", stats.MaxLevel,
		"synthetic_root", stats.SyntheticRoot)

	buckets := levels.Buckets(g)
	stats.CrossingsBefore = CountCrossings(g, buckets)
	iters, err := ReduceCrossings(ctx, g, levels, buckets, a.opts.BatchWeights)
	stats.ReducerIterations = iters
	if err != nil {
		return stats, err
	}
	stats.CrossingsAfter = CountCrossings(g, buckets)
	logger.Debug("reduced crossings",
		"iterations", iters,
		"before", stats.CrossingsBefore,
		"after", stats.CrossingsAfter)

	if err := ctx.Err(); err != nil {
		return stats, err
	}
	lay := AssignCoordinates(g, buckets)
	stats.Rows = lay.Rows
	logger.Debug("assigned coordinates",
		"rows", lay.Rows,
		"per_row", lay.MaxPerRow,
		"ygap", lay.YGap)

	stats.PassesBudgeted = PassBudget(g.VertexCount() + g.TransactionCount())
	rs, err := Refine(ctx, g, levels, buckets, RefineOptions{
		Passes:      stats.PassesBudgeted,
		Clock:       a.opts.Clock,
		MaxDuration: a.opts.MaxDuration,
		PhaseBudget: a.opts.PhaseBudget,
	})
	stats.Passes = rs.Passes
	stats.AlignSwaps = rs.AlignSwaps
	stats.MinimiseSwaps = rs.MinimiseSwaps
	stats.DeadlineExceeded = rs.DeadlineExceeded
	if err != nil {
		return stats, err
	}
	logger.Debug("refined positions",
		"budget", stats.PassesBudgeted,
		"passes", rs.Passes,
		"align_swaps", rs.AlignSwaps,
		"minimise_swaps", rs.MinimiseSwaps,
		"phase_timeouts", rs.PhaseTimeouts,
		"deadline_exceeded", rs.DeadlineExceeded)

	if a.opts.MaintainMean {
		mean.Restore(g)
	}
	stats.Duration = a.opts.Clock.Now().Sub(start)
	return stats, nil
}

// Arrange is a convenience wrapper around New(opts).Arrange.
func Arrange(ctx context.Context, g graph.View, roots []graph.VertexID, opts Options) (Stats, error) {
	return New(opts).Arrange(ctx, g, roots)
}
