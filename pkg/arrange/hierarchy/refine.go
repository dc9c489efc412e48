package hierarchy

import (
	"context"
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/strata/pkg/graph"
)

// Direction selects which adjacent level AdjustArrangement measures against.
type Direction int

const (
	// TopDown scans level l against level l+1, pulling parents toward their
	// children.
	TopDown Direction = iota
	// BottomUp scans level l against level l-1, pulling children toward
	// their parents.
	BottomUp
)

func (d Direction) String() string {
	if d == TopDown {
		return "top-down"
	}
	return "bottom-up"
}

const (
	maxPasses       = 30
	skipRefineAbove = 10000
	scaledAbove     = 1000

	// DefaultMaxDuration is the global refinement deadline.
	DefaultMaxDuration = 15 * time.Second
	// DefaultPhaseBudget is the time one refinement iteration is budgeted.
	// Each swap direction gets a quarter, minimisation gets half.
	DefaultPhaseBudget = 3 * time.Second

	gainEpsilon = 1e-9
)

// PassBudget returns the maximum number of refinement iterations for a graph
// of the given size (vertex count plus transaction count).
//
//	size > 10000          0
//	1000 < size <= 10000  round(30·((11000−size)/10000)²) + 1
//	size <= 1000          30
func PassBudget(size int) int {
	switch {
	case size > skipRefineAbove:
		return 0
	case size > scaledAbove:
		f := float64(11000-size) / 10000
		return int(math.Round(maxPasses*f*f)) + 1
	default:
		return maxPasses
	}
}

// RefineOptions bounds a Refine call.
type RefineOptions struct {
	Passes      int
	Clock       Clock
	MaxDuration time.Duration
	PhaseBudget time.Duration
}

// RefineStats reports what a Refine call did.
type RefineStats struct {
	Passes           int
	AlignSwaps       int
	MinimiseSwaps    int
	MinimiseRuns     int
	PhaseTimeouts    int
	DeadlineExceeded bool
}

// Refine swaps vertex positions within levels to shorten edges.
//
// Each iteration runs AdjustArrangement top-down, then bottom-up, then,
// throttled by a growing modulus, MinimiseTransactionDistances. The loop
// ends after opts.Passes iterations, when both swap directions made no swap
// on two consecutive iterations, or when opts.MaxDuration has elapsed.
//
// Swaps exchange x and y only; which level a vertex belongs to never
// changes. The clock is read at level boundaries, never inside candidate
// loops, so a time budget can only cut a phase short between levels.
func Refine(ctx context.Context, g graph.View, levels *Levels, buckets [][]graph.VertexID, opts RefineOptions) (RefineStats, error) {
	var stats RefineStats
	if opts.Passes <= 0 || len(buckets) == 0 {
		return stats, nil
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock()
	}
	if opts.MaxDuration <= 0 {
		opts.MaxDuration = DefaultMaxDuration
	}
	if opts.PhaseBudget <= 0 {
		opts.PhaseBudget = DefaultPhaseBudget
	}

	rf := &refiner{g: g, levels: levels, buckets: buckets, clock: opts.Clock}
	rf.deadline = opts.Clock.Now().Add(opts.MaxDuration)

	quiet := 0
	modVal, skip := 1, 0
	for pass := 0; pass < opts.Passes; pass++ {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if !rf.clock.Now().Before(rf.deadline) {
			stats.DeadlineExceeded = true
			break
		}

		down, err := rf.adjust(ctx, TopDown, opts.PhaseBudget/4, &stats)
		if err != nil {
			return stats, err
		}
		up, err := rf.adjust(ctx, BottomUp, opts.PhaseBudget/4, &stats)
		if err != nil {
			return stats, err
		}
		stats.AlignSwaps += down + up

		if skip == 0 {
			n, err := rf.minimise(ctx, opts.PhaseBudget/2, &stats)
			if err != nil {
				return stats, err
			}
			stats.MinimiseSwaps += n
			stats.MinimiseRuns++
			modVal++
			skip = modVal - 1
		} else {
			skip--
		}
		stats.Passes++

		if down == 0 && up == 0 {
			quiet++
			if quiet >= 2 {
				break
			}
		} else {
			quiet = 0
		}
	}
	return stats, nil
}

// AdjustArrangement runs one alignment sweep in direction dir with no time
// limit and returns the number of swaps made.
//
// For every vertex v of a scan level, the cost is the mean distance from v
// to its raw neighbours in the reference level. Every other vertex w of the
// scan level is tried as a swap partner; the partner that most reduces the
// combined cost of v and w is swapped with v. At most one swap is made per v.
func AdjustArrangement(g graph.View, levels *Levels, buckets [][]graph.VertexID, dir Direction) int {
	rf := &refiner{g: g, levels: levels, buckets: buckets}
	n, _ := rf.adjust(context.Background(), dir, 0, nil)
	return n
}

// MinimiseTransactionDistances runs one same-level sweep with no time limit
// and returns the number of swaps made.
//
// For every unlocked vertex v, the first unlocked partner w whose swap
// strictly lowers v's summed distance to neighbours outside the level
// without raising w's is swapped with v, and both are locked until the next
// call.
func MinimiseTransactionDistances(g graph.View, levels *Levels, buckets [][]graph.VertexID) int {
	rf := &refiner{g: g, levels: levels, buckets: buckets}
	n, _ := rf.minimise(context.Background(), 0, nil)
	return n
}

type refiner struct {
	g        graph.View
	levels   *Levels
	buckets  [][]graph.VertexID
	clock    Clock
	deadline time.Time
}

// phaseDeadline returns the earlier of now+budget and the global deadline.
// A zero budget means no limit.
func (rf *refiner) phaseDeadline(budget time.Duration) time.Time {
	if budget <= 0 || rf.clock == nil {
		return time.Time{}
	}
	d := rf.clock.Now().Add(budget)
	if !rf.deadline.IsZero() && rf.deadline.Before(d) {
		return rf.deadline
	}
	return d
}

func (rf *refiner) expired(deadline time.Time) bool {
	return !deadline.IsZero() && !rf.clock.Now().Before(deadline)
}

func (rf *refiner) adjust(ctx context.Context, dir Direction, budget time.Duration, stats *RefineStats) (int, error) {
	deadline := rf.phaseDeadline(budget)
	maxLevel := len(rf.buckets) - 1

	swaps := 0
	for step := 0; step < maxLevel; step++ {
		scan, ref := step, step+1
		if dir == BottomUp {
			scan, ref = maxLevel-step, maxLevel-step-1
		}
		if err := ctx.Err(); err != nil {
			return swaps, err
		}
		if rf.expired(deadline) {
			if stats != nil {
				stats.PhaseTimeouts++
			}
			break
		}
		swaps += rf.alignLevel(rf.buckets[scan], ref)
	}
	return swaps, nil
}

func (rf *refiner) alignLevel(bucket []graph.VertexID, ref int) int {
	if len(bucket) < 2 {
		return 0
	}
	nbrs := make(map[graph.VertexID][]graph.VertexID, len(bucket))
	for _, v := range bucket {
		nbrs[v] = rf.neighboursAt(v, ref)
	}

	swaps := 0
	for _, v := range bucket {
		pv := rf.pos(v)
		cv := rf.meanDistance(pv, nbrs[v])

		var best graph.VertexID
		bestGain := gainEpsilon
		found := false
		for _, w := range bucket {
			if w == v {
				continue
			}
			pw := rf.pos(w)
			cw := rf.meanDistance(pw, nbrs[w])
			cvS := rf.meanDistance(pw, nbrs[v])
			cwS := rf.meanDistance(pv, nbrs[w])
			if gain := (cv + cw) - (cvS + cwS); gain > bestGain {
				best, bestGain, found = w, gain, true
			}
		}
		if found {
			rf.swap(v, best)
			swaps++
		}
	}
	return swaps
}

func (rf *refiner) minimise(ctx context.Context, budget time.Duration, stats *RefineStats) (int, error) {
	deadline := rf.phaseDeadline(budget)

	swaps := 0
	for l, bucket := range rf.buckets {
		if err := ctx.Err(); err != nil {
			return swaps, err
		}
		if rf.expired(deadline) {
			if stats != nil {
				stats.PhaseTimeouts++
			}
			break
		}
		if len(bucket) < 2 {
			continue
		}

		outside := make(map[graph.VertexID][]graph.VertexID, len(bucket))
		for _, v := range bucket {
			outside[v] = rf.neighboursOutside(v, l)
		}

		locked := make(map[graph.VertexID]bool)
		for _, v := range bucket {
			if locked[v] {
				continue
			}
			pv := rf.pos(v)
			sv := rf.sumDistance(pv, outside[v])
			for _, w := range bucket {
				if w == v || locked[w] {
					continue
				}
				pw := rf.pos(w)
				sw := rf.sumDistance(pw, outside[w])
				svS := rf.sumDistance(pw, outside[v])
				swS := rf.sumDistance(pv, outside[w])
				if svS+gainEpsilon < sv && swS <= sw {
					rf.swap(v, w)
					locked[v], locked[w] = true, true
					swaps++
					break
				}
			}
		}
	}
	return swaps, nil
}

// neighboursAt returns the raw neighbours of v that sit on level ref, one
// entry per transaction.
func (rf *refiner) neighboursAt(v graph.VertexID, ref int) []graph.VertexID {
	var out []graph.VertexID
	for _, n := range rf.g.Neighbors(v) {
		if l, ok := rf.levels.Level(n); ok && l == ref {
			out = append(out, n)
		}
	}
	return out
}

func (rf *refiner) neighboursOutside(v graph.VertexID, level int) []graph.VertexID {
	var out []graph.VertexID
	for _, n := range rf.g.Neighbors(v) {
		if l, ok := rf.levels.Level(n); ok && l != level {
			out = append(out, n)
		}
	}
	return out
}

func (rf *refiner) pos(v graph.VertexID) r2.Vec {
	x, y, _ := rf.g.Position(v)
	return r2.Vec{X: x, Y: y}
}

func (rf *refiner) sumDistance(p r2.Vec, to []graph.VertexID) float64 {
	sum := 0.0
	for _, n := range to {
		sum += r2.Norm(r2.Sub(p, rf.pos(n)))
	}
	return sum
}

func (rf *refiner) meanDistance(p r2.Vec, to []graph.VertexID) float64 {
	if len(to) == 0 {
		return 0
	}
	return rf.sumDistance(p, to) / float64(len(to))
}

// swap exchanges the x and y coordinates of a and b. Z stays with its vertex.
func (rf *refiner) swap(a, b graph.VertexID) {
	ax, ay, az := rf.g.Position(a)
	bx, by, bz := rf.g.Position(b)
	rf.g.SetPosition(a, bx, by, az)
	rf.g.SetPosition(b, ax, ay, bz)
}
