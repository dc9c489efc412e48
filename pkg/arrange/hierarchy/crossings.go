package hierarchy

import (
	"cmp"
	"context"
	"slices"

	"github.com/matzehuels/strata/pkg/graph"
)

const (
	// maxReduceIterations caps the number of down/up sweep pairs.
	maxReduceIterations = 10

	initialWeight = 100.0
	parentWeight  = 100.0
	childWeight   = 200.0
)

// ReduceCrossings reorders every level bucket in place to reduce edge
// crossings and returns the number of sweep iterations performed.
//
// Each iteration sweeps levels 1..max top-down, then max..1 bottom-up. For
// every vertex of a swept level a weight is recomputed from its links:
//
//   - +100 for each neighbour on the level directly above (a parent)
//   - +200 for each neighbour on any other level (treated as a child)
//
// A vertex with no such neighbours weighs 0. All weights start at 100.
//
// Unless batch is set, the level is re-sorted by weight (stable, ascending)
// and passed through the busy-centre transform straight after each single
// weight update, which is the order-compatible behaviour. With batch set all
// weights of a level are recomputed first and the level is reshaped once.
//
// Iteration stops after ten rounds, or as soon as a full down-sweep and
// up-sweep leave every weight unchanged.
func ReduceCrossings(ctx context.Context, g graph.View, levels *Levels, buckets [][]graph.VertexID, batch bool) (int, error) {
	r := &reducer{
		g:       g,
		levels:  levels,
		buckets: buckets,
		weight:  make(map[graph.VertexID]float64, levels.Reached()),
		batch:   batch,
	}
	for _, bucket := range buckets {
		for _, v := range bucket {
			r.weight[v] = initialWeight
		}
	}

	maxLevel := len(buckets) - 1
	for iter := 1; iter <= maxReduceIterations; iter++ {
		down, up := 0, 0
		for l := 1; l <= maxLevel; l++ {
			if err := ctx.Err(); err != nil {
				return iter - 1, err
			}
			down += r.updateLevel(l)
		}
		for l := maxLevel; l >= 1; l-- {
			if err := ctx.Err(); err != nil {
				return iter - 1, err
			}
			up += r.updateLevel(l)
		}
		if down == 0 && up == 0 {
			return iter, nil
		}
	}
	return maxReduceIterations, nil
}

type reducer struct {
	g       graph.View
	levels  *Levels
	buckets [][]graph.VertexID
	weight  map[graph.VertexID]float64
	batch   bool
}

// updateLevel recomputes weights for level l and returns how many changed.
func (r *reducer) updateLevel(l int) int {
	changes := 0
	snapshot := slices.Clone(r.buckets[l])
	for _, v := range snapshot {
		if w := r.weigh(v, l); w != r.weight[v] {
			r.weight[v] = w
			changes++
		}
		if !r.batch {
			r.reshape(l)
		}
	}
	if r.batch {
		r.reshape(l)
	}
	return changes
}

func (r *reducer) weigh(v graph.VertexID, l int) float64 {
	w := 0.0
	for _, n := range r.g.Links(v) {
		nl, _ := r.levels.Level(n)
		if nl == l-1 {
			w += parentWeight
		}
		if nl != l {
			w += childWeight
		}
	}
	return w
}

func (r *reducer) reshape(l int) {
	bucket := r.buckets[l]
	slices.SortStableFunc(bucket, func(a, b graph.VertexID) int {
		return cmp.Compare(r.weight[a], r.weight[b])
	})
	r.buckets[l] = busyCentre(bucket)
}

// busyCentre moves the heaviest entries of an ascending sequence to the
// outer edges of the row.
//
// Elements are taken from the heavy end and alternately appended on the
// right and prepended on the left, which piles the heaviest in the middle.
// Rotating left by half the length then splits that pile across both ends.
func busyCentre(sorted []graph.VertexID) []graph.VertexID {
	n := len(sorted)
	if n < 2 {
		return sorted
	}
	left := make([]graph.VertexID, 0, n/2)
	right := make([]graph.VertexID, 0, n/2+1)
	for k := 0; k < n; k++ {
		v := sorted[n-1-k]
		if k%2 == 0 {
			right = append(right, v)
		} else {
			left = append(left, v)
		}
	}
	slices.Reverse(left)
	centred := append(left, right...)

	half := n / 2
	return append(centred[half:], centred[:half]...)
}

// CountCrossings returns the number of link crossings between consecutive
// level buckets, summed over all adjacent pairs.
//
// Two links (u1,v1) and (u2,v2) between levels l and l+1 cross when
// pos(u1) < pos(u2) and pos(v1) > pos(v2). Crossings are counted as
// inversions with a Fenwick tree in O(E log V) per level pair. Links that
// skip levels or stay within a level are ignored.
func CountCrossings(g graph.View, buckets [][]graph.VertexID) int {
	crossings := 0
	for l := 0; l+1 < len(buckets); l++ {
		crossings += countPairCrossings(g, buckets[l], buckets[l+1])
	}
	return crossings
}

func countPairCrossings(g graph.View, upper, lower []graph.VertexID) int {
	if len(upper) == 0 || len(lower) == 0 {
		return 0
	}
	lowerPos := make(map[graph.VertexID]int, len(lower))
	for i, v := range lower {
		lowerPos[v] = i
	}

	type link struct{ upper, lower int }
	links := make([]link, 0, len(upper)*2)
	for i, v := range upper {
		for _, n := range g.Links(v) {
			if p, ok := lowerPos[n]; ok {
				links = append(links, link{i, p})
			}
		}
	}
	if len(links) < 2 {
		return 0
	}

	slices.SortFunc(links, func(a, b link) int {
		if a.upper != b.upper {
			return a.upper - b.upper
		}
		return a.lower - b.lower
	})

	fenwick := make([]int, len(lower)+1)
	crossings, total := 0, 0
	for _, e := range links {
		lessOrEqual := 0
		for q := e.lower + 1; q > 0; q -= q & (-q) {
			lessOrEqual += fenwick[q]
		}
		crossings += total - lessOrEqual

		total++
		for idx := e.lower + 1; idx < len(fenwick); idx += idx & (-idx) {
			fenwick[idx]++
		}
	}
	return crossings
}
