package hierarchy

import (
	"github.com/matzehuels/strata/pkg/graph"
)

// Levels maps every vertex reachable from a root to its hierarchical level:
// the minimum number of aggregated-link hops from any valid root.
type Levels struct {
	level map[graph.VertexID]int
	max   int
	// Synthetic is true when none of the supplied roots existed and the first
	// vertex in enumeration order was used instead.
	Synthetic bool
}

// AssignLevels computes levels for g using the roots present in g.
//
// Each valid root runs its own breadth-first search over [graph.View.Links].
// A neighbour is relabelled only when the new distance is strictly smaller
// than the one it already holds, so the result is the minimum over all roots
// regardless of the order roots are supplied in. This is equivalent to a
// single search from a virtual vertex joined to every root.
//
// Roots that are not vertices of g are ignored. When none of them exist, the
// first vertex of g becomes a synthetic root so the component still receives
// a layout. Vertices unreachable from every root get no level.
//
// Time complexity is O(R·(V + E)) for R valid roots.
func AssignLevels(g graph.View, roots []graph.VertexID) *Levels {
	lv := &Levels{level: make(map[graph.VertexID]int)}

	valid := 0
	for _, r := range roots {
		if !g.HasVertex(r) {
			continue
		}
		valid++
		lv.search(g, r)
	}

	if valid == 0 {
		if vs := g.Vertices(); len(vs) > 0 {
			lv.Synthetic = true
			lv.search(g, vs[0])
		}
	}

	for _, l := range lv.level {
		lv.max = max(lv.max, l)
	}
	return lv
}

func (lv *Levels) search(g graph.View, root graph.VertexID) {
	lv.level[root] = 0
	queue := []graph.VertexID{root}
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		next := lv.level[curr] + 1
		for _, n := range g.Links(curr) {
			if l, ok := lv.level[n]; !ok || next < l {
				lv.level[n] = next
				queue = append(queue, n)
			}
		}
	}
}

// Level returns the level of v and whether v was reached.
func (lv *Levels) Level(v graph.VertexID) (int, bool) {
	l, ok := lv.level[v]
	return l, ok
}

// Max returns the deepest level assigned, or 0 when nothing was reached.
func (lv *Levels) Max() int { return lv.max }

// Reached returns the number of vertices that received a level.
func (lv *Levels) Reached() int { return len(lv.level) }

// Buckets groups the reached vertices by level. Within a bucket vertices
// appear in g's enumeration order; this is the starting order the crossing
// reducer works from.
func (lv *Levels) Buckets(g graph.View) [][]graph.VertexID {
	if len(lv.level) == 0 {
		return nil
	}
	buckets := make([][]graph.VertexID, lv.max+1)
	for _, v := range g.Vertices() {
		if l, ok := lv.level[v]; ok {
			buckets[l] = append(buckets[l], v)
		}
	}
	return buckets
}
