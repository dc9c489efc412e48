package hierarchy

import "github.com/matzehuels/strata/pkg/graph"

// Mean is the centroid of every vertex coordinate in a view.
type Mean struct {
	X, Y, Z float64
	n       int
}

// CaptureMean averages the coordinates of all vertices of g, reached or not.
func CaptureMean(g graph.View) Mean {
	var m Mean
	for _, v := range g.Vertices() {
		x, y, z := g.Position(v)
		m.X += x
		m.Y += y
		m.Z += z
		m.n++
	}
	if m.n > 0 {
		n := float64(m.n)
		m.X /= n
		m.Y /= n
		m.Z /= n
	}
	return m
}

// Restore translates every vertex of g so that its centroid equals m again.
func (m Mean) Restore(g graph.View) {
	if m.n == 0 {
		return
	}
	cur := CaptureMean(g)
	dx, dy, dz := m.X-cur.X, m.Y-cur.Y, m.Z-cur.Z
	if dx == 0 && dy == 0 && dz == 0 {
		return
	}
	for _, v := range g.Vertices() {
		x, y, z := g.Position(v)
		g.SetPosition(v, x+dx, y+dy, z+dz)
	}
}
