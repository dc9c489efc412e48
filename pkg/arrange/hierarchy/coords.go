package hierarchy

import (
	"math"

	"github.com/matzehuels/strata/pkg/graph"
)

const (
	minNodesPerRow = 12
	xGap           = 10.0
	baseYGap       = 10.0
	wrappedRowStep = 0.5
)

// Layout describes the grid AssignCoordinates produced. It is informational;
// all placement results are written to the graph view.
type Layout struct {
	MaxPerRow int
	XGap      float64
	YGap      float64
	// Rows is the number of physical rows after wrapping large levels.
	Rows int
}

// AssignCoordinates places every vertex in buckets and sets z to 0.
//
// Levels larger than MaxPerRow wrap onto several physical rows. Rows are
// spaced vertically by a log-scaled gap; a crowding bonus pushes apart pairs
// of consecutive levels that are both large. Within a row, spacing widens
// towards the middle and a decreasing zig-zag offsets y so near-parallel
// edges do not overlap. Every row is centred on the widest row of the graph.
//
// Vertices absent from buckets are never written.
func AssignCoordinates(g graph.View, buckets [][]graph.VertexID) Layout {
	maxLevelSize := 0
	for _, b := range buckets {
		maxLevelSize = max(maxLevelSize, len(b))
	}
	if maxLevelSize == 0 {
		return Layout{}
	}

	n := g.VertexCount()
	perRow := minNodesPerRow
	if n > 1 {
		perRow = max(perRow, int(minNodesPerRow*math.Log(float64(n))))
	}
	perRow = min(perRow, maxLevelSize)

	lay := Layout{
		MaxPerRow: perRow,
		XGap:      xGap,
		YGap:      baseYGap + 5*math.Log(float64(maxLevelSize)),
	}

	// Widest row anywhere in the graph, used to centre every level.
	levelWidths := make([]float64, len(buckets))
	graphWidth := 0.0
	for l, b := range buckets {
		for _, row := range splitRows(b, perRow) {
			levelWidths[l] = max(levelWidths[l], rowProfile(len(row)).width)
		}
		graphWidth = max(graphWidth, levelWidths[l])
	}

	display := 0.0
	prevSize := 0
	for l, b := range buckets {
		if l > 0 {
			display++
			display += max(2*math.Log(float64(prevSize+len(b)))-5, 0)
		}
		prevSize = len(b)

		for r, row := range splitRows(b, perRow) {
			if r > 0 {
				display += wrappedRowStep
			}
			lay.Rows++

			p := rowProfile(len(row))
			shift := (graphWidth-levelWidths[l])/2 + (levelWidths[l]-p.width)/2
			if r%2 == 1 {
				shift += xGap / 2
			}
			zig := lay.YGap / 5
			m := float64(len(row))
			for i, v := range row {
				dy := zig * (m - float64(i)) / m
				if i%2 == 1 {
					dy = -dy
				}
				g.SetPosition(v, p.offsets[i]+shift, -display*lay.YGap+dy, 0)
			}
		}
	}
	return lay
}

type profile struct {
	offsets []float64
	width   float64
}

// rowProfile returns the cumulative x offsets for a row of m vertices. The
// gap between neighbours grows linearly up to the middle of the row and
// shrinks back, scaled by ln(m+1)/2.
func rowProfile(m int) profile {
	p := profile{offsets: make([]float64, m)}
	if m == 0 {
		return p
	}
	adj := math.Log(float64(m+1)) / 2
	half := float64(m) / 2
	x := 0.0
	for i := 1; i < m; i++ {
		ramp := float64(min(i, m-i)) / half
		x += xGap + xGap*adj*ramp
		p.offsets[i] = x
	}
	p.width = x
	return p
}

func splitRows(bucket []graph.VertexID, perRow int) [][]graph.VertexID {
	if perRow <= 0 || len(bucket) <= perRow {
		return [][]graph.VertexID{bucket}
	}
	var rows [][]graph.VertexID
	for start := 0; start < len(bucket); start += perRow {
		rows = append(rows, bucket[start:min(start+perRow, len(bucket))])
	}
	return rows
}
