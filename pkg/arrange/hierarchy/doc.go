// Package hierarchy computes layered (hierarchical) 2D arrangements for a
// connected graph component anchored at one or more root vertices.
//
// # Pipeline
//
// An [Arranger] runs five phases synchronously on the calling goroutine:
//
//  1. Level assignment: multi-source breadth-first search over aggregated
//     links gives every reachable vertex its hop distance from the nearest
//     root ([AssignLevels]).
//  2. Crossing reduction: each level's vertex order is reshaped from
//     neighbour-composition weights, sweeping top-down then bottom-up for at
//     most ten iterations ([ReduceCrossings]).
//  3. Coordinate assignment: (level, order) pairs become x/y coordinates.
//     Wide levels wrap onto several rows and spacing grows logarithmically
//     with graph size ([AssignCoordinates]).
//  4. Local refinement: a wall-clock budgeted search swaps vertex positions
//     within a level to shorten edges ([Refine]).
//  5. Mean preservation (optional): the layout is translated so the centroid
//     of all vertices is unchanged ([CaptureMean], [Mean.Restore]).
//
// # Determinism
//
// The engine uses no randomness. Given the same topology, roots and initial
// coordinates, the output is bit-identical provided refinement completes the
// same number of iterations. Inject a [ManualClock] through [Options] to make
// the time budget irrelevant in tests.
//
// # Unreached Vertices
//
// Vertices that no root can reach keep no level and are never written to:
// their coordinates are exactly what they were before the call.
//
// # Cancellation
//
// The context is checked at level, sweep and refinement-iteration
// boundaries. On cancellation Arrange returns ctx.Err() and leaves whatever
// coordinates it had already written; every write is independently valid.
//
// # Usage
//
//	a := hierarchy.New(hierarchy.Options{MaintainMean: true})
//	stats, err := a.Arrange(ctx, g, []graph.VertexID{root})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(stats.MaxLevel, stats.AlignSwaps)
package hierarchy
