// Package nodelink renders arranged graphs as node-link diagrams.
//
// Unlike a layout engine, this package does not decide where vertices go.
// [ToDOT] pins every vertex at its stored (x, y) with Graphviz's
// pos="x,y!" syntax, and [RenderSVG] runs the neato engine, which honours
// pinned positions and only routes edges. The picture is therefore exactly
// the arrangement the hierarchy engine produced.
//
// # Usage
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Labels: true, Roots: roots})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// or in one step for any supported format:
//
//	out, err := nodelink.Render(ctx, g, "png", nodelink.Options{})
//
// # Edges
//
// The output is a strict digraph: parallel transactions between the same
// ordered pair of vertices are drawn once. Transactions in both directions
// between a pair are drawn as two arrows.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
