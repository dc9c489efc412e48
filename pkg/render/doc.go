// Package render turns arranged graphs into images.
//
// The [nodelink] subpackage emits Graphviz DOT with every vertex pinned at
// the coordinates the arrangement engine wrote, and renders it to SVG
// in-process. [ToPDF] and [ToPNG] convert that SVG with the external
// rsvg-convert tool (from librsvg):
//
//	svg, err := nodelink.RenderSVG(ctx, nodelink.ToDOT(g, nodelink.Options{}))
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0) // 2x scale
//
// [nodelink]: github.com/matzehuels/strata/pkg/render/nodelink
package render
