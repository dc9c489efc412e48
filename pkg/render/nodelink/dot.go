package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/strata/pkg/graph"
	"github.com/matzehuels/strata/pkg/render"
)

// Formats lists the output formats [Render] accepts.
var Formats = []string{"dot", "svg", "pdf", "png"}

// DefaultScale converts engine units to points.
const DefaultScale = 4.0

// Options configures node-link rendering.
type Options struct {
	// Labels draws vertex labels next to each vertex.
	Labels bool
	// Roots are highlighted.
	Roots []graph.VertexID
	// Scale multiplies coordinates into points. Defaults to DefaultScale.
	Scale float64
	// PNGScale is the raster zoom for PNG output. Defaults to 2.
	PNGScale float64
}

// ToDOT converts g to Graphviz DOT with every vertex pinned at its current
// coordinates.
func ToDOT(g *graph.Graph, opts Options) string {
	scale := opts.Scale
	if scale <= 0 {
		scale = DefaultScale
	}
	roots := make(map[graph.VertexID]bool, len(opts.Roots))
	for _, r := range opts.Roots {
		roots[r] = true
	}

	var buf bytes.Buffer
	buf.WriteString("strict digraph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  overlap=true;\n")
	buf.WriteString("  splines=line;\n")
	buf.WriteString("  node [shape=circle, style=filled, fillcolor=white, width=0.25, height=0.25, fixedsize=true, label=\"\"];\n")
	buf.WriteString("  edge [arrowsize=0.5, color=\"#555555\"];\n")
	buf.WriteString("\n")

	for _, v := range g.Vertices() {
		x, y, _ := g.Position(v)
		attrs := []string{fmt.Sprintf("pos=\"%s,%s!\"", fmtFloat(x*scale), fmtFloat(y*scale))}
		if opts.Labels {
			attrs = append(attrs, fmt.Sprintf("xlabel=%q", g.Label(v)))
		}
		if roots[v] {
			attrs = append(attrs, "fillcolor=\"#f4b400\"", "penwidth=2")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", g.Label(v), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, t := range g.Transactions() {
		fmt.Fprintf(&buf, "  %q -> %q;\n", g.Label(t.From), g.Label(t.To))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// RenderSVG renders DOT produced by [ToDOT] to SVG using the neato engine.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

// Render produces g in the given format: dot, svg, pdf or png.
func Render(ctx context.Context, g *graph.Graph, format string, opts Options) ([]byte, error) {
	dot := ToDOT(g, opts)
	switch strings.ToLower(format) {
	case "dot":
		return []byte(dot), nil
	case "svg":
		return RenderSVG(ctx, dot)
	case "pdf":
		svg, err := RenderSVG(ctx, dot)
		if err != nil {
			return nil, err
		}
		return render.ToPDF(ctx, svg)
	case "png":
		svg, err := RenderSVG(ctx, dot)
		if err != nil {
			return nil, err
		}
		scale := opts.PNGScale
		if scale <= 0 {
			scale = 2
		}
		return render.ToPNG(ctx, svg, scale)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's svg tag with one whose width and
// height match the viewBox, so the image scales cleanly when embedded.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
