package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/strata/pkg/pipeline"
	"github.com/matzehuels/strata/pkg/render/nodelink"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output    string  // output file (single format) or base path (multiple)
	formats   string  // comma-separated output formats
	labels    bool    // draw vertex labels
	scale     float64 // PNG resolution multiplier
	noArrange bool    // render the document's own coordinates
}

// renderCommand arranges a graph and renders it through Graphviz.
func (c *CLI) renderCommand() *cobra.Command {
	var flags arrangeFlags
	opts := renderOpts{scale: nodelink.DefaultScale}

	cmd := &cobra.Command{
		Use:   "render <graph.json>",
		Short: "Render an arranged graph to DOT, SVG, PDF or PNG",
		Long: `Render a graph as a node-link diagram.

The graph is arranged first unless --no-arrange is given, in which case the
coordinates stored in the document are drawn as they are. Vertices are pinned
at their (x, y) coordinates; z is dropped.

With a single format, -o names the output file. With several formats, -o is a
base path and each file gets the format as its extension. PDF and PNG need
rsvg-convert on the PATH.`,
		Example: `  strata render services.json -o services.svg
  strata render services.json -f svg,png --labels
  strata render arranged.json --no-arrange -f dot`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd, args[0], flags, opts)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): svg (default), dot, pdf, png, json (comma-separated)")
	cmd.Flags().BoolVar(&opts.labels, "labels", false, "draw vertex labels")
	cmd.Flags().Float64Var(&opts.scale, "scale", nodelink.DefaultScale, "PNG resolution multiplier")
	cmd.Flags().BoolVar(&opts.noArrange, "no-arrange", false, "use the coordinates already in the document")

	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, input string, flags arrangeFlags, ro renderOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	status := cmd.ErrOrStderr()

	formats := parseFormats(ro.formats)
	if err := pipeline.ValidateFormats(formats); err != nil {
		return err
	}
	if ro.scale <= 0 {
		return fmt.Errorf("--scale must be positive, got %g", ro.scale)
	}

	doc, err := pipeline.LoadDocument(input)
	if err != nil {
		return err
	}
	opts := flags.options(cmd, c.Config)
	opts.Formats = formats
	opts.Labels = ro.labels
	opts.Scale = ro.scale

	runner, err := c.newRunner(flags.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	if ro.noArrange {
		doc.Roots, _, doc.MissingRoots = pipeline.ResolveRoots(doc, opts)
	} else {
		sp := startSpinner(ctx, status, fmt.Sprintf("Arranging %d vertices...", doc.Graph.VertexCount()))
		stats, hit, err := runner.ArrangeWithCacheInfo(ctx, doc, opts)
		if err != nil {
			sp.StopWithError("Arrange failed")
			return err
		}
		sp.StopWithSuccess("Arranged %s", input)
		printArrangeStats(status, doc.Graph.VertexCount(), doc.Graph.TransactionCount(), stats, hit)
	}

	prog := newProgress(logger)
	sp := startSpinner(ctx, status, "Rendering "+strings.Join(formats, ", ")+"...")
	artifacts, hit, err := runner.RenderWithCacheInfo(ctx, doc, opts)
	if err != nil {
		sp.StopWithError("Render failed")
		return err
	}
	sp.Stop()
	prog.done("rendered", "formats", formats, "cached", hit)

	paths := outputPaths(ro.output, input, formats)
	for _, format := range formats {
		if err := os.WriteFile(paths[format], artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", paths[format], err)
		}
	}

	printSuccess(status, "Rendered %s", input)
	for _, format := range formats {
		printFile(status, paths[format])
	}
	return nil
}

// outputPaths maps each format to its output file. A single format with an
// explicit output uses that path as is; otherwise files are named
// base + "." + format, where base comes from output or from the input name.
func outputPaths(output, input string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if output != "" && len(formats) == 1 {
		paths[formats[0]] = output
		return paths
	}

	base := basePath(output, input)
	for _, format := range formats {
		p := base + "." + format
		if filepath.Clean(p) == filepath.Clean(input) {
			p = base + ".arranged." + format
		}
		paths[format] = p
	}
	return paths
}

// basePath derives the base output path from the output and input file
// paths. Known format extensions are stripped from output; without output the
// input's extension is stripped.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}
