package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	strataio "github.com/matzehuels/strata/pkg/io"
	"github.com/matzehuels/strata/pkg/pipeline"
)

// stdoutPath selects standard output for -o.
const stdoutPath = "-"

// arrangeCommand computes hierarchical coordinates and writes the arranged
// document as JSON.
func (c *CLI) arrangeCommand() *cobra.Command {
	var (
		flags  arrangeFlags
		output string
		pick   bool
	)

	cmd := &cobra.Command{
		Use:   "arrange <graph.json>",
		Short: "Arrange a graph into hierarchical layers",
		Long: `Arrange a graph into hierarchical layers.

Vertices are assigned levels by their distance from the roots, each level is
reordered to reduce crossings, and positions are refined to shorten
connections. The arranged document is written as JSON, to standard output
unless -o names a file.`,
		Example: `  strata arrange services.json -o arranged.json
  strata arrange services.json --root gateway --root auth
  strata arrange services.json --pick`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			status := cmd.ErrOrStderr()

			doc, err := pipeline.LoadDocument(args[0])
			if err != nil {
				return err
			}
			opts := flags.options(cmd, c.Config)

			if pick {
				if !isTerminal(status) {
					return errors.New("--pick needs an interactive terminal")
				}
				_, current, _ := pipeline.ResolveRoots(doc, opts)
				roots, err := pickRoots(ctx, doc.Graph, current, cmd.InOrStdin(), status)
				if err != nil {
					return err
				}
				if len(roots) > 0 {
					opts.Roots = roots
				}
			}

			runner, err := c.newRunner(flags.noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			prog := newProgress(logger)
			sp := startSpinner(ctx, status, fmt.Sprintf("Arranging %d vertices...", doc.Graph.VertexCount()))
			stats, hit, err := runner.ArrangeWithCacheInfo(ctx, doc, opts)
			if err != nil {
				sp.StopWithError("Arrange failed")
				return err
			}
			sp.Stop()
			prog.done("arranged", "vertices", doc.Graph.VertexCount(), "cached", hit)

			if err := writeDocument(cmd.OutOrStdout(), doc, output); err != nil {
				return err
			}

			printSuccess(status, "Arranged %s", args[0])
			printArrangeStats(status, doc.Graph.VertexCount(), doc.Graph.TransactionCount(), stats, hit)
			if output != "" && output != stdoutPath {
				printFile(status, output)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: standard output)")
	cmd.Flags().BoolVar(&pick, "pick", false, "choose roots interactively")

	return cmd
}

// writeDocument writes doc as JSON to path, or to stdout when path is empty
// or "-".
func writeDocument(stdout io.Writer, doc *strataio.Document, path string) error {
	if path == "" || path == stdoutPath {
		return strataio.WriteJSON(doc, stdout)
	}
	if err := strataio.ExportJSON(doc, path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
