package pipeline

import (
	"errors"
	stdio "io"
	"io/fs"

	errs "github.com/matzehuels/strata/pkg/errors"
	"github.com/matzehuels/strata/pkg/graph"
	"github.com/matzehuels/strata/pkg/io"
)

// LoadDocument reads the graph document at path. A missing file is
// NOT_FOUND, anything unreadable or malformed is INVALID_GRAPH.
func LoadDocument(path string) (*io.Document, error) {
	if err := errs.ValidatePath(path); err != nil {
		return nil, err
	}
	doc, err := io.ImportJSON(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errs.Wrap(errs.ErrCodeNotFound, err, "graph file %s not found", path)
		}
		return nil, errs.Wrap(errs.ErrCodeInvalidGraph, err, "load %s", path)
	}
	if err := validateLabels(doc.Graph); err != nil {
		return nil, err
	}
	return doc, nil
}

// ReadDocument decodes a graph document from r.
func ReadDocument(r stdio.Reader) (*io.Document, error) {
	doc, err := io.ReadJSON(r)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidGraph, err, "read graph")
	}
	if err := validateLabels(doc.Graph); err != nil {
		return nil, err
	}
	return doc, nil
}

func validateLabels(g *graph.Graph) error {
	for _, v := range g.Vertices() {
		if err := errs.ValidateLabel(g.Label(v)); err != nil {
			return err
		}
	}
	return nil
}

// ResolveRoots picks the roots for a run. Labels from opts win over the
// document's own roots. It returns the resolved ids, their labels in the
// same order, and the labels that named no vertex.
func ResolveRoots(doc *io.Document, opts Options) (ids []graph.VertexID, labels, missing []string) {
	if len(opts.Roots) == 0 {
		for _, id := range doc.Roots {
			ids = append(ids, id)
			labels = append(labels, doc.Graph.Label(id))
		}
		return ids, labels, doc.MissingRoots
	}
	seen := make(map[graph.VertexID]bool, len(opts.Roots))
	for _, l := range opts.Roots {
		id, ok := doc.Graph.VertexByLabel(l)
		if !ok {
			missing = append(missing, l)
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
		labels = append(labels, l)
	}
	return ids, labels, missing
}
