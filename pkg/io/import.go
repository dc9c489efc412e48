package io

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/strata/pkg/graph"
)

// ErrNoVertices is returned by [ReadJSON] when the document has no vertices.
var ErrNoVertices = errors.New("document has no vertices")

// Document is a graph together with the roots it should be arranged from.
type Document struct {
	Graph *graph.Graph
	Roots []graph.VertexID
	// MissingRoots lists root labels that named no vertex.
	MissingRoots []string
}

// ReadJSON decodes a JSON document from r.
//
// ReadJSON returns an error if the JSON is malformed, the vertex list is
// empty, a vertex id is empty or duplicated, or a transaction references an
// unknown vertex. Errors are wrapped with the
// offending vertex or transaction and keep the [graph] sentinel errors
// reachable through errors.Is.
//
// ReadJSON does not close r.
func ReadJSON(r io.Reader) (*Document, error) {
	var data document
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if len(data.Vertices) == 0 {
		return nil, ErrNoVertices
	}

	g := graph.New()
	for _, v := range data.Vertices {
		id, err := g.AddVertex(v.ID)
		if err != nil {
			return nil, fmt.Errorf("vertex %q: %w", v.ID, err)
		}
		g.SetPosition(id, deref(v.X), deref(v.Y), deref(v.Z))
	}
	for _, t := range data.Transactions {
		src, ok := g.VertexByLabel(t.From)
		if !ok {
			return nil, fmt.Errorf("transaction %s->%s: %w", t.From, t.To, graph.ErrUnknownSource)
		}
		dst, ok := g.VertexByLabel(t.To)
		if !ok {
			return nil, fmt.Errorf("transaction %s->%s: %w", t.From, t.To, graph.ErrUnknownTarget)
		}
		if err := g.AddTransaction(src, dst); err != nil {
			return nil, fmt.Errorf("transaction %s->%s: %w", t.From, t.To, err)
		}
	}

	doc := &Document{Graph: g}
	for _, label := range data.Roots {
		if id, ok := g.VertexByLabel(label); ok {
			doc.Roots = append(doc.Roots, id)
		} else {
			doc.MissingRoots = append(doc.MissingRoots, label)
		}
	}
	return doc, nil
}

// ImportJSON reads the JSON document at path.
func ImportJSON(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
