package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/strata/pkg/graph"
)

type document struct {
	Vertices     []vertex      `json:"vertices"`
	Transactions []transaction `json:"transactions,omitempty"`
	Roots        []string      `json:"roots,omitempty"`
}

type vertex struct {
	ID string   `json:"id"`
	X  *float64 `json:"x,omitempty"`
	Y  *float64 `json:"y,omitempty"`
	Z  *float64 `json:"z,omitempty"`
}

type transaction struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func encodeDocument(g *graph.Graph, roots []graph.VertexID, withCoords bool) document {
	out := document{
		Vertices:     make([]vertex, 0, g.VertexCount()),
		Transactions: make([]transaction, 0, g.TransactionCount()),
	}
	for _, id := range g.Vertices() {
		v := vertex{ID: g.Label(id)}
		if withCoords {
			x, y, z := g.Position(id)
			v.X, v.Y, v.Z = &x, &y, &z
		}
		out.Vertices = append(out.Vertices, v)
	}
	for _, t := range g.Transactions() {
		out.Transactions = append(out.Transactions, transaction{From: g.Label(t.From), To: g.Label(t.To)})
	}
	for _, r := range roots {
		if g.HasVertex(r) {
			out.Roots = append(out.Roots, g.Label(r))
		}
	}
	return out
}

// WriteJSON encodes doc as indented JSON, coordinates included, and writes
// it to w. The output can be re-imported with [ReadJSON].
func WriteJSON(doc *Document, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(encodeDocument(doc.Graph, doc.Roots, true)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes doc to a JSON file at path.
func ExportJSON(doc *Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(doc, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// MarshalGraph returns the compact encoding of g's topology without
// coordinates. Structurally identical graphs built in the same order encode
// to the same bytes, which makes the result suitable as a cache key input.
func MarshalGraph(g *graph.Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(encodeDocument(g, nil, false)); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return buf.Bytes(), nil
}

// MarshalPositions returns the coordinates of every vertex of g in
// enumeration order as a flat JSON array of [x, y, z] triples.
func MarshalPositions(g graph.View) ([]byte, error) {
	pos := make([][3]float64, 0, g.VertexCount())
	for _, id := range g.Vertices() {
		x, y, z := g.Position(id)
		pos = append(pos, [3]float64{x, y, z})
	}
	data, err := json.Marshal(pos)
	if err != nil {
		return nil, fmt.Errorf("encode positions: %w", err)
	}
	return data, nil
}

// ApplyPositions writes coordinates produced by [MarshalPositions] back onto
// g. The number of triples must match the vertex count.
func ApplyPositions(g graph.View, data []byte) error {
	var pos [][3]float64
	if err := json.Unmarshal(data, &pos); err != nil {
		return fmt.Errorf("decode positions: %w", err)
	}
	ids := g.Vertices()
	if len(pos) != len(ids) {
		return fmt.Errorf("decode positions: have %d triples for %d vertices", len(pos), len(ids))
	}
	for i, id := range ids {
		g.SetPosition(id, pos[i][0], pos[i][1], pos[i][2])
	}
	return nil
}
