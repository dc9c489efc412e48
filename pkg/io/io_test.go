package io

import (
	"bytes"
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/strata/pkg/graph"
)

const sample = `{
  "vertices": [
    {"id": "gateway"},
    {"id": "auth", "x": 10, "y": -20, "z": 1.5},
    {"id": "db"}
  ],
  "transactions": [
    {"from": "gateway", "to": "auth"},
    {"from": "auth", "to": "db"},
    {"from": "db", "to": "auth"}
  ],
  "roots": ["gateway", "ghost"]
}`

func TestReadJSON(t *testing.T) {
	doc, err := ReadJSON(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	g := doc.Graph
	if g.VertexCount() != 3 || g.TransactionCount() != 3 {
		t.Fatalf("got %d vertices, %d transactions; want 3, 3", g.VertexCount(), g.TransactionCount())
	}
	auth, _ := g.VertexByLabel("auth")
	if x, y, z := g.Position(auth); x != 10 || y != -20 || z != 1.5 {
		t.Errorf("auth = (%v, %v, %v)", x, y, z)
	}
	if len(g.Links(auth)) != 2 || len(g.Neighbors(auth)) != 3 {
		t.Errorf("auth links = %v, neighbors = %v", g.Links(auth), g.Neighbors(auth))
	}
	if !slices.Equal(doc.Roots, []graph.VertexID{0}) {
		t.Errorf("Roots = %v, want [0]", doc.Roots)
	}
	if !slices.Equal(doc.MissingRoots, []string{"ghost"}) {
		t.Errorf("MissingRoots = %v, want [ghost]", doc.MissingRoots)
	}
}

func TestReadJSONErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"no vertices", `{"vertices": []}`, ErrNoVertices},
		{"empty id", `{"vertices": [{"id": ""}]}`, graph.ErrInvalidLabel},
		{"duplicate", `{"vertices": [{"id": "a"}, {"id": "a"}]}`, graph.ErrDuplicateLabel},
		{"unknown source", `{"vertices": [{"id": "a"}], "transactions": [{"from": "x", "to": "a"}]}`, graph.ErrUnknownSource},
		{"unknown target", `{"vertices": [{"id": "a"}], "transactions": [{"from": "a", "to": "x"}]}`, graph.ErrUnknownTarget},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadJSON(strings.NewReader(tt.input))
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := ReadJSON(strings.NewReader("{not json")); err == nil {
		t.Error("malformed JSON accepted")
	}
}

func TestReadJSONKeepsSelfLoops(t *testing.T) {
	input := `{"vertices": [{"id": "a"}, {"id": "b"}],
	           "transactions": [{"from": "a", "to": "a"}, {"from": "a", "to": "b"}]}`
	doc, err := ReadJSON(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	g := doc.Graph
	if g.TransactionCount() != 2 {
		t.Errorf("TransactionCount() = %d, want 2", g.TransactionCount())
	}
	a, _ := g.VertexByLabel("a")
	b, _ := g.VertexByLabel("b")
	if got := g.Links(a); !slices.Equal(got, []graph.VertexID{b}) {
		t.Errorf("Links(a) = %v, want [b]", got)
	}

	var buf bytes.Buffer
	if err := WriteJSON(doc, &buf); err != nil {
		t.Fatal(err)
	}
	back, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("re-read: %v", err)
	}
	if back.Graph.TransactionCount() != 2 {
		t.Errorf("round trip TransactionCount() = %d, want 2", back.Graph.TransactionCount())
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	doc, err := ReadJSON(strings.NewReader(sample))
	if err != nil {
		t.Fatal(err)
	}
	db, _ := doc.Graph.VertexByLabel("db")
	doc.Graph.SetPosition(db, -0.125, 3e10, 7)

	path := filepath.Join(t.TempDir(), "out.json")
	if err := ExportJSON(doc, path); err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}
	back, err := ImportJSON(path)
	if err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}

	for _, id := range doc.Graph.Vertices() {
		x1, y1, z1 := doc.Graph.Position(id)
		x2, y2, z2 := back.Graph.Position(id)
		if x1 != x2 || y1 != y2 || z1 != z2 {
			t.Errorf("vertex %s: (%v,%v,%v) -> (%v,%v,%v)", doc.Graph.Label(id), x1, y1, z1, x2, y2, z2)
		}
	}
	if !slices.Equal(back.Roots, doc.Roots) {
		t.Errorf("roots = %v, want %v", back.Roots, doc.Roots)
	}
	if len(back.MissingRoots) != 0 {
		t.Errorf("MissingRoots = %v, want none after export", back.MissingRoots)
	}
	if !slices.Equal(back.Graph.Transactions(), doc.Graph.Transactions()) {
		t.Error("transactions changed")
	}
}

func TestMarshalGraphIgnoresCoordinates(t *testing.T) {
	a, _ := ReadJSON(strings.NewReader(sample))
	b, _ := ReadJSON(strings.NewReader(sample))
	b.Graph.SetPosition(0, 99, 99, 99)

	da, err := MarshalGraph(a.Graph)
	if err != nil {
		t.Fatal(err)
	}
	db, err := MarshalGraph(b.Graph)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(da, db) {
		t.Error("encodings differ for the same topology")
	}
}

func TestApplyPositions(t *testing.T) {
	src, _ := ReadJSON(strings.NewReader(sample))
	src.Graph.SetPosition(2, 1, 2, 3)
	data, err := MarshalPositions(src.Graph)
	if err != nil {
		t.Fatal(err)
	}

	dst, _ := ReadJSON(strings.NewReader(sample))
	if err := ApplyPositions(dst.Graph, data); err != nil {
		t.Fatalf("ApplyPositions: %v", err)
	}
	if x, y, z := dst.Graph.Position(2); x != 1 || y != 2 || z != 3 {
		t.Errorf("position = (%v, %v, %v), want (1, 2, 3)", x, y, z)
	}

	if err := ApplyPositions(dst.Graph, []byte(`[[0,0,0]]`)); err == nil {
		t.Error("mismatched length accepted")
	}
}
