package graph

import (
	"errors"
	"slices"
	"testing"
)

func mustVertex(t *testing.T, g *Graph, label string) VertexID {
	t.Helper()
	id, err := g.AddVertex(label)
	if err != nil {
		t.Fatalf("AddVertex(%q): %v", label, err)
	}
	return id
}

func TestAddVertex(t *testing.T) {
	g := New()

	a := mustVertex(t, g, "a")
	b := mustVertex(t, g, "b")
	if a != 0 || b != 1 {
		t.Errorf("ids = %d, %d; want 0, 1", a, b)
	}

	if _, err := g.AddVertex(""); !errors.Is(err, ErrInvalidLabel) {
		t.Errorf("empty label: got %v, want ErrInvalidLabel", err)
	}
	if _, err := g.AddVertex("a"); !errors.Is(err, ErrDuplicateLabel) {
		t.Errorf("duplicate label: got %v, want ErrDuplicateLabel", err)
	}
	if g.VertexCount() != 2 {
		t.Errorf("VertexCount() = %d, want 2", g.VertexCount())
	}
}

func TestAddTransactionErrors(t *testing.T) {
	g := New()
	a := mustVertex(t, g, "a")

	tests := []struct {
		name     string
		src, dst VertexID
		want     error
	}{
		{"unknown source", 7, a, ErrUnknownSource},
		{"unknown target", a, 7, ErrUnknownTarget},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := g.AddTransaction(tt.src, tt.dst); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
	if g.TransactionCount() != 0 {
		t.Errorf("failed adds must not record transactions, got %d", g.TransactionCount())
	}
}

func TestSelfLoopCountedButNotLinked(t *testing.T) {
	g := New()
	a := mustVertex(t, g, "a")
	b := mustVertex(t, g, "b")

	if err := g.AddTransaction(a, a); err != nil {
		t.Fatalf("AddTransaction(a, a): %v", err)
	}
	if err := g.AddTransaction(a, b); err != nil {
		t.Fatalf("AddTransaction(a, b): %v", err)
	}

	if g.TransactionCount() != 2 {
		t.Errorf("TransactionCount() = %d, want 2", g.TransactionCount())
	}
	if got := g.Links(a); !slices.Equal(got, []VertexID{b}) {
		t.Errorf("Links(a) = %v, want [b]", got)
	}
	if got := g.Neighbors(a); !slices.Equal(got, []VertexID{b}) {
		t.Errorf("Neighbors(a) = %v, want [b]", got)
	}
	if got := g.Transactions()[0]; got != (Transaction{From: a, To: a}) {
		t.Errorf("Transactions()[0] = %+v, want the loop", got)
	}
}

func TestLinksAggregateTransactions(t *testing.T) {
	g := New()
	a := mustVertex(t, g, "a")
	b := mustVertex(t, g, "b")
	c := mustVertex(t, g, "c")

	_ = g.AddTransaction(a, b)
	_ = g.AddTransaction(b, a)
	_ = g.AddTransaction(a, b)
	_ = g.AddTransaction(c, a)

	if got := g.Links(a); !slices.Equal(got, []VertexID{b, c}) {
		t.Errorf("Links(a) = %v, want [b c]", got)
	}
	if got := g.Links(b); !slices.Equal(got, []VertexID{a}) {
		t.Errorf("Links(b) = %v, want [a]", got)
	}
	if got := g.Neighbors(a); !slices.Equal(got, []VertexID{b, b, b, c}) {
		t.Errorf("Neighbors(a) = %v, want [b b b c]", got)
	}
	if g.TransactionCount() != 4 {
		t.Errorf("TransactionCount() = %d, want 4", g.TransactionCount())
	}
	if g.Links(99) != nil || g.Neighbors(-1) != nil {
		t.Error("unknown vertices should have no neighbours")
	}
}

func TestPosition(t *testing.T) {
	g := New()
	a := mustVertex(t, g, "a")

	if x, y, z := g.Position(a); x != 0 || y != 0 || z != 0 {
		t.Errorf("new vertex at (%v,%v,%v), want origin", x, y, z)
	}
	g.SetPosition(a, 1, -2, 3.5)
	if x, y, z := g.Position(a); x != 1 || y != -2 || z != 3.5 {
		t.Errorf("Position = (%v,%v,%v), want (1,-2,3.5)", x, y, z)
	}

	// Unknown vertices are ignored rather than panicking.
	g.SetPosition(42, 1, 1, 1)
	if x, y, z := g.Position(42); x != 0 || y != 0 || z != 0 {
		t.Error("unknown vertex should read as origin")
	}
}

func TestLabels(t *testing.T) {
	g := New()
	a := mustVertex(t, g, "alpha")

	if g.Label(a) != "alpha" {
		t.Errorf("Label = %q", g.Label(a))
	}
	if id, ok := g.VertexByLabel("alpha"); !ok || id != a {
		t.Errorf("VertexByLabel = %d, %v", id, ok)
	}
	if _, ok := g.VertexByLabel("beta"); ok {
		t.Error("VertexByLabel should miss unknown labels")
	}
}

func TestClone(t *testing.T) {
	g := New()
	a := mustVertex(t, g, "a")
	b := mustVertex(t, g, "b")
	_ = g.AddTransaction(a, b)
	g.SetPosition(a, 5, 5, 5)

	c := g.Clone()
	c.SetPosition(a, 0, 0, 0)
	d := mustVertex(t, c, "d")
	_ = c.AddTransaction(b, d)

	if x, _, _ := g.Position(a); x != 5 {
		t.Error("clone shares coordinates with original")
	}
	if g.VertexCount() != 2 || g.TransactionCount() != 1 {
		t.Error("clone shares structure with original")
	}
	if len(g.Links(b)) != 1 {
		t.Errorf("original Links(b) = %v, want [a]", g.Links(b))
	}
	if _, ok := g.VertexByLabel("d"); ok {
		t.Error("clone shares label index with original")
	}
}
