package graph

import (
	"errors"
	"slices"
)

var (
	// ErrInvalidLabel is returned by [Graph.AddVertex] when the label is empty.
	ErrInvalidLabel = errors.New("vertex label must not be empty")

	// ErrDuplicateLabel is returned by [Graph.AddVertex] when another vertex
	// already uses the label. Labels are unique across the graph.
	ErrDuplicateLabel = errors.New("duplicate vertex label")

	// ErrUnknownSource is returned by [Graph.AddTransaction] when the source
	// vertex does not exist.
	ErrUnknownSource = errors.New("unknown source vertex")

	// ErrUnknownTarget is returned by [Graph.AddTransaction] when the
	// destination vertex does not exist.
	ErrUnknownTarget = errors.New("unknown target vertex")
)

// VertexID identifies a vertex. IDs are dense and assigned in insertion
// order, starting at zero.
type VertexID int

// View is the surface arrangement algorithms need from a graph: vertex
// enumeration, neighbourhoods and mutable coordinates.
//
// Implementations must return vertices and neighbours in a stable order so
// that arrangements are reproducible.
type View interface {
	// Vertices returns every vertex in enumeration order.
	Vertices() []VertexID
	// HasVertex reports whether id names a vertex of this view.
	HasVertex(id VertexID) bool
	// VertexCount returns the number of vertices.
	VertexCount() int
	// TransactionCount returns the number of raw transactions.
	TransactionCount() int
	// Links returns the aggregated, direction-agnostic neighbours of id.
	Links(id VertexID) []VertexID
	// Neighbors returns one entry per transaction incident to id.
	Neighbors(id VertexID) []VertexID
	// Position returns the coordinates of id.
	Position(id VertexID) (x, y, z float64)
	// SetPosition overwrites the coordinates of id.
	SetPosition(id VertexID, x, y, z float64)
}

// Transaction is a directed connection between two vertices.
type Transaction struct {
	From VertexID
	To   VertexID
}

type vertex struct {
	label   string
	x, y, z float64
}

// Graph is an in-memory [View] backed by slices.
//
// The zero value is not usable - use [New] to create a Graph.
type Graph struct {
	vertices  []vertex
	byLabel   map[string]VertexID
	txs       []Transaction
	links     [][]VertexID // aggregated, first-seen order
	neighbors [][]VertexID // one entry per incident transaction
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{byLabel: make(map[string]VertexID)}
}

// AddVertex adds a vertex with the given label at the origin and returns its ID.
// Returns ErrInvalidLabel for an empty label or ErrDuplicateLabel if the label
// is already in use.
func (g *Graph) AddVertex(label string) (VertexID, error) {
	if label == "" {
		return -1, ErrInvalidLabel
	}
	if _, exists := g.byLabel[label]; exists {
		return -1, ErrDuplicateLabel
	}
	id := VertexID(len(g.vertices))
	g.vertices = append(g.vertices, vertex{label: label})
	g.links = append(g.links, nil)
	g.neighbors = append(g.neighbors, nil)
	g.byLabel[label] = id
	return id, nil
}

// AddTransaction adds a directed transaction from src to dst. Parallel and
// reverse transactions are allowed; they collapse into a single link.
//
// A self-loop is recorded and counted by TransactionCount but joins no
// neighbours: it appears in neither Links nor Neighbors.
func (g *Graph) AddTransaction(src, dst VertexID) error {
	if !g.HasVertex(src) {
		return ErrUnknownSource
	}
	if !g.HasVertex(dst) {
		return ErrUnknownTarget
	}
	g.txs = append(g.txs, Transaction{From: src, To: dst})
	if src == dst {
		return nil
	}
	g.neighbors[src] = append(g.neighbors[src], dst)
	g.neighbors[dst] = append(g.neighbors[dst], src)
	if !slices.Contains(g.links[src], dst) {
		g.links[src] = append(g.links[src], dst)
		g.links[dst] = append(g.links[dst], src)
	}
	return nil
}

// Vertices returns all vertex IDs in insertion order.
func (g *Graph) Vertices() []VertexID {
	ids := make([]VertexID, len(g.vertices))
	for i := range ids {
		ids[i] = VertexID(i)
	}
	return ids
}

// Transactions returns a copy of all transactions in insertion order.
func (g *Graph) Transactions() []Transaction { return slices.Clone(g.txs) }

// HasVertex reports whether id names a vertex of g.
func (g *Graph) HasVertex(id VertexID) bool { return id >= 0 && int(id) < len(g.vertices) }

// VertexCount returns the number of vertices.
func (g *Graph) VertexCount() int { return len(g.vertices) }

// TransactionCount returns the number of transactions.
func (g *Graph) TransactionCount() int { return len(g.txs) }

// Links returns the aggregated neighbours of id. The returned slice must not be
// modified. Returns nil for unknown vertices.
func (g *Graph) Links(id VertexID) []VertexID {
	if !g.HasVertex(id) {
		return nil
	}
	return g.links[id]
}

// Neighbors returns the far end of every transaction incident to id, in
// insertion order. The returned slice must not be modified.
func (g *Graph) Neighbors(id VertexID) []VertexID {
	if !g.HasVertex(id) {
		return nil
	}
	return g.neighbors[id]
}

// Position returns the coordinates of id, or the origin for unknown vertices.
func (g *Graph) Position(id VertexID) (x, y, z float64) {
	if !g.HasVertex(id) {
		return 0, 0, 0
	}
	v := g.vertices[id]
	return v.x, v.y, v.z
}

// SetPosition overwrites the coordinates of id. Unknown vertices are ignored.
func (g *Graph) SetPosition(id VertexID, x, y, z float64) {
	if !g.HasVertex(id) {
		return
	}
	v := &g.vertices[id]
	v.x, v.y, v.z = x, y, z
}

// Label returns the label of id, or "" for unknown vertices.
func (g *Graph) Label(id VertexID) string {
	if !g.HasVertex(id) {
		return ""
	}
	return g.vertices[id].label
}

// VertexByLabel returns the vertex with the given label.
func (g *Graph) VertexByLabel(label string) (VertexID, bool) {
	id, ok := g.byLabel[label]
	return id, ok
}

// Clone returns a deep copy of the graph, coordinates included.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		vertices:  slices.Clone(g.vertices),
		byLabel:   make(map[string]VertexID, len(g.byLabel)),
		txs:       slices.Clone(g.txs),
		links:     make([][]VertexID, len(g.links)),
		neighbors: make([][]VertexID, len(g.neighbors)),
	}
	for k, v := range g.byLabel {
		c.byLabel[k] = v
	}
	for i := range g.links {
		c.links[i] = slices.Clone(g.links[i])
		c.neighbors[i] = slices.Clone(g.neighbors[i])
	}
	return c
}

var _ View = (*Graph)(nil)
