package graph_test

import (
	"fmt"

	"github.com/matzehuels/strata/pkg/graph"
)

func ExampleGraph_Links() {
	// Two transactions in opposite directions form a single link.
	g := graph.New()
	app, _ := g.AddVertex("app")
	db, _ := g.AddVertex("db")
	cache, _ := g.AddVertex("cache")
	_ = g.AddTransaction(app, db)
	_ = g.AddTransaction(db, app)
	_ = g.AddTransaction(app, cache)

	fmt.Println("Links:", len(g.Links(app)))
	fmt.Println("Neighbors:", len(g.Neighbors(app)))
	fmt.Println("Transactions:", g.TransactionCount())
	// Output:
	// Links: 2
	// Neighbors: 3
	// Transactions: 3
}

func ExampleGraph_SetPosition() {
	g := graph.New()
	v, _ := g.AddVertex("v")
	g.SetPosition(v, 10, -20, 0)

	x, y, z := g.Position(v)
	fmt.Println(x, y, z)
	// Output:
	// 10 -20 0
}
