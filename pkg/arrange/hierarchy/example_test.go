package hierarchy_test

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/strata/pkg/arrange/hierarchy"
	"github.com/matzehuels/strata/pkg/graph"
)

func ExampleArranger_Arrange() {
	g := graph.New()
	root, _ := g.AddVertex("gateway")
	for _, name := range []string{"auth", "billing", "search"} {
		v, _ := g.AddVertex(name)
		_ = g.AddTransaction(root, v)
	}
	db, _ := g.AddVertex("db")
	auth, _ := g.VertexByLabel("auth")
	_ = g.AddTransaction(auth, db)

	a := hierarchy.New(hierarchy.Options{
		Clock: hierarchy.NewManualClock(time.Unix(0, 0), 0),
	})
	stats, err := a.Arrange(context.Background(), g, []graph.VertexID{root})
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println("levels:", stats.MaxLevel+1)
	fmt.Println("reached:", stats.Reached)
	_, rootY, _ := g.Position(root)
	_, dbY, _ := g.Position(db)
	fmt.Println("db below root:", dbY < rootY)
	// Output:
	// levels: 3
	// reached: 5
	// db below root: true
}

func ExamplePassBudget() {
	for _, size := range []int{500, 5000, 20000} {
		fmt.Println(size, hierarchy.PassBudget(size))
	}
	// Output:
	// 500 30
	// 5000 12
	// 20000 0
}
