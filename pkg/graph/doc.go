// Package graph provides the vertex/transaction store that arrangement
// algorithms read from and write coordinates back to.
//
// # Vertices and Transactions
//
// A [Graph] holds vertices identified by dense [VertexID] values and a
// human-readable label. Vertices are connected by transactions: directed
// connections between two vertices. Any number of transactions may join the
// same pair of vertices, in either direction.
//
// Arrangement code rarely cares about direction or multiplicity, so the graph
// exposes two neighbourhood views:
//
//   - [Graph.Links]: the aggregated, direction-agnostic neighbour set. Two
//     vertices joined by any number of transactions are a single link.
//   - [Graph.Neighbors]: the raw view, one entry per incident transaction.
//
// # Coordinates
//
// Every vertex carries mutable X, Y and Z coordinates, read with
// [Graph.Position] and written with [Graph.SetPosition]. New vertices start at
// the origin.
//
// # The View Interface
//
// Algorithms accept a [View] rather than a concrete [*Graph], so callers can
// arrange any store that can enumerate vertices, report neighbours and hold
// coordinates.
//
// # Concurrency
//
// A Graph is not safe for concurrent use. Callers that share a graph between
// goroutines must provide their own synchronization.
//
// # Example
//
//	g := graph.New()
//	app, _ := g.AddVertex("app")
//	db, _ := g.AddVertex("db")
//	_ = g.AddTransaction(app, db)
//	_ = g.AddTransaction(db, app)
//
//	g.Links(app)     // [db]
//	g.Neighbors(app) // [db db]
package graph
