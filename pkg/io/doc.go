// Package io provides JSON import and export for arrangeable graphs.
//
// # JSON Format
//
// A document has a required "vertices" array, an optional "transactions"
// array and an optional "roots" array:
//
//	{
//	  "vertices": [
//	    {"id": "gateway"},
//	    {"id": "auth", "x": 10, "y": -20, "z": 0},
//	    {"id": "db"}
//	  ],
//	  "transactions": [
//	    {"from": "gateway", "to": "auth"},
//	    {"from": "auth", "to": "db"},
//	    {"from": "db", "to": "auth"}
//	  ],
//	  "roots": ["gateway"]
//	}
//
// Vertex ids are unique labels. Coordinates default to the origin. Any number
// of transactions may join the same pair of vertices in either direction.
// Self-loops are kept as transactions but link a vertex to nothing.
//
// Roots that name no vertex are not an error. They are dropped from
// [Document.Roots] and listed in [Document.MissingRoots] so callers can warn.
//
// # Import and Export
//
// Use [ImportJSON] / [ReadJSON] to load a document and [ExportJSON] /
// [WriteJSON] to write one. Export always writes coordinates, so an arranged
// graph survives a round trip exactly.
//
// [MarshalGraph] produces a canonical encoding used for content hashing.
package io
