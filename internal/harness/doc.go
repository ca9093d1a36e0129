// Package harness runs round-trip scenarios: one request, one fixture, every
// backend.
//
// A scenario seeds the same rows into an in-memory SQLite database and an
// in-memory search index, builds the relational and index descriptors from
// one request document, renders and executes them, and checks what came
// back.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: apple_by_price
//	description: "Equality and range filters agree on every backend"
//	fixture:
//	  - entity: Product
//	    rows:
//	      - {id: 1, name: iPhone 15, brand: apple, price: 999.0}
//	      - {id: 2, name: Pixel 8, brand: google, price: 699.0}
//	request:
//	  entity: Product
//	  alias: p
//	  filter:
//	    and:
//	      - equals: {field: brand, value: apple}
//	      - between: {field: price, from: 500, to: 1000}
//	  order:
//	    - {field: price, desc: true}
//	assertions:
//	  - type: agree
//	  - type: ids
//	    ids: ["1"]
//
// Every fixture column is registered under its own name for both the table
// and the index, so a request means the same thing on each backend.
//
// # Backends
//
//   - relational: query text with named parameters, run through the store
//   - criteria: the structured predicate, built with squirrel
//   - index: the rendered index request, evaluated by memindex
//
// A backend that cannot express the request is skipped with a reason, e.g.
// the index for Exists filters or joins.
//
// # Assertion Types
//
//   - ids: the primary keys returned, in order when the request is ordered
//   - count: the number of matching rows
//   - agree: every backend that ran returned the same primary keys
//   - facet: value counts of an index facet
//   - skipped: a backend was skipped
//
// # Golden Files
//
// RunWithGolden snapshots the rendered queries and outcomes under
// testdata/golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
