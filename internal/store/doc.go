// Package store executes rendered entity queries against a relational
// database.
//
// A Store wraps one database/sql connection pool and a relational renderer.
// Queries run in either of the renderer's two modes:
//   - Text: the rendered statement with its named parameters rewritten to
//     the driver's placeholder style
//   - Criteria: the structured predicate tree assembled by squirrel
//
// Both modes select the same rows for the same query. Pagination is applied
// here, after rendering, because LIMIT/OFFSET syntax differs per driver.
//
// # Drivers
//
//   - sqlite3: github.com/mattn/go-sqlite3, single connection, ? placeholders
//   - postgres: github.com/lib/pq, $n placeholders
//   - mysql: github.com/go-sql-driver/mysql, ? placeholders
//   - duckdb: github.com/duckdb/duckdb-go/v2, ? placeholders
//
// Every execution is logged at debug level with a UUIDv7 query_id.
package store
