// Package relational renders criteria.EntityQuery descriptors for relational
// stores.
//
// Two paths produce the same logical predicate:
//
//   - Render builds query text with named parameters through the fixed stage
//     pipeline select, from, join, where, order by. Count queries share the
//     pipeline and drop the order by.
//   - Criteria builds a structured predicate tree (squirrel Sqlizers) plus
//     the join and order metadata an executor needs.
//
// The HQL dialect renders entity names and bare aliases; the SQL dialect
// renders table names from the field registry and can be executed directly
// through database/sql after Positional rewrites the named parameters.
package relational
