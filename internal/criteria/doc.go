// Package criteria is the backend-neutral query model.
//
// A caller composes a Filter tree (leaf filters, Not, And/Or groups), an
// Order chain and a JoinSet, and assembles them with EntityQueryBuilder or
// IndexQueryBuilder. The relational and index packages render the resulting
// descriptors; nothing in this package performs I/O or knows either target
// syntax.
//
// # Aliases
//
// A filter's field reference is alias.field when an alias is set, else the
// bare field. Groups pass their alias to children that have none; the query's
// root alias is the default for anything still unaliased at render time.
// Nested queries are kept apart with AddAliasPrefix, which is idempotent:
// prefixing twice with the same prefix yields the same alias.
//
// # Parameters
//
// Parameter names are not stored on filters. Each render creates a Namer and
// assigns names in pre-order, so a tree can be rendered any number of times,
// by either backend, concurrently, with identical results.
package criteria
