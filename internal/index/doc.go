// Package index renders criteria.IndexQuery descriptors for a Solr-style
// search index.
//
// The filter tree is rendered to Lucene query syntax. A root AND chain is
// split into independent filter queries so the index can cache them and
// exclude them from facet counts; when any facet declares an exclusion,
// every filter query carries a {!tag=...} local parameter and the excluding
// facets carry {!ex=...}. Domain field names in facets, projections and sorts
// are resolved through a FieldResolver; filter fields are used as given.
//
// Coalesce, Exists and FieldEquals have no index equivalent and fail with an
// unsupported error.
package index
