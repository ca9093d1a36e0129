package index

// Document is one stored index document, keyed by index field name.
type Document map[string]any

// FacetCount is one facet value and its document count.
type FacetCount struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// Group is one value of a group field, or one group query, with its top
// documents.
type Group struct {
	Value     string     `json:"value"`
	Count     int64      `json:"count"`
	Documents []Document `json:"documents"`
}

// PivotFacet is one node of a pivot facet tree.
type PivotFacet struct {
	Field string       `json:"field"`
	Value string       `json:"value"`
	Count int64        `json:"count"`
	Pivot []PivotFacet `json:"pivot,omitempty"`
}

// Result is the response of a search-index collaborator.
type Result struct {
	// Count is the number of matching documents, before paging.
	Count int64 `json:"count"`

	// Documents holds the requested page.
	Documents []Document `json:"documents"`

	// Facets maps each facet field to its value counts, in index order.
	Facets map[string][]FacetCount `json:"facets,omitempty"`

	// FacetQueries maps each facet query to its count.
	FacetQueries map[string]int64 `json:"facet_queries,omitempty"`

	// Highlighting maps document id to field to snippets.
	Highlighting map[string]map[string][]string `json:"highlighting,omitempty"`

	// Groups maps a group field or group query to its groups.
	Groups map[string][]Group `json:"groups,omitempty"`

	// Pivots maps the comma-joined pivot fields to the pivot tree.
	Pivots map[string][]PivotFacet `json:"pivots,omitempty"`

	// Suggestion is the spellcheck collation, if any.
	Suggestion string `json:"suggestion,omitempty"`
}

// FacetCounts returns the counts of one facet field keyed by value.
func (r *Result) FacetCounts(field string) map[string]int64 {
	counts := make(map[string]int64, len(r.Facets[field]))
	for _, fc := range r.Facets[field] {
		counts[fc.Value] = fc.Count
	}
	return counts
}
