package solr

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/twinq/internal/index"
)

// response mirrors the parts of a Solr JSON select response that map onto
// index.Result. Named lists are requested flat (json.nl=flat).
type response struct {
	Response *docList `json:"response"`

	FacetCounts *struct {
		FacetQueries map[string]json.Number `json:"facet_queries"`
		FacetFields  map[string][]any       `json:"facet_fields"`
		FacetPivot   map[string][]pivot     `json:"facet_pivot"`
	} `json:"facet_counts"`

	Highlighting map[string]map[string][]string `json:"highlighting"`

	Grouped map[string]struct {
		Matches json.Number `json:"matches"`
		Groups  []struct {
			GroupValue any     `json:"groupValue"`
			DocList    docList `json:"doclist"`
		} `json:"groups"`
		DocList *docList `json:"doclist"`
	} `json:"grouped"`

	Spellcheck *struct {
		Collations []any `json:"collations"`
	} `json:"spellcheck"`
}

type docList struct {
	NumFound json.Number      `json:"numFound"`
	Docs     []index.Document `json:"docs"`
}

type pivot struct {
	Field string      `json:"field"`
	Value any         `json:"value"`
	Count json.Number `json:"count"`
	Pivot []pivot     `json:"pivot"`
}

func (r response) result() (*index.Result, error) {
	res := &index.Result{}

	if r.Response != nil {
		n, err := r.Response.NumFound.Int64()
		if err != nil {
			return nil, fmt.Errorf("decode numFound: %w", err)
		}
		res.Count = n
		res.Documents = r.Response.Docs
	}

	if fc := r.FacetCounts; fc != nil {
		for field, flat := range fc.FacetFields {
			counts, err := facetCounts(flat)
			if err != nil {
				return nil, fmt.Errorf("decode facet %s: %w", field, err)
			}
			if res.Facets == nil {
				res.Facets = make(map[string][]index.FacetCount)
			}
			res.Facets[field] = counts
		}
		for q, n := range fc.FacetQueries {
			count, err := n.Int64()
			if err != nil {
				return nil, fmt.Errorf("decode facet query %s: %w", q, err)
			}
			if res.FacetQueries == nil {
				res.FacetQueries = make(map[string]int64)
			}
			res.FacetQueries[q] = count
		}
		for fields, tree := range fc.FacetPivot {
			if res.Pivots == nil {
				res.Pivots = make(map[string][]index.PivotFacet)
			}
			res.Pivots[fields] = pivots(tree)
		}
	}

	res.Highlighting = r.Highlighting

	for key, g := range r.Grouped {
		if res.Groups == nil {
			res.Groups = make(map[string][]index.Group)
		}
		matches, _ := g.Matches.Int64()
		if res.Count == 0 {
			res.Count = matches
		}
		if g.DocList != nil {
			n, _ := g.DocList.NumFound.Int64()
			res.Groups[key] = []index.Group{{Value: key, Count: n, Documents: g.DocList.Docs}}
			continue
		}
		for _, group := range g.Groups {
			n, _ := group.DocList.NumFound.Int64()
			res.Groups[key] = append(res.Groups[key], index.Group{
				Value:     groupValue(group.GroupValue),
				Count:     n,
				Documents: group.DocList.Docs,
			})
		}
	}

	if r.Spellcheck != nil {
		res.Suggestion = collation(r.Spellcheck.Collations)
	}
	return res, nil
}

// facetCounts decodes a flat ["value", count, ...] facet list.
func facetCounts(flat []any) ([]index.FacetCount, error) {
	if len(flat)%2 != 0 {
		return nil, fmt.Errorf("odd facet list length %d", len(flat))
	}
	out := make([]index.FacetCount, 0, len(flat)/2)
	for i := 0; i < len(flat); i += 2 {
		n, ok := flat[i+1].(json.Number)
		if !ok {
			return nil, fmt.Errorf("facet count %v is not a number", flat[i+1])
		}
		count, err := n.Int64()
		if err != nil {
			return nil, err
		}
		out = append(out, index.FacetCount{Value: index.FormatValue(flat[i]), Count: count})
	}
	return out, nil
}

func pivots(tree []pivot) []index.PivotFacet {
	out := make([]index.PivotFacet, len(tree))
	for i, p := range tree {
		n, _ := p.Count.Int64()
		out[i] = index.PivotFacet{Field: p.Field, Value: index.FormatValue(p.Value), Count: n}
		if len(p.Pivot) > 0 {
			out[i].Pivot = pivots(p.Pivot)
		}
	}
	return out
}

func groupValue(v any) string {
	if v == nil {
		return ""
	}
	return index.FormatValue(v)
}

// collation picks the first collation. Solr reports either plain strings or
// objects with a collationQuery, flattened behind a "collation" key.
func collation(list []any) string {
	for i, v := range list {
		switch t := v.(type) {
		case string:
			if t == "collation" && i+1 < len(list) {
				continue
			}
			return t
		case map[string]any:
			if q, ok := t["collationQuery"].(string); ok {
				return q
			}
		}
	}
	return ""
}
