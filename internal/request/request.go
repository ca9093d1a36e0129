// Package request decodes query requests from YAML or JSON documents into
// entity and index query descriptors.
package request

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/twinq/internal/criteria"
)

// Request is one query document. The same document can be rendered as an
// entity query and as an index query.
type Request struct {
	Entity   string  `yaml:"entity" json:"entity"`
	Alias    string  `yaml:"alias,omitempty" json:"alias,omitempty"`
	Filter   *Filter `yaml:"filter,omitempty" json:"filter,omitempty"`
	Order    []Order `yaml:"order,omitempty" json:"order,omitempty"`
	Joins    []Join  `yaml:"joins,omitempty" json:"joins,omitempty"`
	Page     *Page   `yaml:"page,omitempty" json:"page,omitempty"`
	Count    bool    `yaml:"count,omitempty" json:"count,omitempty"`
	Distinct bool    `yaml:"distinct,omitempty" json:"distinct,omitempty"`
	Cache    *bool   `yaml:"cache,omitempty" json:"cache,omitempty"`
	Criteria bool    `yaml:"criteria,omitempty" json:"criteria,omitempty"`
	Index    *Index  `yaml:"index,omitempty" json:"index,omitempty"`
}

// Order is one sort key.
type Order struct {
	Field string `yaml:"field" json:"field"`
	Alias string `yaml:"alias,omitempty" json:"alias,omitempty"`
	Desc  bool   `yaml:"desc,omitempty" json:"desc,omitempty"`
}

// Join declares one join. A left join without an entity navigates the
// association path root_alias.root_field.
type Join struct {
	Kind      string `yaml:"kind,omitempty" json:"kind,omitempty"`
	RootAlias string `yaml:"root_alias,omitempty" json:"root_alias,omitempty"`
	RootField string `yaml:"root_field" json:"root_field"`
	Entity    string `yaml:"entity,omitempty" json:"entity,omitempty"`
	Alias     string `yaml:"alias" json:"alias"`
	Field     string `yaml:"field,omitempty" json:"field,omitempty"`
}

// Page selects a window of results.
type Page struct {
	First int `yaml:"first,omitempty" json:"first,omitempty"`
	Size  int `yaml:"size,omitempty" json:"size,omitempty"`
}

// Index holds the index-only parts of a request.
type Index struct {
	Query        string       `yaml:"query,omitempty" json:"query,omitempty"`
	Facets       []Facet      `yaml:"facets,omitempty" json:"facets,omitempty"`
	FacetQueries []FacetQuery `yaml:"facet_queries,omitempty" json:"facet_queries,omitempty"`
	Pivots       [][]string   `yaml:"pivots,omitempty" json:"pivots,omitempty"`
	Fields       []string     `yaml:"fields,omitempty" json:"fields,omitempty"`
	Functions    []string     `yaml:"functions,omitempty" json:"functions,omitempty"`
	Group        *Group       `yaml:"group,omitempty" json:"group,omitempty"`
	FacetLimit   int          `yaml:"facet_limit,omitempty" json:"facet_limit,omitempty"`
	Highlight    bool         `yaml:"highlight,omitempty" json:"highlight,omitempty"`
	Spellcheck   bool         `yaml:"spellcheck,omitempty" json:"spellcheck,omitempty"`
}

// Facet counts the values of a field, optionally ignoring the active filters.
type Facet struct {
	Field   string  `yaml:"field" json:"field"`
	Exclude *Filter `yaml:"exclude,omitempty" json:"exclude,omitempty"`
}

// FacetQuery counts the documents matching a raw index query.
type FacetQuery struct {
	Query   string  `yaml:"query" json:"query"`
	Exclude *Filter `yaml:"exclude,omitempty" json:"exclude,omitempty"`
}

// Group collapses index results by field values or queries.
type Group struct {
	Fields  []string `yaml:"fields,omitempty" json:"fields,omitempty"`
	Queries []string `yaml:"queries,omitempty" json:"queries,omitempty"`
	Limit   int      `yaml:"limit,omitempty" json:"limit,omitempty"`
	Order   []Order  `yaml:"order,omitempty" json:"order,omitempty"`
}

// Load reads a request from a YAML or JSON file.
func Load(path string) (*Request, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open request: %w", err)
	}
	defer f.Close()

	r, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Decode reads a request document. Unknown keys are rejected. JSON input is
// accepted as YAML.
func Decode(in io.Reader) (*Request, error) {
	dec := yaml.NewDecoder(in)
	dec.KnownFields(true)

	var r Request
	if err := dec.Decode(&r); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty request")
		}
		return nil, fmt.Errorf("decode request: %w", err)
	}
	return &r, nil
}

// EntityQuery builds the relational descriptor. keys resolves id filters and
// may be nil when none are used.
func (r *Request) EntityQuery(keys criteria.KeyResolver) (criteria.EntityQuery, error) {
	b := criteria.NewEntityQuery(r.Entity)
	if r.Alias != "" {
		b = b.As(r.Alias)
	}

	for i, j := range r.Joins {
		join, err := j.join()
		if err != nil {
			return criteria.EntityQuery{}, fmt.Errorf("joins[%d]: %w", i, err)
		}
		b = b.Join(join)
	}

	f, err := r.Filter.build(buildContext{keys: keys, entity: r.Entity, path: "filter"})
	if err != nil {
		return criteria.EntityQuery{}, err
	}
	b = b.Where(f).OrderBy(orders(r.Order))

	if r.Page != nil {
		b = b.Page(r.Page.First, r.Page.Size)
	}
	if r.Cache != nil {
		b = b.Cache(*r.Cache)
	}
	return b.Count(r.Count).Distinct(r.Distinct).Criteria(r.Criteria).Build()
}

// IndexQuery builds the search-index descriptor.
func (r *Request) IndexQuery(keys criteria.KeyResolver) (criteria.IndexQuery, error) {
	ctx := buildContext{keys: keys, entity: r.Entity, path: "filter"}

	f, err := r.Filter.build(ctx)
	if err != nil {
		return criteria.IndexQuery{}, err
	}
	b := criteria.NewIndexQuery(r.Entity).Where(f).OrderBy(orders(r.Order))
	if r.Page != nil {
		b = b.Page(r.Page.First, r.Page.Size)
	}

	ix := r.Index
	if ix == nil {
		return b.Build()
	}

	b = b.Search(ix.Query)
	for i, facet := range ix.Facets {
		ctx.path = fmt.Sprintf("index.facets[%d].exclude", i)
		exclude, err := facet.Exclude.build(ctx)
		if err != nil {
			return criteria.IndexQuery{}, err
		}
		b = b.Facet(facet.Field, exclude)
	}
	for i, fq := range ix.FacetQueries {
		ctx.path = fmt.Sprintf("index.facet_queries[%d].exclude", i)
		exclude, err := fq.Exclude.build(ctx)
		if err != nil {
			return criteria.IndexQuery{}, err
		}
		b = b.FacetQuery(fq.Query, exclude)
	}
	for _, p := range ix.Pivots {
		b = b.Pivot(p...)
	}
	b = b.Select(ix.Fields...).
		SelectFunction(ix.Functions...).
		FacetLimit(ix.FacetLimit).
		Highlight(ix.Highlight).
		Spellcheck(ix.Spellcheck)
	if g := ix.Group; g != nil {
		b = b.GroupBy(g.Fields...).
			GroupQuery(g.Queries...).
			GroupLimit(g.Limit).
			GroupOrderBy(orders(g.Order))
	}
	return b.Build()
}

func (j Join) join() (criteria.Join, error) {
	kind, err := criteria.ParseJoinKind(j.Kind)
	if err != nil {
		return criteria.Join{}, err
	}
	switch kind {
	case criteria.JoinScalar:
		return criteria.ScalarJoin(j.RootAlias, j.RootField, j.Entity, j.Alias, j.Field), nil
	case criteria.JoinLeftOuter:
		if j.Entity == "" {
			return criteria.LeftJoin(j.RootAlias, j.RootField, j.Alias), nil
		}
		return criteria.LeftJoinOn(j.RootAlias, j.RootField, j.Entity, j.Alias, j.Field), nil
	default:
		return criteria.InnerJoin(j.RootAlias, j.RootField, j.Entity, j.Alias, j.Field), nil
	}
}

func orders(keys []Order) *criteria.Order {
	var head *criteria.Order
	for _, k := range keys {
		head = head.Append(criteria.NewOrder(k.Field, k.Alias, k.Desc))
	}
	return head
}
