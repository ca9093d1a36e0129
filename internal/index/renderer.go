package index

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/roach88/twinq/internal/criteria"
)

// FieldResolver maps a domain field of an entity to its index field.
type FieldResolver interface {
	IndexField(entity, field string) (string, error)
}

// Renderer turns index queries into Requests.
// A Renderer holds no per-render state and is safe for concurrent use.
type Renderer struct {
	fields FieldResolver
	logger *slog.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRenderer creates a Renderer resolving field names through fields.
func NewRenderer(fields FieldResolver, opts ...Option) *Renderer {
	r := &Renderer{
		fields: fields,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Expression renders a bare filter, optionally prefixed with a tag.
func (r *Renderer) Expression(f criteria.Filter, tag string) (string, error) {
	if err := criteria.Check(f); err != nil {
		return "", err
	}
	expr, err := expression(f)
	if err != nil || expr == "" || tag == "" {
		return expr, err
	}
	return tagged(tag, expr), nil
}

// Render renders q. Field resolution failures are returned as is.
func (r *Renderer) Render(q criteria.IndexQuery) (Request, error) {
	if err := criteria.Check(q.Filter); err != nil {
		return Request{}, err
	}

	req := Request{
		Entity:       q.Entity,
		Query:        q.Query,
		GroupFields:  slices.Clone(q.GroupFields),
		GroupQueries: slices.Clone(q.GroupQueries),
		GroupLimit:   q.GroupLimit,
		First:        q.First,
		PageSize:     q.PageSize,
		FacetLimit:   q.FacetLimit,
		Highlight:    q.Highlight,
		Spellcheck:   q.Spellcheck,
	}

	tags, err := r.filterQueries(&req, q)
	if err != nil {
		return Request{}, err
	}
	exclude := ""
	if len(tags) > 0 {
		exclude = "{!ex=" + strings.Join(tags, ",") + "}"
	}

	for _, f := range q.Facets {
		name, err := r.resolve(q.Entity, f.Field)
		if err != nil {
			return Request{}, err
		}
		if f.Exclude != nil {
			name = exclude + name
		}
		req.Facets = append(req.Facets, name)
	}
	for _, f := range q.FacetQueries {
		query := f.Query
		if f.Exclude != nil {
			query = exclude + query
		}
		req.FacetQueries = append(req.FacetQueries, query)
	}
	for _, pivot := range q.PivotFacets {
		names := make([]string, len(pivot))
		for i, field := range pivot {
			if names[i], err = r.resolve(q.Entity, field); err != nil {
				return Request{}, err
			}
		}
		req.PivotFacets = append(req.PivotFacets, names)
	}

	for _, field := range q.Fields {
		name, err := r.resolve(q.Entity, field)
		if err != nil {
			return Request{}, err
		}
		if !slices.Contains(req.Fields, name) {
			req.Fields = append(req.Fields, name)
		}
	}
	for _, fn := range q.FunctionFields {
		if !slices.Contains(req.Fields, fn) {
			req.Fields = append(req.Fields, fn)
		}
	}

	if req.Sorts, err = r.sorts(q.Entity, q.Order); err != nil {
		return Request{}, err
	}
	if req.GroupSorts, err = r.sorts(q.Entity, q.GroupOrder); err != nil {
		return Request{}, err
	}

	r.logger.Debug("index request built",
		"entity", q.Entity,
		"filter_queries", len(req.FilterQueries),
		"facets", len(req.Facets))
	return req, nil
}

// filterQueries splits the root AND chain into filter queries and returns
// the tags of the non-empty ones. Tags are only rendered when a facet asks
// for an exclusion.
func (r *Renderer) filterQueries(req *Request, q criteria.IndexQuery) ([]string, error) {
	withTags := q.Excludes()
	names := criteria.NewNamer(criteria.DefaultParameterName)

	var tags []string
	for _, unit := range criteria.Flatten(q.Filter) {
		tag := names.Next()
		expr, err := expression(unit)
		if err != nil {
			return nil, fmt.Errorf("render filter query of %s: %w", q.Entity, err)
		}
		if expr == "" {
			continue
		}
		if withTags {
			expr = tagged(tag, expr)
			tags = append(tags, tag)
		}
		req.FilterQueries = append(req.FilterQueries, expr)
	}
	return tags, nil
}

func (r *Renderer) sorts(entity string, o *criteria.Order) ([]SortClause, error) {
	var out []SortClause
	for node := range o.All() {
		name, err := r.resolve(entity, node.Field)
		if err != nil {
			return nil, err
		}
		out = append(out, SortClause{Field: name, Desc: node.Reverse})
	}
	return out, nil
}

func (r *Renderer) resolve(entity, field string) (string, error) {
	name, err := r.fields.IndexField(entity, field)
	if err != nil {
		return "", fmt.Errorf("resolve index field %s.%s: %w", entity, field, err)
	}
	return name, nil
}

func tagged(tag, expr string) string {
	return "{!tag=" + tag + "}" + expr
}
