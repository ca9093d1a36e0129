// Package memindex is an in-memory search index that evaluates rendered
// index requests. It understands the query subset the index renderer
// produces and is used to execute index queries without a running server.
package memindex

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/roach88/twinq/internal/index"
)

// Index holds documents per entity.
// It is safe for concurrent use.
type Index struct {
	mu     sync.RWMutex
	docs   map[string][]index.Document
	logger *slog.Logger
}

// Option configures an Index.
type Option func(*Index)

// WithLogger sets the logger for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(ix *Index) {
		if logger != nil {
			ix.logger = logger
		}
	}
}

// New creates an empty index.
func New(opts ...Option) *Index {
	ix := &Index{
		docs:   make(map[string][]index.Document),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Add stores documents under entity. Documents are copied.
func (ix *Index) Add(entity string, docs ...index.Document) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	for _, d := range docs {
		ix.docs[entity] = append(ix.docs[entity], maps.Clone(d))
	}
}

// Len returns the number of documents stored under entity.
func (ix *Index) Len(entity string) int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docs[entity])
}

// filterQuery is one parsed fq with its tag.
type filterQuery struct {
	tag  string
	expr node
}

// Search evaluates req against the documents of req.Entity.
func (ix *Index) Search(ctx context.Context, req index.Request) (*index.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	query, err := parse(req.Query)
	if err != nil {
		return nil, fmt.Errorf("parse query: %w", err)
	}
	fqs := make([]filterQuery, 0, len(req.FilterQueries))
	for _, raw := range req.FilterQueries {
		params, body := localParams(raw)
		expr, err := parse(body)
		if err != nil {
			return nil, fmt.Errorf("parse filter query %q: %w", raw, err)
		}
		fqs = append(fqs, filterQuery{tag: params["tag"], expr: expr})
	}

	ix.mu.RLock()
	docs := slices.Clone(ix.docs[req.Entity])
	ix.mu.RUnlock()

	candidates := filterDocs(docs, query)
	matched := applyFilters(candidates, fqs, nil)
	sortDocs(matched, req.Sorts)

	res := &index.Result{Count: int64(len(matched))}
	res.Documents = project(page(matched, req.First, req.PageSize), req.Fields)

	if err := facets(res, req, candidates, fqs); err != nil {
		return nil, err
	}
	pivots(res, req, matched)
	if err := groups(res, req, matched); err != nil {
		return nil, err
	}
	if req.Highlight {
		res.Highlighting = highlight(res.Documents, query)
	}

	ix.logger.Debug("search executed",
		"entity", req.Entity,
		"count", res.Count,
		"returned", len(res.Documents))
	return res, nil
}

func filterDocs(docs []index.Document, expr node) []index.Document {
	out := make([]index.Document, 0, len(docs))
	for _, d := range docs {
		if expr.match(d) {
			out = append(out, d)
		}
	}
	return out
}

// applyFilters keeps documents matching every filter query whose tag is not
// excluded.
func applyFilters(docs []index.Document, fqs []filterQuery, excluded []string) []index.Document {
	out := docs
	for _, fq := range fqs {
		if fq.tag != "" && slices.Contains(excluded, fq.tag) {
			continue
		}
		out = filterDocs(out, fq.expr)
	}
	return out
}

func sortDocs(docs []index.Document, sorts []index.SortClause) {
	if len(sorts) == 0 {
		return
	}
	slices.SortStableFunc(docs, func(a, b index.Document) int {
		for _, s := range sorts {
			c := compareValues(a[s.Field], b[s.Field])
			if s.Desc && a[s.Field] != nil && b[s.Field] != nil {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})
}

// page applies the offset and page size. A zero size returns everything
// after the offset.
func page(docs []index.Document, first, size int) []index.Document {
	if first >= len(docs) {
		return nil
	}
	docs = docs[first:]
	if size > 0 && size < len(docs) {
		docs = docs[:size]
	}
	return docs
}

func project(docs []index.Document, fields []string) []index.Document {
	out := make([]index.Document, len(docs))
	for i, d := range docs {
		if len(fields) == 0 {
			out[i] = maps.Clone(d)
			continue
		}
		p := make(index.Document, len(fields))
		for _, f := range fields {
			if v, ok := d[f]; ok {
				p[f] = v
			}
		}
		out[i] = p
	}
	return out
}

func facets(res *index.Result, req index.Request, candidates []index.Document, fqs []filterQuery) error {
	for _, raw := range req.Facets {
		params, field := localParams(raw)
		base := applyFilters(candidates, fqs, excludedTags(params))
		if res.Facets == nil {
			res.Facets = make(map[string][]index.FacetCount)
		}
		res.Facets[field] = countValues(base, field, req.FacetLimit)
	}
	for _, raw := range req.FacetQueries {
		params, body := localParams(raw)
		expr, err := parse(body)
		if err != nil {
			return fmt.Errorf("parse facet query %q: %w", raw, err)
		}
		base := applyFilters(candidates, fqs, excludedTags(params))
		if res.FacetQueries == nil {
			res.FacetQueries = make(map[string]int64)
		}
		res.FacetQueries[body] = int64(len(filterDocs(base, expr)))
	}
	return nil
}

// countValues counts the values of field, most frequent first and ties in
// value order.
func countValues(docs []index.Document, field string, limit int) []index.FacetCount {
	counts := make(map[string]int64)
	for _, d := range docs {
		for _, v := range values(d, field) {
			counts[index.FormatValue(v)]++
		}
	}
	out := make([]index.FacetCount, 0, len(counts))
	for v, c := range counts {
		out = append(out, index.FacetCount{Value: v, Count: c})
	}
	slices.SortFunc(out, func(a, b index.FacetCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return strings.Compare(a.Value, b.Value)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func pivots(res *index.Result, req index.Request, docs []index.Document) {
	for _, fields := range req.PivotFacets {
		if len(fields) == 0 {
			continue
		}
		if res.Pivots == nil {
			res.Pivots = make(map[string][]index.PivotFacet)
		}
		res.Pivots[strings.Join(fields, ",")] = pivot(docs, fields, req.FacetLimit)
	}
}

func pivot(docs []index.Document, fields []string, limit int) []index.PivotFacet {
	field := fields[0]
	counts := countValues(docs, field, limit)
	out := make([]index.PivotFacet, len(counts))
	for i, fc := range counts {
		out[i] = index.PivotFacet{Field: field, Value: fc.Value, Count: fc.Count}
		if len(fields) > 1 {
			subset := filterDocs(docs, termNode{field: field, text: fc.Value, phrase: true})
			out[i].Pivot = pivot(subset, fields[1:], limit)
		}
	}
	return out
}

// groups collects documents per group field value in result order, and per
// group query. Each group keeps GroupLimit documents, one by default.
func groups(res *index.Result, req index.Request, docs []index.Document) error {
	if len(req.GroupFields) == 0 && len(req.GroupQueries) == 0 {
		return nil
	}
	limit := max(req.GroupLimit, 1)
	res.Groups = make(map[string][]index.Group)

	top := func(members []index.Document) []index.Document {
		members = slices.Clone(members)
		sortDocs(members, req.GroupSorts)
		return project(page(members, 0, limit), req.Fields)
	}

	for _, field := range req.GroupFields {
		var order []string
		members := make(map[string][]index.Document)
		for _, d := range docs {
			key := ""
			if vs := values(d, field); len(vs) > 0 {
				key = index.FormatValue(vs[0])
			}
			if _, seen := members[key]; !seen {
				order = append(order, key)
			}
			members[key] = append(members[key], d)
		}
		for _, key := range order {
			res.Groups[field] = append(res.Groups[field], index.Group{
				Value:     key,
				Count:     int64(len(members[key])),
				Documents: top(members[key]),
			})
		}
	}
	for _, q := range req.GroupQueries {
		expr, err := parse(q)
		if err != nil {
			return fmt.Errorf("parse group query %q: %w", q, err)
		}
		members := filterDocs(docs, expr)
		res.Groups[q] = []index.Group{{Value: q, Count: int64(len(members)), Documents: top(members)}}
	}
	return nil
}

// localParams splits a leading {!k=v ...} block from s.
func localParams(s string) (map[string]string, string) {
	if !strings.HasPrefix(s, "{!") {
		return nil, s
	}
	end := strings.IndexByte(s, '}')
	if end < 0 {
		return nil, s
	}
	params := make(map[string]string)
	for _, kv := range strings.Fields(s[2:end]) {
		k, v, _ := strings.Cut(kv, "=")
		params[k] = v
	}
	return params, s[end+1:]
}

func excludedTags(params map[string]string) []string {
	ex := params["ex"]
	if ex == "" {
		return nil
	}
	return strings.Split(ex, ",")
}
