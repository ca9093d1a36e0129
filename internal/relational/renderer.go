package relational

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/twinq/internal/criteria"
)

// Renderer turns entity queries into relational statements.
// A Renderer holds no per-render state and is safe for concurrent use.
type Renderer struct {
	dialect Dialect
	logger  *slog.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithDialect selects the output dialect. The default is HQL.
func WithDialect(d Dialect) Option {
	return func(r *Renderer) {
		r.dialect = d
	}
}

// WithLogger sets the logger for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRenderer creates a Renderer.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		dialect: HQL,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Dialect returns the renderer's dialect.
func (r *Renderer) Dialect() Dialect {
	return r.dialect
}

// renderContext carries the per-call state of one render.
type renderContext struct {
	names  *criteria.Namer
	params []Param
}

func newRenderContext() *renderContext {
	return &renderContext{names: criteria.NewNamer(criteria.DefaultParameterName)}
}

func (c *renderContext) bind(name string, value any) string {
	c.params = append(c.params, Param{Name: name, Value: value})
	return ":" + name
}

// Render renders q to query text and parameters.
func (r *Renderer) Render(q criteria.EntityQuery) (Statement, error) {
	return r.render(q, true)
}

// RenderWithoutOrder renders q without its order by clause, as used for
// sub-queries.
func (r *Renderer) RenderWithoutOrder(q criteria.EntityQuery) (Statement, error) {
	return r.render(q, false)
}

func (r *Renderer) render(q criteria.EntityQuery, ordered bool) (Statement, error) {
	if err := criteria.Check(q.Filter); err != nil {
		return Statement{}, err
	}

	ctx := newRenderContext()
	text, err := r.query(ctx, q, ordered)
	if err != nil {
		return Statement{}, err
	}

	return Statement{
		Text:     text,
		Params:   ctx.params,
		First:    q.First,
		PageSize: q.PageSize,
		UseCache: q.UseCache,
		Count:    q.Count,
	}, nil
}

// Expression renders a bare filter. Unaliased fields are qualified with
// defaultAlias.
func (r *Renderer) Expression(f criteria.Filter, defaultAlias string) (string, []Param, error) {
	if err := criteria.Check(f); err != nil {
		return "", nil, err
	}
	ctx := newRenderContext()
	expr, err := r.expression(ctx, f, defaultAlias)
	if err != nil {
		return "", nil, err
	}
	return expr, ctx.params, nil
}

// query runs the stage pipeline. Count queries share every stage except the
// projection and skip the order by.
func (r *Renderer) query(ctx *renderContext, q criteria.EntityQuery, ordered bool) (string, error) {
	sel, err := r.selectClause(q)
	if err != nil {
		return "", err
	}
	from, err := r.fromClause(q)
	if err != nil {
		return "", err
	}
	join, err := r.joinClause(q)
	if err != nil {
		return "", err
	}
	sources, err := r.sourcesClause(q)
	if err != nil {
		return "", err
	}
	where, err := r.whereClause(ctx, q)
	if err != nil {
		return "", err
	}
	order := ""
	if ordered && !q.Count {
		order = orderByClause(q)
	}

	return sel + from + join + sources + where + order, nil
}

func (r *Renderer) selectClause(q criteria.EntityQuery) (string, error) {
	proj, err := r.dialect.Projection(q.Entity, q.Alias, q.Distinct, q.Count)
	if err != nil {
		return "", err
	}
	return "select " + proj, nil
}

// fromClause names the root entity. Inner and scalar entities are listed by
// sourcesClause after the left outer join clauses, so that ON conditions
// never reference an entity that a comma has bound more loosely.
func (r *Renderer) fromClause(q criteria.EntityQuery) (string, error) {
	root, err := r.source(q.Entity, q.Alias)
	if err != nil {
		return "", err
	}
	return " from " + root, nil
}

// sourcesClause lists the entities of inner and scalar joins.
func (r *Renderer) sourcesClause(q criteria.EntityQuery) (string, error) {
	var sb strings.Builder
	for _, j := range q.Joins.Of(criteria.JoinInner, criteria.JoinScalar) {
		s, err := r.source(j.AdjoiningEntity, j.AdjoiningAlias)
		if err != nil {
			return "", err
		}
		sb.WriteString(", ")
		sb.WriteString(s)
	}
	return sb.String(), nil
}

func (r *Renderer) source(entity, alias string) (string, error) {
	name, err := r.dialect.Source(entity)
	if err != nil {
		return "", err
	}
	if alias == "" {
		return name, nil
	}
	return name + " " + alias, nil
}

func (r *Renderer) joinClause(q criteria.EntityQuery) (string, error) {
	var sb strings.Builder
	for _, j := range q.Joins.Of(criteria.JoinLeftOuter) {
		root := criteria.Ref(aliasOr(j.RootAlias, q.Alias), j.RootField)
		if j.IsPath() {
			if !r.dialect.PathJoins {
				return "", pathJoinError(r.dialect, j)
			}
			fmt.Fprintf(&sb, " left outer join %s %s", root, j.AdjoiningAlias)
			continue
		}
		s, err := r.source(j.AdjoiningEntity, j.AdjoiningAlias)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&sb, " left outer join %s on %s = %s", s, root, criteria.Ref(j.AdjoiningAlias, j.AdjoiningField))
	}

	if sb.Len() > 0 {
		r.logger.Debug("join expression built", "entity", q.Entity, "join", sb.String())
	}
	return sb.String(), nil
}

// joinPredicates returns the WHERE equalities of inner and scalar joins.
func joinPredicates(q criteria.EntityQuery) []string {
	var preds []string
	for _, j := range q.Joins.Of(criteria.JoinInner, criteria.JoinScalar) {
		preds = append(preds, criteria.Ref(aliasOr(j.RootAlias, q.Alias), j.RootField)+
			" = "+criteria.Ref(j.AdjoiningAlias, j.AdjoiningField))
	}
	return preds
}

func (r *Renderer) whereClause(ctx *renderContext, q criteria.EntityQuery) (string, error) {
	preds := joinPredicates(q)

	if q.Filter != nil {
		expr, err := r.expression(ctx, q.Filter, q.Alias)
		if err != nil {
			return "", fmt.Errorf("render filter of %s: %w", q.Entity, err)
		}
		if expr != "" {
			preds = append(preds, expr)
		}
	}

	if len(preds) == 0 {
		return "", nil
	}
	where := " where " + strings.Join(preds, " AND ")
	r.logger.Debug("where expression built", "entity", q.Entity, "where", where)
	return where, nil
}

func orderByClause(q criteria.EntityQuery) string {
	if q.Order == nil {
		return ""
	}
	var terms []string
	for node := range q.Order.All() {
		terms = append(terms, OrderTerm(node, q.Alias))
	}
	return " order by " + strings.Join(terms, ", ")
}

// OrderTerm renders one sort key as "<alias>.<field> asc|desc". The node's
// own alias wins over defaultAlias; with neither the field is bare.
func OrderTerm(o *criteria.Order, defaultAlias string) string {
	return criteria.Ref(aliasOr(o.Alias, defaultAlias), o.Field) + " " + o.Direction()
}

func aliasOr(alias, fallback string) string {
	if alias != "" {
		return alias
	}
	return fallback
}
