package relational

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/roach88/twinq/internal/criteria"
)

// Criteria is the structured form of an entity query: a predicate tree plus
// the sources, joins and sort terms needed to execute it. It selects the same
// rows as the text rendered by Render for the same query.
//
// Pagination is left to the executor.
type Criteria struct {
	Entity   string
	Alias    string
	Sources  []criteria.Join // inner and scalar joins, listed in FROM
	Outer    []criteria.Join // left outer joins
	Where    sq.Sqlizer      // nil when nothing is filtered
	OrderBy  []string
	First    int
	PageSize int
	UseCache bool
	Count    bool
	Distinct bool

	dialect Dialect
}

// Criteria builds the structured form of q. Coalesce and Exists have no
// structured form and fail with an unsupported error.
func (r *Renderer) Criteria(q criteria.EntityQuery) (*Criteria, error) {
	if err := criteria.Check(q.Filter); err != nil {
		return nil, err
	}

	var preds sq.And
	for _, p := range joinPredicates(q) {
		preds = append(preds, sq.Expr(p))
	}

	if q.Filter != nil {
		c, err := r.criterion(q.Filter, q.Alias)
		if err != nil {
			return nil, fmt.Errorf("build criteria of %s: %w", q.Entity, err)
		}
		if c != nil {
			preds = append(preds, c)
		}
	}

	out := &Criteria{
		Entity:   q.Entity,
		Alias:    q.Alias,
		Sources:  q.Joins.Of(criteria.JoinInner, criteria.JoinScalar),
		Outer:    q.Joins.Of(criteria.JoinLeftOuter),
		First:    q.First,
		PageSize: q.PageSize,
		UseCache: q.UseCache,
		Count:    q.Count,
		Distinct: q.Distinct,
		dialect:  r.dialect,
	}
	switch len(preds) {
	case 0:
	case 1:
		out.Where = preds[0]
	default:
		out.Where = preds
	}
	if !q.Count {
		for node := range q.Order.All() {
			out.OrderBy = append(out.OrderBy, OrderTerm(node, q.Alias))
		}
	}
	return out, nil
}

// Aliases returns the aliases usable in criteria restrictions besides the
// root alias. Only left outer joins create one.
func (c *Criteria) Aliases() []string {
	aliases := make([]string, 0, len(c.Outer))
	for _, j := range c.Outer {
		aliases = append(aliases, j.AdjoiningAlias)
	}
	return aliases
}

// Select assembles a select builder in the renderer's dialect.
func (c *Criteria) Select() (sq.SelectBuilder, error) {
	d := c.dialect
	if d.Projection == nil {
		d = HQL
	}

	proj, err := d.Projection(c.Entity, c.Alias, c.Distinct, c.Count)
	if err != nil {
		return sq.SelectBuilder{}, err
	}

	root, err := sourceOf(d, c.Entity, c.Alias)
	if err != nil {
		return sq.SelectBuilder{}, err
	}

	b := sq.Select(proj).From(root)
	for _, j := range c.Outer {
		rootRef := criteria.Ref(aliasOr(j.RootAlias, c.Alias), j.RootField)
		if j.IsPath() {
			if !d.PathJoins {
				return sq.SelectBuilder{}, pathJoinError(d, j)
			}
			b = b.LeftJoin(rootRef + " " + j.AdjoiningAlias)
			continue
		}
		s, err := sourceOf(d, j.AdjoiningEntity, j.AdjoiningAlias)
		if err != nil {
			return sq.SelectBuilder{}, err
		}
		b = b.LeftJoin(s + " ON " + rootRef + " = " + criteria.Ref(j.AdjoiningAlias, j.AdjoiningField))
	}
	for _, j := range c.Sources {
		s, err := sourceOf(d, j.AdjoiningEntity, j.AdjoiningAlias)
		if err != nil {
			return sq.SelectBuilder{}, err
		}
		b = b.CrossJoin(s)
	}
	if c.Where != nil {
		b = b.Where(c.Where)
	}
	if len(c.OrderBy) > 0 {
		b = b.OrderBy(c.OrderBy...)
	}
	return b, nil
}

// ToSql renders the criteria with ? placeholders.
func (c *Criteria) ToSql() (string, []any, error) {
	b, err := c.Select()
	if err != nil {
		return "", nil, err
	}
	return b.ToSql()
}

func sourceOf(d Dialect, entity, alias string) (string, error) {
	name, err := d.Source(entity)
	if err != nil {
		return "", err
	}
	if alias == "" {
		return name, nil
	}
	return name + " " + alias, nil
}

// criterion builds the structured predicate for f. It returns nil for
// filters that select everything (empty groups).
func (r *Renderer) criterion(f criteria.Filter, alias string) (sq.Sqlizer, error) {
	switch v := f.(type) {
	case criteria.Equals:
		return sq.Eq{fieldRef(v, alias): v.Value}, nil
	case criteria.Between:
		ref := fieldRef(v, alias)
		switch {
		case v.To == nil:
			return sq.GtOrEq{ref: v.From}, nil
		case v.From == nil:
			return sq.LtOrEq{ref: v.To}, nil
		}
		return sq.Expr(ref+" BETWEEN ? AND ?", v.From, v.To), nil
	case criteria.In:
		return sq.Eq{fieldRef(v, alias): v.Values}, nil
	case criteria.Like:
		return sq.Expr("lower("+fieldRef(v, alias)+") LIKE ? ESCAPE '"+LikeEscape+"'", LikePattern(v.Value, v.Mode)), nil
	case criteria.Null:
		return sq.Eq{fieldRef(v, alias): nil}, nil
	case criteria.FieldEquals:
		return sq.Expr(fieldRef(v, alias) + " = " + v.Other), nil
	case criteria.Coalesce, criteria.Exists:
		return nil, criteria.NewUnsupported(f.Kind(), criteria.BackendCriteria)
	case criteria.Not:
		child, err := r.criterion(v.Filter, alias)
		if err != nil || child == nil {
			return nil, err
		}
		return sq.Expr("NOT (?)", child), nil
	case criteria.And:
		children, err := r.criterionList(v.Filters, aliasOr(v.Alias, alias))
		if err != nil || len(children) == 0 {
			return nil, err
		}
		return sq.And(children), nil
	case criteria.Or:
		children, err := r.criterionList(v.Filters, aliasOr(v.Alias, alias))
		if err != nil || len(children) == 0 {
			return nil, err
		}
		return sq.Or(children), nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported filter type: %T", f)
	}
}

func (r *Renderer) criterionList(filters []criteria.Filter, alias string) ([]sq.Sqlizer, error) {
	out := make([]sq.Sqlizer, 0, len(filters))
	for _, child := range filters {
		c, err := r.criterion(child, alias)
		if err != nil {
			return nil, err
		}
		if c != nil {
			out = append(out, c)
		}
	}
	return out, nil
}
