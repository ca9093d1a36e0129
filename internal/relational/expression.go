package relational

import (
	"fmt"
	"strings"

	"github.com/roach88/twinq/internal/criteria"
)

// expression renders f. alias is the alias inherited from the enclosing
// group or query; a filter's own alias takes precedence. Every node takes
// the next parameter name in pre-order, whether or not it binds a value.
func (r *Renderer) expression(ctx *renderContext, f criteria.Filter, alias string) (string, error) {
	switch v := f.(type) {
	case criteria.Equals, criteria.Between, criteria.In, criteria.Like,
		criteria.Null, criteria.FieldEquals:
		return r.leaf(ctx, f, fieldRef(f, alias))
	case criteria.Coalesce:
		return r.coalesce(ctx, v, alias)
	case criteria.Exists:
		return r.exists(ctx, v, alias)
	case criteria.Not:
		ctx.names.Next()
		child, err := r.expression(ctx, v.Filter, alias)
		if err != nil || child == "" {
			return "", err
		}
		return "not (" + child + ")", nil
	case criteria.And:
		ctx.names.Next()
		parts, err := r.children(ctx, v.Filters, aliasOr(v.Alias, alias), false)
		if err != nil || len(parts) == 0 {
			return "", err
		}
		return strings.Join(parts, " AND "), nil
	case criteria.Or:
		ctx.names.Next()
		parts, err := r.children(ctx, v.Filters, aliasOr(v.Alias, alias), true)
		if err != nil || len(parts) == 0 {
			return "", err
		}
		return "(" + strings.Join(parts, " OR ") + ")", nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("unsupported filter type: %T", f)
	}
}

// children renders group members, dropping empty ones. Inside an OR, AND
// members are parenthesized to keep their precedence.
func (r *Renderer) children(ctx *renderContext, filters []criteria.Filter, alias string, inOr bool) ([]string, error) {
	parts := make([]string, 0, len(filters))
	for _, child := range filters {
		expr, err := r.expression(ctx, child, alias)
		if err != nil {
			return nil, err
		}
		if expr == "" {
			continue
		}
		if _, isAnd := child.(criteria.And); isAnd && inOr {
			expr = "(" + expr + ")"
		}
		parts = append(parts, expr)
	}
	return parts, nil
}

// leaf renders a single-field filter against ref, which is the qualified
// field or, inside Coalesce, the coalesce call wrapping it.
func (r *Renderer) leaf(ctx *renderContext, f criteria.Filter, ref string) (string, error) {
	name := ctx.names.Next()

	switch v := f.(type) {
	case criteria.Equals:
		return ref + " = " + ctx.bind(name, v.Value), nil
	case criteria.Between:
		switch {
		case v.To == nil:
			return ref + " >= " + ctx.bind(name+"b1", v.From), nil
		case v.From == nil:
			return ref + " <= " + ctx.bind(name+"b2", v.To), nil
		}
		return ref + " between " + ctx.bind(name+"b1", v.From) + " AND " + ctx.bind(name+"b2", v.To), nil
	case criteria.In:
		markers := make([]string, len(v.Values))
		for i, value := range v.Values {
			markers[i] = ctx.bind(fmt.Sprintf("%s_%d", name, i), value)
		}
		return ref + " in (" + strings.Join(markers, ", ") + ")", nil
	case criteria.Like:
		marker := ctx.bind(name, LikePattern(v.Value, v.Mode))
		return "(lower(" + ref + ") like " + marker + " escape '" + LikeEscape + "')", nil
	case criteria.Null:
		return ref + " is null", nil
	case criteria.FieldEquals:
		return ref + " = " + v.Other, nil
	default:
		return "", criteria.NewInvalidArgument(f.Kind(), "not a single-field filter")
	}
}

func (r *Renderer) coalesce(ctx *renderContext, c criteria.Coalesce, alias string) (string, error) {
	name := ctx.names.Next()
	ref := "coalesce(" + fieldRef(c.Filter, alias) + ", " + ctx.bind(name, c.Default) + ")"
	return r.leaf(ctx, c.Filter, ref)
}

// exists renders the sub-query with its aliases prefixed by the outer alias,
// sharing this render's parameter names.
func (r *Renderer) exists(ctx *renderContext, e criteria.Exists, alias string) (string, error) {
	ctx.names.Next()
	sub := e.Query.WithAliasPrefix(alias)
	text, err := r.query(ctx, sub, false)
	if err != nil {
		return "", fmt.Errorf("render exists sub-query on %s: %w", sub.Entity, err)
	}
	return "exists (" + text + ")", nil
}

// fieldRef qualifies a single-field filter's field with its own alias or the
// inherited one.
func fieldRef(f criteria.Filter, alias string) string {
	switch v := f.(type) {
	case criteria.Equals:
		return criteria.Ref(aliasOr(v.Alias, alias), v.Field)
	case criteria.Between:
		return criteria.Ref(aliasOr(v.Alias, alias), v.Field)
	case criteria.In:
		return criteria.Ref(aliasOr(v.Alias, alias), v.Field)
	case criteria.Like:
		return criteria.Ref(aliasOr(v.Alias, alias), v.Field)
	case criteria.Null:
		return criteria.Ref(aliasOr(v.Alias, alias), v.Field)
	case criteria.FieldEquals:
		return criteria.Ref(aliasOr(v.Alias, alias), v.Field)
	default:
		return ""
	}
}
