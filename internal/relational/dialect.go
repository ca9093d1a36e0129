package relational

import (
	"fmt"

	"github.com/roach88/twinq/internal/criteria"
)

// TableResolver maps entities to physical tables for the SQL dialect.
type TableResolver interface {
	Table(entity string) (string, error)
	PrimaryKey(entity string) (string, error)
}

// Dialect controls the parts of the rendered text that differ between an
// object query language and plain SQL.
type Dialect struct {
	// Name identifies the dialect in logs and errors.
	Name string

	// Projection renders the select list.
	Projection func(entity, alias string, distinct, count bool) (string, error)

	// Source renders the FROM target of an entity.
	Source func(entity string) (string, error)

	// PathJoins reports whether left outer joins may navigate an
	// association path (root.field alias) instead of naming the entity.
	PathJoins bool
}

// HQL renders entity names and selects whole entities by alias:
//
//	select distinct u from User u where u.status = :p0
var HQL = Dialect{
	Name: "hql",
	Projection: func(_, alias string, distinct, count bool) (string, error) {
		sel := alias
		if distinct {
			sel = "distinct " + alias
		}
		if count {
			return "count(" + sel + ")", nil
		}
		return sel, nil
	},
	Source: func(entity string) (string, error) {
		return entity, nil
	},
	PathJoins: true,
}

// SQL renders table names and column projections resolved through tables:
//
//	select u.* from users u where u.status = :p0
func SQL(tables TableResolver) Dialect {
	return Dialect{
		Name: "sql",
		Projection: func(entity, alias string, distinct, count bool) (string, error) {
			all := "*"
			if alias != "" {
				all = alias + ".*"
			}
			switch {
			case count && distinct:
				pk, err := tables.PrimaryKey(entity)
				if err != nil {
					return "", fmt.Errorf("resolve primary key of %s: %w", entity, err)
				}
				return "count(distinct " + criteria.Ref(alias, pk) + ")", nil
			case count:
				return "count(*)", nil
			case distinct:
				return "distinct " + all, nil
			}
			return all, nil
		},
		Source: func(entity string) (string, error) {
			table, err := tables.Table(entity)
			if err != nil {
				return "", fmt.Errorf("resolve table of %s: %w", entity, err)
			}
			return table, nil
		},
	}
}

// ParseDialect maps a dialect name to a Dialect. tables is only used by SQL.
func ParseDialect(name string, tables TableResolver) (Dialect, error) {
	switch name {
	case "", "hql":
		return HQL, nil
	case "sql":
		if tables == nil {
			return Dialect{}, fmt.Errorf("sql dialect requires a table resolver")
		}
		return SQL(tables), nil
	default:
		return Dialect{}, fmt.Errorf("unknown dialect %q", name)
	}
}

func pathJoinError(d Dialect, j criteria.Join) error {
	return &criteria.Error{
		Code:    criteria.ErrCodeUnsupported,
		Message: fmt.Sprintf("%s dialect cannot render path join %s", d.Name, criteria.Ref(j.RootAlias, j.RootField)),
	}
}
