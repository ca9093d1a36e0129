package request

import (
	"fmt"

	"github.com/roach88/twinq/internal/criteria"
)

// Filter is one node of a filter tree. Exactly one operator must be set.
type Filter struct {
	Alias string `yaml:"alias,omitempty" json:"alias,omitempty"`

	Equals      *FieldValue  `yaml:"equals,omitempty" json:"equals,omitempty"`
	Between     *Range       `yaml:"between,omitempty" json:"between,omitempty"`
	In          *FieldValues `yaml:"in,omitempty" json:"in,omitempty"`
	Like        *Pattern     `yaml:"like,omitempty" json:"like,omitempty"`
	Null        *FieldRef    `yaml:"null,omitempty" json:"null,omitempty"`
	FieldEquals *FieldPair   `yaml:"field_equals,omitempty" json:"field_equals,omitempty"`
	Coalesce    *Coalesce    `yaml:"coalesce,omitempty" json:"coalesce,omitempty"`
	Exists      *Request     `yaml:"exists,omitempty" json:"exists,omitempty"`
	Not         *Filter      `yaml:"not,omitempty" json:"not,omitempty"`
	And         []*Filter    `yaml:"and,omitempty" json:"and,omitempty"`
	Or          []*Filter    `yaml:"or,omitempty" json:"or,omitempty"`
	ID          any          `yaml:"id,omitempty" json:"id,omitempty"`
}

// FieldValue is a field and one value.
type FieldValue struct {
	Field string `yaml:"field" json:"field"`
	Value any    `yaml:"value" json:"value"`
}

// Range is an inclusive range; either bound may be omitted.
type Range struct {
	Field string `yaml:"field" json:"field"`
	From  any    `yaml:"from,omitempty" json:"from,omitempty"`
	To    any    `yaml:"to,omitempty" json:"to,omitempty"`
}

// FieldValues is a field and a list of values.
type FieldValues struct {
	Field  string `yaml:"field" json:"field"`
	Values []any  `yaml:"values" json:"values"`
}

// Pattern is a like match; mode is exact, start, end or anywhere (default).
type Pattern struct {
	Field string `yaml:"field" json:"field"`
	Value string `yaml:"value" json:"value"`
	Mode  string `yaml:"mode,omitempty" json:"mode,omitempty"`
}

// FieldRef names a field.
type FieldRef struct {
	Field string `yaml:"field" json:"field"`
}

// FieldPair compares two fields.
type FieldPair struct {
	Field string `yaml:"field" json:"field"`
	Other string `yaml:"other" json:"other"`
}

// Coalesce substitutes a default for a missing field value.
type Coalesce struct {
	Filter  *Filter `yaml:"filter" json:"filter"`
	Default any     `yaml:"default" json:"default"`
}

type buildContext struct {
	keys   criteria.KeyResolver
	entity string
	path   string
}

func (c buildContext) at(format string, args ...any) buildContext {
	c.path += fmt.Sprintf(format, args...)
	return c
}

func (c buildContext) errorf(err error) error {
	return fmt.Errorf("%s: %w", c.path, err)
}

// operators counts the operators set on the node.
func (f *Filter) operators() int {
	n := 0
	for _, set := range []bool{
		f.Equals != nil, f.Between != nil, f.In != nil, f.Like != nil,
		f.Null != nil, f.FieldEquals != nil, f.Coalesce != nil, f.Exists != nil,
		f.Not != nil, f.And != nil, f.Or != nil, f.ID != nil,
	} {
		if set {
			n++
		}
	}
	return n
}

// build converts the node. A nil node builds a nil filter.
func (f *Filter) build(ctx buildContext) (criteria.Filter, error) {
	if f == nil {
		return nil, nil
	}
	if n := f.operators(); n != 1 {
		return nil, ctx.errorf(criteria.NewInvalidArgument("", "filter node must set exactly one operator, got %d", n))
	}

	out, err := f.operator(ctx)
	if err != nil {
		return nil, err
	}
	if f.Alias != "" {
		if err := criteria.CheckAlias(f.Alias); err != nil {
			return nil, ctx.errorf(err)
		}
		out = criteria.SetAlias(out, f.Alias)
	}
	return out, nil
}

func (f *Filter) operator(ctx buildContext) (criteria.Filter, error) {
	var out criteria.Filter
	var err error

	switch {
	case f.Equals != nil:
		out, err = criteria.NewEquals(f.Equals.Field, f.Equals.Value)
	case f.Between != nil:
		out, err = criteria.NewBetween(f.Between.Field, f.Between.From, f.Between.To)
	case f.In != nil:
		out, err = criteria.NewIn(f.In.Field, f.In.Values...)
	case f.Like != nil:
		mode, perr := criteria.ParseMatchMode(f.Like.Mode)
		if perr != nil {
			return nil, ctx.errorf(perr)
		}
		out, err = criteria.NewLike(f.Like.Field, f.Like.Value, mode)
	case f.Null != nil:
		out, err = criteria.NewNull(f.Null.Field)
	case f.FieldEquals != nil:
		out, err = criteria.NewFieldEquals(f.FieldEquals.Field, f.FieldEquals.Other)
	case f.Coalesce != nil:
		inner, ierr := f.Coalesce.Filter.build(ctx.at(".coalesce"))
		if ierr != nil {
			return nil, ierr
		}
		out, err = criteria.NewCoalesce(inner, f.Coalesce.Default)
	case f.Exists != nil:
		sub, serr := f.Exists.EntityQuery(ctx.keys)
		if serr != nil {
			return nil, ctx.at(".exists").errorf(serr)
		}
		out, err = criteria.NewExists(sub)
	case f.Not != nil:
		child, cerr := f.Not.build(ctx.at(".not"))
		if cerr != nil {
			return nil, cerr
		}
		out, err = criteria.NewNot(child)
	case f.And != nil:
		children, cerr := buildAll(ctx.at(".and"), f.And)
		if cerr != nil {
			return nil, cerr
		}
		out = criteria.NewAnd(children...)
	case f.Or != nil:
		children, cerr := buildAll(ctx.at(".or"), f.Or)
		if cerr != nil {
			return nil, cerr
		}
		out = criteria.NewOr(children...)
	case f.ID != nil:
		if ctx.keys == nil {
			return nil, ctx.errorf(fmt.Errorf("id filter needs a key resolver"))
		}
		out, err = criteria.ID(ctx.keys, ctx.entity, "", f.ID)
	}
	if err != nil {
		return nil, ctx.errorf(err)
	}
	return out, nil
}

func buildAll(ctx buildContext, nodes []*Filter) ([]criteria.Filter, error) {
	out := make([]criteria.Filter, 0, len(nodes))
	for i, n := range nodes {
		f, err := n.build(ctx.at("[%d]", i))
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}
