package criteria

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck_StructLiterals(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		valid  bool
	}{
		{"nil", nil, true},
		{"equals", Equals{Field: "a", Value: 1}, true},
		{"equals nil value", Equals{Field: "a"}, false},
		{"between open", Between{Field: "a"}, false},
		{"in empty", In{Field: "a", Values: []any{}}, false},
		{"in nil element", In{Field: "a", Values: []any{1, nil}}, false},
		{"like bad mode", Like{Field: "a", Mode: MatchMode(9)}, false},
		{"null", Null{Field: "a"}, true},
		{"null blank field", Null{}, false},
		{"field equals", FieldEquals{Field: "a", Other: "o.b"}, true},
		{"field equals bare other", FieldEquals{Field: "a", Other: "b"}, true},
		{"field equals prefixed other", FieldEquals{Field: "a", Other: "u_o.customer_id"}, true},
		{"field equals blank other", FieldEquals{Field: "a", Other: " "}, false},
		{"field equals other expression", FieldEquals{Field: "a", Other: "lower(o.b)"}, false},
		{"field equals other with clause", FieldEquals{Field: "a", Other: "o.b OR 1=1"}, false},
		{"field equals other trailing dot", FieldEquals{Field: "a", Other: "o."}, false},
		{"not nil", Not{}, false},
		{"nested invalid", And{Filters: []Filter{Or{Filters: []Filter{In{Field: "a"}}}}}, false},
		{"exists without entity", Exists{}, false},
		{"exists", Exists{Query: EntityQuery{Entity: "Order", Alias: "o"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(tt.filter)
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			assert.True(t, IsInvalidArgument(err), "got %v", err)
		})
	}
}

func TestValidate_Portable(t *testing.T) {
	eq, _ := NewEquals("a", 1)
	like, _ := NewLike("b", "x", MatchStart)

	result := Validate(NewOr(eq, like))
	assert.True(t, result.Portable())
	assert.Empty(t, result.Warnings)
}

func TestValidate_Coalesce(t *testing.T) {
	eq, _ := NewEquals("a", 1)
	c, err := NewCoalesce(eq, 0)
	require.NoError(t, err)

	result := Validate(NewAnd(eq, c))
	assert.False(t, result.Portable())
	assert.True(t, result.Supported[BackendRelational])
	assert.False(t, result.Supported[BackendCriteria])
	assert.False(t, result.Supported[BackendIndex])
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "filter.and[1]: coalesce filter cannot be rendered by criteria, index", result.Warnings[0])
}

func TestValidate_FieldEqualsInsideExists(t *testing.T) {
	fe, _ := NewFieldEquals("orderId", "u.id")
	sub := EntityQuery{Entity: "Order", Alias: "o", Filter: fe}

	result := Validate(Exists{Query: sub})
	assert.True(t, result.Supported[BackendRelational])
	assert.False(t, result.Supported[BackendIndex])
	assert.Len(t, result.Warnings, 2)
}

func TestSupports(t *testing.T) {
	assert.True(t, Supports(KindEquals, BackendIndex))
	assert.False(t, Supports(KindExists, BackendCriteria))
	assert.True(t, Supports(KindFieldEquals, BackendCriteria))
	assert.False(t, Supports(KindFieldEquals, BackendIndex))
}

func TestNamer(t *testing.T) {
	n := NewNamer("")
	assert.Equal(t, "p0", n.Next())
	assert.Equal(t, "p1", n.Next())

	q := NewNamer("q")
	assert.Equal(t, "q0", q.Next())
}
