package criteria

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrder_AppendAtTail(t *testing.T) {
	o := Desc("createdAt").Append(Asc("name")).Append(Asc("id"))

	var fields []string
	for node := range o.All() {
		fields = append(fields, node.Field+" "+node.Direction())
	}
	assert.Equal(t, []string{"createdAt desc", "name asc", "id asc"}, fields)
	assert.Equal(t, 3, o.Len())
	assert.Equal(t, "id", o.Tail().Field)
}

func TestOrder_NilReceiver(t *testing.T) {
	var o *Order
	assert.Equal(t, 0, o.Len())
	assert.Nil(t, o.Tail())
	assert.Nil(t, o.Clone())

	head := o.Append(Asc("a"))
	require.NotNil(t, head)
	assert.Equal(t, "a", head.Field)
}

func TestOrder_AppendOwnNodeKeepsChain(t *testing.T) {
	a, b := Asc("a"), Asc("b")
	o := a.Append(b)

	assert.Same(t, o, o.Append(o))
	assert.Same(t, o, o.Append(b), "tail")
	assert.Same(t, b, b.Append(a), "head of a chain ending in b")
	assert.Equal(t, 2, o.Len())
	assert.Same(t, b, o.Tail())
	assert.Nil(t, b.Then)
}

func TestOrdersOf(t *testing.T) {
	o := OrdersOf(true, "a", "b", "c")
	require.Equal(t, 3, o.Len())
	assert.True(t, o.Reverse)
	assert.False(t, o.Then.Reverse)
	assert.False(t, o.Then.Then.Reverse)

	assert.Nil(t, OrdersOf(false))
}

func TestOrder_CloneIsDeep(t *testing.T) {
	o := Asc("a").Append(Asc("b"))
	c := o.Clone()
	c.Then.Field = "changed"

	assert.Equal(t, "b", o.Then.Field)
}

func TestOrder_WithAliasPrefix(t *testing.T) {
	o := NewOrder("a", "u", false).Append(Asc("b"))

	p := o.WithAliasPrefix("x")
	assert.Equal(t, "x_u", p.Alias)
	assert.Equal(t, "", p.Then.Alias)
	assert.Equal(t, "u", o.Alias, "original chain untouched")

	assert.Equal(t, "x_u", p.WithAliasPrefix("x").Alias)
}
