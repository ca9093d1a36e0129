package criteria

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEntityQuery_Defaults(t *testing.T) {
	q, err := NewEntityQuery("OrderLine").Build()
	require.NoError(t, err)

	assert.Equal(t, "OrderLine", q.Entity)
	assert.Equal(t, "orderLine", q.Alias)
	assert.True(t, q.UseCache)
	assert.False(t, q.Count)
	assert.Nil(t, q.Filter)
}

func TestEntityQueryBuilder_Immutable(t *testing.T) {
	eq, _ := NewEquals("status", "active")
	base := NewEntityQuery("User").As("u")

	withFilter := base.Where(eq)
	counted := withFilter.Count(true)

	q1, err := base.Build()
	require.NoError(t, err)
	q2, err := withFilter.Build()
	require.NoError(t, err)
	q3, err := counted.Build()
	require.NoError(t, err)

	assert.Nil(t, q1.Filter)
	assert.Equal(t, eq, q2.Filter)
	assert.False(t, q2.Count)
	assert.True(t, q3.Count)
}

func TestEntityQueryBuilder_OrderByAppends(t *testing.T) {
	b := NewEntityQuery("User").OrderBy(Desc("createdAt"))
	b2 := b.OrderBy(Asc("name"))

	q, err := b.Build()
	require.NoError(t, err)
	q2, err := b2.Build()
	require.NoError(t, err)

	assert.Equal(t, 1, q.Order.Len())
	assert.Equal(t, 2, q2.Order.Len())
}

func TestEntityQueryBuilder_Errors(t *testing.T) {
	_, err := NewEntityQuery("").Build()
	assert.True(t, IsInvalidArgument(err))

	_, err = NewEntityQuery("User").As("u_x").Build()
	assert.True(t, IsInvalidArgument(err))

	_, err = NewEntityQuery("User").Page(-1, 10).Build()
	assert.True(t, IsInvalidArgument(err))

	_, err = NewEntityQuery("User").Where(In{Field: "id"}).Build()
	assert.True(t, IsInvalidArgument(err), "struct literal filters are checked")

	_, err = NewEntityQuery("User").Join(InnerJoin("u", "id", "", "c", "")).Build()
	assert.True(t, IsInvalidArgument(err))
}

func TestEntityQueryBuilder_And(t *testing.T) {
	a, _ := NewEquals("a", 1)
	b, _ := NewEquals("b", 2)

	q, err := NewEntityQuery("User").And(a).And(b).Build()
	require.NoError(t, err)

	g, ok := q.Filter.(And)
	require.True(t, ok)
	assert.Len(t, g.Filters, 2)
}

func TestEntityQuery_WithAliasPrefix(t *testing.T) {
	eq := Equals{Alias: "u", Field: "status", Value: "x"}
	q, err := NewEntityQuery("User").As("u").
		Join(LeftJoin("u", "roles", "r")).
		Where(eq).
		OrderBy(NewOrder("name", "u", false)).
		Build()
	require.NoError(t, err)

	p := q.WithAliasPrefix("o")
	assert.Equal(t, "o_u", p.Alias)
	assert.Equal(t, "o_r", p.Joins.All()[0].AdjoiningAlias)
	assert.Equal(t, "o_u", p.Joins.All()[0].RootAlias)
	assert.Equal(t, "o_u", AliasOf(p.Filter))
	assert.Equal(t, "o_u", p.Order.Alias)

	assert.Equal(t, p, p.WithAliasPrefix("o"), "prefixing twice is a no-op")
	assert.Equal(t, "u", q.Alias, "original untouched")
}

func TestIndexQueryBuilder(t *testing.T) {
	eq, _ := NewEquals("status", "active")

	q, err := NewIndexQuery("Product").
		Search("phone").
		Where(eq).
		Facet("brand", nil).
		Facet("brand", eq).
		FacetQuery("price:[0 TO 10]", nil).
		Pivot("brand", "color").
		Select("name", "price", "name").
		SelectFunction("score").
		GroupBy("brand").
		GroupLimit(3).
		OrderBy(Desc("price")).
		GroupOrderBy(Asc("name")).
		Page(20, 10).
		FacetLimit(5).
		Highlight(true).
		Spellcheck(true).
		Build()
	require.NoError(t, err)

	assert.Equal(t, "phone", q.Query)
	require.Len(t, q.Facets, 1, "facets are unique per field")
	assert.NotNil(t, q.Facets[0].Exclude, "last facet wins")
	assert.Equal(t, []string{"name", "price"}, q.Fields)
	assert.Equal(t, []string{"score"}, q.FunctionFields)
	assert.Equal(t, [][]string{{"brand", "color"}}, q.PivotFacets)
	assert.Equal(t, 3, q.GroupLimit)
	assert.Equal(t, 20, q.First)
	assert.Equal(t, 10, q.PageSize)
	assert.True(t, q.Excludes())
	assert.True(t, q.Highlight)
	assert.True(t, q.Spellcheck)
}

func TestIndexQueryBuilder_Errors(t *testing.T) {
	_, err := NewIndexQuery("").Build()
	assert.True(t, IsInvalidArgument(err))

	_, err = NewIndexQuery("Product").GroupLimit(-1).Build()
	assert.True(t, IsInvalidArgument(err))
}
