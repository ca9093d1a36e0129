package memindex

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/twinq/internal/criteria"
	"github.com/roach88/twinq/internal/fieldmap"
	"github.com/roach88/twinq/internal/index"
)

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func products() *Index {
	ix := New()
	ix.Add("Product",
		index.Document{"id": "1", "name_t": "iPhone 15", "brand_s": "apple", "color_s": "black", "price_f": 999.0, "released_dt": day("2023-09-22")},
		index.Document{"id": "2", "name_t": "Galaxy S24", "brand_s": "samsung", "color_s": "black", "price_f": 899.0, "released_dt": day("2024-01-31")},
		index.Document{"id": "3", "name_t": "Pixel 8", "brand_s": "google", "color_s": "white", "price_f": 699.0, "released_dt": day("2023-10-12"), "discontinued": true},
		index.Document{"id": "4", "name_t": "iPad Air", "brand_s": "apple", "color_s": "white", "price_f": 599.0, "released_dt": day("2022-03-18"), "tags": []any{"tablet", "sale"}},
	)
	return ix
}

func ids(docs []index.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = index.FormatValue(d["id"])
	}
	return out
}

func search(t *testing.T, ix *Index, req index.Request) *index.Result {
	t.Helper()
	if req.Entity == "" {
		req.Entity = "Product"
	}
	res, err := ix.Search(context.Background(), req)
	require.NoError(t, err)
	return res
}

func TestSearch_FilterQueries(t *testing.T) {
	tests := []struct {
		name string
		fq   string
		want []string
	}{
		{"equals", `(brand_s:"apple")`, []string{"1", "4"}},
		{"range", `(price_f:[600 TO 900])`, []string{"2", "3"}},
		{"open range", `(price_f:[* TO 650])`, []string{"4"}},
		{"in", `(color_s:("white" OR "red"))`, []string{"3", "4"}},
		{"prefix", `(name_t:ip*)`, []string{"1", "4"}},
		{"escaped space", `(name_t:*pixel\ 8)`, []string{"3"}},
		{"missing", `-(discontinued:*)`, []string{"1", "2", "4"}},
		{"present", `(discontinued:*)`, []string{"3"}},
		{"multi-valued", `(tags:"sale")`, []string{"4"}},
		{"or of and", `((brand_s:"google") OR ((brand_s:"apple") AND -(tags:*)))`, []string{"1", "3"}},
		{"negation anchored in or", `((*:* -(color_s:"black")) OR (brand_s:"samsung"))`, []string{"2", "3", "4"}},
		{"bare negation in or", `(-(color_s:"black") OR (brand_s:"samsung"))`, []string{}},
		{"negation beside optional", `(-(discontinued:*) OR (color_s:"white"))`, []string{"4"}},
		{"nested pure negation", `(brand_s:"apple") AND (-(color_s:"black"))`, []string{}},
		{"negated nested pure negation", `-(-(brand_s:"samsung"))`, []string{"1", "2", "3", "4"}},
		{"anchored double negation", `-(*:* -(brand_s:"samsung"))`, []string{"2"}},
		{"or binds optional", `(brand_s:"samsung") OR (color_s:"white")`, []string{"2", "3", "4"}},
		{"time range", `(released_dt:[2023-01-01T00:00:00Z TO 2023-12-31T00:00:00Z])`, []string{"1", "3"}},
		{"match all", `*:*`, []string{"1", "2", "3", "4"}},
	}

	ix := products()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := search(t, ix, index.Request{FilterQueries: []string{tt.fq}})
			assert.Equal(t, tt.want, ids(res.Documents))
			assert.Equal(t, int64(len(tt.want)), res.Count)
		})
	}
}

func TestSearch_FreeText(t *testing.T) {
	res := search(t, products(), index.Request{Query: "galaxy"})
	assert.Equal(t, []string{"2"}, ids(res.Documents))

	res = search(t, products(), index.Request{Query: "apple black"})
	assert.Equal(t, []string{"1"}, ids(res.Documents), "adjacent terms are conjoined")
}

func TestSearch_SortPageProject(t *testing.T) {
	ix := products()

	res := search(t, ix, index.Request{Sorts: []index.SortClause{{Field: "price_f", Desc: true}}})
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(res.Documents))

	res = search(t, ix, index.Request{
		Sorts:    []index.SortClause{{Field: "price_f"}},
		First:    1,
		PageSize: 2,
		Fields:   []string{"id", "price_f"},
	})
	assert.Equal(t, int64(4), res.Count)
	assert.Equal(t, []index.Document{
		{"id": "3", "price_f": 699.0},
		{"id": "2", "price_f": 899.0},
	}, res.Documents)

	res = search(t, ix, index.Request{First: 10})
	assert.Empty(t, res.Documents)
	assert.Equal(t, int64(4), res.Count)
}

func TestSearch_SortMissingLast(t *testing.T) {
	ix := products()
	for _, desc := range []bool{false, true} {
		res := search(t, ix, index.Request{Sorts: []index.SortClause{{Field: "tags", Desc: desc}, {Field: "id"}}})
		assert.Equal(t, "4", ids(res.Documents)[0])
	}
}

func TestSearch_FacetExclusion(t *testing.T) {
	res := search(t, products(), index.Request{
		FilterQueries: []string{`{!tag=p0}(brand_s:"apple")`},
		Facets:        []string{"{!ex=p0}brand_s", "color_s"},
		FacetQueries:  []string{"{!ex=p0}price_f:[0 TO 700]", "price_f:[0 TO 700]"},
	})

	assert.Equal(t, []string{"1", "4"}, ids(res.Documents))
	assert.Equal(t, []index.FacetCount{
		{Value: "apple", Count: 2},
		{Value: "google", Count: 1},
		{Value: "samsung", Count: 1},
	}, res.Facets["brand_s"])
	assert.Equal(t, map[string]int64{"black": 1, "white": 1}, res.FacetCounts("color_s"))
	assert.Equal(t, int64(1), res.FacetQueries["price_f:[0 TO 700]"], "local params are stripped from the key")
}

func TestSearch_FacetLimit(t *testing.T) {
	res := search(t, products(), index.Request{Facets: []string{"brand_s"}, FacetLimit: 1})
	assert.Equal(t, []index.FacetCount{{Value: "apple", Count: 2}}, res.Facets["brand_s"])
}

func TestSearch_Pivot(t *testing.T) {
	res := search(t, products(), index.Request{PivotFacets: [][]string{{"brand_s", "color_s"}}})

	tree := res.Pivots["brand_s,color_s"]
	require.Len(t, tree, 3)
	assert.Equal(t, "apple", tree[0].Value)
	assert.Equal(t, int64(2), tree[0].Count)
	assert.Equal(t, []index.PivotFacet{
		{Field: "color_s", Value: "black", Count: 1},
		{Field: "color_s", Value: "white", Count: 1},
	}, tree[0].Pivot)
}

func TestSearch_Groups(t *testing.T) {
	res := search(t, products(), index.Request{
		Sorts:        []index.SortClause{{Field: "price_f"}},
		GroupFields:  []string{"brand_s"},
		GroupQueries: []string{`color_s:"black"`},
		GroupSorts:   []index.SortClause{{Field: "price_f", Desc: true}},
		Fields:       []string{"id"},
	})

	brands := res.Groups["brand_s"]
	require.Len(t, brands, 3)
	assert.Equal(t, "apple", brands[0].Value)
	assert.Equal(t, int64(2), brands[0].Count)
	assert.Equal(t, []index.Document{{"id": "1"}}, brands[0].Documents)
	assert.Equal(t, "google", brands[1].Value)

	black := res.Groups[`color_s:"black"`]
	require.Len(t, black, 1)
	assert.Equal(t, int64(2), black[0].Count)
}

func TestSearch_Highlight(t *testing.T) {
	res := search(t, products(), index.Request{Query: "pixel", Highlight: true})
	assert.Equal(t, map[string]map[string][]string{
		"3": {"name_t": {"<em>Pixel</em> 8"}},
	}, res.Highlighting)
}

func TestSearch_Errors(t *testing.T) {
	ix := products()

	_, err := ix.Search(context.Background(), index.Request{Entity: "Product", FilterQueries: []string{`(brand_s:"apple"`}})
	assert.ErrorIs(t, err, ErrUnmatchedParen)

	_, err = ix.Search(context.Background(), index.Request{Entity: "Product", Query: `"open`})
	assert.ErrorIs(t, err, ErrUnterminatedPhrase)

	_, err = ix.Search(context.Background(), index.Request{Entity: "Product", FilterQueries: []string{`price_f:[1 5]`}})
	assert.ErrorIs(t, err, ErrInvalidRange)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = ix.Search(ctx, index.Request{Entity: "Product"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSearch_UnknownEntity(t *testing.T) {
	res := search(t, products(), index.Request{Entity: "Order"})
	assert.Zero(t, res.Count)
	assert.Empty(t, res.Documents)
}

func TestSearch_RenderedRequest(t *testing.T) {
	registry := fieldmap.New(map[string]fieldmap.Entity{
		"Product": {Fields: map[string]fieldmap.Field{
			"name":         {Index: "name_t"},
			"brand":        {Index: "brand_s"},
			"color":        {Index: "color_s"},
			"price":        {Index: "price_f"},
			"released":     {Index: "released_dt"},
			"discontinued": {},
		}},
	})

	brand := criteria.Equals{Field: "brand_s", Value: "apple"}
	q, err := criteria.NewIndexQuery("Product").
		Where(brand).
		And(criteria.Null{Field: "discontinued"}).
		And(criteria.NewOr(
			criteria.Like{Field: "name_t", Value: "IPh", Mode: criteria.MatchStart},
			criteria.Between{Field: "released_dt", From: day("2022-01-01"), To: day("2022-12-31")},
		)).
		Facet("brand", brand).
		OrderBy(criteria.Desc("price")).
		Select("name", "price").
		SelectFunction("id").
		Build()
	require.NoError(t, err)

	req, err := index.NewRenderer(registry).Render(q)
	require.NoError(t, err)

	res := search(t, products(), req)
	assert.Equal(t, int64(2), res.Count)
	assert.Equal(t, []index.Document{
		{"id": "1", "name_t": "iPhone 15", "price_f": 999.0},
		{"id": "4", "name_t": "iPad Air", "price_f": 599.0},
	}, res.Documents)
	assert.Equal(t, map[string]int64{"apple": 2, "google": 1, "samsung": 1}, res.FacetCounts("brand_s"))
}
