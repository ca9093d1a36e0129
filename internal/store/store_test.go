package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/twinq/internal/criteria"
	"github.com/roach88/twinq/internal/relational"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(DriverSQLite, path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file was not created")
	assert.Equal(t, DriverSQLite, s.Driver())
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open("oracle", "whatever")
	assert.ErrorContains(t, err, `unsupported driver "oracle"`)
}

func TestRun_WithoutRenderer(t *testing.T) {
	s, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Run(context.Background(), criteria.EntityQuery{Entity: "User", Alias: "u"})
	assert.ErrorContains(t, err, "no renderer")
}

func build(t *testing.T, b criteria.EntityQueryBuilder) criteria.EntityQuery {
	t.Helper()
	q, err := b.Build()
	require.NoError(t, err)
	return q
}

// runBoth executes q in text and criteria mode and checks both agree.
func runBoth(t *testing.T, s *Store, q criteria.EntityQuery) *Result {
	t.Helper()
	ctx := context.Background()

	q.UseCriteria = false
	text, err := s.Run(ctx, q)
	require.NoError(t, err)

	q.UseCriteria = true
	structured, err := s.Run(ctx, q)
	require.NoError(t, err)

	assert.Equal(t, text, structured, "text and criteria mode disagree")
	return text
}

func TestRun_Filters(t *testing.T) {
	tests := []struct {
		name   string
		filter criteria.Filter
		want   []int64
	}{
		{"equals", criteria.Equals{Field: "status", Value: "active"}, []int64{1, 2}},
		{"between", criteria.Between{Field: "age", From: 40, To: 90}, []int64{2, 3}},
		{"between open", criteria.Between{Field: "age", To: 40}, []int64{1}},
		{"in", criteria.In{Field: "status", Values: []any{"inactive", "pending"}}, []int64{3, 4}},
		{"like anywhere", criteria.Like{Field: "name", Value: "TUR", Mode: criteria.MatchAnywhere}, []int64{2}},
		{"like start", criteria.Like{Field: "name", Value: "a", Mode: criteria.MatchStart}, []int64{1, 2}},
		{"like escapes wildcards", criteria.Like{Field: "name", Value: "% Bob_", Mode: criteria.MatchEnd}, []int64{4}},
		{"like literal percent", criteria.Like{Field: "name", Value: "%", Mode: criteria.MatchExact}, nil},
		{"null", criteria.Null{Field: "deletedAt"}, []int64{1, 2, 4}},
		{"not", criteria.Not{Filter: criteria.Equals{Field: "status", Value: "active"}}, []int64{3, 4}},
		{"or of and", criteria.NewOr(
			criteria.NewAnd(criteria.Equals{Field: "status", Value: "active"}, criteria.Between{Field: "age", From: 40}),
			criteria.Equals{Field: "status", Value: "pending"},
		), []int64{2, 4}},
		{"empty group", criteria.NewAnd(), []int64{1, 2, 3, 4}},
	}

	s := createTestStore(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := build(t, criteria.NewEntityQuery("User").Where(tt.filter).OrderBy(criteria.Asc("id")))
			res := runBoth(t, s, q)
			if tt.want == nil {
				assert.Empty(t, res.Rows)
				return
			}
			assert.Equal(t, tt.want, rowIDs(res.Rows))
		})
	}
}

func TestRun_Pagination(t *testing.T) {
	s := createTestStore(t)

	res := runBoth(t, s, build(t, criteria.NewEntityQuery("User").OrderBy(criteria.Asc("id")).Page(1, 2)))
	assert.Equal(t, []int64{2, 3}, rowIDs(res.Rows))
	assert.Equal(t, int64(4), res.Count, "count is the total before paging")

	res = runBoth(t, s, build(t, criteria.NewEntityQuery("User").OrderBy(criteria.Asc("id")).Page(2, 0)))
	assert.Equal(t, []int64{3, 4}, rowIDs(res.Rows), "offset without page size")
	assert.Equal(t, int64(4), res.Count)

	res = runBoth(t, s, build(t, criteria.NewEntityQuery("User").OrderBy(criteria.Desc("id")).Page(0, 1)))
	assert.Equal(t, []int64{4}, rowIDs(res.Rows))
	assert.Equal(t, int64(4), res.Count)

	res = runBoth(t, s, build(t, criteria.NewEntityQuery("User").OrderBy(criteria.Asc("id")).Page(0, 10)))
	assert.Len(t, res.Rows, 4)
	assert.Equal(t, int64(4), res.Count, "a short first page holds every match")
}

func TestRun_PaginatedCountFollowsFilter(t *testing.T) {
	s := createTestStore(t)

	res := runBoth(t, s, build(t, criteria.NewEntityQuery("User").
		Where(criteria.Equals{Field: "status", Value: "active"}).
		OrderBy(criteria.Asc("id")).
		Page(1, 1)))
	assert.Len(t, res.Rows, 1)
	assert.Equal(t, int64(2), res.Count)
}

func TestRun_Count(t *testing.T) {
	s := createTestStore(t)

	res := runBoth(t, s, build(t, criteria.NewEntityQuery("User").
		Where(criteria.Equals{Field: "status", Value: "active"}).
		OrderBy(criteria.Asc("id")).
		Page(1, 1).
		Count(true)))
	assert.Equal(t, int64(2), res.Count, "count ignores order and paging")
	assert.Nil(t, res.Rows)
}

func TestRun_InnerJoin(t *testing.T) {
	s := createTestStore(t)

	q := build(t, criteria.NewEntityQuery("User").
		Join(criteria.InnerJoin("", "id", "Order", "o", "customerId")).
		Where(criteria.NewAnd(criteria.Equals{Alias: "o", Field: "status", Value: "open"})).
		Distinct(true).
		OrderBy(criteria.Asc("id")))

	res := runBoth(t, s, q)
	assert.Equal(t, []int64{1, 3}, rowIDs(res.Rows))
}

func TestRun_ExistsTextOnly(t *testing.T) {
	s := createTestStore(t)

	sub := build(t, criteria.NewEntityQuery("Order").
		As("o").
		Where(criteria.NewAnd(
			criteria.FieldEquals{Field: "customerId", Other: "u.id"},
			criteria.Between{Field: "total", From: 50},
		)))
	q := build(t, criteria.NewEntityQuery("User").
		As("u").
		Where(criteria.Exists{Query: sub}).
		OrderBy(criteria.Asc("id")))

	res, err := s.Run(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, rowIDs(res.Rows))

	q.UseCriteria = true
	_, err = s.Run(context.Background(), q)
	assert.True(t, criteria.IsUnsupported(err))
}

func TestRun_Coalesce(t *testing.T) {
	s := createTestStore(t)

	q := build(t, criteria.NewEntityQuery("User").
		Where(criteria.Coalesce{Filter: criteria.Between{Field: "age", To: 10}, Default: 0}).
		OrderBy(criteria.Asc("id")))

	res, err := s.Run(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, []int64{4}, rowIDs(res.Rows), "missing age counts as zero")
}

func TestExecute_Statement(t *testing.T) {
	s := createTestStore(t)

	stmt := relational.Statement{
		Text:   "select u.* from users u where u.status = :p0 and u.age > :p1 order by u.id",
		Params: []relational.Param{{Name: "p0", Value: "active"}, {Name: "p1", Value: 40}},
	}
	res, err := s.Execute(context.Background(), stmt)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, rowIDs(res.Rows))
	assert.Equal(t, "Alan Turing", res.Rows[0]["name"])

	_, err = s.Execute(context.Background(), relational.Statement{Text: "select * from users where id = :missing"})
	assert.ErrorContains(t, err, `no value bound for parameter "missing"`)
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		driver      string
		first, size int
		want        string
	}{
		{DriverSQLite, 0, 0, ""},
		{DriverSQLite, 0, 5, " LIMIT 5"},
		{DriverSQLite, 3, 5, " LIMIT 5 OFFSET 3"},
		{DriverSQLite, 3, 0, " LIMIT -1 OFFSET 3"},
		{DriverMySQL, 3, 0, " LIMIT 18446744073709551615 OFFSET 3"},
		{DriverPostgres, 3, 0, " OFFSET 3"},
		{DriverDuckDB, 3, 0, " OFFSET 3"},
	}
	for _, tt := range tests {
		s := &Store{driver: tt.driver}
		assert.Equal(t, tt.want, s.paginate(tt.first, tt.size), "%s first=%d size=%d", tt.driver, tt.first, tt.size)
	}
}

func TestPlaceholderFormat(t *testing.T) {
	for _, d := range Drivers {
		_, err := placeholderFormat(d)
		assert.NoError(t, err, d)
	}
}
