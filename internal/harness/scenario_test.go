package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/twinq/internal/criteria"
)

const minimal = `
name: minimal
description: "smallest valid scenario"
fixture:
  - entity: User
    rows:
      - {id: 1, name: Ada}
request:
  entity: User
assertions:
  - type: ids
    ids: ["1"]
`

func TestLoadScenario(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "inner_join.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "inner_join", s.Name)
	require.Len(t, s.Fixture, 2)
	assert.Equal(t, "Customer", s.Fixture[0].Entity)
	assert.Len(t, s.Fixture[1].Rows, 3)
	assert.Equal(t, "Order", s.Request.Entity)
	require.Len(t, s.Request.Joins, 1)
	assert.Equal(t, "customerId", s.Request.Joins[0].RootField)
	require.Len(t, s.Assertions, 3)
	assert.Equal(t, criteria.BackendIndex, s.Assertions[2].Backend)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join("testdata", "scenarios", "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_Minimal(t *testing.T) {
	s, err := ParseScenario([]byte(minimal))
	require.NoError(t, err)
	assert.Empty(t, s.Backends)
	assert.Equal(t, []string{"id", "name"}, s.Fixture[0].Columns())
}

func TestParseScenario_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown field",
			yaml: minimal + "assertion: []\n",
			want: "failed to parse YAML",
		},
		{
			name: "missing description",
			yaml: "name: x\n",
			want: "description is required",
		},
		{
			name: "missing fixture",
			yaml: "name: x\ndescription: d\nrequest: {entity: User}\nassertions: [{type: agree}]\n",
			want: "fixture list is required",
		},
		{
			name: "missing request entity",
			yaml: "name: x\ndescription: d\nfixture: [{entity: User}]\nassertions: [{type: agree}]\n",
			want: "request.entity is required",
		},
		{
			name: "request entity without fixture",
			yaml: "name: x\ndescription: d\nfixture: [{entity: User}]\nrequest: {entity: Order}\nassertions: [{type: agree}]\n",
			want: `request entity "Order" has no fixture`,
		},
		{
			name: "duplicate entity",
			yaml: "name: x\ndescription: d\nfixture: [{entity: User}, {entity: User}]\nrequest: {entity: User}\nassertions: [{type: agree}]\n",
			want: `duplicate entity "User"`,
		},
		{
			name: "invalid column",
			yaml: "name: x\ndescription: d\nfixture: [{entity: User, rows: [{id: 1, 'drop table': 2}]}]\nrequest: {entity: User}\nassertions: [{type: agree}]\n",
			want: `invalid column name "drop table"`,
		},
		{
			name: "invalid table",
			yaml: "name: x\ndescription: d\nfixture: [{entity: User, table: 'users;'}]\nrequest: {entity: User}\nassertions: [{type: agree}]\n",
			want: `invalid table name "users;"`,
		},
		{
			name: "unknown backend",
			yaml: "name: x\ndescription: d\nfixture: [{entity: User}]\nrequest: {entity: User}\nbackends: [mongo]\nassertions: [{type: agree}]\n",
			want: `unknown backend "mongo"`,
		},
		{
			name: "no assertions",
			yaml: "name: x\ndescription: d\nfixture: [{entity: User}]\nrequest: {entity: User}\n",
			want: "assertions list is required",
		},
		{
			name: "unknown assertion",
			yaml: "name: x\ndescription: d\nfixture: [{entity: User}]\nrequest: {entity: User}\nassertions: [{type: trace_order}]\n",
			want: `unknown assertion type "trace_order"`,
		},
		{
			name: "facet without field",
			yaml: "name: x\ndescription: d\nfixture: [{entity: User}]\nrequest: {entity: User}\nassertions: [{type: facet, counts: {a: 1}}]\n",
			want: "field is required for facet",
		},
		{
			name: "skipped without backend",
			yaml: "name: x\ndescription: d\nfixture: [{entity: User}]\nrequest: {entity: User}\nassertions: [{type: skipped}]\n",
			want: "backend is required for skipped",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestTable_Columns(t *testing.T) {
	tbl := Table{
		PrimaryKey: "code",
		Rows: []map[string]any{
			{"name": "a", "code": "x"},
			{"zone": 1, "code": "y", "age": 3},
		},
	}
	assert.Equal(t, []string{"code", "age", "name", "zone"}, tbl.Columns())
	assert.Equal(t, []string{"id"}, Table{}.Columns())
}
