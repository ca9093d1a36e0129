package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/twinq/internal/criteria"
)

func renderCmd(t *testing.T, opts *RootOptions, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRenderCommand(opts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRenderCommand_AllBackends(t *testing.T) {
	out, err := renderCmd(t, &RootOptions{Format: "text"}, filepath.Join("testdata", "products.yaml"))
	require.NoError(t, err)

	assert.Contains(t, out, "[relational]\n  select p.* from products p where p.brand = :p1 AND p.price between :p2b1 AND :p2b2 order by p.price desc\n")
	assert.Contains(t, out, "  p1 = apple\n  p2b1 = 500\n  p2b2 = 1000\n")
	assert.Contains(t, out, "[criteria]\n  SELECT p.* FROM products p WHERE (p.brand = ? AND p.price BETWEEN ? AND ?) ORDER BY p.price desc\n")
	assert.Contains(t, out, "  $1 = apple\n")
	assert.Contains(t, out, "[index]\n")
	assert.Contains(t, out, `  fq = (brand:"apple")`)
	assert.Contains(t, out, "  q = *:*\n")
	assert.Contains(t, out, "  sort = price desc\n")
}

func TestRenderCommand_JSON(t *testing.T) {
	out, err := renderCmd(t, &RootOptions{Format: "json"}, "--backend", "relational,index", filepath.Join("testdata", "products.yaml"))
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   RenderResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "Product", resp.Data.Entity)
	require.Len(t, resp.Data.Renderings, 2)
	assert.Equal(t, criteria.BackendRelational, resp.Data.Renderings[0].Backend)
	assert.Equal(t, map[string]any{"p1": "apple", "p2b1": float64(500), "p2b2": float64(1000)}, resp.Data.Renderings[0].Params)
	assert.Equal(t, criteria.BackendIndex, resp.Data.Renderings[1].Backend)
}

func TestRenderCommand_Registry(t *testing.T) {
	opts := &RootOptions{Format: "text", Registry: filepath.Join("testdata", "registry.yaml")}
	out, err := renderCmd(t, opts, filepath.Join("testdata", "products.yaml"))
	require.NoError(t, err)

	assert.Contains(t, out, "from catalog p")
	assert.Contains(t, out, "FROM catalog p")
	assert.Contains(t, out, "  sort = price_f desc\n")
}

func TestRenderCommand_SkipsUnsupported(t *testing.T) {
	out, err := renderCmd(t, &RootOptions{Format: "text"}, filepath.Join("testdata", "exists.yaml"))
	require.NoError(t, err)

	assert.Contains(t, out, "select c.* from customers c where exists (select c_o.* from orders c_o where c_o.customerId = c.id)")
	assert.Contains(t, out, "[criteria]\n  skipped: filter: exists filter cannot be rendered by criteria, index\n")
	assert.Contains(t, out, "[index]\n  skipped: filter: exists filter cannot be rendered by criteria, index; filter.exists: field_equals filter cannot be rendered by index\n")
}

func TestRenderCommand_JoinsSkipIndex(t *testing.T) {
	out, err := renderCmd(t, &RootOptions{Format: "text"}, "--backend", "criteria,index", filepath.Join("testdata", "join.yaml"))
	require.NoError(t, err)

	assert.Contains(t, out, "SELECT o.* FROM orders o CROSS JOIN customers c WHERE (o.customerId = c.id AND c.country = ?)")
	assert.Contains(t, out, "[index]\n  skipped: joins have no index form\n")
	assert.NotContains(t, out, "[relational]")
}

func TestRenderCommand_Errors(t *testing.T) {
	tests := []struct {
		name string
		opts *RootOptions
		args []string
		code int
		want string
	}{
		{
			name: "missing args",
			opts: &RootOptions{Format: "text"},
			args: []string{},
			code: ExitFailure,
			want: "accepts 1 arg",
		},
		{
			name: "missing request",
			opts: &RootOptions{Format: "text"},
			args: []string{"/nonexistent/request.yaml"},
			code: ExitCommandError,
			want: "Error [E005]",
		},
		{
			name: "missing registry",
			opts: &RootOptions{Format: "text", Registry: "/nonexistent/registry.yaml"},
			args: []string{filepath.Join("testdata", "products.yaml")},
			code: ExitCommandError,
			want: "Error [E005]: failed to load registry",
		},
		{
			name: "invalid request",
			opts: &RootOptions{Format: "text"},
			args: []string{filepath.Join("testdata", "invalid.yaml")},
			code: ExitFailure,
			want: "Error [E101]",
		},
		{
			name: "unknown backend",
			opts: &RootOptions{Format: "text"},
			args: []string{"--backend", "mongo", filepath.Join("testdata", "products.yaml")},
			code: ExitCommandError,
			want: `Error [E004]: invalid --backend`,
		},
		{
			name: "unknown dialect",
			opts: &RootOptions{Format: "text"},
			args: []string{"--dialect", "jpql", filepath.Join("testdata", "products.yaml")},
			code: ExitCommandError,
			want: "Error [E004]: invalid dialect",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := renderCmd(t, tt.opts, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.code, GetExitCode(err))
			assert.Contains(t, out+err.Error(), tt.want)
		})
	}
}

func TestParseBackends(t *testing.T) {
	all, err := parseBackends(nil)
	require.NoError(t, err)
	assert.Equal(t, criteria.Backends, all)

	some, err := parseBackends([]string{"index", "relational"})
	require.NoError(t, err)
	assert.Equal(t, []criteria.Backend{criteria.BackendRelational, criteria.BackendIndex}, some)

	_, err = parseBackends([]string{"relational", "nope"})
	assert.Error(t, err)
}
