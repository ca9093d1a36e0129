package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execCmd(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewExecCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestExecCommand_Text(t *testing.T) {
	out, err := execCmd(t, "text", "--schema", filepath.Join("testdata", "schema.sql"), filepath.Join("testdata", "products.yaml"))
	require.NoError(t, err)

	assert.Contains(t, out, "brand")
	assert.Contains(t, out, "iPhone 15")
	assert.Contains(t, out, "iPad Air")
	assert.NotContains(t, out, "Pixel")
	assert.Contains(t, out, "(2 rows)")
}

func TestExecCommand_CriteriaJSON(t *testing.T) {
	out, err := execCmd(t, "json", "--criteria", "--schema", filepath.Join("testdata", "schema.sql"), filepath.Join("testdata", "products.yaml"))
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Mode  string           `json:"mode"`
			Count int64            `json:"count"`
			Rows  []map[string]any `json:"rows"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "criteria", resp.Data.Mode)
	assert.Equal(t, int64(2), resp.Data.Count)
	require.Len(t, resp.Data.Rows, 2)
	assert.Equal(t, "iPhone 15", resp.Data.Rows[0]["name"])
	assert.Equal(t, "iPad Air", resp.Data.Rows[1]["name"])
}

func TestExecCommand_Count(t *testing.T) {
	req := filepath.Join(t.TempDir(), "count.yaml")
	require.NoError(t, os.WriteFile(req, []byte("entity: Product\nfilter:\n  equals: {field: brand, value: google}\ncount: true\n"), 0o644))

	out, err := execCmd(t, "text", "--schema", filepath.Join("testdata", "schema.sql"), req)
	require.NoError(t, err)
	assert.Equal(t, "count: 2\n", out)
}

func TestExecCommand_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
		want string
	}{
		{
			name: "unsupported driver",
			args: []string{"--driver", "oracle", filepath.Join("testdata", "products.yaml")},
			code: ExitCommandError,
			want: "Error [E006]: failed to open database",
		},
		{
			name: "missing schema",
			args: []string{"--schema", "/nonexistent/schema.sql", filepath.Join("testdata", "products.yaml")},
			code: ExitCommandError,
			want: "Error [E005]: failed to read schema",
		},
		{
			name: "missing table",
			args: []string{filepath.Join("testdata", "products.yaml")},
			code: ExitFailure,
			want: "Error [E110]: query failed",
		},
		{
			name: "criteria cannot express exists",
			args: []string{"--criteria", filepath.Join("testdata", "exists.yaml")},
			code: ExitFailure,
			want: "Error [E102]: query failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execCmd(t, "text", tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.code, GetExitCode(err))
			assert.Contains(t, out, tt.want)
		})
	}
}
