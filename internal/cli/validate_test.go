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

func validateCmd(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestValidateCommand_Portable(t *testing.T) {
	out, err := validateCmd(t, "text", filepath.Join("testdata", "products.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "✓ relational\n✓ criteria\n✓ index\n")
	assert.Contains(t, out, "✓ Product renders on every backend")
}

func TestValidateCommand_NotPortable(t *testing.T) {
	out, err := validateCmd(t, "text", filepath.Join("testdata", "exists.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "✓ relational\n✗ criteria\n✗ index\n")
	assert.Contains(t, out, "warning: filter: exists filter cannot be rendered by criteria, index")
	assert.Contains(t, out, "warning: filter.exists: field_equals filter cannot be rendered by index")
	assert.NotContains(t, out, "renders on every backend")
}

func TestValidateCommand_JSON(t *testing.T) {
	out, err := validateCmd(t, "json", filepath.Join("testdata", "join.yaml"))
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.False(t, resp.Data.Portable)
	assert.True(t, resp.Data.Supported[criteria.BackendCriteria])
	assert.False(t, resp.Data.Supported[criteria.BackendIndex])
	assert.Equal(t, []string{"joins: 1 join(s) cannot be rendered by index"}, resp.Data.Warnings)
}

func TestValidateCommand_Strict(t *testing.T) {
	_, err := validateCmd(t, "text", "--strict", filepath.Join("testdata", "products.yaml"))
	require.NoError(t, err)

	out, err := validateCmd(t, "json", "--strict", filepath.Join("testdata", "exists.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeUnsupported, resp.Error.Code)
}

func TestValidateCommand_Invalid(t *testing.T) {
	out, err := validateCmd(t, "text", filepath.Join("testdata", "invalid.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E101]: invalid request")
}

func TestValidateCommand_MissingFile(t *testing.T) {
	_, err := validateCmd(t, "text", "/nonexistent/request.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
