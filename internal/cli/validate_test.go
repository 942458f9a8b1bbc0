package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeValidate(t *testing.T, format, dir string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{dir})
	err := cmd.Execute()
	return buf.String(), err
}

func TestValidateValidRules(t *testing.T) {
	out, err := executeValidate(t, "text", "testdata/rules")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ All rules valid (2 rule(s))")
}

func TestValidateValidRulesJSON(t *testing.T) {
	out, err := executeValidate(t, "json", "testdata/rules")
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, []string{"Asn_Image", "Asn_Program"}, resp.Data.Rules)
}

func TestValidateInvalidRules(t *testing.T) {
	out, err := executeValidate(t, "text", "testdata/badrules")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "E111")
	assert.Contains(t, out, "E103")
}

func TestValidateInvalidRulesJSON(t *testing.T) {
	out, err := executeValidate(t, "json", "testdata/badrules")
	require.Error(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)

	codes := make([]string, 0, len(resp.Data.Errors))
	for _, e := range resp.Data.Errors {
		codes = append(codes, e.Code)
	}
	assert.Contains(t, codes, "E111")
	assert.Contains(t, codes, "E103")
}

func TestValidateNonExistentDirectory(t *testing.T) {
	out, err := executeValidate(t, "text", "testdata/nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "E005")
}
