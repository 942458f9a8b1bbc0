package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitError(t *testing.T) {
	inner := errors.New("disk full")
	err := WrapExitError(ExitCommandError, "failed to record run", inner)

	assert.Equal(t, "failed to record run: disk full", err.Error())
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("wrapped: %w", err)))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, "no rules", NewExitError(ExitFailure, "no rules").Error())
}

func TestOutputFormatter_JSON(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, f.Success(map[string]int{"n": 1}))
	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	buf.Reset()
	require.NoError(t, f.Error("E001", "boom", nil))
	resp = CLIResponse{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "E001", resp.Error.Code)
}

func TestOutputFormatter_Text(t *testing.T) {
	buf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf, ErrWriter: errBuf, Verbose: true}

	require.NoError(t, f.Error("E001", "boom", "ctx"))
	assert.Equal(t, "Error [E001]: boom\nDetails: ctx\n", buf.String())

	f.VerboseLog("loaded %d", 3)
	assert.Equal(t, "loaded 3\n", errBuf.String())
	assert.Equal(t, errBuf, f.GetErrWriter())

	quiet := &OutputFormatter{Format: "text", Writer: buf}
	quiet.VerboseLog("hidden")
	assert.NotContains(t, buf.String(), "hidden")
}
