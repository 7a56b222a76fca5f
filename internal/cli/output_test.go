package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/krunch/internal/derive"
	"github.com/roach88/krunch/internal/profile"
	"github.com/roach88/krunch/internal/service"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Success(map[string]string{"result": "success"}, "ignored")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
	assert.NotContains(t, buf.String(), "ignored")
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	require.NoError(t, formatter.Error(CodeGeneration, "generation failed", nil))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeGeneration, resp.Error.Code)
	assert.Equal(t, "generation failed", resp.Error.Message)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	require.NoError(t, formatter.Success(nil, "Settings imported."))
	assert.Equal(t, "Settings imported.\n", buf.String())
}

func TestOutputFormatter_TextErrorGoesToErrWriter(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:    "text",
		Writer:    out,
		ErrWriter: errOut,
		Verbose:   true,
	}

	require.NoError(t, formatter.Error(CodeNoSaltKey, "no salt key stored", "details here"))
	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "Error [E_NO_SALT_KEY]")
	assert.Contains(t, errOut.String(), "Details: details here")
}

func TestOutputFormatter_NoticeSilentInJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}
	formatter.Notice("copied %s", "x")
	assert.Empty(t, buf.String())

	formatter.Format = "text"
	formatter.Notice("copied %s", "x")
	assert.Equal(t, "copied x\n", buf.String())
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&derive.GenerationError{Stage: derive.StageKey, Err: derive.ErrInvalidIterations}, CodeGeneration},
		{fmt.Errorf("wrap: %w", profile.ErrInvalidSettings), CodeInvalidDoc},
		{service.ErrNoSaltKey, CodeNoSaltKey},
		{fmt.Errorf("%w: %q", service.ErrEmptyDomain, " "), CodeEmptyDomain},
		{fmt.Errorf("%w: %q", service.ErrInvalidAlias, "a|b"), CodeInvalidAlias},
		{errors.New("disk on fire"), CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorCode(tt.err))
		})
	}
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad flag")))

	wrapped := fmt.Errorf("outer: %w", WrapExitError(ExitCommandError, "open db", errors.New("locked")))
	assert.Equal(t, ExitCommandError, GetExitCode(wrapped))
	assert.Equal(t, "outer: open db: locked", wrapped.Error())
}
