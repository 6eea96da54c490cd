package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerify_ValidModule(t *testing.T) {
	input := writeModule(t, helloSrc)

	buf := &bytes.Buffer{}
	cmd := NewVerifyCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{input})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "is valid")
}

func TestVerify_InvalidModule(t *testing.T) {
	// The island block parses but is unreachable from the entry.
	input := writeModule(t, `module broken

func @main {
entry:
  ret 0
island:
  ret 1
}
`)

	cmd := NewVerifyCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{input})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "unreachable")
}

func TestVerify_JSON(t *testing.T) {
	input := writeModule(t, helloSrc)

	buf := &bytes.Buffer{}
	cmd := NewVerifyCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{input})

	require.NoError(t, cmd.Execute())

	var resp Response
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "hello", data["module"])
	assert.Len(t, data["fingerprint"], 64)
}

func TestDump_Canonical(t *testing.T) {
	// Scruffy but legal input: odd spacing and a comment. The dump is the
	// canonical form and survives a second round trip unchanged.
	input := writeModule(t, `module scruffy

; entry returns immediately
func @main {
entry:
  ret   0
}
`)

	buf := &bytes.Buffer{}
	cmd := NewDumpCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{input})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "module scruffy\n\nfunc @main {\nentry:\n  ret 0\n}\n", buf.String())
}

func TestRunCommand_ExecutesModule(t *testing.T) {
	input := writeModule(t, helloSrc)

	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewRunCommand(&RootOptions{Format: "text"})
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs([]string{input})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "Hello, world!\n", out.String())
	assert.Contains(t, errOut.String(), "exit: 0")
}

func TestRunCommand_StepQuota(t *testing.T) {
	input := writeModule(t, `module spin

func @main {
entry:
  br entry
}
`)

	cmd := NewRunCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{input, "--max-steps", "50"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "step quota")
}

func TestHistory_EmptyDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")

	buf := &bytes.Buffer{}
	cmd := NewHistoryCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "no runs recorded")
}

func TestRootCommand_InvalidFormat(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--format", "xml", "history", "--db", "ignored.db"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(assert.AnError))
	assert.Equal(t, ExitCommandError, GetExitCode(WrapExitError(ExitCommandError, "boom", nil)))
}
