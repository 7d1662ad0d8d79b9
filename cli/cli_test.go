package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/runner/errors"
	"github.com/grovetools/runner/tui/theme"
	"github.com/grovetools/runner/version"
)

func TestNewStandardCommandFlags(t *testing.T) {
	cmd := NewStandardCommand("runner", "Watch agent sessions")
	require.NoError(t, cmd.ParseFlags([]string{"-v", "--json", "-c", "/tmp/runner.yml"}))

	opts := GetOptions(cmd)
	assert.True(t, opts.Verbose)
	assert.True(t, opts.JSONOutput)
	assert.Equal(t, "/tmp/runner.yml", opts.ConfigFile)
}

func TestLoadConfigFromFlag(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runner.yml")
	require.NoError(t, os.WriteFile(path, []byte("stale_timeout: 30s\n"), 0o644))

	cmd := NewStandardCommand("runner", "")
	require.NoError(t, cmd.ParseFlags([]string{"--config", path}))

	cfg, err := LoadConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, "30s", cfg.StaleTimeout.String())
}

func TestLoadConfigMissingFile(t *testing.T) {
	cmd := NewStandardCommand("runner", "")
	require.NoError(t, cmd.ParseFlags([]string{"--config", filepath.Join(t.TempDir(), "nope.yml")}))

	_, err := LoadConfig(cmd)
	assert.True(t, errors.Is(err, errors.ErrCodeConfigNotFound))
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"daemon", errors.DaemonNotRunning("/tmp/runner.sock"), "runner daemon start"},
		{"session", errors.SessionNotFound("abc"), "session 'abc' not found"},
		{"focus", errors.FocusUnsupported("abc", "com.example.term"), "com.example.term"},
		{"config", errors.ConfigNotFound("/etc/runner.yml"), "/etc/runner.yml"},
		{"invalid", errors.ConfigInvalid("bad").WithDetail("field", "stale_timeout"), "'stale_timeout'"},
		{"wrapped", fmt.Errorf("listing: %w", errors.SessionNotFound("xyz")), "session 'xyz' not found"},
		{"plain", fmt.Errorf("boom"), "Error: boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := &ErrorHandler{Out: &buf}
			assert.Equal(t, tt.err, h.Handle(tt.err))
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestErrorHandlerVerbose(t *testing.T) {
	var buf bytes.Buffer
	h := &ErrorHandler{Verbose: true, Out: &buf}
	_ = h.Handle(errors.SessionNotFound("abc"))
	assert.Contains(t, buf.String(), `"code": "SESSION_NOT_FOUND"`)
}

func TestErrorHandlerNil(t *testing.T) {
	var buf bytes.Buffer
	assert.NoError(t, (&ErrorHandler{Out: &buf}).Handle(nil))
	assert.Empty(t, buf.String())
}

func TestWrapText(t *testing.T) {
	out := wrapText("one two three four five", 9)
	assert.Equal(t, "one two\nthree\nfour five", out)
	assert.Equal(t, "short\nlines", wrapText("short\nlines", 20))
}

func TestParseChoices(t *testing.T) {
	desc, choices := parseChoices("Output format: table, tsv, or json (default table)")
	assert.Equal(t, "Output format: (default table)", desc)
	assert.Equal(t, []string{"table", "tsv", "json"}, choices)

	desc, choices = parseChoices("Mode: a, b")
	assert.Equal(t, "Mode: a, b", desc)
	assert.Nil(t, choices)
}

func TestParseDescription(t *testing.T) {
	desc, ex := parseDescription("Lists sessions.\n\nExamples:\n  runner list --format tsv")
	assert.Equal(t, "Lists sessions.", desc)
	assert.Equal(t, "runner list --format tsv", ex)
}

func TestStyledHelp(t *testing.T) {
	root := NewStandardCommand("runner", "Watch agent sessions")
	root.AddCommand(&cobra.Command{Use: "list", Short: "List sessions", Run: func(*cobra.Command, []string) {}})
	SetStyledHelpWithExtras(root, func(w io.Writer, th *theme.Theme) {
		fmt.Fprintln(w, "\n STATES")
	})

	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"--help"})
	require.NoError(t, root.Execute())

	out := buf.String()
	assert.Contains(t, out, "RUNNER")
	assert.Contains(t, out, "COMMANDS")
	assert.Contains(t, out, "List sessions")
	assert.Contains(t, out, "STATES")
	assert.Contains(t, out, `Use "runner [command] --help"`)
}

func TestVersionCommandJSON(t *testing.T) {
	info := version.Info{Version: "v1.2.3", Commit: "abc123", Platform: "linux/amd64"}
	root := NewStandardCommand("runner", "")
	root.AddCommand(NewVersionCommand("runner", info))

	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"version", "--json"})
	require.NoError(t, root.Execute())

	var got version.Info
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, info, got)
}

func TestDocsCommand(t *testing.T) {
	cmd := NewDocsCommand("schema", "Print the schema", []byte(`{"type":"object"}`))
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs(nil)
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "{\"type\":\"object\"}\n", buf.String())
}
