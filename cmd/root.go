// Package cmd holds the runner command tree.
package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/grovetools/runner/cli"
	"github.com/grovetools/runner/pkg/models"
	"github.com/grovetools/runner/pkg/profiling"
	"github.com/grovetools/runner/tui/theme"
	"github.com/grovetools/runner/version"
)

// NewRootCmd builds the full runner command tree.
func NewRootCmd() *cobra.Command {
	root := cli.NewStandardCommand(
		"runner",
		"Live status of coding-agent sessions",
	)
	root.Long = `runner tracks the sessions written to its sessions directory by agent
hooks and reports which ones are running, waiting for input or waiting for
approval. A background daemon watches the directory and pushes alerts when
a session starts needing attention.

Examples:
  runner daemon start
  runner list --format tsv
  runner watch`
	cli.SetVersionTemplate(root, version.GetInfo())
	profiling.NewCobraProfiler().AddFlags(root)

	root.AddCommand(
		NewDaemonCmd(),
		NewStatusCmd(),
		NewListCmd(),
		NewReloadCmd(),
		NewWatchCmd(),
		NewFocusCmd(),
		NewPathsCmd(),
		NewConfigCmd(),
		NewSchemaCmd(),
		cli.NewVersionCommand("runner", version.GetInfo()),
	)

	cli.SetStyledHelpWithExtras(root, renderStateLegend)
	return root
}

// renderStateLegend lists the session states in priority order.
func renderStateLegend(w io.Writer, t *theme.Theme) {
	section := t.Warning.Italic(true)
	fmt.Fprintln(w, "\n "+section.Render("STATES"))
	for _, s := range models.AllStates {
		fmt.Fprintf(w, " %s %-11s %s\n", t.StateGlyph(s), s, t.Muted.Render(s.Label()))
	}
}
