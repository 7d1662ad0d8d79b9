package cmd

import (
	"github.com/spf13/cobra"

	"github.com/grovetools/runner/cli"
	"github.com/grovetools/runner/pkg/sessions"
)

// NewSchemaCmd prints the JSON Schema session files must satisfy.
func NewSchemaCmd() *cobra.Command {
	return cli.NewDocsCommand("schema", "Print the session file JSON Schema", sessions.Schema())
}
