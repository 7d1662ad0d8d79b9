package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewDocsCommand creates a command that prints an embedded JSON document,
// such as the session file schema.
func NewDocsCommand(use, short string, doc []byte) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), string(doc))
			return err
		},
	}
}
