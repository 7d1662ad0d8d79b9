package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewFocusCmd brings a session's terminal to the front.
func NewFocusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "focus <session-id>",
		Short: "Bring a session's terminal to the front",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := clientFor(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.Focus(cmd.Context(), args[0]); err != nil {
				return err
			}
			if v, _ := cmd.Flags().GetBool("verbose"); v {
				fmt.Fprintf(cmd.ErrOrStderr(), "Focused session %s\n", args[0])
			}
			return nil
		},
	}
}
