package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grovetools/runner/cli"
	"github.com/grovetools/runner/pkg/models"
)

// NewReloadCmd forces a rescan of the sessions directory.
func NewReloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Rescan the sessions directory now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := clientFor(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			snap, err := client.Reload(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if cli.GetOptions(cmd).JSONOutput {
				return writeJSON(out, models.NewStateResponse(snap))
			}
			fmt.Fprintf(out, "Reloaded %d sessions (sequence %d)\n", snap.Counts.Total(), snap.Sequence)
			return nil
		},
	}
}
