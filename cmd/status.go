package cmd

import (
	"github.com/spf13/cobra"

	"github.com/grovetools/runner/cli"
	"github.com/grovetools/runner/pkg/models"
	"github.com/grovetools/runner/pkg/profiling"
)

// NewStatusCmd prints the session counts and the dominant state.
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show session counts and the most urgent state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := clientFor(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			span := profiling.Start("get state")
			snap, err := client.GetState(cmd.Context())
			span.Stop()
			if err != nil {
				return err
			}
			if cli.GetOptions(cmd).JSONOutput {
				return writeJSON(cmd.OutOrStdout(), models.NewStateResponse(snap))
			}
			return writeCounts(cmd.OutOrStdout(), snap.Counts)
		},
	}
}
