package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/grovetools/runner/cli"
	"github.com/grovetools/runner/pkg/models"
	"github.com/grovetools/runner/pkg/profiling"
)

// NewListCmd lists sessions in display order.
func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List active sessions, most urgent first",
		Long: `Lists active sessions ordered by state (needs approval, waiting, running)
and then by most recent update.

Examples:
  runner list
  runner list --format tsv --no-header
  runner list --display-format last_two_dirs`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cfg, err := clientFor(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			span := profiling.Start("list sessions")
			entries, err := client.GetSessions(cmd.Context())
			span.Stop()
			if err != nil {
				return err
			}

			format, _ := cmd.Flags().GetString("format")
			if cli.GetOptions(cmd).JSONOutput {
				format = formatJSON
			}
			noHeader, _ := cmd.Flags().GetBool("no-header")
			display := cfg.DisplayFormat
			if v, _ := cmd.Flags().GetString("display-format"); v != "" {
				display = models.DisplayFormat(v)
			}
			home, _ := os.UserHomeDir()

			return writeEntries(cmd.OutOrStdout(), entries, format, listView{
				DisplayFormat: display,
				Home:          home,
				Now:           time.Now(),
				Header:        !noHeader,
			})
		},
	}
	cmd.Flags().String("format", formatTable, "Output format: table, tsv, or json")
	cmd.Flags().Bool("no-header", false, "Omit the header line in tsv output")
	cmd.Flags().String("display-format", "", "Path style: full_path, directory_only, or last_two_dirs (default from config)")
	return cmd
}
