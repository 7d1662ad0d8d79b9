package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grovetools/runner/version"
)

// SetVersionTemplate makes --version print the full build information.
func SetVersionTemplate(cmd *cobra.Command, info version.Info) {
	cmd.Version = info.Version
	cmd.SetVersionTemplate(fmt.Sprintf(`{{.Name}} {{.Version}}
  Commit:    %s
  Built:     %s
  Platform:  %s
`, info.Commit, info.BuildDate, info.Platform))
}

// NewVersionCommand creates the version subcommand. It honors --json.
func NewVersionCommand(componentName string, info version.Info) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: fmt.Sprintf("Print the version number of %s", componentName),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if GetOptions(cmd).JSONOutput {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}
			fmt.Fprintf(w, "%s %s\n", componentName, info.Version)
			fmt.Fprintf(w, "  Commit:    %s\n", info.Commit)
			fmt.Fprintf(w, "  Branch:    %s\n", info.Branch)
			fmt.Fprintf(w, "  Built:     %s\n", info.BuildDate)
			fmt.Fprintf(w, "  Go:        %s\n", info.GoVersion)
			fmt.Fprintf(w, "  Platform:  %s\n", info.Platform)
			return nil
		},
	}
}
