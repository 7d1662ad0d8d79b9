package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/grovetools/runner/cli"
	"github.com/grovetools/runner/config"
)

// NewConfigCmd prints the effective configuration or its JSON Schema.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Prints the configuration after defaults and environment expansion. With a
running daemon, --running shows the configuration the daemon is using.

Examples:
  runner config
  runner config --schema > runner.schema.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if schema, _ := cmd.Flags().GetBool("schema"); schema {
				data, err := config.GenerateSchema()
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, string(data))
				return err
			}

			if running, _ := cmd.Flags().GetBool("running"); running {
				client, _, err := clientFor(cmd)
				if err != nil {
					return err
				}
				defer client.Close()
				rc, err := client.GetConfig(cmd.Context())
				if err != nil {
					return err
				}
				return writeJSON(out, rc)
			}

			cfg, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			if cli.GetOptions(cmd).JSONOutput {
				var doc map[string]interface{}
				if err := yaml.Unmarshal(data, &doc); err != nil {
					return err
				}
				return writeJSON(out, doc)
			}
			if cfg.Path() != "" {
				fmt.Fprintf(out, "# Source: %s\n", cfg.Path())
			} else {
				fmt.Fprintln(out, "# Source: defaults")
			}
			_, err = out.Write(data)
			return err
		},
	}
	cmd.Flags().Bool("schema", false, "Print the JSON Schema of runner.yml")
	cmd.Flags().Bool("running", false, "Show the running daemon's configuration")
	return cmd
}
