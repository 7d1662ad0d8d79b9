package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grovetools/runner/cli"
	"github.com/grovetools/runner/pkg/paths"
)

// PathsOutput lists the files and directories runner uses.
type PathsOutput struct {
	ConfigDir   string `json:"config_dir"`
	DataDir     string `json:"data_dir"`
	StateDir    string `json:"state_dir"`
	CacheDir    string `json:"cache_dir"`
	SessionsDir string `json:"sessions_dir"`
	Socket      string `json:"socket"`
	PidFile     string `json:"pid_file"`
	DaemonLog   string `json:"daemon_log"`
}

func NewPathsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print the paths used by runner",
		Long: `Print the paths used by runner. Directories follow the XDG Base Directory
Specification and move together under RUNNER_HOME when it is set.
sessions_dir reflects the sessions_dir config key.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}
			output := PathsOutput{
				ConfigDir:   paths.ConfigDir(),
				DataDir:     paths.DataDir(),
				StateDir:    paths.StateDir(),
				CacheDir:    paths.CacheDir(),
				SessionsDir: cfg.ResolveSessionsDir(),
				Socket:      paths.SocketPath(),
				PidFile:     paths.PidFilePath(),
				DaemonLog:   paths.DaemonLogPath(),
			}

			out := cmd.OutOrStdout()
			if cli.GetOptions(cmd).JSONOutput {
				return writeJSON(out, output)
			}
			for _, kv := range [][2]string{
				{"config_dir", output.ConfigDir},
				{"data_dir", output.DataDir},
				{"state_dir", output.StateDir},
				{"cache_dir", output.CacheDir},
				{"sessions_dir", output.SessionsDir},
				{"socket", output.Socket},
				{"pid_file", output.PidFile},
				{"daemon_log", output.DaemonLog},
			} {
				fmt.Fprintf(out, "%-13s %s\n", kv[0], kv[1])
			}
			return nil
		},
	}
}
