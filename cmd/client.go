package cmd

import (
	"github.com/spf13/cobra"

	"github.com/grovetools/runner/cli"
	"github.com/grovetools/runner/command"
	"github.com/grovetools/runner/config"
	"github.com/grovetools/runner/pkg/daemon"
	"github.com/grovetools/runner/pkg/focus"
	"github.com/grovetools/runner/pkg/profiling"
)

// clientFor loads the config and returns a daemon client: the running daemon
// when its socket answers, otherwise an in-process reader of the sessions
// directory.
func clientFor(cmd *cobra.Command) (daemon.Client, *config.Config, error) {
	span := profiling.Start("load config")
	cfg, err := cli.LoadConfig(cmd)
	span.Stop()
	if err != nil {
		return nil, nil, err
	}

	defer profiling.Start("connect").Stop()
	client := daemon.New(localOptions(cmd, cfg))
	return client, cfg, nil
}

func localOptions(cmd *cobra.Command, cfg *config.Config) daemon.LocalOptions {
	return daemon.LocalOptions{
		Dir:            cfg.ResolveSessionsDir(),
		StaleThreshold: cfg.StaleTimeout.Std(),
		Ignore:         cfg.Store.Ignore,
		Focuser:        focus.New(command.NewRunner()),
		Logger:         cli.GetLogger(cmd),
	}
}
