package main

import (
	"os"

	"github.com/grovetools/runner/cli"
	"github.com/grovetools/runner/cmd"
	"github.com/grovetools/runner/tui"
)

func main() {
	tui.InitializeTUI()

	rootCmd := cmd.NewRootCmd()
	if c, err := rootCmd.ExecuteC(); err != nil {
		cli.NewErrorHandler(cli.GetOptions(c).Verbose).Handle(err)
		os.Exit(1)
	}
}
