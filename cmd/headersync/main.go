package main

import (
	"os"

	cmd "github.com/syncnet/headersync/cmd/headersync/commands"
)

func main() {
	rootCmd := cmd.RootCmd
	rootCmd.AddCommand(
		cmd.InitFilesCmd,
		cmd.PlanCmd,
		cmd.InspectCmd,
		cmd.ImportCmd,
		cmd.VersionCmd,
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
