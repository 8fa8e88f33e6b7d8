package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/syncnet/headersync/version"
)

// VersionCmd ...
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version info",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("%s (wire v%d)\n", version.Version, version.WireVersion)
	},
}
