package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// InspectCmd prints the state of the local header store.
var InspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show the local header store",
	RunE:  inspect,
}

var inspectNumbers []uint

func init() {
	InspectCmd.Flags().UintSliceVar(&inspectNumbers, "number", nil, "header numbers to print")
}

func inspect(cmd *cobra.Command, args []string) error {
	hs, err := openHeaderStore(config)
	if err != nil {
		return err
	}
	defer hs.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "base:             %d\n", hs.Base())
	fmt.Fprintf(out, "best:             %d\n", hs.BestBlockNumber())
	fmt.Fprintf(out, "total difficulty: %s\n", hs.TotalDifficulty())

	for _, n := range inspectNumbers {
		h, ok := hs.HeaderByNumber(uint64(n))
		if !ok {
			fmt.Fprintf(out, "#%d: not found\n", n)
			continue
		}
		fmt.Fprintf(out, "#%d: %v hash=%v\n", n, h, h.Hash())
	}
	return nil
}
