package commands

import (
	"fmt"
	"math/big"

	"github.com/spf13/cobra"

	"github.com/syncnet/headersync/headersync"
)

// PlanCmd runs the request planner on the given chain state without
// touching the network.
var PlanCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show which header range would be requested from a peer",
	RunE:  plan,
}

var planFlags struct {
	mode       string
	synced     uint64
	staged     uint64
	speed      uint64
	localTD    int64
	peerBest   uint64
	peerSynced uint64
	peerTD     int64
}

func init() {
	f := PlanCmd.Flags()
	f.StringVar(&planFlags.mode, "mode", headersync.ModeNormal.String(),
		"peer sync mode: lightning | thunder | normal | backward | forward")
	f.Uint64Var(&planFlags.synced, "synced", 0, "highest imported block number")
	f.Uint64Var(&planFlags.staged, "staged", 0, "highest downloaded but not imported block number")
	f.Uint64Var(&planFlags.speed, "speed", 0, "import speed in headers per second")
	f.Int64Var(&planFlags.localTD, "td", 0, "local total difficulty")
	f.Uint64Var(&planFlags.peerBest, "peer-best", 0, "peer's best block number")
	f.Uint64Var(&planFlags.peerSynced, "peer-synced", 0, "block number synced with the peer")
	f.Int64Var(&planFlags.peerTD, "peer-td", 1, "peer's total difficulty")
}

func plan(cmd *cobra.Command, args []string) error {
	mode, err := headersync.ParseSyncMode(planFlags.mode)
	if err != nil {
		return err
	}

	peer := headersync.Peer{
		BestBlockNumber:   planFlags.peerBest,
		TotalDifficulty:   big.NewInt(planFlags.peerTD),
		SyncedBlockNumber: planFlags.peerSynced,
		Mode:              mode,
	}
	view := headersync.ChainView{
		Synced:          planFlags.synced,
		MaxStaged:       planFlags.staged,
		Speed:           planFlags.speed,
		TotalDifficulty: big.NewInt(planFlags.localTD),
	}

	p, ok := headersync.PlanRequest(peer, view)
	out := cmd.OutOrStdout()
	if !ok {
		fmt.Fprintf(out, "no request (mode %v)\n", p.Mode)
		return nil
	}
	fmt.Fprintf(out, "from=%d size=%d mode=%v\n", p.From, p.Size, p.Mode)
	return nil
}
