package headersync

import (
	"fmt"
	"math/big"
	"time"
)

// SyncMode selects how the next header range for a peer is chosen.
type SyncMode uint8

const (
	// ModeNormal follows the synced frontier in steady state.
	ModeNormal SyncMode = iota
	// ModeLightning jumps far ahead while the gap to the peer is large.
	ModeLightning
	// ModeThunder backfills densely just behind the synced frontier.
	ModeThunder
	// ModeBackward steps back to recover from a reorg.
	ModeBackward
	// ModeForward asks for the block after the peer's synced number.
	ModeForward
)

func (m SyncMode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeLightning:
		return "lightning"
	case ModeThunder:
		return "thunder"
	case ModeBackward:
		return "backward"
	case ModeForward:
		return "forward"
	default:
		return fmt.Sprintf("SyncMode(%d)", uint8(m))
	}
}

// ParseSyncMode returns the mode named s.
func ParseSyncMode(s string) (SyncMode, error) {
	for m := ModeNormal; m <= ModeForward; m++ {
		if m.String() == s {
			return m, nil
		}
	}
	return ModeNormal, fmt.Errorf("unknown sync mode %q", s)
}

// Peer is the sync state kept for one connected node.
type Peer struct {
	Key  uint64
	Addr string

	// Advertised by the peer.
	BestBlockNumber uint64
	TotalDifficulty *big.Int

	// Highest block number observed as synced with this peer.
	SyncedBlockNumber uint64

	Mode SyncMode

	// LastRequestTime only moves when LastRequestNumber changes, so it
	// measures how long the current range has been outstanding.
	LastRequestNumber uint64
	LastRequestTime   time.Time
}

// IsStalled reports whether the peer's outstanding range has been waiting
// longer than timeout.
func (p Peer) IsStalled(now time.Time, timeout time.Duration) bool {
	if p.LastRequestTime.IsZero() {
		return false
	}
	return now.Sub(p.LastRequestTime) > timeout
}

func (p Peer) copy() Peer {
	if p.TotalDifficulty != nil {
		p.TotalDifficulty = new(big.Int).Set(p.TotalDifficulty)
	}
	return p
}

func (p Peer) String() string {
	return fmt.Sprintf("Peer{%d %s best=%d synced=%d mode=%v last=%d}",
		p.Key, p.Addr, p.BestBlockNumber, p.SyncedBlockNumber, p.Mode, p.LastRequestNumber)
}
