package headersync

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/syncnet/headersync/libs/log"
	"github.com/syncnet/headersync/p2p"
)

// ChainView is the local chain state a planning decision is based on.
type ChainView struct {
	// Highest fully imported block number.
	Synced uint64
	// Highest block number downloaded but not yet imported.
	MaxStaged uint64
	// Observed import rate, headers per second.
	Speed           uint64
	TotalDifficulty *big.Int
}

// Plan is the outcome of planning one request for a peer. Mode is the
// peer's mode after planning, which differs from the input mode when the
// planner switched strategy.
type Plan struct {
	From uint64
	Size uint32
	Mode SyncMode
}

// jumpSize is how far ahead of the synced frontier LIGHTNING mode requests for
// a given import speed.
func jumpSize(speed uint64) uint64 {
	switch {
	case speed <= 40:
		return 480
	case speed <= 100:
		return speed * 12
	default:
		return 1200
	}
}

// PlanRequest decides the next header range to request from peer. ok is
// false when nothing should be requested this cycle; plan.Mode is valid
// either way.
func PlanRequest(peer Peer, view ChainView) (plan Plan, ok bool) {
	plan = Plan{From: 1, Size: RequestSize, Mode: peer.Mode}

	localTD := view.TotalDifficulty
	if localTD == nil {
		localTD = new(big.Int)
	}
	if peer.TotalDifficulty == nil || peer.TotalDifficulty.Cmp(localTD) <= 0 {
		return plan, false
	}

	switch peer.Mode {
	case ModeLightning:
		var selfNum uint64
		if view.Synced+LargeRequestSize*5 > view.MaxStaged {
			selfNum = view.Synced + jumpSize(view.Speed)
		} else {
			selfNum = view.MaxStaged + 1
		}
		if peer.BestBlockNumber <= selfNum+LargeRequestSize {
			// Not far enough behind to keep probing; ramp down.
			plan.Mode = ModeThunder
			return plan, false
		}
		plan.From = selfNum
		plan.Size = uint32(LargeRequestSize)

	case ModeThunder:
		plan.Size = uint32(LargeRequestSize)
		if view.Synced > 4 {
			plan.From = view.Synced - 3
		}

	case ModeNormal:
		selfNum, nodeNum := view.Synced, peer.BestBlockNumber
		switch {
		case nodeNum >= selfNum+BackwardSyncStep:
			if selfNum > 4 {
				plan.From = selfNum - 3
			}
		case selfNum < BackwardSyncStep:
			if selfNum > 16 {
				plan.From = selfNum - 15
			}
		case nodeNum >= selfNum-BackwardSyncStep:
			plan.From = selfNum - 16
		default:
			// The peer is further behind than a backward step.
			return plan, false
		}

	case ModeBackward:
		if peer.SyncedBlockNumber <= BackwardSyncStep {
			return plan, false
		}
		plan.From = peer.SyncedBlockNumber - BackwardSyncStep

	case ModeForward:
		plan.From = peer.SyncedBlockNumber + 1

	default:
		return plan, false
	}

	return plan, true
}

// ChainViewer supplies the chain view for a planning cycle.
type ChainViewer interface {
	ChainView() ChainView
}

// Planner turns planning decisions into requests: it applies them to the
// peer table and sends the encoded request.
type Planner struct {
	Logger log.Logger

	peers     *PeerTable
	chain     ChainViewer
	transport p2p.Transport
	metrics   *Metrics

	maxConcurrent int
	now           func() time.Time
}

// NewPlanner returns a planner over peers. At most maxConcurrent peers are
// planned at once by RequestAll.
func NewPlanner(
	peers *PeerTable,
	chain ChainViewer,
	transport p2p.Transport,
	metrics *Metrics,
	maxConcurrent int,
) *Planner {
	if metrics == nil {
		metrics = NopMetrics()
	}
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Planner{
		Logger:        log.NewNopLogger(),
		peers:         peers,
		chain:         chain,
		transport:     transport,
		metrics:       metrics,
		maxConcurrent: maxConcurrent,
		now:           time.Now,
	}
}

// RequestHeaders plans and sends the next header request for the peer with
// the given key. It returns the plan and whether a request was sent.
func (p *Planner) RequestHeaders(peerKey uint64) (Plan, bool, error) {
	return p.requestHeaders(peerKey, p.chain.ChainView())
}

func (p *Planner) requestHeaders(peerKey uint64, view ChainView) (Plan, bool, error) {
	peer, found := p.peers.Get(peerKey)
	if !found {
		return Plan{}, false, fmt.Errorf("peer %d not found", peerKey)
	}

	plan, ok := PlanRequest(peer, view)
	if plan.Mode != peer.Mode {
		p.Logger.Debug("Switching sync mode", "peer", peerKey, "from", peer.Mode, "to", plan.Mode)
		peer.Mode = plan.Mode
	}
	if !ok {
		p.peers.Update(peer)
		return plan, false, nil
	}

	if peer.LastRequestNumber != plan.From {
		peer.LastRequestTime = p.now()
	}
	peer.LastRequestNumber = plan.From
	p.peers.Update(peer)

	p.Logger.Debug("Requesting headers",
		"peer", peerKey,
		"from", plan.From,
		"size", plan.Size,
		"synced", peer.SyncedBlockNumber,
		"mode", plan.Mode)

	env := EncodeHeadersRequest(HeaderBatchRequest{From: plan.From, Count: plan.Size})
	if err := p.transport.Send(peerKey, env); err != nil {
		return plan, false, fmt.Errorf("send headers request to peer %d: %w", peerKey, err)
	}
	p.metrics.RequestsSent.With("mode", plan.Mode.String()).Add(1)
	return plan, true, nil
}

// RequestAll runs one planning cycle over every connected peer. A failure
// for one peer is logged and does not affect the others.
func (p *Planner) RequestAll(ctx context.Context) error {
	view := p.chain.ChainView()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.maxConcurrent)
	for _, key := range p.peers.Keys() {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, _, err := p.requestHeaders(key, view); err != nil {
				p.Logger.Error("Failed to request headers", "peer", key, "err", err)
			}
			return nil
		})
	}
	return g.Wait()
}
