package headersync

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/syncnet/headersync/config"
	"github.com/syncnet/headersync/libs/log"
	"github.com/syncnet/headersync/p2p"
	"github.com/syncnet/headersync/types"
)

// maxPeerHeaderRequestsPerSecond is the maximum number of header requests a
// peer can make per second before being rate-limited.
const maxPeerHeaderRequestsPerSecond = 5

// Chain is the local header chain the reactor serves from and plans
// against.
type Chain interface {
	ChainReader
	TotalDifficulty() *big.Int
}

// Reactor drives header synchronization: it plans and sends header
// requests, serves requests from peers, validates responses into the
// pending store and hands staged batches to a consumer.
type Reactor struct {
	p2p.BaseReactor

	config    *config.HeaderSyncConfig
	chain     Chain
	validator types.HeaderValidator

	peers   *PeerTable
	pending *PendingStore
	status  *SyncStatus
	planner *Planner

	consumer BatchConsumer

	// Rate limiting for incoming header requests.
	peerRequestsMtx sync.Mutex
	peerRequests    map[uint64]*rate.Limiter

	metrics *Metrics

	cancel context.CancelFunc
	poolWg sync.WaitGroup
	now    func() time.Time
}

var _ p2p.Reactor = (*Reactor)(nil)

// ReactorOption defines a function argument for Reactor.
type ReactorOption func(*Reactor)

// WithConsumer sets the consumer staged batches are drained into. Without
// one, batches stay in the pending store.
func WithConsumer(c BatchConsumer) ReactorOption {
	return func(r *Reactor) { r.consumer = c }
}

// WithMetrics sets the reactor's metrics.
func WithMetrics(m *Metrics) ReactorOption {
	return func(r *Reactor) { r.metrics = m }
}

// NewReactor returns a new header sync reactor. SetTransport must be called
// before Start.
func NewReactor(
	cfg *config.HeaderSyncConfig,
	chain Chain,
	validator types.HeaderValidator,
	options ...ReactorOption,
) (*Reactor, error) {
	mode, err := ParseSyncMode(cfg.DefaultSyncMode)
	if err != nil {
		return nil, err
	}

	r := &Reactor{
		config:       cfg,
		chain:        chain,
		validator:    validator,
		peers:        NewPeerTable(mode),
		pending:      NewPendingStore(),
		status:       NewSyncStatus(chain, cfg.SpeedWindow),
		peerRequests: make(map[uint64]*rate.Limiter),
		metrics:      NopMetrics(),
		now:          time.Now,
	}
	for _, option := range options {
		option(r)
	}

	r.planner = NewPlanner(r.peers, r.status, nil, r.metrics, cfg.MaxConcurrentRequests)
	r.BaseReactor = *p2p.NewBaseReactor("HeaderSync", r)
	return r, nil
}

// SetLogger implements service.Service by setting the logger on the reactor
// and its planner.
func (r *Reactor) SetLogger(l log.Logger) {
	r.BaseService.SetLogger(l)
	r.planner.Logger = l
	if im, ok := r.consumer.(*HeaderImporter); ok {
		im.Logger = l
	}
}

// SetTransport implements p2p.Reactor. Requests and responses are sent
// over t.
func (r *Reactor) SetTransport(t p2p.Transport) {
	r.BaseReactor.SetTransport(t)
	r.planner.transport = t
}

// OnStart implements service.Service.
func (r *Reactor) OnStart() error {
	if r.Transport == nil {
		return errors.New("no transport set")
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	r.poolWg.Add(1)
	go func() {
		defer r.poolWg.Done()
		r.poolRoutine(ctx)
	}()
	return nil
}

// OnStop implements service.Service.
func (r *Reactor) OnStop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.poolWg.Wait()
}

// AddPeer implements p2p.Reactor by registering the peer for planning.
func (r *Reactor) AddPeer(key uint64, addr string) {
	if r.peers.Add(key, addr) {
		r.Logger.Info("Added peer", "peer", key, "addr", addr)
	}
	r.metrics.Peers.Set(float64(r.peers.Size()))
}

// RemovePeer implements p2p.Reactor by forgetting the peer.
func (r *Reactor) RemovePeer(key uint64) {
	if r.peers.Remove(key) {
		r.Logger.Info("Removed peer", "peer", key)
	}
	r.metrics.Peers.Set(float64(r.peers.Size()))

	r.peerRequestsMtx.Lock()
	delete(r.peerRequests, key)
	r.peerRequestsMtx.Unlock()
}

// UpdatePeerStatus records the chain head a peer advertised.
func (r *Reactor) UpdatePeerStatus(key, best uint64, td *big.Int) {
	if !r.peers.UpdateStatus(key, best, td) {
		r.Logger.Debug("Status from unknown peer", "peer", key)
	}
}

// Receive implements p2p.Receiver.
func (r *Reactor) Receive(src uint64, e p2p.Envelope) {
	if e.Module != p2p.ModuleSync {
		r.Logger.Error("Unexpected module", "peer", src, "module", e.Module)
		return
	}

	switch e.Action {
	case ActionHeadersReq:
		if !r.checkPeerRateLimit(src) {
			r.Logger.Debug("Rate limiting headers request", "peer", src)
			return
		}
		r.respondHeaders(src, e.Body)

	case ActionHeadersRes:
		r.handleHeaders(src, e.Body)

	default:
		r.Logger.Error("Unknown action", "peer", src, "action", e.Action)
	}
}

// checkPeerRateLimit reports whether a header request from peer should be
// served.
func (r *Reactor) checkPeerRateLimit(peer uint64) bool {
	r.peerRequestsMtx.Lock()
	defer r.peerRequestsMtx.Unlock()

	limiter, ok := r.peerRequests[peer]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(maxPeerHeaderRequestsPerSecond), maxPeerHeaderRequestsPerSecond)
		r.peerRequests[peer] = limiter
	}
	return limiter.AllowN(r.now(), 1)
}

// respondHeaders serves a headers request from the local chain.
func (r *Reactor) respondHeaders(src uint64, body []byte) {
	req := DecodeHeadersRequest(body)
	if limit := r.config.MaxHeadersPerResponse; limit > 0 && req.Count > uint32(limit) {
		req.Count = uint32(limit)
	}

	env, err := EncodeHeadersResponse(r.chain, req)
	if err != nil {
		r.Logger.Error("Failed to encode headers response", "peer", src, "from", req.From, "err", err)
		return
	}
	if err := r.Transport.Send(src, env); err != nil {
		r.Logger.Debug("Failed to send headers response", "peer", src, "err", err)
	}
}

// handleHeaders validates a headers response and stages what it accepts.
func (r *Reactor) handleHeaders(src uint64, body []byte) {
	res := ValidateHeaders(DecodeHeadersResponse(body), r.validator, r.Logger.With("peer", src))

	r.metrics.InvalidHeaders.Add(float64(res.Skipped))
	if res.ChainBreak {
		r.metrics.ChainBreaks.Add(1)
	}
	if len(res.Headers) == 0 {
		r.Logger.Debug("No headers accepted", "peer", src, "skipped", res.Skipped)
		return
	}

	b := &Batch{
		PeerKey:    src,
		Headers:    res.Headers,
		ReceivedAt: r.now(),
		Highest:    res.Highest,
	}
	if !r.pending.TryInsert(b) {
		r.Logger.Info("Came too late", "peer", src, "highest", res.Highest)
		r.metrics.BatchesDropped.Add(1)
		return
	}

	r.Logger.Info("Get headers", "peer", src, "to", res.Highest, "count", len(res.Headers))
	r.status.MarkStaged(res.Highest)
	r.peers.MarkSynced(src, res.Highest)
	r.metrics.HeadersAccepted.Add(float64(len(res.Headers)))
	r.metrics.BatchesStaged.Add(1)
}

// poolRoutine plans requests and drains staged batches until ctx is done.
func (r *Reactor) poolRoutine(ctx context.Context) {
	r.metrics.Syncing.Set(1)
	defer r.metrics.Syncing.Set(0)

	requestTicker := time.NewTicker(r.config.RequestInterval)
	defer requestTicker.Stop()
	importTicker := time.NewTicker(r.config.ImportInterval)
	defer importTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-requestTicker.C:
			if err := r.planner.RequestAll(ctx); err != nil && ctx.Err() == nil {
				r.Logger.Error("Request cycle failed", "err", err)
			}
			r.reportStalled()

		case <-importTicker.C:
			r.drainPending()
			r.metrics.PendingBatches.Set(float64(r.pending.Len()))
			r.metrics.SyncSpeed.Set(float64(r.status.Speed()))
		}
	}
}

// drainPending hands staged batches to the consumer, lowest first.
func (r *Reactor) drainPending() {
	if r.consumer == nil {
		return
	}

	n, err := r.pending.Drain(func(b *Batch) error {
		start := time.Now()
		imported, err := r.consumer.ConsumeBatch(b)
		if imported > 0 {
			r.status.RecordImport(imported, time.Since(start))
		}
		if errors.Is(err, ErrBatchAhead) && r.now().Sub(b.ReceivedAt) > r.config.StallTimeout {
			r.Logger.Info("Dropping stale batch", "peer", b.PeerKey, "highest", b.Highest, "err", err)
			r.metrics.BatchesDropped.Add(1)
			return nil
		}
		return err
	})
	switch {
	case errors.Is(err, ErrBatchAhead):
		r.Logger.Debug("Waiting for missing headers", "err", err)
	case err != nil:
		r.Logger.Error("Failed to consume batch", "err", err)
	}
	if n > 0 {
		r.Logger.Debug("Consumed batches", "count", n, "best", r.chain.BestBlockNumber())
	}
}

// reportStalled updates the stalled peer gauge.
func (r *Reactor) reportStalled() {
	now := r.now()
	stalled := 0
	for _, key := range r.peers.Keys() {
		p, ok := r.peers.Get(key)
		if !ok {
			continue
		}
		if p.IsStalled(now, r.config.StallTimeout) {
			r.Logger.Debug("Peer stalled", "peer", key, "last_request", p.LastRequestNumber)
			stalled++
		}
	}
	r.metrics.StalledPeers.Set(float64(stalled))
}

// Peers returns the reactor's peer table.
func (r *Reactor) Peers() *PeerTable { return r.peers }

// Pending returns the reactor's pending store.
func (r *Reactor) Pending() *PendingStore { return r.pending }

// Status returns the reactor's sync status.
func (r *Reactor) Status() *SyncStatus { return r.status }

// Planner returns the reactor's request planner.
func (r *Reactor) Planner() *Planner { return r.planner }
