package headersync

import (
	"math/big"
	"sort"

	cmtsync "github.com/syncnet/headersync/libs/sync"
)

// PeerTable holds the sync state of every connected peer. Entries are
// copied in and out, so callers never share a *Peer; concurrent updates to
// the same peer are last-writer-wins.
type PeerTable struct {
	mtx         cmtsync.RWMutex
	peers       map[uint64]*Peer
	defaultMode SyncMode
}

// NewPeerTable returns an empty table. New peers start in defaultMode.
func NewPeerTable(defaultMode SyncMode) *PeerTable {
	return &PeerTable{
		peers:       make(map[uint64]*Peer),
		defaultMode: defaultMode,
	}
}

// Add registers a newly connected peer. Returns false if the key is already
// present.
func (pt *PeerTable) Add(key uint64, addr string) bool {
	pt.mtx.Lock()
	defer pt.mtx.Unlock()

	if _, ok := pt.peers[key]; ok {
		return false
	}
	pt.peers[key] = &Peer{
		Key:             key,
		Addr:            addr,
		TotalDifficulty: new(big.Int),
		Mode:            pt.defaultMode,
	}
	return true
}

// Remove drops the peer. A later Add starts it from scratch.
func (pt *PeerTable) Remove(key uint64) bool {
	pt.mtx.Lock()
	defer pt.mtx.Unlock()

	if _, ok := pt.peers[key]; !ok {
		return false
	}
	delete(pt.peers, key)
	return true
}

// Get returns a copy of the peer's state.
func (pt *PeerTable) Get(key uint64) (Peer, bool) {
	pt.mtx.RLock()
	defer pt.mtx.RUnlock()

	p, ok := pt.peers[key]
	if !ok {
		return Peer{}, false
	}
	return p.copy(), true
}

// Update replaces the stored state of p.Key with p. Returns false if the
// peer disconnected in the meantime.
func (pt *PeerTable) Update(p Peer) bool {
	pt.mtx.Lock()
	defer pt.mtx.Unlock()

	if _, ok := pt.peers[p.Key]; !ok {
		return false
	}
	cpy := p.copy()
	pt.peers[p.Key] = &cpy
	return true
}

// UpdateStatus records what the peer advertised about its chain.
func (pt *PeerTable) UpdateStatus(key, best uint64, td *big.Int) bool {
	pt.mtx.Lock()
	defer pt.mtx.Unlock()

	p, ok := pt.peers[key]
	if !ok {
		return false
	}
	p.BestBlockNumber = best
	if td != nil {
		p.TotalDifficulty = new(big.Int).Set(td)
	}
	return true
}

// MarkSynced raises the peer's synced block number to number.
func (pt *PeerTable) MarkSynced(key, number uint64) bool {
	pt.mtx.Lock()
	defer pt.mtx.Unlock()

	p, ok := pt.peers[key]
	if !ok {
		return false
	}
	if number > p.SyncedBlockNumber {
		p.SyncedBlockNumber = number
	}
	return true
}

// Keys returns the keys of all peers in ascending order.
func (pt *PeerTable) Keys() []uint64 {
	pt.mtx.RLock()
	keys := make([]uint64, 0, len(pt.peers))
	for k := range pt.peers {
		keys = append(keys, k)
	}
	pt.mtx.RUnlock()

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Size returns the number of connected peers.
func (pt *PeerTable) Size() int {
	pt.mtx.RLock()
	defer pt.mtx.RUnlock()
	return len(pt.peers)
}
