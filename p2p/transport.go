package p2p

import (
	"fmt"
	"strconv"

	cmtsync "github.com/syncnet/headersync/libs/sync"
)

// Transport delivers envelopes to connected peers, addressed by their
// stable key. Delivery is best effort.
type Transport interface {
	Send(peerKey uint64, e Envelope) error
}

// Receiver handles envelopes arriving from a peer.
type Receiver interface {
	Receive(src uint64, e Envelope)
}

// MemNetwork connects in-process endpoints. Every envelope goes through
// Marshal/UnmarshalEnvelope so framing is exercised exactly as on a socket.
// Delivery is synchronous: Send returns after the receiver handled it.
type MemNetwork struct {
	mtx       cmtsync.RWMutex
	receivers map[uint64]Receiver

	metrics *Metrics
}

// NewMemNetwork returns an empty network.
func NewMemNetwork(metrics *Metrics) *MemNetwork {
	if metrics == nil {
		metrics = NopMetrics()
	}
	return &MemNetwork{
		receivers: make(map[uint64]Receiver),
		metrics:   metrics,
	}
}

// Join registers r under key and returns the transport it sends with.
func (n *MemNetwork) Join(key uint64, r Receiver) Transport {
	n.mtx.Lock()
	n.receivers[key] = r
	n.mtx.Unlock()
	return &memEndpoint{net: n, key: key}
}

// Leave removes the receiver registered under key.
func (n *MemNetwork) Leave(key uint64) {
	n.mtx.Lock()
	delete(n.receivers, key)
	n.mtx.Unlock()
}

func (n *MemNetwork) deliver(from, to uint64, e Envelope) error {
	n.mtx.RLock()
	r, ok := n.receivers[to]
	n.mtx.RUnlock()

	action := strconv.Itoa(int(e.Action))
	if !ok {
		n.metrics.SendFailures.With("action", action).Add(1)
		return fmt.Errorf("peer %d is not connected", to)
	}

	bz := e.Marshal()
	n.metrics.MessagesSent.With("action", action).Add(1)
	n.metrics.BytesSent.With("action", action).Add(float64(len(bz)))

	in, err := UnmarshalEnvelope(bz)
	if err != nil {
		n.metrics.SendFailures.With("action", action).Add(1)
		return err
	}
	r.Receive(from, in)
	return nil
}

type memEndpoint struct {
	net *MemNetwork
	key uint64
}

func (m *memEndpoint) Send(peerKey uint64, e Envelope) error {
	return m.net.deliver(m.key, peerKey, e)
}
