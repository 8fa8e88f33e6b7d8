package p2p_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/syncnet/headersync/p2p"
)

var _ p2p.Reactor = &echoReactor{}

// echoReactor is used for testing. It records what it receives and sends
// every request back as a response.
type echoReactor struct {
	p2p.BaseReactor

	mtx      sync.Mutex
	received []p2p.Envelope
	peers    map[uint64]string
}

func newEchoReactor() *echoReactor {
	r := &echoReactor{peers: make(map[uint64]string)}
	r.BaseReactor = *p2p.NewBaseReactor("EchoReactor", r)
	return r
}

func (r *echoReactor) AddPeer(key uint64, addr string) {
	r.mtx.Lock()
	r.peers[key] = addr
	r.mtx.Unlock()
}

func (r *echoReactor) Receive(src uint64, e p2p.Envelope) {
	r.mtx.Lock()
	r.received = append(r.received, e)
	r.mtx.Unlock()

	if e.Action == 1 {
		_ = r.Transport.Send(src, p2p.NewEnvelope(e.Module, 2, e.Body))
	}
}

func TestBaseReactor(t *testing.T) {
	net := p2p.NewMemNetwork(nil)
	a, b := newEchoReactor(), newEchoReactor()
	a.SetTransport(net.Join(1, a))
	b.SetTransport(net.Join(2, b))
	a.AddPeer(2, "b")

	require.NoError(t, a.Start())
	require.True(t, a.IsRunning())

	require.NoError(t, a.Transport.Send(2, p2p.NewEnvelope(p2p.ModuleSync, 1, []byte("ping"))))

	require.Len(t, b.received, 1)
	require.Len(t, a.received, 1)
	require.Equal(t, p2p.Action(2), a.received[0].Action)
	require.Equal(t, []byte("ping"), a.received[0].Body)
	require.Equal(t, map[uint64]string{2: "b"}, a.peers)

	require.NoError(t, a.Stop())
	require.False(t, a.IsRunning())
	select {
	case <-a.Quit():
	default:
		t.Fatal("quit channel not closed")
	}

	// Unembedded defaults do nothing.
	b.RemovePeer(1)
}
