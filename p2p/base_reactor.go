package p2p

import (
	"github.com/syncnet/headersync/libs/service"
)

// Reactor is responsible for handling incoming envelopes for one module.
// AddPeer is called when a peer connects and RemovePeer when it goes away.
// Receive is called when an envelope arrives from a connected peer.
//
// Transport#Send should be used to send envelopes to a peer.
type Reactor interface {
	service.Service // Start, Stop
	Receiver

	// SetTransport allows setting the transport used to reach peers.
	SetTransport(Transport)

	// AddPeer is called after the peer connected.
	AddPeer(key uint64, addr string)

	// RemovePeer is called when the peer disconnected.
	RemovePeer(key uint64)
}

//--------------------------------------

type BaseReactor struct {
	service.BaseService // Provides Start, Stop, .Quit
	Transport           Transport
}

func NewBaseReactor(name string, impl Reactor) *BaseReactor {
	return &BaseReactor{
		BaseService: *service.NewBaseService(nil, name, impl),
	}
}

func (br *BaseReactor) SetTransport(t Transport) {
	br.Transport = t
}
func (*BaseReactor) AddPeer(key uint64, addr string) {}
func (*BaseReactor) RemovePeer(key uint64)           {}
func (*BaseReactor) Receive(src uint64, e Envelope)  {}
