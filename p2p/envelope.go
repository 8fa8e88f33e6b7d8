package p2p

import (
	"encoding/binary"
	"fmt"
)

const (
	// HeadLength is the size of the fixed envelope head in bytes.
	HeadLength = 8

	// MaxBodyLength bounds the declared body length of an inbound envelope.
	MaxBodyLength = 16 * 1024 * 1024
)

// Version is the protocol version tag carried in every envelope.
type Version uint16

const (
	V0 Version = 0
)

// Module identifies the subsystem an envelope is routed to.
type Module uint8

const (
	ModuleP2P  Module = 0
	ModuleSync Module = 1
)

// Action identifies the message type within a module.
type Action uint8

// Head is the fixed part of an envelope:
//
//	| version u16 | module u8 | action u8 | body length u32 |
//
// All integers are big endian.
type Head struct {
	Version Version
	Module  Module
	Action  Action
	Len     uint32
}

// Envelope is a framed message exchanged with a peer.
type Envelope struct {
	Head
	Body []byte
}

// NewEnvelope wraps body in an envelope with Len set to the body length.
func NewEnvelope(module Module, action Action, body []byte) Envelope {
	return Envelope{
		Head: Head{
			Version: V0,
			Module:  module,
			Action:  action,
			Len:     uint32(len(body)),
		},
		Body: body,
	}
}

// Marshal returns the wire encoding of the envelope.
func (e Envelope) Marshal() []byte {
	bz := make([]byte, HeadLength+len(e.Body))
	binary.BigEndian.PutUint16(bz[0:2], uint16(e.Version))
	bz[2] = byte(e.Module)
	bz[3] = byte(e.Action)
	binary.BigEndian.PutUint32(bz[4:8], e.Len)
	copy(bz[HeadLength:], e.Body)
	return bz
}

// UnmarshalEnvelope parses a framed message. The body must be exactly as
// long as the head declares.
func UnmarshalEnvelope(bz []byte) (Envelope, error) {
	if len(bz) < HeadLength {
		return Envelope{}, fmt.Errorf("envelope too short: %d bytes", len(bz))
	}
	head := Head{
		Version: Version(binary.BigEndian.Uint16(bz[0:2])),
		Module:  Module(bz[2]),
		Action:  Action(bz[3]),
		Len:     binary.BigEndian.Uint32(bz[4:8]),
	}
	if head.Len > MaxBodyLength {
		return Envelope{}, fmt.Errorf("envelope body too large: %d bytes", head.Len)
	}
	if int(head.Len) != len(bz)-HeadLength {
		return Envelope{}, fmt.Errorf("envelope body length mismatch: head says %d, got %d",
			head.Len, len(bz)-HeadLength)
	}
	body := make([]byte, head.Len)
	copy(body, bz[HeadLength:])
	return Envelope{Head: head, Body: body}, nil
}

func (e Envelope) String() string {
	return fmt.Sprintf("Envelope{v%d module=%d action=%d len=%d}", e.Version, e.Module, e.Action, e.Len)
}
