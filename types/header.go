package types

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"golang.org/x/crypto/blake2b"
)

// SealMode selects whether the seal fields take part in an encoding.
type SealMode uint8

const (
	SealIncluded SealMode = iota
	SealStripped
)

// Header is a block header as exchanged between peers. The seal carries the
// proof-of-work solution and is only required on the wire; staged headers
// are handed downstream with it stripped.
type Header struct {
	ParentHash common.Hash
	Number     uint64
	Timestamp  uint64
	Difficulty *big.Int
	ExtraData  []byte
	Seal       [][]byte `rlp:"optional"`
}

// DecodeHeader parses a single RLP encoded header.
func DecodeHeader(raw []byte) (*Header, error) {
	h := new(Header)
	if err := rlp.DecodeBytes(raw, h); err != nil {
		return nil, fmt.Errorf("decode header: %w", err)
	}
	return h, nil
}

// Hash returns the blake2b-256 digest of the encoding without the seal, so
// a header keeps its identity after Stripped.
func (h *Header) Hash() common.Hash {
	hasher, _ := blake2b.New256(nil)
	if err := rlp.Encode(hasher, h.Stripped()); err != nil {
		panic(fmt.Sprintf("header %d: %v", h.Number, err))
	}
	var out common.Hash
	hasher.Sum(out[:0])
	return out
}

// Encode returns the RLP encoding of the header.
func (h *Header) Encode(mode SealMode) ([]byte, error) {
	if mode == SealStripped {
		return rlp.EncodeToBytes(h.Stripped())
	}
	return rlp.EncodeToBytes(h)
}

// Stripped returns a copy of the header without its seal.
func (h *Header) Stripped() *Header {
	cpy := *h
	cpy.Seal = nil
	if h.Difficulty != nil {
		cpy.Difficulty = new(big.Int).Set(h.Difficulty)
	}
	return &cpy
}

func (h *Header) String() string {
	return fmt.Sprintf("Header{#%d %x parent=%x}", h.Number, h.Hash().Bytes()[:4], h.ParentHash.Bytes()[:4])
}
