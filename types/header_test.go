package types

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderEncodeDecode(t *testing.T) {
	h := MakeChain(7, 1, common.Hash{0x01})[0]

	sealed, err := h.Encode(SealIncluded)
	require.NoError(t, err)
	decoded, err := DecodeHeader(sealed)
	require.NoError(t, err)
	assert.Equal(t, h.Number, decoded.Number)
	assert.Equal(t, h.ParentHash, decoded.ParentHash)
	assert.Equal(t, h.Seal, decoded.Seal)
	assert.Equal(t, h.Hash(), decoded.Hash())

	bare, err := h.Encode(SealStripped)
	require.NoError(t, err)
	assert.Less(t, len(bare), len(sealed))
	decodedBare, err := DecodeHeader(bare)
	require.NoError(t, err)
	assert.Empty(t, decodedBare.Seal)
	assert.Equal(t, h.Number, decodedBare.Number)

	_, err = DecodeHeader([]byte{0xde, 0xad})
	assert.Error(t, err)
}

func TestHeaderHashIgnoresSeal(t *testing.T) {
	h := MakeChain(1, 1, common.Hash{})[0]
	other := *h
	other.Seal = [][]byte{{0xff}}
	assert.Equal(t, h.Hash(), other.Hash())
	assert.Equal(t, h.Hash(), h.Stripped().Hash())
	assert.NotEmpty(t, h.Seal, "Stripped must not modify the receiver")

	other.ExtraData = []byte("changed")
	assert.NotEqual(t, h.Hash(), other.Hash())
}

func TestMakeChainLinks(t *testing.T) {
	chain := MakeChain(10, 5, common.Hash{0xaa})
	require.Len(t, chain, 5)
	assert.Equal(t, common.Hash{0xaa}, chain[0].ParentHash)
	for i := 1; i < len(chain); i++ {
		assert.Equal(t, chain[i-1].Number+1, chain[i].Number)
		assert.Equal(t, chain[i-1].Hash(), chain[i].ParentHash)
	}
}

func TestBasicValidator(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	v := NewBasicValidator(32, 15*time.Second)
	v.now = func() time.Time { return now }

	valid := func() *Header {
		return &Header{
			Number:     5,
			Timestamp:  uint64(now.Unix()),
			Difficulty: big.NewInt(10),
			Seal:       [][]byte{{0x01}},
		}
	}

	testCases := []struct {
		name    string
		mutate  func(h *Header)
		wantErr bool
	}{
		{"valid", func(h *Header) {}, false},
		{"genesis", func(h *Header) { h.Number = 0 }, true},
		{"nil difficulty", func(h *Header) { h.Difficulty = nil }, true},
		{"zero difficulty", func(h *Header) { h.Difficulty = big.NewInt(0) }, true},
		{"long extra data", func(h *Header) { h.ExtraData = make([]byte, 33) }, true},
		{"max extra data", func(h *Header) { h.ExtraData = make([]byte, 32) }, false},
		{"no seal", func(h *Header) { h.Seal = nil }, true},
		{"future", func(h *Header) { h.Timestamp = uint64(now.Add(16 * time.Second).Unix()) }, true},
		{"within drift", func(h *Header) { h.Timestamp = uint64(now.Add(15 * time.Second).Unix()) }, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := valid()
			tc.mutate(h)
			err := v.ValidateHeader(h)
			if tc.wantErr {
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, h.Number, verr.Number)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
