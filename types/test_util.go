package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// MakeChain builds n sealed headers numbered from start, each chained to
// the previous one. The first header points at parent.
func MakeChain(start uint64, n int, parent common.Hash) []*Header {
	headers := make([]*Header, 0, n)
	for i := 0; i < n; i++ {
		h := &Header{
			ParentHash: parent,
			Number:     start + uint64(i),
			Timestamp:  1_600_000_000 + start + uint64(i)*10,
			Difficulty: big.NewInt(1000),
			ExtraData:  []byte("test"),
			Seal:       [][]byte{{0x01, 0x02}, {0x03}},
		}
		headers = append(headers, h)
		parent = h.Hash()
	}
	return headers
}
