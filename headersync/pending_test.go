package headersync

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncnet/headersync/types"
)

func batchOf(t *testing.T, peer uint64, headers []*types.Header) *Batch {
	t.Helper()
	b := &Batch{PeerKey: peer, ReceivedAt: time.Now()}
	for _, h := range headers {
		bz, err := h.Encode(types.SealStripped)
		require.NoError(t, err)
		b.Headers = append(b.Headers, rlp.RawValue(bz))
		b.Highest = h.Number
	}
	return b
}

func TestPendingStoreOrdersByHighest(t *testing.T) {
	chain := types.MakeChain(1, 30, common.Hash{})
	ps := NewPendingStore()

	require.True(t, ps.TryInsert(batchOf(t, 1, chain[20:30])))
	require.True(t, ps.TryInsert(batchOf(t, 2, chain[0:10])))
	require.True(t, ps.TryInsert(batchOf(t, 3, chain[10:20])))
	assert.Equal(t, []uint64{10, 20, 30}, ps.Keys())
	assert.Equal(t, 3, ps.Len())

	b, ok := ps.PopLowest()
	require.True(t, ok)
	assert.EqualValues(t, 10, b.Highest)
	assert.EqualValues(t, 2, b.PeerKey)

	headers, err := b.DecodeHeaders()
	require.NoError(t, err)
	require.Len(t, headers, 10)
	assert.EqualValues(t, 1, headers[0].Number)
	assert.Equal(t, chain[0].Hash(), headers[0].Hash())
}

func TestPendingStoreOverwritesSameKey(t *testing.T) {
	chain := types.MakeChain(1, 10, common.Hash{})
	ps := NewPendingStore()

	require.True(t, ps.TryInsert(batchOf(t, 1, chain[0:10])))
	require.True(t, ps.TryInsert(batchOf(t, 2, chain[5:10])))
	assert.Equal(t, 1, ps.Len())

	b, ok := ps.PopLowest()
	require.True(t, ok)
	assert.EqualValues(t, 2, b.PeerKey)
	assert.Len(t, b.Headers, 5)
}

func TestPendingStoreDropsUnderContention(t *testing.T) {
	chain := types.MakeChain(1, 4, common.Hash{})
	ps := NewPendingStore()
	require.True(t, ps.TryInsert(batchOf(t, 1, chain[0:2])))

	// A writer holding the store.
	ps.mtx.Lock()
	assert.False(t, ps.TryInsert(batchOf(t, 2, chain[2:4])))
	ps.mtx.Unlock()
	assert.Equal(t, []uint64{2}, ps.Keys())

	// A reader holding the store.
	ps.mtx.RLock()
	assert.False(t, ps.TryInsert(batchOf(t, 2, chain[2:4])))
	ps.mtx.RUnlock()
	assert.Equal(t, 1, ps.Len())

	assert.True(t, ps.TryInsert(batchOf(t, 2, chain[2:4])))
	assert.Equal(t, []uint64{2, 4}, ps.Keys())
}

func TestPendingStoreDrain(t *testing.T) {
	chain := types.MakeChain(1, 30, common.Hash{})
	ps := NewPendingStore()
	require.True(t, ps.TryInsert(batchOf(t, 1, chain[20:30])))
	require.True(t, ps.TryInsert(batchOf(t, 1, chain[0:10])))
	require.True(t, ps.TryInsert(batchOf(t, 1, chain[10:20])))

	var seen []uint64
	n, err := ps.Drain(func(b *Batch) error {
		seen = append(seen, b.Highest)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []uint64{10, 20, 30}, seen)
	assert.Zero(t, ps.Len())

	_, ok := ps.PopLowest()
	assert.False(t, ok)
}

func TestPendingStoreDrainStopsOnError(t *testing.T) {
	chain := types.MakeChain(1, 30, common.Hash{})
	ps := NewPendingStore()
	require.True(t, ps.TryInsert(batchOf(t, 1, chain[0:10])))
	require.True(t, ps.TryInsert(batchOf(t, 1, chain[10:20])))
	require.True(t, ps.TryInsert(batchOf(t, 1, chain[20:30])))

	errStop := errors.New("stop")
	n, err := ps.Drain(func(b *Batch) error {
		if b.Highest == 20 {
			return errStop
		}
		return nil
	})
	assert.ErrorIs(t, err, errStop)
	assert.Equal(t, 1, n)
	assert.Equal(t, []uint64{20, 30}, ps.Keys())
}

func TestPendingStoreDrainKeepsReplacement(t *testing.T) {
	chain := types.MakeChain(1, 10, common.Hash{})
	ps := NewPendingStore()
	require.True(t, ps.TryInsert(batchOf(t, 1, chain)))

	replacement := batchOf(t, 2, chain[5:])
	n, err := ps.Drain(func(b *Batch) error {
		if b.PeerKey == 1 {
			require.True(t, ps.TryInsert(replacement))
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n, "the replaced batch was not removed")
	assert.Zero(t, ps.Len())
}

func TestPendingStoreDrainSkipsAheadBatches(t *testing.T) {
	chain := types.MakeChain(1, 40, common.Hash{})
	ps := NewPendingStore()
	require.True(t, ps.TryInsert(batchOf(t, 1, chain[14:15])))
	require.True(t, ps.TryInsert(batchOf(t, 2, chain[10:30])))
	require.True(t, ps.TryInsert(batchOf(t, 3, chain[30:40])))

	var seen []uint64
	n, err := ps.Drain(func(b *Batch) error {
		seen = append(seen, b.Highest)
		if b.Highest == 15 {
			return fmt.Errorf("%w: #15", ErrBatchAhead)
		}
		return nil
	})
	assert.ErrorIs(t, err, ErrBatchAhead)
	assert.Equal(t, 2, n)
	assert.Equal(t, []uint64{15, 30, 40}, seen)
	assert.Equal(t, []uint64{15}, ps.Keys())
}
