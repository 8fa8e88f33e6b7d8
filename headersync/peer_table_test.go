package headersync

import (
	"math/big"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeerTable(t *testing.T) {
	pt := NewPeerTable(ModeLightning)

	require.True(t, pt.Add(3, "c"))
	require.True(t, pt.Add(1, "a"))
	assert.False(t, pt.Add(1, "a again"))
	assert.Equal(t, []uint64{1, 3}, pt.Keys())
	assert.Equal(t, 2, pt.Size())

	p, ok := pt.Get(1)
	require.True(t, ok)
	assert.Equal(t, "a", p.Addr)
	assert.Equal(t, ModeLightning, p.Mode)

	td := big.NewInt(77)
	require.True(t, pt.UpdateStatus(1, 500, td))
	td.SetInt64(0)
	p, _ = pt.Get(1)
	assert.EqualValues(t, 500, p.BestBlockNumber)
	assert.Equal(t, big.NewInt(77), p.TotalDifficulty, "table keeps its own copy")

	// Returned peers are copies.
	p.TotalDifficulty.SetInt64(1)
	p.Mode = ModeForward
	again, _ := pt.Get(1)
	assert.Equal(t, big.NewInt(77), again.TotalDifficulty)
	assert.Equal(t, ModeLightning, again.Mode)

	require.True(t, pt.MarkSynced(1, 40))
	require.True(t, pt.MarkSynced(1, 30))
	p, _ = pt.Get(1)
	assert.EqualValues(t, 40, p.SyncedBlockNumber)

	p.Mode = ModeThunder
	require.True(t, pt.Update(p))
	p, _ = pt.Get(1)
	assert.Equal(t, ModeThunder, p.Mode)

	require.True(t, pt.Remove(1))
	assert.False(t, pt.Remove(1))
	assert.False(t, pt.Update(p))
	assert.False(t, pt.UpdateStatus(1, 1, nil))
	assert.False(t, pt.MarkSynced(1, 1))
	_, ok = pt.Get(1)
	assert.False(t, ok)

	// Re-adding starts over.
	require.True(t, pt.Add(1, "a"))
	p, _ = pt.Get(1)
	assert.Zero(t, p.SyncedBlockNumber)
}

func TestPeerTableConcurrentUpdates(t *testing.T) {
	pt := NewPeerTable(ModeNormal)
	for key := uint64(0); key < 8; key++ {
		require.True(t, pt.Add(key, "peer"))
	}

	var wg sync.WaitGroup
	for key := uint64(0); key < 8; key++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := uint64(1); n <= 100; n++ {
				pt.MarkSynced(key, n)
				p, _ := pt.Get(key)
				p.LastRequestNumber = n
				pt.Update(p)
			}
		}()
	}
	wg.Wait()

	for key := uint64(0); key < 8; key++ {
		p, _ := pt.Get(key)
		assert.EqualValues(t, 100, p.SyncedBlockNumber)
		assert.EqualValues(t, 100, p.LastRequestNumber)
	}
}

func TestParseSyncMode(t *testing.T) {
	for _, m := range []SyncMode{ModeNormal, ModeLightning, ModeThunder, ModeBackward, ModeForward} {
		got, err := ParseSyncMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	_, err := ParseSyncMode("warp")
	assert.Error(t, err)
}
