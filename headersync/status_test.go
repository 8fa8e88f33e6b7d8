package headersync

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticChain struct {
	best uint64
	td   *big.Int
}

func (c staticChain) BestBlockNumber() uint64   { return c.best }
func (c staticChain) TotalDifficulty() *big.Int { return c.td }

func TestSyncStatusChainView(t *testing.T) {
	s := NewSyncStatus(staticChain{best: 120, td: big.NewInt(5000)}, 3)

	s.MarkStaged(300)
	s.MarkStaged(200)
	assert.EqualValues(t, 300, s.MaxStaged())

	s.RecordImport(100, 2*time.Second) // 50/s
	s.RecordImport(30, time.Second)    // 30/s
	s.RecordImport(0, 0)               // ignored

	view := s.ChainView()
	assert.EqualValues(t, 120, view.Synced)
	assert.EqualValues(t, 300, view.MaxStaged)
	assert.EqualValues(t, 40, view.Speed)
	assert.Equal(t, big.NewInt(5000), view.TotalDifficulty)
}

func TestSyncStatusNilDifficulty(t *testing.T) {
	s := NewSyncStatus(staticChain{}, 1)
	view := s.ChainView()
	require.NotNil(t, view.TotalDifficulty)
	assert.Zero(t, view.TotalDifficulty.Sign())
}

func TestRotatingBuffer(t *testing.T) {
	rb := newRotatingBuffer(3)
	assert.Zero(t, rb.Average())

	rb.Add(1)
	rb.Add(2)
	rb.Add(3)
	assert.InDelta(t, 2.0, rb.Average(), 1e-9)

	rb.Add(10) // evicts 1
	assert.InDelta(t, 5.0, rb.Average(), 1e-9)

	assert.Panics(t, func() { newRotatingBuffer(0) })
}
