package headersync

import (
	"math"
	"math/big"
	"time"

	cmtsync "github.com/syncnet/headersync/libs/sync"
)

// ChainStatusReader exposes the imported chain's head.
type ChainStatusReader interface {
	BestBlockNumber() uint64
	TotalDifficulty() *big.Int
}

// SyncStatus tracks how far the node has staged and imported headers, and
// how fast. It is the source of the ChainView handed to the planner.
type SyncStatus struct {
	chain ChainStatusReader

	mtx       cmtsync.Mutex
	maxStaged uint64
	speed     *rotatingBuffer
}

// NewSyncStatus returns a status averaging speed over window samples.
func NewSyncStatus(chain ChainStatusReader, window int) *SyncStatus {
	return &SyncStatus{
		chain: chain,
		speed: newRotatingBuffer(window),
	}
}

// MarkStaged records that headers up to number have been downloaded but not
// yet imported.
func (s *SyncStatus) MarkStaged(number uint64) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if number > s.maxStaged {
		s.maxStaged = number
	}
}

// MaxStaged returns the highest staged block number.
func (s *SyncStatus) MaxStaged() uint64 {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.maxStaged
}

// RecordImport adds a throughput sample of count headers imported in
// elapsed.
func (s *SyncStatus) RecordImport(count int, elapsed time.Duration) {
	if count <= 0 {
		return
	}
	if elapsed <= 0 {
		elapsed = time.Millisecond
	}
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.speed.Add(float64(count) / elapsed.Seconds())
}

// Speed returns the average import rate in headers per second.
func (s *SyncStatus) Speed() uint64 {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return uint64(math.Round(s.speed.Average()))
}

// ChainView snapshots the local chain for one planning cycle.
func (s *SyncStatus) ChainView() ChainView {
	td := s.chain.TotalDifficulty()
	if td == nil {
		td = new(big.Int)
	}
	return ChainView{
		Synced:          s.chain.BestBlockNumber(),
		MaxStaged:       s.MaxStaged(),
		Speed:           s.Speed(),
		TotalDifficulty: td,
	}
}

// rotatingBuffer is a circular buffer that holds at most n samples and
// provides O(1) average calculation.
type rotatingBuffer struct {
	buffer []float64
	size   int     // current number of elements
	head   int     // index where the next element will be written
	sum    float64 // running sum of all elements
}

func newRotatingBuffer(capacity int) *rotatingBuffer {
	if capacity <= 0 {
		panic("capacity must be positive")
	}
	return &rotatingBuffer{buffer: make([]float64, capacity)}
}

// Add adds a sample, evicting the oldest one once the buffer is full.
func (rb *rotatingBuffer) Add(value float64) {
	if rb.size < len(rb.buffer) {
		rb.size++
	} else {
		rb.sum -= rb.buffer[rb.head]
	}
	rb.buffer[rb.head] = value
	rb.sum += value
	rb.head = (rb.head + 1) % len(rb.buffer)
}

// Average returns the mean of the buffered samples, 0 when empty.
func (rb *rotatingBuffer) Average() float64 {
	if rb.size == 0 {
		return 0
	}
	return rb.sum / float64(rb.size)
}
