package headersync

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/syncnet/headersync/types"
)

// Batch is a run of accepted headers waiting for the consumer.
type Batch struct {
	PeerKey    uint64
	Headers    []rlp.RawValue // seal-stripped, ascending
	ReceivedAt time.Time
	Highest    uint64
}

// DecodeHeaders decodes the batch's headers.
func (b *Batch) DecodeHeaders() ([]*types.Header, error) {
	out := make([]*types.Header, 0, len(b.Headers))
	for i, raw := range b.Headers {
		h, err := types.DecodeHeader(raw)
		if err != nil {
			return nil, fmt.Errorf("header %d of batch #%d: %w", i, b.Highest, err)
		}
		out = append(out, h)
	}
	return out, nil
}

// PendingStore holds accepted batches keyed by their highest block number.
// Writers never wait: TryInsert gives up if the store is locked. Batches
// with the same highest number overwrite each other.
type PendingStore struct {
	// A plain sync.RWMutex: TryInsert depends on TryLock.
	mtx     sync.RWMutex
	batches *treemap.Map // uint64 -> *Batch
}

// NewPendingStore returns an empty store.
func NewPendingStore() *PendingStore {
	return &PendingStore{
		batches: treemap.NewWith(utils.UInt64Comparator),
	}
}

// TryInsert stores b unless another goroutine holds the store, in which
// case b is dropped and false is returned.
func (ps *PendingStore) TryInsert(b *Batch) bool {
	if !ps.mtx.TryLock() {
		return false
	}
	defer ps.mtx.Unlock()
	ps.batches.Put(b.Highest, b)
	return true
}

// PopLowest removes and returns the batch with the lowest key.
func (ps *PendingStore) PopLowest() (*Batch, bool) {
	ps.mtx.Lock()
	defer ps.mtx.Unlock()

	key, value := ps.batches.Min()
	if key == nil {
		return nil, false
	}
	ps.batches.Remove(key)
	return value.(*Batch), true
}

// Drain hands batches to fn in ascending key order, removing each one after
// fn returns nil, and returns how many were removed. A batch for which fn
// returns ErrBatchAhead stays in place and draining moves on to the next
// higher key; the first such error is returned once the walk ends. Any
// other error from fn stops draining and leaves that batch in place. The
// store is not locked while fn runs.
func (ps *PendingStore) Drain(fn func(*Batch) error) (int, error) {
	var (
		drained  int
		aheadErr error
	)

	ps.mtx.RLock()
	key, value := ps.batches.Min()
	ps.mtx.RUnlock()

	for key != nil {
		b := value.(*Batch)
		next := key.(uint64)

		err := fn(b)
		switch {
		case errors.Is(err, ErrBatchAhead):
			if aheadErr == nil {
				aheadErr = err
			}
			if next == math.MaxUint64 {
				return drained, aheadErr
			}
			next++

		case err != nil:
			return drained, err

		default:
			ps.mtx.Lock()
			// Only remove what fn saw; a newer batch may have replaced it.
			if cur, ok := ps.batches.Get(key); ok && cur.(*Batch) == b {
				ps.batches.Remove(key)
				drained++
			}
			ps.mtx.Unlock()
		}

		ps.mtx.RLock()
		key, value = ps.batches.Ceiling(next)
		ps.mtx.RUnlock()
	}
	return drained, aheadErr
}

// Len returns the number of stored batches.
func (ps *PendingStore) Len() int {
	ps.mtx.RLock()
	defer ps.mtx.RUnlock()
	return ps.batches.Size()
}

// Keys returns the stored keys in ascending order.
func (ps *PendingStore) Keys() []uint64 {
	ps.mtx.RLock()
	defer ps.mtx.RUnlock()

	keys := make([]uint64, 0, ps.batches.Size())
	for _, k := range ps.batches.Keys() {
		keys = append(keys, k.(uint64))
	}
	return keys
}
