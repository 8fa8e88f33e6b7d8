package store

import (
	"fmt"
	"math/big"

	dbm "github.com/cometbft/cometbft-db"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/google/orderedcode"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"

	cmtsync "github.com/syncnet/headersync/libs/sync"
	"github.com/syncnet/headersync/types"
)

const (
	// prefixes are unique across all tm db's
	prefixHeader = int64(16)

	defaultCacheSize = 1024
)

var storeStateKey = []byte("headerStore")

/*
HeaderStore is a low level store for sealed block headers, keyed by number.

The store contains all contiguous headers between base and best (inclusive).
It answers header requests from peers and provides the local best block
number and total difficulty to the request planner.

NOTE: HeaderStore methods will panic if they encounter errors deserializing
loaded data, indicating probable corruption on disk.
*/
type HeaderStore struct {
	db dbm.DB

	cache *lru.Cache[uint64, *types.Header]

	// mtx guards the fields below. The database enforces its own
	// concurrency control for its contents.
	mtx        cmtsync.RWMutex
	base       uint64
	best       uint64
	td         *big.Int
	hasHeaders bool
}

// storeState is what gets persisted under storeStateKey.
type storeState struct {
	Base            uint64
	Best            uint64
	TotalDifficulty *big.Int
	HasHeaders      bool
}

// NewHeaderStore returns a new HeaderStore with the given DB, initialized to
// the last header that was committed to the DB.
func NewHeaderStore(db dbm.DB, cacheSize int) (*HeaderStore, error) {
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	cache, err := lru.New[uint64, *types.Header](cacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "create header cache")
	}

	st, err := loadStoreState(db)
	if err != nil {
		return nil, err
	}
	return &HeaderStore{
		db:         db,
		cache:      cache,
		base:       st.Base,
		best:       st.Best,
		td:         st.TotalDifficulty,
		hasHeaders: st.HasHeaders,
	}, nil
}

// Base returns the first stored header number, or 0 for an empty store.
func (hs *HeaderStore) Base() uint64 {
	hs.mtx.RLock()
	defer hs.mtx.RUnlock()
	return hs.base
}

// BestBlockNumber returns the last stored header number, or 0 for an empty
// store.
func (hs *HeaderStore) BestBlockNumber() uint64 {
	hs.mtx.RLock()
	defer hs.mtx.RUnlock()
	return hs.best
}

// TotalDifficulty returns the summed difficulty of all stored headers.
func (hs *HeaderStore) TotalDifficulty() *big.Int {
	hs.mtx.RLock()
	defer hs.mtx.RUnlock()
	return new(big.Int).Set(hs.td)
}

// HeaderByNumber returns the header with the given number, if stored.
func (hs *HeaderStore) HeaderByNumber(number uint64) (*types.Header, bool) {
	if h, ok := hs.cache.Get(number); ok {
		return h, true
	}

	bz, err := hs.db.Get(headerKey(number))
	if err != nil {
		panic(err)
	}
	if len(bz) == 0 {
		return nil, false
	}
	h, err := types.DecodeHeader(bz)
	if err != nil {
		panic(fmt.Sprintf("error reading header #%d: %v", number, err))
	}
	hs.cache.Add(number, h)
	return h, true
}

// SaveHeader appends h to the store. The first header of an empty store sets
// the base; every later header must extend the best one by number and
// parent hash.
func (hs *HeaderStore) SaveHeader(h *types.Header) error {
	if h == nil {
		return errors.New("cannot save nil header")
	}

	hs.mtx.Lock()
	defer hs.mtx.Unlock()

	if hs.hasHeaders {
		if h.Number != hs.best+1 {
			return fmt.Errorf("cannot save header #%d, expected #%d", h.Number, hs.best+1)
		}
		prev, ok := hs.HeaderByNumber(hs.best)
		if !ok {
			return fmt.Errorf("best header #%d missing from store", hs.best)
		}
		if prev.Hash() != h.ParentHash {
			return fmt.Errorf("header #%d parent %x does not match #%d hash %x",
				h.Number, h.ParentHash, prev.Number, prev.Hash())
		}
	}

	bz, err := h.Encode(types.SealIncluded)
	if err != nil {
		return errors.Wrapf(err, "encode header #%d", h.Number)
	}

	td := new(big.Int).Set(hs.td)
	if h.Difficulty != nil {
		td.Add(td, h.Difficulty)
	}
	st := storeState{Base: hs.base, Best: h.Number, TotalDifficulty: td, HasHeaders: true}
	if !hs.hasHeaders {
		st.Base = h.Number
	}
	stBz, err := rlp.EncodeToBytes(&st)
	if err != nil {
		return errors.Wrap(err, "encode store state")
	}

	batch := hs.db.NewBatch()
	defer batch.Close()
	if err := batch.Set(headerKey(h.Number), bz); err != nil {
		return errors.Wrap(err, "stage header")
	}
	if err := batch.Set(storeStateKey, stBz); err != nil {
		return errors.Wrap(err, "stage store state")
	}
	if err := batch.WriteSync(); err != nil {
		return errors.Wrapf(err, "write header #%d", h.Number)
	}

	hs.base, hs.best, hs.td, hs.hasHeaders = st.Base, st.Best, td, true
	hs.cache.Add(h.Number, h)
	return nil
}

// Close closes the underlying database.
func (hs *HeaderStore) Close() error {
	return hs.db.Close()
}

func loadStoreState(db dbm.DB) (storeState, error) {
	st := storeState{TotalDifficulty: new(big.Int)}
	bz, err := db.Get(storeStateKey)
	if err != nil {
		return st, errors.Wrap(err, "load store state")
	}
	if len(bz) == 0 {
		return st, nil
	}
	if err := rlp.DecodeBytes(bz, &st); err != nil {
		return st, errors.Wrap(err, "decode store state")
	}
	if st.TotalDifficulty == nil {
		st.TotalDifficulty = new(big.Int)
	}
	return st, nil
}

func headerKey(number uint64) []byte {
	key, err := orderedcode.Append(nil, prefixHeader, number)
	if err != nil {
		panic(err)
	}
	return key
}
