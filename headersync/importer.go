package headersync

import (
	"errors"
	"fmt"

	"github.com/syncnet/headersync/libs/log"
	"github.com/syncnet/headersync/types"
)

// ErrBatchAhead is returned by HeaderImporter when a batch does not reach
// back to the next expected header. The batch stays staged until the gap is
// filled.
var ErrBatchAhead = errors.New("batch starts beyond the next expected header")

// BatchConsumer takes staged batches off the pending store, lowest first.
// It returns how many headers it imported. An error leaves the batch staged.
type BatchConsumer interface {
	ConsumeBatch(b *Batch) (int, error)
}

// HeaderWriter is a chain that headers can be appended to.
type HeaderWriter interface {
	BestBlockNumber() uint64
	SaveHeader(h *types.Header) error
}

// HeaderImporter appends staged headers to a HeaderWriter. Headers at or
// below the current best are skipped, so overlapping batches are fine.
type HeaderImporter struct {
	Logger log.Logger

	chain HeaderWriter
}

var _ BatchConsumer = (*HeaderImporter)(nil)

// NewHeaderImporter returns an importer writing to chain.
func NewHeaderImporter(chain HeaderWriter) *HeaderImporter {
	return &HeaderImporter{
		Logger: log.NewNopLogger(),
		chain:  chain,
	}
}

func (im *HeaderImporter) ConsumeBatch(b *Batch) (int, error) {
	headers, err := b.DecodeHeaders()
	if err != nil {
		im.Logger.Error("Dropping undecodable batch", "peer", b.PeerKey, "highest", b.Highest, "err", err)
		return 0, nil
	}

	best := im.chain.BestBlockNumber()
	imported := 0
	for _, h := range headers {
		if h.Number <= best {
			continue
		}
		if h.Number > best+1 {
			return imported, fmt.Errorf("%w: have #%d, batch continues at #%d", ErrBatchAhead, best, h.Number)
		}
		if err := im.chain.SaveHeader(h); err != nil {
			im.Logger.Error("Dropping rest of batch", "peer", b.PeerKey, "number", h.Number, "err", err)
			return imported, nil
		}
		best = h.Number
		imported++
	}
	return imported, nil
}
