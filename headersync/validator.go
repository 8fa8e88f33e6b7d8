package headersync

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/syncnet/headersync/libs/log"
	"github.com/syncnet/headersync/types"
)

// ValidatedHeaders is the accepted prefix of a headers response.
type ValidatedHeaders struct {
	// Seal-stripped encodings, contiguous by number and parent hash.
	Headers []rlp.RawValue
	// Number of the last accepted header; 0 when nothing was accepted.
	Highest uint64

	// Candidates dropped because they failed to decode or validate.
	Skipped int
	// Whether acceptance stopped at a continuity break.
	ChainBreak bool
}

// ValidateHeaders turns untrusted candidates into an ordered, chained run.
//
// A candidate that fails to decode or to pass v is skipped and the next one
// is still checked against the last accepted header. The first accepted
// header that does not extend the previous one by number and parent hash
// ends acceptance; nothing after it is examined.
func ValidateHeaders(candidates []DecodedHeader, v types.HeaderValidator, logger log.Logger) ValidatedHeaders {
	var (
		res      ValidatedHeaders
		prev     *types.Header
		prevHash common.Hash
	)

	for _, c := range candidates {
		if c.Err != nil {
			logger.Error("Invalid header", "err", c.Err, "raw", []byte(c.Raw))
			res.Skipped++
			continue
		}
		h := c.Header
		if err := v.ValidateHeader(h); err != nil {
			logger.Error("Invalid header", "number", h.Number, "err", err, "raw", []byte(c.Raw))
			res.Skipped++
			continue
		}

		if prev != nil && (h.Number != prev.Number+1 || h.ParentHash != prevHash) {
			logger.Error("Inconsistent block headers",
				"number", h.Number,
				"expected", prev.Number+1,
				"parent_hash", h.ParentHash,
				"prev_hash", prevHash,
				"hash", h.Hash())
			res.ChainBreak = true
			break
		}

		bz, err := h.Encode(types.SealStripped)
		if err != nil {
			logger.Error("Failed to encode header", "number", h.Number, "err", err)
			res.Skipped++
			continue
		}
		res.Headers = append(res.Headers, bz)
		res.Highest = h.Number
		prev, prevHash = h, h.Hash()
	}
	return res
}
