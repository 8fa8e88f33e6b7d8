package headersync

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/syncnet/headersync/p2p"
	"github.com/syncnet/headersync/types"
)

const (
	// BackwardSyncStep is how far NORMAL and BACKWARD modes look behind the
	// synced frontier.
	BackwardSyncStep uint64 = 64

	// RequestSize is the number of headers asked for by default.
	RequestSize uint32 = 64

	// LargeRequestSize is the number of headers asked for in LIGHTNING and
	// THUNDER modes.
	LargeRequestSize uint64 = 48

	// requestBodyLength is from (8 bytes) + count (4 bytes).
	requestBodyLength = 12
)

const (
	// ActionHeadersReq tags a request for a run of headers.
	ActionHeadersReq p2p.Action = 2
	// ActionHeadersRes tags a response carrying sealed headers.
	ActionHeadersRes p2p.Action = 3
)

// HeaderBatchRequest asks a peer for count consecutive headers starting at
// From.
type HeaderBatchRequest struct {
	From  uint64
	Count uint32
}

// ChainReader is the local chain as seen by header sync.
type ChainReader interface {
	BestBlockNumber() uint64
	HeaderByNumber(number uint64) (*types.Header, bool)
}

// DecodedHeader is one element of a headers response. Err is set when the
// element could not be decoded; Raw always holds its encoding.
type DecodedHeader struct {
	Raw    rlp.RawValue
	Header *types.Header
	Err    error
}

// EncodeHeadersRequest frames req as a HEADERSREQ envelope.
func EncodeHeadersRequest(req HeaderBatchRequest) p2p.Envelope {
	body := make([]byte, requestBodyLength)
	binary.BigEndian.PutUint64(body[:8], req.From)
	binary.BigEndian.PutUint32(body[8:], req.Count)
	return p2p.NewEnvelope(p2p.ModuleSync, ActionHeadersReq, body)
}

// DecodeHeadersRequest parses a HEADERSREQ body. It never fails: a missing
// or truncated field reads as 1, so a garbled request degrades to a single
// header.
func DecodeHeadersRequest(body []byte) HeaderBatchRequest {
	req := HeaderBatchRequest{From: 1, Count: 1}
	if len(body) < 8 {
		return req
	}
	req.From = binary.BigEndian.Uint64(body[:8])
	if rest := body[8:]; len(rest) >= 4 {
		req.Count = binary.BigEndian.Uint32(rest[:4])
	}
	return req
}

// EncodeHeadersResponse collects up to req.Count headers starting at
// req.From, stopping at the local best block. Missing headers are skipped, so
// the response may be shorter than requested. The body is empty when nothing
// was found.
func EncodeHeadersResponse(chain ChainReader, req HeaderBatchRequest) (p2p.Envelope, error) {
	best := chain.BestBlockNumber()

	var headers []rlp.RawValue
	for i := uint64(0); i < uint64(req.Count); i++ {
		number := req.From + i
		if number < req.From || number > best {
			break
		}
		h, ok := chain.HeaderByNumber(number)
		if !ok {
			continue
		}
		bz, err := h.Encode(types.SealIncluded)
		if err != nil {
			return p2p.Envelope{}, fmt.Errorf("encode header #%d: %w", number, err)
		}
		headers = append(headers, bz)
	}

	var body []byte
	if len(headers) > 0 {
		var err error
		if body, err = rlp.EncodeToBytes(headers); err != nil {
			return p2p.Envelope{}, fmt.Errorf("encode headers list: %w", err)
		}
	}
	return p2p.NewEnvelope(p2p.ModuleSync, ActionHeadersRes, body), nil
}

// DecodeHeadersResponse splits a HEADERSRES body into its elements and
// decodes each one independently. A body that is not an RLP list yields no
// elements. If the list framing itself is broken, the unreadable tail is
// returned as a single failed element.
func DecodeHeadersResponse(body []byte) []DecodedHeader {
	content, _, err := rlp.SplitList(body)
	if err != nil {
		return nil
	}

	var out []DecodedHeader
	for len(content) > 0 {
		_, _, rest, err := rlp.Split(content)
		if err != nil {
			out = append(out, DecodedHeader{Raw: content, Err: fmt.Errorf("split headers list: %w", err)})
			break
		}
		raw := content[:len(content)-len(rest)]
		h, err := types.DecodeHeader(raw)
		out = append(out, DecodedHeader{Raw: raw, Header: h, Err: err})
		content = rest
	}
	return out
}
