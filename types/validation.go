package types

import (
	"fmt"
	"time"
)

// HeaderValidator runs the structural checks a header must pass before it
// can be chained. Seal verification lives behind the same interface.
type HeaderValidator interface {
	ValidateHeader(h *Header) error
}

// ValidationError describes why a header was rejected.
type ValidationError struct {
	Number uint64
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid header #%d: %s", e.Number, e.Reason)
}

// BasicValidator enforces the structural rules that do not depend on chain
// state.
type BasicValidator struct {
	MaxExtraDataSize int
	MaxFutureDrift   time.Duration

	now func() time.Time
}

var _ HeaderValidator = (*BasicValidator)(nil)

// NewBasicValidator returns a validator with the given limits.
func NewBasicValidator(maxExtraDataSize int, maxFutureDrift time.Duration) *BasicValidator {
	return &BasicValidator{
		MaxExtraDataSize: maxExtraDataSize,
		MaxFutureDrift:   maxFutureDrift,
		now:              time.Now,
	}
}

func (v *BasicValidator) ValidateHeader(h *Header) error {
	switch {
	case h == nil:
		return &ValidationError{Reason: "nil header"}
	case h.Number == 0:
		return &ValidationError{Number: h.Number, Reason: "genesis header is not synced"}
	case h.Difficulty == nil || h.Difficulty.Sign() <= 0:
		return &ValidationError{Number: h.Number, Reason: "non-positive difficulty"}
	case len(h.ExtraData) > v.MaxExtraDataSize:
		return &ValidationError{
			Number: h.Number,
			Reason: fmt.Sprintf("extra data too long: %d > %d", len(h.ExtraData), v.MaxExtraDataSize),
		}
	case len(h.Seal) == 0:
		return &ValidationError{Number: h.Number, Reason: "missing seal"}
	}

	limit := v.now().Add(v.MaxFutureDrift)
	if h.Timestamp > uint64(limit.Unix()) {
		return &ValidationError{
			Number: h.Number,
			Reason: fmt.Sprintf("timestamp %d too far in the future", h.Timestamp),
		}
	}
	return nil
}
