package zerocoin

import (
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

// RejectionCode classifies why a witness could not be computed. The numeric
// values are part of the wallet-facing contract.
type RejectionCode uint32

const (
	// NotEnoughMints: too few same-denomination mints were accumulated after
	// the coin for a sound anonymity set. Retry once more blocks exist.
	NotEnoughMints RejectionCode = 0
	// Undetermined: the witness could not be resolved within the computation
	// budget, the computation was interrupted, or the chain data was
	// incomplete or inconsistent.
	Undetermined RejectionCode = 1
)

func (c RejectionCode) String() string {
	switch c {
	case NotEnoughMints:
		return "not_enough_mints"
	case Undetermined:
		return "undetermined"
	default:
		return fmt.Sprintf("rejection_%d", uint32(c))
	}
}

// ResultHandler receives the outcome of a witness request. It is invoked on
// the worker goroutine and must not block.
type ResultHandler func(*WitnessResult)

// WitnessRequest asks for a membership witness of a minted coin.
type WitnessRequest struct {
	ID           uuid.UUID
	Denomination Denomination
	Commitment   *big.Int
	// MintHeight is the height of the block that confirmed the mint.
	MintHeight uint64
	// TargetHeight bounds the checkpoint the witness is built against.
	// Zero means the current chain tip.
	TargetHeight uint64
	// RequiredDepth is the number of confirmations the target checkpoint
	// must have relative to the chain tip.
	RequiredDepth uint64
	// Sequence is assigned on submission and reflects queue order.
	Sequence uint64
	Handler  ResultHandler
}

// NewWitnessRequest creates a request with a fresh ID.
func NewWitnessRequest(d Denomination, commitment *big.Int, mintHeight uint64, handler ResultHandler) *WitnessRequest {
	return &WitnessRequest{
		ID:           uuid.New(),
		Denomination: d,
		Commitment:   commitment,
		MintHeight:   mintHeight,
		Handler:      handler,
	}
}

// Witness is everything a spend proof needs to show membership of a coin in
// the accumulator at CheckpointHeight.
type Witness struct {
	Denomination Denomination
	// Accumulator is the accumulator value at CheckpointHeight.
	Accumulator *big.Int
	// Value satisfies Value^commitment = Accumulator mod N.
	Value            *big.Int
	CheckpointHeight uint64
	// Auxiliary lists the other commitments folded into Value during replay,
	// in confirmation order.
	Auxiliary []*big.Int
	// MintsAdded counts same-denomination mints accumulated after the coin.
	MintsAdded int
}

// Rejection is a typed, recoverable failure to build a witness.
type Rejection struct {
	Code RejectionCode
	// Height is the last height processed before the rejection.
	Height uint64
	Reason string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("witness rejected (%s) at height %d: %s", r.Code, r.Height, r.Reason)
}

// WitnessResult carries either a Witness or a Rejection, never both.
type WitnessResult struct {
	RequestID uuid.UUID
	Sequence  uint64
	Witness   *Witness
	Rejection *Rejection
}

// IsSuccess returns true if the result carries a witness.
func (r *WitnessResult) IsSuccess() bool {
	return r.Witness != nil && r.Rejection == nil
}

// Reject builds a rejected result for req.
func Reject(req *WitnessRequest, code RejectionCode, height uint64, reason string) *WitnessResult {
	return &WitnessResult{
		RequestID: req.ID,
		Sequence:  req.Sequence,
		Rejection: &Rejection{Code: code, Height: height, Reason: reason},
	}
}
