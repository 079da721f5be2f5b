package zerocoin

import (
	"math/big"
)

// SpendVersion distinguishes the legacy private spend proof from the public
// spend variant.
type SpendVersion uint8

const (
	PrivateSpend SpendVersion = iota
	PublicSpend
)

func (v SpendVersion) String() string {
	switch v {
	case PrivateSpend:
		return "private"
	case PublicSpend:
		return "public"
	default:
		return "unknown"
	}
}

// Spend is the consensus-relevant content of a zerocoin spend input.
type Spend struct {
	Serial       *big.Int
	Denomination Denomination
	// Height is the height of the block containing the spend.
	Height  uint64
	Version SpendVersion
	// CheckpointHeight is the height of the accumulator checkpoint the
	// spend proof was built against.
	CheckpointHeight uint64
	// ForStake is set when the coin is used as a stake input.
	ForStake bool
}
