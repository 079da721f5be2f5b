package zerocoin

import (
	"math/big"
)

// Checkpoint maps each denomination to the accumulator value after all mints
// of that denomination up to and including the checkpoint height.
type Checkpoint map[Denomination]*big.Int

// NewCheckpoint returns a checkpoint with every denomination set to a copy
// of value.
func NewCheckpoint(value *big.Int) Checkpoint {
	cp := make(Checkpoint, len(AllDenominations))
	for _, d := range AllDenominations {
		cp[d] = new(big.Int).Set(value)
	}
	return cp
}

// Value returns a copy of the accumulator value for d, or nil if absent.
func (c Checkpoint) Value(d Denomination) *big.Int {
	v, ok := c[d]
	if !ok || v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}

// Clone returns a deep copy. Stored checkpoints are never handed out
// directly, callers always receive clones.
func (c Checkpoint) Clone() Checkpoint {
	if c == nil {
		return nil
	}
	dup := make(Checkpoint, len(c))
	for d, v := range c {
		if v == nil {
			dup[d] = nil
			continue
		}
		dup[d] = new(big.Int).Set(v)
	}
	return dup
}

// Equal returns true if both checkpoints hold the same values for the same
// denominations.
func (c Checkpoint) Equal(other Checkpoint) bool {
	if len(c) != len(other) {
		return false
	}
	for d, v := range c {
		o, ok := other[d]
		if !ok {
			return false
		}
		if (v == nil) != (o == nil) {
			return false
		}
		if v != nil && v.Cmp(o) != 0 {
			return false
		}
	}
	return true
}

// IsComplete returns true if every denomination has a value.
func (c Checkpoint) IsComplete() bool {
	for _, d := range AllDenominations {
		if c[d] == nil {
			return false
		}
	}
	return true
}
