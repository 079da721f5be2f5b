package accumulator

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/nodezero/nodezero-go/model/zerocoin"
)

// ErrInvalidCoin is returned when a commitment cannot be accumulated.
var ErrInvalidCoin = errors.New("invalid coin commitment")

// Identity returns the accumulator value of the empty set.
func Identity(p *Params) *big.Int {
	return p.AccumulatorBase()
}

// Accumulate returns current^commitment mod N. Neither input is modified.
func Accumulate(p *Params, current, commitment *big.Int) (*big.Int, error) {
	if err := p.ValidateCoin(commitment); err != nil {
		return nil, err
	}
	return new(big.Int).Exp(current, commitment, p.modulus), nil
}

// AccumulateAll folds the commitments into current in order.
func AccumulateAll(p *Params, current *big.Int, commitments ...*big.Int) (*big.Int, error) {
	value := new(big.Int).Set(current)
	for i, c := range commitments {
		next, err := Accumulate(p, value, c)
		if err != nil {
			return nil, fmt.Errorf("could not accumulate commitment %d: %w", i, err)
		}
		value = next
	}
	return value, nil
}

// Accumulator is the accumulator of one denomination.
type Accumulator struct {
	params       *Params
	denomination zerocoin.Denomination
	value        *big.Int
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator(p *Params, d zerocoin.Denomination) *Accumulator {
	return &Accumulator{
		params:       p,
		denomination: d,
		value:        Identity(p),
	}
}

// NewAccumulatorFromValue returns an accumulator that continues from value.
func NewAccumulatorFromValue(p *Params, d zerocoin.Denomination, value *big.Int) *Accumulator {
	return &Accumulator{
		params:       p,
		denomination: d,
		value:        new(big.Int).Set(value),
	}
}

// Add accumulates one commitment. The accumulator is unchanged on error.
func (a *Accumulator) Add(commitment *big.Int) error {
	next, err := Accumulate(a.params, a.value, commitment)
	if err != nil {
		return err
	}
	a.value = next
	return nil
}

func (a *Accumulator) Value() *big.Int {
	return new(big.Int).Set(a.value)
}

func (a *Accumulator) Denomination() zerocoin.Denomination {
	return a.denomination
}

func (a *Accumulator) Clone() *Accumulator {
	return NewAccumulatorFromValue(a.params, a.denomination, a.value)
}

// Witness proves membership of one element in an accumulator. It holds the
// accumulation of every other element.
type Witness struct {
	params  *Params
	element *big.Int
	value   *big.Int
	skipped bool
}

// NewWitness returns a witness for element starting from the accumulator
// value base, which must not contain the element.
func NewWitness(p *Params, base, element *big.Int) *Witness {
	return &Witness{
		params:  p,
		element: new(big.Int).Set(element),
		value:   new(big.Int).Set(base),
	}
}

// Add accumulates a commitment into the witness. The first occurrence of the
// witnessed element is skipped.
func (w *Witness) Add(commitment *big.Int) error {
	if !w.skipped && commitment.Cmp(w.element) == 0 {
		w.skipped = true
		return nil
	}
	next, err := Accumulate(w.params, w.value, commitment)
	if err != nil {
		return err
	}
	w.value = next
	return nil
}

// Value returns a copy of the witness value.
func (w *Witness) Value() *big.Int {
	return new(big.Int).Set(w.value)
}

// ContainsElement returns true once the witnessed element has been seen.
func (w *Witness) ContainsElement() bool {
	return w.skipped
}

// Verify returns true if witness^element mod N equals acc.
func (w *Witness) Verify(acc *big.Int) bool {
	if !w.skipped {
		return false
	}
	return new(big.Int).Exp(w.value, w.element, w.params.modulus).Cmp(acc) == 0
}
