package accumulator

import (
	"crypto/sha256"
	"fmt"
	"math/big"
)

const (
	// accumulatorBase is the accumulator value of the empty set.
	accumulatorBase = 961

	// minCoinBits is the bit length a coin commitment must reach. Commitments
	// below it could collide with serial numbers.
	minCoinBits = 256

	// primalityRounds is the number of Miller-Rabin rounds used for coin and
	// group order checks.
	primalityRounds = 20
)

// Params are the group parameters derived from one encoding of the network
// modulus. Params are immutable after construction.
type Params struct {
	v1               bool
	modulus          *big.Int
	accumulatorBase  *big.Int
	minCoinValue     *big.Int
	maxCoinValue     *big.Int
	serialGroupOrder *big.Int
}

// NewParams parses the modulus digit string and derives the group parameters.
// The legacy (v1) encoding reads the string as hexadecimal, the current one
// as decimal. Both yield a valid but different modulus.
func NewParams(modulus string, useModulusV1 bool) (*Params, error) {
	base := 10
	if useModulusV1 {
		base = 16
	}

	n, ok := new(big.Int).SetString(modulus, base)
	if !ok {
		return nil, fmt.Errorf("could not parse modulus in base %d", base)
	}
	if n.Sign() <= 0 || n.Bit(0) == 0 {
		return nil, fmt.Errorf("modulus must be a positive odd integer")
	}

	minCoin := new(big.Int).Lsh(big.NewInt(1), minCoinBits-1)
	if n.Cmp(minCoin) <= 0 {
		return nil, fmt.Errorf("modulus too small: %d bits", n.BitLen())
	}

	return &Params{
		v1:               useModulusV1,
		modulus:          n,
		accumulatorBase:  big.NewInt(accumulatorBase),
		minCoinValue:     minCoin,
		maxCoinValue:     new(big.Int).Set(n),
		serialGroupOrder: deriveSerialGroupOrder(n),
	}, nil
}

// deriveSerialGroupOrder hashes the modulus and searches upwards for the next
// prime, producing a 256 bit prime that is a pure function of the modulus.
func deriveSerialGroupOrder(n *big.Int) *big.Int {
	digest := sha256.Sum256(n.Bytes())
	q := new(big.Int).SetBytes(digest[:])
	q.SetBit(q, 255, 1)
	q.SetBit(q, 0, 1)

	two := big.NewInt(2)
	for !q.ProbablyPrime(primalityRounds) {
		q.Add(q, two)
	}
	return q
}

// IsV1 returns true if the parameters use the legacy modulus encoding.
func (p *Params) IsV1() bool {
	return p.v1
}

// Modulus returns a copy of the accumulator modulus.
func (p *Params) Modulus() *big.Int {
	return new(big.Int).Set(p.modulus)
}

// AccumulatorBase returns a copy of the empty-set accumulator value.
func (p *Params) AccumulatorBase() *big.Int {
	return new(big.Int).Set(p.accumulatorBase)
}

// MinCoinValue returns a copy of the smallest accepted coin commitment.
func (p *Params) MinCoinValue() *big.Int {
	return new(big.Int).Set(p.minCoinValue)
}

// MaxCoinValue returns a copy of the exclusive upper bound of coin commitments.
func (p *Params) MaxCoinValue() *big.Int {
	return new(big.Int).Set(p.maxCoinValue)
}

// SerialGroupOrder returns a copy of the exclusive upper bound of serial numbers.
func (p *Params) SerialGroupOrder() *big.Int {
	return new(big.Int).Set(p.serialGroupOrder)
}

// IsValidSerial returns true if 0 < serial < SerialGroupOrder.
func (p *Params) IsValidSerial(serial *big.Int) bool {
	return serial != nil && serial.Sign() > 0 && serial.Cmp(p.serialGroupOrder) < 0
}

// ValidateCoin checks that a commitment lies in [MinCoinValue, MaxCoinValue)
// and is a probable prime.
func (p *Params) ValidateCoin(commitment *big.Int) error {
	if commitment == nil {
		return fmt.Errorf("%w: nil commitment", ErrInvalidCoin)
	}
	if commitment.Cmp(p.minCoinValue) < 0 || commitment.Cmp(p.maxCoinValue) >= 0 {
		return fmt.Errorf("%w: commitment out of range", ErrInvalidCoin)
	}
	if !commitment.ProbablyPrime(primalityRounds) {
		return fmt.Errorf("%w: commitment is not prime", ErrInvalidCoin)
	}
	return nil
}

// ModulusProvider holds the parameters of both modulus encodings of a network.
type ModulusProvider struct {
	v1 *Params
	v2 *Params
}

// NewModulusProvider builds the parameters for both encodings of modulus.
func NewModulusProvider(modulus string) (*ModulusProvider, error) {
	v1, err := NewParams(modulus, true)
	if err != nil {
		return nil, fmt.Errorf("could not build v1 parameters: %w", err)
	}
	v2, err := NewParams(modulus, false)
	if err != nil {
		return nil, fmt.Errorf("could not build v2 parameters: %w", err)
	}
	return &ModulusProvider{v1: v1, v2: v2}, nil
}

// Params returns the parameters for the requested encoding.
func (m *ModulusProvider) Params(useModulusV1 bool) *Params {
	if useModulusV1 {
		return m.v1
	}
	return m.v2
}
