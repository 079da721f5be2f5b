package unittest

import (
	"crypto/rand"
	"math/big"

	"github.com/nodezero/nodezero-go/model/zerocoin"
)

// CommitmentFixture returns a random 256 bit prime, which is a valid coin
// commitment for every network modulus.
func CommitmentFixture() *big.Int {
	p, err := rand.Prime(rand.Reader, 256)
	if err != nil {
		panic(err)
	}
	return p
}

func CommitmentFixtures(n int) []*big.Int {
	commitments := make([]*big.Int, 0, n)
	for i := 0; i < n; i++ {
		commitments = append(commitments, CommitmentFixture())
	}
	return commitments
}

// SerialFixture returns a random 128 bit serial, which is within the serial
// range of every network.
func SerialFixture() *big.Int {
	b := make([]byte, 16)
	_, err := rand.Read(b)
	if err != nil {
		panic(err)
	}
	b[0] |= 0x80
	return new(big.Int).SetBytes(b)
}

func WithMintIndex(index uint32) func(*zerocoin.Mint) {
	return func(m *zerocoin.Mint) {
		m.Index = index
	}
}

func WithCommitment(commitment *big.Int) func(*zerocoin.Mint) {
	return func(m *zerocoin.Mint) {
		m.Commitment = commitment
	}
}

func MintFixture(d zerocoin.Denomination, height uint64, opts ...func(*zerocoin.Mint)) zerocoin.Mint {
	mint := zerocoin.Mint{
		Denomination: d,
		Commitment:   CommitmentFixture(),
		Height:       height,
	}
	for _, apply := range opts {
		apply(&mint)
	}
	return mint
}

// MintListFixture returns n mints of denomination d at height with
// increasing indexes.
func MintListFixture(d zerocoin.Denomination, height uint64, n int) []zerocoin.Mint {
	mints := make([]zerocoin.Mint, 0, n)
	for i := 0; i < n; i++ {
		mints = append(mints, MintFixture(d, height, WithMintIndex(uint32(i))))
	}
	return mints
}

func WithSpendVersion(version zerocoin.SpendVersion) func(*zerocoin.Spend) {
	return func(s *zerocoin.Spend) {
		s.Version = version
	}
}

func WithSerial(serial *big.Int) func(*zerocoin.Spend) {
	return func(s *zerocoin.Spend) {
		s.Serial = serial
	}
}

func WithCheckpointHeight(height uint64) func(*zerocoin.Spend) {
	return func(s *zerocoin.Spend) {
		s.CheckpointHeight = height
	}
}

func WithStake() func(*zerocoin.Spend) {
	return func(s *zerocoin.Spend) {
		s.ForStake = true
	}
}

// SpendFixture returns a public spend at height with a random serial and a
// checkpoint deep enough for any network.
func SpendFixture(d zerocoin.Denomination, height uint64, opts ...func(*zerocoin.Spend)) zerocoin.Spend {
	checkpoint := uint64(0)
	if height > 1000 {
		checkpoint = height - 1000
	}
	spend := zerocoin.Spend{
		Serial:           SerialFixture(),
		Denomination:     d,
		Height:           height,
		Version:          zerocoin.PublicSpend,
		CheckpointHeight: checkpoint,
	}
	for _, apply := range opts {
		apply(&spend)
	}
	return spend
}

// WitnessRequestFixture returns a request for the witness of mint that
// delivers its result on the returned channel.
func WitnessRequestFixture(mint zerocoin.Mint) (*zerocoin.WitnessRequest, <-chan *zerocoin.WitnessResult) {
	results := make(chan *zerocoin.WitnessResult, 1)
	req := zerocoin.NewWitnessRequest(mint.Denomination, mint.Commitment, mint.Height, func(result *zerocoin.WitnessResult) {
		results <- result
	})
	return req, results
}
