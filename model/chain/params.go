package chain

import (
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
)

// ChainID selects one of the supported networks.
type ChainID string

const (
	Mainnet ChainID = "main"
	Testnet ChainID = "test"
	Regtest ChainID = "regtest"
)

func (id ChainID) String() string {
	return string(id)
}

// AllChainIDs lists the supported networks.
func AllChainIDs() []ChainID {
	return []ChainID{Mainnet, Testnet, Regtest}
}

const (
	Coin = 100_000_000
	Cent = 1_000_000
)

// DefaultWitnessComputationBudget is the maximum number of blocks a single
// witness computation replays.
const DefaultWitnessComputationBudget = 60 * 24 * 60

// NoHeight is used for activation heights that are never reached.
const NoHeight = math.MaxInt32

// Params holds the zerocoin policy of one network. All activation heights are
// inclusive: a rule is active at heights >= its activation height.
type Params struct {
	ChainID ChainID `validate:"required"`

	// ZerocoinModulus is the RSA modulus as a digit string. It is interpreted
	// as hex by the legacy (v1) encoding and as decimal otherwise.
	ZerocoinModulus     string `validate:"required,numeric"`
	ZerocoinStartHeight uint64
	ZerocoinStartTime   int64

	BlockEnforceSerialRange      uint64
	BlockRecalculateAccumulators uint64
	BlockFirstFraudulent         uint64
	BlockLastGoodCheckpoint      uint64
	BlockEnforceInvalidUTXO      uint64
	BlockZerocoinV2              uint64
	BlockDoubleAccumulated       uint64
	BlockStakeModifierV2         uint64
	PublicSpendsHeight           uint64

	// FakeSerialBlockheightEnd is -1 when the network never saw the attack.
	FakeSerialBlockheightEnd int64 `validate:"gte=-1"`

	StakeMinDepth uint64

	MaxZerocoinSpendsPerTransaction       int   `validate:"gt=0"`
	MaxZerocoinPublicSpendsPerTransaction int   `validate:"gte=0"`
	MinZerocoinMintFee                    int64 `validate:"gte=0"`
	MintRequiredConfirmations             uint64
	RequiredAccumulation                  int `validate:"gte=1"`
	DefaultSecurityLevel                  int `validate:"gte=1"`
	ZerocoinRequiredStakeDepth            uint64

	AccumulatorCheckpointInterval uint64 `validate:"gte=1"`
	WitnessComputationBudget      uint64 `validate:"gte=1"`
}

var validate = validator.New()

// Validate checks the structural constraints of the parameters.
func (p *Params) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid parameters for chain %q: %w", p.ChainID, err)
	}
	return nil
}

// MainnetParams returns the main network parameters.
func MainnetParams() Params {
	return Params{
		ChainID:                      Mainnet,
		ZerocoinModulus:              zerocoinModulus,
		ZerocoinStartHeight:          700,
		ZerocoinStartTime:            1589264401,
		BlockEnforceSerialRange:      1,
		BlockRecalculateAccumulators: NoHeight,
		BlockFirstFraudulent:         NoHeight,
		BlockLastGoodCheckpoint:      1,
		BlockEnforceInvalidUTXO:      NoHeight,
		BlockZerocoinV2:              12000,
		BlockDoubleAccumulated:       10,
		BlockStakeModifierV2:         50000,
		PublicSpendsHeight:           97000,
		FakeSerialBlockheightEnd:     -1,
		StakeMinDepth:                30,

		MaxZerocoinSpendsPerTransaction:       7,
		MaxZerocoinPublicSpendsPerTransaction: 0,
		MinZerocoinMintFee:                    1 * Cent,
		MintRequiredConfirmations:             20,
		RequiredAccumulation:                  1,
		DefaultSecurityLevel:                  100,
		ZerocoinRequiredStakeDepth:            100,

		AccumulatorCheckpointInterval: 10,
		WitnessComputationBudget:      DefaultWitnessComputationBudget,
	}
}

// TestnetParams returns the test network parameters.
func TestnetParams() Params {
	p := MainnetParams()
	p.ChainID = Testnet
	p.ZerocoinStartHeight = 205
	p.ZerocoinStartTime = 1584055193
	p.BlockEnforceSerialRange = 1
	p.BlockRecalculateAccumulators = NoHeight
	p.BlockFirstFraudulent = NoHeight
	p.BlockLastGoodCheckpoint = 1
	p.BlockEnforceInvalidUTXO = NoHeight
	p.BlockZerocoinV2 = 220
	p.BlockStakeModifierV2 = 225
	p.PublicSpendsHeight = 225
	p.FakeSerialBlockheightEnd = -1
	p.StakeMinDepth = 60
	return p
}

// RegtestParams returns the regression test network parameters.
func RegtestParams() Params {
	p := TestnetParams()
	p.ChainID = Regtest
	p.ZerocoinStartHeight = 205
	p.ZerocoinStartTime = 1583882393
	p.BlockZerocoinV2 = 300
	p.BlockLastGoodCheckpoint = NoHeight
	p.BlockStakeModifierV2 = NoHeight
	p.PublicSpendsHeight = 225
	p.StakeMinDepth = 0
	return p
}

// ParamsFor returns the parameters of the given network.
func ParamsFor(id ChainID) (Params, error) {
	switch id {
	case Mainnet:
		return MainnetParams(), nil
	case Testnet:
		return TestnetParams(), nil
	case Regtest:
		return RegtestParams(), nil
	default:
		return Params{}, fmt.Errorf("unknown chain id %q", id)
	}
}

// IsZerocoinActive returns true if zerocoin transactions are allowed at height.
func (p *Params) IsZerocoinActive(height uint64) bool {
	return height >= p.ZerocoinStartHeight
}

// IsSerialRangeEnforced returns true if spends at height must carry a serial
// inside the valid range.
func (p *Params) IsSerialRangeEnforced(height uint64) bool {
	return height >= p.BlockEnforceSerialRange
}

// IsPublicSpendEnforced returns true if spends at height must use the public
// spend variant.
func (p *Params) IsPublicSpendEnforced(height uint64) bool {
	return height >= p.PublicSpendsHeight
}

// IsRecalculationHeight returns true if height is the configured accumulator
// recovery height.
func (p *Params) IsRecalculationHeight(height uint64) bool {
	return p.BlockRecalculateAccumulators != NoHeight && height == p.BlockRecalculateAccumulators
}

// HasRecalculation returns true if the network names a recovery height.
func (p *Params) HasRecalculation() bool {
	return p.BlockRecalculateAccumulators != NoHeight
}

// RecalculationFrom returns the lowest height whose checkpoints are rebuilt
// by the accumulator recovery: everything after the last good checkpoint, or
// everything from the zerocoin start if no good checkpoint precedes the
// recovery height.
func (p *Params) RecalculationFrom() uint64 {
	if p.BlockLastGoodCheckpoint < p.BlockRecalculateAccumulators {
		return p.BlockLastGoodCheckpoint + 1
	}
	return p.ZerocoinStartHeight
}

// IsGrandfatheredFraud returns true if spends of banned serials are still
// accepted at height, i.e. the block predates detection of the attack.
func (p *Params) IsGrandfatheredFraud(height uint64) bool {
	return height < p.BlockFirstFraudulent
}

// IsZerocoinV2 returns true if height is at or after the zerocoin v2 upgrade.
func (p *Params) IsZerocoinV2(height uint64) bool {
	return height >= p.BlockZerocoinV2
}

// IsStakeModifierV2 returns true if height uses the v2 stake modifier.
func (p *Params) IsStakeModifierV2(height uint64) bool {
	return height >= p.BlockStakeModifierV2
}

// IsCheckpointHeight returns true if an accumulator checkpoint is taken at
// height.
func (p *Params) IsCheckpointHeight(height uint64) bool {
	return height%p.AccumulatorCheckpointInterval == 0
}

// LastCheckpointHeight returns the greatest checkpoint height <= height.
func (p *Params) LastCheckpointHeight(height uint64) uint64 {
	return height - height%p.AccumulatorCheckpointInterval
}

// MaxSpendsPerTransaction returns the number of zerocoin spends allowed in
// one transaction at height. A public spend limit of zero means the general
// limit applies.
func (p *Params) MaxSpendsPerTransaction(height uint64) int {
	if p.IsPublicSpendEnforced(height) && p.MaxZerocoinPublicSpendsPerTransaction > 0 {
		return p.MaxZerocoinPublicSpendsPerTransaction
	}
	return p.MaxZerocoinSpendsPerTransaction
}

// HasStakeMinAgeOrDepth checks whether a UTXO is old enough to stake. Before
// the v2 stake modifier one hour of age is required (not on regtest);
// afterwards StakeMinDepth confirmations are required.
func (p *Params) HasStakeMinAgeOrDepth(contextHeight uint64, contextTime uint32, utxoHeight uint64, utxoTime uint32) bool {
	if !p.IsStakeModifierV2(contextHeight) {
		return p.ChainID == Regtest || uint64(utxoTime)+3600 <= uint64(contextTime)
	}
	return contextHeight >= utxoHeight && contextHeight-utxoHeight >= p.StakeMinDepth
}
