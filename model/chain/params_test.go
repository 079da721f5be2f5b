package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamsFor(t *testing.T) {
	for _, id := range AllChainIDs() {
		p, err := ParamsFor(id)
		require.NoError(t, err)
		assert.Equal(t, id, p.ChainID)
		require.NoError(t, p.Validate())
	}

	_, err := ParamsFor("unknown")
	assert.Error(t, err)
}

func TestNetworkOverrides(t *testing.T) {
	mainnet := MainnetParams()
	test := TestnetParams()
	reg := RegtestParams()

	assert.Equal(t, uint64(700), mainnet.ZerocoinStartHeight)
	assert.Equal(t, uint64(97000), mainnet.PublicSpendsHeight)
	assert.Equal(t, uint64(205), test.ZerocoinStartHeight)
	assert.Equal(t, uint64(225), test.PublicSpendsHeight)
	assert.Equal(t, uint64(300), reg.BlockZerocoinV2)
	assert.Equal(t, uint64(0), reg.StakeMinDepth)

	// values that are not overridden carry over from the base network
	assert.Equal(t, mainnet.MaxZerocoinSpendsPerTransaction, reg.MaxZerocoinSpendsPerTransaction)
	assert.Equal(t, mainnet.ZerocoinModulus, reg.ZerocoinModulus)
}

func TestValidateRejectsBrokenParams(t *testing.T) {
	p := MainnetParams()
	p.ZerocoinModulus = ""
	assert.Error(t, p.Validate())

	p = MainnetParams()
	p.ZerocoinModulus = "12ab"
	assert.Error(t, p.Validate())

	p = MainnetParams()
	p.AccumulatorCheckpointInterval = 0
	assert.Error(t, p.Validate())

	p = MainnetParams()
	p.RequiredAccumulation = 0
	assert.Error(t, p.Validate())
}

func TestActivationHelpers(t *testing.T) {
	p := MainnetParams()
	p.BlockFirstFraudulent = 600

	assert.False(t, p.IsZerocoinActive(699))
	assert.True(t, p.IsZerocoinActive(700))

	assert.True(t, p.IsGrandfatheredFraud(599))
	assert.False(t, p.IsGrandfatheredFraud(600))

	assert.False(t, p.IsPublicSpendEnforced(96999))
	assert.True(t, p.IsPublicSpendEnforced(97000))

	assert.False(t, p.HasRecalculation())
	assert.False(t, p.IsRecalculationHeight(NoHeight))
	p.BlockRecalculateAccumulators = 800
	assert.True(t, p.IsRecalculationHeight(800))
	assert.False(t, p.IsRecalculationHeight(801))

	assert.True(t, p.IsCheckpointHeight(700))
	assert.False(t, p.IsCheckpointHeight(705))
	assert.Equal(t, uint64(700), p.LastCheckpointHeight(709))
}

func TestMaxSpendsPerTransaction(t *testing.T) {
	p := MainnetParams()
	assert.Equal(t, 7, p.MaxSpendsPerTransaction(1000))
	// zero public limit falls back to the general limit
	assert.Equal(t, 7, p.MaxSpendsPerTransaction(p.PublicSpendsHeight))

	p.MaxZerocoinPublicSpendsPerTransaction = 3
	assert.Equal(t, 3, p.MaxSpendsPerTransaction(p.PublicSpendsHeight))
	assert.Equal(t, 7, p.MaxSpendsPerTransaction(p.PublicSpendsHeight-1))
}

func TestHasStakeMinAgeOrDepth(t *testing.T) {
	p := MainnetParams()

	// before stake modifier v2: one hour of age
	assert.True(t, p.HasStakeMinAgeOrDepth(100, 10_000, 90, 10_000-3600))
	assert.False(t, p.HasStakeMinAgeOrDepth(100, 10_000, 90, 10_000-3599))

	// after: StakeMinDepth confirmations
	h := p.BlockStakeModifierV2
	assert.True(t, p.HasStakeMinAgeOrDepth(h, 0, h-30, 0))
	assert.False(t, p.HasStakeMinAgeOrDepth(h, 0, h-29, 0))

	reg := RegtestParams()
	assert.True(t, reg.HasStakeMinAgeOrDepth(100, 0, 100, 0))
}

func TestRecalculationFrom(t *testing.T) {
	p := RegtestParams()
	p.BlockRecalculateAccumulators = 900
	p.BlockLastGoodCheckpoint = 880
	assert.Equal(t, uint64(881), p.RecalculationFrom())
	assert.True(t, p.HasRecalculation())
	assert.True(t, p.IsRecalculationHeight(900))
	assert.False(t, p.IsRecalculationHeight(901))

	p.BlockLastGoodCheckpoint = NoHeight
	assert.Equal(t, p.ZerocoinStartHeight, p.RecalculationFrom())
}
