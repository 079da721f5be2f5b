package validation

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/nodezero/nodezero-go/crypto/accumulator"
	"github.com/nodezero/nodezero-go/model/chain"
	"github.com/nodezero/nodezero-go/model/zerocoin"
	modulemock "github.com/nodezero/nodezero-go/module/mock"
	"github.com/nodezero/nodezero-go/module/serials"
	"github.com/nodezero/nodezero-go/storage"
	storagemock "github.com/nodezero/nodezero-go/storage/mock"
	"github.com/nodezero/nodezero-go/utils/unittest"
)

type SpendValidatorSuite struct {
	suite.Suite
	chain     *chain.Params
	params    *accumulator.Params
	banned    *big.Int
	spent     *storagemock.SpentSerials
	metrics   *modulemock.SpendMetrics
	validator *SpendValidator
}

func TestSpendValidator(t *testing.T) {
	suite.Run(t, new(SpendValidatorSuite))
}

func (s *SpendValidatorSuite) SetupTest() {
	p := chain.RegtestParams()
	p.ZerocoinStartHeight = 100
	p.BlockEnforceSerialRange = 150
	p.BlockFirstFraudulent = 600
	p.PublicSpendsHeight = 1000
	p.MintRequiredConfirmations = 20
	p.ZerocoinRequiredStakeDepth = 200
	p.BlockZerocoinV2 = 500
	p.MaxZerocoinSpendsPerTransaction = 3
	p.MaxZerocoinPublicSpendsPerTransaction = 2
	p.MinZerocoinMintFee = chain.Cent
	s.chain = &p

	params, err := accumulator.NewParams(p.ZerocoinModulus, false)
	s.Require().NoError(err)
	s.params = params

	s.banned = unittest.SerialFixture()
	registry, err := serials.Load([]byte(fmt.Sprintf(`[{"s": "%s"}]`, zerocoin.SerialKey(s.banned))))
	s.Require().NoError(err)

	s.spent = storagemock.NewSpentSerials(s.T())
	s.metrics = modulemock.NewSpendMetrics(s.T())
	s.metrics.On("SpendAccepted").Maybe()
	s.metrics.On("SpendRejected", mock.Anything).Maybe()

	s.validator = NewSpendValidator(s.chain, s.params, registry, s.spent, s.metrics)
}

func (s *SpendValidatorSuite) requireRejected(err error, reason SpendRejectReason) {
	s.Require().Error(err)
	s.Require().True(IsInvalidSpendError(err), err.Error())
	actual, ok := RejectReason(err)
	s.Require().True(ok)
	s.Assert().Equal(reason, actual)
}

func (s *SpendValidatorSuite) TestStakeRequiresZerocoinV2() {
	early := unittest.SpendFixture(zerocoin.DenomOne, 450, unittest.WithStake(), unittest.WithCheckpointHeight(200))
	s.requireRejected(s.validator.ValidateSpend(early), ReasonStakeBeforeV2)

	// the same spend is fine as a plain spend
	early.ForStake = false
	s.Require().NoError(s.validator.ValidateSpend(early))

	late := unittest.SpendFixture(zerocoin.DenomOne, 700, unittest.WithStake(), unittest.WithCheckpointHeight(400))
	s.Require().NoError(s.validator.ValidateSpend(late))
}

func (s *SpendValidatorSuite) TestValidSpend() {
	spend := unittest.SpendFixture(zerocoin.DenomFive, 1200, unittest.WithCheckpointHeight(1180))
	s.Require().NoError(s.validator.ValidateSpend(spend))
	s.metrics.AssertCalled(s.T(), "SpendAccepted")
}

// TestBannedSerialGrandfathered checks spends of a banned serial before and
// after the first fraudulent block.
func (s *SpendValidatorSuite) TestBannedSerialGrandfathered() {
	early := unittest.SpendFixture(zerocoin.DenomTen, 500, unittest.WithSerial(s.banned), unittest.WithCheckpointHeight(400))
	s.Assert().NoError(s.validator.ValidateSpend(early))

	late := unittest.SpendFixture(zerocoin.DenomTen, 700, unittest.WithSerial(s.banned), unittest.WithCheckpointHeight(400))
	s.requireRejected(s.validator.ValidateSpend(late), ReasonBannedSerial)
	s.metrics.AssertCalled(s.T(), "SpendRejected", string(ReasonBannedSerial))

	boundary := unittest.SpendFixture(zerocoin.DenomTen, 600, unittest.WithSerial(s.banned), unittest.WithCheckpointHeight(400))
	s.requireRejected(s.validator.ValidateSpend(boundary), ReasonBannedSerial)
}

func (s *SpendValidatorSuite) TestZerocoinInactive() {
	spend := unittest.SpendFixture(zerocoin.DenomOne, 99, unittest.WithCheckpointHeight(0))
	s.requireRejected(s.validator.ValidateSpend(spend), ReasonZerocoinInactive)
}

func (s *SpendValidatorSuite) TestInvalidDenomination() {
	spend := unittest.SpendFixture(zerocoin.Denomination(7), 1200)
	s.requireRejected(s.validator.ValidateSpend(spend), ReasonInvalidDenomination)
}

func (s *SpendValidatorSuite) TestSerialRange() {
	order := s.params.SerialGroupOrder()
	for _, serial := range []*big.Int{big.NewInt(0), order, new(big.Int).Add(order, big.NewInt(1))} {
		// not enforced before the activation height
		before := unittest.SpendFixture(zerocoin.DenomOne, 149, unittest.WithSerial(serial), unittest.WithCheckpointHeight(100))
		s.Assert().NoError(s.validator.ValidateSpend(before))

		after := unittest.SpendFixture(zerocoin.DenomOne, 150, unittest.WithSerial(serial), unittest.WithCheckpointHeight(100))
		s.requireRejected(s.validator.ValidateSpend(after), ReasonSerialOutOfRange)
	}

	largest := new(big.Int).Sub(order, big.NewInt(1))
	spend := unittest.SpendFixture(zerocoin.DenomOne, 150, unittest.WithSerial(largest), unittest.WithCheckpointHeight(100))
	s.Assert().NoError(s.validator.ValidateSpend(spend))
}

func (s *SpendValidatorSuite) TestPublicSpendEnforced() {
	private := unittest.SpendFixture(zerocoin.DenomOne, 999, unittest.WithSpendVersion(zerocoin.PrivateSpend))
	s.Assert().NoError(s.validator.ValidateSpend(private))

	private = unittest.SpendFixture(zerocoin.DenomOne, 1000, unittest.WithSpendVersion(zerocoin.PrivateSpend), unittest.WithCheckpointHeight(900))
	s.requireRejected(s.validator.ValidateSpend(private), ReasonPrivateSpend)
}

func (s *SpendValidatorSuite) TestCheckpointDepth() {
	s.Run("regular spend", func() {
		ok := unittest.SpendFixture(zerocoin.DenomOne, 1200, unittest.WithCheckpointHeight(1180))
		s.Assert().NoError(s.validator.ValidateSpend(ok))

		recent := unittest.SpendFixture(zerocoin.DenomOne, 1200, unittest.WithCheckpointHeight(1181))
		s.requireRejected(s.validator.ValidateSpend(recent), ReasonCheckpointTooRecent)
	})

	s.Run("stake spend", func() {
		ok := unittest.SpendFixture(zerocoin.DenomOne, 1200, unittest.WithStake(), unittest.WithCheckpointHeight(1000))
		s.Assert().NoError(s.validator.ValidateSpend(ok))

		recent := unittest.SpendFixture(zerocoin.DenomOne, 1200, unittest.WithStake(), unittest.WithCheckpointHeight(1180))
		s.requireRejected(s.validator.ValidateSpend(recent), ReasonCheckpointTooRecent)
	})

	s.Run("chain shallower than depth", func() {
		s.chain.ZerocoinStartHeight = 0
		defer func() { s.chain.ZerocoinStartHeight = 100 }()

		spend := unittest.SpendFixture(zerocoin.DenomOne, 10, unittest.WithCheckpointHeight(0))
		s.requireRejected(s.validator.ValidateSpend(spend), ReasonCheckpointTooRecent)
	})
}

func (s *SpendValidatorSuite) TestTransactionSpends() {
	s.Run("within limit", func() {
		spends := []zerocoin.Spend{
			unittest.SpendFixture(zerocoin.DenomOne, 900),
			unittest.SpendFixture(zerocoin.DenomOne, 900),
			unittest.SpendFixture(zerocoin.DenomFive, 900),
		}
		s.Assert().NoError(s.validator.ValidateTransactionSpends(900, spends))
		s.Assert().NoError(s.validator.ValidateTransactionSpends(900, nil))
	})

	s.Run("public spend limit", func() {
		spends := []zerocoin.Spend{
			unittest.SpendFixture(zerocoin.DenomOne, 1200),
			unittest.SpendFixture(zerocoin.DenomOne, 1200),
			unittest.SpendFixture(zerocoin.DenomOne, 1200),
		}
		s.requireRejected(s.validator.ValidateTransactionSpends(1200, spends), ReasonTooManySpends)
		s.Assert().NoError(s.validator.ValidateTransactionSpends(1200, spends[:2]))
	})

	s.Run("zero public limit falls back to general limit", func() {
		s.chain.MaxZerocoinPublicSpendsPerTransaction = 0
		defer func() { s.chain.MaxZerocoinPublicSpendsPerTransaction = 2 }()

		spends := []zerocoin.Spend{
			unittest.SpendFixture(zerocoin.DenomOne, 1200),
			unittest.SpendFixture(zerocoin.DenomOne, 1200),
			unittest.SpendFixture(zerocoin.DenomOne, 1200),
		}
		s.Assert().NoError(s.validator.ValidateTransactionSpends(1200, spends))
	})

	s.Run("duplicate serial", func() {
		serial := unittest.SerialFixture()
		spends := []zerocoin.Spend{
			unittest.SpendFixture(zerocoin.DenomOne, 900, unittest.WithSerial(serial)),
			unittest.SpendFixture(zerocoin.DenomTen, 900, unittest.WithSerial(new(big.Int).Set(serial))),
		}
		s.requireRejected(s.validator.ValidateTransactionSpends(900, spends), ReasonDuplicateSerial)
	})

	s.Run("invalid spend", func() {
		spends := []zerocoin.Spend{
			unittest.SpendFixture(zerocoin.DenomOne, 700),
			unittest.SpendFixture(zerocoin.DenomOne, 700, unittest.WithSerial(s.banned)),
		}
		s.requireRejected(s.validator.ValidateTransactionSpends(700, spends), ReasonBannedSerial)
	})

	s.Run("height mismatch", func() {
		spends := []zerocoin.Spend{unittest.SpendFixture(zerocoin.DenomOne, 701)}
		err := s.validator.ValidateTransactionSpends(700, spends)
		s.Require().Error(err)
		s.Assert().False(IsInvalidSpendError(err))
	})
}

func (s *SpendValidatorSuite) TestCheckDoubleSpend() {
	fresh := unittest.SerialFixture()
	used := unittest.SerialFixture()
	s.spent.On("HeightBySerial", fresh).Return(uint64(0), storage.ErrNotFound).Once()
	s.spent.On("HeightBySerial", used).Return(uint64(321), nil).Once()

	s.Assert().NoError(s.validator.CheckDoubleSpend(fresh, 400))
	s.requireRejected(s.validator.CheckDoubleSpend(used, 400), ReasonDoubleSpend)

	broken := unittest.SerialFixture()
	s.spent.On("HeightBySerial", broken).Return(uint64(0), fmt.Errorf("disk on fire")).Once()
	err := s.validator.CheckDoubleSpend(broken, 400)
	s.Require().Error(err)
	s.Assert().False(IsInvalidSpendError(err))
}

func (s *SpendValidatorSuite) TestValidateMint() {
	mint := unittest.MintFixture(zerocoin.DenomFifty, 200)
	s.Assert().NoError(s.validator.ValidateMint(mint, chain.Cent))

	cases := map[string]struct {
		mint zerocoin.Mint
		fee  int64
	}{
		"inactive":     {unittest.MintFixture(zerocoin.DenomFifty, 99), chain.Cent},
		"denomination": {unittest.MintFixture(zerocoin.Denomination(3), 200), chain.Cent},
		"coin":         {unittest.MintFixture(zerocoin.DenomFifty, 200, unittest.WithCommitment(big.NewInt(7))), chain.Cent},
		"fee":          {mint, chain.Cent - 1},
	}
	for name, c := range cases {
		s.Run(name, func() {
			err := s.validator.ValidateMint(c.mint, c.fee)
			s.Require().Error(err)
			s.Assert().True(IsInvalidMintError(err))
		})
	}
}

// TestValidateSpendDeterministic checks that repeated validation of the same
// spend gives the same outcome.
func TestValidateSpendDeterministic(t *testing.T) {
	p := chain.MainnetParams()
	params, err := accumulator.NewParams(p.ZerocoinModulus, false)
	require.NoError(t, err)
	registry, err := serials.LoadNetwork(chain.Mainnet)
	require.NoError(t, err)

	metrics := modulemock.NewSpendMetrics(t)
	metrics.On("SpendAccepted").Maybe()
	metrics.On("SpendRejected", mock.Anything).Maybe()
	validator := NewSpendValidator(&p, params, registry, storagemock.NewSpentSerials(t), metrics)

	for _, h := range []uint64{699, 700, 96_999, 97_000, 200_000} {
		for _, version := range []zerocoin.SpendVersion{zerocoin.PrivateSpend, zerocoin.PublicSpend} {
			spend := unittest.SpendFixture(zerocoin.DenomOne, h, unittest.WithSpendVersion(version))
			first := validator.ValidateSpend(spend)
			second := validator.ValidateSpend(spend)
			assert.Equal(t, first == nil, second == nil)
			if first != nil {
				r1, _ := RejectReason(first)
				r2, _ := RejectReason(second)
				assert.Equal(t, r1, r2)
			}
		}
	}
}
