package validation

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/nodezero/nodezero-go/crypto/accumulator"
	"github.com/nodezero/nodezero-go/model/chain"
	"github.com/nodezero/nodezero-go/model/zerocoin"
	"github.com/nodezero/nodezero-go/module"
	"github.com/nodezero/nodezero-go/storage"
)

// BannedSerials reports serial numbers produced by the fraudulent-serial attack.
type BannedSerials interface {
	IsBanned(serial *big.Int) bool
}

// SpendValidator implements the zerocoin consensus rules for spends and
// mints. Apart from CheckDoubleSpend, every check is a pure function of its
// arguments and the network policy.
type SpendValidator struct {
	chain   *chain.Params
	params  *accumulator.Params
	banned  BannedSerials
	spent   storage.SpentSerials
	metrics module.SpendMetrics
}

func NewSpendValidator(
	chainParams *chain.Params,
	params *accumulator.Params,
	banned BannedSerials,
	spent storage.SpentSerials,
	metrics module.SpendMetrics,
) *SpendValidator {
	return &SpendValidator{
		chain:   chainParams,
		params:  params,
		banned:  banned,
		spent:   spent,
		metrics: metrics,
	}
}

// ValidateSpend checks a single spend included in a block at spend.Height.
// Expected errors during normal operations:
//   - InvalidSpendError if the spend violates a consensus rule
func (v *SpendValidator) ValidateSpend(spend zerocoin.Spend) error {
	err := v.checkSpend(spend)
	v.report(err)
	return err
}

// ValidateTransactionSpends checks all spends of one transaction included in
// a block at height: the per-transaction limit, serials repeated inside the
// transaction, and then every spend on its own.
// Expected errors during normal operations:
//   - InvalidSpendError if any spend violates a consensus rule
func (v *SpendValidator) ValidateTransactionSpends(height uint64, spends []zerocoin.Spend) error {
	err := v.checkTransaction(height, spends)
	v.report(err)
	return err
}

// CheckDoubleSpend checks that serial was never spent on the chain.
// Expected errors during normal operations:
//   - InvalidSpendError if the serial is already spent
func (v *SpendValidator) CheckDoubleSpend(serial *big.Int, height uint64) error {
	spentAt, err := v.spent.HeightBySerial(serial)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("could not look up serial: %w", err)
	}
	err = NewInvalidSpendErrorf(serial, height, ReasonDoubleSpend, "serial already spent at height %d", spentAt)
	v.report(err)
	return err
}

// ValidateMint checks a mint output paying fee.
// Expected errors during normal operations:
//   - InvalidMintError if the mint violates a consensus rule
func (v *SpendValidator) ValidateMint(mint zerocoin.Mint, fee int64) error {
	if !v.chain.IsZerocoinActive(mint.Height) {
		return NewInvalidMintErrorf(mint.Height, "zerocoin is not active before height %d", v.chain.ZerocoinStartHeight)
	}
	if !mint.Denomination.IsValid() {
		return NewInvalidMintErrorf(mint.Height, "invalid denomination %d", mint.Denomination)
	}
	err := v.params.ValidateCoin(mint.Commitment)
	if err != nil {
		return NewInvalidMintErrorf(mint.Height, "invalid commitment: %w", err)
	}
	if fee < v.chain.MinZerocoinMintFee {
		return NewInvalidMintErrorf(mint.Height, "fee %d below minimum %d", fee, v.chain.MinZerocoinMintFee)
	}
	return nil
}

func (v *SpendValidator) checkTransaction(height uint64, spends []zerocoin.Spend) error {
	if len(spends) == 0 {
		return nil
	}
	limit := v.chain.MaxSpendsPerTransaction(height)
	if len(spends) > limit {
		return NewInvalidSpendErrorf(spends[0].Serial, height, ReasonTooManySpends,
			"transaction has %d spends, at most %d allowed", len(spends), limit)
	}

	seen := make(map[string]struct{}, len(spends))
	for _, spend := range spends {
		key := zerocoin.SerialKey(spend.Serial)
		if _, dup := seen[key]; dup {
			return NewInvalidSpendErrorf(spend.Serial, height, ReasonDuplicateSerial, "serial spent twice in one transaction")
		}
		seen[key] = struct{}{}
	}

	for _, spend := range spends {
		if spend.Height != height {
			return fmt.Errorf("spend height %d does not match transaction height %d", spend.Height, height)
		}
		err := v.checkSpend(spend)
		if err != nil {
			return err
		}
	}
	return nil
}

func (v *SpendValidator) checkSpend(spend zerocoin.Spend) error {
	h := spend.Height
	if spend.Serial == nil {
		return NewInvalidSpendErrorf(nil, h, ReasonSerialOutOfRange, "missing serial")
	}
	if !v.chain.IsZerocoinActive(h) {
		return NewInvalidSpendErrorf(spend.Serial, h, ReasonZerocoinInactive, "zerocoin is not active before height %d", v.chain.ZerocoinStartHeight)
	}
	if !spend.Denomination.IsValid() {
		return NewInvalidSpendErrorf(spend.Serial, h, ReasonInvalidDenomination, "invalid denomination %d", spend.Denomination)
	}
	if spend.ForStake && !v.chain.IsZerocoinV2(h) {
		return NewInvalidSpendErrorf(spend.Serial, h, ReasonStakeBeforeV2, "zerocoin staking starts at height %d", v.chain.BlockZerocoinV2)
	}
	if v.chain.IsSerialRangeEnforced(h) && !v.params.IsValidSerial(spend.Serial) {
		return NewInvalidSpendErrorf(spend.Serial, h, ReasonSerialOutOfRange, "serial outside of the serial group")
	}
	if v.banned.IsBanned(spend.Serial) && !v.chain.IsGrandfatheredFraud(h) {
		return NewInvalidSpendErrorf(spend.Serial, h, ReasonBannedSerial, "serial is banned from height %d", v.chain.BlockFirstFraudulent)
	}
	if v.chain.IsPublicSpendEnforced(h) && spend.Version != zerocoin.PublicSpend {
		return NewInvalidSpendErrorf(spend.Serial, h, ReasonPrivateSpend, "%s spends are not allowed from height %d", spend.Version, v.chain.PublicSpendsHeight)
	}

	depth := v.requiredDepth(spend)
	if h < depth || spend.CheckpointHeight > h-depth {
		return NewInvalidSpendErrorf(spend.Serial, h, ReasonCheckpointTooRecent,
			"checkpoint at height %d has fewer than %d confirmations", spend.CheckpointHeight, depth)
	}
	return nil
}

// requiredDepth is the number of confirmations the accumulator checkpoint of
// a spend must have.
func (v *SpendValidator) requiredDepth(spend zerocoin.Spend) uint64 {
	if spend.ForStake {
		return v.chain.ZerocoinRequiredStakeDepth
	}
	return v.chain.MintRequiredConfirmations
}

func (v *SpendValidator) report(err error) {
	if err == nil {
		v.metrics.SpendAccepted()
		return
	}
	if reason, ok := RejectReason(err); ok {
		v.metrics.SpendRejected(string(reason))
	}
}
