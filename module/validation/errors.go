package validation

import (
	"errors"
	"fmt"
	"math/big"
)

// SpendRejectReason names the consensus rule a spend violated.
type SpendRejectReason string

const (
	ReasonZerocoinInactive    SpendRejectReason = "zerocoin_inactive"
	ReasonInvalidDenomination SpendRejectReason = "invalid_denomination"
	ReasonSerialOutOfRange    SpendRejectReason = "serial_out_of_range"
	ReasonBannedSerial        SpendRejectReason = "banned_serial"
	ReasonPrivateSpend        SpendRejectReason = "private_spend"
	ReasonStakeBeforeV2       SpendRejectReason = "stake_before_v2"
	ReasonCheckpointTooRecent SpendRejectReason = "checkpoint_too_recent"
	ReasonTooManySpends       SpendRejectReason = "too_many_spends"
	ReasonDuplicateSerial     SpendRejectReason = "duplicate_serial"
	ReasonDoubleSpend         SpendRejectReason = "double_spend"
)

// InvalidSpendError indicates that a spend violates a zerocoin consensus rule.
// The enclosing transaction or block is invalid; the node itself is fine.
type InvalidSpendError struct {
	Serial *big.Int
	Height uint64
	Reason SpendRejectReason
	Err    error
}

func NewInvalidSpendErrorf(serial *big.Int, height uint64, reason SpendRejectReason, msg string, args ...interface{}) error {
	return InvalidSpendError{
		Serial: serial,
		Height: height,
		Reason: reason,
		Err:    fmt.Errorf(msg, args...),
	}
}

func (e InvalidSpendError) Error() string {
	return fmt.Sprintf("invalid spend of serial %x at height %d (%s): %s", e.Serial, e.Height, e.Reason, e.Err.Error())
}

func (e InvalidSpendError) Unwrap() error {
	return e.Err
}

// IsInvalidSpendError returns whether an error is InvalidSpendError
func IsInvalidSpendError(err error) bool {
	var e InvalidSpendError
	return errors.As(err, &e)
}

// RejectReason returns the reason of the InvalidSpendError wrapped by err, if any.
func RejectReason(err error) (SpendRejectReason, bool) {
	var e InvalidSpendError
	if errors.As(err, &e) {
		return e.Reason, true
	}
	return "", false
}

// InvalidMintError indicates that a mint output violates a zerocoin consensus rule.
type InvalidMintError struct {
	Height uint64
	Err    error
}

func NewInvalidMintErrorf(height uint64, msg string, args ...interface{}) error {
	return InvalidMintError{
		Height: height,
		Err:    fmt.Errorf(msg, args...),
	}
}

func (e InvalidMintError) Error() string {
	return fmt.Sprintf("invalid mint at height %d: %s", e.Height, e.Err.Error())
}

func (e InvalidMintError) Unwrap() error {
	return e.Err
}

// IsInvalidMintError returns whether an error is InvalidMintError
func IsInvalidMintError(err error) bool {
	var e InvalidMintError
	return errors.As(err, &e)
}
