package accumulators

import (
	"errors"
	"fmt"

	"github.com/nodezero/nodezero-go/model/chain"
)

// LoadError is returned when a static checkpoint dataset cannot be used.
// Startup for the network must be aborted.
type LoadError struct {
	Network chain.ChainID
	Err     error
}

func NewLoadError(network chain.ChainID, err error) *LoadError {
	return &LoadError{Network: network, Err: err}
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("invalid checkpoint dataset for network %s: %v", e.Network, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// IsLoadError returns true if err is or wraps a LoadError.
func IsLoadError(err error) bool {
	var loadErr *LoadError
	return errors.As(err, &loadErr)
}
