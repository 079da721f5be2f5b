package storage

import (
	"math/big"
)

// SpentSerials indexes the serial numbers of spent zerocoins.
type SpentSerials interface {

	// Index records serial as spent in the block at height.
	// Expected errors during normal operations:
	//   - storage.ErrAlreadyExists if the serial was spent before
	Index(serial *big.Int, height uint64) error

	// HeightBySerial returns the height of the block that spent serial.
	// Expected errors during normal operations:
	//   - storage.ErrNotFound if the serial was never spent
	HeightBySerial(serial *big.Int) (uint64, error)
}
