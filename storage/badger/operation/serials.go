package operation

import (
	"math/big"

	"github.com/dgraph-io/badger/v2"
)

// InsertSpentSerial records the height at which serial was spent.
// Error returns:
//   - storage.ErrAlreadyExists if the serial was spent before
func InsertSpentSerial(serial *big.Int, height uint64) func(*badger.Txn) error {
	return insert(makePrefix(codeSpentSerial, serial.Bytes()), height)
}

// LookupSpentSerial retrieves the height at which serial was spent.
// Error returns:
//   - storage.ErrNotFound if the serial was never spent
func LookupSpentSerial(serial *big.Int, height *uint64) func(*badger.Txn) error {
	return retrieve(makePrefix(codeSpentSerial, serial.Bytes()), height)
}
