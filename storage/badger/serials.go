package badger

import (
	"math/big"

	"github.com/dgraph-io/badger/v2"

	"github.com/nodezero/nodezero-go/storage"
	"github.com/nodezero/nodezero-go/storage/badger/operation"
)

type SpentSerials struct {
	db *badger.DB
}

var _ storage.SpentSerials = (*SpentSerials)(nil)

func NewSpentSerials(db *badger.DB) *SpentSerials {
	return &SpentSerials{db: db}
}

func (s *SpentSerials) Index(serial *big.Int, height uint64) error {
	return s.db.Update(s.IndexTx(serial, height))
}

// IndexTx returns the operation recording serial as spent at height as part
// of a larger transaction.
// Error returns:
//   - storage.ErrAlreadyExists if the serial was spent before
func (s *SpentSerials) IndexTx(serial *big.Int, height uint64) func(*badger.Txn) error {
	return operation.InsertSpentSerial(serial, height)
}

func (s *SpentSerials) HeightBySerial(serial *big.Int) (uint64, error) {
	var height uint64
	err := s.db.View(operation.LookupSpentSerial(serial, &height))
	return height, err
}
