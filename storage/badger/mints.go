package badger

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v2"

	"github.com/nodezero/nodezero-go/model/zerocoin"
	"github.com/nodezero/nodezero-go/module"
	"github.com/nodezero/nodezero-go/module/metrics"
	"github.com/nodezero/nodezero-go/storage"
	"github.com/nodezero/nodezero-go/storage/badger/operation"
	"github.com/nodezero/nodezero-go/storage/badger/transaction"
)

// DefaultMintsCacheSize is the number of blocks kept in the mints cache.
const DefaultMintsCacheSize = 10_000

// Mints implements storage.Mints. Witness computations replay the same
// ranges of blocks over and over, so blocks are served from an LRU cache.
// Returned slices are shared with the cache and must not be modified.
type Mints struct {
	db    *badger.DB
	cache *Cache[uint64, []zerocoin.Mint]
}

var _ storage.Mints = (*Mints)(nil)

func NewMints(collector module.CacheMetrics, db *badger.DB, cacheSize uint) *Mints {

	retrieve := func(height uint64) func(*badger.Txn) ([]zerocoin.Mint, error) {
		return func(tx *badger.Txn) ([]zerocoin.Mint, error) {
			var mints []zerocoin.Mint
			err := operation.RetrieveMints(height, &mints)(tx)
			return mints, err
		}
	}

	if cacheSize == 0 {
		cacheSize = DefaultMintsCacheSize
	}

	return &Mints{
		db: db,
		cache: newCache[uint64, []zerocoin.Mint](collector, metrics.ResourceMints,
			withLimit[uint64, []zerocoin.Mint](cacheSize),
			withRetrieve[uint64, []zerocoin.Mint](retrieve),
		),
	}
}

func (m *Mints) IndexBlock(height uint64, mints []zerocoin.Mint) error {
	err := transaction.Update(m.db, m.IndexBlockTx(height, mints))
	if err != nil {
		return fmt.Errorf("could not index block %d: %w", height, err)
	}
	return nil
}

// IndexBlockTx returns the operation indexing the mints of the block at
// height as part of a larger transaction. The cache is updated once the
// transaction commits.
// Error returns:
//   - storage.ErrAlreadyExists if the block at height was indexed before
func (m *Mints) IndexBlockTx(height uint64, mints []zerocoin.Mint) func(*transaction.Tx) error {
	return func(tx *transaction.Tx) error {
		err := operation.InsertMints(height, mints)(tx.DBTxn)
		if err != nil {
			return fmt.Errorf("could not insert mints: %w", err)
		}

		cached := make([]zerocoin.Mint, len(mints))
		for i, mint := range mints {
			mint.Height = height
			cached[i] = mint
		}
		tx.OnSucceed(func() {
			m.cache.Insert(height, cached)
		})

		var latest uint64
		err = operation.RetrieveLatestMintHeight(&latest)(tx.DBTxn)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("could not retrieve latest height: %w", err)
		}
		if err == nil && latest >= height {
			return nil
		}

		err = operation.UpsertLatestMintHeight(height)(tx.DBTxn)
		if err != nil {
			return fmt.Errorf("could not update latest height: %w", err)
		}
		return nil
	}
}

func (m *Mints) ByHeight(height uint64) ([]zerocoin.Mint, error) {
	tx := m.db.NewTransaction(false)
	defer tx.Discard()
	return m.cache.Get(height)(tx)
}

func (m *Mints) LatestHeight() (uint64, error) {
	var height uint64
	err := m.db.View(operation.RetrieveLatestMintHeight(&height))
	return height, err
}
