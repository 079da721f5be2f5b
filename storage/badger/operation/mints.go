package operation

import (
	"math/big"

	"github.com/dgraph-io/badger/v2"

	"github.com/nodezero/nodezero-go/model/zerocoin"
)

type mintEntry struct {
	Denomination uint32
	Commitment   []byte
	Index        uint32
}

// InsertMints indexes the mints of the block at height. Blocks without mints
// are indexed with an empty list so that known heights can be told apart from
// unknown ones.
// Error returns:
//   - storage.ErrAlreadyExists if the block at height was indexed before
func InsertMints(height uint64, mints []zerocoin.Mint) func(*badger.Txn) error {
	entries := make([]mintEntry, 0, len(mints))
	for _, mint := range mints {
		entries = append(entries, mintEntry{
			Denomination: uint32(mint.Denomination),
			Commitment:   mint.Commitment.Bytes(),
			Index:        mint.Index,
		})
	}
	return insert(makePrefix(codeMintsByHeight, height), entries)
}

// RetrieveMints retrieves the mints of the block at height.
// Error returns:
//   - storage.ErrNotFound if the block at height was not indexed
func RetrieveMints(height uint64, mints *[]zerocoin.Mint) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		var entries []mintEntry
		err := retrieve(makePrefix(codeMintsByHeight, height), &entries)(tx)
		if err != nil {
			return err
		}

		result := make([]zerocoin.Mint, 0, len(entries))
		for _, entry := range entries {
			result = append(result, zerocoin.Mint{
				Denomination: zerocoin.Denomination(entry.Denomination),
				Commitment:   new(big.Int).SetBytes(entry.Commitment),
				Height:       height,
				Index:        entry.Index,
			})
		}
		*mints = result
		return nil
	}
}

// UpsertLatestMintHeight sets the height of the highest indexed block.
func UpsertLatestMintHeight(height uint64) func(*badger.Txn) error {
	return upsert(makePrefix(codeLatestMintHeight), height)
}

// RetrieveLatestMintHeight retrieves the height of the highest indexed block.
// Error returns:
//   - storage.ErrNotFound if no block was indexed
func RetrieveLatestMintHeight(height *uint64) func(*badger.Txn) error {
	return retrieve(makePrefix(codeLatestMintHeight), height)
}
