package operation

import (
	"testing"

	"github.com/dgraph-io/badger/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodezero/nodezero-go/model/zerocoin"
	"github.com/nodezero/nodezero-go/storage"
	"github.com/nodezero/nodezero-go/utils/unittest"
)

func TestMintsInsertRetrieve(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		expected := unittest.MintListFixture(zerocoin.DenomTen, 705, 3)

		require.NoError(t, db.Update(InsertMints(705, expected)))

		var actual []zerocoin.Mint
		require.NoError(t, db.View(RetrieveMints(705, &actual)))
		require.Len(t, actual, 3)
		for i := range expected {
			assert.Equal(t, expected[i].Denomination, actual[i].Denomination)
			assert.Equal(t, 0, expected[i].Commitment.Cmp(actual[i].Commitment))
			assert.Equal(t, expected[i].Index, actual[i].Index)
			assert.Equal(t, uint64(705), actual[i].Height)
		}

		err := db.Update(InsertMints(705, nil))
		assert.ErrorIs(t, err, storage.ErrAlreadyExists)
	})
}

func TestMintsEmptyBlock(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		require.NoError(t, db.Update(InsertMints(706, nil)))

		var mints []zerocoin.Mint
		require.NoError(t, db.View(RetrieveMints(706, &mints)))
		assert.Empty(t, mints)

		err := db.View(RetrieveMints(707, &mints))
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestLatestMintHeight(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		var height uint64
		err := db.View(RetrieveLatestMintHeight(&height))
		assert.ErrorIs(t, err, storage.ErrNotFound)

		require.NoError(t, db.Update(UpsertLatestMintHeight(12)))
		require.NoError(t, db.Update(UpsertLatestMintHeight(13)))
		require.NoError(t, db.View(RetrieveLatestMintHeight(&height)))
		assert.Equal(t, uint64(13), height)
	})
}

func TestSpentSerials(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		serial := unittest.SerialFixture()

		var height uint64
		err := db.View(LookupSpentSerial(serial, &height))
		assert.ErrorIs(t, err, storage.ErrNotFound)

		require.NoError(t, db.Update(InsertSpentSerial(serial, 900)))
		require.NoError(t, db.View(LookupSpentSerial(serial, &height)))
		assert.Equal(t, uint64(900), height)

		err = db.Update(InsertSpentSerial(serial, 901))
		assert.ErrorIs(t, err, storage.ErrAlreadyExists)
	})
}
