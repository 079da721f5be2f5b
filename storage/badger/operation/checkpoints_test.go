package operation

import (
	"math/big"
	"testing"

	"github.com/dgraph-io/badger/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodezero/nodezero-go/model/zerocoin"
	"github.com/nodezero/nodezero-go/storage"
	"github.com/nodezero/nodezero-go/utils/unittest"
)

func TestCheckpointUpsertRetrieve(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		expected := zerocoin.NewCheckpoint(big.NewInt(961))
		expected[zerocoin.DenomFifty] = unittest.CommitmentFixture()

		err := db.Update(UpsertCheckpoint(710, expected))
		require.NoError(t, err)

		var actual zerocoin.Checkpoint
		err = db.View(RetrieveCheckpoint(710, &actual))
		require.NoError(t, err)
		assert.True(t, expected.Equal(actual))

		// upsert overwrites
		replaced := zerocoin.NewCheckpoint(big.NewInt(7))
		require.NoError(t, db.Update(UpsertCheckpoint(710, replaced)))
		require.NoError(t, db.View(RetrieveCheckpoint(710, &actual)))
		assert.True(t, replaced.Equal(actual))

		err = db.View(RetrieveCheckpoint(720, &actual))
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestCheckpointHeightsAndRemoval(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		// heights above 255 make sure keys sort numerically
		for _, height := range []uint64{1000, 10, 260, 250, 4000} {
			require.NoError(t, db.Update(UpsertCheckpoint(height, zerocoin.NewCheckpoint(big.NewInt(961)))))
		}

		var heights []uint64
		require.NoError(t, db.View(LookupCheckpointHeights(&heights)))
		assert.Equal(t, []uint64{10, 250, 260, 1000, 4000}, heights)

		require.NoError(t, db.Update(RemoveCheckpointsFrom(260)))
		require.NoError(t, db.View(LookupCheckpointHeights(&heights)))
		assert.Equal(t, []uint64{10, 250}, heights)
	})
}

func TestRecalculatedMarker(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		var height uint64
		err := db.View(RetrieveRecalculated(&height))
		assert.ErrorIs(t, err, storage.ErrNotFound)

		require.NoError(t, db.Update(InsertRecalculated(908000)))
		require.NoError(t, db.View(RetrieveRecalculated(&height)))
		assert.Equal(t, uint64(908000), height)

		err = db.Update(InsertRecalculated(908010))
		assert.ErrorIs(t, err, storage.ErrAlreadyExists)
	})
}
