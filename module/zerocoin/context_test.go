package zerocoin

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodezero/nodezero-go/crypto/accumulator"
	"github.com/nodezero/nodezero-go/engine/zerocoin/witness"
	"github.com/nodezero/nodezero-go/model/chain"
	"github.com/nodezero/nodezero-go/model/zerocoin"
	"github.com/nodezero/nodezero-go/module/irrecoverable"
	"github.com/nodezero/nodezero-go/module/metrics"
	"github.com/nodezero/nodezero-go/module/validation"
	"github.com/nodezero/nodezero-go/storage"
	bstorage "github.com/nodezero/nodezero-go/storage/badger"
	"github.com/nodezero/nodezero-go/utils/unittest"
)

const regtestTip = 260

func regtestConfig() Config {
	cfg := DefaultConfig()
	cfg.ChainID = chain.Regtest
	return cfg
}

func newContext(t *testing.T, db *badger.DB, cfg Config) *Context {
	c, err := NewContext(context.Background(), unittest.Logger(), cfg, db, metrics.NewNoopCollector())
	require.NoError(t, err)
	return c
}

// connectChain connects regtest blocks 1..regtestTip. Block 210 holds own
// followed by another mint of the same denomination, block 215 one more.
func connectChain(t *testing.T, c *Context, own *big.Int) {
	blocks := map[uint64][]zerocoin.Mint{
		210: {
			unittest.MintFixture(zerocoin.DenomOne, 210, unittest.WithCommitment(own)),
			unittest.MintFixture(zerocoin.DenomOne, 210),
			unittest.MintFixture(zerocoin.DenomFive, 210),
		},
		215: unittest.MintListFixture(zerocoin.DenomOne, 215, 1),
	}
	for h := uint64(1); h <= regtestTip; h++ {
		require.NoError(t, c.ConnectBlock(context.Background(), h, blocks[h], nil))
	}
}

func TestConfigValidation(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.ChainID = ""
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.ChainID = "unknown"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.QueueCapacity = 0
	assert.Error(t, cfg.Validate())

	cfg = regtestConfig()
	cfg.WitnessBudget = 50
	p, err := cfg.chainParams()
	require.NoError(t, err)
	assert.Equal(t, uint64(50), p.WitnessComputationBudget)

	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		cfg := DefaultConfig()
		cfg.MintsCacheSize = 0
		_, err := NewContext(context.Background(), unittest.Logger(), cfg, db, metrics.NewNoopCollector())
		assert.Error(t, err)
	})
}

func TestWitnessThroughContext(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		c := newContext(t, db, regtestConfig())
		own := unittest.CommitmentFixture()
		connectChain(t, c, own)

		_, height := c.ClosestCheckpoint(255)
		assert.Equal(t, uint64(250), height)
		_, height = c.ClosestCheckpoint(204)
		assert.Equal(t, uint64(0), height)

		req, results := unittest.WitnessRequestFixture(unittest.MintFixture(zerocoin.DenomOne, 210, unittest.WithCommitment(own)))
		assert.False(t, c.SubmitWitnessRequest(req), "worker not started")

		ctx, cancel := irrecoverable.NewMockSignalerContextWithCancel(t, context.Background())
		defer cancel()
		require.NoError(t, c.StartWorker(ctx))
		assert.Equal(t, witness.Running, c.WorkerState())
		require.True(t, c.SubmitWitnessRequest(req))

		select {
		case result := <-results:
			require.True(t, result.IsSuccess())
			assert.Equal(t, uint64(regtestTip), result.Witness.CheckpointHeight)
			assert.Equal(t, 2, result.Witness.MintsAdded)
			cp, _ := c.ClosestCheckpoint(regtestTip)
			assert.Equal(t, 0, cp.Value(zerocoin.DenomOne).Cmp(result.Witness.Accumulator))
		case <-time.After(5 * time.Second):
			t.Fatal("no witness delivered")
		}

		unittest.RequireReturnsBefore(t, c.StopWorker, time.Second, "worker did not stop")
		assert.Equal(t, witness.Stopped, c.WorkerState())
	})
}

func TestSpendsThroughContext(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		c := newContext(t, db, regtestConfig())
		for h := uint64(1); h < 230; h++ {
			require.NoError(t, c.ConnectBlock(context.Background(), h, nil, nil))
		}

		spend := unittest.SpendFixture(zerocoin.DenomOne, 230, unittest.WithCheckpointHeight(210))
		require.NoError(t, c.ValidateSpendConsensus(spend))
		require.NoError(t, c.ValidateTransactionSpends(230, []zerocoin.Spend{spend}))
		require.NoError(t, c.ConnectBlock(context.Background(), 230, nil, []zerocoin.Spend{spend}))

		again := unittest.SpendFixture(zerocoin.DenomOne, 231, unittest.WithSerial(spend.Serial), unittest.WithCheckpointHeight(210))
		err := c.ValidateSpendConsensus(again)
		reason, ok := validation.RejectReason(err)
		require.True(t, ok, err)
		assert.Equal(t, validation.ReasonDoubleSpend, reason)

		err = c.ValidateTransactionSpends(231, []zerocoin.Spend{again})
		assert.True(t, validation.IsInvalidSpendError(err))

		err = c.ConnectBlock(context.Background(), 231, nil, []zerocoin.Spend{again})
		assert.True(t, validation.IsInvalidSpendError(err))

		private := unittest.SpendFixture(zerocoin.DenomOne, 231, unittest.WithSpendVersion(zerocoin.PrivateSpend), unittest.WithCheckpointHeight(210))
		reason, _ = validation.RejectReason(c.ValidateSpendConsensus(private))
		assert.Equal(t, validation.ReasonPrivateSpend, reason)

		assert.NoError(t, c.ValidateMint(unittest.MintFixture(zerocoin.DenomFifty, 231), chain.Cent))
		assert.True(t, validation.IsInvalidMintError(c.ValidateMint(unittest.MintFixture(zerocoin.DenomFifty, 100), chain.Cent)))
	})
}

func TestConnectBlockRejectsDuplicateSerial(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		c := newContext(t, db, regtestConfig())
		for h := uint64(1); h < 230; h++ {
			require.NoError(t, c.ConnectBlock(context.Background(), h, nil, nil))
		}

		spend := unittest.SpendFixture(zerocoin.DenomOne, 230, unittest.WithCheckpointHeight(210))
		twice := unittest.SpendFixture(zerocoin.DenomFive, 230, unittest.WithSerial(new(big.Int).Set(spend.Serial)), unittest.WithCheckpointHeight(210))
		mints := unittest.MintListFixture(zerocoin.DenomTen, 230, 1)

		err := c.ConnectBlock(context.Background(), 230, mints, []zerocoin.Spend{spend, twice})
		reason, ok := validation.RejectReason(err)
		require.True(t, ok, err)
		assert.Equal(t, validation.ReasonDuplicateSerial, reason)

		// nothing of the rejected block was recorded
		_, err = c.Mints().ByHeight(230)
		assert.ErrorIs(t, err, storage.ErrNotFound)
		_, err = bstorage.NewSpentSerials(db).HeightBySerial(spend.Serial)
		assert.ErrorIs(t, err, storage.ErrNotFound)
		assert.Equal(t, uint64(229), c.Checkpoints().Height())

		require.NoError(t, c.ConnectBlock(context.Background(), 230, mints, []zerocoin.Spend{spend}))
		height, err := bstorage.NewSpentSerials(db).HeightBySerial(spend.Serial)
		require.NoError(t, err)
		assert.Equal(t, uint64(230), height)
	})
}

func TestConnectBlockRequiresNextHeight(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		c := newContext(t, db, regtestConfig())
		for h := uint64(1); h <= 5; h++ {
			require.NoError(t, c.ConnectBlock(context.Background(), h, nil, nil))
		}

		err := c.ConnectBlock(context.Background(), 7, nil, nil)
		assert.ErrorIs(t, err, ErrBlockOutOfOrder)
		err = c.ConnectBlock(context.Background(), 5, nil, nil)
		assert.ErrorIs(t, err, ErrBlockOutOfOrder)
		err = c.ConnectBlock(context.Background(), 3, nil, nil)
		assert.ErrorIs(t, err, ErrBlockOutOfOrder)

		latest, err := c.Mints().LatestHeight()
		require.NoError(t, err)
		assert.Equal(t, uint64(5), latest)
		assert.Equal(t, uint64(5), c.Checkpoints().Height())

		require.NoError(t, c.ConnectBlock(context.Background(), 6, nil, nil))
	})
}

// TestConnectBlockFailureLeavesNoTrace connects a boundary block whose mint
// is not a valid coin. The block's spends pass validation, so before the
// failure nothing but the accumulators stood in the way of indexing it.
func TestConnectBlockFailureLeavesNoTrace(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		c := newContext(t, db, regtestConfig())
		own := unittest.CommitmentFixture()
		for h := uint64(1); h < 210; h++ {
			require.NoError(t, c.ConnectBlock(context.Background(), h, nil, nil))
		}
		heights := c.Checkpoints().Heights()

		spend := unittest.SpendFixture(zerocoin.DenomOne, 210)
		bad := []zerocoin.Mint{
			unittest.MintFixture(zerocoin.DenomOne, 210, unittest.WithCommitment(own)),
			unittest.MintFixture(zerocoin.DenomOne, 210, unittest.WithCommitment(big.NewInt(4))),
		}
		err := c.ConnectBlock(context.Background(), 210, bad, []zerocoin.Spend{spend})
		require.ErrorIs(t, err, accumulator.ErrInvalidCoin)

		_, err = c.Mints().ByHeight(210)
		assert.ErrorIs(t, err, storage.ErrNotFound)
		_, err = bstorage.NewSpentSerials(db).HeightBySerial(spend.Serial)
		assert.ErrorIs(t, err, storage.ErrNotFound)
		assert.Equal(t, heights, c.Checkpoints().Heights())
		persisted, err := bstorage.NewCheckpoints(db).Heights()
		require.NoError(t, err)
		assert.NotContains(t, persisted, uint64(210))

		// the corrected block connects and yields the same checkpoints as a
		// chain that never saw the failure
		good := []zerocoin.Mint{unittest.MintFixture(zerocoin.DenomOne, 210, unittest.WithCommitment(own))}
		require.NoError(t, c.ConnectBlock(context.Background(), 210, good, []zerocoin.Spend{spend}))
		for h := uint64(211); h <= 220; h++ {
			require.NoError(t, c.ConnectBlock(context.Background(), h, nil, nil))
		}

		unittest.RunWithBadgerDB(t, func(other *badger.DB) {
			reference := newContext(t, other, regtestConfig())
			for h := uint64(1); h <= 220; h++ {
				var mints []zerocoin.Mint
				if h == 210 {
					mints = good
				}
				require.NoError(t, reference.ConnectBlock(context.Background(), h, mints, nil))
			}
			assert.Equal(t, reference.Checkpoints().Heights(), c.Checkpoints().Heights())
			for _, h := range []uint64{210, 220} {
				expected, _ := reference.ClosestCheckpoint(h)
				actual, _ := c.ClosestCheckpoint(h)
				assert.True(t, expected.Equal(actual), "checkpoint %d differs", h)
			}
		})
	})
}

func TestContextRestart(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		first := newContext(t, db, regtestConfig())
		connectChain(t, first, unittest.CommitmentFixture())

		restarted := newContext(t, db, regtestConfig())
		assert.Equal(t, first.Checkpoints().Heights(), restarted.Checkpoints().Heights())
		assert.Equal(t, uint64(regtestTip), restarted.Checkpoints().Height())

		require.NoError(t, restarted.ConnectBlock(context.Background(), regtestTip+1, unittest.MintListFixture(zerocoin.DenomTen, 0, 2), nil))
		mints, err := restarted.Mints().ByHeight(regtestTip + 1)
		require.NoError(t, err)
		require.Len(t, mints, 2)
		assert.Equal(t, uint64(regtestTip+1), mints[1].Height)
		assert.Equal(t, uint32(1), mints[1].Index)
	})
}

func TestRecalculateOnStartup(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		first := newContext(t, db, regtestConfig())
		connectChain(t, first, unittest.CommitmentFixture())

		cfg := regtestConfig()
		cfg.Recalculate = true
		cfg.RecalculateFrom = 230
		recalculated := newContext(t, db, cfg)

		assert.Equal(t, first.Checkpoints().Heights(), recalculated.Checkpoints().Heights())
		for _, h := range first.Checkpoints().Heights() {
			expected, _ := first.ClosestCheckpoint(h)
			actual, _ := recalculated.ClosestCheckpoint(h)
			assert.True(t, expected.Equal(actual), "checkpoint %d differs", h)
		}

		from, err := bstorage.NewCheckpoints(db).RecalculatedFrom()
		require.NoError(t, err)
		assert.Equal(t, uint64(230), from)
	})
}

func TestBannedSerials(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		c := newContext(t, db, DefaultConfig())
		assert.Equal(t, chain.Mainnet, c.Chain().ChainID)
		assert.False(t, c.Params().IsV1())

		serial, ok := new(big.Int).SetString("c9c868bb56eacfc4f3d829528a0ae812dff26619cd38e6c9a0eea1eacddc84", 16)
		require.True(t, ok)
		assert.True(t, c.IsBannedSerial(serial))
		assert.False(t, c.IsBannedSerial(unittest.SerialFixture()))
	})
}
