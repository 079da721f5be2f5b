package recalculate

import (
	"context"
	"os"
	"os/signal"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/nodezero/nodezero-go/cmd/util/cmd/common"
	"github.com/nodezero/nodezero-go/crypto/accumulator"
	"github.com/nodezero/nodezero-go/model/zerocoin"
	"github.com/nodezero/nodezero-go/module/accumulators"
	"github.com/nodezero/nodezero-go/module/metrics"
	"github.com/nodezero/nodezero-go/storage"
	bstorage "github.com/nodezero/nodezero-go/storage/badger"
)

var (
	flagDataDir   string
	flagChain     string
	flagFrom      uint64
	flagModulusV1 bool
)

var Cmd = &cobra.Command{
	Use:   "recalculate-accumulators",
	Short: "Rebuild the accumulator checkpoints from the indexed mints",
	Run:   run,
}

func init() {
	common.InitDataDirFlag(Cmd, &flagDataDir)
	common.InitChainFlag(Cmd, &flagChain)

	Cmd.Flags().Uint64Var(&flagFrom, "from", 0,
		"first height to recalculate, defaults to the network recovery height")
	Cmd.Flags().BoolVar(&flagModulusV1, "modulus-v1", false,
		"use the legacy encoding of the RSA modulus")
}

// progressReader advances a progress bar for every block read.
type progressReader struct {
	storage.ChainReader
	bar *progressbar.ProgressBar
}

func (r *progressReader) ByHeight(height uint64) ([]zerocoin.Mint, error) {
	mints, err := r.ChainReader.ByHeight(height)
	if err == nil {
		_ = r.bar.Add(1)
	}
	return mints, err
}

func run(cmd *cobra.Command, _ []string) {
	chainParams := common.ChainParams(flagChain)

	from := flagFrom
	if !cmd.Flags().Changed("from") {
		from = chainParams.RecalculationFrom()
	}

	provider, err := accumulator.NewModulusProvider(chainParams.ZerocoinModulus)
	if err != nil {
		log.Fatal().Err(err).Msg("could not initialise zerocoin parameters")
	}

	db := common.InitStorage(flagDataDir)
	defer db.Close()

	collector := metrics.NewNoopCollector()
	mints := bstorage.NewMints(collector, db, 0)
	tip, err := mints.LatestHeight()
	if err != nil {
		log.Fatal().Err(err).Msg("could not get indexed chain tip")
	}
	if from > tip {
		log.Fatal().Uint64("from", from).Uint64("tip", tip).Msg("nothing to recalculate")
	}

	store := accumulators.NewStore(log.Logger, chainParams, provider.Params(flagModulusV1), collector, bstorage.NewCheckpoints(db))
	err = store.LoadNetwork()
	if err != nil {
		log.Fatal().Err(err).Msg("could not load checkpoint dataset")
	}
	err = store.Restore()
	if err != nil {
		log.Fatal().Err(err).Msg("could not restore checkpoints")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	log.Info().Uint64("from", from).Uint64("tip", tip).Msg("recalculating accumulators")

	// blocks are replayed from the checkpoint closest below from
	var base uint64
	if from > 0 {
		_, base = store.ClosestCheckpoint(from - 1)
	}
	bar := progressbar.Default(int64(tip-base), "Recalculating:")
	err = store.Recalculate(ctx, from, &progressReader{ChainReader: mints, bar: bar})
	_ = bar.Finish()
	if err != nil {
		log.Fatal().Err(err).Msg("recalculation failed")
	}

	log.Info().Int("checkpoints", len(store.Heights())).Msg("recalculation finished")
}
