package read

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/nodezero/nodezero-go/cmd/util/cmd/common"
	"github.com/nodezero/nodezero-go/crypto/accumulator"
	"github.com/nodezero/nodezero-go/module/accumulators"
	"github.com/nodezero/nodezero-go/module/metrics"
	bstorage "github.com/nodezero/nodezero-go/storage/badger"
)

var (
	flagDataDir    string
	flagChain      string
	flagHeight     uint64
	flagModulusV1  bool
	flagOnlyStored bool
)

var Cmd = &cobra.Command{
	Use:   "read-checkpoints",
	Short: "Print accumulator checkpoints in the dataset format",
	Run:   run,
}

func init() {
	common.InitDataDirFlag(Cmd, &flagDataDir)
	common.InitChainFlag(Cmd, &flagChain)

	Cmd.Flags().Uint64Var(&flagHeight, "height", 0,
		"print only the closest checkpoint at or below this height")
	Cmd.Flags().BoolVar(&flagModulusV1, "modulus-v1", false,
		"use the legacy encoding of the RSA modulus")
	Cmd.Flags().BoolVar(&flagOnlyStored, "stored", false,
		"ignore the embedded checkpoint dataset")
}

func run(cmd *cobra.Command, _ []string) {
	chainParams := common.ChainParams(flagChain)

	provider, err := accumulator.NewModulusProvider(chainParams.ZerocoinModulus)
	if err != nil {
		log.Fatal().Err(err).Msg("could not initialise zerocoin parameters")
	}

	db := common.InitStorage(flagDataDir)
	defer db.Close()

	store := accumulators.NewStore(log.Logger, chainParams, provider.Params(flagModulusV1), metrics.NewNoopCollector(), bstorage.NewCheckpoints(db))
	if !flagOnlyStored {
		err = store.LoadNetwork()
		if err != nil {
			log.Fatal().Err(err).Msg("could not load checkpoint dataset")
		}
	}
	err = store.Restore()
	if err != nil {
		log.Fatal().Err(err).Msg("could not restore checkpoints")
	}

	if !cmd.Flags().Changed("height") {
		data, err := store.Export()
		if err != nil {
			log.Fatal().Err(err).Msg("could not export checkpoints")
		}
		fmt.Println(string(data))
		return
	}

	checkpoint, height := store.ClosestCheckpoint(flagHeight)
	record := map[string]interface{}{"height": height}
	for d, value := range checkpoint {
		record[d.String()] = value.String()
	}
	common.PrettyPrint(record)
}
