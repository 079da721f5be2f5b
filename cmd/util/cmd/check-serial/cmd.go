package check

import (
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/nodezero/nodezero-go/cmd/util/cmd/common"
	"github.com/nodezero/nodezero-go/model/zerocoin"
	"github.com/nodezero/nodezero-go/module/serials"
	"github.com/nodezero/nodezero-go/storage"
	bstorage "github.com/nodezero/nodezero-go/storage/badger"
)

var (
	flagChain   string
	flagSerial  string
	flagDataDir string
)

var Cmd = &cobra.Command{
	Use:   "check-serial",
	Short: "Report whether a coin serial is banned or already spent",
	Run:   run,
}

func init() {
	common.InitChainFlag(Cmd, &flagChain)

	Cmd.Flags().StringVar(&flagSerial, "serial", "", "coin serial number in hex")
	_ = Cmd.MarkFlagRequired("serial")

	Cmd.Flags().StringVar(&flagDataDir, "datadir", "",
		"node database, when set the spend index is searched too")
}

type report struct {
	Serial      string  `json:"serial"`
	Banned      bool    `json:"banned"`
	SpentHeight *uint64 `json:"spent_height,omitempty"`
}

func run(*cobra.Command, []string) {
	chainParams := common.ChainParams(flagChain)

	serial, err := zerocoin.ParseSerialHex(flagSerial)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid --serial flag")
	}

	registry, err := serials.LoadNetwork(chainParams.ChainID)
	if err != nil {
		log.Fatal().Err(err).Msg("could not load banned serials")
	}

	r := report{
		Serial: zerocoin.SerialKey(serial),
		Banned: registry.IsBanned(serial),
	}

	if flagDataDir != "" {
		db := common.InitStorage(flagDataDir)
		defer db.Close()

		height, err := bstorage.NewSpentSerials(db).HeightBySerial(serial)
		switch {
		case errors.Is(err, storage.ErrNotFound):
		case err != nil:
			log.Fatal().Err(err).Msg("could not look up spent serial")
		default:
			r.SpentHeight = &height
		}
	}

	common.PrettyPrint(r)
}
