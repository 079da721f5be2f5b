package common

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/nodezero/nodezero-go/model/chain"
)

func InitDataDirFlag(cmd *cobra.Command, datadir *string) {
	cmd.PersistentFlags().StringVarP(datadir, "datadir", "d", "/var/nodezero/data", "directory of the node database")
}

func InitChainFlag(cmd *cobra.Command, chainID *string) {
	cmd.PersistentFlags().StringVar(chainID, "chain", chain.Mainnet.String(), "network: main, test or regtest")
}

// ChainParams resolves the parameters of the network named by chainID.
// Unknown networks are fatal.
func ChainParams(chainID string) *chain.Params {
	p, err := chain.ParamsFor(chain.ChainID(chainID))
	if err != nil {
		log.Fatal().Err(err).Msg("invalid --chain flag")
	}
	return &p
}
