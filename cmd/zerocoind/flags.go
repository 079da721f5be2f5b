package main

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/nodezero/nodezero-go/model/chain"
	"github.com/nodezero/nodezero-go/module/zerocoin"
)

const (
	envPrefix = "NODEZERO"

	flagConfig         = "config"
	flagChain          = "chain"
	flagDataDir        = "datadir"
	flagLogLevel       = "loglevel"
	flagMetricsPort    = "metrics-port"
	flagModulusV1      = "modulus-v1"
	flagWitnessBudget  = "witness-budget"
	flagQueueCapacity  = "queue-capacity"
	flagMintsCacheSize = "mints-cache-size"
	flagRecalculate    = "recalculate"
	flagRecalcFrom     = "recalculate-from"
)

// registerFlags adds the node flags to flags, with defaults taken from the
// zerocoin defaults.
func registerFlags(flags *pflag.FlagSet) {
	defaults := zerocoin.DefaultConfig()

	flags.String(flagConfig, "", "optional config file (yaml, toml or json)")
	flags.String(flagChain, defaults.ChainID.String(), "network: main, test or regtest")
	flags.StringP(flagDataDir, "d", "/var/nodezero/data", "directory of the node database")
	flags.String(flagLogLevel, "info", "log level (panic, fatal, error, warn, info, debug)")
	flags.Uint(flagMetricsPort, 8080, "port of the prometheus metrics server, 0 disables it")
	flags.Bool(flagModulusV1, defaults.UseModulusV1, "use the legacy encoding of the RSA modulus")
	flags.Uint64(flagWitnessBudget, defaults.WitnessBudget, "blocks replayed per witness request, 0 keeps the network default")
	flags.Uint(flagQueueCapacity, defaults.QueueCapacity, "capacity of the witness request queue")
	flags.Uint(flagMintsCacheSize, defaults.MintsCacheSize, "number of blocks whose mints are cached")
	flags.Bool(flagRecalculate, defaults.Recalculate, "rebuild the accumulator checkpoints at startup")
	flags.Uint64(flagRecalcFrom, defaults.RecalculateFrom, "first height rebuilt by --recalculate")
}

// newViper binds flags to a viper store that also reads NODEZERO_ prefixed
// environment variables and, if set, the config file.
func newViper(flags *pflag.FlagSet) (*viper.Viper, error) {
	conf := viper.New()
	conf.SetEnvPrefix(envPrefix)
	conf.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	conf.AutomaticEnv()

	err := conf.BindPFlags(flags)
	if err != nil {
		return nil, fmt.Errorf("could not bind flags: %w", err)
	}

	if path := conf.GetString(flagConfig); path != "" {
		conf.SetConfigFile(path)
		err = conf.ReadInConfig()
		if err != nil {
			return nil, fmt.Errorf("could not read config file %s: %w", path, err)
		}
	}
	return conf, nil
}

// zerocoinConfig builds the zerocoin config from conf.
func zerocoinConfig(conf *viper.Viper) zerocoin.Config {
	return zerocoin.Config{
		ChainID:         chain.ChainID(conf.GetString(flagChain)),
		UseModulusV1:    conf.GetBool(flagModulusV1),
		WitnessBudget:   conf.GetUint64(flagWitnessBudget),
		QueueCapacity:   conf.GetUint(flagQueueCapacity),
		MintsCacheSize:  conf.GetUint(flagMintsCacheSize),
		Recalculate:     conf.GetBool(flagRecalculate),
		RecalculateFrom: conf.GetUint64(flagRecalcFrom),
	}
}
