package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	checkserial "github.com/nodezero/nodezero-go/cmd/util/cmd/check-serial"
	readcheckpoints "github.com/nodezero/nodezero-go/cmd/util/cmd/read-checkpoints"
	recalculate "github.com/nodezero/nodezero-go/cmd/util/cmd/recalculate-accumulators"
)

var (
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   "util",
	Short: "Utility functions for a zerocoin node",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		lvl, err := zerolog.ParseLevel(strings.ToLower(flagLogLevel))
		if err != nil {
			log.Fatal().Err(err).Str("loglevel", flagLogLevel).Msg("invalid log level")
		}
		zerolog.SetGlobalLevel(lvl)
	},
}

// Execute runs the root command. Errors are printed before exiting.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "loglevel", "info", "log level (panic, fatal, error, warn, info, debug)")

	cobra.OnInitialize(initConfig)

	addCommands()
}

func addCommands() {
	rootCmd.AddCommand(readcheckpoints.Cmd)
	rootCmd.AddCommand(checkserial.Cmd)
	rootCmd.AddCommand(recalculate.Cmd)
}

func initConfig() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	viper.AutomaticEnv()
}
