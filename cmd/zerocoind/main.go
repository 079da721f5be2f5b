package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dgraph-io/badger/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/nodezero/nodezero-go/module/irrecoverable"
	"github.com/nodezero/nodezero-go/module/metrics"
	"github.com/nodezero/nodezero-go/module/util"
	"github.com/nodezero/nodezero-go/module/zerocoin"
)

var rootCmd = &cobra.Command{
	Use:   "zerocoind",
	Short: "Run the zerocoin services of a node",
	RunE:  run,
}

func init() {
	registerFlags(rootCmd.Flags())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	conf, err := newViper(cmd.Flags())
	if err != nil {
		return err
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	lvl, err := zerolog.ParseLevel(strings.ToLower(conf.GetString(flagLogLevel)))
	if err != nil {
		log.Fatal().Err(err).Msg("invalid log level")
	}
	log = log.Level(lvl)

	cfg := zerocoinConfig(conf)
	err = cfg.Validate()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	datadir := conf.GetString(flagDataDir)
	db, err := badger.Open(badger.DefaultOptions(datadir).WithLogger(nil))
	if err != nil {
		log.Fatal().Err(err).Str("datadir", datadir).Msg("could not open key-value store")
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("could not close key-value store")
		}
	}()

	collector := metrics.NewZerocoinCollector(prometheus.DefaultRegisterer)
	var server *metrics.Server
	if port := conf.GetUint(flagMetricsPort); port > 0 {
		server = metrics.NewServer(log, port, prometheus.DefaultGatherer)
		<-server.Ready()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	zc, err := zerocoin.NewContext(ctx, log, cfg, db, collector)
	if err != nil {
		log.Fatal().Err(err).Msg("could not initialise zerocoin context")
	}

	signalerCtx, errCh := irrecoverable.WithSignaler(ctx)
	err = zc.StartWorker(signalerCtx)
	if err != nil {
		log.Fatal().Err(err).Msg("could not start witness worker")
	}

	select {
	case err := <-errCh:
		log.Fatal().Err(err).Msg("unhandled irrecoverable error")
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	workerStopped := make(chan struct{})
	go func() {
		zc.StopWorker()
		close(workerStopped)
	}()
	done := []<-chan struct{}{workerStopped}
	if server != nil {
		done = append(done, server.Done())
	}
	<-util.AllClosed(done...)
	return nil
}
