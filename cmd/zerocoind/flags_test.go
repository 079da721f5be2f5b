package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodezero/nodezero-go/model/chain"
	"github.com/nodezero/nodezero-go/module/zerocoin"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	flags := pflag.NewFlagSet("zerocoind", pflag.ContinueOnError)
	registerFlags(flags)
	require.NoError(t, flags.Parse(args))
	return flags
}

func TestDefaults(t *testing.T) {
	conf, err := newViper(newFlags(t))
	require.NoError(t, err)

	cfg := zerocoinConfig(conf)
	assert.Equal(t, zerocoin.DefaultConfig(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestFlagsOverrideDefaults(t *testing.T) {
	conf, err := newViper(newFlags(t,
		"--chain", "regtest",
		"--modulus-v1",
		"--witness-budget", "500",
		"--queue-capacity", "16",
		"--recalculate",
		"--recalculate-from", "1200",
	))
	require.NoError(t, err)

	cfg := zerocoinConfig(conf)
	assert.Equal(t, chain.Regtest, cfg.ChainID)
	assert.True(t, cfg.UseModulusV1)
	assert.Equal(t, uint64(500), cfg.WitnessBudget)
	assert.Equal(t, uint(16), cfg.QueueCapacity)
	assert.True(t, cfg.Recalculate)
	assert.Equal(t, uint64(1200), cfg.RecalculateFrom)
}

func TestEnvironment(t *testing.T) {
	t.Setenv("NODEZERO_CHAIN", "test")
	t.Setenv("NODEZERO_MINTS_CACHE_SIZE", "42")

	conf, err := newViper(newFlags(t))
	require.NoError(t, err)

	cfg := zerocoinConfig(conf)
	assert.Equal(t, chain.Testnet, cfg.ChainID)
	assert.Equal(t, uint(42), cfg.MintsCacheSize)
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zerocoind.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chain: regtest\nwitness-budget: 77\n"), 0o600))

	conf, err := newViper(newFlags(t, "--config", path))
	require.NoError(t, err)

	cfg := zerocoinConfig(conf)
	assert.Equal(t, chain.Regtest, cfg.ChainID)
	assert.Equal(t, uint64(77), cfg.WitnessBudget)
}

func TestMissingConfigFile(t *testing.T) {
	_, err := newViper(newFlags(t, "--config", filepath.Join(t.TempDir(), "missing.yaml")))
	assert.Error(t, err)
}

func TestInvalidChain(t *testing.T) {
	conf, err := newViper(newFlags(t, "--chain", "nonet"))
	require.NoError(t, err)
	assert.Error(t, zerocoinConfig(conf).Validate())
}
