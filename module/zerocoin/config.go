package zerocoin

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/nodezero/nodezero-go/model/chain"
)

// Config selects the network and tunes the zerocoin subsystem of a node.
type Config struct {
	ChainID chain.ChainID `validate:"required,oneof=main test regtest"`
	// UseModulusV1 selects the legacy encoding of the RSA modulus. The choice
	// is fixed for the lifetime of the node.
	UseModulusV1 bool
	// WitnessBudget overrides the network's witness computation budget, in
	// blocks. Zero keeps the network default.
	WitnessBudget uint64
	// QueueCapacity bounds the witness request queue.
	QueueCapacity uint `validate:"gte=1,lte=1000000"`
	// MintsCacheSize is the number of blocks whose mints are cached.
	MintsCacheSize uint `validate:"gte=1"`
	// Recalculate rebuilds the accumulator checkpoints from RecalculateFrom
	// at startup.
	Recalculate     bool
	RecalculateFrom uint64
}

func DefaultConfig() Config {
	return Config{
		ChainID:        chain.Mainnet,
		QueueCapacity:  10_000,
		MintsCacheSize: 10_000,
	}
}

var validate = validator.New()

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid zerocoin config: %w", err)
	}
	return nil
}

// chainParams resolves the network parameters with the config overrides
// applied.
func (c Config) chainParams() (*chain.Params, error) {
	p, err := chain.ParamsFor(c.ChainID)
	if err != nil {
		return nil, err
	}
	if c.WitnessBudget > 0 {
		p.WitnessComputationBudget = c.WitnessBudget
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}
