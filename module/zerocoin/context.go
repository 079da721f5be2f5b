package zerocoin

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/dgraph-io/badger/v2"
	"github.com/rs/zerolog"

	"github.com/nodezero/nodezero-go/crypto/accumulator"
	"github.com/nodezero/nodezero-go/engine/zerocoin/witness"
	"github.com/nodezero/nodezero-go/model/chain"
	"github.com/nodezero/nodezero-go/model/zerocoin"
	"github.com/nodezero/nodezero-go/module"
	"github.com/nodezero/nodezero-go/module/accumulators"
	"github.com/nodezero/nodezero-go/module/irrecoverable"
	"github.com/nodezero/nodezero-go/module/serials"
	"github.com/nodezero/nodezero-go/module/validation"
	"github.com/nodezero/nodezero-go/storage"
	bstorage "github.com/nodezero/nodezero-go/storage/badger"
	"github.com/nodezero/nodezero-go/storage/badger/transaction"
)

// Context holds everything the zerocoin subsystem of one network needs. It is
// built once at startup and passed to whoever needs zerocoin services.
type Context struct {
	log         zerolog.Logger
	chain       *chain.Params
	params      *accumulator.Params
	db          *badger.DB
	mints       *bstorage.Mints
	spent       *bstorage.SpentSerials
	checkpoints *bstorage.Checkpoints
	store       *accumulators.Store
	registry    *serials.Registry
	validator   *validation.SpendValidator
	engine      *witness.Engine
}

// NewContext selects the network, loads its static datasets and persisted
// checkpoints, and brings the running accumulators up to the indexed chain
// tip, recalculating them first when required.
func NewContext(ctx context.Context, log zerolog.Logger, cfg Config, db *badger.DB, metrics module.ZerocoinMetrics) (*Context, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}
	chainParams, err := cfg.chainParams()
	if err != nil {
		return nil, err
	}
	log = log.With().Str("chain", chainParams.ChainID.String()).Logger()

	provider, err := accumulator.NewModulusProvider(chainParams.ZerocoinModulus)
	if err != nil {
		return nil, fmt.Errorf("could not initialise zerocoin parameters: %w", err)
	}
	params := provider.Params(cfg.UseModulusV1)

	c := &Context{
		log:         log,
		chain:       chainParams,
		params:      params,
		db:          db,
		mints:       bstorage.NewMints(metrics, db, cfg.MintsCacheSize),
		spent:       bstorage.NewSpentSerials(db),
		checkpoints: bstorage.NewCheckpoints(db),
	}

	c.store = accumulators.NewStore(log, chainParams, params, metrics, c.checkpoints)
	err = c.store.LoadNetwork()
	if err != nil {
		return nil, err
	}
	err = c.store.Restore()
	if err != nil {
		return nil, fmt.Errorf("could not restore accumulator checkpoints: %w", err)
	}

	c.registry, err = serials.LoadNetwork(chainParams.ChainID)
	if err != nil {
		return nil, err
	}

	c.validator = validation.NewSpendValidator(chainParams, params, c.registry, c.spent, metrics)
	core := witness.NewCore(log, chainParams, params, c.store, c.mints, metrics)
	c.engine, err = witness.NewEngine(log, core, metrics, cfg.QueueCapacity)
	if err != nil {
		return nil, err
	}

	err = c.recover(ctx, cfg)
	if err != nil {
		return nil, err
	}

	log.Info().
		Bool("modulus_v1", params.IsV1()).
		Int("checkpoints", len(c.store.Heights())).
		Int("banned_serials", c.registry.Len()).
		Uint64("height", c.store.Height()).
		Msg("zerocoin context initialised")
	return c, nil
}

// recover runs a pending or requested recalculation and catches up with the
// indexed chain.
func (c *Context) recover(ctx context.Context, cfg Config) error {
	tip, err := c.mints.LatestHeight()
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("could not get indexed chain tip: %w", err)
	}

	if cfg.Recalculate {
		return c.store.Recalculate(ctx, cfg.RecalculateFrom, c.mints)
	}
	pending, err := c.recalculationPending(tip)
	if err != nil {
		return err
	}
	if pending {
		return c.store.Recalculate(ctx, c.chain.RecalculationFrom(), c.mints)
	}
	return c.store.CatchUp(ctx, c.mints)
}

// recalculationPending returns true if the chain passed the network's
// recovery height without the recovery having run.
func (c *Context) recalculationPending(height uint64) (bool, error) {
	if !c.chain.HasRecalculation() || height < c.chain.BlockRecalculateAccumulators {
		return false, nil
	}
	_, err := c.checkpoints.RecalculatedFrom()
	if errors.Is(err, storage.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("could not read recalculation marker: %w", err)
	}
	return false, nil
}

func (c *Context) Chain() *chain.Params {
	return c.chain
}

func (c *Context) Params() *accumulator.Params {
	return c.params
}

func (c *Context) Checkpoints() *accumulators.Store {
	return c.store
}

func (c *Context) Mints() storage.Mints {
	return c.mints
}

// StartWorker starts the witness engine.
func (c *Context) StartWorker(ctx irrecoverable.SignalerContext) error {
	return c.engine.Start(ctx)
}

// StopWorker stops the witness engine and waits for it to exit. Requests not
// yet computed are rejected as Undetermined.
func (c *Context) StopWorker() {
	c.engine.Stop()
}

// WorkerState returns the lifecycle state of the witness engine.
func (c *Context) WorkerState() witness.State {
	return c.engine.State()
}

// SubmitWitnessRequest queues req for the witness engine. Returns false if
// the engine is not accepting requests.
func (c *Context) SubmitWitnessRequest(req *zerocoin.WitnessRequest) bool {
	return c.engine.Submit(req)
}

// ClosestCheckpoint returns the checkpoint at the greatest height <= height.
func (c *Context) ClosestCheckpoint(height uint64) (zerocoin.Checkpoint, uint64) {
	return c.store.ClosestCheckpoint(height)
}

func (c *Context) IsBannedSerial(serial *big.Int) bool {
	return c.registry.IsBanned(serial)
}

// ValidateSpendConsensus checks spend against the consensus rules and the
// spent serial index.
// Expected errors during normal operations:
//   - validation.InvalidSpendError if the spend is invalid
func (c *Context) ValidateSpendConsensus(spend zerocoin.Spend) error {
	err := c.validator.ValidateSpend(spend)
	if err != nil {
		return err
	}
	return c.validator.CheckDoubleSpend(spend.Serial, spend.Height)
}

// ValidateTransactionSpends checks the spends of one transaction in a block
// at height.
// Expected errors during normal operations:
//   - validation.InvalidSpendError if any spend is invalid
func (c *Context) ValidateTransactionSpends(height uint64, spends []zerocoin.Spend) error {
	err := c.validator.ValidateTransactionSpends(height, spends)
	if err != nil {
		return err
	}
	for _, spend := range spends {
		err = c.validator.CheckDoubleSpend(spend.Serial, height)
		if err != nil {
			return err
		}
	}
	return nil
}

// ValidateMint checks a mint output paying fee.
func (c *Context) ValidateMint(mint zerocoin.Mint, fee int64) error {
	return c.validator.ValidateMint(mint, fee)
}

// ErrBlockOutOfOrder is returned when a block is connected at any height
// other than the one following the last connected block.
var ErrBlockOutOfOrder = errors.New("block out of order")

// ConnectBlock records a validated block: it indexes the block's mints and
// spent serials and advances the accumulators. Blocks must be connected in
// height order; the first block may be at any height. The indexes and the
// checkpoints taken are written in one transaction, so a rejected or failed
// block leaves no trace. At the network's recovery height the accumulators
// are recalculated once.
// Expected errors during normal operations:
//   - ErrBlockOutOfOrder if height does not follow the last connected block
//   - validation.InvalidSpendError if a serial is spent twice in the block or
//     was spent before
func (c *Context) ConnectBlock(ctx context.Context, height uint64, blockMints []zerocoin.Mint, spends []zerocoin.Spend) error {
	latest, err := c.mints.LatestHeight()
	if err == nil && height != latest+1 {
		return fmt.Errorf("%w: cannot connect block %d after block %d", ErrBlockOutOfOrder, height, latest)
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("could not get indexed chain tip: %w", err)
	}

	mints := make([]zerocoin.Mint, len(blockMints))
	for i, mint := range blockMints {
		mint.Height = height
		mint.Index = uint32(i)
		mints[i] = mint
	}

	seen := make(map[string]struct{}, len(spends))
	for _, spend := range spends {
		key := spend.Serial.Text(16)
		if _, ok := seen[key]; ok {
			return validation.NewInvalidSpendErrorf(spend.Serial, height, validation.ReasonDuplicateSerial, "serial spent twice in block %d", height)
		}
		seen[key] = struct{}{}
	}
	for _, spend := range spends {
		err := c.validator.CheckDoubleSpend(spend.Serial, height)
		if err != nil {
			return err
		}
	}

	advance, err := c.store.PrepareBlock(height, mints)
	if err != nil {
		return fmt.Errorf("could not advance accumulators to height %d: %w", height, err)
	}

	ops := transaction.NewDeferredDbOps().AddDbOp(c.mints.IndexBlockTx(height, mints))
	for _, spend := range spends {
		ops.AddBadgerOp(c.spent.IndexTx(spend.Serial, height))
	}
	for checkpointHeight, checkpoint := range advance.Checkpoints() {
		ops.AddBadgerOp(c.checkpoints.StoreTx(checkpointHeight, checkpoint))
	}
	err = transaction.Update(c.db, ops.Pending)
	if err != nil {
		return fmt.Errorf("could not index block %d: %w", height, err)
	}

	err = c.store.ApplyBlock(advance)
	if err != nil {
		return fmt.Errorf("could not advance accumulators to height %d: %w", height, err)
	}

	if c.chain.IsRecalculationHeight(height) {
		pending, err := c.recalculationPending(height)
		if err != nil {
			return err
		}
		if pending {
			c.log.Warn().Uint64("height", height).Msg("reached accumulator recovery height")
			return c.store.Recalculate(ctx, c.chain.RecalculationFrom(), c.mints)
		}
	}
	return nil
}
