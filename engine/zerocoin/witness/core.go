package witness

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/rs/zerolog"

	"github.com/nodezero/nodezero-go/crypto/accumulator"
	"github.com/nodezero/nodezero-go/model/chain"
	"github.com/nodezero/nodezero-go/model/zerocoin"
	"github.com/nodezero/nodezero-go/module"
	"github.com/nodezero/nodezero-go/storage"
)

// Checkpoints gives read access to the accumulator checkpoints.
type Checkpoints interface {
	// ClosestCheckpoint returns a copy of the checkpoint at the greatest
	// stored height <= height and that height, or the empty accumulators
	// and 0.
	ClosestCheckpoint(height uint64) (zerocoin.Checkpoint, uint64)
}

// Core computes membership witnesses by replaying the mints between two
// accumulator checkpoints. It never modifies the checkpoints or the chain.
type Core struct {
	log         zerolog.Logger
	chain       *chain.Params
	params      *accumulator.Params
	checkpoints Checkpoints
	reader      storage.ChainReader
	metrics     module.WitnessMetrics
}

func NewCore(
	log zerolog.Logger,
	chainParams *chain.Params,
	params *accumulator.Params,
	checkpoints Checkpoints,
	reader storage.ChainReader,
	metrics module.WitnessMetrics,
) *Core {
	return &Core{
		log:         log.With().Str("witness", "core").Logger(),
		chain:       chainParams,
		params:      params,
		checkpoints: checkpoints,
		reader:      reader,
		metrics:     metrics,
	}
}

// ComputeWitness builds the witness of req against the highest checkpoint
// reachable within the computation budget. Failures are returned as
// rejections, never as partial witnesses:
//   - NotEnoughMints if the coin is not yet covered by a suitable checkpoint,
//     or too few mints were accumulated after it
//   - Undetermined if ctx is cancelled, the chain data is missing or
//     inconsistent, or the budget ran out before enough mints were found
func (c *Core) ComputeWitness(ctx context.Context, req *zerocoin.WitnessRequest) *zerocoin.WitnessResult {
	started := time.Now()
	log := c.log.With().
		Str("request_id", req.ID.String()).
		Uint64("sequence", req.Sequence).
		Str("denomination", req.Denomination.String()).
		Uint64("mint_height", req.MintHeight).
		Logger()

	witness, replayed, rej := c.compute(ctx, req)
	if rej != nil {
		c.metrics.WitnessRejected(rej.Code.String())
		log.Debug().
			Str("code", rej.Code.String()).
			Uint64("height", rej.Height).
			Str("reason", rej.Reason).
			Msg("witness rejected")
		return &zerocoin.WitnessResult{
			RequestID: req.ID,
			Sequence:  req.Sequence,
			Rejection: rej,
		}
	}

	duration := time.Since(started)
	c.metrics.WitnessComputed(duration, replayed)
	log.Debug().
		Uint64("checkpoint_height", witness.CheckpointHeight).
		Int("mints_added", witness.MintsAdded).
		Dur("duration", duration).
		Msg("witness computed")
	return &zerocoin.WitnessResult{
		RequestID: req.ID,
		Sequence:  req.Sequence,
		Witness:   witness,
	}
}

func reject(code zerocoin.RejectionCode, height uint64, msg string, args ...interface{}) *zerocoin.Rejection {
	return &zerocoin.Rejection{Code: code, Height: height, Reason: fmt.Sprintf(msg, args...)}
}

// compute returns the witness and the number of blocks replayed for it.
func (c *Core) compute(ctx context.Context, req *zerocoin.WitnessRequest) (*zerocoin.Witness, uint64, *zerocoin.Rejection) {
	if !req.Denomination.IsValid() {
		return nil, 0, reject(zerocoin.Undetermined, 0, "invalid denomination %d", req.Denomination)
	}
	if err := c.params.ValidateCoin(req.Commitment); err != nil {
		return nil, 0, reject(zerocoin.Undetermined, 0, "invalid commitment: %v", err)
	}
	if req.MintHeight == 0 {
		return nil, 0, reject(zerocoin.Undetermined, 0, "missing mint height")
	}

	tip, err := c.reader.LatestHeight()
	if err != nil {
		return nil, 0, reject(zerocoin.Undetermined, 0, "could not get chain tip: %v", err)
	}
	if req.MintHeight > tip {
		return nil, 0, reject(zerocoin.Undetermined, tip, "mint height %d is above the chain tip", req.MintHeight)
	}
	if tip < req.RequiredDepth {
		return nil, 0, reject(zerocoin.NotEnoughMints, tip, "chain has fewer than %d blocks", req.RequiredDepth)
	}
	target := tip - req.RequiredDepth
	if req.TargetHeight != 0 && req.TargetHeight < target {
		target = req.TargetHeight
	}

	// base excludes the coin itself
	base, baseHeight := c.checkpoints.ClosestCheckpoint(req.MintHeight - 1)
	limit := target
	budgetCut := false
	if budget := c.chain.WitnessComputationBudget; baseHeight+budget < target {
		limit = baseHeight + budget
		budgetCut = true
	}
	checkpoint, checkpointHeight := c.checkpoints.ClosestCheckpoint(limit)
	if checkpointHeight < req.MintHeight {
		if budgetCut {
			// a checkpoint below the target may still cover the mint
			_, covering := c.checkpoints.ClosestCheckpoint(target)
			if covering >= req.MintHeight {
				return nil, 0, reject(zerocoin.Undetermined, limit, "computation budget of %d blocks ends before checkpoint %d", c.chain.WitnessComputationBudget, covering)
			}
		}
		return nil, 0, reject(zerocoin.NotEnoughMints, limit, "no checkpoint covers the mint yet")
	}

	d := req.Denomination
	acc := accumulator.NewAccumulatorFromValue(c.params, d, base.Value(d))
	wit := accumulator.NewWitness(c.params, base.Value(d), req.Commitment)
	var auxiliary []*big.Int
	added := 0

	for height := baseHeight + 1; height <= checkpointHeight; height++ {
		if ctx.Err() != nil {
			return nil, 0, reject(zerocoin.Undetermined, height-1, "computation interrupted: %v", ctx.Err())
		}
		mints, err := c.reader.ByHeight(height)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, 0, reject(zerocoin.Undetermined, height-1, "block %d is not known yet", height)
		}
		if err != nil {
			return nil, 0, reject(zerocoin.Undetermined, height-1, "could not read mints at height %d: %v", height, err)
		}

		for _, mint := range mints {
			if mint.Denomination != d {
				continue
			}
			if err := acc.Add(mint.Commitment); err != nil {
				return nil, 0, reject(zerocoin.Undetermined, height, "could not accumulate mint: %v", err)
			}
			seen := wit.ContainsElement()
			if !seen && height != req.MintHeight && mint.Commitment.Cmp(req.Commitment) == 0 {
				return nil, 0, reject(zerocoin.Undetermined, height, "coin appears at height %d instead of %d", height, req.MintHeight)
			}
			if err := wit.Add(mint.Commitment); err != nil {
				return nil, 0, reject(zerocoin.Undetermined, height, "could not extend witness: %v", err)
			}
			if !seen && wit.ContainsElement() {
				// own mint
				continue
			}
			auxiliary = append(auxiliary, mint.Commitment)
			if seen {
				added++
			}
		}
	}

	expected := checkpoint.Value(d)
	if expected == nil || acc.Value().Cmp(expected) != 0 {
		return nil, 0, reject(zerocoin.Undetermined, checkpointHeight, "replayed accumulator does not match the checkpoint")
	}
	if !wit.ContainsElement() {
		return nil, 0, reject(zerocoin.Undetermined, checkpointHeight, "mint not found at height %d", req.MintHeight)
	}
	if !wit.Verify(acc.Value()) {
		return nil, 0, reject(zerocoin.Undetermined, checkpointHeight, "witness does not verify")
	}

	if added < c.chain.RequiredAccumulation {
		if budgetCut {
			return nil, 0, reject(zerocoin.Undetermined, checkpointHeight,
				"computation budget exhausted after %d mints, %d required", added, c.chain.RequiredAccumulation)
		}
		return nil, 0, reject(zerocoin.NotEnoughMints, checkpointHeight,
			"%d mints accumulated after the coin, %d required", added, c.chain.RequiredAccumulation)
	}

	return &zerocoin.Witness{
		Denomination:     d,
		Accumulator:      acc.Value(),
		Value:            wit.Value(),
		CheckpointHeight: checkpointHeight,
		Auxiliary:        auxiliary,
		MintsAdded:       added,
	}, checkpointHeight - baseHeight, nil
}
