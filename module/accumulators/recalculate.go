package accumulators

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nodezero/nodezero-go/crypto/accumulator"
	"github.com/nodezero/nodezero-go/model/zerocoin"
	"github.com/nodezero/nodezero-go/module/util"
	"github.com/nodezero/nodezero-go/storage"
)

// Recalculate rebuilds the checkpoints at or above from and the running
// accumulators by replaying the mints of reader up to its tip. The
// accumulators of each denomination are replayed concurrently. The replaced
// checkpoints stay in place until the replay completed, so a cancelled or
// failed run leaves the store unchanged. It is a recovery step for startup and
// offline tools: the store is locked for the whole run.
func (s *Store) Recalculate(ctx context.Context, from uint64, reader storage.ChainReader) error {
	started := time.Now()

	tip, err := reader.LatestHeight()
	if err != nil {
		return fmt.Errorf("could not get chain tip: %w", err)
	}
	if from > tip {
		return fmt.Errorf("recalculation height %d is above the chain tip %d", from, tip)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.log.With().Uint64("from_height", from).Uint64("tip", tip).Logger()
	log.Info().Msg("recalculating accumulators")

	base, baseHeight := zerocoin.NewCheckpoint(accumulator.Identity(s.params)), uint64(0)
	if from > 0 {
		base, baseHeight = s.closest(from - 1)
	}

	mints, err := s.collectMints(ctx, reader, baseHeight+1, tip)
	if err != nil {
		return err
	}

	var boundaries []uint64
	interval := s.chain.AccumulatorCheckpointInterval
	for b := s.chain.LastCheckpointHeight(baseHeight) + interval; b <= tip; b += interval {
		if b >= s.chain.ZerocoinStartHeight {
			boundaries = append(boundaries, b)
		}
	}

	denominations := zerocoin.AllDenominations
	values := make([][]*big.Int, len(denominations))
	finals := make([]*big.Int, len(denominations))

	group, groupCtx := errgroup.WithContext(ctx)
	for i, d := range denominations {
		i, d := i, d
		group.Go(func() error {
			vals, final, err := s.replay(groupCtx, base.Value(d), mints[d], boundaries)
			if err != nil {
				return fmt.Errorf("could not replay denomination %s: %w", d, err)
			}
			values[i] = vals
			finals[i] = final
			return nil
		})
	}
	err = group.Wait()
	if err != nil {
		return err
	}

	checkpoints := make(map[uint64]zerocoin.Checkpoint, len(boundaries))
	for j, b := range boundaries {
		checkpoint := make(zerocoin.Checkpoint, len(denominations))
		for i, d := range denominations {
			checkpoint[d] = values[i][j]
		}
		checkpoints[b] = checkpoint
	}
	err = s.persist.Replace(from, checkpoints)
	if err != nil {
		return fmt.Errorf("could not persist recalculated checkpoints: %w", err)
	}

	for _, height := range append([]uint64(nil), s.heights...) {
		if height >= from {
			s.remove(height)
		}
	}
	for _, b := range boundaries {
		s.insert(b, checkpoints[b], fromChain)
		s.metrics.CheckpointStored(b)
	}

	running := make(zerocoin.Checkpoint, len(denominations))
	for i, d := range denominations {
		running[d] = finals[i]
	}
	s.started = true
	s.cur = cursor{
		running:     running,
		height:      tip,
		boundary:    s.chain.LastCheckpointHeight(tip),
		hasBoundary: true,
	}

	err = s.persist.MarkRecalculated(from)
	if errors.Is(err, storage.ErrAlreadyExists) {
		log.Warn().Msg("accumulators were recalculated before, keeping the first recalculation marker")
	} else if err != nil {
		return fmt.Errorf("could not record recalculation: %w", err)
	}

	duration := time.Since(started)
	s.metrics.RecalculationFinished(duration, len(boundaries))
	log.Info().
		Int("checkpoints", len(boundaries)).
		Dur("duration", duration).
		Msg("accumulators recalculated")
	return nil
}

// CatchUp replays the blocks indexed by reader after the running state,
// up to the chain tip. It restores the running accumulators after a restart.
func (s *Store) CatchUp(ctx context.Context, reader storage.ChainReader) error {
	tip, err := reader.LatestHeight()
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("could not get chain tip: %w", err)
	}

	s.mu.Lock()
	s.start()
	next := s.cur.height + 1
	s.mu.Unlock()

	if next > tip {
		return nil
	}

	progress := util.LogProgress(s.log, "catching up accumulators", int(tip-next+1))
	for height := next; height <= tip; height++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		mints, err := reader.ByHeight(height)
		if err != nil {
			return fmt.Errorf("could not read mints at height %d: %w", height, err)
		}
		err = s.AdvanceBlock(height, mints)
		if err != nil {
			return fmt.Errorf("could not advance to height %d: %w", height, err)
		}
		progress(1)
	}
	return nil
}

// collectMints reads the mints of heights [from, to] grouped by denomination
// in confirmation order.
func (s *Store) collectMints(ctx context.Context, reader storage.ChainReader, from, to uint64) (map[zerocoin.Denomination][]zerocoin.Mint, error) {
	mints := make(map[zerocoin.Denomination][]zerocoin.Mint, len(zerocoin.AllDenominations))
	if from > to {
		return mints, nil
	}

	progress := util.LogProgress(s.log, "reading mints", int(to-from+1))
	for height := from; height <= to; height++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		block, err := reader.ByHeight(height)
		if err != nil {
			return nil, fmt.Errorf("could not read mints at height %d: %w", height, err)
		}
		for _, mint := range block {
			if !mint.Denomination.IsValid() {
				return nil, fmt.Errorf("invalid denomination %d for mint at height %d", mint.Denomination, height)
			}
			mint.Height = height
			mints[mint.Denomination] = append(mints[mint.Denomination], mint)
		}
		progress(1)
	}
	return mints, nil
}

// replay folds mints into value and returns the accumulator value at every
// boundary together with the final value.
func (s *Store) replay(ctx context.Context, value *big.Int, mints []zerocoin.Mint, boundaries []uint64) ([]*big.Int, *big.Int, error) {
	values := make([]*big.Int, len(boundaries))
	k := 0
	var err error
	fold := func() error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		value, err = accumulator.Accumulate(s.params, value, mints[k].Commitment)
		if err != nil {
			return fmt.Errorf("could not accumulate mint at height %d: %w", mints[k].Height, err)
		}
		k++
		return nil
	}

	for j, b := range boundaries {
		for k < len(mints) && mints[k].Height <= b {
			if err := fold(); err != nil {
				return nil, nil, err
			}
		}
		values[j] = value
	}
	for k < len(mints) {
		if err := fold(); err != nil {
			return nil, nil, err
		}
	}
	return values, value, nil
}
