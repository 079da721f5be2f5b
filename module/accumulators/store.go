package accumulators

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/exp/slices"

	"github.com/nodezero/nodezero-go/crypto/accumulator"
	"github.com/nodezero/nodezero-go/model/chain"
	"github.com/nodezero/nodezero-go/model/zerocoin"
	"github.com/nodezero/nodezero-go/module"
	"github.com/nodezero/nodezero-go/module/irrecoverable"
	"github.com/nodezero/nodezero-go/storage"
)

type origin uint8

const (
	fromDataset origin = iota
	fromChain
)

type entry struct {
	checkpoint zerocoin.Checkpoint
	origin     origin
}

// Store keeps the accumulator checkpoints of one network and the running
// accumulators of the chain-advancement path. A checkpoint at height h holds
// the accumulators after every mint confirmed at heights <= h.
//
// Store has a single writer (chain advancement, dataset loading and
// recalculation) and any number of concurrent readers of ClosestCheckpoint.
type Store struct {
	log     zerolog.Logger
	mu      sync.RWMutex
	chain   *chain.Params
	params  *accumulator.Params
	metrics module.AccumulatorMetrics
	persist storage.Checkpoints

	heights []uint64
	entries map[uint64]entry

	// running accumulators, initialised from the latest checkpoint on the
	// first advance
	started bool
	cur     cursor
}

// cursor is the position of the running accumulators.
type cursor struct {
	running zerocoin.Checkpoint
	// height is the block the running state has advanced to; open is set
	// while that block still accepts mints
	height uint64
	open   bool
	// covered is the height of the checkpoint the running state started from
	covered    uint64
	hasCovered bool
	// boundary is the highest checkpoint boundary already snapshot
	boundary    uint64
	hasBoundary bool
}

func (c cursor) samePosition(other cursor) bool {
	return c.height == other.height && c.open == other.open &&
		c.boundary == other.boundary && c.hasBoundary == other.hasBoundary
}

// NewStore creates an empty store. Checkpoints are added by Load, Restore and
// by advancing the chain.
func NewStore(
	log zerolog.Logger,
	chainParams *chain.Params,
	params *accumulator.Params,
	metrics module.AccumulatorMetrics,
	persist storage.Checkpoints,
) *Store {
	return &Store{
		log:     log.With().Str("module", "accumulators").Str("chain", chainParams.ChainID.String()).Logger(),
		chain:   chainParams,
		params:  params,
		metrics: metrics,
		persist: persist,
		entries: make(map[uint64]entry),
	}
}

// LoadNetwork loads the dataset embedded for the store's network.
func (s *Store) LoadNetwork() error {
	data, err := Dataset(s.chain.ChainID)
	if err != nil {
		return NewLoadError(s.chain.ChainID, err)
	}
	return s.Load(s.chain.ChainID, data)
}

// Load replaces every dataset checkpoint with the content of data. Loading the
// same dataset twice leaves the store unchanged. Checkpoints computed from the
// chain are kept where both exist.
// Expected errors during normal operations:
//   - LoadError if the dataset is malformed or meant for another network
func (s *Store) Load(network chain.ChainID, data []byte) error {
	if network != s.chain.ChainID {
		return NewLoadError(network, fmt.Errorf("store is configured for network %s", s.chain.ChainID))
	}

	parsed, err := parseDataset(s.params, data)
	if err != nil {
		return NewLoadError(network, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for height, e := range s.entries {
		if e.origin == fromDataset {
			s.remove(height)
		}
	}
	for _, p := range parsed {
		if e, ok := s.entries[p.height]; ok && e.origin == fromChain {
			continue
		}
		s.insert(p.height, p.checkpoint, fromDataset)
	}

	s.log.Info().Int("checkpoints", len(parsed)).Msg("checkpoint dataset loaded")
	return nil
}

// Restore loads the checkpoints persisted by earlier runs. Persisted
// checkpoints take precedence over dataset checkpoints at the same height.
func (s *Store) Restore() error {
	heights, err := s.persist.Heights()
	if err != nil {
		return fmt.Errorf("could not read checkpoint heights: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("cannot restore checkpoints after the store started advancing")
	}

	for _, height := range heights {
		checkpoint, err := s.persist.ByHeight(height)
		if err != nil {
			return fmt.Errorf("could not read checkpoint at height %d: %w", height, err)
		}
		if !checkpoint.IsComplete() {
			return fmt.Errorf("persisted checkpoint at height %d is incomplete", height)
		}
		s.insert(height, checkpoint, fromChain)
	}

	s.log.Info().Int("checkpoints", len(heights)).Msg("persisted checkpoints restored")
	return nil
}

// ClosestCheckpoint returns a copy of the checkpoint at the greatest stored
// height <= height together with that height. If there is none, it returns
// the empty accumulators and height 0.
func (s *Store) ClosestCheckpoint(height uint64) (zerocoin.Checkpoint, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.closest(height)
}

func (s *Store) closest(height uint64) (zerocoin.Checkpoint, uint64) {
	i, ok := slices.BinarySearch(s.heights, height)
	if ok {
		i++
	}
	if i == 0 {
		return zerocoin.NewCheckpoint(accumulator.Identity(s.params)), 0
	}
	found := s.heights[i-1]
	return s.entries[found].checkpoint.Clone(), found
}

// Heights returns the heights of all stored checkpoints in ascending order.
func (s *Store) Heights() []uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]uint64(nil), s.heights...)
}

// Height returns the height the running accumulators have advanced to.
func (s *Store) Height() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.height
}

// Advance folds a confirmed mint into the running accumulator of its
// denomination. Mints must be folded in confirmation order; several mints may
// share a height. Moving to a new height first snapshots the greatest
// checkpoint boundary passed.
//
// Expected errors during normal operations:
//   - accumulator.ErrInvalidCoin if the commitment is not a valid coin
//
// Advancing below the current height, or adding a mint to a block already
// marked complete, is a programming error and is reported as an irrecoverable
// exception. On error the store is unchanged.
func (s *Store) Advance(height uint64, d zerocoin.Denomination, commitment *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.begin()
	if a.isCovered(height) {
		return nil
	}
	err := a.openBlock(height)
	if err != nil {
		return err
	}
	err = a.fold([]zerocoin.Mint{{Denomination: d, Commitment: commitment, Height: height}})
	if err != nil {
		return err
	}
	return s.commit(a)
}

// AdvanceHeight marks every block up to and including height as complete and
// snapshots the greatest checkpoint boundary passed.
func (s *Store) AdvanceHeight(height uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.begin()
	if a.isCovered(height) {
		return nil
	}
	err := a.sealBlock(height)
	if err != nil {
		return err
	}
	return s.commit(a)
}

// AdvanceBlock folds all mints of the block at height and marks the block as
// complete. On error the store is unchanged.
func (s *Store) AdvanceBlock(height uint64, mints []zerocoin.Mint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.advanceBlock(height, mints)
	if err != nil {
		return err
	}
	return s.commit(a)
}

// BlockAdvance is the effect of one block on the running accumulators. It is
// computed by PrepareBlock without changing the store, so that the caller can
// persist the checkpoints it takes together with the block, and is applied
// with ApplyBlock once that succeeded.
type BlockAdvance struct {
	height uint64
	from   cursor
	a      *advance
}

// Checkpoints returns the checkpoints taken by the block, keyed by height.
func (b *BlockAdvance) Checkpoints() map[uint64]zerocoin.Checkpoint {
	checkpoints := make(map[uint64]zerocoin.Checkpoint, len(b.a.taken))
	for _, t := range b.a.taken {
		checkpoints[t.height] = t.checkpoint.Clone()
	}
	return checkpoints
}

// PrepareBlock computes the effect of the block at height with the given
// mints. The store is not changed.
// Expected errors during normal operations:
//   - accumulator.ErrInvalidCoin if a commitment is not a valid coin
func (s *Store) PrepareBlock(height uint64, mints []zerocoin.Mint) (*BlockAdvance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.advanceBlock(height, mints)
	if err != nil {
		return nil, err
	}
	return &BlockAdvance{height: height, from: s.cur, a: a}, nil
}

// ApplyBlock moves the running accumulators by a block prepared with
// PrepareBlock. The checkpoints taken must already be persisted by the
// caller. Applying an advance prepared from another position of the store is
// a programming error and is reported as an irrecoverable exception.
func (s *Store) ApplyBlock(b *BlockAdvance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.cur.samePosition(b.from) {
		return irrecoverable.NewExceptionf("advance to height %d was prepared at height %d, store is at height %d", b.height, b.from.height, s.cur.height)
	}
	s.apply(b.a)
	return nil
}

func (s *Store) advanceBlock(height uint64, mints []zerocoin.Mint) (*advance, error) {
	a := s.begin()
	if a.isCovered(height) {
		return a, nil
	}
	err := a.openBlock(height)
	if err != nil {
		return nil, err
	}
	err = a.fold(mints)
	if err != nil {
		return nil, err
	}
	err = a.sealBlock(height)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// start initialises the running accumulators from the latest checkpoint.
func (s *Store) start() {
	if s.started {
		return
	}
	s.started = true

	if len(s.heights) == 0 {
		s.cur = cursor{
			running: zerocoin.NewCheckpoint(accumulator.Identity(s.params)),
			open:    true,
		}
		return
	}
	latest := s.heights[len(s.heights)-1]
	s.cur = cursor{
		running:     s.entries[latest].checkpoint.Clone(),
		height:      latest,
		covered:     latest,
		hasCovered:  true,
		boundary:    latest,
		hasBoundary: true,
	}
}

// taken is a checkpoint snapshot by an advance that is not yet in the store.
type taken struct {
	height     uint64
	checkpoint zerocoin.Checkpoint
}

// advance is a pending move of the running state. It works on a copy of the
// cursor; the store only changes when the advance is committed or applied.
type advance struct {
	s      *Store
	cur    cursor
	taken  []taken
	folded [][]zerocoin.Mint
}

// begin starts an advance from the current running state.
func (s *Store) begin() *advance {
	s.start()
	return &advance{s: s, cur: s.cur}
}

// commit persists the checkpoints taken by a and applies it.
func (s *Store) commit(a *advance) error {
	for _, t := range a.taken {
		err := s.persist.Store(t.height, t.checkpoint)
		if err != nil {
			return fmt.Errorf("could not persist checkpoint at height %d: %w", t.height, err)
		}
	}
	s.apply(a)
	return nil
}

func (s *Store) apply(a *advance) {
	for _, t := range a.taken {
		s.insert(t.height, t.checkpoint, fromChain)
		s.metrics.CheckpointStored(t.height)
		s.log.Debug().Uint64("height", t.height).Msg("accumulator checkpoint taken")
	}
	for _, mints := range a.folded {
		for _, mint := range mints {
			s.metrics.MintAccumulated(mint.Denomination.String())
		}
	}
	s.cur = a.cur
}

// isCovered returns true for heights already reflected by the checkpoint the
// running state started from, as long as nothing newer has been folded.
func (a *advance) isCovered(height uint64) bool {
	c := a.cur
	return c.hasCovered && height <= c.covered && c.height == c.covered && !c.open
}

// openBlock moves the running state to height, snapshotting the boundary
// passed on the way.
func (a *advance) openBlock(height uint64) error {
	switch {
	case height < a.cur.height:
		return irrecoverable.NewExceptionf("out of order advance to height %d, store is at height %d", height, a.cur.height)
	case height == a.cur.height && !a.cur.open:
		return irrecoverable.NewExceptionf("advance to height %d, which is already complete", height)
	case height == a.cur.height:
		return nil
	}

	a.snapshot(height - 1)
	a.cur.height = height
	a.cur.open = true
	return nil
}

func (a *advance) sealBlock(height uint64) error {
	if height < a.cur.height {
		return irrecoverable.NewExceptionf("out of order advance to height %d, store is at height %d", height, a.cur.height)
	}
	a.snapshot(height)
	a.cur.height = height
	a.cur.open = false
	return nil
}

// fold accumulates the mints into the running state. On error the running
// state is unchanged.
func (a *advance) fold(mints []zerocoin.Mint) error {
	next := a.cur.running.Clone()
	for _, mint := range mints {
		if !mint.Denomination.IsValid() {
			return fmt.Errorf("invalid denomination %d for mint at height %d", mint.Denomination, a.cur.height)
		}
		value, err := accumulator.Accumulate(a.s.params, next[mint.Denomination], mint.Commitment)
		if err != nil {
			return fmt.Errorf("could not accumulate mint at height %d: %w", a.cur.height, err)
		}
		next[mint.Denomination] = value
	}

	a.cur.running = next
	a.folded = append(a.folded, mints)
	return nil
}

// snapshot takes the running state at the greatest checkpoint boundary
// <= height, unless that boundary was handled before. No mint above the
// boundary may have been folded yet.
func (a *advance) snapshot(height uint64) {
	b := a.s.chain.LastCheckpointHeight(height)
	if b < a.s.chain.ZerocoinStartHeight {
		return
	}
	if a.cur.hasBoundary && b <= a.cur.boundary {
		return
	}

	a.taken = append(a.taken, taken{height: b, checkpoint: a.cur.running.Clone()})
	a.cur.boundary = b
	a.cur.hasBoundary = true
}

func (s *Store) insert(height uint64, checkpoint zerocoin.Checkpoint, o origin) {
	if _, ok := s.entries[height]; !ok {
		i, _ := slices.BinarySearch(s.heights, height)
		s.heights = slices.Insert(s.heights, i, height)
	}
	s.entries[height] = entry{checkpoint: checkpoint, origin: o}
}

func (s *Store) remove(height uint64) {
	if _, ok := s.entries[height]; !ok {
		return
	}
	delete(s.entries, height)
	i, _ := slices.BinarySearch(s.heights, height)
	s.heights = slices.Delete(s.heights, i, i+1)
}
