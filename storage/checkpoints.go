package storage

import (
	"github.com/nodezero/nodezero-go/model/zerocoin"
)

// Checkpoints persists the accumulator checkpoints computed by the node.
type Checkpoints interface {

	// Store persists the checkpoint taken at height, replacing any previous
	// checkpoint at the same height.
	Store(height uint64, checkpoint zerocoin.Checkpoint) error

	// ByHeight returns the checkpoint taken at height.
	// Expected errors during normal operations:
	//   - storage.ErrNotFound if no checkpoint is stored at height
	ByHeight(height uint64) (zerocoin.Checkpoint, error)

	// Heights returns the heights of all stored checkpoints in ascending order.
	Heights() ([]uint64, error)

	// RemoveFrom deletes every checkpoint at a height >= height.
	RemoveFrom(height uint64) error

	// Replace stores checkpoints and deletes every other checkpoint at a
	// height >= from. New checkpoints are written before stale ones are
	// deleted, so an interrupted call never leaves a height without a value.
	Replace(from uint64, checkpoints map[uint64]zerocoin.Checkpoint) error

	// MarkRecalculated records that the accumulators were recalculated from
	// height. The marker is written once.
	// Expected errors during normal operations:
	//   - storage.ErrAlreadyExists if a recalculation was already recorded
	MarkRecalculated(height uint64) error

	// RecalculatedFrom returns the height recorded by MarkRecalculated.
	// Expected errors during normal operations:
	//   - storage.ErrNotFound if no recalculation was recorded
	RecalculatedFrom() (uint64, error)
}
