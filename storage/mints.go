package storage

import (
	"github.com/nodezero/nodezero-go/model/zerocoin"
)

// ChainReader gives read access to the confirmed mints of the chain, block by
// block.
type ChainReader interface {

	// LatestHeight returns the height of the highest indexed block.
	// Expected errors during normal operations:
	//   - storage.ErrNotFound if no block was indexed yet
	LatestHeight() (uint64, error)

	// ByHeight returns the mints confirmed in the block at height, of all
	// denominations, in transaction order. Blocks without mints return an
	// empty slice.
	// Expected errors during normal operations:
	//   - storage.ErrNotFound if the block at height is not known yet
	ByHeight(height uint64) ([]zerocoin.Mint, error)
}

// Mints indexes the zerocoin mints of connected blocks.
type Mints interface {
	ChainReader

	// IndexBlock stores the mints of the block at height and advances the
	// latest height. Blocks must be indexed at increasing heights.
	// Expected errors during normal operations:
	//   - storage.ErrAlreadyExists if the block was already indexed
	IndexBlock(height uint64, mints []zerocoin.Mint) error
}
