package operation

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/dgraph-io/badger/v2"

	"github.com/nodezero/nodezero-go/model/zerocoin"
)

// checkpointEntry is the stored form of a checkpoint: accumulator values as
// big-endian magnitudes keyed by denomination.
type checkpointEntry struct {
	Values map[uint32][]byte
}

func toCheckpointEntry(checkpoint zerocoin.Checkpoint) checkpointEntry {
	entry := checkpointEntry{Values: make(map[uint32][]byte, len(checkpoint))}
	for d, v := range checkpoint {
		entry.Values[uint32(d)] = v.Bytes()
	}
	return entry
}

func (e checkpointEntry) toCheckpoint() zerocoin.Checkpoint {
	checkpoint := make(zerocoin.Checkpoint, len(e.Values))
	for d, v := range e.Values {
		checkpoint[zerocoin.Denomination(d)] = new(big.Int).SetBytes(v)
	}
	return checkpoint
}

// UpsertCheckpoint stores the checkpoint taken at height, replacing any
// checkpoint previously stored there.
func UpsertCheckpoint(height uint64, checkpoint zerocoin.Checkpoint) func(*badger.Txn) error {
	return upsert(makePrefix(codeCheckpoint, height), toCheckpointEntry(checkpoint))
}

// RetrieveCheckpoint retrieves the checkpoint taken at height.
// Error returns:
//   - storage.ErrNotFound if no checkpoint is stored at height
func RetrieveCheckpoint(height uint64, checkpoint *zerocoin.Checkpoint) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		var entry checkpointEntry
		err := retrieve(makePrefix(codeCheckpoint, height), &entry)(tx)
		if err != nil {
			return err
		}
		*checkpoint = entry.toCheckpoint()
		return nil
	}
}

// LookupCheckpointHeights collects the heights of all stored checkpoints in
// ascending order.
func LookupCheckpointHeights(heights *[]uint64) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		prefix := makePrefix(codeCheckpoint)
		*heights = (*heights)[:0]
		return traverse(prefix, prefix, func(key []byte) error {
			if len(key) != 1+8 {
				return fmt.Errorf("malformed checkpoint key %x", key)
			}
			*heights = append(*heights, binary.BigEndian.Uint64(key[1:]))
			return nil
		})(tx)
	}
}

// RemoveCheckpointsFrom deletes every checkpoint at a height >= height.
func RemoveCheckpointsFrom(height uint64) func(*badger.Txn) error {
	return removeFrom(makePrefix(codeCheckpoint), makePrefix(codeCheckpoint, height))
}

// RemoveCheckpoint deletes the checkpoint taken at height, if any.
func RemoveCheckpoint(height uint64) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		err := tx.Delete(makePrefix(codeCheckpoint, height))
		if err != nil {
			return fmt.Errorf("could not delete checkpoint at height %d: %w", height, err)
		}
		return nil
	}
}

// InsertRecalculated records the height a recalculation started from.
// Error returns:
//   - storage.ErrAlreadyExists if a recalculation was recorded before
func InsertRecalculated(height uint64) func(*badger.Txn) error {
	return insert(makePrefix(codeRecalculated), height)
}

// RetrieveRecalculated retrieves the height a recalculation started from.
// Error returns:
//   - storage.ErrNotFound if no recalculation was recorded
func RetrieveRecalculated(height *uint64) func(*badger.Txn) error {
	return retrieve(makePrefix(codeRecalculated), height)
}
