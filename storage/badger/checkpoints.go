package badger

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v2"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/nodezero/nodezero-go/model/zerocoin"
	"github.com/nodezero/nodezero-go/storage"
	"github.com/nodezero/nodezero-go/storage/badger/operation"
)

// Checkpoints implements storage.Checkpoints. Checkpoints are read once at
// startup, so no cache is kept.
type Checkpoints struct {
	db *badger.DB
}

var _ storage.Checkpoints = (*Checkpoints)(nil)

func NewCheckpoints(db *badger.DB) *Checkpoints {
	return &Checkpoints{db: db}
}

func (c *Checkpoints) Store(height uint64, checkpoint zerocoin.Checkpoint) error {
	err := c.db.Update(c.StoreTx(height, checkpoint))
	if err != nil {
		return fmt.Errorf("could not store checkpoint at height %d: %w", height, err)
	}
	return nil
}

// StoreTx returns the operation storing the checkpoint taken at height as
// part of a larger transaction.
func (c *Checkpoints) StoreTx(height uint64, checkpoint zerocoin.Checkpoint) func(*badger.Txn) error {
	return operation.UpsertCheckpoint(height, checkpoint)
}

func (c *Checkpoints) ByHeight(height uint64) (zerocoin.Checkpoint, error) {
	var checkpoint zerocoin.Checkpoint
	err := c.db.View(operation.RetrieveCheckpoint(height, &checkpoint))
	if err != nil {
		return nil, fmt.Errorf("could not retrieve checkpoint at height %d: %w", height, err)
	}
	return checkpoint, nil
}

func (c *Checkpoints) Heights() ([]uint64, error) {
	var heights []uint64
	err := c.db.View(operation.LookupCheckpointHeights(&heights))
	if err != nil {
		return nil, fmt.Errorf("could not look up checkpoint heights: %w", err)
	}
	return heights, nil
}

func (c *Checkpoints) RemoveFrom(height uint64) error {
	err := c.db.Update(operation.RemoveCheckpointsFrom(height))
	if err != nil {
		return fmt.Errorf("could not remove checkpoints from height %d: %w", height, err)
	}
	return nil
}

func (c *Checkpoints) Replace(from uint64, checkpoints map[uint64]zerocoin.Checkpoint) error {
	var existing []uint64
	err := c.db.View(operation.LookupCheckpointHeights(&existing))
	if err != nil {
		return fmt.Errorf("could not look up checkpoint heights: %w", err)
	}

	heights := maps.Keys(checkpoints)
	slices.Sort(heights)
	ops := make([]func(*badger.Txn) error, 0, len(heights)+len(existing))
	for _, height := range heights {
		ops = append(ops, operation.UpsertCheckpoint(height, checkpoints[height]))
	}
	for _, height := range existing {
		if _, ok := checkpoints[height]; height >= from && !ok {
			ops = append(ops, operation.RemoveCheckpoint(height))
		}
	}

	err = c.applyChunked(ops)
	if err != nil {
		return fmt.Errorf("could not replace checkpoints from height %d: %w", from, err)
	}
	return nil
}

// applyChunked runs ops in as few transactions as badger allows, in order.
// A transaction that grows too big is committed and the failed op retried in
// a new one.
func (c *Checkpoints) applyChunked(ops []func(*badger.Txn) error) error {
	tx := c.db.NewTransaction(true)
	defer func() {
		tx.Discard()
	}()

	for _, op := range ops {
		err := op(tx)
		if errors.Is(err, badger.ErrTxnTooBig) {
			err = tx.Commit()
			if err != nil {
				return err
			}
			tx = c.db.NewTransaction(true)
			err = op(tx)
		}
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (c *Checkpoints) MarkRecalculated(height uint64) error {
	return c.db.Update(operation.InsertRecalculated(height))
}

func (c *Checkpoints) RecalculatedFrom() (uint64, error) {
	var height uint64
	err := c.db.View(operation.RetrieveRecalculated(&height))
	return height, err
}
