package transaction

import (
	"github.com/dgraph-io/badger/v2"
)

// DeferredDBUpdate is a shorthand notation for an anonymous function that takes
// a `transaction.Tx` as input and runs some database operations as part of that transaction.
type DeferredDBUpdate = func(*Tx) error

// DeferredBadgerUpdate is a shorthand notation for an anonymous function that takes
// a badger transaction as input and runs some database operations as part of that transaction.
type DeferredBadgerUpdate = func(*badger.Txn) error

// DeferredDbOps accumulates database operations that are executed later in
// one atomic transaction, in the order they were added. Callbacks scheduled
// by the operations run only if that transaction commits.
//
// Run the operations with Update(db, DeferredDbOps.Pending).
//
// NOT CONCURRENCY SAFE
type DeferredDbOps struct {
	Pending DeferredDBUpdate
}

// NewDeferredDbOps instantiates a DeferredDbOps. Initially, it behaves like a no-op until functors are added.
func NewDeferredDbOps() *DeferredDbOps {
	return &DeferredDbOps{
		Pending: func(tx *Tx) error { return nil },
	}
}

// AddBadgerOp schedules the given DeferredBadgerUpdate to be executed as part of the future transaction.
// This method returns a self-reference for chaining.
func (d *DeferredDbOps) AddBadgerOp(op DeferredBadgerUpdate) *DeferredDbOps {
	return d.AddDbOp(WithTx(op))
}

// AddDbOp schedules the given DeferredDBUpdate to be executed as part of the future transaction.
// This method returns a self-reference for chaining.
func (d *DeferredDbOps) AddDbOp(op DeferredDBUpdate) *DeferredDbOps {
	prior := d.Pending
	d.Pending = func(tx *Tx) error {
		err := prior(tx)
		if err != nil {
			return err
		}
		return op(tx)
	}
	return d
}

// OnSucceed adds a callback to be executed after the deferred database operations have succeeded.
// This method returns a self-reference for chaining.
func (d *DeferredDbOps) OnSucceed(callback func()) *DeferredDbOps {
	prior := d.Pending
	d.Pending = func(tx *Tx) error {
		err := prior(tx)
		if err != nil {
			return err
		}
		tx.OnSucceed(callback)
		return nil
	}
	return d
}
