package transaction

import (
	"github.com/dgraph-io/badger/v2"
)

// Tx wraps a badger transaction and collects callbacks that run only after
// the transaction committed successfully. Storage types use the callbacks to
// update their caches.
type Tx struct {
	DBTxn     *badger.Txn
	callbacks []func()
}

// OnSucceed adds a callback to execute after the batch has been successfully
// committed.
func (b *Tx) OnSucceed(callback func()) {
	b.callbacks = append(b.callbacks, callback)
}

// Update creates a badger transaction, passing it to a chain of functions.
// If the transaction commits, the callbacks added through OnSucceed run in
// the order they were added.
func Update(db *badger.DB, f func(*Tx) error) error {
	dbTxn := db.NewTransaction(true)
	defer dbTxn.Discard()

	tx := &Tx{DBTxn: dbTxn}
	err := f(tx)
	if err != nil {
		return err
	}

	err = dbTxn.Commit()
	if err != nil {
		return err
	}

	for _, callback := range tx.callbacks {
		callback()
	}
	return nil
}

// WithTx adapts a function working on a plain badger transaction.
func WithTx(f func(*badger.Txn) error) func(*Tx) error {
	return func(tx *Tx) error {
		return f(tx.DBTxn)
	}
}
