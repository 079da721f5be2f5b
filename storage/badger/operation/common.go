package operation

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v2"

	"github.com/nodezero/nodezero-go/storage"
)

// insert will encode the given entity and insert the resulting binary data
// in the badger DB under the provided key. It will error if the key already
// exists.
func insert(key []byte, entity interface{}) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {

		// check if the key already exists in the db
		_, err := tx.Get(key)
		if err == nil {
			return storage.ErrAlreadyExists
		}

		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("could not check key: %w", err)
		}

		val, err := encodeEntity(entity)
		if err != nil {
			return err
		}

		err = tx.Set(key, val)
		if err != nil {
			return fmt.Errorf("could not store data: %w", err)
		}

		return nil
	}
}

// upsert will encode the given entity and store it under the given key,
// overwriting any existing value.
func upsert(key []byte, entity interface{}) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		val, err := encodeEntity(entity)
		if err != nil {
			return err
		}

		err = tx.Set(key, val)
		if err != nil {
			return fmt.Errorf("could not upsert data: %w", err)
		}

		return nil
	}
}

// retrieve will retrieve the binary data under the given key from the badger DB
// and decode it into the given entity. The provided entity needs to be a
// pointer to an initialized entity of the correct type.
// Error returns:
//   - storage.ErrNotFound if the key does not exist in the database
func retrieve(key []byte, entity interface{}) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {

		item, err := tx.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return storage.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("could not load data: %w", err)
		}

		err = item.Value(func(val []byte) error {
			return decodeValue(val, entity)
		})
		if err != nil {
			return fmt.Errorf("could not decode entity: %w", err)
		}

		return nil
	}
}

// exists returns true if a value is stored under the given key.
func exists(key []byte, keyExists *bool) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		_, err := tx.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			*keyExists = false
			return nil
		}
		if err != nil {
			return fmt.Errorf("could not check existence: %w", err)
		}
		*keyExists = true
		return nil
	}
}

// keyFunc is called for every key visited by traverse. The key is only valid
// for the duration of the call.
type keyFunc func(key []byte) error

// traverse visits, in ascending order, every key that starts with prefix and
// is >= start. Values are not loaded.
func traverse(prefix []byte, start []byte, visit keyFunc) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		if len(prefix) == 0 {
			return fmt.Errorf("prefix must not be empty")
		}

		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		// NOTE: this is an optimization only, it does not enforce that all
		// results in the iteration have this prefix.
		opts.Prefix = prefix

		it := tx.NewIterator(opts)
		defer it.Close()

		for it.Seek(start); it.ValidForPrefix(prefix); it.Next() {
			err := visit(it.Item().Key())
			if err != nil {
				return err
			}
		}

		return nil
	}
}

// removeFrom deletes every key that starts with prefix and is >= start.
func removeFrom(prefix []byte, start []byte) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		var keys [][]byte
		err := traverse(prefix, start, func(key []byte) error {
			keys = append(keys, append([]byte(nil), key...))
			return nil
		})(tx)
		if err != nil {
			return fmt.Errorf("could not collect keys: %w", err)
		}

		for _, key := range keys {
			err = tx.Delete(key)
			if err != nil {
				return fmt.Errorf("could not delete key %x: %w", key, err)
			}
		}
		return nil
	}
}
