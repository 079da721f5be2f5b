package common

import (
	"github.com/dgraph-io/badger/v2"
	"github.com/rs/zerolog/log"
)

// InitStorage opens the badger database in datadir. Failures are fatal.
func InitStorage(datadir string) *badger.DB {
	opts := badger.
		DefaultOptions(datadir).
		WithKeepL0InMemory(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatal().Err(err).Str("datadir", datadir).Msg("could not open key-value store")
	}
	return db
}
