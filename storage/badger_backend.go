package storage

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/dgraph-io/badger/v2"
	"github.com/google/uuid"
)

type BadgerBackendConfig struct {
	// Dir is the database directory; empty keeps everything in memory.
	Dir    string
	Logger *slog.Logger
}

func OpenBadger(config BadgerBackendConfig) (*badger.DB, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	options := badger.DefaultOptions(config.Dir).
		WithLogger(NewBadgerLogger(logger))
	if config.Dir == "" {
		options = options.WithInMemory(true)
	} else {
		options = options.WithTruncate(true)
	}
	db, err := badger.Open(options)
	if err != nil {
		return nil, fmt.Errorf("error opening badger at %q: %w", config.Dir, err)
	}
	return db, nil
}

func TestBadgerDB() *badger.DB {
	db, err := OpenBadger(BadgerBackendConfig{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	if err != nil {
		panic(err)
	}
	return db
}

type BadgerBackend struct {
	db *badger.DB
}

func NewBadgerBacked(db *badger.DB) *BadgerBackend {
	return &BadgerBackend{db: db}
}

func (backend *BadgerBackend) Close() error {
	return backend.db.Close()
}

func (backend *BadgerBackend) txnGet(key []byte) ([]byte, error) {
	var recordBytes []byte
	err := backend.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		recordBytes, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	return recordBytes, err
}

func (backend *BadgerBackend) txnPut(key, buf []byte) error {
	return backend.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, buf)
	})
}

func (backend *BadgerBackend) txnDelete(key []byte) error {
	return backend.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

func (backend *BadgerBackend) Get(session uuid.UUID, onset float64) ([]byte, error) {
	return backend.txnGet(GetKey(session, onset))
}

func (backend *BadgerBackend) Put(session uuid.UUID, onset float64, buf []byte) error {
	return backend.txnPut(GetKey(session, onset), buf)
}

func (backend *BadgerBackend) Delete(session uuid.UUID, onset float64) error {
	return backend.txnDelete(GetKey(session, onset))
}

func (backend *BadgerBackend) IterateRange(
	session uuid.UUID,
	from, to float64,
	lambda func(float64, []byte) error) error {

	iterOpts := badger.DefaultIteratorOptions
	iterOpts.Prefix = session[:]
	return backend.db.View(func(txn *badger.Txn) error {
		iter := txn.NewIterator(iterOpts)
		defer iter.Close()

		for iter.Seek(GetKey(session, from)); iter.Valid(); iter.Next() {
			item := iter.Item()
			onset := GetOnsetFromKey(item.Key())
			if onset >= to {
				break
			}
			buf, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := lambda(onset, buf); err != nil {
				return err
			}
		}
		return nil
	})
}

func (backend *BadgerBackend) DeleteBefore(session uuid.UUID, before float64) (int, error) {
	keys := make([][]byte, 0)
	iterOpts := badger.DefaultIteratorOptions
	iterOpts.Prefix = session[:]
	iterOpts.PrefetchValues = false
	err := backend.db.View(func(txn *badger.Txn) error {
		iter := txn.NewIterator(iterOpts)
		defer iter.Close()
		for iter.Rewind(); iter.Valid(); iter.Next() {
			key := iter.Item().KeyCopy(nil)
			if GetOnsetFromKey(key) >= before {
				break
			}
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	err = backend.db.Update(func(txn *badger.Txn) error {
		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}
