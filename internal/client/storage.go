package client

import (
	"errors"

	badger "github.com/dgraph-io/badger/v4"
)

// BadgerStorage persists session state on the device so a cart in
// progress survives restarts.  It implements session.Storage.
type BadgerStorage struct {
	db *badger.DB
}

// OpenStorage opens (or creates) the store at dir.
func OpenStorage(dir string) (*BadgerStorage, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // badger's own logging is too chatty for a client app
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerStorage{db: db}, nil
}

// Close flushes and closes the underlying store.
func (s *BadgerStorage) Close() error { return s.db.Close() }

// Get returns the stored value and whether the key exists.
func (s *BadgerStorage) Get(key string) ([]byte, bool, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

// Set stores the value, replacing any previous one.
func (s *BadgerStorage) Set(key string, value []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

// Delete removes the key.  Deleting a missing key is not an error.
func (s *BadgerStorage) Delete(key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}
