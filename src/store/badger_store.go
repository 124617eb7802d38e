package store

import (
	"fmt"
	"os"

	"github.com/dgraph-io/badger"
	"github.com/sirupsen/logrus"
)

const valuePrefix = "value"

// BadgerStore implements the Store interface on top of a badger database, so
// that values survive restarts.
type BadgerStore struct {
	db   *badger.DB
	path string
}

// NewBadgerStore opens the database in path, creating it if necessary.
func NewBadgerStore(path string, logger *logrus.Entry) (*BadgerStore, error) {
	if err := os.MkdirAll(path, 0700); err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(path).
		WithSyncWrites(false).
		WithTruncate(true)

	if logger != nil {
		opts = opts.WithLogger(logger.WithField("component", "badger"))
	}

	handle, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	store := &BadgerStore{
		db:   handle,
		path: path,
	}

	return store, nil
}

//==============================================================================
//Keys

func valueKey(name string) []byte {
	return []byte(fmt.Sprintf("%s_%s", valuePrefix, name))
}

//==============================================================================
//Implement the Store interface

// Get implements the Store interface.
func (s *BadgerStore) Get(name string) ([]byte, error) {
	var data []byte

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(valueKey(name))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})

	if err != nil {
		return nil, mapError(err, "get", name)
	}

	return data, nil
}

// Put implements the Store interface.
func (s *BadgerStore) Put(name string, data []byte) error {
	tx := s.db.NewTransaction(true)
	defer tx.Discard()

	_, err := tx.Get(valueKey(name))
	if err == nil {
		return newError("put", name, KeyAlreadyExists)
	}
	if !isDBKeyNotFound(err) {
		return mapError(err, "put", name)
	}

	if err := tx.Set(valueKey(name), data); err != nil {
		return mapError(err, "put", name)
	}

	return mapError(tx.Commit(), "put", name)
}

// Post implements the Store interface.
func (s *BadgerStore) Post(name string, data []byte) error {
	tx := s.db.NewTransaction(true)
	defer tx.Discard()

	if _, err := tx.Get(valueKey(name)); err != nil {
		return mapError(err, "post", name)
	}

	if err := tx.Set(valueKey(name), data); err != nil {
		return mapError(err, "post", name)
	}

	return mapError(tx.Commit(), "post", name)
}

// Delete implements the Store interface.
func (s *BadgerStore) Delete(name string) error {
	tx := s.db.NewTransaction(true)
	defer tx.Discard()

	if _, err := tx.Get(valueKey(name)); err != nil {
		return mapError(err, "delete", name)
	}

	if err := tx.Delete(valueKey(name)); err != nil {
		return mapError(err, "delete", name)
	}

	return mapError(tx.Commit(), "delete", name)
}

// Len implements the Store interface.
func (s *BadgerStore) Len() (int, error) {
	count := 0

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(valuePrefix + "_")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}

		return nil
	})

	if err != nil {
		return 0, mapError(err, "len", "")
	}

	return count, nil
}

// Close implements the Store interface.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// StorePath returns the directory of the database.
func (s *BadgerStore) StorePath() string {
	return s.path
}

func isDBKeyNotFound(err error) bool {
	return err == badger.ErrKeyNotFound
}

func mapError(err error, op, key string) error {
	if err == nil {
		return nil
	}
	if isDBKeyNotFound(err) {
		return newError(op, key, KeyNotFound)
	}
	return fmt.Errorf("store: %s %q: %w", op, key, err)
}
