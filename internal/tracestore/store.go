// Package tracestore is the on-disk trace cache: assembled traces keyed by
// signature, backed by Badger. Only confirmed signatures land here; a draft
// run depends on live chain state and is never worth caching.
package tracestore

import (
	"errors"

	"github.com/dgraph-io/badger/v4"
)

var ErrKeyEmpty = errors.New("key is empty")

type Store struct {
	db     *badger.DB
	prefix string
}

func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, prefix: "trace"}, nil
}

func (s *Store) fullKey(k string) (string, error) {
	if k == "" {
		return "", ErrKeyEmpty
	}
	return s.prefix + "/" + k, nil
}

// Get returns the stored trace for key, or nil when there is none.
func (s *Store) Get(key string) ([]byte, error) {
	k, err := s.fullKey(key)
	if err != nil {
		return nil, err
	}

	var valCopy []byte
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(k))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		valCopy, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return valCopy, nil
}

func (s *Store) Set(key string, value []byte) error {
	k, err := s.fullKey(key)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(k), value)
	})
}

func (s *Store) Delete(key string) error {
	k, err := s.fullKey(key)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(k))
	})
}

// Keys lists the cached signatures.
func (s *Store) Keys() ([]string, error) {
	prefix := []byte(s.prefix + "/")
	var out []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			out = append(out, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	return out, err
}

func (s *Store) Close() error {
	return s.db.Close()
}
