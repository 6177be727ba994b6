// Package badgerstore implements the dataset contract over a single
// BadgerDB database holding a hierarchical namespace.
//
// Keys are slash-delimited paths. Saving a map value creates a sub-group
// recursively, one leaf entry per nested scalar; reading a group path
// reassembles the nested map. The reserved trailing segment "attrs" writes
// metadata for its parent group instead of nested data and rejects non-map
// values. Leaf values are stored JSON-encoded, so numbers read back as
// float64.
package badgerstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/calvinalkan/dataset/pkg/dataset"
)

// Internal key prefixes separating data entries from metadata.
const (
	dataPrefix  = "d/"
	attrsPrefix = "a/"

	// AttrsKey is the reserved trailing segment that addresses a group's
	// metadata.
	AttrsKey = "attrs"
)

// Mode selects read-only or writable access.
type Mode string

const (
	ReadOnly  Mode = "r"
	ReadWrite Mode = "a"
)

// Store is a dataset over one Badger database. Values are any
// JSON-encodable value; map values span sub-groups.
type Store struct {
	path string
	mode Mode

	db *badger.DB // nil while closed
}

// New returns a store over the database directory at path. No I/O happens
// until Open.
func New(path string, mode Mode) *Store {
	return &Store{path: path, mode: mode}
}

// Open opens the underlying database.
func (s *Store) Open() error {
	if s.db != nil {
		return dataset.ErrAlreadyOpen
	}

	opts := badger.DefaultOptions(s.path)
	opts.Logger = nil
	opts.ReadOnly = s.mode == ReadOnly

	db, err := badger.Open(opts)
	if err != nil {
		return fmt.Errorf("open badger at %s: %w", s.path, err)
	}

	s.db = db

	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return dataset.ErrNotOpen
	}

	err := s.db.Close()
	s.db = nil

	if err != nil {
		return fmt.Errorf("close badger: %w", err)
	}

	return nil
}

// IsOpen reports whether the database is open.
func (s *Store) IsOpen() bool { return s.db != nil }

// Keys returns the full path of every leaf entry, sorted.
func (s *Store) Keys() ([]string, error) {
	if s.db == nil {
		return nil, dataset.ErrNotOpen
	}

	var keys []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(dataPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, string(it.Item().Key()[len(dataPrefix):]))
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return keys, nil
}

// Contains reports whether key names a leaf entry or a group.
func (s *Store) Contains(key string) (bool, error) {
	if s.db == nil {
		return false, dataset.ErrNotOpen
	}

	if err := validKey(key); err != nil {
		return false, err
	}

	var found bool

	err := s.db.View(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(dataPrefix + key)); err == nil {
			found = true
			return nil
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		found = hasPrefix(txn, dataPrefix+key+"/")

		return nil
	})
	if err != nil {
		return false, err
	}

	return found, nil
}

// Get returns the leaf value stored under key, or, for a group path, the
// nested map reassembled from every entry below it.
func (s *Store) Get(key string) (any, error) {
	if s.db == nil {
		return nil, dataset.ErrNotOpen
	}

	if err := validKey(key); err != nil {
		return nil, err
	}

	var value any

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(dataPrefix + key))
		if err == nil {
			return item.Value(func(data []byte) error {
				return json.Unmarshal(data, &value)
			})
		}

		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		group, err := readGroup(txn, key)
		if err != nil {
			return err
		}

		if group == nil {
			return &dataset.KeyError{Key: key, Err: dataset.ErrKeyNotFound}
		}

		value = group

		return nil
	})
	if err != nil {
		return nil, err
	}

	return value, nil
}

// Attrs returns the metadata map of the group named by key, or an empty map
// when none was written.
func (s *Store) Attrs(key string) (map[string]any, error) {
	if s.db == nil {
		return nil, dataset.ErrNotOpen
	}

	if err := validKey(key); err != nil {
		return nil, err
	}

	attrs := make(map[string]any)

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(attrsPrefix + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}

		if err != nil {
			return err
		}

		return item.Value(func(data []byte) error {
			return json.Unmarshal(data, &attrs)
		})
	})
	if err != nil {
		return nil, err
	}

	return attrs, nil
}

// SaveItem writes value under key. Map values recurse into sub-groups; a
// trailing "attrs" segment writes the parent group's metadata and requires a
// map value.
func (s *Store) SaveItem(key string, value any) error {
	if s.db == nil {
		return dataset.ErrNotOpen
	}

	if s.mode != ReadWrite {
		return dataset.ErrNotWritable
	}

	if err := validKey(key); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return saveEntry(txn, key, value)
	})
}

// DeleteItem removes the leaf entry under key, or an entire group with its
// metadata.
func (s *Store) DeleteItem(key string) error {
	if s.db == nil {
		return dataset.ErrNotOpen
	}

	if s.mode != ReadWrite {
		return dataset.ErrNotWritable
	}

	if err := validKey(key); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		deleted := false

		if _, err := txn.Get([]byte(dataPrefix + key)); err == nil {
			if err := txn.Delete([]byte(dataPrefix + key)); err != nil {
				return err
			}

			deleted = true
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		// Group delete: every entry below the path plus its metadata.
		for _, sub := range keysBelow(txn, dataPrefix+key+"/") {
			if err := txn.Delete([]byte(sub)); err != nil {
				return err
			}

			deleted = true
		}

		for _, sub := range keysBelow(txn, attrsPrefix+key+"/") {
			if err := txn.Delete([]byte(sub)); err != nil {
				return err
			}
		}

		if err := txn.Delete([]byte(attrsPrefix + key)); err != nil {
			return err
		}

		if !deleted {
			return &dataset.KeyError{Key: key, Err: dataset.ErrKeyNotFound}
		}

		return nil
	})
}

func saveEntry(txn *badger.Txn, key string, value any) error {
	if lastSegment(key) == AttrsKey {
		attrs, ok := value.(map[string]any)
		if !ok {
			return fmt.Errorf("%q requires a map value, got %T: %w", key, value, dataset.ErrTypeMismatch)
		}

		data, err := json.Marshal(attrs)
		if err != nil {
			return fmt.Errorf("encode attrs %q: %w", key, err)
		}

		parent := ""
		if key != AttrsKey {
			parent = strings.TrimSuffix(key, "/"+AttrsKey)
		}

		return txn.Set([]byte(attrsPrefix+parent), data)
	}

	if nested, ok := value.(map[string]any); ok {
		for sub, v := range nested {
			if err := validSegment(sub); err != nil {
				return err
			}

			if err := saveEntry(txn, key+"/"+sub, v); err != nil {
				return err
			}
		}

		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}

	return txn.Set([]byte(dataPrefix+key), data)
}

// readGroup reassembles the nested map below key, or returns nil when no
// entry lives there.
func readGroup(txn *badger.Txn, key string) (map[string]any, error) {
	prefix := dataPrefix + key + "/"

	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)

	it := txn.NewIterator(opts)
	defer it.Close()

	var group map[string]any

	for it.Rewind(); it.Valid(); it.Next() {
		item := it.Item()
		rel := string(item.Key()[len(prefix):])

		var value any

		err := item.Value(func(data []byte) error {
			return json.Unmarshal(data, &value)
		})
		if err != nil {
			return nil, err
		}

		if group == nil {
			group = make(map[string]any)
		}

		insertNested(group, strings.Split(rel, "/"), value)
	}

	return group, nil
}

func insertNested(m map[string]any, segments []string, value any) {
	if len(segments) == 1 {
		m[segments[0]] = value
		return
	}

	child, ok := m[segments[0]].(map[string]any)
	if !ok {
		child = make(map[string]any)
		m[segments[0]] = child
	}

	insertNested(child, segments[1:], value)
}

func hasPrefix(txn *badger.Txn, prefix string) bool {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = []byte(prefix)

	it := txn.NewIterator(opts)
	defer it.Close()

	it.Rewind()

	return it.Valid()
}

func keysBelow(txn *badger.Txn, prefix string) []string {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = []byte(prefix)

	it := txn.NewIterator(opts)
	defer it.Close()

	var keys []string

	for it.Rewind(); it.Valid(); it.Next() {
		keys = append(keys, string(it.Item().KeyCopy(nil)))
	}

	return keys
}

func validKey(key string) error {
	if key == "" {
		return fmt.Errorf("empty key: %w", dataset.ErrInvalidKey)
	}

	for _, seg := range strings.Split(key, "/") {
		if err := validSegment(seg); err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
	}

	return nil
}

func validSegment(seg string) error {
	if seg == "" {
		return fmt.Errorf("empty path segment: %w", dataset.ErrInvalidKey)
	}

	return nil
}

func lastSegment(key string) string {
	if i := strings.LastIndexByte(key, '/'); i >= 0 {
		return key[i+1:]
	}

	return key
}
