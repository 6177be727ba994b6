// Package docstore implements the dataset contract over a single structured
// JSON document.
//
// Open loads the whole document into memory; mutations are buffered; Close
// rewrites the whole file. The rewrite goes through a temp file and rename,
// so a failed rewrite leaves no partial document behind. The input may be
// HuJSON ("human JSON": comments and trailing commas are tolerated); the
// store always writes standard JSON.
package docstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"slices"

	"github.com/natefinch/atomic"
	"github.com/tailscale/hujson"

	"github.com/calvinalkan/dataset/pkg/dataset"
)

// Mode selects read-only or writable access.
type Mode string

const (
	ReadOnly  Mode = "r"
	ReadWrite Mode = "a"
)

// Store is a dataset over the top-level members of one JSON document.
// Values are the decoded JSON values (map[string]any, []any, float64,
// string, bool, nil).
type Store struct {
	path string
	mode Mode

	// doc is nil while closed. dirty tracks buffered mutations.
	doc   map[string]any
	dirty bool
}

// New returns a store over the document at path. No I/O happens until Open.
func New(path string, mode Mode) *Store {
	return &Store{path: path, mode: mode}
}

// Open loads the document fully into memory. A missing file is an empty
// document when the store is writable, an error otherwise.
func (s *Store) Open() error {
	if s.doc != nil {
		return dataset.ErrAlreadyOpen
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		if s.mode != ReadWrite {
			return fmt.Errorf("open %s: %w", s.path, err)
		}

		s.doc = make(map[string]any)
		s.dirty = false

		return nil
	}

	if err != nil {
		return fmt.Errorf("open %s: %w", s.path, err)
	}

	std, err := hujson.Standardize(data)
	if err != nil {
		return fmt.Errorf("standardize %s: %w", s.path, err)
	}

	var doc map[string]any
	if err := json.Unmarshal(std, &doc); err != nil {
		return fmt.Errorf("parse %s: %w", s.path, err)
	}

	if doc == nil {
		doc = make(map[string]any)
	}

	s.doc = doc
	s.dirty = false

	return nil
}

// Close rewrites the document if it has buffered mutations, then releases
// it. On a rewrite failure the store stays open with its mutations intact,
// so the caller can retry; the file on disk is untouched either way.
func (s *Store) Close() error {
	if s.doc == nil {
		return dataset.ErrNotOpen
	}

	if s.dirty && s.mode == ReadWrite {
		data, err := json.MarshalIndent(s.doc, "", "  ")
		if err != nil {
			return fmt.Errorf("encode %s: %w", s.path, err)
		}

		data = append(data, '\n')

		if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
			return fmt.Errorf("rewrite %s: %w", s.path, err)
		}
	}

	s.doc = nil
	s.dirty = false

	return nil
}

// IsOpen reports whether the document is loaded.
func (s *Store) IsOpen() bool { return s.doc != nil }

// Keys returns the document's top-level member names, sorted.
func (s *Store) Keys() ([]string, error) {
	if s.doc == nil {
		return nil, dataset.ErrNotOpen
	}

	return slices.Sorted(maps.Keys(s.doc)), nil
}

// Contains reports top-level membership.
func (s *Store) Contains(key string) (bool, error) {
	if s.doc == nil {
		return false, dataset.ErrNotOpen
	}

	_, ok := s.doc[key]

	return ok, nil
}

// Get returns the decoded value of the named member.
func (s *Store) Get(key string) (any, error) {
	if s.doc == nil {
		return nil, dataset.ErrNotOpen
	}

	v, ok := s.doc[key]
	if !ok {
		return nil, &dataset.KeyError{Key: key, Err: dataset.ErrKeyNotFound}
	}

	return v, nil
}

// SaveItem buffers value under key. The value must be JSON-encodable; this
// is checked at Close, when the document is rewritten.
func (s *Store) SaveItem(key string, value any) error {
	if s.doc == nil {
		return dataset.ErrNotOpen
	}

	if s.mode != ReadWrite {
		return dataset.ErrNotWritable
	}

	s.doc[key] = value
	s.dirty = true

	return nil
}

// DeleteItem buffers the removal of key.
func (s *Store) DeleteItem(key string) error {
	if s.doc == nil {
		return dataset.ErrNotOpen
	}

	if s.mode != ReadWrite {
		return dataset.ErrNotWritable
	}

	if _, ok := s.doc[key]; !ok {
		return &dataset.KeyError{Key: key, Err: dataset.ErrKeyNotFound}
	}

	delete(s.doc, key)
	s.dirty = true

	return nil
}
