// Package zipstore implements the read-only dataset contract over a zip
// archive: keys are entry names, values are the decompressed contents.
package zipstore

import (
	"archive/zip"
	"fmt"
	"io"
	"strings"

	"github.com/calvinalkan/dataset/pkg/dataset"
)

// Store is a read-only dataset over one zip archive.
type Store struct {
	path string

	archive *zip.ReadCloser // nil while closed
}

// New returns a store over the archive at path. No I/O happens until Open.
func New(path string) *Store {
	return &Store{path: path}
}

// Open opens the archive. Opening an already-open store is a no-op.
func (s *Store) Open() error {
	if s.archive != nil {
		return nil
	}

	archive, err := zip.OpenReader(s.path)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.path, err)
	}

	s.archive = archive

	return nil
}

// Close closes the archive. Closing an unopened store is a no-op.
func (s *Store) Close() error {
	if s.archive == nil {
		return nil
	}

	err := s.archive.Close()
	s.archive = nil

	return err
}

// IsOpen reports whether the archive is open.
func (s *Store) IsOpen() bool { return s.archive != nil }

// Keys returns the archive's file entry names in archive order.
func (s *Store) Keys() ([]string, error) {
	if s.archive == nil {
		return nil, dataset.ErrNotOpen
	}

	var keys []string

	for _, f := range s.archive.File {
		if strings.HasSuffix(f.Name, "/") {
			continue // directory entry
		}

		keys = append(keys, f.Name)
	}

	return keys, nil
}

// Contains reports whether the archive holds an entry named key.
func (s *Store) Contains(key string) (bool, error) {
	if s.archive == nil {
		return false, dataset.ErrNotOpen
	}

	return s.find(key) != nil, nil
}

// Get returns the decompressed contents of the entry named key.
func (s *Store) Get(key string) ([]byte, error) {
	if s.archive == nil {
		return nil, dataset.ErrNotOpen
	}

	f := s.find(key)
	if f == nil {
		return nil, &dataset.KeyError{Key: key, Err: dataset.ErrKeyNotFound}
	}

	r, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open entry %q: %w", key, err)
	}

	defer func() { _ = r.Close() }()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read entry %q: %w", key, err)
	}

	return data, nil
}

func (s *Store) find(key string) *zip.File {
	for _, f := range s.archive.File {
		if f.Name == key {
			return f
		}
	}

	return nil
}
