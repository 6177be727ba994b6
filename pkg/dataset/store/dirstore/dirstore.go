// Package dirstore implements the dataset contract over a filesystem tree.
//
// Keys are slash-delimited paths relative to a root directory, one file per
// key; values are the raw file contents. A directory-valued key yields a
// nested store via [Store.Sub]. The store holds no file handle between
// operations, so it has no lifecycle of its own.
package dirstore

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/calvinalkan/dataset/pkg/dataset"
)

// Mode selects read-only or writable access.
type Mode string

const (
	// ReadOnly rejects SaveItem and DeleteItem with ErrNotWritable.
	ReadOnly Mode = "r"

	// ReadWrite permits mutation; writes create intermediate directories
	// as needed.
	ReadWrite Mode = "a"
)

// Store is a dataset over the files beneath a root directory.
type Store struct {
	dataset.AlwaysOpen

	root string
	mode Mode
}

// New returns a store rooted at root. No I/O happens until the store is
// used; a missing root simply enumerates no keys.
func New(root string, mode Mode) *Store {
	return &Store{root: root, mode: mode}
}

// Root returns the store's root directory.
func (s *Store) Root() string { return s.root }

// Keys walks the tree and returns the relative slash-delimited path of every
// file, in lexical order.
func (s *Store) Keys() ([]string, error) {
	var keys []string

	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == s.root && errors.Is(err, fs.ErrNotExist) {
				return filepath.SkipAll
			}

			return err
		}

		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}

		keys = append(keys, filepath.ToSlash(rel))

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", s.root, err)
	}

	return keys, nil
}

// Contains reports whether key names an existing file or directory.
func (s *Store) Contains(key string) (bool, error) {
	p, err := s.path(key)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return true, nil
}

// Get returns the contents of the file named by key. A directory key fails;
// use [Store.Sub] for those.
func (s *Store) Get(key string) ([]byte, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &dataset.KeyError{Key: key, Err: dataset.ErrKeyNotFound}
	}

	if err != nil {
		return nil, err
	}

	if info.IsDir() {
		return nil, fmt.Errorf("key %q is a directory, use Sub: %w", key, dataset.ErrTypeMismatch)
	}

	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p, err)
	}

	return data, nil
}

// Sub returns a nested store rooted at the directory named by key, with the
// same mode.
func (s *Store) Sub(key string) (*Store, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &dataset.KeyError{Key: key, Err: dataset.ErrKeyNotFound}
	}

	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("key %q is not a directory: %w", key, dataset.ErrTypeMismatch)
	}

	return New(p, s.mode), nil
}

// SaveItem writes value to the file named by key, creating intermediate
// directories. The write goes through a temp file and rename, so a failure
// leaves no partial file behind.
func (s *Store) SaveItem(key string, value []byte) error {
	if s.mode != ReadWrite {
		return dataset.ErrNotWritable
	}

	p, err := s.path(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create parent directories: %w", err)
	}

	if err := atomic.WriteFile(p, bytes.NewReader(value)); err != nil {
		return fmt.Errorf("write %s: %w", p, err)
	}

	return nil
}

// DeleteItem removes the file named by key.
func (s *Store) DeleteItem(key string) error {
	if s.mode != ReadWrite {
		return dataset.ErrNotWritable
	}

	p, err := s.path(key)
	if err != nil {
		return err
	}

	err = os.Remove(p)
	if errors.Is(err, fs.ErrNotExist) {
		return &dataset.KeyError{Key: key, Err: dataset.ErrKeyNotFound}
	}

	return err
}

// path resolves key below the root, rejecting keys that would escape it.
func (s *Store) path(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("empty key: %w", dataset.ErrInvalidKey)
	}

	clean := path.Clean(key)
	if path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("key %q escapes store root: %w", key, dataset.ErrInvalidKey)
	}

	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}
