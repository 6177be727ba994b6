// Package arraystore implements the dataset contract over a directory of
// array files: one file per key, each holding exactly one homogeneous
// float64 array.
package arraystore

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/calvinalkan/dataset/pkg/dataset"
)

// Array file format constants. Little-endian throughout: a 4-byte magic, a
// u16 version, a u16 pad, a u32 element count, then count float64s.
const (
	fileMagic   = "ARF1"
	fileVersion = 1
	headerSize  = 12
	fileExt     = ".arr"
)

var (
	errBadMagic   = errors.New("bad array file magic")
	errBadVersion = errors.New("array file version mismatch")
	errTruncated  = errors.New("array file truncated")
)

// Mode selects read-only or writable access.
type Mode string

const (
	ReadOnly  Mode = "r"
	ReadWrite Mode = "a"
)

// Store is a dataset of float64 arrays, one flat file per key. It holds no
// handle between operations, so it has no lifecycle of its own.
type Store struct {
	dataset.AlwaysOpen

	dir  string
	mode Mode
}

// New returns a store over dir. The directory is created on first write.
func New(dir string, mode Mode) *Store {
	return &Store{dir: dir, mode: mode}
}

// Keys lists the stored array names, sorted.
func (s *Store) Keys() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.dir, err)
	}

	var keys []string

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}

		keys = append(keys, strings.TrimSuffix(e.Name(), fileExt))
	}

	return keys, nil
}

// Contains reports whether an array file exists for key.
func (s *Store) Contains(key string) (bool, error) {
	p, err := s.path(key)
	if err != nil {
		return false, err
	}

	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return !info.IsDir(), nil
}

// Get reads and decodes the array stored under key.
func (s *Store) Get(key string) ([]float64, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &dataset.KeyError{Key: key, Err: dataset.ErrKeyNotFound}
	}

	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p, err)
	}

	values, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p, err)
	}

	return values, nil
}

// SaveItem encodes value into the array file for key. The write goes through
// a temp file and rename.
func (s *Store) SaveItem(key string, value []float64) error {
	if s.mode != ReadWrite {
		return dataset.ErrNotWritable
	}

	p, err := s.path(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", s.dir, err)
	}

	if err := atomic.WriteFile(p, bytes.NewReader(encode(value))); err != nil {
		return fmt.Errorf("write %s: %w", p, err)
	}

	return nil
}

// DeleteItem removes the array file for key.
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

// path maps key to its array file. Keys are flat names; separators are
// rejected.
func (s *Store) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, "/\\") {
		return "", fmt.Errorf("key %q: %w", key, dataset.ErrInvalidKey)
	}

	return filepath.Join(s.dir, key+fileExt), nil
}

func encode(values []float64) []byte {
	buf := make([]byte, headerSize+8*len(values))

	copy(buf[0:4], fileMagic)
	binary.LittleEndian.PutUint16(buf[4:6], fileVersion)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(len(values)))

	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[headerSize+8*i:], math.Float64bits(v))
	}

	return buf
}

func decode(data []byte) ([]float64, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: %w", errTruncated, dataset.ErrTypeMismatch)
	}

	if string(data[0:4]) != fileMagic {
		return nil, fmt.Errorf("%w: %w", errBadMagic, dataset.ErrTypeMismatch)
	}

	if binary.LittleEndian.Uint16(data[4:6]) != fileVersion {
		return nil, fmt.Errorf("%w: %w", errBadVersion, dataset.ErrTypeMismatch)
	}

	count := int(binary.LittleEndian.Uint32(data[8:12]))
	if len(data) != headerSize+8*count {
		return nil, fmt.Errorf("%w: %w", errTruncated, dataset.ErrTypeMismatch)
	}

	values := make([]float64, count)
	for i := range values {
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[headerSize+8*i:]))
	}

	return values, nil
}
