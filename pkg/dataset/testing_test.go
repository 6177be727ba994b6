package dataset_test

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/calvinalkan/dataset/pkg/dataset"
)

// memStore is an in-memory SavingDataset with an explicit lifecycle and
// call counters, used to observe decorator and cache-through behavior.
type memStore struct {
	m        map[string]string
	writable bool
	open     bool

	opens  int
	closes int
	gets   map[string]int

	failOpen  error
	failClose error
}

func newMemStore(m map[string]string) *memStore {
	if m == nil {
		m = make(map[string]string)
	}

	return &memStore{m: m, writable: true, gets: make(map[string]int)}
}

func (s *memStore) Keys() ([]string, error) {
	return slices.Sorted(maps.Keys(s.m)), nil
}

func (s *memStore) Contains(key string) (bool, error) {
	_, ok := s.m[key]
	return ok, nil
}

func (s *memStore) Get(key string) (string, error) {
	s.gets[key]++

	v, ok := s.m[key]
	if !ok {
		return "", fmt.Errorf("key %q: %w", key, dataset.ErrKeyNotFound)
	}

	return v, nil
}

func (s *memStore) Open() error {
	if s.failOpen != nil {
		return s.failOpen
	}

	if s.open {
		return dataset.ErrAlreadyOpen
	}

	s.open = true
	s.opens++

	return nil
}

func (s *memStore) Close() error {
	if s.failClose != nil {
		return s.failClose
	}

	if !s.open {
		return dataset.ErrNotOpen
	}

	s.open = false
	s.closes++

	return nil
}

func (s *memStore) IsOpen() bool { return s.open }

func (s *memStore) SaveItem(key, value string) error {
	if !s.writable {
		return dataset.ErrNotWritable
	}

	s.m[key] = value

	return nil
}

func (s *memStore) DeleteItem(key string) error {
	if !s.writable {
		return dataset.ErrNotWritable
	}

	if _, ok := s.m[key]; !ok {
		return fmt.Errorf("key %q: %w", key, dataset.ErrKeyNotFound)
	}

	delete(s.m, key)

	return nil
}

// plainMapping is a Reader with no lifecycle, for exercising the delegation
// wrapper's optional-capability forwarding.
type plainMapping struct {
	m map[string]string
}

func (p plainMapping) Keys() ([]string, error) {
	return slices.Sorted(maps.Keys(p.m)), nil
}

func (p plainMapping) Contains(key string) (bool, error) {
	_, ok := p.m[key]
	return ok, nil
}

func (p plainMapping) Get(key string) (string, error) {
	v, ok := p.m[key]
	if !ok {
		return "", fmt.Errorf("key %q: %w", key, dataset.ErrKeyNotFound)
	}

	return v, nil
}

// recordingProgress captures progress events for assertions.
type recordingProgress struct {
	messages []string
	totals   []int
	keys     []string
	finishes int
}

func (p *recordingProgress) Message(msg string) { p.messages = append(p.messages, msg) }
func (p *recordingProgress) Start(total int)    { p.totals = append(p.totals, total) }
func (p *recordingProgress) Advance(key string) { p.keys = append(p.keys, key) }
func (p *recordingProgress) Finish()            { p.finishes++ }

var errBoom = errors.New("boom")
