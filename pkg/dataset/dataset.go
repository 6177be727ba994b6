// Package dataset provides a lazily-evaluated key-value abstraction over
// heterogeneous backing stores, a composition algebra (subsetting, value
// mapping, key remapping, combining), and a cache-through layer that
// materializes expensive source computations into a persistent destination
// exactly once per key.
//
// The main types are:
//   - [Dataset]: the read contract plus an open/close lifecycle
//   - [SavingDataset]: a dataset that additionally accepts writes
//   - [AutoSaving]: a (source, destination) cache-through pair
//   - [KeySet]: a possibly-unbounded key-domain
//
// Datasets are constructed cheaply with no I/O; Open acquires the underlying
// resource and Close releases it. Use [With] for scoped access:
//
//	err := dataset.With(ds, func() error {
//	    v, err := ds.Get("some/key")
//	    ...
//	})
//
// The contract is single-caller and synchronous. Nothing in this package
// locks; callers that share a dataset across goroutines must add their own
// synchronization. In particular the cache-through read path is a non-atomic
// check-then-act: two concurrent misses on the same key may both compute and
// both write.
package dataset

import (
	"fmt"
	"iter"
	"maps"
	"slices"
)

// Reader is the read capability every dataset participant implements.
type Reader[V any] interface {
	// Keys returns the dataset's key-domain. Returns ErrUnknownKeys when
	// the domain is not enumerable; Contains stays usable even then.
	Keys() ([]string, error)

	// Contains reports whether key is in the key-domain.
	Contains(key string) (bool, error)

	// Get returns the value for key, or an error wrapping ErrKeyNotFound.
	Get(key string) (V, error)
}

// Lifecycle is the resource lifecycle capability. Implementations without an
// underlying resource can embed [AlwaysOpen].
type Lifecycle interface {
	// Open acquires the underlying resource.
	Open() error

	// Close releases it.
	Close() error

	// IsOpen reports the current lifecycle state.
	IsOpen() bool
}

// Dataset is a logical key-value mapping with an open/close lifecycle.
type Dataset[V any] interface {
	Reader[V]
	Lifecycle
}

// Writer is the mutation capability.
type Writer[V any] interface {
	// SaveItem writes value under key, replacing any existing value.
	SaveItem(key string, value V) error

	// DeleteItem removes key. Returns an error wrapping ErrKeyNotFound if
	// the key is absent.
	DeleteItem(key string) error
}

// SavingDataset is a dataset that also accepts writes.
type SavingDataset[V any] interface {
	Dataset[V]
	Writer[V]
}

// AlwaysOpen is an embeddable no-op lifecycle for datasets with no underlying
// resource to acquire (in-memory maps, pure functions, per-key file stores).
type AlwaysOpen struct{}

// Open is a no-op.
func (AlwaysOpen) Open() error { return nil }

// Close is a no-op.
func (AlwaysOpen) Close() error { return nil }

// IsOpen always reports true.
func (AlwaysOpen) IsOpen() bool { return true }

// With opens ds, runs fn, and closes ds again. The close happens on every
// path, so an error (or panic) inside fn cannot leak an open handle. The
// close error is reported only if fn succeeded.
func With(ds Lifecycle, fn func() error) (err error) {
	if err := ds.Open(); err != nil {
		return fmt.Errorf("open: %w", err)
	}

	defer func() {
		cerr := ds.Close()
		if err == nil && cerr != nil {
			err = fmt.Errorf("close: %w", cerr)
		}
	}()

	return fn()
}

// Len returns the size of ds's key-domain. Fails with ErrUnknownKeys when the
// domain is not enumerable.
func Len[V any](ds Reader[V]) (int, error) {
	keys, err := ds.Keys()
	if err != nil {
		return 0, err
	}

	return len(keys), nil
}

// Each visits every (key, value) pair in ds, in key order. The first error
// from enumeration, a read, or fn stops the walk.
func Each[V any](ds Reader[V], fn func(key string, value V) error) error {
	keys, err := ds.Keys()
	if err != nil {
		return err
	}

	for _, k := range keys {
		v, err := ds.Get(k)
		if err != nil {
			return err
		}

		if err := fn(k, v); err != nil {
			return err
		}
	}

	return nil
}

// Values returns every value in ds, in key order.
func Values[V any](ds Reader[V]) ([]V, error) {
	keys, err := ds.Keys()
	if err != nil {
		return nil, err
	}

	values := make([]V, 0, len(keys))

	for _, k := range keys {
		v, err := ds.Get(k)
		if err != nil {
			return nil, err
		}

		values = append(values, v)
	}

	return values, nil
}

// Collect materializes ds into a plain map.
func Collect[V any](ds Reader[V]) (map[string]V, error) {
	keys, err := ds.Keys()
	if err != nil {
		return nil, err
	}

	out := make(map[string]V, len(keys))

	for _, k := range keys {
		v, err := ds.Get(k)
		if err != nil {
			return nil, err
		}

		out[k] = v
	}

	return out, nil
}

// Item is one key-value pair, used by bulk-save helpers.
type Item[V any] struct {
	Key   string
	Value V
}

// Items returns a lazy key-ordered sequence of ds's pairs. The enumeration
// error is reported up front; a read error ends the sequence with a final
// pair carrying the error.
func Items[V any](ds Reader[V]) (iter.Seq2[Item[V], error], error) {
	keys, err := ds.Keys()
	if err != nil {
		return nil, err
	}

	seq := func(yield func(Item[V], error) bool) {
		for _, k := range keys {
			v, err := ds.Get(k)
			if err != nil {
				yield(Item[V]{}, err)
				return
			}

			if !yield(Item[V]{Key: k, Value: v}, nil) {
				return
			}
		}
	}

	return seq, nil
}

// mapDataset is an always-open dataset over a plain map. The map is not
// copied; the caller must not mutate it while the dataset is in use.
type mapDataset[V any] struct {
	AlwaysOpen

	m map[string]V
}

// FromMap returns an always-open dataset over m. Keys enumerate in sorted
// order.
func FromMap[V any](m map[string]V) Dataset[V] {
	return &mapDataset[V]{m: m}
}

func (d *mapDataset[V]) Keys() ([]string, error) {
	return slices.Sorted(maps.Keys(d.m)), nil
}

func (d *mapDataset[V]) Contains(key string) (bool, error) {
	_, ok := d.m[key]
	return ok, nil
}

func (d *mapDataset[V]) Get(key string) (V, error) {
	v, ok := d.m[key]
	if !ok {
		var zero V
		return zero, notFound(key)
	}

	return v, nil
}

// funcDataset computes values by applying a pure function to the key.
type funcDataset[V any] struct {
	AlwaysOpen

	fn   func(string) (V, error)
	keys KeySet
}

// FromFunc returns a dataset whose values are computed by fn. The key-domain
// is keys; pass [AllKeys] (or the KeySet zero value) for an unbounded domain,
// in which case Keys fails with ErrUnknownKeys but Contains and Get remain
// defined for every key.
func FromFunc[V any](fn func(string) (V, error), keys KeySet) Dataset[V] {
	return &funcDataset[V]{fn: fn, keys: keys}
}

func (d *funcDataset[V]) Keys() ([]string, error) {
	return d.keys.Slice()
}

func (d *funcDataset[V]) Contains(key string) (bool, error) {
	return d.keys.Contains(key), nil
}

func (d *funcDataset[V]) Get(key string) (V, error) {
	if !d.keys.Contains(key) {
		var zero V
		return zero, notFound(key)
	}

	return d.fn(key)
}
