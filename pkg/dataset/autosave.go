package dataset

import (
	"fmt"
	"iter"
)

// AutoSaving pairs a read-only or lazy source with a writable destination.
//
// Reads fall through to the source and populate the destination on a miss,
// so each key is materialized at most once; a key already present in the
// destination is never re-read from the source unless an overwrite is
// explicitly requested via SaveAll.
//
// The hit-check and the fill are not atomic. Concurrent callers missing on
// the same key will both compute and both write; external synchronization is
// the caller's job.
type AutoSaving[V any] struct {
	src Dataset[V]
	dst SavingDataset[V]
}

// NewAutoSaving pairs src with dst. Fails with ErrNilBase when either is
// absent.
func NewAutoSaving[V any](src Dataset[V], dst SavingDataset[V]) (*AutoSaving[V], error) {
	if src == nil || dst == nil {
		return nil, ErrNilBase
	}

	return &AutoSaving[V]{src: src, dst: dst}, nil
}

// Source returns the source dataset.
func (a *AutoSaving[V]) Source() Dataset[V] { return a.src }

// Destination returns the destination dataset.
func (a *AutoSaving[V]) Destination() SavingDataset[V] { return a.dst }

// Keys returns the source's key-domain.
func (a *AutoSaving[V]) Keys() ([]string, error) {
	return a.src.Keys()
}

// Contains asks the source.
func (a *AutoSaving[V]) Contains(key string) (bool, error) {
	return a.src.Contains(key)
}

// Get serves key from the destination when present. On a miss the value is
// computed from the source, persisted into the destination, and returned.
func (a *AutoSaving[V]) Get(key string) (V, error) {
	ok, err := a.dst.Contains(key)
	if err != nil {
		var zero V
		return zero, fmt.Errorf("probe destination: %w", err)
	}

	if ok {
		return a.dst.Get(key)
	}

	value, err := a.src.Get(key)
	if err != nil {
		var zero V
		return zero, err
	}

	if err := a.dst.SaveItem(key, value); err != nil {
		return value, fmt.Errorf("fill destination: %w", err)
	}

	return value, nil
}

// UnsavedKeys lazily produces the source keys not yet present in the
// destination, in source key order. The enumeration error is reported up
// front; a destination probe failure ends the sequence with a final element
// carrying the error.
//
// Useful for progress estimation and resuming a partial bulk fill without
// materializing anything.
func (a *AutoSaving[V]) UnsavedKeys() (iter.Seq2[string, error], error) {
	keys, err := a.src.Keys()
	if err != nil {
		return nil, fmt.Errorf("source keys: %w", err)
	}

	seq := func(yield func(string, error) bool) {
		for _, k := range keys {
			ok, err := a.dst.Contains(k)
			if err != nil {
				yield("", err)
				return
			}

			if ok {
				continue
			}

			if !yield(k, nil) {
				return
			}
		}
	}

	return seq, nil
}

// SaveAll materializes the whole source into the destination, by delegating
// to [SaveDataset]. A no-op when nothing is unsaved and opts.Overwrite is
// unset.
func (a *AutoSaving[V]) SaveAll(opts SaveOptions) error {
	return SaveDataset(a.dst, a.src, opts)
}

// Open opens the source, then the destination. If the destination fails the
// source is closed again before the error propagates.
func (a *AutoSaving[V]) Open() error {
	if err := a.src.Open(); err != nil {
		return fmt.Errorf("open source: %w", err)
	}

	if err := a.dst.Open(); err != nil {
		_ = a.src.Close()
		return fmt.Errorf("open destination: %w", err)
	}

	return nil
}

// Close releases the pair in LIFO order: destination first, then source, so
// a destination failure cannot leave the source dangling. Both closes are
// attempted; the first error is reported.
func (a *AutoSaving[V]) Close() error {
	derr := a.dst.Close()
	serr := a.src.Close()

	if derr != nil {
		return fmt.Errorf("close destination: %w", derr)
	}

	if serr != nil {
		return fmt.Errorf("close source: %w", serr)
	}

	return nil
}

// IsOpen reports whether both halves are open.
func (a *AutoSaving[V]) IsOpen() bool {
	return a.src.IsOpen() && a.dst.IsOpen()
}

// Subset narrows the readable key-domain to keys, pairing a subset of the
// source with the same destination. Writes keep landing in the full
// destination; only reads are narrowed. Validation of the keys against the
// source is deferred until Open.
func (a *AutoSaving[V]) Subset(keys []string) (*AutoSaving[V], error) {
	sub, err := Subset(a.src, keys, SubsetOptions{DeferValidation: true})
	if err != nil {
		return nil, err
	}

	return &AutoSaving[V]{src: sub, dst: a.dst}, nil
}

// Manager produces (lazy source, saving destination) pairs on demand, so
// callers can build, populate, and read a cache without holding long-lived
// handles themselves.
type Manager[V any] interface {
	// Lazy returns a fresh source dataset.
	Lazy() (Dataset[V], error)

	// Saving returns a fresh writable destination dataset.
	Saving() (SavingDataset[V], error)
}

// AutoSavingOf builds a cache-through pair from m's source and destination.
func AutoSavingOf[V any](m Manager[V]) (*AutoSaving[V], error) {
	src, err := m.Lazy()
	if err != nil {
		return nil, fmt.Errorf("lazy dataset: %w", err)
	}

	dst, err := m.Saving()
	if err != nil {
		return nil, fmt.Errorf("saving dataset: %w", err)
	}

	return NewAutoSaving(src, dst)
}

// SaveAll opens a fresh pair from m, materializes the whole source into the
// destination, and closes the pair again: "ensure the cache is populated"
// without keeping anything open afterward.
func SaveAll[V any](m Manager[V], opts SaveOptions) error {
	pair, err := AutoSavingOf(m)
	if err != nil {
		return err
	}

	return With(pair, func() error {
		return pair.SaveAll(opts)
	})
}

// Saved runs [SaveAll] and then returns a fresh, unopened handle to the
// destination alone, decoupling building the cache from reading it. The
// returned dataset is for reading; writing to it is the caller's own
// business.
func Saved[V any](m Manager[V], opts SaveOptions) (Dataset[V], error) {
	if err := SaveAll(m, opts); err != nil {
		return nil, err
	}

	dst, err := m.Saving()
	if err != nil {
		return nil, fmt.Errorf("saving dataset: %w", err)
	}

	return dst, nil
}
