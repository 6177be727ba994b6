package dataset

import "fmt"

// KeySubset narrows a base dataset to a fixed, immutable key set.
//
// Reading a key outside the set fails with ErrInvalidKey, which is distinct
// from ErrKeyNotFound: the key may exist in the base, but the narrowed view
// does not declare it.
type KeySubset[V any] struct {
	base Dataset[V]
	keys KeySet

	// validateOnOpen is set when membership checking was deferred because
	// the base was not open at construction time.
	validateOnOpen bool
}

// SubsetOptions configure [Subset].
type SubsetOptions struct {
	// DeferValidation postpones the check that every key is present in the
	// base until Open, for bases that need to be opened before they can
	// answer Contains.
	DeferValidation bool
}

// Subset narrows base to the given keys.
//
// By default every key is validated against the base immediately, failing
// fast with a ErrKeyNotFound-wrapping error for keys the base lacks. With
// [SubsetOptions.DeferValidation] the check runs on Open instead.
//
// Subsetting a KeySubset does not nest wrappers: the key sets compose by
// intersection, with keys outside the existing subset rejected as
// ErrInvalidKey, and the new subset wraps the original base directly.
func Subset[V any](base Dataset[V], keys []string, opts SubsetOptions) (*KeySubset[V], error) {
	if base == nil {
		return nil, ErrNilBase
	}

	if inner, ok := base.(*KeySubset[V]); ok {
		for _, k := range keys {
			if !inner.keys.Contains(k) {
				return nil, invalidKey(k)
			}
		}

		base = inner.base
	}

	s := &KeySubset[V]{
		base:           base,
		keys:           NewKeySet(keys...),
		validateOnOpen: opts.DeferValidation,
	}

	if !opts.DeferValidation {
		if err := s.validate(); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func (s *KeySubset[V]) validate() error {
	keys, _ := s.keys.Slice()
	for _, k := range keys {
		ok, err := s.base.Contains(k)
		if err != nil {
			return fmt.Errorf("validate subset: %w", err)
		}

		if !ok {
			return fmt.Errorf("key %q not present in base: %w", k, ErrKeyNotFound)
		}
	}

	return nil
}

// Keys returns the fixed key set in sorted order.
func (s *KeySubset[V]) Keys() ([]string, error) {
	return s.keys.Slice()
}

// Contains reports membership in the fixed key set only.
func (s *KeySubset[V]) Contains(key string) (bool, error) {
	return s.keys.Contains(key), nil
}

// Get reads key from the base after checking it against the fixed set.
func (s *KeySubset[V]) Get(key string) (V, error) {
	if !s.keys.Contains(key) {
		var zero V
		return zero, invalidKey(key)
	}

	return s.base.Get(key)
}

// Open opens the base and runs the deferred membership validation, if any.
func (s *KeySubset[V]) Open() error {
	if err := s.base.Open(); err != nil {
		return err
	}

	if s.validateOnOpen {
		if err := s.validate(); err != nil {
			cerr := s.base.Close()
			if cerr != nil {
				return fmt.Errorf("%w (and closing base failed: %v)", err, cerr)
			}

			return err
		}
	}

	return nil
}

// Close closes the base.
func (s *KeySubset[V]) Close() error { return s.base.Close() }

// IsOpen reports the base's state.
func (s *KeySubset[V]) IsOpen() bool { return s.base.IsOpen() }

// SaveItem writes through to the base after checking key against the fixed
// set, so a narrowed view cannot mutate keys outside its declared domain.
// Fails with ErrNotWritable when the base has no write capability.
func (s *KeySubset[V]) SaveItem(key string, value V) error {
	w, ok := s.base.(Writer[V])
	if !ok {
		return ErrNotWritable
	}

	if !s.keys.Contains(key) {
		return invalidKey(key)
	}

	return w.SaveItem(key, value)
}

// DeleteItem deletes through to the base after checking key against the
// fixed set.
func (s *KeySubset[V]) DeleteItem(key string) error {
	w, ok := s.base.(Writer[V])
	if !ok {
		return ErrNotWritable
	}

	if !s.keys.Contains(key) {
		return invalidKey(key)
	}

	return w.DeleteItem(key)
}
