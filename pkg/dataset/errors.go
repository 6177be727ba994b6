package dataset

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by datasets and decorators.
//
// Check with [errors.Is]; wrapping layers add context with %w and never
// discard the original condition.
var (
	// ErrKeyNotFound indicates a key absent from a dataset's domain or
	// backing store.
	ErrKeyNotFound = errors.New("key not found")

	// ErrInvalidKey indicates a key outside a subset's declared key set.
	// Distinct from ErrKeyNotFound: the key may well exist in the base,
	// but the narrowed view does not admit it.
	ErrInvalidKey = errors.New("invalid key")

	// ErrUnknownKeys indicates enumeration was requested on a dataset
	// whose key-domain is not enumerable (e.g. a pure-function dataset).
	// Narrow the dataset with Subset if the keys are known to the caller.
	ErrUnknownKeys = errors.New("keys unknown")

	// ErrNotWritable indicates a mutation on a dataset opened read-only
	// or lacking write support entirely.
	ErrNotWritable = errors.New("dataset not writable")

	// ErrAlreadyOpen and ErrNotOpen indicate lifecycle misuse.
	ErrAlreadyOpen = errors.New("dataset already open")
	ErrNotOpen     = errors.New("dataset not open")

	// ErrTypeMismatch indicates a value that does not satisfy a store's
	// value-type constraint.
	ErrTypeMismatch = errors.New("value type mismatch")

	// ErrChildState indicates shared-resource misuse: opening an already
	// registered view or closing one that is not registered.
	ErrChildState = errors.New("invalid child state")

	// ErrNilBase indicates a decorator was constructed without a base.
	ErrNilBase = errors.New("nil base dataset")
)

// KeyError carries the key involved in a failed dataset operation.
//
// When the failure happened on the far side of a key remapping, MappedKey
// holds the translated key so both ends of the translation are visible:
//
//	get "2020-01-01": key "prices/2020-01-01" (from "2020-01-01"): key not found
//
// Use [errors.As] to extract the keys and [errors.Is] to check the cause.
type KeyError struct {
	// Key is the key as the caller supplied it.
	Key string

	// MappedKey is the translated key, when a key-remapping decorator sat
	// between the caller and the failure. Empty otherwise.
	MappedKey string

	// Err is the underlying cause, usually one of the sentinels above.
	Err error
}

// Error formats as `key "K": cause`, adding the mapped key when present.
func (e *KeyError) Error() string {
	if e.MappedKey != "" && e.MappedKey != e.Key {
		return fmt.Sprintf("key %q (from %q): %v", e.MappedKey, e.Key, e.Err)
	}

	return fmt.Sprintf("key %q: %v", e.Key, e.Err)
}

// Unwrap returns the underlying cause.
func (e *KeyError) Unwrap() error {
	return e.Err
}

func notFound(key string) error {
	return &KeyError{Key: key, Err: ErrKeyNotFound}
}

func invalidKey(key string) error {
	return &KeyError{Key: key, Err: ErrInvalidKey}
}
