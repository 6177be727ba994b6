package dataset

import (
	"fmt"
	"maps"
	"slices"
)

// Combined intersects N named child datasets into one dataset whose values
// are name→value maps, one entry per child.
//
// The key-domain is the intersection of the children's domains, computed once
// and cached; a reopen invalidates the cache since a child's domain can
// change between opens.
type Combined[V any] struct {
	children map[string]Dataset[V]
	names    []string // sorted, fixed at construction

	keys []string // cached intersection, nil until computed
	open bool
}

// Combine returns the intersection-combine of the named children. At least
// one child is required and none may be nil.
func Combine[V any](children map[string]Dataset[V]) (*Combined[V], error) {
	if len(children) == 0 {
		return nil, fmt.Errorf("combine: no children")
	}

	for name, child := range children {
		if child == nil {
			return nil, fmt.Errorf("combine: child %q: %w", name, ErrNilBase)
		}
	}

	return &Combined[V]{
		children: maps.Clone(children),
		names:    slices.Sorted(maps.Keys(children)),
	}, nil
}

// Keys returns the intersection of the children's key-domains, sorted.
func (c *Combined[V]) Keys() ([]string, error) {
	if c.keys != nil {
		return c.keys, nil
	}

	set := KeySet{}
	for _, name := range c.names {
		keys, err := c.children[name].Keys()
		if err != nil {
			return nil, fmt.Errorf("child %q: %w", name, err)
		}

		set = set.Intersect(NewKeySet(keys...))
	}

	keys, err := set.Slice()
	if err != nil {
		return nil, err
	}

	c.keys = keys

	return keys, nil
}

// Contains reports whether every child contains key, short-circuiting on the
// first that does not.
func (c *Combined[V]) Contains(key string) (bool, error) {
	for _, name := range c.names {
		ok, err := c.children[name].Contains(key)
		if err != nil {
			return false, fmt.Errorf("child %q: %w", name, err)
		}

		if !ok {
			return false, nil
		}
	}

	return true, nil
}

// Get returns a map with one entry per child name.
func (c *Combined[V]) Get(key string) (map[string]V, error) {
	out := make(map[string]V, len(c.names))

	for _, name := range c.names {
		v, err := c.children[name].Get(key)
		if err != nil {
			return nil, fmt.Errorf("child %q: %w", name, err)
		}

		out[name] = v
	}

	return out, nil
}

// Open opens every child. If one fails, the children already opened are
// closed again before the failure propagates, so no partial-open state is
// retained. A successful Open invalidates the cached key intersection.
func (c *Combined[V]) Open() error {
	for i, name := range c.names {
		if err := c.children[name].Open(); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = c.children[c.names[j]].Close()
			}

			return fmt.Errorf("child %q: %w", name, err)
		}
	}

	c.open = true
	c.keys = nil

	return nil
}

// Close closes every child. All closes are attempted; the first error is
// reported.
func (c *Combined[V]) Close() error {
	c.open = false

	var firstErr error

	for _, name := range c.names {
		if err := c.children[name].Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("child %q: %w", name, err)
		}
	}

	return firstErr
}

// IsOpen reports whether Open succeeded and Close has not been called.
func (c *Combined[V]) IsOpen() bool { return c.open }

// SaveItem decomposes value into one sub-value per child name and writes each
// through. The value must carry exactly the child names: a missing or extra
// name fails with ErrTypeMismatch, and a read-only child with ErrNotWritable,
// before anything is written.
func (c *Combined[V]) SaveItem(key string, value map[string]V) error {
	if len(value) != len(c.names) {
		return fmt.Errorf("value has %d entries, want one per child (%d): %w",
			len(value), len(c.names), ErrTypeMismatch)
	}

	writers := make(map[string]Writer[V], len(c.names))

	for _, name := range c.names {
		if _, ok := value[name]; !ok {
			return fmt.Errorf("value missing entry for child %q: %w", name, ErrTypeMismatch)
		}

		w, ok := c.children[name].(Writer[V])
		if !ok {
			return fmt.Errorf("child %q: %w", name, ErrNotWritable)
		}

		writers[name] = w
	}

	for _, name := range c.names {
		if err := writers[name].SaveItem(key, value[name]); err != nil {
			return fmt.Errorf("child %q: %w", name, err)
		}
	}

	return nil
}

// DeleteItem removes key from every child.
func (c *Combined[V]) DeleteItem(key string) error {
	for _, name := range c.names {
		w, ok := c.children[name].(Writer[V])
		if !ok {
			return fmt.Errorf("child %q: %w", name, ErrNotWritable)
		}

		if err := w.DeleteItem(key); err != nil {
			return fmt.Errorf("child %q: %w", name, err)
		}
	}

	return nil
}

// Zipped combines child datasets positionally: values are ordered slices,
// one element per child.
//
// Unlike [Combined], the key-domain delegates to the first child only; the
// zip does not re-validate that every position shares the same keys. Callers
// must respect that asymmetry.
type Zipped[V any] struct {
	children []Dataset[V]
	open     bool
}

// Zip returns the positional combine of the children. At least one child is
// required and none may be nil.
func Zip[V any](children ...Dataset[V]) (*Zipped[V], error) {
	if len(children) == 0 {
		return nil, fmt.Errorf("zip: no children")
	}

	for i, child := range children {
		if child == nil {
			return nil, fmt.Errorf("zip: child %d: %w", i, ErrNilBase)
		}
	}

	return &Zipped[V]{children: slices.Clone(children)}, nil
}

// Keys delegates to the first child.
func (z *Zipped[V]) Keys() ([]string, error) {
	return z.children[0].Keys()
}

// Contains reports whether every child contains key.
func (z *Zipped[V]) Contains(key string) (bool, error) {
	for i, child := range z.children {
		ok, err := child.Contains(key)
		if err != nil {
			return false, fmt.Errorf("child %d: %w", i, err)
		}

		if !ok {
			return false, nil
		}
	}

	return true, nil
}

// Get returns one value per child, in child order.
func (z *Zipped[V]) Get(key string) ([]V, error) {
	out := make([]V, len(z.children))

	for i, child := range z.children {
		v, err := child.Get(key)
		if err != nil {
			return nil, fmt.Errorf("child %d: %w", i, err)
		}

		out[i] = v
	}

	return out, nil
}

// Open opens every child, closing the already-opened ones if one fails.
func (z *Zipped[V]) Open() error {
	for i, child := range z.children {
		if err := child.Open(); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = z.children[j].Close()
			}

			return fmt.Errorf("child %d: %w", i, err)
		}
	}

	z.open = true

	return nil
}

// Close closes every child, attempting all and reporting the first error.
func (z *Zipped[V]) Close() error {
	z.open = false

	var firstErr error

	for i, child := range z.children {
		if err := child.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("child %d: %w", i, err)
		}
	}

	return firstErr
}

// IsOpen reports whether Open succeeded and Close has not been called.
func (z *Zipped[V]) IsOpen() bool { return z.open }
