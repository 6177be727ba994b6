package dataset

import "errors"

// mapped applies a pure function to every value read from the base. The
// key-domain, containment, and size are the base's; only Get differs.
type mapped[V, W any] struct {
	base Dataset[V]
	fn   func(V) (W, error)
}

// Map returns a view of base with fn applied to every value.
//
// Map commutes with Subset: narrowing the mapped view and mapping the
// narrowed base produce the same dataset.
func Map[V, W any](base Dataset[V], fn func(V) (W, error)) Dataset[W] {
	return &mapped[V, W]{base: base, fn: fn}
}

func (d *mapped[V, W]) Keys() ([]string, error) {
	return d.base.Keys()
}

func (d *mapped[V, W]) Contains(key string) (bool, error) {
	return d.base.Contains(key)
}

func (d *mapped[V, W]) Get(key string) (W, error) {
	v, err := d.base.Get(key)
	if err != nil {
		var zero W
		return zero, err
	}

	return d.fn(v)
}

func (d *mapped[V, W]) Open() error { return d.base.Open() }

func (d *mapped[V, W]) Close() error { return d.base.Close() }

func (d *mapped[V, W]) IsOpen() bool { return d.base.IsOpen() }

// KeyMapped reads base through a key-translation function.
type KeyMapped[V any] struct {
	base Dataset[V]
	fn   func(string) string

	// keys is the view's own key-domain, supplied by the caller; the
	// translation function alone cannot recover it.
	keys KeySet

	validate bool
}

// KeyMapOptions configure [MapKeys].
type KeyMapOptions struct {
	// Keys declares the view's own key-domain. The zero value (the
	// unbounded set) leaves the domain unknown: Keys fails with
	// ErrUnknownKeys and Contains consults the base through the
	// translation instead.
	Keys KeySet

	// ValidateOnOpen checks, after opening the base, that every declared
	// key translates to a key the base contains. Ignored when Keys is
	// unbounded.
	ValidateOnOpen bool
}

// MapKeys returns a view of base addressed through fn: Get(k) reads
// base.Get(fn(k)). A base-side miss is reported with both the original and
// the translated key.
func MapKeys[V any](base Dataset[V], fn func(string) string, opts KeyMapOptions) *KeyMapped[V] {
	return &KeyMapped[V]{
		base:     base,
		fn:       fn,
		keys:     opts.Keys,
		validate: opts.ValidateOnOpen,
	}
}

// Keys returns the declared key-domain, or ErrUnknownKeys if none was
// supplied.
func (d *KeyMapped[V]) Keys() ([]string, error) {
	return d.keys.Slice()
}

// Contains checks the declared key-domain when one was supplied, and
// otherwise asks the base about the translated key.
func (d *KeyMapped[V]) Contains(key string) (bool, error) {
	if d.keys.Known() {
		return d.keys.Contains(key), nil
	}

	return d.base.Contains(d.fn(key))
}

// Get translates key and reads the base. A not-found from the base is
// re-raised carrying both keys.
func (d *KeyMapped[V]) Get(key string) (V, error) {
	mapped := d.fn(key)

	v, err := d.base.Get(mapped)
	if err != nil {
		var zero V
		return zero, &KeyError{Key: key, MappedKey: mapped, Err: cause(err)}
	}

	return v, nil
}

// Open opens the base, then validates the declared keys if requested.
func (d *KeyMapped[V]) Open() error {
	if err := d.base.Open(); err != nil {
		return err
	}

	if !d.validate || !d.keys.Known() {
		return nil
	}

	keys, _ := d.keys.Slice()
	for _, k := range keys {
		mapped := d.fn(k)

		ok, err := d.base.Contains(mapped)
		if err == nil && !ok {
			err = &KeyError{Key: k, MappedKey: mapped, Err: ErrKeyNotFound}
		}

		// A failed validation must not leak an open base.
		if err != nil {
			_ = d.base.Close()

			return err
		}
	}

	return nil
}

// Close closes the base.
func (d *KeyMapped[V]) Close() error { return d.base.Close() }

// IsOpen reports the base's state.
func (d *KeyMapped[V]) IsOpen() bool { return d.base.IsOpen() }

// SaveItem translates key and writes through to the base, which must be
// writable.
func (d *KeyMapped[V]) SaveItem(key string, value V) error {
	w, ok := d.base.(Writer[V])
	if !ok {
		return ErrNotWritable
	}

	return w.SaveItem(d.fn(key), value)
}

// DeleteItem translates key and deletes through to the base, which must be
// writable.
func (d *KeyMapped[V]) DeleteItem(key string) error {
	w, ok := d.base.(Writer[V])
	if !ok {
		return ErrNotWritable
	}

	return w.DeleteItem(d.fn(key))
}

// cause strips one layer of KeyError so a remap does not stack key contexts
// on top of the base's own.
func cause(err error) error {
	var kerr *KeyError
	if errors.As(err, &kerr) {
		return kerr.Err
	}

	return err
}
