package dataset

// Delegating forwards the full dataset contract to a wrapped base.
//
// The base only needs the read capability; if it also implements [Lifecycle],
// Open and Close are forwarded, otherwise they are no-ops and the wrapper
// reports itself always open. This supports wrapping plain associative
// structures that have no lifecycle of their own.
//
// Decorators in this package embed Delegating and narrow the methods they
// need to change.
type Delegating[V any] struct {
	base Reader[V]
}

// Delegate wraps base. Fails with ErrNilBase when base is absent.
func Delegate[V any](base Reader[V]) (*Delegating[V], error) {
	if base == nil {
		return nil, ErrNilBase
	}

	return &Delegating[V]{base: base}, nil
}

// Base returns the wrapped dataset.
func (d *Delegating[V]) Base() Reader[V] {
	return d.base
}

// Keys forwards to the base.
func (d *Delegating[V]) Keys() ([]string, error) {
	return d.base.Keys()
}

// Contains forwards to the base.
func (d *Delegating[V]) Contains(key string) (bool, error) {
	return d.base.Contains(key)
}

// Get forwards to the base.
func (d *Delegating[V]) Get(key string) (V, error) {
	return d.base.Get(key)
}

// Open forwards to the base if it is lifecycle-aware.
func (d *Delegating[V]) Open() error {
	if l, ok := d.base.(Lifecycle); ok {
		return l.Open()
	}

	return nil
}

// Close forwards to the base if it is lifecycle-aware.
func (d *Delegating[V]) Close() error {
	if l, ok := d.base.(Lifecycle); ok {
		return l.Close()
	}

	return nil
}

// IsOpen forwards to the base if it is lifecycle-aware; lifecycle-agnostic
// bases are always open.
func (d *Delegating[V]) IsOpen() bool {
	if l, ok := d.base.(Lifecycle); ok {
		return l.IsOpen()
	}

	return true
}
