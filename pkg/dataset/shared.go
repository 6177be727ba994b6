package dataset

import "fmt"

// Shared lets multiple logical views share one physically-opened dataset.
//
// The parent owns a registry of currently-open views. A view's Open
// registers it, and only the first registration opens the underlying
// dataset; a view's Close deregisters it, and only the last deregistration
// closes the underlying dataset. The parent is a small explicit state
// machine: closed, or open with a non-empty registry.
type Shared[V any] struct {
	base Dataset[V]
	open map[*SharedView[V]]struct{}
}

// Share wraps base for shared opening. Fails with ErrNilBase when base is
// absent.
func Share[V any](base Dataset[V]) (*Shared[V], error) {
	if base == nil {
		return nil, ErrNilBase
	}

	return &Shared[V]{
		base: base,
		open: make(map[*SharedView[V]]struct{}),
	}, nil
}

// View returns a new logical view over the shared dataset. The view is
// closed until its Open is called.
func (s *Shared[V]) View() *SharedView[V] {
	return &SharedView[V]{parent: s}
}

// Openers returns the number of currently-open views.
func (s *Shared[V]) Openers() int {
	return len(s.open)
}

func (s *Shared[V]) register(v *SharedView[V]) error {
	if _, ok := s.open[v]; ok {
		return fmt.Errorf("view already open: %w", ErrChildState)
	}

	if len(s.open) == 0 {
		if err := s.base.Open(); err != nil {
			return err
		}
	}

	s.open[v] = struct{}{}

	return nil
}

func (s *Shared[V]) deregister(v *SharedView[V]) error {
	if _, ok := s.open[v]; !ok {
		return fmt.Errorf("view not open: %w", ErrChildState)
	}

	delete(s.open, v)

	if len(s.open) == 0 {
		return s.base.Close()
	}

	return nil
}

// SharedView is one logical view over a [Shared] dataset. Reads forward to
// the shared base; Open and Close participate in the parent's reference
// counting instead of touching the base directly.
type SharedView[V any] struct {
	parent *Shared[V]
}

// Keys forwards to the shared base.
func (v *SharedView[V]) Keys() ([]string, error) {
	return v.parent.base.Keys()
}

// Contains forwards to the shared base.
func (v *SharedView[V]) Contains(key string) (bool, error) {
	return v.parent.base.Contains(key)
}

// Get forwards to the shared base.
func (v *SharedView[V]) Get(key string) (V, error) {
	return v.parent.base.Get(key)
}

// Open registers the view with the parent; the first registered view
// triggers the physical open. Opening an already-open view fails with
// ErrChildState.
func (v *SharedView[V]) Open() error {
	return v.parent.register(v)
}

// Close deregisters the view; the last deregistration triggers the physical
// close. Closing a view that is not open fails with ErrChildState.
func (v *SharedView[V]) Close() error {
	return v.parent.deregister(v)
}

// IsOpen reports whether this view is currently registered.
func (v *SharedView[V]) IsOpen() bool {
	_, ok := v.parent.open[v]
	return ok
}
