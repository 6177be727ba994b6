package dataset

import (
	"maps"
	"slices"
)

// KeySet is a possibly-unbounded set of keys.
//
// A bounded KeySet enumerates its members. An unbounded one answers only
// membership questions: the zero value is the universe (contains every key),
// and [KeySet.Complement] of a bounded set contains every key except the
// listed ones. Unbounded sets cannot be enumerated; Len and Slice fail with
// ErrUnknownKeys.
//
// KeySet values are immutable; the set operations return new sets.
type KeySet struct {
	keys map[string]struct{}

	// bounded marks keys as enumerating the members. When false the set is
	// the complement of keys (the universe, if keys is empty).
	bounded bool
}

// NewKeySet returns the bounded set of the given keys.
func NewKeySet(keys ...string) KeySet {
	m := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		m[k] = struct{}{}
	}

	return KeySet{keys: m, bounded: true}
}

// AllKeys returns the unbounded set containing every key.
func AllKeys() KeySet {
	return KeySet{}
}

// Known reports whether the set is bounded (enumerable).
func (s KeySet) Known() bool {
	return s.bounded
}

// Contains reports membership. Defined for bounded and unbounded sets alike.
func (s KeySet) Contains(key string) bool {
	_, in := s.keys[key]
	if s.bounded {
		return in
	}

	return !in
}

// Len returns the number of members, or ErrUnknownKeys for unbounded sets.
func (s KeySet) Len() (int, error) {
	if !s.bounded {
		return 0, ErrUnknownKeys
	}

	return len(s.keys), nil
}

// Slice returns the members in sorted order, or ErrUnknownKeys for unbounded
// sets.
func (s KeySet) Slice() ([]string, error) {
	if !s.bounded {
		return nil, ErrUnknownKeys
	}

	return slices.Sorted(maps.Keys(s.keys)), nil
}

// Complement returns the set containing exactly the keys s does not.
func (s KeySet) Complement() KeySet {
	return KeySet{keys: s.cloneKeys(), bounded: !s.bounded}
}

// Intersect returns the keys present in both s and other. The result is
// bounded whenever either operand is.
func (s KeySet) Intersect(other KeySet) KeySet {
	if !s.bounded && other.bounded {
		return other.Intersect(s)
	}

	switch {
	case s.bounded && other.bounded:
		m := make(map[string]struct{})
		for k := range s.keys {
			if _, in := other.keys[k]; in {
				m[k] = struct{}{}
			}
		}

		return KeySet{keys: m, bounded: true}

	case s.bounded: // bounded ∩ complement: drop the excluded keys
		m := make(map[string]struct{})
		for k := range s.keys {
			if _, excluded := other.keys[k]; !excluded {
				m[k] = struct{}{}
			}
		}

		return KeySet{keys: m, bounded: true}

	default: // complement ∩ complement = complement of the union
		m := s.cloneKeys()
		maps.Copy(m, other.keys)

		return KeySet{keys: m, bounded: false}
	}
}

// Union returns the keys present in either set. The result is unbounded
// whenever either operand is.
func (s KeySet) Union(other KeySet) KeySet {
	if !s.bounded && other.bounded {
		return other.Union(s)
	}

	switch {
	case s.bounded && other.bounded:
		m := s.cloneKeys()
		maps.Copy(m, other.keys)

		return KeySet{keys: m, bounded: true}

	case s.bounded: // bounded ∪ complement: excluded keys not in s stay excluded
		m := make(map[string]struct{})
		for k := range other.keys {
			if _, in := s.keys[k]; !in {
				m[k] = struct{}{}
			}
		}

		return KeySet{keys: m, bounded: false}

	default: // complement ∪ complement = complement of the intersection
		m := make(map[string]struct{})
		for k := range s.keys {
			if _, excluded := other.keys[k]; excluded {
				m[k] = struct{}{}
			}
		}

		return KeySet{keys: m, bounded: false}
	}
}

// Difference returns the keys in s but not in other.
func (s KeySet) Difference(other KeySet) KeySet {
	return s.Intersect(other.Complement())
}

func (s KeySet) cloneKeys() map[string]struct{} {
	m := make(map[string]struct{}, len(s.keys))
	maps.Copy(m, s.keys)

	return m
}
