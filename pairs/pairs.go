// Copyright 2025 NDForge Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package pairs provides an ordered, index-addressable list of key-value
// pairs. Unlike a map, a List preserves insertion order and tolerates
// duplicate keys, which makes it suitable for passing named operation
// parameters across the native engine boundary where operators may accept
// repeated or order-sensitive parameters.
//
// Example:
//
//	params := pairs.New[string, any]()
//	params.Add("low", 0.0)
//	params.Add("high", 1.0)
//	arr, err := factory.Invoke("random_uniform", nil, dest, params)
package pairs

import (
	"errors"
	"fmt"
	"iter"
)

// ErrDuplicateKey is returned by ToMap when checkDuplicate is enabled and
// a later key collides with an earlier one.
var ErrDuplicateKey = errors.New("pairs: duplicate key")

// Pair is a single key-value entry of a List.
type Pair[K comparable, V any] struct {
	Key   K
	Value V
}

// List is an ordered list of key-value pairs. Keys and values are kept in
// two parallel slices that always have the same length; index i in the key
// slice corresponds to index i in the value slice.
//
// The zero value is not usable; construct a List with New, NewWithCapacity,
// or FromMap.
type List[K comparable, V any] struct {
	keys   []K
	values []V
}

// New constructs an empty List.
func New[K comparable, V any]() *List[K, V] {
	return &List[K, V]{}
}

// NewWithCapacity constructs an empty List with the given initial capacity.
func NewWithCapacity[K comparable, V any](capacity int) *List[K, V] {
	return &List[K, V]{
		keys:   make([]K, 0, capacity),
		values: make([]V, 0, capacity),
	}
}

// FromMap constructs a List containing the entries of m. Iteration order of
// the map determines the initial insertion order.
func FromMap[K comparable, V any](m map[K]V) *List[K, V] {
	l := NewWithCapacity[K, V](len(m))
	for k, v := range m {
		l.Add(k, v)
	}
	return l
}

// Add appends a key-value pair to the list.
func (l *List[K, V]) Add(key K, value V) {
	l.keys = append(l.keys, key)
	l.values = append(l.values, value)
}

// AddPair appends a Pair to the list.
func (l *List[K, V]) AddPair(p Pair[K, V]) {
	l.Add(p.Key, p.Value)
}

// Len returns the number of pairs in the list.
func (l *List[K, V]) Len() int {
	return len(l.keys)
}

// Get returns the pair at position i.
// Panics if i is out of range.
func (l *List[K, V]) Get(i int) Pair[K, V] {
	l.checkIndex(i)
	return Pair[K, V]{Key: l.keys[i], Value: l.values[i]}
}

// KeyAt returns the key at position i.
// Panics if i is out of range.
func (l *List[K, V]) KeyAt(i int) K {
	l.checkIndex(i)
	return l.keys[i]
}

// ValueAt returns the value at position i.
// Panics if i is out of range.
func (l *List[K, V]) ValueAt(i int) V {
	l.checkIndex(i)
	return l.values[i]
}

// Keys returns a copy of all keys in insertion order.
func (l *List[K, V]) Keys() []K {
	return append([]K(nil), l.keys...)
}

// Values returns a copy of all values in insertion order.
func (l *List[K, V]) Values() []V {
	return append([]V(nil), l.values...)
}

// Remove removes the first pair whose key equals key and returns its value.
// The second result reports whether a matching pair was found; when it is
// false the list is unchanged and the returned value is the zero value.
func (l *List[K, V]) Remove(key K) (V, bool) {
	for i, k := range l.keys {
		if k == key {
			v := l.values[i]
			l.keys = append(l.keys[:i], l.keys[i+1:]...)
			l.values = append(l.values[:i], l.values[i+1:]...)
			return v, true
		}
	}
	var zero V
	return zero, false
}

// Contains reports whether the list holds at least one pair with the given key.
func (l *List[K, V]) Contains(key K) bool {
	for _, k := range l.keys {
		if k == key {
			return true
		}
	}
	return false
}

// ToMap builds a unique-key map from the list.
//
// When checkDuplicate is true, ToMap fails with ErrDuplicateKey the first
// time a later key collides with an earlier one; the colliding value is
// stored before the conflict is reported. When checkDuplicate is false,
// later entries win.
func (l *List[K, V]) ToMap(checkDuplicate bool) (map[K]V, error) {
	m := make(map[K]V, len(l.keys))
	for i, k := range l.keys {
		_, exists := m[k]
		m[k] = l.values[i]
		if exists && checkDuplicate {
			return nil, fmt.Errorf("%w: %v", ErrDuplicateKey, k)
		}
	}
	return m, nil
}

// All returns an iterator over the pairs of the list in insertion order.
// Each call produces a fresh iterator; iterating does not consume the list.
func (l *List[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for i, k := range l.keys {
			if !yield(k, l.values[i]) {
				return
			}
		}
	}
}

func (l *List[K, V]) checkIndex(i int) {
	if i < 0 || i >= len(l.keys) {
		panic(fmt.Sprintf("pairs: index %d out of range [0, %d)", i, len(l.keys)))
	}
}
