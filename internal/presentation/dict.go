// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package presentation

import "iter"

// Dict is a string-keyed map that remembers insertion order. Every map that
// ends up in a diagnostic or a plan dump is a Dict, so output follows source
// declaration order.
type Dict[V any] struct {
	keys   []string
	values map[string]V
}

// NewDict returns an empty dict.
func NewDict[V any]() *Dict[V] {
	return &Dict[V]{values: make(map[string]V)}
}

// Set adds or replaces an entry. Replacing keeps the original position.
func (d *Dict[V]) Set(key string, v V) {
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = v
}

// SetDefault adds an entry only if the key is absent.
func (d *Dict[V]) SetDefault(key string, v V) {
	if _, ok := d.values[key]; !ok {
		d.Set(key, v)
	}
}

// Get returns the value for key.
func (d *Dict[V]) Get(key string) (V, bool) {
	if d == nil {
		var zero V
		return zero, false
	}
	v, ok := d.values[key]
	return v, ok
}

// Value returns the value for key or the zero value.
func (d *Dict[V]) Value(key string) V {
	v, _ := d.Get(key)
	return v
}

// Has reports whether key is present.
func (d *Dict[V]) Has(key string) bool {
	_, ok := d.Get(key)
	return ok
}

// Len returns the number of entries.
func (d *Dict[V]) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

// Keys returns the keys in insertion order.
func (d *Dict[V]) Keys() []string {
	if d == nil {
		return nil
	}
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

// Values returns the values in insertion order.
func (d *Dict[V]) Values() []V {
	if d == nil {
		return nil
	}
	out := make([]V, len(d.keys))
	for i, k := range d.keys {
		out[i] = d.values[k]
	}
	return out
}

// All iterates over the entries in insertion order.
func (d *Dict[V]) All() iter.Seq2[string, V] {
	return func(yield func(string, V) bool) {
		if d == nil {
			return
		}
		for _, k := range d.keys {
			if !yield(k, d.values[k]) {
				return
			}
		}
	}
}

// Clone returns a shallow copy.
func (d *Dict[V]) Clone() *Dict[V] {
	out := NewDict[V]()
	for k, v := range d.All() {
		out.Set(k, v)
	}
	return out
}
