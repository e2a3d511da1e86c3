// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package har

import (
	"fmt"
	"strings"
)

// Set is a named, ordered axis: a set name and the ordered element labels
// that define one dimension of a header array.
type Set struct {
	Name   string
	Labels []string
}

// Size returns the element count of the set, i.e. the corresponding
// Dimensions entry.
func (s Set) Size() int { return len(s.Labels) }

// IndexOf returns the zero-based position of label within the set, using
// ASCII case-insensitive comparison. Non-ASCII bytes compare exactly.
func (s Set) IndexOf(label string) (int, bool) {
	for i, l := range s.Labels {
		if asciiEqualFold(l, label) {
			return i, true
		}
	}
	return -1, false
}

// asciiEqualFold compares two strings for equality, ASCII case-insensitively.
// Bytes outside the ASCII letter range compare exactly, matching the
// fixed-width ASCII label convention labels are written under.
func asciiEqualFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// asciiUpper upper-cases ASCII letters only, leaving other bytes untouched.
func asciiUpper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'a' <= c && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}

// KeySequence is an ordered composite key, one label per axis of a header
// array. Two keys are equal iff their lengths and labels are pairwise equal
// under ASCII case-insensitive comparison.
type KeySequence []string

// Equal reports whether k and other identify the same entry.
func (k KeySequence) Equal(other KeySequence) bool {
	if len(k) != len(other) {
		return false
	}
	for i := range k {
		if !asciiEqualFold(k[i], other[i]) {
			return false
		}
	}
	return true
}

// HasPrefix reports whether k begins with prefix, ASCII case-insensitively.
func (k KeySequence) HasPrefix(prefix []string) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i, p := range prefix {
		if !asciiEqualFold(k[i], p) {
			return false
		}
	}
	return true
}

// foldKey produces a hashable, case-folded representation of a key for use
// as a map key. "\x00" cannot appear in a 12-character space-padded label,
// so it safely separates components.
func foldKey(k []string) string {
	var b strings.Builder
	for i, l := range k {
		if i > 0 {
			b.WriteByte(0)
		}
		b.WriteString(asciiUpper(l))
	}
	return b.String()
}

// IndexedDict is the insertion-ordered, possibly-sparse mapping from a
// KeySequence to a value of type T, plus the sets that define its logical
// domain. Put and SetSparse modify the dictionary in place; GetByPrefix
// returns a new dictionary and leaves the receiver unchanged.
type IndexedDict[T any] struct {
	sets   []Set
	order  []KeySequence
	values []T
	pos    map[string]int
	sparse bool // true if this dict was read from (or should be written as) sparse storage
	zero   T
}

// NewIndexedDict creates an empty dictionary over the given sets.
func NewIndexedDict[T any](sets []Set) *IndexedDict[T] {
	return &IndexedDict[T]{
		sets: sets,
		pos:  make(map[string]int),
	}
}

// Sets returns the axes the dictionary is defined over.
func (d *IndexedDict[T]) Sets() []Set { return d.sets }

// Sparse reports whether the dictionary is marked sparse: the reader marks
// dictionaries decoded from SPSE storage, and SetSparse sets the mark
// directly. It is not derived from the entry count.
func (d *IndexedDict[T]) Sparse() bool { return d.sparse }

// SetSparse marks whether the dictionary should be treated/written as
// sparse. The HAR writer uses this as a hint; see §4.D's density threshold.
func (d *IndexedDict[T]) SetSparse(v bool) { d.sparse = v }

// Put inserts or overwrites the value at key, preserving the original
// insertion position on overwrite.
func (d *IndexedDict[T]) Put(key KeySequence, val T) {
	fk := foldKey(key)
	if i, ok := d.pos[fk]; ok {
		d.values[i] = val
		return
	}
	d.pos[fk] = len(d.order)
	d.order = append(d.order, append(KeySequence(nil), key...))
	d.values = append(d.values, val)
}

// Count returns the number of materialised entries.
func (d *IndexedDict[T]) Count() int { return len(d.order) }

// Total returns the logical cardinality: the product of the set sizes, or
// Count if that product is smaller (e.g. for a dict with no sets at all).
func (d *IndexedDict[T]) Total() int {
	total := 1
	for _, s := range d.sets {
		total *= s.Size()
	}
	if total < d.Count() {
		return d.Count()
	}
	return total
}

// Get performs an exact lookup.
func (d *IndexedDict[T]) Get(key KeySequence) (T, bool) {
	if i, ok := d.pos[foldKey(key)]; ok {
		return d.values[i], true
	}
	return d.zero, false
}

// GetByPrefix returns the sub-dictionary of entries whose key begins with
// prefix. If prefix has full rank and names a complete key, the result
// contains exactly that entry (materialised or not, in which case it holds
// the zero value). If prefix does not name a valid combination of set
// members, KeyNotFound is returned.
func (d *IndexedDict[T]) GetByPrefix(prefix []string) (*IndexedDict[T], error) {
	if len(prefix) > len(d.sets) {
		return nil, newErr(KeyNotFound, "", -1, -1, ErrKeyNotFound)
	}
	for i, p := range prefix {
		if _, ok := d.sets[i].IndexOf(p); !ok {
			return nil, newErr(KeyNotFound, "", -1, -1, ErrKeyNotFound)
		}
	}

	remaining := d.sets[len(prefix):]
	out := NewIndexedDict[T](remaining)
	out.sparse = d.sparse

	if len(prefix) == len(d.sets) {
		val, ok := d.Get(KeySequence(prefix))
		if !ok {
			val = d.zero
		}
		out.Put(nil, val)
		return out, nil
	}

	for i, key := range d.order {
		if key.HasPrefix(prefix) {
			out.Put(key[len(prefix):], d.values[i])
		}
	}
	return out, nil
}

// Enumerate walks every element of the Cartesian product of the sets, in
// row-major order, calling fn with the zero value for positions that have
// no materialised entry. Iteration stops early if fn returns false.
func (d *IndexedDict[T]) Enumerate(fn func(key KeySequence, val T) bool) {
	if len(d.sets) == 0 {
		if len(d.order) > 0 {
			fn(d.order[0], d.values[0])
		} else {
			fn(nil, d.zero)
		}
		return
	}
	for _, s := range d.sets {
		if s.Size() == 0 {
			return
		}
	}

	idx := make([]int, len(d.sets))
	key := make([]string, len(d.sets))
	for {
		for i, s := range d.sets {
			key[i] = s.Labels[idx[i]]
		}
		val, ok := d.Get(KeySequence(key))
		if !ok {
			val = d.zero
		}
		if !fn(append(KeySequence(nil), key...), val) {
			return
		}

		// Odometer increment, last axis varies fastest (row-major).
		pos := len(idx) - 1
		for pos >= 0 {
			idx[pos]++
			if idx[pos] < d.sets[pos].Size() {
				break
			}
			idx[pos] = 0
			pos--
		}
		if pos < 0 {
			return
		}
	}
}

// Entries returns the materialised (key, value) pairs in insertion order.
func (d *IndexedDict[T]) Entries() []KeyValue[T] {
	out := make([]KeyValue[T], len(d.order))
	for i := range d.order {
		out[i] = KeyValue[T]{Key: d.order[i], Value: d.values[i]}
	}
	return out
}

// KeyValue is one materialised entry of an IndexedDict.
type KeyValue[T any] struct {
	Key   KeySequence
	Value T
}

// syntheticSet returns a positionally-labelled axis ("1".."n"), used for
// RL headers, which carry no named sets of their own, so the same
// indexed-entry machinery still applies uniformly (§3 "this may be empty
// or synthetic").
func syntheticSet(n int) Set {
	labels := make([]string, n)
	for i := range labels {
		labels[i] = fmt.Sprintf("%d", i+1)
	}
	return Set{Labels: labels}
}

// Dense2D is a row-major, unlabelled two-dimensional array, used for the
// 2R (reals) and 2I (integers) header types.
type Dense2D[T any] struct {
	Rows, Cols int
	Data       []T // length Rows*Cols, row-major
}

// NewDense2D allocates a zero-filled Rows x Cols array.
func NewDense2D[T any](rows, cols int) *Dense2D[T] {
	return &Dense2D[T]{Rows: rows, Cols: cols, Data: make([]T, rows*cols)}
}

// At returns the element at (row, col).
func (m *Dense2D[T]) At(row, col int) T {
	return m.Data[row*m.Cols+col]
}

// Set assigns the element at (row, col).
func (m *Dense2D[T]) Set(row, col int, v T) {
	m.Data[row*m.Cols+col] = v
}
