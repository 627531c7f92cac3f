// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package arbor

import "cmp"

// LeafLayer is the bottom of the trie tower: a sorted array of (key,
// weight) pairs (§4.2). It carries no inner layer.
type LeafLayer[K cmp.Ordered] struct {
	keys    []K
	weights []Weight
}

// NewLeaf returns an empty leaf layer.
func NewLeaf[K cmp.Ordered]() *LeafLayer[K] {
	return &LeafLayer[K]{}
}

// WithCapacityLeaf reserves for the sum of two leaf layers, mirroring
// the §4.1 with_capacity(a, b) convenience used by every merge.
func WithCapacityLeaf[K cmp.Ordered](a, b *LeafLayer[K]) *LeafLayer[K] {
	l := &LeafLayer[K]{}
	l.reserve(a.KeysCount() + b.KeysCount())
	return l
}

func (l *LeafLayer[K]) reserve(n int) {
	if cap(l.keys)-len(l.keys) >= n {
		return
	}
	keys := make([]K, len(l.keys), len(l.keys)+n)
	copy(keys, l.keys)
	l.keys = keys

	weights := make([]Weight, len(l.weights), len(l.weights)+n)
	copy(weights, l.weights)
	l.weights = weights
}

// KeysCount implements Layer.
func (l *LeafLayer[K]) KeysCount() int { return len(l.keys) }

// Tuples implements Layer; a leaf's tuple count equals its key count.
func (l *LeafLayer[K]) Tuples() int { return len(l.keys) }

// ExtendSlice implements Layer.
func (l *LeafLayer[K]) ExtendSlice(other *LeafLayer[K], lo, hi int) {
	if lo >= hi {
		panic("arbor: ExtendSlice requires lo < hi")
	}
	l.keys = append(l.keys, other.keys[lo:hi]...)
	l.weights = append(l.weights, other.weights[lo:hi]...)
}

// ExtendMerge implements Layer: the classical two-pointer merge walk
// with zero-weight elimination (§4.2).
func (l *LeafLayer[K]) ExtendMerge(a *LeafLayer[K], loA, hiA int, b *LeafLayer[K], loB, hiB int) {
	i, j := loA, loB
	for i < hiA && j < hiB {
		switch {
		case cmp.Less(a.keys[i], b.keys[j]):
			// Copy the maximal run of a's keys that stays below b's
			// current key; O(log r) via the shared exponential-gap scan.
			n := Advance(hiA-i, func(k int) bool {
				return cmp.Less(a.keys[i+k], b.keys[j])
			})
			l.ExtendSlice(a, i, i+n)
			i += n

		case cmp.Less(b.keys[j], a.keys[i]):
			n := Advance(hiB-j, func(k int) bool {
				return cmp.Less(b.keys[j+k], a.keys[i])
			})
			l.ExtendSlice(b, j, j+n)
			j += n

		default:
			sum := a.weights[i] + b.weights[j]
			if sum != 0 {
				l.keys = append(l.keys, a.keys[i])
				l.weights = append(l.weights, sum)
			}
			i++
			j++
		}
	}

	if i < hiA {
		l.ExtendSlice(a, i, hiA)
	}
	if j < hiB {
		l.ExtendSlice(b, j, hiB)
	}
}

// ExtendTuple implements Layer. It is used only during construction
// from an ordered stream (FromOrdered): isNewGroup forces a fresh entry
// even when the key coincides with the previous one, because the two
// belong to different groups one level up.
func (l *LeafLayer[K]) ExtendTuple(tuple Tuple, isNewGroup bool) {
	key := Key[K](tuple)
	weight := LeafWeight(tuple)

	last := len(l.keys) - 1
	freshGroup := isNewGroup || last < 0 || l.keys[last] != key
	if freshGroup {
		// A fresh entry's weight is trivially its own sum: omit it if
		// that sum is zero, same rule extend_merge applies to existing
		// entries (§4.1: "weights are summed; when the sum is zero the
		// pair is omitted").
		if weight != 0 {
			l.keys = append(l.keys, key)
			l.weights = append(l.weights, weight)
		}
		return
	}

	l.weights[last] += weight
	if l.weights[last] == 0 {
		l.keys = l.keys[:last]
		l.weights = l.weights[:last]
	}
}

// RangeCursor implements Layer: leaf keys and weights are already plain
// slices, so the [lo, hi) window is a direct sub-slice with no copy.
func (l *LeafLayer[K]) RangeCursor(lo, hi int) Cursor[K] {
	return &sliceCursor[K]{
		keys: l.keys[lo:hi],
		value: func(i int) any {
			return l.weights[lo+i]
		},
	}
}

// FullCursor implements Layer.
func (l *LeafLayer[K]) FullCursor() Cursor[K] {
	return l.RangeCursor(0, len(l.keys))
}
