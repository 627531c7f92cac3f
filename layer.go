// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package arbor

import "cmp"

// Layer is the storage contract shared by every level of the trie tower
// (§4.1): a leaf layer of (key, weight) pairs, or a recursive layer that
// indirects through (key, end_offset) into an inner Layer. Self is the
// concrete implementing type itself (a curiously-recurring type
// parameter) so that ExtendSlice/ExtendMerge can take same-typed peers
// without boxing the hot path in an interface{}.
//
// Every operation preserves the tower-wide invariant: the key sequence
// projected at every level is strictly increasing, and at the leaf,
// identical keys never coexist — their weights are summed, and the pair
// is omitted entirely when the sum is zero.
type Layer[Self any, K cmp.Ordered] interface {
	// KeysCount reports the number of distinct keys resident at this level.
	KeysCount() int

	// Tuples reports the total number of leaf tuples reachable beneath
	// this layer. Cancelled pairs are removed from the leaf, so this
	// equals the number of leaf tuples a full cursor scan of this layer
	// yields.
	Tuples() int

	// ExtendSlice appends the sub-range [lo, hi) of other to self. The
	// caller must ensure lo < hi and that the appended keys are strictly
	// greater than self's current last key.
	ExtendSlice(other Self, lo, hi int)

	// ExtendMerge appends the sorted, weight-accumulated merge of
	// a[loA:hiA) and b[loB:hiB) to self.
	ExtendMerge(a Self, loA, hiA int, b Self, loB, hiB int)

	// ExtendTuple is used only during construction from an ordered
	// stream (FromOrdered). isNewGroup is true when the enclosing layer
	// has just started a new key group, which restarts equal-key
	// deduplication at this level too.
	ExtendTuple(tuple Tuple, isNewGroup bool)

	// RangeCursor returns a cursor over the sub-range [lo, hi) of this
	// layer's keys, without materializing the layer's full key set
	// first — the primitive that keeps drilling from one trie level
	// into the next at O(window) rather than O(this level's size).
	RangeCursor(lo, hi int) Cursor[K]

	// FullCursor returns a cursor over this layer's entire key range.
	FullCursor() Cursor[K]
}

// FromOrdered builds a fresh layer from a strictly key-ordered slice of
// tuples. empty must be a zero-value instance of Self (e.g. NewLeaf[K]()
// or NewTrie[...](...)); FromOrdered populates it in place and returns
// it, mirroring §4.1's "convenience: repeatedly extend_tuple(_, false)".
func FromOrdered[Self Layer[Self, K], K cmp.Ordered](tuples []Tuple, empty Self) Self {
	for _, t := range tuples {
		empty.ExtendTuple(t, false)
	}
	return empty
}
