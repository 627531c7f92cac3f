// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package arbor

import "cmp"

// Arbor is the stack-of-tries manager (§4.6): an ordered list of tries
// in which each trie holds at least twice as many tuples as the one
// after it (tuple counts 2 then 1 may stand side by side). K is
// the top-level key type; Self is the concrete layer type every
// resident trie shares (a TrieLayer or, for 2-arity tuples, a bare
// LeafLayer).
type Arbor[K cmp.Ordered, Self Layer[Self, K]] struct {
	tries           []Self
	newEmpty        func() Self
	newWithCapacity func(a, b Self) Self
}

// NewArbor returns an empty Arbor. newEmpty must construct a fresh,
// empty Self — e.g. func() Self { return NewLeaf[K]() }, or a closure
// nesting NewTrie calls for deeper tuple arities. newWithCapacity must
// construct a fresh Self reserved for the sum of a and b's key counts
// (e.g. WithCapacityLeaf, or WithCapacityTrie closed over the same
// inner constructor newEmpty nests) — every merge uses it to reserve
// up front instead of growing from zero capacity (§4.1, §5).
func NewArbor[K cmp.Ordered, Self Layer[Self, K]](newEmpty func() Self, newWithCapacity func(a, b Self) Self) *Arbor[K, Self] {
	return &Arbor[K, Self]{newEmpty: newEmpty, newWithCapacity: newWithCapacity}
}

// Size is the sum of tuples() across all resident tries. Post-merge
// cancellations at the leaf can make this strictly greater than the
// number of distinct tuples a cursor scan actually yields.
func (a *Arbor[K, Self]) Size() int {
	n := 0
	for _, t := range a.tries {
		n += t.Tuples()
	}
	return n
}

// Len reports the number of resident tries.
func (a *Arbor[K, Self]) Len() int {
	return len(a.tries)
}

// Append pushes trie onto the tail, then cascades the geometric merge
// rule: while the two most recently appended tries are within 2x of
// each other in tuple count, merge them into one and repeat. This
// amortizes to O(log N) merge work per tuple over its lifetime.
func (a *Arbor[K, Self]) Append(t Self) {
	a.tries = append(a.tries, t)

	for len(a.tries) >= 2 {
		large := a.tries[len(a.tries)-2]
		small := a.tries[len(a.tries)-1]

		if small.Tuples() <= large.Tuples()/2 {
			break // geometric spacing holds
		}

		merged := a.newWithCapacity(large, small)
		merged.ExtendMerge(large, 0, large.KeysCount(), small, 0, small.KeysCount())

		a.tries = a.tries[:len(a.tries)-2]
		a.tries = append(a.tries, merged)
	}
}

// ExtendOrdered builds a trie from a strictly key-ordered batch of
// tuples and appends it.
func (a *Arbor[K, Self]) ExtendOrdered(tuples []Tuple) {
	a.Append(FromOrdered[Self, K](tuples, a.newEmpty()))
}

// Push inserts a single tuple. Documented as rare: it forces one
// allocation per call, where ExtendOrdered amortizes across a batch.
func (a *Arbor[K, Self]) Push(tuple Tuple) {
	a.ExtendOrdered([]Tuple{tuple})
}

// Cursor builds a CursorMerger pre-loaded with a full-range cursor over
// every resident trie.
func (a *Arbor[K, Self]) Cursor() *CursorMerger[K] {
	cursors := make([]Cursor[K], len(a.tries))
	for i, t := range a.tries {
		cursors[i] = t.FullCursor()
	}
	return From(cursors)
}
