// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package arbor

import "cmp"

// trieKey is one entry of a TrieLayer's key array: a key paired with the
// offset at which its value range ends in the inner layer. Storing the
// end (rather than a start+length pair) makes the previous entry's end
// double as the current entry's start, halving the bookkeeping (§4.3).
type trieKey[K any] struct {
	key K
	end int
}

// TrieLayer is a recursive wrapper around any lower layer (§4.3). It
// stores an ordered array of (key, end_offset) entries plus a single
// inner layer holding the concatenated sub-ranges. K is this level's key
// type; Inner is the concrete layer type one level down, itself
// constrained to implement Layer over its own key type InnerK.
type TrieLayer[K cmp.Ordered, InnerK cmp.Ordered, Inner Layer[Inner, InnerK]] struct {
	keys []trieKey[K]
	vals Inner
}

// NewTrie returns an empty trie layer whose inner layer is produced by
// newInner. Go generics have no default-constructible type parameters,
// so the inner layer's own constructor is threaded through explicitly.
func NewTrie[K cmp.Ordered, InnerK cmp.Ordered, Inner Layer[Inner, InnerK]](newInner func() Inner) *TrieLayer[K, InnerK, Inner] {
	return &TrieLayer[K, InnerK, Inner]{vals: newInner()}
}

// WithCapacityTrie reserves for the sum of two trie layers' key counts.
func WithCapacityTrie[K cmp.Ordered, InnerK cmp.Ordered, Inner Layer[Inner, InnerK]](
	a, b *TrieLayer[K, InnerK, Inner], newInner func() Inner,
) *TrieLayer[K, InnerK, Inner] {
	t := NewTrie[K, InnerK, Inner](newInner)
	t.keys = make([]trieKey[K], 0, a.KeysCount()+b.KeysCount())
	return t
}

// KeysCount implements Layer.
func (t *TrieLayer[K, InnerK, Inner]) KeysCount() int { return len(t.keys) }

// Tuples implements Layer: total leaf tuples reachable beneath this
// layer equals however many the inner layer itself reports.
func (t *TrieLayer[K, InnerK, Inner]) Tuples() int { return t.vals.Tuples() }

// basisBefore returns the inner-layer offset at which entry i's value
// range begins: the previous entry's end, or 0 for the first entry.
func (t *TrieLayer[K, InnerK, Inner]) basisBefore(i int) int {
	if i == 0 {
		return 0
	}
	return t.keys[i-1].end
}

// ExtendSlice implements Layer (§4.3).
func (t *TrieLayer[K, InnerK, Inner]) ExtendSlice(other *TrieLayer[K, InnerK, Inner], lo, hi int) {
	if lo >= hi {
		panic("arbor: ExtendSlice requires lo < hi")
	}

	otherBasis := other.basisBefore(lo)
	selfBasis := t.vals.KeysCount()

	t.keys = append(t.keys, make([]trieKey[K], hi-lo)...)
	dst := t.keys[len(t.keys)-(hi-lo):]
	for i := lo; i < hi; i++ {
		src := other.keys[i]
		dst[i-lo] = trieKey[K]{key: src.key, end: (src.end - otherBasis) + selfBasis}
	}

	otherEnd := other.keys[hi-1].end
	if otherEnd > otherBasis {
		t.vals.ExtendSlice(other.vals, otherBasis, otherEnd)
	}
}

// ExtendMerge implements Layer: a two-pointer walk over the key arrays,
// recursing into the inner layer on equal keys and omitting a key
// entirely when its whole group cancels at the leaf (§4.3).
func (t *TrieLayer[K, InnerK, Inner]) ExtendMerge(
	a *TrieLayer[K, InnerK, Inner], loA, hiA int,
	b *TrieLayer[K, InnerK, Inner], loB, hiB int,
) {
	i, j := loA, loB
	for i < hiA && j < hiB {
		switch {
		case cmp.Less(a.keys[i].key, b.keys[j].key):
			n := Advance(hiA-i, func(k int) bool {
				return cmp.Less(a.keys[i+k].key, b.keys[j].key)
			})
			t.ExtendSlice(a, i, i+n)
			i += n

		case cmp.Less(b.keys[j].key, a.keys[i].key):
			n := Advance(hiB-j, func(k int) bool {
				return cmp.Less(b.keys[j+k].key, a.keys[i].key)
			})
			t.ExtendSlice(b, j, j+n)
			j += n

		default:
			vLen := t.vals.KeysCount()

			aLo, aHi := a.basisBefore(i), a.keys[i].end
			bLo, bHi := b.basisBefore(j), b.keys[j].end
			t.vals.ExtendMerge(a.vals, aLo, aHi, b.vals, bLo, bHi)

			if t.vals.KeysCount() > vLen {
				t.keys = append(t.keys, trieKey[K]{key: a.keys[i].key, end: t.vals.KeysCount()})
			}
			// else: the entire group cancelled at the leaf; omit the key.

			i++
			j++
		}
	}

	if i < hiA {
		t.ExtendSlice(a, i, hiA)
	}
	if j < hiB {
		t.ExtendSlice(b, j, hiB)
	}
}

// ExtendTuple implements Layer.
func (t *TrieLayer[K, InnerK, Inner]) ExtendTuple(tuple Tuple, isNewGroup bool) {
	key := Key[K](tuple)

	last := len(t.keys) - 1
	freshGroup := isNewGroup || last < 0 || t.keys[last].key != key
	if freshGroup {
		t.keys = append(t.keys, trieKey[K]{key: key, end: 0})
	}

	t.vals.ExtendTuple(tuple.Rest(), freshGroup)

	t.keys[len(t.keys)-1].end = t.vals.KeysCount()
}

// RangeCursor implements Layer: projects only t.keys[lo:hi] into a []K,
// rather than the whole key array, so exposing one outer group's inner
// cursor (the recursion inside value, below) stays bounded by that
// group's own size instead of this level's full key count (§4.4).
func (t *TrieLayer[K, InnerK, Inner]) RangeCursor(lo, hi int) Cursor[K] {
	keys := make([]K, hi-lo)
	for i := lo; i < hi; i++ {
		keys[i-lo] = t.keys[i].key
	}
	return &sliceCursor[K]{
		keys: keys,
		value: func(i int) any {
			idx := lo + i
			vLo, vHi := t.basisBefore(idx), t.keys[idx].end
			return t.vals.RangeCursor(vLo, vHi)
		},
	}
}

// FullCursor implements Layer.
func (t *TrieLayer[K, InnerK, Inner]) FullCursor() Cursor[K] {
	return t.RangeCursor(0, len(t.keys))
}
