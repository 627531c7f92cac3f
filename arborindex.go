// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package arbor

import "cmp"

// indexLoc is one chain link: the resident trie a top-level key can be
// found in, its offset into that trie's key array, and a link to the
// next-older chain entry for the same key (§4.7).
type indexLoc struct {
	trieIndex int
	keyOffset int
	next      int // index into ArborIndex.spill; -1 when this is the chain's tail
}

// ArborIndex augments an Arbor with a hash index from top-level key to
// every resident trie that currently holds it, so GetInto can locate a
// key's contributions in O(1) expected time instead of scanning every
// trie's top level. A key present in n resident tries has exactly n
// chained locations: one head, kept in the hash map, and n-1 further
// links threaded through a shared spill slab.
//
// The spill slab is a free-list-backed slice rather than the strictly
// LIFO, tail-truncated vector the data model sketches: reclaiming a
// trie's entries wherever they sit (via tombstone reuse) is simpler to
// get right without a compiler to check it, at the cost of not
// compacting the slab's backing array on eviction. No documented
// testable property depends on that compaction, only on per-key chain
// length, so the trade is confined to memory reuse, not behavior.
type ArborIndex[K cmp.Ordered, Self Layer[Self, K]] struct {
	tries           []Self
	newEmpty        func() Self
	newWithCapacity func(a, b Self) Self

	head  map[K]indexLoc
	spill []indexLoc
	free  []int
}

// NewArborIndex returns an empty, indexed Arbor. See NewArbor for what
// newEmpty and newWithCapacity must construct.
func NewArborIndex[K cmp.Ordered, Self Layer[Self, K]](newEmpty func() Self, newWithCapacity func(a, b Self) Self) *ArborIndex[K, Self] {
	return &ArborIndex[K, Self]{newEmpty: newEmpty, newWithCapacity: newWithCapacity, head: make(map[K]indexLoc)}
}

// Size is the sum of tuples() across all resident tries.
func (ix *ArborIndex[K, Self]) Size() int {
	n := 0
	for _, t := range ix.tries {
		n += t.Tuples()
	}
	return n
}

// Len reports the number of resident tries.
func (ix *ArborIndex[K, Self]) Len() int {
	return len(ix.tries)
}

// Append pushes trie onto the tail and cascades the same geometric merge
// rule as Arbor.Append, keeping the hash index consistent across every
// merge: a trie's keys are indexed the moment it becomes resident, and
// de-indexed the moment it is consumed by a merge.
func (ix *ArborIndex[K, Self]) Append(t Self) {
	ix.pushIndexed(t)

	for len(ix.tries) >= 2 {
		large := ix.tries[len(ix.tries)-2]
		small := ix.tries[len(ix.tries)-1]

		if small.Tuples() <= large.Tuples()/2 {
			break
		}

		ix.deindexTail() // small
		ix.deindexTail() // large

		merged := ix.newWithCapacity(large, small)
		merged.ExtendMerge(large, 0, large.KeysCount(), small, 0, small.KeysCount())

		ix.pushIndexed(merged)
	}
}

// ExtendOrdered builds a trie from a strictly key-ordered batch of
// tuples and appends it.
func (ix *ArborIndex[K, Self]) ExtendOrdered(tuples []Tuple) {
	ix.Append(FromOrdered[Self, K](tuples, ix.newEmpty()))
}

// Push inserts a single tuple.
func (ix *ArborIndex[K, Self]) Push(tuple Tuple) {
	ix.ExtendOrdered([]Tuple{tuple})
}

// pushIndexed appends t as the new tail trie and records a chain entry
// for each of its top-level keys, in key order, so keyOffset matches the
// position FullCursor would yield it at.
func (ix *ArborIndex[K, Self]) pushIndexed(t Self) {
	trieIndex := len(ix.tries)
	ix.tries = append(ix.tries, t)

	cur := t.FullCursor()
	offset := 0
	for {
		k, _, ok := cur.Next()
		if !ok {
			break
		}
		ix.insertLoc(k, trieIndex, offset)
		offset++
	}
}

// deindexTail removes and de-indexes the current last resident trie.
func (ix *ArborIndex[K, Self]) deindexTail() {
	trieIndex := len(ix.tries) - 1
	t := ix.tries[trieIndex]

	cur := t.FullCursor()
	for {
		k, _, ok := cur.Next()
		if !ok {
			break
		}
		ix.removeLoc(k, trieIndex)
	}

	ix.tries = ix.tries[:trieIndex]
}

// insertLoc records a new head location for k, pushing whatever head
// already existed one link deeper into the chain.
func (ix *ArborIndex[K, Self]) insertLoc(k K, trieIndex, keyOffset int) {
	next := -1
	if old, existed := ix.head[k]; existed {
		next = ix.allocSpill(old)
	}
	ix.head[k] = indexLoc{trieIndex: trieIndex, keyOffset: keyOffset, next: next}
}

// removeLoc splices the chain link belonging to trieIndex out of k's
// chain. The link is always present: every resident trie's keys were
// indexed on the way in.
func (ix *ArborIndex[K, Self]) removeLoc(k K, trieIndex int) {
	head, ok := ix.head[k]
	if !ok {
		return
	}

	if head.trieIndex == trieIndex {
		if head.next == -1 {
			delete(ix.head, k)
		} else {
			ix.head[k] = ix.spill[head.next]
			ix.freeSpill(head.next)
		}
		return
	}

	prevSlot := -1
	slot := head.next
	for slot != -1 {
		entry := ix.spill[slot]
		if entry.trieIndex == trieIndex {
			if prevSlot == -1 {
				h := ix.head[k]
				h.next = entry.next
				ix.head[k] = h
			} else {
				ix.spill[prevSlot].next = entry.next
			}
			ix.freeSpill(slot)
			return
		}
		prevSlot, slot = slot, entry.next
	}
}

func (ix *ArborIndex[K, Self]) allocSpill(loc indexLoc) int {
	if n := len(ix.free); n > 0 {
		slot := ix.free[n-1]
		ix.free = ix.free[:n-1]
		ix.spill[slot] = loc
		return slot
	}
	ix.spill = append(ix.spill, loc)
	return len(ix.spill) - 1
}

func (ix *ArborIndex[K, Self]) freeSpill(slot int) {
	ix.free = append(ix.free, slot)
}

// chainLen reports how many tries currently carry k, for tests that
// check the indexing invariant directly.
func (ix *ArborIndex[K, Self]) chainLen(k K) int {
	head, ok := ix.head[k]
	if !ok {
		return 0
	}
	n := 1
	for slot := head.next; slot != -1; slot = ix.spill[slot].next {
		n++
	}
	return n
}

// GetInto looks up key and pushes a cursor over its value range, from
// every trie that currently holds it, onto merger — clearing merger
// first. Entries come off the chain newest trie first, so cursors are
// pushed in descending trie-index order, and Push's stable sort keeps
// that order among equal fronts: the first group lists its values in
// descending trie index. Later groups follow the merger's own re-sorts
// (see CursorMerger.Next), which order sources by front key only.
//
// GetInto cannot be a method on ArborIndex: Go does not allow a method to
// introduce type parameters beyond its receiver's, and InnerK — the key
// type one level down from K — is exactly such a parameter.
func GetInto[K cmp.Ordered, InnerK cmp.Ordered, Self Layer[Self, K]](ix *ArborIndex[K, Self], key K, merger *CursorMerger[InnerK]) {
	merger.Clear()

	loc, ok := ix.head[key]
	if !ok {
		return
	}

	for {
		merger.Push(ix.innerCursorAt(loc.trieIndex, loc.keyOffset).(Cursor[InnerK]))
		if loc.next == -1 {
			return
		}
		loc = ix.spill[loc.next]
	}
}

// innerCursorAt reconstructs the cursor over the value range of the key
// at position keyOffset in tries[trieIndex], through a one-key
// RangeCursor at that offset: resident tries never mutate after
// construction, so offsets recorded at index time stay valid for as
// long as the trie remains resident.
func (ix *ArborIndex[K, Self]) innerCursorAt(trieIndex, keyOffset int) any {
	cur := ix.tries[trieIndex].RangeCursor(keyOffset, keyOffset+1)
	_, v, _ := cur.Next()
	return v
}
