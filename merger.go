// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package arbor

import (
	"cmp"
	"slices"
)

// mergerFront caches a source cursor's current front, fetched via Next
// rather than Peek, so its value is available to the caller without a
// second (mutating) call. "Pre-advance" in RefillFrom's contract means
// exactly this: the underlying cursor has already stepped past the
// cached element.
type mergerFront[K cmp.Ordered] struct {
	cur   Cursor[K]
	key   K
	value any
}

// CursorMerger is a k-way sorted merge over cursors that share a key
// type (§4.4). It yields one key group at a time; within a group it
// exposes every source's value so the caller can drill into the next
// layer down.
type CursorMerger[K cmp.Ordered] struct {
	fronts   []mergerFront[K]
	consumed int // number of leading fronts exposed by the last Next/group, still owed an advance
}

// NewCursorMerger returns an empty merger.
func NewCursorMerger[K cmp.Ordered]() *CursorMerger[K] {
	return &CursorMerger[K]{}
}

// From builds a merger directly from a set of source cursors.
func From[K cmp.Ordered](cursors []Cursor[K]) *CursorMerger[K] {
	m := NewCursorMerger[K]()
	m.RefillFrom(cursors)
	return m
}

// RefillFrom replaces the merger's sources: pre-advances each cursor
// once, drops any that were already empty, and sorts the survivors by
// front key.
func (m *CursorMerger[K]) RefillFrom(cursors []Cursor[K]) {
	m.fronts = m.fronts[:0]
	m.consumed = 0
	for _, c := range cursors {
		if k, v, ok := c.Next(); ok {
			m.fronts = append(m.fronts, mergerFront[K]{cur: c, key: k, value: v})
		}
	}
	m.sortRange(len(m.fronts))
}

// Push adds a single source cursor, preserving the sorted invariant.
// Used sparingly (e.g. GetInto, which pushes one cursor per
// chain link) so a full re-sort rather than the disturbed-prefix
// optimization is acceptable here.
func (m *CursorMerger[K]) Push(c Cursor[K]) {
	if k, v, ok := c.Next(); ok {
		m.fronts = append(m.fronts, mergerFront[K]{cur: c, key: k, value: v})
		m.sortRange(len(m.fronts))
	}
}

// Peek returns the key of the foremost source, or false if the merger
// holds no sources.
func (m *CursorMerger[K]) Peek() (K, bool) {
	if len(m.fronts) == 0 {
		var zero K
		return zero, false
	}
	return m.fronts[0].key, true
}

// Next commits the previously exposed group (advancing each of its
// sources by one step) and exposes the next group: the key shared by
// the new front-most run of sources, and each of their values in the
// merger's current front order. Sources are kept sorted by front key
// only, so within a group that order need not match the order in which
// the sources were added. Returns ok=false once the merger is exhausted.
func (m *CursorMerger[K]) Next() (key K, group []any, ok bool) {
	m.advancePrefix(m.consumed)

	if len(m.fronts) == 0 {
		m.consumed = 0
		return key, nil, false
	}

	n := m.groupLen()
	group = make([]any, n)
	for i := 0; i < n; i++ {
		group[i] = m.fronts[i].value
	}

	m.consumed = n
	return m.fronts[0].key, group, true
}

// groupLen reports how many leading fronts share the current front key.
func (m *CursorMerger[K]) groupLen() int {
	n := 1
	for n < len(m.fronts) && m.fronts[n].key == m.fronts[0].key {
		n++
	}
	return n
}

// Seek advances the consume marker, then skips every source whose front
// key is behind target straight to it, dropping any that drain in the
// process.
func (m *CursorMerger[K]) Seek(target K) {
	m.advancePrefix(m.consumed)
	m.consumed = 0

	// fronts is kept sorted ascending, so the entries behind target form
	// a prefix; everything after it is already >= target.
	n := 0
	for n < len(m.fronts) && cmp.Less(m.fronts[n].key, target) {
		n++
	}

	write := 0
	for i := 0; i < n; i++ {
		m.fronts[i].cur.Seek(target)
		if k, v, ok := m.fronts[i].cur.Next(); ok {
			m.fronts[write] = mergerFront[K]{cur: m.fronts[i].cur, key: k, value: v}
			write++
		}
	}

	if removed := n - write; removed > 0 {
		copy(m.fronts[write:], m.fronts[n:])
		m.fronts = m.fronts[:len(m.fronts)-removed]
	}

	m.sortRange(write)
}

// Clear empties the merger and resets the consume marker.
func (m *CursorMerger[K]) Clear() {
	m.fronts = m.fronts[:0]
	m.consumed = 0
}

// advancePrefix re-fetches the front of each of the first n sources via
// Next, dropping any that drain, then re-sorts the disturbed range.
func (m *CursorMerger[K]) advancePrefix(n int) {
	if n <= 0 {
		return
	}
	if n > len(m.fronts) {
		n = len(m.fronts)
	}

	write := 0
	for i := 0; i < n; i++ {
		if k, v, ok := m.fronts[i].cur.Next(); ok {
			m.fronts[write] = mergerFront[K]{cur: m.fronts[i].cur, key: k, value: v}
			write++
		}
	}

	if removed := n - write; removed > 0 {
		copy(m.fronts[write:], m.fronts[n:])
		m.fronts = m.fronts[:len(m.fronts)-removed]
	}

	m.sortRange(write)
}

// sortRange re-sorts only the disturbed window: front keys only ever
// increase, so the remainder of the list stays sorted on its own. This
// finds the largest key among the first n entries and extends the sort
// window forward while later entries could still be out of order
// relative to it, touching only what genuinely moved (§4.4).
func (m *CursorMerger[K]) sortRange(n int) {
	if n <= 0 || len(m.fronts) <= 1 {
		return
	}
	if n > len(m.fronts) {
		n = len(m.fronts)
	}

	maxKey := m.fronts[0].key
	for i := 1; i < n; i++ {
		if cmp.Less(maxKey, m.fronts[i].key) {
			maxKey = m.fronts[i].key
		}
	}

	end := n
	for end < len(m.fronts) && !cmp.Less(maxKey, m.fronts[end].key) {
		end++
	}

	slices.SortStableFunc(m.fronts[:end], func(a, b mergerFront[K]) int {
		return cmp.Compare(a.key, b.key)
	})
}
