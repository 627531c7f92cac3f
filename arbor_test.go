// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package arbor

import (
	"math/rand"
	"testing"
)

func newLeafArbor() *Arbor[int64, *LeafLayer[int64]] {
	return NewArbor[int64, *LeafLayer[int64]](
		func() *LeafLayer[int64] { return NewLeaf[int64]() },
		WithCapacityLeaf[int64],
	)
}

func scanLeafArbor(a *Arbor[int64, *LeafLayer[int64]]) [][2]int64 {
	var out [][2]int64
	m := a.Cursor()
	for {
		k, group, ok := m.Next()
		if !ok {
			break
		}
		for _, v := range group {
			out = append(out, [2]int64{k, int64(v.(Weight))})
		}
	}
	return out
}

// S1: basic ordered insert.
func TestArborS1BasicOrderedInsert(t *testing.T) {
	t.Parallel()

	a := newLeafArbor()
	a.ExtendOrdered(leafTuples([][2]int64{{1, 1}, {2, 1}, {3, 1}}))

	got := scanLeafArbor(a)
	want := [][2]int64{{1, 1}, {2, 1}, {3, 1}}
	if !equalPairs(got, want) {
		t.Fatalf("scan = %v, want %v", got, want)
	}
	if a.Size() != 3 {
		t.Fatalf("Size() = %d, want 3", a.Size())
	}
}

// S2: two equal-sized batches merge into a single trie.
func TestArborS2TwoBatchesMerge(t *testing.T) {
	t.Parallel()

	a := newLeafArbor()
	a.ExtendOrdered(leafTuples([][2]int64{{1, 1}, {3, 1}}))
	a.ExtendOrdered(leafTuples([][2]int64{{2, 1}, {4, 1}}))

	if a.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 (both batches merged)", a.Len())
	}
	got := scanLeafArbor(a)
	want := [][2]int64{{1, 1}, {2, 1}, {3, 1}, {4, 1}}
	if !equalPairs(got, want) {
		t.Fatalf("scan = %v, want %v", got, want)
	}
}

// S3: cancellation across batches.
func TestArborS3Cancellation(t *testing.T) {
	t.Parallel()

	a := newLeafArbor()
	a.ExtendOrdered(leafTuples([][2]int64{{1, 1}, {2, 1}}))
	a.ExtendOrdered(leafTuples([][2]int64{{1, -1}, {3, 1}}))

	got := scanLeafArbor(a)
	want := [][2]int64{{2, 1}, {3, 1}}
	if !equalPairs(got, want) {
		t.Fatalf("scan = %v, want %v", got, want)
	}
}

// S4: seven one-tuple batches leave a geometrically spaced stack whose
// full scan yields all seven tuples sorted.
func TestArborS4GeometricStack(t *testing.T) {
	t.Parallel()

	a := newLeafArbor()
	keys := []int64{7, 1, 5, 3, 6, 2, 4}
	for _, k := range keys {
		a.Push(Tuple{k, Weight(1)})
	}

	got := scanLeafArbor(a)
	if len(got) != 7 {
		t.Fatalf("scan length = %d, want 7", len(got))
	}
	for i := 0; i < 7; i++ {
		if got[i][0] != int64(i+1) {
			t.Fatalf("scan[%d] = %v, want key %d", i, got[i], i+1)
		}
	}

	assertSizeInvariant(t, a.tries)
}

func TestArborSizeInvariantProperty(t *testing.T) {
	t.Parallel()

	prng := rand.New(rand.NewSource(3))

	for trial := 0; trial < 30; trial++ {
		a := newLeafArbor()
		next := int64(0)
		for b := 0; b < 15; b++ {
			n := 1 + prng.Intn(4)
			pairs := make([][2]int64, n)
			for i := range pairs {
				pairs[i] = [2]int64{next, 1}
				next++
			}
			a.ExtendOrdered(leafTuples(pairs))
			assertSizeInvariant(t, a.tries)
		}
	}
}

func assertSizeInvariant(t *testing.T, tries []*LeafLayer[int64]) {
	t.Helper()
	for i := 0; i+1 < len(tries); i++ {
		if tries[i+1].Tuples() > tries[i].Tuples()/2 {
			t.Fatalf("size invariant violated at %d: %d is more than half of %d",
				i, tries[i+1].Tuples(), tries[i].Tuples())
		}
	}
}
