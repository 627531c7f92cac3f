// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package arbor

import (
	"math/rand"
	"sort"
	"testing"
)

func leafTuples(pairs [][2]int64) []Tuple {
	out := make([]Tuple, len(pairs))
	for i, p := range pairs {
		out[i] = Tuple{p[0], Weight(p[1])}
	}
	return out
}

func leafContents(l *LeafLayer[int64]) [][2]int64 {
	var out [][2]int64
	cur := l.FullCursor()
	for {
		k, v, ok := cur.Next()
		if !ok {
			break
		}
		out = append(out, [2]int64{k, v.(Weight)})
	}
	return out
}

// naiveLeafMerge sums weights for coincident keys across both inputs
// (each assumed already key-sorted and duplicate-free), dropping any
// pair whose sum is zero.
func naiveLeafMerge(a, b [][2]int64) [][2]int64 {
	sums := map[int64]int64{}
	var order []int64
	see := func(k, w int64) {
		if _, ok := sums[k]; !ok {
			order = append(order, k)
		}
		sums[k] += w
	}
	for _, p := range a {
		see(p[0], p[1])
	}
	for _, p := range b {
		see(p[0], p[1])
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	var out [][2]int64
	for _, k := range order {
		if w := sums[k]; w != 0 {
			out = append(out, [2]int64{k, w})
		}
	}
	return out
}

func TestLeafFromOrdered(t *testing.T) {
	t.Parallel()

	pairs := [][2]int64{{1, 1}, {2, 1}, {3, 1}}
	l := FromOrdered[*LeafLayer[int64], int64](leafTuples(pairs), NewLeaf[int64]())

	if got := l.Tuples(); got != 3 {
		t.Fatalf("Tuples() = %d, want 3", got)
	}
	if got := leafContents(l); len(got) != 3 || got[2] != [2]int64{3, 1} {
		t.Fatalf("contents = %v", got)
	}
}

func TestLeafExtendMergeAgainstNaive(t *testing.T) {
	t.Parallel()

	prng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 200; trial++ {
		a := randomLeafPairs(prng, 20)
		b := randomLeafPairs(prng, 20)

		la := FromOrdered[*LeafLayer[int64], int64](leafTuples(a), NewLeaf[int64]())
		lb := FromOrdered[*LeafLayer[int64], int64](leafTuples(b), NewLeaf[int64]())

		merged := WithCapacityLeaf(la, lb)
		merged.ExtendMerge(la, 0, la.KeysCount(), lb, 0, lb.KeysCount())

		got := leafContents(merged)
		want := naiveLeafMerge(a, b)

		if !equalPairs(got, want) {
			t.Fatalf("trial %d: merge = %v, want %v", trial, got, want)
		}
	}
}

func TestLeafZeroWeightCancellation(t *testing.T) {
	t.Parallel()

	a := FromOrdered[*LeafLayer[int64], int64](leafTuples([][2]int64{{1, 1}, {2, 1}}), NewLeaf[int64]())
	b := FromOrdered[*LeafLayer[int64], int64](leafTuples([][2]int64{{1, -1}, {3, 1}}), NewLeaf[int64]())

	merged := WithCapacityLeaf(a, b)
	merged.ExtendMerge(a, 0, a.KeysCount(), b, 0, b.KeysCount())

	got := leafContents(merged)
	want := [][2]int64{{2, 1}, {3, 1}}
	if !equalPairs(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestLeafExtendTupleOmitsZeroFreshEntry(t *testing.T) {
	t.Parallel()

	// A fresh key whose own weight is zero must never be stored: its
	// sum is trivially itself.
	l := FromOrdered[*LeafLayer[int64], int64](leafTuples([][2]int64{{1, 0}, {2, 1}}), NewLeaf[int64]())
	got := leafContents(l)
	want := [][2]int64{{2, 1}}
	if !equalPairs(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func randomLeafPairs(prng *rand.Rand, maxKey int) [][2]int64 {
	keys := map[int64]bool{}
	n := prng.Intn(10)
	for len(keys) < n {
		keys[int64(prng.Intn(maxKey))] = true
	}
	var ordered []int64
	for k := range keys {
		ordered = append(ordered, k)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })

	out := make([][2]int64, len(ordered))
	for i, k := range ordered {
		w := int64(prng.Intn(5)) - 2
		if w == 0 {
			w = 1
		}
		out[i] = [2]int64{k, w}
	}
	return out
}

func equalPairs(a, b [][2]int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
