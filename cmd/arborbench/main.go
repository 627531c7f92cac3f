// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Command arborbench is a benchmark driver, deliberately outside the
// core library's contract (SPEC_FULL.md §4.9): it builds forward and
// reverse adjacency-style Arbors from a synthetic graph and reports
// load and scan timings. It accepts exactly three positional numeric
// arguments and is not meant to be depended on by other packages.
package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/arbordb/arbor"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

func main() {
	if len(os.Args) != 4 {
		fmt.Fprintln(os.Stderr, "tests arbor building and scanning against a synthetic graph")
		fmt.Fprintln(os.Stderr, "usage: arborbench <nodes> <degree> <batch_size>")
		os.Exit(2)
	}

	nodes, err := strconv.Atoi(os.Args[1])
	if err != nil {
		fatalArg("nodes", os.Args[1], err)
	}
	degree, err := strconv.Atoi(os.Args[2])
	if err != nil {
		fatalArg("degree", os.Args[2], err)
	}
	batchSize, err := strconv.Atoi(os.Args[3])
	if err != nil {
		fatalArg("batch_size", os.Args[3], err)
	}
	if nodes <= 0 || degree <= 0 || batchSize <= 0 {
		fmt.Fprintln(os.Stderr, "nodes, degree and batch_size must all be positive")
		os.Exit(2)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "arborbench " + uuid.NewString()[:8],
	})

	logger.Info("starting run", "nodes", nodes, "degree", degree, "batch_size", batchSize)

	runForwardReverse(logger, nodes, degree, batchSize)
}

func fatalArg(name, val string, err error) {
	fmt.Fprintf(os.Stderr, "invalid %s %q: %v\n", name, val, err)
	os.Exit(2)
}

// newAdjacencyArbor builds an Arbor over (node, (neighbor, weight))
// adjacency tuples.
func newAdjacencyArbor() *arbor.Arbor[int64, *arbor.TrieLayer[int64, int64, *arbor.LeafLayer[int64]]] {
	newInner := func() *arbor.LeafLayer[int64] { return arbor.NewLeaf[int64]() }
	newOuter := func() *arbor.TrieLayer[int64, int64, *arbor.LeafLayer[int64]] {
		return arbor.NewTrie[int64, int64, *arbor.LeafLayer[int64]](newInner)
	}
	newOuterWithCapacity := func(a, b *arbor.TrieLayer[int64, int64, *arbor.LeafLayer[int64]]) *arbor.TrieLayer[int64, int64, *arbor.LeafLayer[int64]] {
		return arbor.WithCapacityTrie[int64, int64, *arbor.LeafLayer[int64]](a, b, newInner)
	}
	return arbor.NewArbor[int64, *arbor.TrieLayer[int64, int64, *arbor.LeafLayer[int64]]](newOuter, newOuterWithCapacity)
}

type edge struct{ k1, k2 int64 }

func sortedBatch(edges []edge) []arbor.Tuple {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].k1 != edges[j].k1 {
			return edges[i].k1 < edges[j].k1
		}
		return edges[i].k2 < edges[j].k2
	})
	out := make([]arbor.Tuple, len(edges))
	for i, e := range edges {
		out[i] = arbor.Tuple{e.k1, e.k2, arbor.Weight(1)}
	}
	return out
}

// runForwardReverse mirrors original_source's profile.rs: build
// forward and reverse adjacency Arbors batch-by-batch, then time a
// key-only scan and a full scan over the result.
func runForwardReverse(logger *log.Logger, nodes, degree, batchSize int) {
	forward := newAdjacencyArbor()
	reverse := newAdjacencyArbor()

	var forwardBatch, reverseBatch []edge

	start := time.Now()
	for node := 0; node < nodes; node++ {
		for e := 0; e < degree; e++ {
			neighbor := (node + e) % nodes
			forwardBatch = append(forwardBatch, edge{int64(node), int64(neighbor)})
			reverseBatch = append(reverseBatch, edge{int64(neighbor), int64(node)})
		}
		if node%batchSize == batchSize-1 {
			forward.ExtendOrdered(sortedBatch(forwardBatch))
			reverse.ExtendOrdered(sortedBatch(reverseBatch))
			forwardBatch, reverseBatch = forwardBatch[:0], reverseBatch[:0]
		}
	}
	if len(forwardBatch) > 0 {
		forward.ExtendOrdered(sortedBatch(forwardBatch))
		reverse.ExtendOrdered(sortedBatch(reverseBatch))
	}
	logger.Info("load complete", "elapsed", time.Since(start), "tries", forward.Len())

	want := nodes * degree

	forwardKeyScanStart := time.Now()
	forwardKeyCount := 0
	m := forward.Cursor()
	for {
		_, _, ok := m.Next()
		if !ok {
			break
		}
		forwardKeyCount++
	}
	logger.Info("forward key scan", "elapsed", time.Since(forwardKeyScanStart), "keys", humanize.Comma(int64(forwardKeyCount)))

	forwardFullScanStart := time.Now()
	forwardTupleCount := 0
	m = forward.Cursor()
	for {
		_, group, ok := m.Next()
		if !ok {
			break
		}
		for _, v := range group {
			inner := v.(arbor.Cursor[int64])
			for {
				_, _, ok := inner.Next()
				if !ok {
					break
				}
				forwardTupleCount++
			}
		}
	}
	logger.Info("forward full scan", "elapsed", time.Since(forwardFullScanStart),
		"tuples", humanize.Comma(int64(forwardTupleCount)), "expected", humanize.Comma(int64(want)))
	if forwardTupleCount != want {
		logger.Error("tuple count mismatch", "direction", "forward", "got", forwardTupleCount, "want", want)
		os.Exit(1)
	}

	reverseKeyScanStart := time.Now()
	reverseKeyCount := 0
	m = reverse.Cursor()
	for {
		_, _, ok := m.Next()
		if !ok {
			break
		}
		reverseKeyCount++
	}
	logger.Info("reverse key scan", "elapsed", time.Since(reverseKeyScanStart), "keys", humanize.Comma(int64(reverseKeyCount)))

	reverseFullScanStart := time.Now()
	reverseTupleCount := 0
	m = reverse.Cursor()
	for {
		_, group, ok := m.Next()
		if !ok {
			break
		}
		for _, v := range group {
			inner := v.(arbor.Cursor[int64])
			for {
				_, _, ok := inner.Next()
				if !ok {
					break
				}
				reverseTupleCount++
			}
		}
	}
	logger.Info("reverse full scan", "elapsed", time.Since(reverseFullScanStart),
		"tuples", humanize.Comma(int64(reverseTupleCount)), "expected", humanize.Comma(int64(want)))
	if reverseTupleCount != want {
		logger.Error("tuple count mismatch", "direction", "reverse", "got", reverseTupleCount, "want", want)
		os.Exit(1)
	}

	logger.Info("run complete", "total_elapsed", time.Since(start))
}
