// Copyright 2021 The glulxtoc Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package relooper

import (
	"sort"

	"github.com/go-interpreter/glulxc/glulx"
)

// relooper holds the working graph and per-run counters for one call to
// Reloop.
type relooper struct {
	graph      *graph
	rootNode   nodeID
	nextLoopID uint16
}

// Reloop runs the full two-phase algorithm - collapse cycles into loop
// nodes, then shape the resulting DAG into Simple/Loop/Multiple blocks -
// over blocks, a label -> successor-labels CFG rooted at root, and
// returns the shaped block tree.
func Reloop(blocks map[Label][]Label, root Label) *ShapedBlock {
	g, rootNode := buildGraph(blocks, root)
	r := &relooper{graph: g, rootNode: rootNode}

	r.loopify()
	idom := r.graph.dominators(r.rootNode)
	logger.Printf("reloop: %d blocks, %d loops", len(blocks), r.nextLoopID)
	return r.reduce([]nodeID{r.rootNode}, idom, false)
}

// buildGraph seeds one Basic node per label and one Forward edge per
// label -> successor pair, matching Relooper::new in the original Rust
// implementation.
func buildGraph(blocks map[Label][]Label, root Label) (*graph, nodeID) {
	g := newGraph()
	ids := make(map[Label]nodeID, len(blocks))

	labels := make([]Label, 0, len(blocks))
	for l := range blocks {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })

	for _, l := range labels {
		ids[l] = g.addNode(gnode{kind: kindBasic, label: l})
	}
	for _, l := range labels {
		for _, succ := range blocks[l] {
			to, ok := ids[succ]
			if !ok {
				// A successor outside the supplied block set (e.g. a
				// tail-call target in another function) cannot be
				// shaped here; the emitter handles it as an ordinary
				// call instead of a structured branch.
				continue
			}
			g.addEdge(ids[l], to, eForward, succ, 0)
		}
	}

	rootNode, ok := ids[root]
	if !ok {
		panic("relooper: root label is not present in blocks")
	}
	return g, rootNode
}

// BlocksFromFunction extracts the label -> successor-labels map Reloop
// needs from a disassembled function's basic blocks, following only
// resolved (Absolute) branch targets and fall-through edges within the
// function. A Dynamic or Return target contributes no successor, so the
// map of a function with a computed branch lacks that branch's edges.
func BlocksFromFunction(fn *glulx.Function) (map[Label][]Label, Label) {
	blocks := make(map[Label][]Label, len(fn.BlockOrder))
	for _, addr := range fn.BlockOrder {
		blocks[addr] = successorsOf(fn, fn.Blocks[addr])
	}
	return blocks, fn.BlockOrder[0]
}

func successorsOf(fn *glulx.Function, b *glulx.BasicBlock) []Label {
	end := b.End()
	var succs []Label

	fallsThrough := func() {
		if _, ok := fn.Blocks[end.Next]; ok {
			succs = append(succs, end.Next)
		}
	}

	switch end.Branch.Kind {
	case glulx.DoesNotBranch:
		fallsThrough()
	case glulx.Branches:
		fallsThrough()
		if end.Branch.Target.Kind == glulx.BranchAbsolute {
			if _, ok := fn.Blocks[end.Branch.Target.Addr]; ok {
				succs = append(succs, end.Branch.Target.Addr)
			}
		}
	case glulx.Jumps:
		if end.Branch.Target.Kind == glulx.BranchAbsolute {
			if _, ok := fn.Blocks[end.Branch.Target.Addr]; ok {
				succs = append(succs, end.Branch.Target.Addr)
			}
		}
	}
	return succs
}
