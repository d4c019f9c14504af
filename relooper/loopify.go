// Copyright 2021 The glulxtoc Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package relooper

// loopify is phase 1 of the relooper algorithm: it repeatedly finds
// non-trivial strongly connected components in the forward subgraph and
// collapses each into a synthetic loop node, until the forward subgraph
// is acyclic.
func (r *relooper) loopify() {
	for {
		// Recompute dominators and SCCs for this pass; both are held
		// fixed while every SCC found in this pass is rewritten, then
		// recomputed fresh at the top of the next pass, since collapsing
		// one SCC can change the dominance structure around another.
		idom := r.graph.dominators(r.rootNode)
		sccs := r.graph.stronglyConnectedComponents(r.rootNode)

		foundSCC := false
		for _, scc := range sccs {
			if len(scc) == 1 && !r.graph.hasSelfEdge(scc[0]) {
				continue
			}
			foundSCC = true
			r.processSCC(scc, idom)
		}

		if !foundSCC {
			break
		}
	}

	if r.graph.isCyclic(r.rootNode) {
		panic("relooper: forward subgraph still cyclic after loopify")
	}
}

type sccInEdge struct {
	index  int
	source nodeID
	target nodeID
}

// processSCC collapses one non-trivial SCC into a synthetic loop node:
// every edge entering the SCC from outside is redirected to the new loop
// node, every edge leaving it either becomes a break or stays nested
// inside the loop body, and every edge back to one of its headers becomes
// a back edge carrying the loop's id.
func (r *relooper) processSCC(scc []nodeID, idom map[nodeID]nodeID) {
	inSCC := make(map[nodeID]bool, len(scc))
	for _, n := range scc {
		inSCC[n] = true
	}

	var incoming []sccInEdge
	headers := map[nodeID]bool{}
	for _, n := range scc {
		for _, ei := range r.graph.in[n] {
			e := r.graph.edges[ei]
			if e.kind == eRemoved || !isForwardKind(e.kind) {
				continue
			}
			if !inSCC[e.from] {
				headers[e.to] = true
				incoming = append(incoming, sccInEdge{ei, e.from, e.to})
			}
		}
	}

	if len(headers) == 0 {
		// No edge enters this SCC from outside: it can only be reached
		// because it contains the function's own entry node (nothing else
		// in the graph has no predecessor), including the degenerate
		// single-node self-loop case. That entry node is then its own
		// loop header.
		if !inSCC[r.rootNode] {
			panic("relooper: unreachable strongly connected component")
		}
		headers[r.rootNode] = true
	}

	multiLoop := len(headers) > 1

	loopID := r.nextLoopID
	r.nextLoopID++
	ld := &loopData{id: loopID, next: map[nodeID]bool{}}
	kind := kindLoop
	if multiLoop {
		kind = kindLoopMulti
	}
	loopNode := r.graph.addNode(gnode{kind: kind, loop: ld})

	for _, in := range incoming {
		target := r.graph.nodes[in.target]
		if target.kind != kindBasic {
			panic("relooper: cannot replace an edge whose endpoint is not a basic block")
		}
		kind := eForward
		if multiLoop {
			kind = eForwardMulti
		}
		r.graph.addEdge(in.source, loopNode, kind, target.label, 0)
		r.graph.edges[in.index].kind = eRemoved
	}

	for header := range headers {
		r.graph.addEdge(loopNode, header, eForward, r.graph.nodes[header].label, 0)
	}

	if inSCC[r.rootNode] {
		// The function's own entry point was itself swallowed into this
		// loop (e.g. a loop starting at block 0): reduce must now begin
		// at the loop node, since every other edge that used to reach a
		// header has already been redirected to it above.
		r.rootNode = loopNode
	}

	for _, n := range scc {
		// Snapshot: addEdge below appends to n's own out-slice for the
		// back-edge case, which must not be revisited by this range.
		outEdges := append([]int(nil), r.graph.out[n]...)
		for _, ei := range outEdges {
			e := r.graph.edges[ei]
			if !isForwardKind(e.kind) {
				continue
			}

			switch {
			case headers[e.to]:
				target := r.graph.nodes[e.to]
				if target.kind != kindBasic {
					panic("relooper: cannot replace an edge whose endpoint is not a basic block")
				}
				kind := eBack
				if multiLoop {
					kind = eBackMulti
				}
				r.graph.addEdge(n, loopNode, kind, target.label, loopID)
				r.graph.edges[ei].kind = eRemoved

			case !inSCC[e.to]:
				if dom, ok := idom[e.to]; ok && dom != n {
					r.graph.edges[ei].kind = eLoopBreak
					r.graph.edges[ei].loopID = loopID
					ld.next[e.to] = true
				}
			}
		}
	}
}
