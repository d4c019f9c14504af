// Copyright 2021 The glulxtoc Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package relooper

import "sort"

// nodeID indexes into graph.nodes; stable for the lifetime of a graph
// (nodes are only ever appended, never removed).
type nodeID int

type nodeKind int

const (
	kindBasic nodeKind = iota
	kindLoop
	kindLoopMulti
)

// loopData is the payload of a synthetic loop node: its fresh id, and the
// set of nodes reached by a LoopBreak edge out of its body.
type loopData struct {
	id   uint16
	next map[nodeID]bool
}

type gnode struct {
	kind  nodeKind
	label Label // valid when kind == kindBasic
	loop  *loopData
}

// edgeKind tags a working-graph edge, mirroring the original Rust
// relooper's Edge enum (Forward | ForwardMulti(label) | LoopBreak(id) |
// Back(id) | BackMulti(label,id) | Removed).
type edgeKind int

const (
	eForward edgeKind = iota
	eForwardMulti
	eLoopBreak
	eBack
	eBackMulti
	eRemoved
)

// gedge is one arena-allocated, retaggable edge. label always carries the
// *original* basic-block label this edge ultimately resolves to, even once
// its destination has been rewritten to point at a synthetic loop node; this
// is what lets the branches map in reduce.go key its entries by the source
// CFG's labels instead of internal node ids.
type gedge struct {
	kind   edgeKind
	from   nodeID
	to     nodeID
	label  Label
	loopID uint16 // valid for LoopBreak, Back, BackMulti
}

// graph is the relooper's mutable working graph: an arena of nodes plus a
// slice of retaggable edges, so a cyclic CFG can be represented without
// ownership cycles, via indices instead of pointers. Edges are never
// removed, only retagged (to eRemoved or to a loop-related kind), so that
// no other edge's index is ever invalidated mid-algorithm.
type graph struct {
	nodes []gnode
	edges []gedge
	out   [][]int
	in    [][]int
}

func newGraph() *graph {
	return &graph{}
}

func (g *graph) addNode(n gnode) nodeID {
	id := nodeID(len(g.nodes))
	g.nodes = append(g.nodes, n)
	g.out = append(g.out, nil)
	g.in = append(g.in, nil)
	return id
}

func (g *graph) addEdge(from, to nodeID, kind edgeKind, label Label, loopID uint16) int {
	idx := len(g.edges)
	g.edges = append(g.edges, gedge{kind: kind, from: from, to: to, label: label, loopID: loopID})
	g.out[from] = append(g.out[from], idx)
	g.in[to] = append(g.in[to], idx)
	return idx
}

// isForwardKind reports whether an edge participates in the "forward
// subgraph" that dominators and SCC detection operate over: edges tagged
// Forward, ForwardMulti or LoopBreak, as opposed to the Back/BackMulti
// edges a loop's own body uses to return to its header.
func isForwardKind(k edgeKind) bool {
	switch k {
	case eForward, eForwardMulti, eLoopBreak:
		return true
	default:
		return false
	}
}

// forwardSuccessors returns the distinct nodes reachable from n via a
// forward-kind edge, in edge-insertion order.
func (g *graph) forwardSuccessors(n nodeID) []nodeID {
	var out []nodeID
	seen := map[nodeID]bool{}
	for _, ei := range g.out[n] {
		e := g.edges[ei]
		if isForwardKind(e.kind) && !seen[e.to] {
			seen[e.to] = true
			out = append(out, e.to)
		}
	}
	return out
}

// hasSelfEdge reports whether n has a forward-kind edge to itself.
func (g *graph) hasSelfEdge(n nodeID) bool {
	for _, ei := range g.out[n] {
		e := g.edges[ei]
		if isForwardKind(e.kind) && e.to == n {
			return true
		}
	}
	return false
}

func (g *graph) forwardPredecessors(n nodeID) []nodeID {
	var in []nodeID
	for _, ei := range g.in[n] {
		e := g.edges[ei]
		if isForwardKind(e.kind) {
			in = append(in, e.from)
		}
	}
	return in
}

// postorder runs a DFS over the forward subgraph from root and returns
// nodes in postorder (root last), plus each node's position in that order.
func (g *graph) postorder(root nodeID) ([]nodeID, map[nodeID]int) {
	visited := make(map[nodeID]bool)
	var order []nodeID

	var visit func(nodeID)
	visit = func(n nodeID) {
		if visited[n] {
			return
		}
		visited[n] = true
		for _, s := range g.forwardSuccessors(n) {
			visit(s)
		}
		order = append(order, n)
	}
	visit(root)

	index := make(map[nodeID]int, len(order))
	for i, n := range order {
		index[n] = i
	}
	return order, index
}

// dominators computes the immediate dominator of every node reachable from
// root in the forward subgraph, using the iterative Cooper-Harvey-Kennedy
// algorithm: simple and fast enough to recompute from scratch between each
// SCC-collapsing pass rather than maintain incrementally. The result maps
// a node to its own id when it is the root.
func (g *graph) dominators(root nodeID) map[nodeID]nodeID {
	order, index := g.postorder(root)

	idom := map[nodeID]nodeID{root: root}

	changed := true
	for changed {
		changed = false
		for i := len(order) - 1; i >= 0; i-- {
			n := order[i]
			if n == root {
				continue
			}

			var newIdom nodeID
			set := false
			for _, p := range g.forwardPredecessors(n) {
				if _, ok := idom[p]; !ok {
					continue
				}
				if !set {
					newIdom = p
					set = true
					continue
				}
				newIdom = intersect(idom, index, newIdom, p)
			}
			if !set {
				continue
			}
			if old, ok := idom[n]; !ok || old != newIdom {
				idom[n] = newIdom
				changed = true
			}
		}
	}
	return idom
}

// intersect walks two nodes up their (partially built) dominator chains
// until they meet, using postorder position as the "finger" ordering.
func intersect(idom map[nodeID]nodeID, index map[nodeID]int, a, b nodeID) nodeID {
	for a != b {
		for index[a] < index[b] {
			a = idom[a]
		}
		for index[b] < index[a] {
			b = idom[b]
		}
	}
	return a
}

// stronglyConnectedComponents runs Tarjan's algorithm over the forward
// subgraph reachable from root.
func (g *graph) stronglyConnectedComponents(root nodeID) [][]nodeID {
	index := 0
	indices := map[nodeID]int{}
	lowlink := map[nodeID]int{}
	onStack := map[nodeID]bool{}
	var stack []nodeID
	var sccs [][]nodeID

	var strongconnect func(v nodeID)
	strongconnect = func(v nodeID) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.forwardSuccessors(v) {
			if _, ok := indices[w]; !ok {
				strongconnect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] {
				if indices[w] < lowlink[v] {
					lowlink[v] = indices[w]
				}
			}
		}

		if lowlink[v] == indices[v] {
			var comp []nodeID
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				comp = append(comp, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, comp)
		}
	}

	visited := map[nodeID]bool{}
	var visitAll func(v nodeID)
	visitAll = func(v nodeID) {
		if visited[v] {
			return
		}
		visited[v] = true
		if _, ok := indices[v]; !ok {
			strongconnect(v)
		}
		for _, w := range g.forwardSuccessors(v) {
			visitAll(w)
		}
	}
	visitAll(root)

	// Deterministic order makes loop-id assignment (and therefore test
	// expectations) stable across runs.
	sort.Slice(sccs, func(i, j int) bool { return sccs[i][0] < sccs[j][0] })
	return sccs
}

// isCyclic reports whether the forward subgraph reachable from root still
// contains a non-trivial strongly connected component.
func (g *graph) isCyclic(root nodeID) bool {
	for _, scc := range g.stronglyConnectedComponents(root) {
		if len(scc) > 1 {
			return true
		}
		// A single-node SCC is still cyclic if it has a self-edge.
		n := scc[0]
		for _, s := range g.forwardSuccessors(n) {
			if s == n {
				return true
			}
		}
	}
	return false
}
