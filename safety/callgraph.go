// Copyright 2021 The glulxtoc Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package safety implements the safety propagator: it walks the
// cross-function call graph built during disassembly and marks every
// (transitive) caller of an unsafe function unsafe.
package safety

// CallGraph is a directed graph of function entry addresses; an edge
// caller -> callee means caller may call callee (originating from
// OP_CALL/OP_TAILCALL/OP_CALLF..CALLFIII with a constant callee operand).
type CallGraph struct {
	callees map[uint32][]uint32
}

// NewCallGraph returns an empty call graph.
func NewCallGraph() *CallGraph {
	return &CallGraph{callees: make(map[uint32][]uint32)}
}

// AddEdge records that caller may call callee.
func (g *CallGraph) AddEdge(caller, callee uint32) {
	g.callees[caller] = append(g.callees[caller], callee)
}

// Callees returns the functions addr may call.
func (g *CallGraph) Callees(addr uint32) []uint32 {
	return g.callees[addr]
}

// reverse builds the callee -> callers adjacency used by Propagate's
// backward reachability search.
func (g *CallGraph) reverse() map[uint32][]uint32 {
	rev := make(map[uint32][]uint32, len(g.callees))
	for caller, callees := range g.callees {
		for _, callee := range callees {
			rev[callee] = append(rev[callee], caller)
		}
	}
	return rev
}
