// Copyright 2021 The glulxtoc Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package safety

import "github.com/go-interpreter/glulxc/glulx"

// Label is the safety lattice shared with package glulx: Safe < SafetyTBD
// < Unsafe.
type Label = glulx.Safety

// Node is the minimal contract Propagate needs from a function table
// entry. It exists so the propagator can be unit-tested against small
// synthetic graphs without constructing a glulx.Image or glulx.Function;
// *glulx.Function satisfies it directly.
type Node interface {
	Label() Label
	SetLabel(Label)
}

// Propagate marks every (transitive) caller of a function labeled Unsafe
// as Unsafe, then collapses any function still SafetyTBD to Safe.
//
// It walks the call graph's edges in reverse from every currently-Unsafe
// node with an explicit stack: a depth-first reachability search seeded
// with all functions currently labeled Unsafe, so that any caller of an
// unsafe function (transitively, through any number of hops) ends up
// unsafe too.
func Propagate(graph *CallGraph, nodes map[uint32]Node) {
	reverse := graph.reverse()

	visited := make(map[uint32]bool, len(nodes))
	var stack []uint32
	for addr, n := range nodes {
		if n.Label() == glulx.Unsafe {
			visited[addr] = true
			stack = append(stack, addr)
		}
	}

	for len(stack) > 0 {
		addr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, caller := range reverse[addr] {
			if visited[caller] {
				continue
			}
			visited[caller] = true
			if n, ok := nodes[caller]; ok {
				n.SetLabel(glulx.Unsafe)
			}
			stack = append(stack, caller)
		}
	}

	for _, n := range nodes {
		if n.Label() == glulx.SafetyTBD {
			n.SetLabel(glulx.Safe)
		}
	}
}
