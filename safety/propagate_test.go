// Copyright 2021 The glulxtoc Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package safety_test

import (
	"testing"

	"github.com/go-interpreter/glulxc/glulx"
	"github.com/go-interpreter/glulxc/safety"
)

type testNode struct {
	label glulx.Safety
}

func (n *testNode) Label() safety.Label     { return n.label }
func (n *testNode) SetLabel(l safety.Label) { n.label = n.label.Join(l) }

func TestPropagateMarksTransitiveCallers(t *testing.T) {
	// a -> b -> c, c is unsafe; a and b must both end up unsafe, and any
	// untouched SafetyTBD node collapses to Safe.
	graph := safety.NewCallGraph()
	graph.AddEdge(0xA, 0xB)
	graph.AddEdge(0xB, 0xC)

	nodes := map[uint32]safety.Node{
		0xA: &testNode{label: glulx.Safe},
		0xB: &testNode{label: glulx.Safe},
		0xC: &testNode{label: glulx.Unsafe},
		0xD: &testNode{label: glulx.SafetyTBD}, // unconnected, should collapse to Safe
	}

	safety.Propagate(graph, nodes)

	for addr, want := range map[uint32]glulx.Safety{
		0xA: glulx.Unsafe,
		0xB: glulx.Unsafe,
		0xC: glulx.Unsafe,
		0xD: glulx.Safe,
	} {
		if got := nodes[addr].Label(); got != want {
			t.Errorf("node %#x: got %v, want %v", addr, got, want)
		}
	}
}

func TestPropagateNeverDowngrades(t *testing.T) {
	graph := safety.NewCallGraph()
	graph.AddEdge(0x1, 0x2)

	nodes := map[uint32]safety.Node{
		0x1: &testNode{label: glulx.Unsafe}, // already unsafe on its own merits
		0x2: &testNode{label: glulx.Safe},
	}

	safety.Propagate(graph, nodes)

	if got := nodes[0x1].Label(); got != glulx.Unsafe {
		t.Errorf("node 0x1: got %v, want unsafe", got)
	}
	if got := nodes[0x2].Label(); got != glulx.Safe {
		t.Errorf("node 0x2: got %v, want safe (edge direction is caller->callee, not the reverse)", got)
	}
}

func TestPropagateDiamond(t *testing.T) {
	// a -> b -> d, a -> c -> d, d is unsafe; both paths must mark a unsafe
	// exactly once without infinite-looping on the shared target.
	graph := safety.NewCallGraph()
	graph.AddEdge(0xA, 0xB)
	graph.AddEdge(0xA, 0xC)
	graph.AddEdge(0xB, 0xD)
	graph.AddEdge(0xC, 0xD)

	nodes := map[uint32]safety.Node{
		0xA: &testNode{label: glulx.Safe},
		0xB: &testNode{label: glulx.Safe},
		0xC: &testNode{label: glulx.Safe},
		0xD: &testNode{label: glulx.Unsafe},
	}

	safety.Propagate(graph, nodes)

	for _, addr := range []uint32{0xA, 0xB, 0xC, 0xD} {
		if got := nodes[addr].Label(); got != glulx.Unsafe {
			t.Errorf("node %#x: got %v, want unsafe", addr, got)
		}
	}
}

func TestJoinNeverDowngrades(t *testing.T) {
	cases := []struct {
		a, b, want glulx.Safety
	}{
		{glulx.Safe, glulx.Safe, glulx.Safe},
		{glulx.Safe, glulx.SafetyTBD, glulx.SafetyTBD},
		{glulx.SafetyTBD, glulx.Unsafe, glulx.Unsafe},
		{glulx.Unsafe, glulx.Safe, glulx.Unsafe},
	}
	for _, c := range cases {
		if got := c.a.Join(c.b); got != c.want {
			t.Errorf("%v.Join(%v) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}
