// Copyright 2021 The glulxtoc Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package relooper_test

import (
	"sort"
	"testing"

	"github.com/go-interpreter/glulxc/relooper"
)

func TestRelooperStraightLine(t *testing.T) {
	// 0->1->2->nothing
	blocks := map[relooper.Label][]relooper.Label{0: {1}, 1: {2}, 2: {}}
	shape := relooper.Reloop(blocks, 0)

	s0 := mustSimple(t, shape, 0)
	s1 := mustSimple(t, s0.Immediate, 1)
	s2 := mustSimple(t, s1.Immediate, 2)
	if s2.Immediate != nil {
		t.Fatalf("expected block 2 to be a leaf, got immediate %+v", s2.Immediate)
	}
	if len(s0.Branches) != 0 || len(s1.Branches) != 0 || len(s2.Branches) != 0 {
		t.Fatalf("a pure structural chain should need no explicit branches")
	}
	wantLabelCoverage(t, shape, blocks)
}

func TestRelooperSimpleLoop(t *testing.T) {
	// 0->1->2->3->1 (back to the header)
	blocks := map[relooper.Label][]relooper.Label{
		0: {1}, 1: {2}, 2: {3}, 3: {1},
	}
	shape := relooper.Reloop(blocks, 0)

	s0 := mustSimple(t, shape, 0)
	loop := mustLoop(t, s0.Immediate)
	s1 := mustSimple(t, loop.Inner, 1)
	s2 := mustSimple(t, s1.Immediate, 2)
	s3 := mustSimple(t, s2.Immediate, 3)

	mode, ok := s3.Branches[1]
	if !ok {
		t.Fatalf("block 3 should branch back to the header (label 1), got %+v", s3.Branches)
	}
	if mode.Kind != relooper.ModeLoopContinue || mode.LoopID != loop.ID {
		t.Errorf("expected LoopContinue(%d), got %+v", loop.ID, mode)
	}
	if loop.Next != nil {
		t.Errorf("a loop with no breaks should have no next, got %+v", loop.Next)
	}
	wantLabelCoverage(t, shape, blocks)
	wantUniqueLoopIDs(t, shape)
}

func TestRelooperIfElseJoin(t *testing.T) {
	// 0->{1,2}, 1->3, 2->3, 3->nothing
	blocks := map[relooper.Label][]relooper.Label{
		0: {1, 2}, 1: {3}, 2: {3}, 3: {},
	}
	shape := relooper.Reloop(blocks, 0)

	s0 := mustSimple(t, shape, 0)
	multi := mustMultiple(t, s0.Immediate)
	if len(multi.Handled) != 2 {
		t.Fatalf("expected 2 arms, got %d", len(multi.Handled))
	}

	for _, arm := range multi.Handled {
		if len(arm.Labels) != 1 {
			t.Fatalf("expected single-label arm, got %v", arm.Labels)
		}
		armSimple := mustSimple(t, arm.Inner, arm.Labels[0])
		mode, ok := armSimple.Branches[3]
		if !ok {
			t.Fatalf("arm %d should carry an explicit branch to the join (3), got %+v", arm.Labels[0], armSimple.Branches)
		}
		if mode.Kind != relooper.ModeMergedBranch {
			t.Errorf("arm %d: expected MergedBranch, got %+v", arm.Labels[0], mode)
		}
	}

	mustSimple(t, multi.Next, 3)
	wantLabelCoverage(t, shape, blocks)
}

// TestRelooperLoopWithBreak covers 0->1, 1->{2,4}, 2->3, 3->1, 4->nothing.
// Block 4 is reached only from block 1, so it is uniquely dominated by it:
// the shaper folds 1's two successors into a Multiple nested inside the
// loop body rather than routing 4 out through the loop's own Next, since an
// unambiguous single-predecessor exit needs no explicit break bookkeeping.
func TestRelooperLoopWithBreak(t *testing.T) {
	blocks := map[relooper.Label][]relooper.Label{
		0: {1}, 1: {2, 4}, 2: {3}, 3: {1}, 4: {},
	}
	shape := relooper.Reloop(blocks, 0)

	s0 := mustSimple(t, shape, 0)
	loop := mustLoop(t, s0.Immediate)
	s1 := mustSimple(t, loop.Inner, 1)
	multi := mustMultiple(t, s1.Immediate)

	if len(multi.Handled) != 2 {
		t.Fatalf("expected 2 arms (2 and 4), got %d", len(multi.Handled))
	}
	var sawTwo, sawFour bool
	for _, arm := range multi.Handled {
		switch arm.Labels[0] {
		case 2:
			sawTwo = true
			s2 := mustSimple(t, arm.Inner, 2)
			s3 := mustSimple(t, s2.Immediate, 3)
			mode, ok := s3.Branches[1]
			if !ok || mode.Kind != relooper.ModeLoopContinueIntoMulti {
				t.Errorf("block 3 should continue the loop from inside the multi, got %+v", s3.Branches)
			}
		case 4:
			sawFour = true
			mustSimple(t, arm.Inner, 4)
		}
	}
	if !sawTwo || !sawFour {
		t.Fatalf("expected arms for both 2 and 4, got %+v", multi.Handled)
	}
	if loop.Next != nil {
		t.Errorf("both of the loop header's successors are handled inside its body, expected no Next, got %+v", loop.Next)
	}
	wantLabelCoverage(t, shape, blocks)
	wantUniqueLoopIDs(t, shape)
}

// TestRelooperSelfLoop covers 0->{0,1}, 1->nothing: the function's own
// entry point is swallowed into its own loop, so the whole function reduces
// to a bare Loop (not a Simple wrapping one), with 1 nested as the tail of
// the loop body for the same single-predecessor reason as above.
func TestRelooperSelfLoop(t *testing.T) {
	blocks := map[relooper.Label][]relooper.Label{0: {0, 1}, 1: {}}
	shape := relooper.Reloop(blocks, 0)

	loop := mustLoop(t, shape)
	s0 := mustSimple(t, loop.Inner, 0)

	mode, ok := s0.Branches[0]
	if !ok || mode.Kind != relooper.ModeLoopContinue || mode.LoopID != loop.ID {
		t.Fatalf("self-loop block should continue to itself, got %+v", s0.Branches)
	}

	mustSimple(t, s0.Immediate, 1)
	if loop.Next != nil {
		t.Errorf("expected no Next, block 1 is nested in the loop body, got %+v", loop.Next)
	}
	wantLabelCoverage(t, shape, blocks)
}

// TestRelooperStackifierMultiLoop covers the Stackifier-paper example: nodes
// A..H with edges A->{B,C}, B->{D,E}, C->E, D->{B,C}, E->{F,G}, F->G,
// G->{B,H}. G's edge back to B makes every one of B,C,D,E,F,G mutually
// reachable, so they collapse into a single multi-header loop (entered at
// both B and C) rather than a small {B,C,D} loop with a separate tail
// starting at E. This test only pins the invariants that must hold
// regardless of the finer shaping choices inside that loop body.
func TestRelooperStackifierMultiLoop(t *testing.T) {
	const (
		a, b, c, d, e, f, g, h relooper.Label = 0, 1, 2, 3, 4, 5, 6, 7
	)
	blocks := map[relooper.Label][]relooper.Label{
		a: {b, c}, b: {d, e}, c: {e}, d: {b, c}, e: {f, g}, f: {g}, g: {b, h}, h: {},
	}

	shape := relooper.Reloop(blocks, a)

	sa := mustSimple(t, shape, a)
	loop := mustLoop(t, sa.Immediate)
	multi := mustMultiple(t, loop.Inner)

	var entries []relooper.Label
	for _, arm := range multi.Handled {
		entries = append(entries, arm.Labels...)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i] < entries[j] })
	if len(entries) != 2 || entries[0] != b || entries[1] != c {
		t.Fatalf("expected the multi-loop to be entered at B and C, got %v", entries)
	}

	wantLabelCoverage(t, shape, blocks)
	wantUniqueLoopIDs(t, shape)
}

func mustSimple(t *testing.T, b *relooper.ShapedBlock, wantLabel relooper.Label) *relooper.SimpleBlock {
	t.Helper()
	if b == nil || b.Simple == nil {
		t.Fatalf("expected a Simple block for label %d, got %+v", wantLabel, b)
	}
	if b.Simple.Label != wantLabel {
		t.Fatalf("expected Simple label %d, got %d", wantLabel, b.Simple.Label)
	}
	return b.Simple
}

func mustLoop(t *testing.T, b *relooper.ShapedBlock) *relooper.LoopBlock {
	t.Helper()
	if b == nil || b.Loop == nil {
		t.Fatalf("expected a Loop block, got %+v", b)
	}
	return b.Loop
}

func mustMultiple(t *testing.T, b *relooper.ShapedBlock) *relooper.MultipleBlock {
	t.Helper()
	if b == nil || b.Multiple == nil {
		t.Fatalf("expected a Multiple block, got %+v", b)
	}
	return b.Multiple
}

// collectLabels walks every Simple block in the tree, regardless of
// nesting, and returns the set of labels it finds.
func collectLabels(b *relooper.ShapedBlock, into map[relooper.Label]bool) {
	if b == nil {
		return
	}
	switch {
	case b.Simple != nil:
		into[b.Simple.Label] = true
		collectLabels(b.Simple.Immediate, into)
		collectLabels(b.Simple.Next, into)
	case b.Loop != nil:
		collectLabels(b.Loop.Inner, into)
		collectLabels(b.Loop.Next, into)
	case b.Multiple != nil:
		for _, arm := range b.Multiple.Handled {
			collectLabels(arm.Inner, into)
		}
		collectLabels(b.Multiple.Next, into)
	}
}

// collectLoopIDs walks every Loop block in the tree and returns the
// sequence of ids it finds, in visitation order (duplicates included, so
// callers can check for them).
func collectLoopIDs(b *relooper.ShapedBlock, into *[]uint16) {
	if b == nil {
		return
	}
	switch {
	case b.Simple != nil:
		collectLoopIDs(b.Simple.Immediate, into)
		collectLoopIDs(b.Simple.Next, into)
	case b.Loop != nil:
		*into = append(*into, b.Loop.ID)
		collectLoopIDs(b.Loop.Inner, into)
		collectLoopIDs(b.Loop.Next, into)
	case b.Multiple != nil:
		for _, arm := range b.Multiple.Handled {
			collectLoopIDs(arm.Inner, into)
		}
		collectLoopIDs(b.Multiple.Next, into)
	}
}

// wantLabelCoverage asserts that every label reachable in blocks appears
// somewhere in the shaped tree, and that the tree invents no labels of its
// own.
func wantLabelCoverage(t *testing.T, shape *relooper.ShapedBlock, blocks map[relooper.Label][]relooper.Label) {
	t.Helper()
	got := map[relooper.Label]bool{}
	collectLabels(shape, got)
	if len(got) != len(blocks) {
		t.Errorf("label coverage mismatch: got %d labels %v, want %d from %v", len(got), got, len(blocks), blocks)
	}
	for l := range blocks {
		if !got[l] {
			t.Errorf("label %d missing from shaped tree", l)
		}
	}
}

// wantUniqueLoopIDs asserts that no loop id is assigned to more than one
// Loop block in the tree.
func wantUniqueLoopIDs(t *testing.T, shape *relooper.ShapedBlock) {
	t.Helper()
	var ids []uint16
	collectLoopIDs(shape, &ids)
	seen := map[uint16]bool{}
	for _, id := range ids {
		if seen[id] {
			t.Errorf("loop id %d assigned to more than one Loop block", id)
		}
		seen[id] = true
	}
}
