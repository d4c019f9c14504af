// Copyright 2021 The glulxtoc Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package relooper

import "sort"

// reduce is the "no dangling next" entry point into reduceWithNext: a
// top-level call (or one fully contained within its parent) never needs
// to bubble a leftover continuation up to a caller. insideMulti is
// threaded down from the nearest enclosing Multiple arm (false at the top
// of a function), selecting the "*IntoMulti" / "*" pairing of BranchMode.
func (r *relooper) reduce(entries []nodeID, idom map[nodeID]nodeID, insideMulti bool) *ShapedBlock {
	block, next := r.reduceWithNext(entries, idom, insideMulti)
	if next != nil {
		panic("relooper: dangling next entry after reduction")
	}
	return block
}

func (r *relooper) reduceWithNext(entries []nodeID, idom map[nodeID]nodeID, insideMulti bool) (*ShapedBlock, *nodeID) {
	if len(entries) == 0 {
		return nil, nil
	}

	if len(entries) == 1 {
		n := entries[0]
		node := r.graph.nodes[n]
		if node.kind == kindBasic {
			return r.reduceSimple(n, idom, insideMulti)
		}
		return r.reduceLoop(n, node, idom, insideMulti), nil
	}

	return r.reduceMultiple(entries, idom, insideMulti)
}

// reduceSimple turns one Basic node into a Simple block.
func (r *relooper) reduceSimple(n nodeID, idom map[nodeID]nodeID, insideMulti bool) (*ShapedBlock, *nodeID) {
	node := r.graph.nodes[n]
	succs := r.graph.forwardSuccessors(n)

	var immediateRoots []nodeID
	var next *nodeID

	switch {
	case len(succs) == 0:
		// nothing to contain or continue to.
	case len(succs) == 1:
		s := succs[0]
		if dom, ok := idom[s]; ok && dom == n {
			immediateRoots = succs
		} else {
			next = &s
		}
	default:
		// More than one forward successor: these are reduced together
		// as a Multiple, one arm per successor, rather than singling
		// one out as "next".
		immediateRoots = succs
	}

	var immediate *ShapedBlock
	if len(immediateRoots) > 0 {
		immediate = r.reduce(immediateRoots, idom, insideMulti)
	}

	structural := make(map[nodeID]bool, len(immediateRoots))
	for _, id := range immediateRoots {
		structural[id] = true
	}

	branches := r.branchModes(n, structural, insideMulti)
	return &ShapedBlock{Simple: &SimpleBlock{Label: node.label, Immediate: immediate, Branches: branches}}, next
}

// reduceLoop turns a synthetic loop node into a Loop block: its body is
// whatever the loop collapsed (one or more headers), and its Next is
// whatever the loop's break edges bubbled out to.
func (r *relooper) reduceLoop(n nodeID, node gnode, idom map[nodeID]nodeID, insideMulti bool) *ShapedBlock {
	inner := r.reduce(r.graph.forwardSuccessors(n), idom, insideMulti)

	nextEntries := make([]nodeID, 0, len(node.loop.next))
	for t := range node.loop.next {
		nextEntries = append(nextEntries, t)
	}
	sort.Slice(nextEntries, func(i, j int) bool { return nextEntries[i] < nextEntries[j] })
	next := r.reduce(nextEntries, idom, insideMulti)

	return &ShapedBlock{Loop: &LoopBlock{ID: node.loop.id, Inner: inner, Next: next}}
}

// reduceMultiple handles a set of entries that do not reduce to a single
// node: none of them dominates the others, so each becomes its own
// mutually exclusive arm, and their bubbled-up "next" labels are unioned
// into the Multiple's own shared continuation.
func (r *relooper) reduceMultiple(entries []nodeID, idom map[nodeID]nodeID, insideMulti bool) (*ShapedBlock, *nodeID) {
	sorted := append([]nodeID(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var handled []HandledArm
	seenNext := map[nodeID]bool{}
	var nextOrder []nodeID

	for i, e := range sorted {
		node := r.graph.nodes[e]
		if node.kind != kindBasic {
			panic("relooper: non-basic node among multiple entries")
		}

		child, next := r.reduceWithNext([]nodeID{e}, idom, true)

		breakAfter := true
		if next != nil {
			if !seenNext[*next] {
				seenNext[*next] = true
				nextOrder = append(nextOrder, *next)
			}

			isSibling := false
			for _, sib := range sorted {
				if sib != e && sib == *next {
					isSibling = true
					break
				}
			}
			if isSibling {
				breakAfter = false
				mode := BranchMode{Kind: ModeSwitchFallThrough}
				if !(i+1 < len(sorted) && sorted[i+1] == *next) {
					// Not the textually adjacent arm: needs a
					// dispatcher variable rather than a plain
					// fall-through.
					mode = BranchMode{Kind: ModeSetLabelAndBreak}
				}
				if child != nil {
					retagBranch(child, r.graph.nodes[*next].label, mode)
				}
			}
		}

		if child != nil {
			handled = append(handled, HandledArm{Labels: []Label{node.label}, Inner: child, BreakAfter: breakAfter})
		}
	}

	next := r.reduce(nextOrder, idom, insideMulti)
	return &ShapedBlock{Multiple: &MultipleBlock{Handled: handled, Next: next}}, nil
}

// branchModes classifies every live outgoing edge of n into a BranchMode
// by its edge tag. Edges into immediateRoots are the implicit structural
// fall-through and are omitted; every other edge (including ones that
// produced this node's bubbled-up "next") gets an explicit entry, because
// from this block's own position reaching them always needs some kind of
// jump or dispatch.
func (r *relooper) branchModes(n nodeID, immediateRoots map[nodeID]bool, insideMulti bool) map[Label]BranchMode {
	modes := map[Label]BranchMode{}
	for _, ei := range r.graph.out[n] {
		e := r.graph.edges[ei]
		switch e.kind {
		case eRemoved:
			continue

		case eLoopBreak:
			kind := ModeLoopBreak
			if insideMulti {
				kind = ModeLoopBreakIntoMulti
			}
			modes[e.label] = BranchMode{Kind: kind, LoopID: e.loopID}

		case eBack, eBackMulti:
			kind := ModeLoopContinue
			if insideMulti {
				kind = ModeLoopContinueIntoMulti
			}
			modes[e.label] = BranchMode{Kind: kind, LoopID: e.loopID}

		case eForward, eForwardMulti:
			if immediateRoots[e.to] {
				continue
			}
			kind := ModeMergedBranch
			if insideMulti {
				kind = ModeMergedBranchIntoMulti
			}
			modes[e.label] = BranchMode{Kind: kind}
		}
	}
	return modes
}

// retagBranch finds the (at most one) Branches entry for targetLabel
// anywhere in block's structurally-contained subtree and overwrites its
// mode, used to upgrade a plain merge into a SwitchFallThrough or
// SetLabelAndBreak once reduceMultiple discovers the merge target is a
// sibling arm rather than the Multiple's outer continuation.
func retagBranch(block *ShapedBlock, targetLabel Label, mode BranchMode) bool {
	if block == nil {
		return false
	}
	switch {
	case block.Simple != nil:
		if _, ok := block.Simple.Branches[targetLabel]; ok {
			block.Simple.Branches[targetLabel] = mode
			return true
		}
		return retagBranch(block.Simple.Immediate, targetLabel, mode)
	case block.Loop != nil:
		if retagBranch(block.Loop.Inner, targetLabel, mode) {
			return true
		}
		return retagBranch(block.Loop.Next, targetLabel, mode)
	case block.Multiple != nil:
		for _, h := range block.Multiple.Handled {
			if retagBranch(h.Inner, targetLabel, mode) {
				return true
			}
		}
		return retagBranch(block.Multiple.Next, targetLabel, mode)
	}
	return false
}
