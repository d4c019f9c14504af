// Copyright 2021 The glulxtoc Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package disasm

import (
	"sort"

	"github.com/go-interpreter/glulxc/glulx"
)

// buildBlocks partitions a function's instructions (in address order)
// into basic blocks: a block boundary falls immediately after any
// instruction whose branch descriptor is not DoesNotBranch, and
// immediately before any instruction that is the target of some branch
// within this function.
func buildBlocks(instrs []*glulx.Instruction, funcAddr uint32) (map[uint32]*glulx.BasicBlock, []uint32) {
	inFunc := make(map[uint32]bool, len(instrs))
	for _, in := range instrs {
		inFunc[in.Addr] = true
	}

	boundaries := map[uint32]bool{instrs[0].Addr: true}
	for i, in := range instrs {
		if in.Branch.Kind != glulx.DoesNotBranch && i+1 < len(instrs) {
			boundaries[instrs[i+1].Addr] = true
		}
		if in.Branch.Kind != glulx.DoesNotBranch && in.Branch.Target.Kind == glulx.BranchAbsolute {
			if target := in.Branch.Target.Addr; inFunc[target] {
				boundaries[target] = true
			}
		}
	}

	blocks := make(map[uint32]*glulx.BasicBlock)
	order := make([]uint32, 0, len(boundaries))

	var cur *glulx.BasicBlock
	for _, in := range instrs {
		if boundaries[in.Addr] {
			cur = &glulx.BasicBlock{Start: in.Addr}
			blocks[in.Addr] = cur
			order = append(order, in.Addr)
		}
		cur.Instructions = append(cur.Instructions, in)
	}

	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	return blocks, order
}
