// Copyright 2021 The glulxtoc Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build amd64 && gc
// +build amd64,gc

package preview

import (
	"fmt"

	asm "github.com/twitchyliquid64/golang-asm"
	"github.com/twitchyliquid64/golang-asm/obj"
	"github.com/twitchyliquid64/golang-asm/obj/x86"

	"github.com/go-interpreter/glulxc/relooper"
)

// Assemble walks shape in relooper order and builds one NOP per Simple
// block and per loop header, closing each loop with an unconditional jump
// back to its header NOP. No jump is emitted for a block's Immediate, Next
// or Branches targets. It returns the assembled bytes, never executing them.
//
// This mirrors exec/internal/compile/backend_amd64.go's use of
// golang-asm's Builder/Prog, but emits no real opcode translation: that is
// the emitter's job, out of scope here.
func Assemble(shape *relooper.ShapedBlock) (*Stub, error) {
	builder, err := asm.NewBuilder("amd64", 128)
	if err != nil {
		return nil, fmt.Errorf("preview: %w", err)
	}

	a := &assembler{builder: builder}
	a.walk(shape)

	return &Stub{Code: builder.Assemble(), Blocks: a.count}, nil
}

// assembler threads the golang-asm builder through one recursive descent
// of the shaped tree. Every loop header is emitted before its body is
// walked, so the back-edge jump always has a real target to point at.
type assembler struct {
	builder *asm.Builder
	count   int
}

func (a *assembler) emitNOP() *obj.Prog {
	prog := a.builder.NewProg()
	prog.As = x86.ANOP
	a.builder.AddInstruction(prog)
	a.count++
	return prog
}

func (a *assembler) emitJump(target *obj.Prog) *obj.Prog {
	prog := a.builder.NewProg()
	prog.As = x86.AJMP
	prog.To.Type = obj.TYPE_BRANCH
	if target != nil {
		prog.Pcond = target
	}
	a.builder.AddInstruction(prog)
	return prog
}

// walk emits one NOP per Simple block and one NOP per loop header, in the
// order the relooper produced them, following Immediate before Next so a
// loop's own back-edge always has a real target already emitted.
func (a *assembler) walk(shape *relooper.ShapedBlock) {
	switch {
	case shape == nil:
		return
	case shape.Simple != nil:
		s := shape.Simple
		a.emitNOP()
		a.walk(s.Immediate)
		a.walk(s.Next)
	case shape.Loop != nil:
		l := shape.Loop
		header := a.emitNOP()
		a.walk(l.Inner)
		a.emitJump(header)
		a.walk(l.Next)
	case shape.Multiple != nil:
		m := shape.Multiple
		for _, arm := range m.Handled {
			a.walk(arm.Inner)
		}
		a.walk(m.Next)
	}
}
