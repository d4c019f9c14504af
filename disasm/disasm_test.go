// Copyright 2021 The glulxtoc Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package disasm_test

import (
	"encoding/binary"
	"testing"

	"github.com/go-interpreter/glulxc/disasm"
	"github.com/go-interpreter/glulxc/glulx"
)

// buildImage assembles a minimal Glulx image containing a single function
// (tagged 0xC1, locals-argument mode) whose body is exactly body.
func buildImage(t *testing.T, body []byte) *glulx.Image {
	t.Helper()

	const headerLen = 56
	data := make([]byte, headerLen+1+len(body))
	copy(data[0:4], []byte("Glul"))

	ramStart := uint32(len(data))
	binary.BigEndian.PutUint32(data[8:12], ramStart)

	data[headerLen] = 0xC1 // function, arguments in locals
	copy(data[headerLen+1:], body)

	img, err := glulx.LoadImage(data)
	if err != nil {
		t.Fatalf("LoadImage: %v", err)
	}
	return img
}

// fnBody is the locals table (terminated by a (0,0) pair, zero locals) and
// instruction bytes for:
//
//	jz   local0, L2     ; 0x22 0x19 0x00 0x03
//	L1: nop              ; 0x00
//	L2: return #0        ; 0x31 0x00
//
// jz's branch offset 3 resolves to next_pc(L1) + 3 - 2 == L2, skipping the
// nop.
var fnBody = []byte{
	0x00, 0x00, // locals terminator
	0x22, 0x19, 0x00, 0x03, // jz local0, +3
	0x00,       // nop
	0x31, 0x00, // return #0
}

func TestDisassembleBasicBlocks(t *testing.T) {
	img := buildImage(t, fnBody)
	defer img.Close()

	res, err := disasm.Disassemble(img)
	if err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
	if len(res.Functions) != 1 {
		t.Fatalf("expected 1 function, got %d", len(res.Functions))
	}

	const entry uint32 = 56 // the 0xC1 tag's own address
	fn, ok := res.Functions[entry]
	if !ok {
		t.Fatalf("no function at entry %#x; have %v", entry, res.Functions)
	}
	if fn.ArgumentMode != glulx.ArgumentsLocals {
		t.Fatalf("expected ArgumentsLocals, got %v", fn.ArgumentMode)
	}
	if fn.Locals != 0 {
		t.Fatalf("expected 0 locals, got %d", fn.Locals)
	}

	// jz (conditional branch, constant target) ends its own block, and
	// the nop following it is a separate block that jz's target skips
	// over, so there should be 3 blocks: {jz}, {nop}, {return}.
	if len(fn.BlockOrder) != 3 {
		t.Fatalf("expected 3 basic blocks, got %d: %v", len(fn.BlockOrder), fn.BlockOrder)
	}

	jzBlock := fn.Blocks[fn.BlockOrder[0]]
	if len(jzBlock.Instructions) != 1 {
		t.Fatalf("expected jz alone in its block, got %d instructions", len(jzBlock.Instructions))
	}
	end := jzBlock.End()
	if end.Branch.Kind != glulx.Branches {
		t.Fatalf("expected jz to be a conditional Branch, got %v", end.Branch.Kind)
	}
	if end.Branch.Target.Kind != glulx.BranchAbsolute {
		t.Fatalf("expected a resolved absolute branch target, got %v", end.Branch.Target.Kind)
	}

	returnBlock := fn.Blocks[end.Branch.Target.Addr]
	if returnBlock == nil {
		t.Fatalf("jz's target %#x is not a known block start", end.Branch.Target.Addr)
	}
	if returnBlock.End().Opcode != 0x31 {
		t.Fatalf("expected jz's target block to start with return, got opcode %#x", returnBlock.End().Opcode)
	}
}

func TestDisassembleUnknownOpcode(t *testing.T) {
	// 0x05 is not an assigned Glulx opcode.
	img := buildImage(t, []byte{0x00, 0x00, 0x05})
	defer img.Close()

	if _, err := disasm.Disassemble(img); err == nil {
		t.Fatal("expected a decode error for an unknown opcode")
	}
}

func TestDisassembleStorerDiscard(t *testing.T) {
	// add #5, #3 -> discard: opcode 0x10, types 0x11 (both operand0/1
	// are 1-byte constants) then 0x00 (operand2, the storer, is the
	// constant-0 mode: discard), values 5 and 3, then return #0.
	body := []byte{
		0x00, 0x00, // locals terminator
		0x10, 0x11, 0x00, 0x05, 0x03, // add #5, #3 -> discard
		0x31, 0x00, // return #0
	}
	img := buildImage(t, body)
	defer img.Close()

	res, err := disasm.Disassemble(img)
	if err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
	const entry uint32 = 56
	fn := res.Functions[entry]
	addInstr := fn.Blocks[fn.BlockOrder[0]].Instructions[0]
	if addInstr.Storer == nil {
		t.Fatal("expected add to have a storer")
	}
	if addInstr.Storer.Kind != glulx.OperandDiscard {
		t.Fatalf("expected a discard storer, got %v", addInstr.Storer.Kind)
	}
}
