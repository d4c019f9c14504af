// Copyright 2021 The glulxtoc Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package disasm

import (
	"github.com/go-interpreter/glulxc/glulx"
	"github.com/go-interpreter/glulxc/glulx/opcodes"
)

// decodeInstruction decodes a single instruction at c's current position:
// a variable-length opcode, a packed operand-type table, then the
// operands themselves.
func decodeInstruction(c *cursor) (*glulx.Instruction, error) {
	addr := c.pos

	opcode, err := decodeOpcode(c)
	if err != nil {
		return nil, &DecodeError{Addr: addr, Err: err}
	}

	operandCount, err := opcodes.OperandCount(opcode)
	if err != nil {
		return nil, &DecodeError{Addr: addr, Err: err}
	}

	types := make([]byte, 0, operandCount+1)
	for len(types) < operandCount {
		b, err := c.u8()
		if err != nil {
			return nil, &DecodeError{Addr: addr, Err: err}
		}
		types = append(types, b&0x0F, b>>4)
	}

	operands := make([]glulx.Operand, operandCount)
	for i := 0; i < operandCount; i++ {
		op, err := decodeOperand(c, types[i])
		if err != nil {
			return nil, &DecodeError{Addr: addr, Err: err}
		}
		operands[i] = op
	}

	instr := &glulx.Instruction{
		Addr:     addr,
		Opcode:   opcode,
		Operands: operands,
		Safety:   opcodes.Safety(opcode, operands),
	}

	applyStorers(instr)

	instr.Next = c.pos
	instr.Branch = decodeBranch(opcode, operands, instr.Next)

	return instr, nil
}

// decodeOpcode reads the variable-length opcode field: a one, two, or
// four byte value, first byte most significant, whose length is chosen by
// the top two bits of the first byte.
func decodeOpcode(c *cursor) (uint32, error) {
	b0, err := c.u8()
	if err != nil {
		return 0, err
	}
	switch {
	case b0 <= 0x7F:
		return uint32(b0), nil
	case b0 <= 0xBF:
		b1, err := c.u8()
		if err != nil {
			return 0, err
		}
		return (uint32(b0&0x3F) << 8) | uint32(b1), nil
	default:
		b1, err := c.u8()
		if err != nil {
			return 0, err
		}
		rest, err := c.u16()
		if err != nil {
			return 0, err
		}
		return (uint32(b0&0x3F) << 24) | (uint32(b1) << 16) | rest, nil
	}
}

// decodeOperand decodes one operand given its type nibble: constants,
// stack references, and memory/local/RAM addresses each carry their own
// width, which the nibble itself selects.
func decodeOperand(c *cursor, mode byte) (glulx.Operand, error) {
	switch mode {
	case 0:
		return glulx.Operand{Kind: glulx.OperandConstant, Const: 0}, nil
	case 1:
		v, err := c.i8()
		return glulx.Operand{Kind: glulx.OperandConstant, Const: v}, err
	case 2:
		v, err := c.i16()
		return glulx.Operand{Kind: glulx.OperandConstant, Const: v}, err
	case 3:
		v, err := c.i32()
		return glulx.Operand{Kind: glulx.OperandConstant, Const: v}, err
	case 5:
		v, err := c.u8()
		return glulx.Operand{Kind: glulx.OperandMemory, Addr: uint32(v)}, err
	case 6:
		v, err := c.u16()
		return glulx.Operand{Kind: glulx.OperandMemory, Addr: v}, err
	case 7:
		v, err := c.u32()
		return glulx.Operand{Kind: glulx.OperandMemory, Addr: v}, err
	case 8:
		return glulx.Operand{Kind: glulx.OperandStack}, nil
	case 9:
		v, err := c.u8()
		return glulx.Operand{Kind: glulx.OperandLocal, Addr: uint32(v)}, err
	case 10:
		v, err := c.u16()
		return glulx.Operand{Kind: glulx.OperandLocal, Addr: v}, err
	case 11:
		v, err := c.u32()
		return glulx.Operand{Kind: glulx.OperandLocal, Addr: v}, err
	case 13:
		v, err := c.u8()
		return glulx.Operand{Kind: glulx.OperandRAM, Addr: c.img.RebaseRAM(uint32(v))}, err
	case 14:
		v, err := c.u16()
		return glulx.Operand{Kind: glulx.OperandRAM, Addr: c.img.RebaseRAM(v)}, err
	case 15:
		v, err := c.u32()
		return glulx.Operand{Kind: glulx.OperandRAM, Addr: c.img.RebaseRAM(v)}, err
	default:
		return glulx.Operand{}, InvalidOperandModeError(mode)
	}
}

// applyStorers reclassifies the trailing one or two operands of a
// store-producing opcode as Instruction.Storer/Storer2. A storer that
// decoded as a constant becomes a discard marker: its side effects are
// still evaluated, but the result is thrown away.
func applyStorers(instr *glulx.Instruction) {
	n := storerCount(instr.Opcode)
	if n == 0 {
		return
	}
	tail := instr.Operands[len(instr.Operands)-n:]
	for i := range tail {
		if tail[i].Kind == glulx.OperandConstant {
			tail[i] = glulx.Operand{Kind: glulx.OperandDiscard}
		}
	}
	instr.Storer = &tail[0]
	if n == 2 {
		instr.Storer2 = &tail[1]
	}
}

// decodeBranch builds the Branch descriptor for an instruction. next is
// the address of the following instruction, used to resolve the Glulx
// branch-offset convention (an offset of 0 or 1 means return rather than
// jump; anything else is relative to next).
func decodeBranch(opcode uint32, operands []glulx.Operand, next uint32) glulx.Branch {
	if !opcodes.IsBranch(opcode) {
		return glulx.Branch{Kind: glulx.DoesNotBranch}
	}

	kind := glulx.Branches
	if opcode == opcodes.JUMP || opcode == opcodes.JUMPABS {
		kind = glulx.Jumps
	}

	last := operands[len(operands)-1]
	if last.Kind != glulx.OperandConstant {
		return glulx.Branch{Kind: kind, Target: glulx.BranchTarget{Kind: glulx.BranchDynamic}}
	}

	if opcode == opcodes.JUMPABS {
		// jumpabs targets an absolute address directly; it does not use
		// the offset convention the other branch opcodes share.
		return glulx.Branch{Kind: kind, Target: glulx.BranchTarget{Kind: glulx.BranchAbsolute, Addr: uint32(last.Const)}}
	}

	return glulx.Branch{Kind: kind, Target: opcodes.BranchTarget(last.Const, next)}
}
