// Copyright 2021 The glulxtoc Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package glulx

import "fmt"

// OperandKind tags the shape of an Operand.
type OperandKind int

const (
	// OperandConstant holds a signed immediate encoded directly in the
	// instruction stream.
	OperandConstant OperandKind = iota
	// OperandMemory addresses main memory directly.
	OperandMemory
	// OperandStack refers to the top of the value stack.
	OperandStack
	// OperandLocal indexes the current function's locals.
	OperandLocal
	// OperandRAM addresses memory relative to RAMSTART.
	OperandRAM
	// OperandDiscard marks a storer operand that discards its result; the
	// expression must still be evaluated for side effects.
	OperandDiscard
)

func (k OperandKind) String() string {
	switch k {
	case OperandConstant:
		return "constant"
	case OperandMemory:
		return "memory"
	case OperandStack:
		return "stack"
	case OperandLocal:
		return "local"
	case OperandRAM:
		return "ram"
	case OperandDiscard:
		return "discard"
	default:
		return fmt.Sprintf("operandkind(%d)", int(k))
	}
}

// Operand is a decoded instruction operand: Constant(i32) | Memory(u32) |
// Stack | Local(u32) | RAM(u32).
type Operand struct {
	Kind  OperandKind
	Const int32  // valid when Kind == OperandConstant
	Addr  uint32 // valid when Kind is OperandMemory, OperandLocal or OperandRAM
}

func (o Operand) String() string {
	switch o.Kind {
	case OperandConstant:
		return fmt.Sprintf("#%d", o.Const)
	case OperandMemory:
		return fmt.Sprintf("mem[%#x]", o.Addr)
	case OperandStack:
		return "stack"
	case OperandLocal:
		return fmt.Sprintf("local[%d]", o.Addr)
	case OperandRAM:
		return fmt.Sprintf("ram[%#x]", o.Addr)
	case OperandDiscard:
		return "discard"
	default:
		return "?"
	}
}

// BranchTargetKind tags the shape of a BranchTarget.
type BranchTargetKind int

const (
	// BranchAbsolute targets another address in the image (within this
	// function, or the entry address of another function for a tail call).
	BranchAbsolute BranchTargetKind = iota
	// BranchReturn returns a constant value (0 or 1) instead of branching.
	BranchReturn
	// BranchDynamic targets a computed (non-constant) address.
	BranchDynamic
)

// BranchTarget is the resolved destination of a Branch.
type BranchTarget struct {
	Kind  BranchTargetKind
	Addr  uint32 // valid when Kind == BranchAbsolute
	Value int32  // valid when Kind == BranchReturn: 0 or 1
}

func (t BranchTarget) String() string {
	switch t.Kind {
	case BranchAbsolute:
		return fmt.Sprintf("%#x", t.Addr)
	case BranchReturn:
		return fmt.Sprintf("return(%d)", t.Value)
	case BranchDynamic:
		return "dynamic"
	default:
		return "?"
	}
}

// BranchKind tags the shape of a Branch.
type BranchKind int

const (
	// DoesNotBranch means control always falls through to the next
	// instruction.
	DoesNotBranch BranchKind = iota
	// Branches means the instruction may conditionally transfer control.
	Branches
	// Jumps means the instruction always transfers control.
	Jumps
)

// Branch is the control-transfer descriptor of an instruction.
type Branch struct {
	Kind   BranchKind
	Target BranchTarget // valid unless Kind == DoesNotBranch
}

// Safety is the three-valued safety lattice: Safe < SafetyTBD < Unsafe.
type Safety int

const (
	Safe Safety = iota
	SafetyTBD
	Unsafe
)

func (s Safety) String() string {
	switch s {
	case Safe:
		return "safe"
	case SafetyTBD:
		return "safety-tbd"
	case Unsafe:
		return "unsafe"
	default:
		return fmt.Sprintf("safety(%d)", int(s))
	}
}

// Join returns the least upper bound of s and other in the safety lattice.
// Propagation must only ever move a label up this lattice, never down.
func (s Safety) Join(other Safety) Safety {
	if other > s {
		return other
	}
	return s
}

// ArgumentMode says whether a function's arguments arrive on the stack or
// in its locals, per the 0xC0/0xC1 function-header byte.
type ArgumentMode int

const (
	ArgumentsStack ArgumentMode = iota
	ArgumentsLocals
)

// Instruction is one decoded Glulx instruction.
type Instruction struct {
	Addr     uint32
	Opcode   uint32
	Operands []Operand

	// Storer and Storer2 hold the final one or two operands of a
	// store-producing opcode (e.g. GETIOSYS, FMOD write two results);
	// nil when the opcode has no storer.
	Storer  *Operand
	Storer2 *Operand

	Branch Branch
	Safety Safety

	// Next is the address of the textually following instruction (used as
	// the fallthrough target and for basic-block construction).
	Next uint32
}

// BasicBlock is a maximal straight-line run of instructions with a single
// entry. It ends either at a branching instruction or just before an
// instruction that some branch targets, so its last instruction may not
// branch at all.
type BasicBlock struct {
	Start        uint32
	Instructions []*Instruction
}

// End returns the block's last instruction.
func (b *BasicBlock) End() *Instruction {
	if len(b.Instructions) == 0 {
		return nil
	}
	return b.Instructions[len(b.Instructions)-1]
}

// Function is a disassembled Glulx function, keyed by its entry address.
type Function struct {
	Addr         uint32
	ArgumentMode ArgumentMode
	Locals       uint32

	Blocks     map[uint32]*BasicBlock
	BlockOrder []uint32 // block start addresses in scan order, for deterministic iteration

	safety Safety
}

// Address returns the function's entry address (named to avoid colliding
// with the Addr field).
func (f *Function) Address() uint32 { return f.Addr }

// SetSafety replaces the function's safety label outright; unlike
// SetLabel, it can lower the label.
func (f *Function) SetSafety(s Safety) { f.safety = s }

// SetLabel satisfies safety.Node: it joins s into the function's current
// label so propagation can never downgrade it.
func (f *Function) SetLabel(s Safety) { f.safety = f.safety.Join(s) }

// Label satisfies safety.Node.
func (f *Function) Label() Safety { return f.safety }
