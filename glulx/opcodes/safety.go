// Copyright 2021 The glulxtoc Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package opcodes

import "github.com/go-interpreter/glulxc/glulx"

// Safety classifies a single instruction: most opcodes are Safe; a
// handful that may suspend or unwind are SafetyTBD (their final safety
// depends on a callee, resolved later by package safety); QUIT and
// RESTART re-enter the VM loop and are always Unsafe; and any call or
// branch through a non-constant operand is Unsafe because its control
// flow cannot be statically reduced.
func Safety(code uint32, operands []glulx.Operand) glulx.Safety {
	switch code {
	case CATCH, THROW, RESTORE, RESTOREUNDO, GLK:
		return glulx.SafetyTBD

	case QUIT, RESTART:
		return glulx.Unsafe

	case CALL, TAILCALL, CALLF, CALLFI, CALLFII, CALLFIII:
		if len(operands) > 0 && operands[0].Kind == glulx.OperandConstant {
			return glulx.SafetyTBD
		}
		return glulx.Unsafe
	}

	if IsBranch(code) {
		last := operands[len(operands)-1]
		if last.Kind == glulx.OperandConstant {
			return glulx.Safe
		}
		return glulx.Unsafe
	}

	return glulx.Safe
}

// IsBranch reports whether the opcode's last operand is a branch offset.
func IsBranch(code uint32) bool {
	switch code {
	case JUMP, JZ, JNZ, JEQ, JNE, JLT, JGE, JGT, JLE, JLTU, JGEU, JGTU, JLEU,
		JUMPABS,
		JFEQ, JFNE, JFLT, JFLE, JFGT, JFGE, JISNAN, JISINF:
		return true
	default:
		return false
	}
}

// BranchTarget resolves the constant-valued last operand of a branch
// instruction to a BranchTarget, following Glulx's branch-offset
// convention (0 and 1 mean return false/true rather than jump; any other
// value is relative to nextPC, the address of the following instruction,
// biased by 2).
func BranchTarget(v int32, nextPC uint32) glulx.BranchTarget {
	switch v {
	case 0:
		return glulx.BranchTarget{Kind: glulx.BranchReturn, Value: 0}
	case 1:
		return glulx.BranchTarget{Kind: glulx.BranchReturn, Value: 1}
	default:
		return glulx.BranchTarget{Kind: glulx.BranchAbsolute, Addr: uint32(int64(nextPC) + int64(v) - 2)}
	}
}
