// Copyright 2021 The glulxtoc Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package disasm

import "github.com/go-interpreter/glulxc/glulx/opcodes"

// storerCount returns how many of an opcode's trailing operands are
// storers (0, 1 or 2): the operands an instruction writes its result
// into, rather than reads from. GETIOSYS and FMOD are the only two
// opcodes in the Glulx instruction set with a second storer.
func storerCount(op uint32) int {
	switch op {
	case opcodes.GETIOSYS, opcodes.FMOD:
		return 2

	case opcodes.ADD, opcodes.SUB, opcodes.MUL, opcodes.DIV, opcodes.MOD, opcodes.NEG,
		opcodes.BITAND, opcodes.BITOR, opcodes.BITXOR, opcodes.BITNOT,
		opcodes.SHIFTL, opcodes.SSHIFTR, opcodes.USHIFTR,
		opcodes.COPY, opcodes.COPYS, opcodes.COPYB, opcodes.SEXS, opcodes.SEXB,
		opcodes.ALOAD, opcodes.ALOADS, opcodes.ALOADB, opcodes.ALOADBIT,
		opcodes.STKCOUNT, opcodes.STKPEEK,
		opcodes.GESTALT, opcodes.GETMEMSIZE, opcodes.SETMEMSIZE,
		opcodes.RANDOM, opcodes.GETSTRINGTBL,
		opcodes.CALL, opcodes.CALLF, opcodes.CALLFI, opcodes.CALLFII, opcodes.CALLFIII,
		opcodes.SAVE, opcodes.RESTORE, opcodes.SAVEUNDO, opcodes.RESTOREUNDO,
		opcodes.MALLOC,
		opcodes.NUMTOF, opcodes.FTONUMZ, opcodes.FTONUMN, opcodes.CEIL, opcodes.FLOOR,
		opcodes.SQRT, opcodes.EXP, opcodes.LOG,
		opcodes.SIN, opcodes.COS, opcodes.TAN, opcodes.ASIN, opcodes.ACOS, opcodes.ATAN,
		opcodes.FADD, opcodes.FSUB, opcodes.FMUL, opcodes.FDIV, opcodes.POW, opcodes.ATAN2,
		opcodes.GLK,
		opcodes.LINEARSEARCH, opcodes.BINARYSEARCH, opcodes.LINKEDSEARCH:
		return 1

	default:
		return 0
	}
}
