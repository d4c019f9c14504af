// Copyright 2021 The glulxtoc Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package opcodes holds the Glulx opcode table: the numeric opcode
// constants, their operand counts, and per-opcode safety classification.
// It is the analog of wagon's wasm/operators package.
package opcodes

import (
	"errors"
	"fmt"
)

// Opcode constants, values per the Glulx specification.
const (
	NOP = 0x00

	ADD     = 0x10
	SUB     = 0x11
	MUL     = 0x12
	DIV     = 0x13
	MOD     = 0x14
	NEG     = 0x15
	BITAND  = 0x18
	BITOR   = 0x19
	BITXOR  = 0x1A
	BITNOT  = 0x1B
	SHIFTL  = 0x1C
	SSHIFTR = 0x1D
	USHIFTR = 0x1E

	JUMP = 0x20
	JZ   = 0x22
	JNZ  = 0x23
	JEQ  = 0x24
	JNE  = 0x25
	JLT  = 0x26
	JGE  = 0x27
	JGT  = 0x28
	JLE  = 0x29
	JLTU = 0x2A
	JGEU = 0x2B
	JGTU = 0x2C
	JLEU = 0x2D

	CALL     = 0x30
	RETURN   = 0x31
	CATCH    = 0x32
	THROW    = 0x33
	TAILCALL = 0x34

	COPY  = 0x40
	COPYS = 0x41
	COPYB = 0x42
	SEXS  = 0x44
	SEXB  = 0x45

	ALOAD     = 0x48
	ALOADS    = 0x49
	ALOADB    = 0x4A
	ALOADBIT  = 0x4B
	ASTORE    = 0x4C
	ASTORES   = 0x4D
	ASTOREB   = 0x4E
	ASTOREBIT = 0x4F

	STKCOUNT = 0x50
	STKPEEK  = 0x51
	STKSWAP  = 0x52
	STKROLL  = 0x53
	STKCOPY  = 0x54

	STREAMCHAR    = 0x70
	STREAMNUM     = 0x71
	STREAMSTR     = 0x72
	STREAMUNICHAR = 0x73

	GESTALT    = 0x100
	DEBUGTRAP  = 0x101
	GETMEMSIZE = 0x102
	SETMEMSIZE = 0x103
	JUMPABS    = 0x104

	RANDOM    = 0x110
	SETRANDOM = 0x111

	QUIT        = 0x120
	VERIFY      = 0x121
	RESTART     = 0x122
	SAVE        = 0x123
	RESTORE     = 0x124
	SAVEUNDO    = 0x125
	RESTOREUNDO = 0x126
	PROTECT     = 0x127

	GLK = 0x130

	GETSTRINGTBL = 0x140
	SETSTRINGTBL = 0x141
	GETIOSYS     = 0x148
	SETIOSYS     = 0x149

	LINEARSEARCH = 0x150
	BINARYSEARCH = 0x151
	LINKEDSEARCH = 0x152

	CALLF    = 0x160
	CALLFI   = 0x161
	CALLFII  = 0x162
	CALLFIII = 0x163

	MZERO  = 0x170
	MCOPY  = 0x171
	MALLOC = 0x178
	MFREE  = 0x179

	ACCELFUNC  = 0x180
	ACCELPARAM = 0x181

	NUMTOF  = 0x190
	FTONUMZ = 0x191
	FTONUMN = 0x192
	CEIL    = 0x198
	FLOOR   = 0x199

	FADD = 0x1A0
	FSUB = 0x1A1
	FMUL = 0x1A2
	FDIV = 0x1A3
	FMOD = 0x1A4
	SQRT = 0x1A8
	EXP  = 0x1A9
	LOG  = 0x1AA
	POW  = 0x1AB

	SIN   = 0x1B0
	COS   = 0x1B1
	TAN   = 0x1B2
	ASIN  = 0x1B3
	ACOS  = 0x1B4
	ATAN  = 0x1B5
	ATAN2 = 0x1B6

	JFEQ   = 0x1C0
	JFNE   = 0x1C1
	JFLT   = 0x1C2
	JFLE   = 0x1C3
	JFGT   = 0x1C4
	JFGE   = 0x1C5
	JISNAN = 0x1C8
	JISINF = 0x1C9
)

// names maps opcode values to their mnemonic, used only for diagnostics
// (error messages, CLI dumps); it is not consulted by the decoder.
var names = map[uint32]string{
	NOP: "nop",

	ADD: "add", SUB: "sub", MUL: "mul", DIV: "div", MOD: "mod", NEG: "neg",
	BITAND: "bitand", BITOR: "bitor", BITXOR: "bitxor", BITNOT: "bitnot",
	SHIFTL: "shiftl", SSHIFTR: "sshiftr", USHIFTR: "ushiftr",

	JUMP: "jump", JZ: "jz", JNZ: "jnz", JEQ: "jeq", JNE: "jne",
	JLT: "jlt", JGE: "jge", JGT: "jgt", JLE: "jle",
	JLTU: "jltu", JGEU: "jgeu", JGTU: "jgtu", JLEU: "jleu",

	CALL: "call", RETURN: "return", CATCH: "catch", THROW: "throw", TAILCALL: "tailcall",

	COPY: "copy", COPYS: "copys", COPYB: "copyb", SEXS: "sexs", SEXB: "sexb",

	ALOAD: "aload", ALOADS: "aloads", ALOADB: "aloadb", ALOADBIT: "aloadbit",
	ASTORE: "astore", ASTORES: "astores", ASTOREB: "astoreb", ASTOREBIT: "astorebit",

	STKCOUNT: "stkcount", STKPEEK: "stkpeek", STKSWAP: "stkswap", STKROLL: "stkroll", STKCOPY: "stkcopy",

	STREAMCHAR: "streamchar", STREAMNUM: "streamnum", STREAMSTR: "streamstr", STREAMUNICHAR: "streamunichar",

	GESTALT: "gestalt", DEBUGTRAP: "debugtrap", GETMEMSIZE: "getmemsize", SETMEMSIZE: "setmemsize", JUMPABS: "jumpabs",

	RANDOM: "random", SETRANDOM: "setrandom",

	QUIT: "quit", VERIFY: "verify", RESTART: "restart", SAVE: "save", RESTORE: "restore",
	SAVEUNDO: "saveundo", RESTOREUNDO: "restoreundo", PROTECT: "protect",

	GLK: "glk",

	GETSTRINGTBL: "getstringtbl", SETSTRINGTBL: "setstringtbl", GETIOSYS: "getiosys", SETIOSYS: "setiosys",

	LINEARSEARCH: "linearsearch", BINARYSEARCH: "binarysearch", LINKEDSEARCH: "linkedsearch",

	CALLF: "callf", CALLFI: "callfi", CALLFII: "callfii", CALLFIII: "callfiii",

	MZERO: "mzero", MCOPY: "mcopy", MALLOC: "malloc", MFREE: "mfree",

	ACCELFUNC: "accelfunc", ACCELPARAM: "accelparam",

	NUMTOF: "numtof", FTONUMZ: "ftonumz", FTONUMN: "ftonumn", CEIL: "ceil", FLOOR: "floor",

	FADD: "fadd", FSUB: "fsub", FMUL: "fmul", FDIV: "fdiv", FMOD: "fmod",
	SQRT: "sqrt", EXP: "exp", LOG: "log", POW: "pow",

	SIN: "sin", COS: "cos", TAN: "tan", ASIN: "asin", ACOS: "acos", ATAN: "atan", ATAN2: "atan2",

	JFEQ: "jfeq", JFNE: "jfne", JFLT: "jflt", JFLE: "jfle", JFGT: "jfgt", JFGE: "jfge",
	JISNAN: "jisnan", JISINF: "jisinf",
}

// ErrUnknownOpcode is returned by OperandCount for any opcode value this
// table does not recognize.
var ErrUnknownOpcode = errors.New("opcodes: unknown opcode")

// Name returns the mnemonic for an opcode, or a hex fallback if unknown.
func Name(code uint32) string {
	if n, ok := names[code]; ok {
		return n
	}
	return fmt.Sprintf("opcode_%#x", code)
}

// OperandCount returns how many operands the given opcode takes, per the
// fixed table in the Glulx specification. It also serves as the decoder's
// only validity check for opcode values: an unrecognized opcode is a fatal
// decode error.
func OperandCount(code uint32) (int, error) {
	switch {
	case code == NOP || code == STKSWAP || code == QUIT || code == RESTART:
		return 0, nil

	case code == JUMP || code == RETURN || code == STKCOUNT || code == STKCOPY ||
		inRange(code, STREAMCHAR, STREAMUNICHAR) || code == DEBUGTRAP || code == GETMEMSIZE ||
		code == JUMPABS || code == SETRANDOM || code == VERIFY || code == SAVEUNDO || code == RESTOREUNDO ||
		code == GETSTRINGTBL || code == SETSTRINGTBL || code == MFREE:
		return 1, nil

	case code == NEG || code == BITNOT || code == JZ || code == JNZ ||
		inRange(code, CATCH, TAILCALL) ||
		inRange(code, COPY, SEXB) ||
		code == STKPEEK || code == STKROLL || code == CALLF || code == SETMEMSIZE ||
		code == RANDOM || code == SAVE || code == RESTORE || code == PROTECT ||
		code == GETIOSYS || code == SETIOSYS || code == MZERO || code == MALLOC ||
		code == ACCELFUNC || code == ACCELPARAM ||
		inRange(code, NUMTOF, FLOOR) || inRange(code, SQRT, LOG) || inRange(code, SIN, ATAN) ||
		code == JISNAN || code == JISINF:
		return 2, nil

	case inRange(code, ADD, MOD) || inRange(code, BITAND, BITXOR) || inRange(code, SHIFTL, USHIFTR) ||
		inRange(code, JEQ, CALL) || inRange(code, ALOAD, ASTOREBIT) ||
		code == GESTALT || code == GLK || code == CALLFI || code == MCOPY ||
		inRange(code, FADD, FDIV) || code == POW || code == ATAN2 ||
		inRange(code, JFLT, JFGE):
		return 3, nil

	case code == CALLFII || code == FMOD || code == JFEQ || code == JFNE:
		return 4, nil

	case code == CALLFIII:
		return 5, nil

	case code == LINKEDSEARCH:
		return 7, nil

	case code == LINEARSEARCH || code == BINARYSEARCH:
		return 8, nil

	default:
		return 0, fmt.Errorf("%w: %#x", ErrUnknownOpcode, code)
	}
}

func inRange(code, low, high uint32) bool {
	return code >= low && code <= high
}
