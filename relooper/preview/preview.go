// Copyright 2021 The glulxtoc Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package preview offers a structural sanity check on a shaped block tree:
// it assembles a trivial amd64 stub that walks the tree in the order the
// relooper produced it: one NOP per Simple block and per loop header, and
// one unconditional jump closing each loop back to its header. No jump is
// emitted for a block's Next, Immediate or Branches targets. It never executes
// interpreter semantics and never calls into the stub it builds; a working
// emitter is free to ignore this package entirely. Its only purpose is to
// confirm, without a C compiler in the loop, that the tree the relooper
// handed back is assemblable in order - a building block away from
// checking the emitter's eventual output is well-formed.
package preview

import "errors"

// ErrNativePreviewUnavailable is returned by Assemble on platforms where
// the native backend was not compiled in (see preview_nogo.go).
var ErrNativePreviewUnavailable = errors.New("preview: native backend unavailable on this platform")

// Stub is the result of assembling one function's shaped block tree: raw
// machine code plus the number of blocks it covers. It is never invoked;
// callers that want to confirm it is well-formed can hand it to an
// out-of-process disassembler.
type Stub struct {
	Code   []byte
	Blocks int
}
