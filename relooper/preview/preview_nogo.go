// Copyright 2021 The glulxtoc Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !amd64 || !gc
// +build !amd64 !gc

package preview

import "github.com/go-interpreter/glulxc/relooper"

// Assemble always fails: the native preview backend assembles real amd64
// instructions, so it is only built for amd64 under the standard gc
// toolchain.
func Assemble(shape *relooper.ShapedBlock) (*Stub, error) {
	return nil, ErrNativePreviewUnavailable
}
