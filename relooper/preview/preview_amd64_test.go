// Copyright 2021 The glulxtoc Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build amd64 && gc
// +build amd64,gc

package preview_test

import (
	"testing"

	"github.com/go-interpreter/glulxc/relooper"
	"github.com/go-interpreter/glulxc/relooper/preview"
)

func TestAssembleStraightLine(t *testing.T) {
	blocks := map[relooper.Label][]relooper.Label{0: {1}, 1: {2}, 2: {}}
	shape := relooper.Reloop(blocks, 0)

	stub, err := preview.Assemble(shape)
	if err != nil {
		t.Fatal(err)
	}
	if stub.Blocks != 3 {
		t.Errorf("expected 3 blocks emitted, got %d", stub.Blocks)
	}
	if len(stub.Code) == 0 {
		t.Errorf("expected non-empty assembled code")
	}
}

func TestAssembleLoop(t *testing.T) {
	blocks := map[relooper.Label][]relooper.Label{
		0: {1}, 1: {2}, 2: {3}, 3: {1},
	}
	shape := relooper.Reloop(blocks, 0)

	stub, err := preview.Assemble(shape)
	if err != nil {
		t.Fatal(err)
	}
	// 4 basic blocks plus the synthetic loop header NOP.
	if stub.Blocks != 5 {
		t.Errorf("expected 5 blocks emitted (4 basic + 1 loop header), got %d", stub.Blocks)
	}
}
