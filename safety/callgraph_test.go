// Copyright 2021 The glulxtoc Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package safety_test

import (
	"reflect"
	"testing"

	"github.com/go-interpreter/glulxc/safety"
)

func TestCallGraphAddEdge(t *testing.T) {
	g := safety.NewCallGraph()
	g.AddEdge(1, 2)
	g.AddEdge(1, 3)
	g.AddEdge(2, 3)

	if got, want := g.Callees(1), []uint32{2, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("Callees(1) = %v, want %v", got, want)
	}
	if got := g.Callees(3); got != nil {
		t.Errorf("Callees(3) = %v, want nil (3 calls nothing)", got)
	}
	if got := g.Callees(99); got != nil {
		t.Errorf("Callees(99) = %v, want nil for an unknown caller", got)
	}
}
