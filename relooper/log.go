// Copyright 2021 The glulxtoc Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package relooper

import (
	"log"
	"os"
)

// PrintDebugInfo turns on tracing of loop discovery and shaping to stderr.
var PrintDebugInfo = false

var logger = log.New(debugWriter{}, "", log.Lshortfile)

// debugWriter forwards to stderr while PrintDebugInfo is set and discards
// otherwise, so the switch takes effect whenever it is changed.
type debugWriter struct{}

func (debugWriter) Write(p []byte) (int, error) {
	if !PrintDebugInfo {
		return len(p), nil
	}
	return os.Stderr.Write(p)
}
