// Copyright 2021 The glulxtoc Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package glulx

import (
	"errors"
	"fmt"
)

// ErrInvalidMagic is returned when an image does not begin with the 'Glul'
// magic number.
var ErrInvalidMagic = errors.New("glulx: invalid magic number")

// ErrTruncatedImage is returned when the image is too short to contain a
// full header.
var ErrTruncatedImage = errors.New("glulx: truncated image")

// OutOfRangeError is returned when a read falls outside the bounds of the
// image.
type OutOfRangeError struct {
	Addr uint32
	Size int
	Len  int
}

func (e OutOfRangeError) Error() string {
	return fmt.Sprintf("glulx: read of %d bytes at address %#x is out of range (image length %d)", e.Size, e.Addr, e.Len)
}
