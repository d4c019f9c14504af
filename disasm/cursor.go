// Copyright 2021 The glulxtoc Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package disasm

import "github.com/go-interpreter/glulxc/glulx"

// cursor is a minimal big-endian byte reader over an Image, playing the
// role bytes.Reader plays for wagon's WebAssembly disassembler: a single
// forward-only read position threaded through instruction decoding.
type cursor struct {
	img *glulx.Image
	pos uint32
}

func (c *cursor) u8() (byte, error) {
	b, err := c.img.Byte(c.pos)
	if err != nil {
		return 0, err
	}
	c.pos++
	return b, nil
}

func (c *cursor) i8() (int32, error) {
	b, err := c.u8()
	if err != nil {
		return 0, err
	}
	return int32(int8(b)), nil
}

func (c *cursor) u16() (uint32, error) {
	hi, err := c.u8()
	if err != nil {
		return 0, err
	}
	lo, err := c.u8()
	if err != nil {
		return 0, err
	}
	return uint32(hi)<<8 | uint32(lo), nil
}

func (c *cursor) i16() (int32, error) {
	v, err := c.u16()
	if err != nil {
		return 0, err
	}
	return int32(int16(v)), nil
}

func (c *cursor) u32() (uint32, error) {
	hi, err := c.u16()
	if err != nil {
		return 0, err
	}
	lo, err := c.u16()
	if err != nil {
		return 0, err
	}
	return hi<<16 | lo, nil
}

func (c *cursor) i32() (int32, error) {
	v, err := c.u32()
	if err != nil {
		return 0, err
	}
	return int32(v), nil
}

// peek returns the byte at the current position without advancing.
func (c *cursor) peek() (byte, error) {
	return c.img.Byte(c.pos)
}
