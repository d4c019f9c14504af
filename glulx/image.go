// Copyright 2021 The glulxtoc Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package glulx provides the data model for a Glulx virtual-machine image:
// the immutable byte image itself, the tagged operand/branch/safety types,
// and the per-function representation that the disassembler (package
// disasm) and relooper (package relooper) operate on.
package glulx

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
)

// Magic is the four byte signature that begins every Glulx image.
var Magic = [4]byte{'G', 'l', 'u', 'l'}

// CodeStart is the fixed byte offset at which object scanning begins,
// matching glulxdump's own convention.
const CodeStart = 56

// Image is an immutable, 32-bit-addressed byte slice: a loaded Glulx story
// file. RAMStart divides the read-only ROM (code, strings) from the
// mutable RAM region; only the ROM is scanned for functions.
type Image struct {
	data     []byte
	mapped   mmap.MMap
	RAMStart uint32

	// FunctionNames is an optional address->name table supplied by the
	// caller (e.g. parsed from a third-party debug-info format). It is
	// never populated by this package; see glulx.Image.FunctionName.
	FunctionNames map[uint32]string
}

// LoadImage wraps an in-memory byte slice as an Image, validating the
// header.
func LoadImage(data []byte) (*Image, error) {
	if len(data) < CodeStart {
		return nil, ErrTruncatedImage
	}
	if [4]byte{data[0], data[1], data[2], data[3]} != Magic {
		return nil, ErrInvalidMagic
	}
	ramStart := binary.BigEndian.Uint32(data[8:12])
	logger.Printf("loaded image: %d bytes, RAMSTART=%#x", len(data), ramStart)
	return &Image{data: data, RAMStart: ramStart}, nil
}

// LoadImageFile memory-maps the story file at path instead of reading it
// into a heap-allocated slice, since story files can run into the tens of
// megabytes and are read far more than they are written. Call Close when
// done with the returned Image.
func LoadImageFile(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("glulx: mmap %s: %w", path, err)
	}
	img, err := LoadImage([]byte(m))
	if err != nil {
		m.Unmap()
		return nil, err
	}
	img.mapped = m
	return img, nil
}

// Close unmaps the image if it was opened with LoadImageFile. It is a
// no-op for images constructed with LoadImage.
func (img *Image) Close() error {
	if img.mapped != nil {
		return img.mapped.Unmap()
	}
	return nil
}

// Len returns the size of the image in bytes.
func (img *Image) Len() int {
	return len(img.data)
}

// Byte reads a single byte at addr.
func (img *Image) Byte(addr uint32) (byte, error) {
	if int(addr) >= len(img.data) {
		return 0, OutOfRangeError{Addr: addr, Size: 1, Len: len(img.data)}
	}
	return img.data[addr], nil
}

// Word32 reads a big-endian 32-bit word at addr, as GlulxState.read_addr
// does in the original implementation.
func (img *Image) Word32(addr uint32) (uint32, error) {
	if int(addr)+4 > len(img.data) {
		return 0, OutOfRangeError{Addr: addr, Size: 4, Len: len(img.data)}
	}
	return binary.BigEndian.Uint32(img.data[addr : addr+4]), nil
}

// RebaseRAM adds RAMStart to a RAM-relative offset, as required for
// Operand{Kind: OperandRAM} operands.
func (img *Image) RebaseRAM(offset uint32) uint32 {
	return img.RAMStart + offset
}

// FunctionName returns a human-readable name for addr: the caller-supplied
// name if FunctionNames has one, otherwise a hex fallback. It never
// dereferences a nil FunctionNames map.
func (img *Image) FunctionName(addr uint32) string {
	if img.FunctionNames != nil {
		if name, ok := img.FunctionNames[addr]; ok {
			return name
		}
	}
	return fmt.Sprintf("func_%#x", addr)
}
