// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package wsum implements the 32-bit sum of little-endian 16-bit words
// used to checksum the settings block.
package wsum // import "github.com/go-lpc/dso/internal/wsum"

import (
	"encoding/binary"
	"hash"
)

// Size of a word-sum checksum in bytes.
const Size = 4

type digest struct {
	sum  uint32
	odd  bool
	last byte
}

// New creates a new hash.Hash32 computing the word-sum checksum.
// An odd trailing byte is summed as the low byte of a word.
func New() hash.Hash32 {
	return &digest{}
}

func (d *digest) Size() int      { return Size }
func (d *digest) BlockSize() int { return 2 }

func (d *digest) Reset() { *d = digest{} }

func (d *digest) Write(p []byte) (int, error) {
	n := len(p)
	if d.odd && len(p) > 0 {
		d.sum += uint32(d.last) | uint32(p[0])<<8
		d.odd = false
		p = p[1:]
	}
	for len(p) >= 2 {
		d.sum += uint32(binary.LittleEndian.Uint16(p))
		p = p[2:]
	}
	if len(p) == 1 {
		d.odd = true
		d.last = p[0]
	}
	return n, nil
}

func (d *digest) Sum32() uint32 {
	sum := d.sum
	if d.odd {
		sum += uint32(d.last)
	}
	return sum
}

func (d *digest) Sum(b []byte) []byte {
	return binary.LittleEndian.AppendUint32(b, d.Sum32())
}

// Checksum returns the word-sum of data.
func Checksum(data []byte) uint32 {
	var d digest
	_, _ = d.Write(data)
	return d.Sum32()
}
