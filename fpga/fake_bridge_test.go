// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fpga

import (
	"encoding/binary"
	"fmt"
	"sync"
	"testing"

	"github.com/go-lpc/dso/hw"
	"github.com/go-lpc/dso/internal/mmap"
)

// newFakeBridge returns a device over an in-memory register window.
func newFakeBridge() (*Device, []byte) {
	mem := make([]byte, Span)
	return New(mmap.From(mem)), mem
}

func word(mem []byte, off int64) uint32 {
	return binary.LittleEndian.Uint32(mem[off:])
}

func putWord(mem []byte, off int64, v uint32) {
	binary.LittleEndian.PutUint32(mem[off:], v)
}

// fillRAM fills the sample RAM of one ADC with f(i).
func fillRAM(mem []byte, ch int, adc hw.ADC, f func(i int) byte) {
	beg := ramAddr(ch, adc)
	for i := 0; i < RAMSize; i++ {
		mem[beg+int64(i)] = f(i)
	}
}

// wrap replaces the reads of reg with the scripted values.
func wrap(t *testing.T, mu *sync.Mutex, reg *reg32, name string, vs []uint32) {
	t.Helper()
	var (
		i int
		r = reg.r
	)
	reg.r = func() uint32 {
		_ = r()
		mu.Lock()
		defer mu.Unlock()
		if i >= len(vs) {
			t.Errorf("%s: script exhausted after %d reads", name, i)
			return 0
		}
		v := vs[i]
		i++
		return v
	}
}

// flaky fails the n-th register access.
type flaky struct {
	rwer
	n int
}

func (f *flaky) fail() bool {
	f.n--
	return f.n == 0
}

func (f *flaky) ReadAt(p []byte, off int64) (int, error) {
	if f.fail() {
		return 0, fmt.Errorf("bus error")
	}
	return f.rwer.ReadAt(p, off)
}

func (f *flaky) WriteAt(p []byte, off int64) (int, error) {
	if f.fail() {
		return 0, fmt.Errorf("bus error")
	}
	return f.rwer.WriteAt(p, off)
}
