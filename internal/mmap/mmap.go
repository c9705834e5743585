// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mmap provides a memory-mapped register window on the FPGA
// bridge of the acquisition board.
package mmap // import "github.com/go-lpc/dso/internal/mmap"

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"golang.org/x/sys/unix"
)

var (
	errClosed = errors.New("mmap: closed")
)

// Window is a byte-addressable view of a physical memory span.
type Window struct {
	f    *os.File
	data []byte
	base int64
}

// Open maps span bytes of the device file (usually /dev/mem) starting at
// the physical address base. base must be page aligned.
func Open(fname string, base int64, span int) (*Window, error) {
	if pg := int64(os.Getpagesize()); base%pg != 0 {
		return nil, fmt.Errorf("mmap: base address 0x%x not aligned on page size %d", base, pg)
	}
	if span <= 0 {
		return nil, fmt.Errorf("mmap: invalid span %d", span)
	}

	f, err := os.OpenFile(fname, os.O_RDWR|os.O_SYNC, 0666)
	if err != nil {
		return nil, fmt.Errorf("mmap: could not open %q: %w", fname, err)
	}

	data, err := unix.Mmap(
		int(f.Fd()), base, span,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_SHARED,
	)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("mmap: could not map 0x%x+0x%x of %q: %w", base, span, fname, err)
	}
	if len(data) != span {
		_ = unix.Munmap(data)
		_ = f.Close()
		return nil, fmt.Errorf("mmap: invalid mapped span: got=%d, want=%d", len(data), span)
	}

	w := &Window{f: f, data: data, base: base}
	runtime.SetFinalizer(w, (*Window).Close)
	return w, nil
}

// From returns a window over a plain memory buffer.
func From(data []byte) *Window {
	return &Window{data: data}
}

// Close unmaps the window and closes the underlying device file.
func (w *Window) Close() error {
	if w == nil {
		return os.ErrInvalid
	}
	if w.data == nil {
		return nil
	}
	data := w.data
	w.data = nil
	runtime.SetFinalizer(w, nil)

	if w.f == nil {
		return nil
	}
	err := unix.Munmap(data)
	if err != nil {
		_ = w.f.Close()
		return fmt.Errorf("mmap: could not unmap 0x%x: %w", w.base, err)
	}
	err = w.f.Close()
	if err != nil {
		return fmt.Errorf("mmap: could not close device file: %w", err)
	}
	return nil
}

// Len returns the size of the window.
func (w *Window) Len() int {
	return len(w.data)
}

// ReadAt implements the io.ReaderAt interface.
func (w *Window) ReadAt(p []byte, off int64) (int, error) {
	if w == nil {
		return 0, os.ErrInvalid
	}
	if w.data == nil {
		return 0, errClosed
	}
	if off < 0 || int64(len(w.data)) < off {
		return 0, fmt.Errorf("mmap: invalid ReadAt offset %d", off)
	}
	n := copy(p, w.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// WriteAt implements the io.WriterAt interface.
func (w *Window) WriteAt(p []byte, off int64) (int, error) {
	if w == nil {
		return 0, os.ErrInvalid
	}
	if w.data == nil {
		return 0, errClosed
	}
	if off < 0 || int64(len(w.data)) < off {
		return 0, fmt.Errorf("mmap: invalid WriteAt offset %d", off)
	}
	n := copy(w.data[off:], p)
	if n < len(p) {
		return n, io.ErrShortWrite
	}
	return n, nil
}

var (
	_ io.ReaderAt = (*Window)(nil)
	_ io.WriterAt = (*Window)(nil)
	_ io.Closer   = (*Window)(nil)
)
