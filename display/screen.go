// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package display

import (
	"image"
	"io"
	"sync"

	"github.com/go-lpc/dso/scope"
)

// Screen is a scope.Sink painting into an off-screen buffer.
// Frames are published once fully painted and may be read from other
// goroutines while the scope is running.
type Screen struct {
	back  *Image
	paint *Painter

	mu     sync.RWMutex
	front  *Image
	top    []string
	bottom []string
	frames int
}

var _ scope.Sink = (*Screen)(nil)

// NewScreen returns a Width x Height screen.
func NewScreen() *Screen {
	back := NewImage(Width, Height)
	return &Screen{
		back:  back,
		paint: NewPainter(back),
		front: NewImage(Width, Height),
	}
}

func (scr *Screen) Show(frm *scope.Frame, set *scope.Settings) error {
	err := scr.paint.Show(frm, set)
	if err != nil {
		return err
	}
	top, bottom := Readouts(set)

	scr.mu.Lock()
	defer scr.mu.Unlock()
	copy(scr.front.img.Pix, scr.back.img.Pix)
	scr.top, scr.bottom = top, bottom
	scr.frames++
	return nil
}

// Frames returns the number of frames published so far.
func (scr *Screen) Frames() int {
	scr.mu.RLock()
	defer scr.mu.RUnlock()
	return scr.frames
}

// Readouts returns the text readouts of the last published frame.
func (scr *Screen) Readouts() (top, bottom []string) {
	scr.mu.RLock()
	defer scr.mu.RUnlock()
	return append([]string(nil), scr.top...), append([]string(nil), scr.bottom...)
}

// CopyTo copies the pixels of the last published frame into dst,
// which must be at least Width x Height.
func (scr *Screen) CopyTo(dst *image.RGBA) {
	scr.mu.RLock()
	defer scr.mu.RUnlock()
	src := scr.front.img
	for y := 0; y < Height; y++ {
		i := dst.PixOffset(0, y)
		j := src.PixOffset(0, y)
		copy(dst.Pix[i:i+4*Width], src.Pix[j:j+4*Width])
	}
}

// EncodePNG writes the last published frame as a PNG stream.
func (scr *Screen) EncodePNG(w io.Writer) error {
	scr.mu.RLock()
	defer scr.mu.RUnlock()
	return scr.front.EncodePNG(w)
}
