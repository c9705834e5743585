// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package display

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"tinygo.org/x/drivers"
)

// Image is an in-memory pixel sink.
type Image struct {
	img *image.RGBA
}

var _ drivers.Displayer = (*Image)(nil)

// NewImage returns a black image of the provided size.
func NewImage(w, h int) *Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(colorBG), image.Point{}, draw.Src)
	return &Image{img: img}
}

func (im *Image) Size() (x, y int16) {
	b := im.img.Bounds()
	return int16(b.Dx()), int16(b.Dy())
}

func (im *Image) SetPixel(x, y int16, c color.RGBA) {
	im.img.SetRGBA(int(x), int(y), c)
}

func (im *Image) Display() error { return nil }

func (im *Image) FillRectangle(x, y, width, height int16, c color.RGBA) error {
	r := image.Rect(int(x), int(y), int(x)+int(width), int(y)+int(height))
	draw.Draw(im.img, r.Intersect(im.img.Bounds()), image.NewUniform(c), image.Point{}, draw.Src)
	return nil
}

// At returns the color of the pixel at (x, y).
func (im *Image) At(x, y int) color.RGBA {
	return im.img.RGBAAt(x, y)
}

// RGBA returns the underlying image.
func (im *Image) RGBA() *image.RGBA {
	return im.img
}

// EncodePNG writes the image as a PNG stream.
func (im *Image) EncodePNG(w io.Writer) error {
	err := png.Encode(w, im.img)
	if err != nil {
		return fmt.Errorf("display: could not encode PNG: %w", err)
	}
	return nil
}
