// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package display paints rendered scope frames on a pixel display.
package display // import "github.com/go-lpc/dso/display"

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/go-lpc/dso/hw"
	"github.com/go-lpc/dso/scope"
	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
)

const (
	Width  = 800
	Height = 480
)

var (
	colorBG      = color.RGBA{R: 0x00, G: 0x00, B: 0x00, A: 0xff}
	colorText    = color.RGBA{R: 0xee, G: 0xee, B: 0xee, A: 0xff}
	colorDim     = color.RGBA{R: 0x88, G: 0x88, B: 0x88, A: 0xff}
	colorGrid    = color.RGBA{R: 0x50, G: 0x50, B: 0x50, A: 0xff}
	colorTrigger = color.RGBA{R: 0xff, G: 0x80, B: 0x20, A: 0xff}
	colorCursor  = color.RGBA{R: 0xff, G: 0xdd, B: 0x66, A: 0xff}
	colorXY      = color.RGBA{R: 0xff, G: 0x40, B: 0xff, A: 0xff}

	colorChannel = [hw.NumChannels]color.RGBA{
		{R: 0xff, G: 0xff, B: 0x00, A: 0xff},
		{R: 0x00, G: 0xdd, B: 0xff, A: 0xff},
	}
)

// layout of the screen around the trace area.
const (
	gridDot    = 5 // spacing of the grid dots
	dashLen    = 4
	markerLen  = 8
	headerLine = 14
	textLeft   = 4
	footerY    = scope.TraceBottom + 20
)

type filler interface {
	FillRectangle(x, y, width, height int16, c color.RGBA) error
}

// Painter draws frames, pointers, cursors and readouts on a display.
type Painter struct {
	d    drivers.Displayer
	font tinyfont.Fonter
}

var _ scope.Sink = (*Painter)(nil)

func NewPainter(d drivers.Displayer) *Painter {
	return &Painter{
		d:    d,
		font: &tinyfont.TomThumb,
	}
}

// Show paints a frame and pushes it to the display.
func (p *Painter) Show(frm *scope.Frame, set *scope.Settings) error {
	p.clear()
	p.grid()
	p.cursors(set)
	for _, tr := range frm.Traces {
		c := colorXY
		if tr.Channel >= 0 && tr.Channel < hw.NumChannels {
			c = colorChannel[tr.Channel]
		}
		p.polyline(tr.Points, c)
	}
	p.pointers(frm, set)

	top, bottom := Readouts(set)
	for i, line := range top {
		p.text(textLeft, int16((i+1)*headerLine), colorText, line)
	}
	p.text(textLeft, footerY, colorText, strings.Join(bottom, "   "))

	err := p.d.Display()
	if err != nil {
		return fmt.Errorf("display: could not push frame: %w", err)
	}
	return nil
}

func (p *Painter) clear() {
	w, h := p.d.Size()
	p.fill(0, 0, w, h, colorBG)
}

func (p *Painter) fill(x, y, w, h int16, c color.RGBA) {
	if f, ok := p.d.(filler); ok {
		_ = f.FillRectangle(x, y, w, h, c)
		return
	}
	for j := y; j < y+h; j++ {
		for i := x; i < x+w; i++ {
			p.d.SetPixel(i, j, c)
		}
	}
}

// grid draws the divisions of the trace area as dotted lines, with a
// solid outline.
func (p *Painter) grid() {
	const (
		x0 = scope.TraceLeft
		x1 = scope.TraceRight
		y0 = scope.TraceTop
		y1 = scope.TraceBottom
	)
	for x := x0; x <= x1; x += scope.PixelsPerDiv {
		for y := y0; y <= y1; y += gridDot {
			p.d.SetPixel(int16(x), int16(y), colorGrid)
		}
	}
	for y := y1; y >= y0; y -= scope.PixelsPerDiv {
		for x := x0; x <= x1; x += gridDot {
			p.d.SetPixel(int16(x), int16(y), colorGrid)
		}
	}
	p.line(x0, y0, x1, y0, colorDim)
	p.line(x0, y1, x1, y1, colorDim)
	p.line(x0, y0, x0, y1, colorDim)
	p.line(x1, y0, x1, y1, colorDim)
}

func (p *Painter) cursors(set *scope.Settings) {
	cur := &set.Cursors
	if cur.TimeOn {
		for _, x := range []int{cur.T1, cur.T2} {
			for y := scope.TraceTop; y <= scope.TraceBottom; y++ {
				if ((y-scope.TraceTop)/dashLen)%2 == 0 {
					p.d.SetPixel(int16(x), int16(y), colorCursor)
				}
			}
		}
	}
	if cur.VoltOn {
		for _, v := range []int{cur.V1, cur.V2} {
			y := scope.TraceBottom - v
			for x := scope.TraceLeft; x <= scope.TraceRight; x++ {
				if ((x-scope.TraceLeft)/dashLen)%2 == 0 {
					p.d.SetPixel(int16(x), int16(y), colorCursor)
				}
			}
		}
	}
}

// pointers draws the trigger position marker above the trace area and
// the channel ground and trigger level markers on its right.
func (p *Painter) pointers(frm *scope.Frame, set *scope.Settings) {
	x := frm.TriggerX
	p.line(x, scope.TraceTop-markerLen, x, scope.TraceTop-1, colorTrigger)

	right := scope.TraceRight + 2
	for i := range set.Channels {
		ch := &set.Channels[i]
		if !ch.Enabled {
			continue
		}
		y := scope.TraceBottom - ch.Position
		p.line(right, y, right+markerLen, y, colorChannel[i])
	}
	if !set.XY {
		right += markerLen + 2
		p.line(right, frm.TriggerY, right+markerLen, frm.TriggerY, colorTrigger)
	}
}

func (p *Painter) polyline(pts []scope.Point, c color.RGBA) {
	switch len(pts) {
	case 0:
		return
	case 1:
		p.d.SetPixel(pts[0].X, pts[0].Y, c)
		return
	}
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		p.line(int(a.X), int(a.Y), int(b.X), int(b.Y), c)
	}
}

// line draws a segment with Bresenham's algorithm.
func (p *Painter) line(x0, y0, x1, y1 int, c color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		p.d.SetPixel(int16(x0), int16(y0), c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func (p *Painter) text(x, y int16, c color.RGBA, s string) {
	tinyfont.WriteLine(p.d, p.font, x, y, s, c)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Readouts returns the status lines shown above and below the trace area.
func Readouts(set *scope.Settings) (top, bottom []string) {
	var chans []string
	for i := range set.Channels {
		chans = append(chans, channelReadout(i, &set.Channels[i]))
	}

	state := "RUN"
	if !set.Running {
		state = "STOP"
	}
	trg := &set.Trigger
	tbase := scope.FormatSI(float64(scope.TimePerDivNs(set.TimePerDiv))/1e9, "s") + "/div"
	rate := scope.FormatSI(float64(hw.SampleRateHz[set.SampleRate]), "Sa/s")
	if set.XY {
		tbase = "X-Y"
	}

	top = []string{
		strings.Join(chans, "   "),
		fmt.Sprintf("%s %s   %s   TRIG CH%d %v %v %d", state, tbase, rate,
			trg.Channel+1, trg.Edge, trg.Mode, trg.Level,
		),
	}

	for _, m := range set.Measurements() {
		bottom = append(bottom, m.String())
	}
	cur := &set.Cursors
	if cur.TimeOn || cur.VoltOn {
		dt, dv := set.CursorDelta()
		if cur.TimeOn {
			bottom = append(bottom, "dT "+scope.FormatSI(dt.Seconds(), "s"))
		}
		if cur.VoltOn {
			bottom = append(bottom, fmt.Sprintf("dV(CH%d) %s", cur.Channel+1, scope.FormatSI(dv, "V")))
		}
	}
	return top, bottom
}

func channelReadout(i int, ch *scope.Channel) string {
	if !ch.Enabled {
		return fmt.Sprintf("CH%d off", i+1)
	}
	vpd := float64(hw.VoltPerDivMilli[ch.DisplayVPD]) / 1000 * float64(ch.Magnification.Factor())
	return fmt.Sprintf("CH%d %s/div %v x%d", i+1, scope.FormatSI(vpd, "V"), ch.Coupling, ch.Magnification.Factor())
}
