// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scope

import (
	"math"

	"github.com/go-lpc/dso/hw"
)

// Point is a vertex of a rendered trace, in screen coordinates.
type Point struct {
	X, Y int16
}

// Trace is the polyline of one channel.
// In X-Y mode, Channel is -1 and the polyline pairs channel 1 (X)
// with channel 2 (Y).
type Trace struct {
	Channel int
	Points  []Point
}

// Frame is the rendered image of the last capture.
type Frame struct {
	XY     bool
	Traces []Trace

	TriggerX int // screen column of the trigger pointer
	TriggerY int // screen row of the trigger level pointer

	TriggerIndex int  // sample index the traces are anchored on
	Found        bool // whether TriggerIndex comes from a located edge
}

type renderer struct {
	pts    [hw.NumChannels][PointCap]Point
	traces [hw.NumChannels]Trace
	frame  Frame
}

// window describes the sample-to-column mapping of one frame.
type window struct {
	xs, xe int     // first and last screen columns
	first  int     // sample index at column xs
	step   float64 // samples per column
}

// newWindow computes the sample-to-column mapping of the current time
// base around the trigger index trig, anchored on screen column trigX.
func newWindow(set *Settings, n, trig, trigX int) window {
	var (
		rate  = float64(hw.SampleRateHz[set.SampleRate])
		xPer  = PixelsPerDiv * float64(frequencyPerDiv[set.TimePerDiv]) / rate
		step  = 1 / xPer
		limit = float64(n / 2)
	)
	if step > limit {
		step = limit
	}

	half := int(float64(n) * xPer / 2)
	half = clamp(half, 1, TraceWidth+2)

	w := window{
		xs:   trigX - half,
		xe:   trigX + half,
		step: step,
	}
	if w.xs < TraceLeft {
		w.xs = TraceLeft
	}
	if w.xe > TraceRight {
		w.xe = TraceRight
	}
	w.first = trig - int(float64(trigX-w.xs)*step)
	if w.first < 0 {
		w.first = 0
	}
	return w
}

// walk emits the vertices of samples buf seen through window w.
// A vertex is emitted for the first column and whenever the sample
// index changes. When the last column falls between two samples, its
// value is interpolated.
func walk(dst []Point, buf []byte, w window, y func(code int) int) []Point {
	n := len(buf)
	dst = dst[:0]
	if n == 0 || w.first >= n || w.xe < w.xs {
		return dst
	}
	var (
		pos  = float64(w.first)
		last = w.first
	)
	dst = append(dst, Point{X: int16(w.xs), Y: int16(y(int(buf[last])))})
	for x := w.xs + 1; x <= w.xe; x++ {
		pos += w.step
		idx := int(pos)
		if idx >= n {
			break
		}
		if idx != last {
			last = idx
			dst = append(dst, Point{X: int16(x), Y: int16(y(int(buf[idx])))})
			continue
		}
		if x == w.xe && w.step < 1 && idx+1 < n {
			var (
				y0   = float64(y(int(buf[idx])))
				y1   = float64(y(int(buf[idx+1])))
				frac = pos - float64(idx)
			)
			yy := int(math.Round(y0 + (y1-y0)*frac))
			dst = append(dst, Point{X: int16(x), Y: int16(yy)})
		}
	}
	return dst
}

// Render projects the channel buffers onto the screen.
//
// The returned frame is owned by the scope and is only valid until the
// next call to Render.
func (sc *Scope) Render() (*Frame, error) {
	err := sc.enter(rendering)
	if err != nil {
		return nil, err
	}
	defer sc.leave()
	return sc.render(), nil
}

func (sc *Scope) render() *Frame {
	var (
		set = sc.set
		rnd = &sc.rnd
		frm = &rnd.frame
		trg = &set.Trigger
	)
	frm.XY = set.XY
	frm.Traces = rnd.traces[:0]
	frm.TriggerX = trg.HPos
	frm.TriggerY = TraceBottom - trg.VPos
	frm.TriggerIndex = sc.triggerIndex()
	frm.Found = sc.trig.found

	n := set.NumSamples
	if n <= 0 || n > SampleCount {
		return frm
	}

	if set.XY {
		frm.Traces = append(frm.Traces, Trace{
			Channel: -1,
			Points:  sc.renderXY(n, frm.TriggerIndex),
		})
		return frm
	}

	w := newWindow(set, n, frm.TriggerIndex, trg.HPos)
	for i := range set.Channels {
		ch := &set.Channels[i]
		if !ch.Enabled {
			continue
		}
		y := func(code int) int { return TraceBottom - ch.height(code) }
		frm.Traces = append(frm.Traces, Trace{
			Channel: i,
			Points:  walk(rnd.pts[i][:], ch.Samples[:n], w, y),
		})
	}
	return frm
}

// renderXY pairs XYSamples samples of channel 1 (X) and channel 2 (Y)
// centered on the trigger index.
func (sc *Scope) renderXY(n, trig int) []Point {
	var (
		chx = &sc.set.Channels[0]
		chy = &sc.set.Channels[1]
		dst = sc.rnd.pts[0][:0]
	)
	cnt := XYSamples
	if cnt > n {
		cnt = n
	}
	beg := clamp(trig-cnt/2, 0, n-cnt)
	for i := beg; i < beg+cnt; i++ {
		dst = append(dst, Point{
			X: int16(ProjectX(chx, chx.Samples[i])),
			Y: int16(ProjectY(chy, chy.Samples[i])),
		})
	}
	return dst
}
