// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scope

// scale converts an ADC code into a signed pixel offset from the
// trace position, at the display volt/div.
func scale(code int, sampleVPD, displayVPD uint8) int {
	v := ((code - midCode) * gainQ21[sampleVPD]) >> 21
	if displayVPD != sampleVPD {
		v = v * displayRatio[displayVPD][sampleVPD] / 10000
	}
	return v
}

// unscale is the inverse of scale: it converts a pixel offset from the
// trace position into an ADC code, clamped to 0..255.
func unscale(px int, sampleVPD, displayVPD uint8) int {
	if displayVPD != sampleVPD {
		px = px * 10000 / displayRatio[displayVPD][sampleVPD]
	}
	v := midCode + (px<<21)/gainQ21[sampleVPD]
	return clamp(v, 0, 255)
}

// height returns the height of a code above the bottom of the trace
// area, clamped to [0, TraceHeight].
func (ch *Channel) height(code int) int {
	return clamp(scale(code, ch.SampleVPD, ch.DisplayVPD)+ch.Position, 0, TraceHeight)
}

// ProjectY returns the screen row of a code of channel ch.
// The result lies in [TraceTop, TraceBottom].
func ProjectY(ch *Channel, code byte) int {
	return TraceBottom - ch.height(int(code))
}

// ProjectX returns the screen column of a code of channel ch used as
// the X axis in X-Y mode. The result lies in [TraceLeft, TraceRight].
func ProjectX(ch *Channel, code byte) int {
	v := scale(int(code), ch.SampleVPD, ch.DisplayVPD) + ch.Position + xyOffset
	return TraceLeft + clamp(v, 0, TraceWidth)
}

// levelOf returns the trigger level matching a trigger pointer height
// for channel ch.
func levelOf(ch *Channel, vpos int) uint16 {
	return uint16(unscale(vpos-ch.Position, ch.SampleVPD, ch.DisplayVPD))
}

// fifty centers the trigger level on the last capture of the trigger
// channel and moves the trigger pointer accordingly.
func (set *Settings) fifty() {
	ch := &set.Channels[set.Trigger.Channel]
	set.Trigger.Level = uint16(ch.Stats.Center)
	set.Trigger.VPos = ch.height(ch.Stats.Center)
}
