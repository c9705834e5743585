// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scope

import (
	"github.com/go-lpc/dso/hw"
)

// Magnification is the probe attenuation of a channel.
type Magnification uint8

const (
	X1 Magnification = iota
	X10
	X100
)

// Factor returns the multiplier applied to displayed voltages.
func (m Magnification) Factor() int64 {
	switch m {
	case X10:
		return 10
	case X100:
		return 100
	}
	return 1
}

// Calibration is the DC calibration table of a channel.
type Calibration struct {
	// DCOffset holds, per volt/div setting, the offset register value
	// centering the ADC. Slot 6 duplicates slot 5.
	DCOffset [hw.NumVoltPerDiv]uint16
	ADC1Comp int16 // code correction added to ADC1 samples
	ADC2Comp int16 // code correction added to ADC2 samples
}

// Stats are the statistics of the last capture of a channel.
// Levels are raw ADC codes.
type Stats struct {
	Min      int
	Max      int
	Avg      int
	RMS      int // around mid-scale
	PeakPeak int
	Center   int

	FreqValid  bool
	Freq       uint32 // Hz
	PeriodX256 uint32 // period, in samples, Q8
	Period     uint64 // ns
	High       uint64 // ns
	Low        uint64 // ns
}

// Channel is the model of one analog channel.
type Channel struct {
	Enabled       bool
	Coupling      hw.Coupling
	Magnification Magnification
	DisplayVPD    uint8 // volt/div used for rendering
	SampleVPD     uint8 // volt/div programmed into the front end
	Position      int   // trace position, in pixels above the bottom of the trace area
	FFT           bool

	Cal Calibration

	Stats   Stats
	Samples [SampleCount]byte // ADC1 codes at even, ADC2 codes at odd indices
}

// setPosition clamps and stores the trace position.
func (ch *Channel) setPosition(pos int) {
	ch.Position = clamp(pos, MinPosition, MaxPosition)
}

// offset returns the DC offset register value for the current
// sample volt/div.
func (ch *Channel) offset() uint16 {
	return ch.Cal.DCOffset[ch.SampleVPD]
}

func (ch *Channel) valid() bool {
	return ch.SampleVPD < hw.NumVoltPerDiv &&
		ch.DisplayVPD < hw.NumVoltPerDiv &&
		ch.Magnification <= X100 &&
		ch.Position >= MinPosition && ch.Position <= MaxPosition
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampCode(v int) byte {
	return byte(clamp(v, 0, 255))
}
