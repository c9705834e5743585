// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scope

import (
	"github.com/go-lpc/dso/hw"
)

const (
	SampleCount = hw.NumADCs * hw.HalfSamples // codes per channel buffer
	PointCap    = 730                         // capacity of a rendered polyline
	XYSamples   = 730                         // samples plotted in X-Y mode

	PixelsPerDiv = 50

	TraceLeft   = 2
	TraceWidth  = 720
	TraceRight  = TraceLeft + TraceWidth
	TraceTop    = 47
	TraceHeight = 401
	TraceBottom = TraceTop + TraceHeight

	xyOffset = 165 // horizontal shift of the X axis in X-Y mode

	MinPosition = 15
	MaxPosition = 399

	midCode = 128
)

// gainQ21 is the number of pixels per ADC code for each volt/div
// setting, in Q21 fixed point: 50 pixels per division over
// hw.CodesPerDivX100 codes.
var gainQ21 = [hw.NumVoltPerDiv]int{
	3355443, // 5V     : 1.6 px/code
	3355443, // 2.5V   : 1.6 px/code
	4194304, // 1V     : 2.0 px/code
	3355443, // 500mV  : 1.6 px/code
	4194304, // 200mV  : 2.0 px/code
	4194304, // 100mV  : 2.0 px/code
	8388608, // 50mV   : 4.0 px/code
}

// displayRatio[display][sample] rescales a trace captured at the sample
// volt/div to the displayed volt/div, in ten-thousandths.
var displayRatio = func() (tbl [hw.NumVoltPerDiv][hw.NumVoltPerDiv]int) {
	for d := range tbl {
		for s := range tbl[d] {
			tbl[d][s] = int(hw.VoltPerDivMilli[s] * 10000 / hw.VoltPerDivMilli[d])
		}
	}
	return tbl
}()

// timePerDivNs is the horizontal sweep of each time/div setting,
// in nanoseconds per division.
var timePerDivNs = [hw.NumTimePerDiv]uint64{
	500_000_000, 200_000_000, 100_000_000, 50_000_000, 20_000_000, 10_000_000,
	5_000_000, 2_000_000, 1_000_000, 500_000, 200_000, 100_000,
	50_000, 20_000, 10_000, 5_000, 2_000, 1_000,
	500, 200, 100, 50, 20, 10,
}

// frequencyPerDiv is the reciprocal of timePerDivNs, in divisions per second.
var frequencyPerDiv = func() (tbl [hw.NumTimePerDiv]uint64) {
	for i, ns := range timePerDivNs {
		tbl[i] = 1_000_000_000 / ns
	}
	return tbl
}()

// timeDivSampleRate binds each time/div setting to its sample rate.
var timeDivSampleRate = [hw.NumTimePerDiv]uint8{
	17, 16, 15, 14, 13, 12, 11, 10, 9, 8, 7, 6,
	5, 4, 3, 2, 1, 0, 0, 0, 0, 0, 0, 0,
}

// SampleRateFor returns the sample-rate index bound to a time/div setting.
func SampleRateFor(tdiv uint8) uint8 {
	if int(tdiv) >= len(timeDivSampleRate) {
		tdiv = hw.NumTimePerDiv - 1
	}
	return timeDivSampleRate[tdiv]
}

// TimePerDivNs returns the sweep of a time/div setting, in ns per division.
func TimePerDivNs(tdiv uint8) uint64 {
	if int(tdiv) >= len(timePerDivNs) {
		tdiv = hw.NumTimePerDiv - 1
	}
	return timePerDivNs[tdiv]
}

// auto-setup frequency probing.
var (
	// autoRates are the sample rates probed for a valid frequency,
	// fastest first: 1MSa/s, 100kSa/s, 10kSa/s, 1kSa/s.
	autoRates = [4]uint8{7, 10, 13, 16}

	// autoTimeFactor converts a period in samples at the matching
	// autoRates entry into the time of three periods, in ns.
	autoTimeFactor = [4]uint64{3 * 1_000, 3 * 10_000, 3 * 100_000, 3 * 1_000_000}

	// autoThresholds is the time spanned by the trace width at each
	// time/div setting, in ns. Descending.
	autoThresholds = func() (tbl [hw.NumTimePerDiv]uint64) {
		for i, ns := range timePerDivNs {
			tbl[i] = ns * TraceWidth / PixelsPerDiv
		}
		return tbl
	}()
)

const autoDefaultTimePerDiv = 12

// calibration sweep settings, as time/div indices.
var (
	calSweep  = [2]uint8{13, 3} // fast (20us/div) and slow (50ms/div) pairs
	calVerify = uint8(8)        // 1ms/div
)
