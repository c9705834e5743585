// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hw

const (
	NumVoltPerDiv  = 7  // volt/div settings, 0 (least sensitive) .. 6 (most sensitive)
	NumHWRanges    = 6  // analog ranges; setting 6 reuses range 5
	NumTimePerDiv  = 24 // time/div settings, 0 (slowest) .. 23 (fastest)
	NumSampleRates = 18 // sample rates, 0 (fastest) .. 17 (slowest)
)

// SampleRateHz is the effective sample rate of an interleaved channel
// buffer for each sample-rate index.
var SampleRateHz = [NumSampleRates]uint32{
	200_000_000, 100_000_000, 50_000_000, 20_000_000, 10_000_000,
	5_000_000, 2_000_000, 1_000_000, 500_000, 200_000,
	100_000, 50_000, 20_000, 10_000, 5_000,
	2_000, 1_000, 500,
}

// VoltPerDivMilli is the vertical sensitivity of each volt/div setting,
// in millivolts per division.
var VoltPerDivMilli = [NumVoltPerDiv]uint32{5000, 2500, 1000, 500, 200, 100, 50}

// CodesPerDivX100 is the number of ADC codes spanned by one division
// (times 100) at each volt/div setting. Setting 6 runs the analog front
// end at range 5, so a division only spans half the codes.
var CodesPerDivX100 = [NumVoltPerDiv]uint32{3125, 3125, 2500, 3125, 2500, 2500, 1250}

// HWRange returns the analog range used for a volt/div setting.
func HWRange(vpd uint8) uint8 {
	if vpd >= NumHWRanges {
		return NumHWRanges - 1
	}
	return vpd
}
