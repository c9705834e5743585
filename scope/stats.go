// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scope

import (
	"github.com/go-lpc/dso/hw"
)

// computeStats fills st with the statistics of the codes in buf,
// sampled at the sample rate index rate.
//
// computeStats does not allocate.
func computeStats(st *Stats, buf []byte, rate uint8) {
	*st = Stats{}
	if len(buf) == 0 {
		return
	}

	var (
		lo  = 255
		hi  = 0
		sum = 0
		sq  = 0
	)
	for _, c := range buf {
		v := int(c)
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
		sum += v
		d := v - midCode
		sq += d * d
	}
	n := len(buf)
	st.Min = lo
	st.Max = hi
	st.Avg = sum / n
	st.RMS = isqrt(sq / n)
	st.PeakPeak = hi - lo
	st.Center = (hi + lo) / 2

	if st.PeakPeak < 8 {
		return
	}

	// rising/falling crossings, with hysteresis around the center.
	var (
		hyst    = st.PeakPeak / 8
		upper   = st.Center + hyst
		lower   = st.Center - hyst
		high    = int(buf[0]) >= upper
		first   = -1
		last    = -1
		rises   = 0
		hsum    = 0 // samples spent high after a counted rise
		hcount  = 0
		lastUp  = -1
		armedHi = false
	)
	for i, c := range buf {
		v := int(c)
		switch {
		case !high && v >= upper:
			high = true
			if first < 0 {
				first = i
			}
			last = i
			rises++
			lastUp = i
			armedHi = true
		case high && v <= lower:
			high = false
			if armedHi {
				hsum += i - lastUp
				hcount++
				armedHi = false
			}
		}
	}
	if rises < 2 {
		return
	}

	st.PeriodX256 = uint32(((last - first) << 8) / (rises - 1))
	if st.PeriodX256 == 0 {
		return
	}

	rateHz := uint64(hw.SampleRateHz[rate])
	st.FreqValid = true
	st.Freq = uint32(rateHz * 256 / uint64(st.PeriodX256))
	st.Period = uint64(st.PeriodX256) * 1_000_000_000 / (256 * rateHz)
	if hcount > 0 {
		st.High = uint64(hsum) * 1_000_000_000 / (uint64(hcount) * rateHz)
		if st.High > st.Period {
			st.High = st.Period
		}
	}
	st.Low = st.Period - st.High
}

// isqrt returns the integer square root of v.
func isqrt(v int) int {
	if v <= 0 {
		return 0
	}
	x := v
	y := (x + 1) / 2
	for y < x {
		x = y
		y = (x + v/x) / 2
	}
	return x
}
