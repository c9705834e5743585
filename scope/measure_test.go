// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scope

import (
	"math"
	"testing"
)

func TestMeasure(t *testing.T) {
	set := DefaultSettings()
	set.NumSamples = SampleCount
	ch := &set.Channels[0]
	ch.SampleVPD = 5 // 4mV per code
	ch.Stats = Stats{
		Min:        78,
		Max:        178,
		Avg:        128,
		RMS:        50,
		PeakPeak:   100,
		Center:     128,
		FreqValid:  true,
		Freq:       1000,
		PeriodX256: 1000 << 8,
		Period:     1_000_000,
		High:       250_000,
		Low:        750_000,
	}

	for _, tc := range []struct {
		kind Kind
		want float64
		str  string
	}{
		{VMax, 0.2, "CH1 Vmax 200mV"},
		{VMin, -0.2, "CH1 Vmin -200mV"},
		{VAvg, 0, "CH1 Vavg 0V"},
		{VRMS, 0.2, "CH1 Vrms 200mV"},
		{VPP, 0.4, "CH1 Vpp 400mV"},
		{VP, 0.2, "CH1 Vp 200mV"},
		{Frequency, 1000, "CH1 Freq 1kHz"},
		{Period, 1e-3, "CH1 Period 1ms"},
		{DutyPositive, 25, "CH1 Duty+ 25.0%"},
		{DutyNegative, 75, "CH1 Duty- 75.0%"},
	} {
		t.Run(tc.kind.String(), func(t *testing.T) {
			m := set.Measure(0, tc.kind)
			if !m.Valid {
				t.Fatalf("invalid measurement")
			}
			if math.Abs(m.Value-tc.want) > 1e-9 {
				t.Fatalf("invalid value: got=%v, want=%v", m.Value, tc.want)
			}
			if got := m.String(); got != tc.str {
				t.Fatalf("invalid string: got=%q, want=%q", got, tc.str)
			}
		})
	}

	ch.Magnification = X10
	if got, want := set.Measure(0, VPP).Value, 4.0; math.Abs(got-want) > 1e-9 {
		t.Fatalf("invalid x10 value: got=%v, want=%v", got, want)
	}

	ch.Stats.FreqValid = false
	if m := set.Measure(0, Frequency); m.Valid {
		t.Fatalf("unexpected valid frequency")
	}
	if got, want := set.Measure(0, Frequency).String(), "CH1 Freq ?"; got != want {
		t.Fatalf("invalid string: got=%q, want=%q", got, want)
	}
	if m := set.Measure(1, VPP); m.Valid {
		t.Fatalf("unexpected valid measurement on disabled channel")
	}
	if m := set.Measure(2, VPP); m.Valid {
		t.Fatalf("unexpected valid measurement on invalid channel")
	}
}

func TestMeasurements(t *testing.T) {
	set := DefaultSettings()
	ms := set.Measurements()
	if got, want := len(ms), 4; got != want {
		t.Fatalf("invalid number of measurements: got=%d, want=%d", got, want)
	}
	if ms[1].Kind != Frequency || ms[2].Channel != 1 {
		t.Fatalf("invalid measurement slots: %+v", ms)
	}
}

func TestFormatSI(t *testing.T) {
	for _, tc := range []struct {
		v    float64
		unit string
		want string
	}{
		{0, "V", "0V"},
		{1, "V", "1V"},
		{1.5, "V", "1.5V"},
		{-0.25, "V", "-250mV"},
		{12.34, "V", "12.3V"},
		{0.004, "V", "4mV"},
		{2.5e-6, "s", "2.5us"},
		{20e-9, "s", "20ns"},
		{999, "Hz", "999Hz"},
		{1234, "Hz", "1.23kHz"},
		{50e6, "Hz", "50MHz"},
		{2e9, "Hz", "2GHz"},
	} {
		got := FormatSI(tc.v, tc.unit)
		if got != tc.want {
			t.Fatalf("invalid format of %v: got=%q, want=%q", tc.v, got, tc.want)
		}
	}
}
