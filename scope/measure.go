// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scope

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-lpc/dso/hw"
)

// Kind is the kind of a measurement.
type Kind uint8

const (
	VMax Kind = iota
	VMin
	VAvg
	VRMS
	VPP
	VP
	Frequency
	Period
	DutyPositive
	DutyNegative

	numKinds
)

var kindNames = [numKinds]string{
	VMax:         "Vmax",
	VMin:         "Vmin",
	VAvg:         "Vavg",
	VRMS:         "Vrms",
	VPP:          "Vpp",
	VP:           "Vp",
	Frequency:    "Freq",
	Period:       "Period",
	DutyPositive: "Duty+",
	DutyNegative: "Duty-",
}

func (k Kind) String() string {
	if k < numKinds {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

func (k Kind) unit() string {
	switch k {
	case Frequency:
		return "Hz"
	case Period:
		return "s"
	case DutyPositive, DutyNegative:
		return "%"
	}
	return "V"
}

// Measurement is a physical value derived from the statistics of a
// channel.
type Measurement struct {
	Channel int
	Kind    Kind
	Value   float64 // in V, Hz, s or %
	Valid   bool
}

func (m Measurement) String() string {
	name := fmt.Sprintf("CH%d %s", m.Channel+1, m.Kind)
	if !m.Valid {
		return name + " ?"
	}
	if m.Kind == DutyPositive || m.Kind == DutyNegative {
		return fmt.Sprintf("%s %.1f%%", name, m.Value)
	}
	return name + " " + FormatSI(m.Value, m.Kind.unit())
}

// voltsPerCode returns the input voltage of one ADC code of channel ch.
func (ch *Channel) voltsPerCode() float64 {
	vpd := ch.SampleVPD
	mv := float64(hw.VoltPerDivMilli[vpd]) * 100 / float64(hw.CodesPerDivX100[vpd])
	return mv / 1000 * float64(ch.Magnification.Factor())
}

// Measure computes the measurement kind on channel ch of the last capture.
func (set *Settings) Measure(ch int, kind Kind) Measurement {
	m := Measurement{Channel: ch, Kind: kind}
	if ch < 0 || ch >= hw.NumChannels {
		return m
	}
	c := &set.Channels[ch]
	if !c.Enabled || set.NumSamples == 0 {
		return m
	}
	var (
		st  = &c.Stats
		vpc = c.voltsPerCode()
	)
	m.Valid = true
	switch kind {
	case VMax:
		m.Value = float64(st.Max-midCode) * vpc
	case VMin:
		m.Value = float64(st.Min-midCode) * vpc
	case VAvg:
		m.Value = float64(st.Avg-midCode) * vpc
	case VRMS:
		m.Value = float64(st.RMS) * vpc
	case VPP:
		m.Value = float64(st.PeakPeak) * vpc
	case VP:
		m.Value = float64(st.PeakPeak) * vpc / 2
	case Frequency:
		m.Valid = st.FreqValid
		m.Value = float64(st.Freq)
	case Period:
		m.Valid = st.FreqValid
		m.Value = float64(st.Period) / 1e9
	case DutyPositive, DutyNegative:
		m.Valid = st.FreqValid && st.Period > 0
		if !m.Valid {
			break
		}
		t := st.High
		if kind == DutyNegative {
			t = st.Low
		}
		m.Value = 100 * float64(t) / float64(st.Period)
	default:
		m.Valid = false
	}
	return m
}

// Measurements returns the measurements of the enabled slots.
func (set *Settings) Measurements() []Measurement {
	var out []Measurement
	for _, slot := range set.Slots {
		if !slot.On {
			continue
		}
		out = append(out, set.Measure(slot.Channel, slot.Kind))
	}
	return out
}

// CursorDelta returns the time between the two time cursors and the
// voltage between the two volt cursors.
func (set *Settings) CursorDelta() (time.Duration, float64) {
	var (
		cur = &set.Cursors
		ch  = &set.Channels[cur.Channel]
		dx  = cur.T2 - cur.T1
		dy  = cur.V1 - cur.V2
	)
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	dt := time.Duration(uint64(dx) * TimePerDivNs(set.TimePerDiv) / PixelsPerDiv)
	dv := float64(dy) * float64(hw.VoltPerDivMilli[ch.DisplayVPD]) / PixelsPerDiv / 1000
	dv *= float64(ch.Magnification.Factor())
	return dt, dv
}

var siPrefixes = []struct {
	exp int
	sym string
}{
	{9, "G"}, {6, "M"}, {3, "k"}, {0, ""}, {-3, "m"}, {-6, "u"}, {-9, "n"},
}

// FormatSI formats v with 3 significant digits and an SI prefix.
func FormatSI(v float64, unit string) string {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return "0" + unit
	}
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	p := siPrefixes[len(siPrefixes)-1]
	for _, pp := range siPrefixes {
		if v >= math.Pow10(pp.exp) {
			p = pp
			break
		}
	}
	x := v / math.Pow10(p.exp)
	var s string
	switch {
	case x >= 100:
		s = fmt.Sprintf("%.0f", x)
	case x >= 10:
		s = fmt.Sprintf("%.1f", x)
	default:
		s = fmt.Sprintf("%.2f", x)
	}
	if strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	return sign + s + p.sym + unit
}
