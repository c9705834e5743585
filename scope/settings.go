// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scope

import (
	"fmt"

	"github.com/go-lpc/dso/hw"
)

// NumSlots is the number of on-screen measurement slots.
const NumSlots = 12

// Trigger holds the trigger configuration.
type Trigger struct {
	Mode    hw.TriggerMode
	Edge    hw.Edge
	Channel int
	Level   uint16 // raw ADC code
	HPos    int    // horizontal pointer, screen x
	VPos    int    // vertical pointer, pixels above the bottom of the trace area
}

// Cursors holds the measurement cursors.
type Cursors struct {
	TimeOn  bool
	T1, T2  int // screen x
	VoltOn  bool
	V1, V2  int // pixels above the bottom of the trace area
	Channel int // channel the volt cursors refer to
}

// Slot is an on-screen measurement slot.
type Slot struct {
	On      bool
	Channel int
	Kind    Kind
}

// Settings is the complete state of the instrument.
type Settings struct {
	Channels [hw.NumChannels]Channel
	Trigger  Trigger

	TimePerDiv uint8 // 0 (slowest) .. 23 (fastest)
	SampleRate uint8 // 0 (fastest) .. 17 (slowest)

	Running     bool
	AlwaysFifty bool
	XY          bool

	Cursors Cursors
	Slots   [NumSlots]Slot

	NumSamples int // valid codes in the channel buffers
}

// DefaultSettings returns the factory settings of the instrument.
func DefaultSettings() Settings {
	var set Settings
	for i := range set.Channels {
		ch := &set.Channels[i]
		ch.Enabled = i == 0
		ch.Coupling = hw.DC
		ch.Magnification = X1
		ch.DisplayVPD = 3
		ch.SampleVPD = 3
		ch.Position = 200
		for v := range ch.Cal.DCOffset {
			ch.Cal.DCOffset[v] = 850
		}
	}
	set.Channels[0].Position = 300
	set.Channels[1].Position = 100

	set.Trigger = Trigger{
		Mode:    hw.Auto,
		Edge:    hw.Rising,
		Channel: 0,
		Level:   midCode,
		HPos:    TraceLeft + TraceWidth/2,
	}
	set.Trigger.VPos = set.Channels[0].Position

	set.TimePerDiv = autoDefaultTimePerDiv
	set.SampleRate = SampleRateFor(set.TimePerDiv)
	set.Running = true

	set.Cursors = Cursors{
		T1: TraceLeft + 3*PixelsPerDiv,
		T2: TraceRight - 3*PixelsPerDiv,
		V1: 300,
		V2: 100,
	}

	set.Slots[0] = Slot{On: true, Channel: 0, Kind: VPP}
	set.Slots[1] = Slot{On: true, Channel: 0, Kind: Frequency}
	set.Slots[2] = Slot{On: true, Channel: 1, Kind: VPP}
	set.Slots[3] = Slot{On: true, Channel: 1, Kind: Frequency}
	return set
}

// Validate checks the invariants of the settings.
func (set *Settings) Validate() error {
	for i := range set.Channels {
		ch := &set.Channels[i]
		if !ch.valid() {
			return fmt.Errorf("scope: invalid channel %d settings (vpd=%d/%d, mag=%d, pos=%d)",
				i+1, ch.SampleVPD, ch.DisplayVPD, ch.Magnification, ch.Position,
			)
		}
	}
	trg := &set.Trigger
	switch {
	case trg.Channel < 0 || trg.Channel >= hw.NumChannels:
		return fmt.Errorf("scope: invalid trigger channel %d", trg.Channel)
	case trg.Mode > hw.Normal:
		return fmt.Errorf("scope: invalid trigger mode %d", trg.Mode)
	case trg.Edge > hw.Falling:
		return fmt.Errorf("scope: invalid trigger edge %d", trg.Edge)
	case trg.Level > 255:
		return fmt.Errorf("scope: invalid trigger level %d", trg.Level)
	case trg.HPos < TraceLeft || trg.HPos > TraceRight:
		return fmt.Errorf("scope: invalid trigger position %d", trg.HPos)
	case trg.VPos < 0 || trg.VPos > TraceHeight:
		return fmt.Errorf("scope: invalid trigger level position %d", trg.VPos)
	}
	if set.TimePerDiv >= hw.NumTimePerDiv {
		return fmt.Errorf("scope: invalid time/div %d", set.TimePerDiv)
	}
	if set.SampleRate >= hw.NumSampleRates {
		return fmt.Errorf("scope: invalid sample rate %d", set.SampleRate)
	}
	for i, slot := range set.Slots {
		if slot.Channel < 0 || slot.Channel >= hw.NumChannels || slot.Kind >= numKinds {
			return fmt.Errorf("scope: invalid measurement slot %d", i)
		}
	}
	cur := &set.Cursors
	if c := cur.Channel; c < 0 || c >= hw.NumChannels {
		return fmt.Errorf("scope: invalid cursor channel %d", c)
	}
	for _, x := range [...]int{cur.T1, cur.T2} {
		if x < TraceLeft || x > TraceRight {
			return fmt.Errorf("scope: invalid time cursor %d", x)
		}
	}
	for _, y := range [...]int{cur.V1, cur.V2} {
		if y < 0 || y > TraceHeight {
			return fmt.Errorf("scope: invalid volt cursor %d", y)
		}
	}
	return nil
}
