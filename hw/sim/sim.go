// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sim provides a deterministic simulation of the oscilloscope
// FPGA front end, usable wherever a hw.Hardware is expected.
package sim // import "github.com/go-lpc/dso/hw/sim"

import (
	"fmt"
	"math"

	"github.com/go-lpc/dso/hw"
)

// Shape is the waveform shape of a simulated input.
type Shape uint8

const (
	Flat Shape = iota
	Square
	Sine
	Triangle
)

// Signal describes the analog signal fed to one channel.
type Signal struct {
	Shape     Shape
	Freq      float64 // Hz
	Amplitude float64 // peak amplitude, in mV
	Offset    float64 // DC component, in mV
	Duty      float64 // high fraction of a square period; 0 means 0.5
}

// value returns the signal voltage (mV) at time t (s).
func (sig Signal) value(t float64) float64 {
	if sig.Shape == Flat || sig.Freq <= 0 {
		return sig.Offset
	}
	ph := t*sig.Freq - math.Floor(t*sig.Freq)
	switch sig.Shape {
	case Square:
		duty := sig.Duty
		if duty <= 0 || duty >= 1 {
			duty = 0.5
		}
		if ph < duty {
			return sig.Offset + sig.Amplitude
		}
		return sig.Offset - sig.Amplitude
	case Sine:
		return sig.Offset + sig.Amplitude*math.Sin(2*math.Pi*ph)
	case Triangle:
		if ph < 0.5 {
			return sig.Offset + sig.Amplitude*(4*ph-1)
		}
		return sig.Offset + sig.Amplitude*(3-4*ph)
	}
	return sig.Offset
}

// Frontend describes the analog front end of one channel.
type Frontend struct {
	// Zero is, per analog range, the DC offset register value that puts
	// a grounded input at mid-scale code 128.
	Zero [hw.NumHWRanges]uint16
	// CodesPerStep is the ADC response to one DC offset register step.
	// Raising the offset register lowers the codes.
	CodesPerStep float64
	// Mismatch is a constant code error of each interleaved ADC.
	Mismatch [hw.NumADCs]int
}

// DefaultFrontend returns a front end with distinct per-range zeros
// and matched ADCs.
func DefaultFrontend() Frontend {
	return Frontend{
		Zero:         [hw.NumHWRanges]uint16{820, 835, 850, 865, 880, 895},
		CodesPerStep: 0.2,
	}
}

type channel struct {
	on       bool
	coupling hw.Coupling
	vpd      uint8
	offset   uint16
	signal   Signal
	fe       Frontend
}

// Device is a simulated FPGA front end.
//
// Device is not safe for concurrent use.
type Device struct {
	chans [hw.NumChannels]channel

	rate     uint8
	tbase    uint8
	trgMode  hw.TriggerMode
	trgEdge  hw.Edge
	trgChan  int
	trgLevel uint16
	smode    hw.SampleMode

	// ConvPolls is the number of ConversionDone polls a conversion takes.
	ConvPolls int
	// ReadErr, when set, is returned by ReadADC.
	ReadErr error

	armed   bool
	polls   int
	counter uint16  // free-running trigger-position counter
	origin  float64 // time of interleaved sample 0 of the sample RAM, in s
	convs   int
}

// New returns a simulated device with default front ends and flat,
// grounded inputs.
func New() *Device {
	dev := &Device{}
	for i := range dev.chans {
		dev.chans[i].fe = DefaultFrontend()
		dev.chans[i].offset = dev.chans[i].fe.Zero[0]
	}
	return dev
}

// SetSignal connects sig to the input of channel ch.
func (dev *Device) SetSignal(ch int, sig Signal) { dev.chans[ch].signal = sig }

// SetFrontend replaces the analog front end model of channel ch.
func (dev *Device) SetFrontend(ch int, fe Frontend) { dev.chans[ch].fe = fe }

// Frontend returns the analog front end model of channel ch.
func (dev *Device) Frontend(ch int) Frontend { return dev.chans[ch].fe }

// Offset returns the DC offset register of channel ch.
func (dev *Device) Offset(ch int) uint16 { return dev.chans[ch].offset }

// VoltPerDiv returns the volt/div register of channel ch.
func (dev *Device) VoltPerDiv(ch int) uint8 { return dev.chans[ch].vpd }

// Enabled reports whether channel ch is switched on.
func (dev *Device) Enabled(ch int) bool { return dev.chans[ch].on }

// SampleRate returns the sample-rate register.
func (dev *Device) SampleRate() uint8 { return dev.rate }

// TimeBase returns the time-base register.
func (dev *Device) TimeBase() uint8 { return dev.tbase }

// TriggerLevel returns the trigger-level register.
func (dev *Device) TriggerLevel() uint16 { return dev.trgLevel }

// TriggerMode returns the trigger-mode register.
func (dev *Device) TriggerMode() hw.TriggerMode { return dev.trgMode }

// Conversions returns the number of completed conversions.
func (dev *Device) Conversions() int { return dev.convs }

func (dev *Device) check(ch int) error {
	if ch < 0 || ch >= hw.NumChannels {
		return fmt.Errorf("sim: invalid channel %d", ch)
	}
	return nil
}

func (dev *Device) SetChannelEnable(ch int, on bool) error {
	if err := dev.check(ch); err != nil {
		return err
	}
	dev.chans[ch].on = on
	return nil
}

func (dev *Device) SetChannelCoupling(ch int, c hw.Coupling) error {
	if err := dev.check(ch); err != nil {
		return err
	}
	dev.chans[ch].coupling = c
	return nil
}

func (dev *Device) SetChannelVoltPerDiv(ch int, vpd uint8) error {
	if err := dev.check(ch); err != nil {
		return err
	}
	if vpd >= hw.NumVoltPerDiv {
		return fmt.Errorf("sim: invalid volt/div %d", vpd)
	}
	dev.chans[ch].vpd = vpd
	return nil
}

func (dev *Device) SetChannelOffset(ch int, offset uint16) error {
	if err := dev.check(ch); err != nil {
		return err
	}
	dev.chans[ch].offset = offset
	return nil
}

func (dev *Device) SetSampleRate(idx uint8) error {
	if idx >= hw.NumSampleRates {
		return fmt.Errorf("sim: invalid sample rate %d", idx)
	}
	dev.rate = idx
	return nil
}

func (dev *Device) SetTimeBase(idx uint8) error {
	if idx >= hw.NumTimePerDiv {
		return fmt.Errorf("sim: invalid time base %d", idx)
	}
	dev.tbase = idx
	return nil
}

func (dev *Device) SetTriggerMode(m hw.TriggerMode) error { dev.trgMode = m; return nil }
func (dev *Device) SetTriggerEdge(e hw.Edge) error        { dev.trgEdge = e; return nil }
func (dev *Device) SetTriggerLevel(lvl uint16) error      { dev.trgLevel = lvl; return nil }
func (dev *Device) SetSampleMode(m hw.SampleMode) error   { dev.smode = m; return nil }

func (dev *Device) SetTriggerChannel(ch int) error {
	if err := dev.check(ch); err != nil {
		return err
	}
	dev.trgChan = ch
	return nil
}

func (dev *Device) StartConversion() error {
	dev.armed = true
	dev.polls = 0
	// the counter free-runs between captures.
	dev.counter = (dev.counter + 1237) & hw.TriggerPointMax
	dev.origin += 0.00123456
	if dev.smode == hw.Triggered {
		dev.alignTrigger()
	}
	return nil
}

func (dev *Device) ConversionDone() (bool, error) {
	if !dev.armed {
		return false, fmt.Errorf("sim: conversion not started")
	}
	if dev.polls < dev.ConvPolls {
		dev.polls++
		return false, nil
	}
	dev.armed = false
	dev.convs++
	return true, nil
}

func (dev *Device) ReadTriggerPoint() (uint16, error) {
	return dev.counter, nil
}

func (dev *Device) ReadADC(ch int, adc hw.ADC, offset int, dst []byte) error {
	if err := dev.check(ch); err != nil {
		return err
	}
	if dev.ReadErr != nil {
		return dev.ReadErr
	}
	if adc >= hw.NumADCs {
		return fmt.Errorf("sim: invalid ADC %d", adc)
	}
	dt := 1 / float64(hw.SampleRateHz[dev.rate])
	for i := range dst {
		n := 2*(offset+i) + int(adc)
		dst[i] = dev.code(ch, adc, dev.origin+float64(n)*dt)
	}
	return nil
}

// code returns the ADC code of channel ch at time t.
func (dev *Device) code(ch int, adc hw.ADC, t float64) byte {
	c := &dev.chans[ch]
	if !c.on {
		return 128
	}
	var (
		rng = hw.HWRange(c.vpd)
		sig = c.signal
	)
	if c.coupling == hw.AC {
		sig.Offset = 0
	}
	codesPerMV := float64(hw.CodesPerDivX100[rng]) / 100 / float64(hw.VoltPerDivMilli[rng])
	v := 128 +
		math.Round(sig.value(t)*codesPerMV) +
		math.Round((float64(c.fe.Zero[rng])-float64(c.offset))*c.fe.CodesPerStep) +
		float64(c.fe.Mismatch[adc])
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	}
	return byte(v)
}

// captureOffset converts the trigger-position counter into the sample
// RAM offset of the window handed back to the host.
func captureOffset(counter uint16) int {
	if counter < 750 {
		return int(counter) + 3345
	}
	return int(counter) - 750
}

// alignTrigger moves the time origin so that the middle of the capture
// window sits on an edge of the trigger source.
func (dev *Device) alignTrigger() {
	c := &dev.chans[dev.trgChan]
	if !c.on || c.signal.Shape == Flat || c.signal.Freq <= 0 {
		return
	}

	var (
		period = 1 / c.signal.Freq
		steps  = 4096
		dt     = period / float64(steps)
		lvl    = int(dev.trgLevel)
		tcross = -1.0
	)
	prev := int(dev.code(dev.trgChan, hw.ADC1, 0))
	for i := 1; i <= steps; i++ {
		t := float64(i) * dt
		cur := int(dev.code(dev.trgChan, hw.ADC1, t))
		switch dev.trgEdge {
		case hw.Rising:
			if prev < lvl && cur >= lvl {
				tcross = t
			}
		case hw.Falling:
			if prev >= lvl && cur < lvl {
				tcross = t
			}
		}
		if tcross >= 0 {
			break
		}
		prev = cur
	}
	if tcross < 0 {
		return
	}

	rate := float64(hw.SampleRateHz[dev.rate])
	mid := 2*captureOffset(dev.counter) + hw.HalfSamples
	dev.origin = tcross - float64(mid)/rate
}

var _ hw.Hardware = (*Device)(nil)
