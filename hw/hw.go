// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hw describes the FPGA front end driven by the acquisition core.
package hw // import "github.com/go-lpc/dso/hw"

const (
	NumChannels = 2    // number of analog channels
	NumADCs     = 2    // number of interleaved ADCs per channel
	HalfSamples = 1500 // samples read per ADC for one capture

	TriggerPointMax = 4095 // trigger-position counter domain is [0, TriggerPointMax]
)

// ADC identifies one of the two interleaved converters of a channel.
type ADC uint8

const (
	ADC1 ADC = iota
	ADC2
)

// Coupling is the input coupling of a channel.
type Coupling uint8

const (
	DC Coupling = iota
	AC
)

func (c Coupling) String() string {
	switch c {
	case DC:
		return "DC"
	case AC:
		return "AC"
	}
	return "Coupling(?)"
}

// Edge is the trigger edge.
type Edge uint8

const (
	Rising Edge = iota
	Falling
)

func (e Edge) String() string {
	switch e {
	case Rising:
		return "rising"
	case Falling:
		return "falling"
	}
	return "Edge(?)"
}

// TriggerMode is the trigger mode of the instrument.
type TriggerMode uint8

const (
	Auto TriggerMode = iota
	Single
	Normal
)

func (m TriggerMode) String() string {
	switch m {
	case Auto:
		return "auto"
	case Single:
		return "single"
	case Normal:
		return "normal"
	}
	return "TriggerMode(?)"
}

// SampleMode selects whether the trigger circuit gates the conversion.
type SampleMode uint8

const (
	FreeRun   SampleMode = iota // convert immediately, trigger circuit bypassed
	Triggered                   // trigger circuit enabled
)

// Hardware is the register-level interface to the FPGA front end.
//
// Channel numbers are 0-based. Setters program a single register and
// do not wait for relays to settle: callers own the settle delays.
type Hardware interface {
	SetChannelEnable(ch int, on bool) error
	SetChannelCoupling(ch int, c Coupling) error
	SetChannelVoltPerDiv(ch int, vpd uint8) error
	SetChannelOffset(ch int, offset uint16) error

	SetSampleRate(idx uint8) error
	SetTimeBase(idx uint8) error

	SetTriggerMode(m TriggerMode) error
	SetTriggerEdge(e Edge) error
	SetTriggerChannel(ch int) error
	SetTriggerLevel(lvl uint16) error

	SetSampleMode(m SampleMode) error

	// StartConversion arms the front end for one capture.
	StartConversion() error
	// ConversionDone reports whether the armed capture has completed.
	ConversionDone() (bool, error)

	// ReadTriggerPoint returns the free-running post-trigger counter,
	// in [0, TriggerPointMax].
	ReadTriggerPoint() (uint16, error)

	// ReadADC fills dst with the codes of one ADC of channel ch,
	// starting at the given sample RAM offset.
	ReadADC(ch int, adc ADC, offset int, dst []byte) error
}

// Input is the user-command collaborator. Pending reports whether a
// command is waiting to be processed.
type Input interface {
	Pending() bool
}
