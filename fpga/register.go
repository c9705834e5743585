// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fpga

import (
	"io"

	"github.com/go-lpc/dso/hw"
)

type rwer interface {
	io.ReaderAt
	io.WriterAt
}

type reg32 struct {
	r func() uint32
	w func(v uint32)
}

func newReg32(dev *Device, rw rwer, offset int64) reg32 {
	return reg32{
		r: func() uint32 {
			return dev.readU32(rw, offset)
		},
		w: func(v uint32) {
			dev.writeU32(rw, offset, v)
		},
	}
}

// Register map of the acquisition bridge, as byte offsets from the base
// of the window.
const (
	RegCtrl       = 0x00 // control: start, sample mode
	RegStatus     = 0x04 // status: conversion done
	RegChanCfg    = 0x10 // per channel, 4 bytes apart: enable, coupling, range
	RegChanOffset = 0x20 // per channel, 4 bytes apart: DC offset DAC
	RegSampleRate = 0x30
	RegTimeBase   = 0x34
	RegTrigCfg    = 0x38 // mode, edge, source channel
	RegTrigLevel  = 0x3c
	RegTrigPoint  = 0x40 // read-only post-trigger counter

	RegSampleRAM = 0x1000 // per channel and ADC, RAMSize bytes apart

	RAMSize = hw.TriggerPointMax + 1 // codes per ADC sample RAM
	Span    = RegSampleRAM + hw.NumChannels*hw.NumADCs*RAMSize
)

// bits of RegCtrl
const (
	ctrlStart     = 1 << 0
	ctrlTriggered = 1 << 1
)

// bits of RegStatus
const (
	statusDone = 1 << 0
)

// bits of RegChanCfg
const (
	chanEnable    = 1 << 0
	chanAC        = 1 << 1
	chanRangeShft = 4
	chanRangeMask = 0x7 << chanRangeShft
)

// bits of RegTrigCfg
const (
	trigModeMask = 0x3
	trigFalling  = 1 << 4
	trigChanShft = 8
	trigChanMask = 0x1 << trigChanShft
)

const (
	offsetMask = 0xfff // 12-bit offset DAC
	levelMask  = 0xff
	pointMask  = 0xfff
)

func ramAddr(ch int, adc hw.ADC) int64 {
	return RegSampleRAM + int64(ch*hw.NumADCs+int(adc))*RAMSize
}
