// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cfgstore

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/go-lpc/dso/hw"
	"github.com/go-lpc/dso/internal/wsum"
	"github.com/go-lpc/dso/scope"
)

const (
	NumWords  = 256          // 16-bit words in a settings block
	BlockSize = 2 * NumWords // bytes in a settings block

	FormatID uint32 = 0x44534f31 // "DSO1"
	Version  uint32 = 1
)

var (
	ErrChecksum = errors.New("cfgstore: invalid checksum")
	ErrFormat   = errors.New("cfgstore: invalid format identifier")
	ErrVersion  = errors.New("cfgstore: unsupported version")
)

// word offsets of the block regions.
const (
	wChecksum = 0
	wFormat   = 2
	wVersion  = 4

	wChannels = 8 // 16 words per channel
	wChanSize = 16

	wTrigger = 40
	wCursors = 56
	wSlots   = 72 // 2 words per slot

	wCalib    = 96 // 16 words per channel
	wCalSize  = 16
	wCalComp1 = hw.NumVoltPerDiv
	wCalComp2 = hw.NumVoltPerDiv + 1
)

// channel region
const (
	chEnabled = iota
	chCoupling
	chMagnification
	chDisplayVPD
	chSampleVPD
	chPosition
	chFFT
)

// trigger and time base region
const (
	trgMode = iota
	trgEdge
	trgChannel
	trgLevel
	trgHPos
	trgVPos
	trgTimePerDiv
	trgSampleRate
	trgRunning
	trgAlwaysFifty
	trgXY
)

// cursor region
const (
	curTimeOn = iota
	curT1
	curT2
	curVoltOn
	curV1
	curV2
	curChannel
)

type block [NumWords]uint16

func (blk *block) u32(i int) uint32 {
	return uint32(blk[i]) | uint32(blk[i+1])<<16
}

func (blk *block) setU32(i int, v uint32) {
	blk[i] = uint16(v)
	blk[i+1] = uint16(v >> 16)
}

func (blk *block) bytes() []byte {
	raw := make([]byte, BlockSize)
	for i, w := range blk {
		binary.LittleEndian.PutUint16(raw[2*i:], w)
	}
	return raw
}

// checksum is the sum of all words but the checksum ones.
func (blk *block) checksum() uint32 {
	raw := blk.bytes()
	return wsum.Checksum(raw[2*wFormat:])
}

func flag(v bool) uint16 {
	if v {
		return 1
	}
	return 0
}

// Encode serializes the persistent part of the settings into a block.
func Encode(set *scope.Settings) []byte {
	var blk block
	blk.setU32(wFormat, FormatID)
	blk.setU32(wVersion, Version)

	for i := range set.Channels {
		var (
			ch  = &set.Channels[i]
			beg = wChannels + i*wChanSize
			cal = wCalib + i*wCalSize
		)
		blk[beg+chEnabled] = flag(ch.Enabled)
		blk[beg+chCoupling] = uint16(ch.Coupling)
		blk[beg+chMagnification] = uint16(ch.Magnification)
		blk[beg+chDisplayVPD] = uint16(ch.DisplayVPD)
		blk[beg+chSampleVPD] = uint16(ch.SampleVPD)
		blk[beg+chPosition] = uint16(ch.Position)
		blk[beg+chFFT] = flag(ch.FFT)

		copy(blk[cal:], ch.Cal.DCOffset[:])
		blk[cal+wCalComp1] = uint16(ch.Cal.ADC1Comp)
		blk[cal+wCalComp2] = uint16(ch.Cal.ADC2Comp)
	}

	trg := &set.Trigger
	blk[wTrigger+trgMode] = uint16(trg.Mode)
	blk[wTrigger+trgEdge] = uint16(trg.Edge)
	blk[wTrigger+trgChannel] = uint16(trg.Channel)
	blk[wTrigger+trgLevel] = trg.Level
	blk[wTrigger+trgHPos] = uint16(trg.HPos)
	blk[wTrigger+trgVPos] = uint16(trg.VPos)
	blk[wTrigger+trgTimePerDiv] = uint16(set.TimePerDiv)
	blk[wTrigger+trgSampleRate] = uint16(set.SampleRate)
	blk[wTrigger+trgRunning] = flag(set.Running)
	blk[wTrigger+trgAlwaysFifty] = flag(set.AlwaysFifty)
	blk[wTrigger+trgXY] = flag(set.XY)

	cur := &set.Cursors
	blk[wCursors+curTimeOn] = flag(cur.TimeOn)
	blk[wCursors+curT1] = uint16(cur.T1)
	blk[wCursors+curT2] = uint16(cur.T2)
	blk[wCursors+curVoltOn] = flag(cur.VoltOn)
	blk[wCursors+curV1] = uint16(cur.V1)
	blk[wCursors+curV2] = uint16(cur.V2)
	blk[wCursors+curChannel] = uint16(cur.Channel)

	for i, slot := range set.Slots {
		beg := wSlots + 2*i
		blk[beg+0] = flag(slot.On)
		blk[beg+1] = uint16(slot.Channel)<<8 | uint16(slot.Kind)
	}

	blk.setU32(wChecksum, blk.checksum())
	return blk.bytes()
}

// Decode validates a settings block and deserializes it.
func Decode(raw []byte) (scope.Settings, error) {
	var set scope.Settings
	if len(raw) != BlockSize {
		return set, fmt.Errorf("cfgstore: invalid block size %d: %w", len(raw), ErrFormat)
	}

	var blk block
	for i := range blk {
		blk[i] = binary.LittleEndian.Uint16(raw[2*i:])
	}

	if got, want := blk.u32(wChecksum), blk.checksum(); got != want {
		return set, fmt.Errorf("%w (got=0x%08x, want=0x%08x)", ErrChecksum, got, want)
	}
	if got := blk.u32(wFormat); got != FormatID {
		return set, fmt.Errorf("%w (got=0x%08x)", ErrFormat, got)
	}
	if got := blk.u32(wVersion); got != Version {
		return set, fmt.Errorf("%w (got=%d)", ErrVersion, got)
	}

	for i := range set.Channels {
		var (
			ch  = &set.Channels[i]
			beg = wChannels + i*wChanSize
			cal = wCalib + i*wCalSize
		)
		ch.Enabled = blk[beg+chEnabled] != 0
		ch.Coupling = hw.Coupling(blk[beg+chCoupling])
		ch.Magnification = scope.Magnification(blk[beg+chMagnification])
		ch.DisplayVPD = uint8(blk[beg+chDisplayVPD])
		ch.SampleVPD = uint8(blk[beg+chSampleVPD])
		ch.Position = int(blk[beg+chPosition])
		ch.FFT = blk[beg+chFFT] != 0

		copy(ch.Cal.DCOffset[:], blk[cal:])
		ch.Cal.ADC1Comp = int16(blk[cal+wCalComp1])
		ch.Cal.ADC2Comp = int16(blk[cal+wCalComp2])
	}

	set.Trigger = scope.Trigger{
		Mode:    hw.TriggerMode(blk[wTrigger+trgMode]),
		Edge:    hw.Edge(blk[wTrigger+trgEdge]),
		Channel: int(blk[wTrigger+trgChannel]),
		Level:   blk[wTrigger+trgLevel],
		HPos:    int(blk[wTrigger+trgHPos]),
		VPos:    int(blk[wTrigger+trgVPos]),
	}
	set.TimePerDiv = uint8(blk[wTrigger+trgTimePerDiv])
	set.SampleRate = uint8(blk[wTrigger+trgSampleRate])
	set.Running = blk[wTrigger+trgRunning] != 0
	set.AlwaysFifty = blk[wTrigger+trgAlwaysFifty] != 0
	set.XY = blk[wTrigger+trgXY] != 0

	set.Cursors = scope.Cursors{
		TimeOn:  blk[wCursors+curTimeOn] != 0,
		T1:      int(blk[wCursors+curT1]),
		T2:      int(blk[wCursors+curT2]),
		VoltOn:  blk[wCursors+curVoltOn] != 0,
		V1:      int(blk[wCursors+curV1]),
		V2:      int(blk[wCursors+curV2]),
		Channel: int(blk[wCursors+curChannel]),
	}

	for i := range set.Slots {
		beg := wSlots + 2*i
		set.Slots[i] = scope.Slot{
			On:      blk[beg+0] != 0,
			Channel: int(blk[beg+1] >> 8),
			Kind:    scope.Kind(blk[beg+1] & 0xff),
		}
	}

	err := set.Validate()
	if err != nil {
		return set, fmt.Errorf("cfgstore: invalid settings block: %w", err)
	}
	return set, nil
}
