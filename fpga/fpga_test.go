// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fpga

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/go-lpc/dso/hw"
	"github.com/go-lpc/dso/internal/mmap"
	"github.com/go-lpc/dso/scope"
	"github.com/stretchr/testify/require"
)

func TestRegisters(t *testing.T) {
	dev, mem := newFakeBridge()

	require.NoError(t, dev.SetChannelEnable(1, true))
	require.NoError(t, dev.SetChannelCoupling(1, hw.AC))
	require.NoError(t, dev.SetChannelVoltPerDiv(1, 6))
	require.NoError(t, dev.SetChannelOffset(1, 0x355))
	require.Equal(t, uint32(chanEnable|chanAC|5<<chanRangeShft), word(mem, RegChanCfg+4))
	require.Equal(t, uint32(0x355), word(mem, RegChanOffset+4))
	require.Equal(t, uint32(0), word(mem, RegChanCfg))

	require.NoError(t, dev.SetChannelVoltPerDiv(1, 2))
	require.NoError(t, dev.SetChannelEnable(1, false))
	require.Equal(t, uint32(chanAC|2<<chanRangeShft), word(mem, RegChanCfg+4))

	require.NoError(t, dev.SetSampleRate(17))
	require.NoError(t, dev.SetTimeBase(23))
	require.Equal(t, uint32(17), word(mem, RegSampleRate))
	require.Equal(t, uint32(23), word(mem, RegTimeBase))

	require.NoError(t, dev.SetTriggerMode(hw.Normal))
	require.NoError(t, dev.SetTriggerEdge(hw.Falling))
	require.NoError(t, dev.SetTriggerChannel(1))
	require.NoError(t, dev.SetTriggerLevel(200))
	require.Equal(t, uint32(2|trigFalling|1<<trigChanShft), word(mem, RegTrigCfg))
	require.Equal(t, uint32(200), word(mem, RegTrigLevel))

	require.NoError(t, dev.SetTriggerEdge(hw.Rising))
	require.NoError(t, dev.SetTriggerMode(hw.Single))
	require.Equal(t, uint32(1|1<<trigChanShft), word(mem, RegTrigCfg))

	require.NoError(t, dev.SetSampleMode(hw.Triggered))
	require.NoError(t, dev.StartConversion())
	require.Equal(t, uint32(ctrlStart|ctrlTriggered), word(mem, RegCtrl))

	done, err := dev.ConversionDone()
	require.NoError(t, err)
	require.False(t, done)
	putWord(mem, RegStatus, statusDone)
	done, err = dev.ConversionDone()
	require.NoError(t, err)
	require.True(t, done)

	putWord(mem, RegTrigPoint, 0xf123)
	pt, err := dev.ReadTriggerPoint()
	require.NoError(t, err)
	require.Equal(t, uint16(0x123), pt)
}

func TestInvalidArguments(t *testing.T) {
	dev, _ := newFakeBridge()
	for _, tc := range []struct {
		name string
		err  error
	}{
		{"enable", dev.SetChannelEnable(2, true)},
		{"coupling", dev.SetChannelCoupling(0, hw.Coupling(2))},
		{"vpd", dev.SetChannelVoltPerDiv(0, hw.NumVoltPerDiv)},
		{"offset", dev.SetChannelOffset(-1, 0)},
		{"offset-range", dev.SetChannelOffset(0, 0x1000)},
		{"rate", dev.SetSampleRate(hw.NumSampleRates)},
		{"tbase", dev.SetTimeBase(hw.NumTimePerDiv)},
		{"mode", dev.SetTriggerMode(hw.TriggerMode(3))},
		{"edge", dev.SetTriggerEdge(hw.Edge(2))},
		{"trg-chan", dev.SetTriggerChannel(2)},
		{"level", dev.SetTriggerLevel(256)},
		{"sample-mode", dev.SetSampleMode(hw.SampleMode(2))},
		{"adc-chan", dev.ReadADC(2, hw.ADC1, 0, nil)},
		{"adc", dev.ReadADC(0, hw.ADC(2), 0, nil)},
		{"adc-offset", dev.ReadADC(0, hw.ADC1, RAMSize, nil)},
		{"adc-size", dev.ReadADC(0, hw.ADC1, 0, make([]byte, RAMSize+1))},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require.Error(t, tc.err)
		})
	}
}

func TestReadADC(t *testing.T) {
	dev, mem := newFakeBridge()
	pattern := func(ch int, adc hw.ADC) func(i int) byte {
		return func(i int) byte { return byte(i*(ch+1) + int(adc)*7) }
	}
	for ch := 0; ch < hw.NumChannels; ch++ {
		for adc := hw.ADC1; adc <= hw.ADC2; adc++ {
			fillRAM(mem, ch, adc, pattern(ch, adc))
		}
	}

	for _, offset := range []int{0, 250, RAMSize - hw.HalfSamples, 4000, RAMSize - 1} {
		for ch := 0; ch < hw.NumChannels; ch++ {
			for adc := hw.ADC1; adc <= hw.ADC2; adc++ {
				dst := make([]byte, hw.HalfSamples)
				require.NoError(t, dev.ReadADC(ch, adc, offset, dst))
				f := pattern(ch, adc)
				for i, v := range dst {
					want := f((offset + i) % RAMSize)
					if v != want {
						t.Fatalf("ch=%d adc=%d offset=%d: invalid code[%d]: got=%d, want=%d",
							ch, adc, offset, i, v, want,
						)
					}
				}
			}
		}
	}
}

func TestStickyError(t *testing.T) {
	mem := make([]byte, Span)
	bus := &flaky{rwer: mmap.From(mem), n: 2}
	dev := New(bus)

	// read-modify-write: the write fails, the register is left untouched.
	err := dev.SetChannelEnable(0, true)
	require.Error(t, err)
	require.ErrorContains(t, err, "could not enable channel 1")
	require.Equal(t, uint32(0), word(mem, RegChanCfg))

	// the error does not leak into the next sequence.
	require.NoError(t, dev.SetChannelEnable(0, true))
	require.Equal(t, uint32(chanEnable), word(mem, RegChanCfg))

	bus.n = 1
	_, err = dev.ConversionDone()
	require.Error(t, err)
	bus.n = 1
	_, err = dev.ReadTriggerPoint()
	require.Error(t, err)
	bus.n = 1
	err = dev.ReadADC(0, hw.ADC1, 0, make([]byte, 10))
	require.Error(t, err)
}

func TestOpen(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "mem")
	require.NoError(t, os.WriteFile(fname, make([]byte, Span), 0644))

	dev, err := Open(fname, 0)
	require.NoError(t, err)
	require.NoError(t, dev.SetTimeBase(7))
	require.NoError(t, dev.Close())
	require.NoError(t, dev.Close())

	raw, err := os.ReadFile(fname)
	require.NoError(t, err)
	require.Equal(t, uint32(7), word(raw, RegTimeBase))

	_, err = Open(filepath.Join(t.TempDir(), "not-there"), 0)
	require.Error(t, err)
}

func TestScopeCapture(t *testing.T) {
	dev, mem := newFakeBridge()

	square := func(i int) byte {
		if (i/50)%2 == 0 {
			return 200
		}
		return 56
	}
	fillRAM(mem, 0, hw.ADC1, square)
	fillRAM(mem, 0, hw.ADC2, square)
	putWord(mem, RegTrigPoint, 1000)

	var mu sync.Mutex
	wrap(t, &mu, &dev.regs.status, "status", []uint32{0, 0, statusDone})

	sc := scope.New(dev, nil)
	require.NoError(t, sc.Configure())

	st, err := sc.Acquire(context.Background())
	require.NoError(t, err)
	require.Equal(t, scope.Captured, st)

	set := sc.Settings()
	ch := &set.Channels[0]
	const offset = 1000 - 750
	for i := 0; i < hw.HalfSamples; i++ {
		want := square(offset + i)
		if ch.Samples[2*i] != want || ch.Samples[2*i+1] != want {
			t.Fatalf("invalid sample %d: got=%d/%d, want=%d",
				i, ch.Samples[2*i], ch.Samples[2*i+1], want,
			)
		}
	}
	require.Equal(t, 144, ch.Stats.PeakPeak)
	require.True(t, ch.Stats.FreqValid)

	require.Equal(t, uint32(ctrlStart|ctrlTriggered), word(mem, RegCtrl))
	require.Equal(t, uint32(set.Trigger.Level), word(mem, RegTrigLevel))
	require.Equal(t, uint32(set.SampleRate), word(mem, RegSampleRate))
	require.Equal(t, uint32(chanEnable|3<<chanRangeShft), word(mem, RegChanCfg))
	require.Equal(t, uint32(850), word(mem, RegChanOffset))
}
