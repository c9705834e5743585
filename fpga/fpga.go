// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fpga drives the acquisition bridge of the scope through its
// memory-mapped register window.
package fpga // import "github.com/go-lpc/dso/fpga"

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/go-lpc/dso/hw"
	"github.com/go-lpc/dso/internal/mmap"
	"github.com/rs/zerolog"
)

// Device is a register-mapped acquisition front end.
type Device struct {
	msg zerolog.Logger
	rw  rwer
	win io.Closer

	err  error
	xbuf [4]byte

	regs struct {
		ctrl   reg32
		status reg32

		chanCfg    [hw.NumChannels]reg32
		chanOffset [hw.NumChannels]reg32

		rate  reg32
		tbase reg32

		trgCfg   reg32
		trgLevel reg32
		trgPoint reg32
	}
}

var _ hw.Hardware = (*Device)(nil)

// Option configures a Device.
type Option func(*Device)

// WithLogger sets the logger of the device.
func WithLogger(msg zerolog.Logger) Option {
	return func(dev *Device) {
		dev.msg = msg
	}
}

// New returns a device driving the registers exposed by rw.
func New(rw rwer, opts ...Option) *Device {
	dev := &Device{
		msg: zerolog.Nop(),
		rw:  rw,
	}
	for _, opt := range opts {
		opt(dev)
	}
	dev.bind(rw)
	return dev
}

// Open maps the register window at the physical address base of devmem.
func Open(devmem string, base int64, opts ...Option) (*Device, error) {
	win, err := mmap.Open(devmem, base, Span)
	if err != nil {
		return nil, fmt.Errorf("fpga: could not open register window: %w", err)
	}
	dev := New(win, opts...)
	dev.win = win
	dev.msg.Info().Str("dev", devmem).Str("base", fmt.Sprintf("0x%x", base)).Msg("register window mapped")
	return dev, nil
}

// Close releases the register window.
func (dev *Device) Close() error {
	if dev.win == nil {
		return nil
	}
	err := dev.win.Close()
	dev.win = nil
	if err != nil {
		return fmt.Errorf("fpga: could not close register window: %w", err)
	}
	return nil
}

func (dev *Device) bind(rw rwer) {
	dev.regs.ctrl = newReg32(dev, rw, RegCtrl)
	dev.regs.status = newReg32(dev, rw, RegStatus)
	for i := 0; i < hw.NumChannels; i++ {
		dev.regs.chanCfg[i] = newReg32(dev, rw, RegChanCfg+4*int64(i))
		dev.regs.chanOffset[i] = newReg32(dev, rw, RegChanOffset+4*int64(i))
	}
	dev.regs.rate = newReg32(dev, rw, RegSampleRate)
	dev.regs.tbase = newReg32(dev, rw, RegTimeBase)
	dev.regs.trgCfg = newReg32(dev, rw, RegTrigCfg)
	dev.regs.trgLevel = newReg32(dev, rw, RegTrigLevel)
	dev.regs.trgPoint = newReg32(dev, rw, RegTrigPoint)
}

func (dev *Device) readU32(r io.ReaderAt, off int64) uint32 {
	if dev.err != nil {
		return 0
	}
	_, dev.err = r.ReadAt(dev.xbuf[:4], off)
	if dev.err != nil {
		dev.err = fmt.Errorf("fpga: could not read register 0x%x: %w", off, dev.err)
		return 0
	}
	return binary.LittleEndian.Uint32(dev.xbuf[:4])
}

func (dev *Device) writeU32(w io.WriterAt, off int64, v uint32) {
	if dev.err != nil {
		return
	}
	binary.LittleEndian.PutUint32(dev.xbuf[:4], v)
	_, dev.err = w.WriteAt(dev.xbuf[:4], off)
	if dev.err != nil {
		dev.err = fmt.Errorf("fpga: could not write register 0x%x: %w", off, dev.err)
		return
	}
}

// update replaces the bits of mask in reg with v.
func (dev *Device) update(reg reg32, mask, v uint32) {
	cur := reg.r()
	reg.w(cur&^mask | v&mask)
}

// flush reports and clears the error accumulated by a register sequence.
func (dev *Device) flush(op string, args ...any) error {
	err := dev.err
	dev.err = nil
	if err == nil {
		return nil
	}
	return fmt.Errorf("fpga: could not %s: %w", fmt.Sprintf(op, args...), err)
}

func checkChannel(ch int) error {
	if ch < 0 || ch >= hw.NumChannels {
		return fmt.Errorf("fpga: invalid channel %d", ch)
	}
	return nil
}

func (dev *Device) SetChannelEnable(ch int, on bool) error {
	if err := checkChannel(ch); err != nil {
		return err
	}
	var v uint32
	if on {
		v = chanEnable
	}
	dev.update(dev.regs.chanCfg[ch], chanEnable, v)
	return dev.flush("enable channel %d", ch+1)
}

func (dev *Device) SetChannelCoupling(ch int, c hw.Coupling) error {
	if err := checkChannel(ch); err != nil {
		return err
	}
	var v uint32
	switch c {
	case hw.DC:
	case hw.AC:
		v = chanAC
	default:
		return fmt.Errorf("fpga: invalid coupling %d", c)
	}
	dev.update(dev.regs.chanCfg[ch], chanAC, v)
	return dev.flush("set channel %d coupling", ch+1)
}

func (dev *Device) SetChannelVoltPerDiv(ch int, vpd uint8) error {
	if err := checkChannel(ch); err != nil {
		return err
	}
	if vpd >= hw.NumVoltPerDiv {
		return fmt.Errorf("fpga: invalid volt/div %d", vpd)
	}
	rng := uint32(hw.HWRange(vpd)) << chanRangeShft
	dev.update(dev.regs.chanCfg[ch], chanRangeMask, rng)
	return dev.flush("set channel %d range", ch+1)
}

func (dev *Device) SetChannelOffset(ch int, offset uint16) error {
	if err := checkChannel(ch); err != nil {
		return err
	}
	if offset > offsetMask {
		return fmt.Errorf("fpga: channel %d offset 0x%x out of DAC range", ch+1, offset)
	}
	dev.regs.chanOffset[ch].w(uint32(offset))
	return dev.flush("set channel %d offset", ch+1)
}

func (dev *Device) SetSampleRate(idx uint8) error {
	if idx >= hw.NumSampleRates {
		return fmt.Errorf("fpga: invalid sample rate %d", idx)
	}
	dev.regs.rate.w(uint32(idx))
	return dev.flush("set sample rate")
}

func (dev *Device) SetTimeBase(idx uint8) error {
	if idx >= hw.NumTimePerDiv {
		return fmt.Errorf("fpga: invalid time base %d", idx)
	}
	dev.regs.tbase.w(uint32(idx))
	return dev.flush("set time base")
}

func (dev *Device) SetTriggerMode(m hw.TriggerMode) error {
	if m > hw.Normal {
		return fmt.Errorf("fpga: invalid trigger mode %d", m)
	}
	dev.update(dev.regs.trgCfg, trigModeMask, uint32(m))
	return dev.flush("set trigger mode")
}

func (dev *Device) SetTriggerEdge(e hw.Edge) error {
	var v uint32
	switch e {
	case hw.Rising:
	case hw.Falling:
		v = trigFalling
	default:
		return fmt.Errorf("fpga: invalid trigger edge %d", e)
	}
	dev.update(dev.regs.trgCfg, trigFalling, v)
	return dev.flush("set trigger edge")
}

func (dev *Device) SetTriggerChannel(ch int) error {
	if err := checkChannel(ch); err != nil {
		return err
	}
	dev.update(dev.regs.trgCfg, trigChanMask, uint32(ch)<<trigChanShft)
	return dev.flush("set trigger channel")
}

func (dev *Device) SetTriggerLevel(lvl uint16) error {
	if lvl > levelMask {
		return fmt.Errorf("fpga: invalid trigger level %d", lvl)
	}
	dev.regs.trgLevel.w(uint32(lvl))
	return dev.flush("set trigger level")
}

func (dev *Device) SetSampleMode(m hw.SampleMode) error {
	var v uint32
	switch m {
	case hw.FreeRun:
	case hw.Triggered:
		v = ctrlTriggered
	default:
		return fmt.Errorf("fpga: invalid sample mode %d", m)
	}
	dev.update(dev.regs.ctrl, ctrlTriggered, v)
	return dev.flush("set sample mode")
}

func (dev *Device) StartConversion() error {
	dev.update(dev.regs.ctrl, ctrlStart, ctrlStart)
	return dev.flush("start conversion")
}

func (dev *Device) ConversionDone() (bool, error) {
	done := dev.regs.status.r()&statusDone != 0
	if err := dev.flush("read conversion status"); err != nil {
		return false, err
	}
	return done, nil
}

func (dev *Device) ReadTriggerPoint() (uint16, error) {
	v := dev.regs.trgPoint.r()
	if err := dev.flush("read trigger point"); err != nil {
		return 0, err
	}
	return uint16(v & pointMask), nil
}

// ReadADC reads the circular sample RAM of one ADC, wrapping around its
// end.
func (dev *Device) ReadADC(ch int, adc hw.ADC, offset int, dst []byte) error {
	if err := checkChannel(ch); err != nil {
		return err
	}
	switch {
	case adc > hw.ADC2:
		return fmt.Errorf("fpga: invalid ADC %d", adc)
	case offset < 0 || offset >= RAMSize:
		return fmt.Errorf("fpga: invalid sample RAM offset %d", offset)
	case len(dst) > RAMSize:
		return fmt.Errorf("fpga: invalid sample read of %d codes", len(dst))
	}

	var (
		base = ramAddr(ch, adc)
		n    = min(len(dst), RAMSize-offset)
	)
	_, err := dev.rw.ReadAt(dst[:n], base+int64(offset))
	if err == nil && n < len(dst) {
		_, err = dev.rw.ReadAt(dst[n:], base)
	}
	if err != nil {
		return fmt.Errorf("fpga: could not read channel %d ADC%d sample RAM: %w", ch+1, adc+1, err)
	}
	return nil
}
